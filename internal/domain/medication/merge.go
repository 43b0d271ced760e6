package medication

import (
	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/mapping"
	"github.com/CreativeC0der/nppd-care-connect-sub000/pkg/fhirmodels"
)

var MedicationFields = []string{
	"externalId", "status", "codeSystem", "codeValue", "codeDisplay", "formCode",
}

var RequestFields = []string{
	"externalId", "status", "intent", "medicationCode", "medicationDisplay", "authoredOn", "dosageText",
	"encounterRef", "patientRef", "medicationRef", "requesterRef",
}

func (md *Medication) Merge(rec mapping.Record) error {
	m := mapping.NewMerger(rec)
	m.String("externalId", &md.ExternalID)
	m.StringPtr("status", &md.Status)
	m.StringPtr("codeSystem", &md.CodeSystem)
	m.StringPtr("codeValue", &md.CodeValue)
	m.StringPtr("codeDisplay", &md.CodeDisplay)
	m.StringPtr("formCode", &md.FormCode)
	return m.Err()
}

func (mr *MedicationRequest) Merge(rec mapping.Record) error {
	m := mapping.NewMerger(rec)
	m.String("externalId", &mr.ExternalID)
	m.String("status", &mr.Status)
	m.StringPtr("intent", &mr.Intent)
	m.StringPtr("medicationCode", &mr.MedicationCode)
	m.StringPtr("medicationDisplay", &mr.MedicationDisplay)
	m.TimePtr("authoredOn", &mr.AuthoredOn)
	m.StringPtr("dosageText", &mr.DosageText)
	if mr.Status == "" {
		mr.Status = fhirmodels.StatusUnknown
	}
	return m.Err()
}

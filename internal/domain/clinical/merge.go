package clinical

import (
	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/mapping"
	"github.com/CreativeC0der/nppd-care-connect-sub000/pkg/fhirmodels"
)

var ConditionFields = []string{
	"externalId", "clinicalStatus", "verificationStatus", "categoryCode", "codeSystem",
	"codeValue", "codeDisplay", "onsetDatetime", "abatementDatetime", "recordedDate", "note",
	"encounterRef", "patientRef", "recorderRef",
}

var ObservationFields = []string{
	"externalId", "status", "categoryCode", "codeSystem", "codeValue", "codeDisplay",
	"valueQuantity", "valueUnit", "valueString", "effectiveDatetime", "interpretation",
	"encounterRef", "patientRef",
}

var ProcedureFields = []string{
	"externalId", "status", "codeValue", "codeDisplay", "performedStart", "performedEnd",
	"outcome", "note", "encounterRef", "patientRef", "performerRefs", "reasonRefs",
}

func (c *Condition) Merge(rec mapping.Record) error {
	m := mapping.NewMerger(rec)
	m.String("externalId", &c.ExternalID)
	m.StringPtr("clinicalStatus", &c.ClinicalStatus)
	m.StringPtr("verificationStatus", &c.VerificationStatus)
	m.StringPtr("categoryCode", &c.CategoryCode)
	m.StringPtr("codeSystem", &c.CodeSystem)
	m.StringPtr("codeValue", &c.CodeValue)
	m.StringPtr("codeDisplay", &c.CodeDisplay)
	m.TimePtr("onsetDatetime", &c.OnsetDatetime)
	m.TimePtr("abatementDatetime", &c.AbatementDatetime)
	m.TimePtr("recordedDate", &c.RecordedDate)
	m.StringPtr("note", &c.Note)
	return m.Err()
}

func (o *Observation) Merge(rec mapping.Record) error {
	m := mapping.NewMerger(rec)
	m.String("externalId", &o.ExternalID)
	m.String("status", &o.Status)
	m.StringPtr("categoryCode", &o.CategoryCode)
	m.StringPtr("codeSystem", &o.CodeSystem)
	m.StringPtr("codeValue", &o.CodeValue)
	m.StringPtr("codeDisplay", &o.CodeDisplay)
	m.FloatPtr("valueQuantity", &o.ValueQuantity)
	m.StringPtr("valueUnit", &o.ValueUnit)
	m.StringPtr("valueString", &o.ValueString)
	m.TimePtr("effectiveDatetime", &o.EffectiveDatetime)
	m.StringPtr("interpretation", &o.Interpretation)
	if o.Status == "" {
		o.Status = fhirmodels.StatusUnknown
	}
	return m.Err()
}

func (p *Procedure) Merge(rec mapping.Record) error {
	m := mapping.NewMerger(rec)
	m.String("externalId", &p.ExternalID)
	m.String("status", &p.Status)
	m.StringPtr("codeValue", &p.CodeValue)
	m.StringPtr("codeDisplay", &p.CodeDisplay)
	m.TimePtr("performedStart", &p.PerformedStart)
	m.TimePtr("performedEnd", &p.PerformedEnd)
	m.StringPtr("outcome", &p.Outcome)
	m.StringPtr("note", &p.Note)
	if p.Status == "" {
		p.Status = fhirmodels.StatusUnknown
	}
	return m.Err()
}

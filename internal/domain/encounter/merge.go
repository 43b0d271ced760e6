package encounter

import (
	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/mapping"
	"github.com/CreativeC0der/nppd-care-connect-sub000/pkg/fhirmodels"
)

var Fields = []string{
	"externalId", "status", "classCode", "typeCode", "typeDisplay",
	"periodStart", "periodEnd", "reasonText",
	"patientRef", "practitionerRefs", "organizationRef",
}

func (e *Encounter) Merge(rec mapping.Record) error {
	m := mapping.NewMerger(rec)
	m.String("externalId", &e.ExternalID)
	m.String("status", &e.Status)
	m.StringPtr("classCode", &e.ClassCode)
	m.StringPtr("typeCode", &e.TypeCode)
	m.StringPtr("typeDisplay", &e.TypeDisplay)
	m.TimePtr("periodStart", &e.PeriodStart)
	m.TimePtr("periodEnd", &e.PeriodEnd)
	m.StringPtr("reasonText", &e.ReasonText)
	if e.Status == "" {
		e.Status = fhirmodels.StatusUnknown
	}
	return m.Err()
}

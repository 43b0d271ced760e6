package diagnostics

import (
	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/mapping"
	"github.com/CreativeC0der/nppd-care-connect-sub000/pkg/fhirmodels"
)

var Fields = []string{
	"externalId", "status", "categoryCode", "codeValue", "codeDisplay",
	"effectiveDatetime", "issued", "conclusion",
	"encounterRef", "patientRef", "performerRef", "resultRefs",
}

func (d *DiagnosticReport) Merge(rec mapping.Record) error {
	m := mapping.NewMerger(rec)
	m.String("externalId", &d.ExternalID)
	m.String("status", &d.Status)
	m.StringPtr("categoryCode", &d.CategoryCode)
	m.StringPtr("codeValue", &d.CodeValue)
	m.StringPtr("codeDisplay", &d.CodeDisplay)
	m.TimePtr("effectiveDatetime", &d.EffectiveDatetime)
	m.TimePtr("issued", &d.Issued)
	m.StringPtr("conclusion", &d.Conclusion)
	if d.Status == "" {
		d.Status = fhirmodels.StatusUnknown
	}
	return m.Err()
}

package synchronizer

import (
	"fmt"
	"strings"

	"github.com/CreativeC0der/nppd-care-connect-sub000/pkg/fhirmodels"
)

// Kind names a synchronized resource type or a cross-link stage.
type Kind string

const (
	KindOrganization      Kind = fhirmodels.ResourceOrganization
	KindPatient           Kind = fhirmodels.ResourcePatient
	KindPractitioner      Kind = fhirmodels.ResourcePractitioner
	KindEncounter         Kind = fhirmodels.ResourceEncounter
	KindCondition         Kind = fhirmodels.ResourceCondition
	KindMedication        Kind = fhirmodels.ResourceMedication
	KindMedicationRequest Kind = fhirmodels.ResourceMedicationRequest
	KindAppointment       Kind = fhirmodels.ResourceAppointment
	KindSchedule          Kind = fhirmodels.ResourceSchedule
	KindSlot              Kind = fhirmodels.ResourceSlot
	KindObservation       Kind = fhirmodels.ResourceObservation
	KindDiagnosticReport  Kind = fhirmodels.ResourceDiagnosticReport
	KindProcedure         Kind = fhirmodels.ResourceProcedure

	// Cross-link stages.
	KindReportResults    Kind = "DiagnosticReport.result"
	KindProcedureReasons Kind = "Procedure.reasonReference"
)

var resourceKinds = []Kind{
	KindOrganization, KindPatient, KindPractitioner, KindEncounter, KindCondition,
	KindMedication, KindMedicationRequest, KindAppointment, KindSchedule, KindSlot,
	KindObservation, KindDiagnosticReport, KindProcedure,
}

// ParseKind resolves a resource type name the way operators type it: any
// case, with or without a plural "s", hyphens and underscores ignored. So
// "DiagnosticReport", "diagnostic-reports" and "diagnosticreport" all match.
func ParseKind(s string) (Kind, error) {
	norm := strings.ToLower(strings.NewReplacer("-", "", "_", "").Replace(strings.TrimSpace(s)))
	for _, k := range resourceKinds {
		name := strings.ToLower(string(k))
		if norm == name || norm == name+"s" {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
}

func (k Kind) isLink() bool {
	return k == KindReportResults || k == KindProcedureReasons
}

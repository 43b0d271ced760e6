package fhirmodels

// Resource type names as they appear in resourceType and in REST paths.
const (
	ResourceOrganization      = "Organization"
	ResourcePatient           = "Patient"
	ResourcePractitioner      = "Practitioner"
	ResourceEncounter         = "Encounter"
	ResourceCondition         = "Condition"
	ResourceMedication        = "Medication"
	ResourceMedicationRequest = "MedicationRequest"
	ResourceAppointment       = "Appointment"
	ResourceSchedule          = "Schedule"
	ResourceSlot              = "Slot"
	ResourceObservation       = "Observation"
	ResourceDiagnosticReport  = "DiagnosticReport"
	ResourceProcedure         = "Procedure"
)

// Status values stored when the upstream resource carries none.
const (
	StatusUnknown             = "unknown"
	SlotStatusFree            = "free"
	AppointmentStatusProposed = "proposed"
)

// Bundle link relations and search modes.
const (
	LinkRelationNext  = "next"
	LinkRelationSelf  = "self"
	SearchModeMatch   = "match"
	SearchModeInclude = "include"
)

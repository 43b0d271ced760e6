package synchronizer

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/domain/admin"
	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/domain/clinical"
	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/domain/diagnostics"
	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/domain/encounter"
	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/domain/identity"
	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/domain/medication"
	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/domain/scheduling"
	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/platform/db"
)

// Transactor runs fn inside one unit of work.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Locker takes a cross-process lock. The returned func releases it.
type Locker interface {
	TryLock(ctx context.Context, name string) (func(), error)
}

// Store bundles the repositories the engine writes to.
type Store struct {
	Organizations      admin.OrganizationRepository
	Runs               admin.SyncRunRepository
	Patients           identity.PatientRepository
	Practitioners      identity.PractitionerRepository
	Encounters         encounter.Repository
	Conditions         clinical.ConditionRepository
	Observations       clinical.ObservationRepository
	Procedures         clinical.ProcedureRepository
	Medications        medication.MedicationRepository
	MedicationRequests medication.MedicationRequestRepository
	Schedules          scheduling.ScheduleRepository
	Slots              scheduling.SlotRepository
	Appointments       scheduling.AppointmentRepository
	DiagnosticReports  diagnostics.Repository

	Tx Transactor
	// Locker is optional; without it only the in-process guard applies.
	Locker Locker
}

func NewPostgresStore(pool *pgxpool.Pool) *Store {
	return &Store{
		Organizations:      admin.NewOrganizationRepo(pool),
		Runs:               admin.NewSyncRunRepo(pool),
		Patients:           identity.NewPatientRepo(pool),
		Practitioners:      identity.NewPractitionerRepo(pool),
		Encounters:         encounter.NewRepo(pool),
		Conditions:         clinical.NewConditionRepo(pool),
		Observations:       clinical.NewObservationRepo(pool),
		Procedures:         clinical.NewProcedureRepo(pool),
		Medications:        medication.NewMedicationRepo(pool),
		MedicationRequests: medication.NewMedicationRequestRepo(pool),
		Schedules:          scheduling.NewScheduleRepo(pool),
		Slots:              scheduling.NewSlotRepo(pool),
		Appointments:       scheduling.NewAppointmentRepo(pool),
		DiagnosticReports:  diagnostics.NewRepo(pool),
		Tx:                 db.NewTransactor(pool),
		Locker:             db.NewAdvisoryLocker(pool, "ehr-sync"),
	}
}

// NewMemoryStore returns a store backed by process memory. Writes are not
// transactional.
func NewMemoryStore() *Store {
	return &Store{
		Organizations:      admin.NewOrganizationMemoryRepo(),
		Runs:               admin.NewSyncRunMemoryRepo(),
		Patients:           identity.NewPatientMemoryRepo(),
		Practitioners:      identity.NewPractitionerMemoryRepo(),
		Encounters:         encounter.NewMemoryRepo(),
		Conditions:         clinical.NewConditionMemoryRepo(),
		Observations:       clinical.NewObservationMemoryRepo(),
		Procedures:         clinical.NewProcedureMemoryRepo(),
		Medications:        medication.NewMedicationMemoryRepo(),
		MedicationRequests: medication.NewMedicationRequestMemoryRepo(),
		Schedules:          scheduling.NewScheduleMemoryRepo(),
		Slots:              scheduling.NewSlotMemoryRepo(),
		Appointments:       scheduling.NewAppointmentMemoryRepo(),
		DiagnosticReports:  diagnostics.NewMemoryRepo(),
		Tx:                 passthroughTx{},
	}
}

type passthroughTx struct{}

func (passthroughTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

package diagnostics

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestMemoryRepo_ListByPatient(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()
	patient := uuid.New()

	for _, ext := range []string{"DR2", "DR1"} {
		if err := repo.Create(ctx, &DiagnosticReport{ExternalID: ext, PatientID: patient, Status: "final"}); err != nil {
			t.Fatalf("Create(%s) error: %v", ext, err)
		}
	}

	got, err := repo.ListByPatient(ctx, patient)
	if err != nil {
		t.Fatalf("ListByPatient() error: %v", err)
	}
	if len(got) != 2 || got[0].ExternalID != "DR1" {
		t.Errorf("expected two reports ordered by external id, got %d", len(got))
	}

	got, _ = repo.ListByPatient(ctx, uuid.New())
	if len(got) != 0 {
		t.Errorf("expected no reports for unknown patient, got %d", len(got))
	}
}

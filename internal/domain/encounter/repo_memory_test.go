package encounter

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/platform/db"
)

func TestMemoryRepo_Participants(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()

	e := &Encounter{ExternalID: "E1", PatientID: uuid.New(), Status: "finished"}
	if err := repo.Create(ctx, e); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	first := []uuid.UUID{uuid.New(), uuid.New()}
	if err := repo.ReplaceParticipants(ctx, e.ID, first); err != nil {
		t.Fatalf("ReplaceParticipants() error: %v", err)
	}
	second := []uuid.UUID{uuid.New()}
	if err := repo.ReplaceParticipants(ctx, e.ID, second); err != nil {
		t.Fatalf("ReplaceParticipants() error: %v", err)
	}

	got, err := repo.GetParticipants(ctx, e.ID)
	if err != nil {
		t.Fatalf("GetParticipants() error: %v", err)
	}
	if len(got) != 1 || got[0] != second[0] {
		t.Errorf("expected participants to be replaced, got %v", got)
	}

	if err := repo.ReplaceParticipants(ctx, uuid.New(), second); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown encounter, got %v", err)
	}
}

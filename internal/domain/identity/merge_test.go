package identity

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/mapping"
)

func ptrStr(s string) *string { return &s }

func TestPatient_Merge(t *testing.T) {
	orgID := uuid.New()
	p := &Patient{
		ExternalID:     "P1",
		FirstName:      "Ann",
		LastName:       "Smith",
		Email:          ptrStr("ann@old.example"),
		OrganizationID: &orgID,
	}

	err := p.Merge(mapping.NewRecord(map[string]any{
		"externalId": "P1",
		"lastName":   "Jones",
		"birthDate":  "1980-04-12",
		"phone":      nil,
		"active":     true,
	}))
	if err != nil {
		t.Fatalf("Merge() error: %v", err)
	}

	if p.LastName != "Jones" {
		t.Errorf("expected last name Jones, got %s", p.LastName)
	}
	if p.FirstName != "Ann" {
		t.Errorf("expected unmapped first name to be preserved, got %s", p.FirstName)
	}
	if p.BirthDate == nil || !p.BirthDate.Equal(time.Date(1980, 4, 12, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected birth date %v", p.BirthDate)
	}
	if p.Email == nil || *p.Email != "ann@old.example" {
		t.Errorf("expected unmapped email to be preserved, got %v", p.Email)
	}
	if p.OrganizationID == nil || *p.OrganizationID != orgID {
		t.Error("expected relation to be untouched by Merge")
	}
	if !p.Active {
		t.Error("expected active to be set")
	}
}

func TestPatient_MergeBadDate(t *testing.T) {
	p := &Patient{}
	err := p.Merge(mapping.NewRecord(map[string]any{"birthDate": "12/04/1980"}))
	var mErr *mapping.Error
	if !errors.As(err, &mErr) || mErr.Field != "birthDate" {
		t.Fatalf("expected mapping error on birthDate, got %v", err)
	}
}

func TestPractitioner_Merge(t *testing.T) {
	p := &Practitioner{ExternalID: "D1", LastName: "House"}
	err := p.Merge(mapping.NewRecord(map[string]any{
		"externalId": "D1",
		"firstName":  "Gregory",
		"npi":        "1234567893",
	}))
	if err != nil {
		t.Fatalf("Merge() error: %v", err)
	}
	if p.FirstName != "Gregory" || p.LastName != "House" {
		t.Errorf("unexpected name %s %s", p.FirstName, p.LastName)
	}
	if p.NPI == nil || *p.NPI != "1234567893" {
		t.Errorf("unexpected npi %v", p.NPI)
	}
}

package medication

import (
	"testing"
	"time"

	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/mapping"
)

func TestMedication_MergeClearsEmpty(t *testing.T) {
	form := "TAB"
	md := &Medication{ExternalID: "M1", FormCode: &form}
	err := md.Merge(mapping.NewRecord(map[string]any{
		"externalId": "M1",
		"formCode":   "",
		"codeValue":  "197361",
	}))
	if err != nil {
		t.Fatalf("Merge() error: %v", err)
	}
	if md.FormCode != nil {
		t.Errorf("expected empty form code to clear the column, got %v", *md.FormCode)
	}
	if md.CodeValue == nil || *md.CodeValue != "197361" {
		t.Errorf("unexpected code value %v", md.CodeValue)
	}
}

func TestMedicationRequest_Merge(t *testing.T) {
	mr := &MedicationRequest{}
	err := mr.Merge(mapping.NewRecord(map[string]any{
		"externalId": "MR1",
		"status":     "active",
		"intent":     "order",
		"authoredOn": "2024-03-01T09:30:00Z",
	}))
	if err != nil {
		t.Fatalf("Merge() error: %v", err)
	}
	want := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	if mr.AuthoredOn == nil || !mr.AuthoredOn.Equal(want) {
		t.Errorf("expected authoredOn %v, got %v", want, mr.AuthoredOn)
	}
	if mr.Status != "active" || mr.Intent == nil || *mr.Intent != "order" {
		t.Errorf("unexpected status/intent %s/%v", mr.Status, mr.Intent)
	}
}

package clinical

import (
	"testing"

	"github.com/google/uuid"

	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/mapping"
)

func TestObservation_Merge(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    float64
		wantNil bool
		wantErr bool
	}{
		{"number", 98.6, 98.6, false, false},
		{"numeric text", "120", 120, false, false},
		{"null clears", nil, 0, true, false},
		{"empty text clears", "", 0, true, false},
		{"object", map[string]any{"value": 1.0}, 0, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := 1.5
			o := &Observation{ExternalID: "O1", ValueQuantity: &prev}
			err := o.Merge(mapping.NewRecord(map[string]any{
				"externalId":    "O1",
				"valueQuantity": tt.value,
			}))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Merge() error: %v", err)
			}
			if tt.wantNil {
				if o.ValueQuantity != nil {
					t.Errorf("expected nil quantity, got %v", *o.ValueQuantity)
				}
				return
			}
			if o.ValueQuantity == nil || *o.ValueQuantity != tt.want {
				t.Errorf("expected %v, got %v", tt.want, o.ValueQuantity)
			}
			if o.Status != "unknown" {
				t.Errorf("expected default status, got %s", o.Status)
			}
		})
	}
}

func TestCondition_MergeKeepsBackReference(t *testing.T) {
	proc := uuid.New()
	c := &Condition{ExternalID: "C1", ProcedureID: &proc}
	if err := c.Merge(mapping.NewRecord(map[string]any{
		"externalId":     "C1",
		"clinicalStatus": "active",
		"onsetDatetime":  "2023-11",
	})); err != nil {
		t.Fatalf("Merge() error: %v", err)
	}
	if c.ProcedureID == nil || *c.ProcedureID != proc {
		t.Error("expected procedure back-reference to be kept")
	}
	if c.OnsetDatetime == nil || c.OnsetDatetime.Month() != 11 {
		t.Errorf("unexpected onset %v", c.OnsetDatetime)
	}
}

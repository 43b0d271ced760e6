package diagnostics

import (
	"testing"

	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/mapping"
)

func TestDiagnosticReport_Merge(t *testing.T) {
	conclusion := "normal"
	d := &DiagnosticReport{ExternalID: "DR1", Status: "preliminary", Conclusion: &conclusion}

	err := d.Merge(mapping.NewRecord(map[string]any{
		"externalId": "DR1",
		"status":     "final",
		"issued":     "2024-02-10T08:15:00+02:00",
		"resultRefs": []any{"O1", "O2"},
	}))
	if err != nil {
		t.Fatalf("Merge() error: %v", err)
	}
	if d.Status != "final" {
		t.Errorf("expected status final, got %s", d.Status)
	}
	if d.Issued == nil || d.Issued.Hour() != 6 || d.Issued.Location().String() != "UTC" {
		t.Errorf("expected issued normalized to UTC, got %v", d.Issued)
	}
	if d.Conclusion == nil || *d.Conclusion != "normal" {
		t.Error("expected unmapped conclusion to be kept")
	}
}

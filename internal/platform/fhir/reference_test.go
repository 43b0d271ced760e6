package fhir

import "testing"

func TestParseReference(t *testing.T) {
	tests := []struct {
		ref      string
		wantType string
		wantID   string
	}{
		{"Patient/123", "Patient", "123"},
		{"https://fhir.example.org/R4/Practitioner/abc", "Practitioner", "abc"},
		{"Encounter/e1/_history/3", "Encounter", "e1"},
		{"urn:uuid:0f9c", "", "0f9c"},
		{"plain-id", "", "plain-id"},
		{"  Observation/o-1 ", "Observation", "o-1"},
		{"", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			typ, id := ParseReference(tt.ref)
			if typ != tt.wantType || id != tt.wantID {
				t.Errorf("ParseReference(%q) = (%q, %q), want (%q, %q)", tt.ref, typ, id, tt.wantType, tt.wantID)
			}
		})
	}
}

func TestFormatReference(t *testing.T) {
	if got := FormatReference("Patient", "p1"); got != "Patient/p1" {
		t.Errorf("expected Patient/p1, got %s", got)
	}
	if got := ReferenceID(FormatReference("Slot", "s9")); got != "s9" {
		t.Errorf("expected round trip to s9, got %s", got)
	}
}

package fhir

import (
	"fmt"
	"strings"
)

// FormatReference creates a FHIR reference string.
func FormatReference(resourceType, id string) string {
	return fmt.Sprintf("%s/%s", resourceType, id)
}

// ParseReference splits a literal reference into its resource type and id.
// Relative ("Patient/123"), absolute ("https://host/fhir/Patient/123"),
// versioned (".../_history/2") and "urn:uuid:" forms are accepted. A bare id
// comes back with an empty type.
func ParseReference(ref string) (resourceType, id string) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", ""
	}
	if rest, ok := strings.CutPrefix(ref, "urn:uuid:"); ok {
		return "", rest
	}
	if rest, ok := strings.CutPrefix(ref, "urn:oid:"); ok {
		return "", rest
	}
	if i := strings.Index(ref, "/_history/"); i >= 0 {
		ref = ref[:i]
	}
	ref = strings.TrimRight(ref, "/")

	parts := strings.Split(ref, "/")
	if len(parts) == 1 {
		return "", parts[0]
	}
	return parts[len(parts)-2], parts[len(parts)-1]
}

// ReferenceID returns only the id part of a literal reference.
func ReferenceID(ref string) string {
	_, id := ParseReference(ref)
	return id
}

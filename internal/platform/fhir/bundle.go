package fhir

import (
	"encoding/json"
	"fmt"

	"github.com/CreativeC0der/nppd-care-connect-sub000/pkg/fhirmodels"
)

// Bundle is a searchset page returned by an upstream FHIR server. Entry
// resources are kept raw so each can be decoded into a generic tree.
type Bundle struct {
	ResourceType string        `json:"resourceType"`
	ID           string        `json:"id,omitempty"`
	Type         string        `json:"type"`
	Total        *int          `json:"total,omitempty"`
	Link         []BundleLink  `json:"link,omitempty"`
	Entry        []BundleEntry `json:"entry,omitempty"`
}

type BundleLink struct {
	Relation string `json:"relation"`
	URL      string `json:"url"`
}

type BundleEntry struct {
	FullURL  string          `json:"fullUrl,omitempty"`
	Resource json.RawMessage `json:"resource,omitempty"`
	Search   *BundleSearch   `json:"search,omitempty"`
}

type BundleSearch struct {
	Mode string `json:"mode,omitempty"`
}

// ParseBundle decodes a page body and checks that it is a Bundle.
func ParseBundle(body []byte) (*Bundle, error) {
	var b Bundle
	if err := json.Unmarshal(body, &b); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	if b.ResourceType != "Bundle" {
		return nil, fmt.Errorf("expected resourceType Bundle, got %q", b.ResourceType)
	}
	return &b, nil
}

// NextLink returns the URL of the link with relation "next", or "" on the
// last page.
func (b *Bundle) NextLink() string {
	for _, l := range b.Link {
		if l.Relation == fhirmodels.LinkRelationNext {
			return l.URL
		}
	}
	return ""
}

// Resources decodes every matched entry into a generic JSON tree, in page
// order. Entries with search mode "include" or "outcome" are not results of
// the search and are left out.
func (b *Bundle) Resources() ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(b.Entry))
	for i, e := range b.Entry {
		if e.Search != nil && e.Search.Mode != "" && e.Search.Mode != fhirmodels.SearchModeMatch {
			continue
		}
		if len(e.Resource) == 0 {
			continue
		}
		res, err := DecodeResource(e.Resource)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		out = append(out, res)
	}
	return out, nil
}

// DecodeResource decodes a single resource body into a generic tree.
func DecodeResource(raw []byte) (map[string]any, error) {
	var res map[string]any
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("decode resource: %w", err)
	}
	if res == nil {
		return nil, fmt.Errorf("decode resource: not an object")
	}
	return res, nil
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/config"
	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/platform/db"
	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/registry"
)

const mappingYAML = `
sources:
  - id: clinic
    baseUrl: %s/fhir
    organization: ORG1
    pageSize: 10
    resources:
      Organization:
        fields:
          externalId: id
          name: name
      Patient:
        search: organization={organization}
        fields:
          externalId: id
          lastName: name[0].family
          organizationRef: managingOrganization.reference | ref
`

// upstreamServer serves ORG1 and one page with patient P1. When withOrg is
// false the organization read returns 404.
func upstreamServer(t *testing.T, withOrg bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/fhir/Organization/ORG1", func(w http.ResponseWriter, r *http.Request) {
		if !withOrg {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"resourceType":"Organization","id":"ORG1","name":"Riverside Clinic"}`)
	})
	mux.HandleFunc("/fhir/Patient", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("organization"); got != "ORG1" {
			t.Errorf("organization filter = %q, want ORG1", got)
		}
		fmt.Fprint(w, `{"resourceType":"Bundle","entry":[{"resource":
			{"resourceType":"Patient","id":"P1","name":[{"family":"Lee"}],
			 "managingOrganization":{"reference":"Organization/ORG1"}}}]}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testApp(t *testing.T, upstreamURL string) *app {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mappings.yaml")
	if err := os.WriteFile(path, []byte(fmt.Sprintf(mappingYAML, upstreamURL)), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{
		Env:                  "development",
		StoreDriver:          config.StoreMemory,
		MappingFile:          path,
		SyncWorkers:          2,
		PractitionerCacheTTL: 10 * time.Minute,
		FetchTimeout:         5 * time.Second,
	}
	a, err := newApp(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	t.Cleanup(a.Close)
	return a
}

func TestRunOnce_PrintsResult(t *testing.T) {
	a := testApp(t, upstreamServer(t, true).URL)

	var out bytes.Buffer
	if err := runOnce(context.Background(), a, "clinic", "", &out); err != nil {
		t.Fatalf("runOnce: %v", err)
	}

	var res struct {
		Source string `json:"source"`
		Types  []struct {
			Type    string `json:"type"`
			State   string `json:"state"`
			Created int    `json:"created"`
		} `json:"types"`
	}
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if res.Source != "clinic" || len(res.Types) != 2 {
		t.Fatalf("unexpected result: %s", out.String())
	}
	for _, typ := range res.Types {
		if typ.Created != 1 {
			t.Errorf("%s created = %d, want 1", typ.Type, typ.Created)
		}
	}

	// second run merges
	out.Reset()
	if err := runOnce(context.Background(), a, "clinic", "patients", &out); err != nil {
		t.Fatalf("runOnce patients: %v", err)
	}
	if !strings.Contains(out.String(), `"merged": 1`) {
		t.Errorf("expected one merge, got %s", out.String())
	}
}

func TestRunOnce_Failures(t *testing.T) {
	a := testApp(t, upstreamServer(t, false).URL)
	ctx := context.Background()

	var out bytes.Buffer
	if err := runOnce(ctx, a, "clinic", "", &out); !errors.Is(err, errRunFailed) {
		t.Errorf("missing organization: err = %v, want errRunFailed", err)
	}
	if out.Len() == 0 {
		t.Error("the result should still be printed")
	}

	if err := runOnce(ctx, a, "nowhere", "", &out); !errors.Is(err, registry.ErrUnknownSource) {
		t.Errorf("unknown source: err = %v", err)
	}
	if err := runOnce(ctx, a, "clinic", "starships", &out); err == nil {
		t.Error("unknown type should fail")
	}
}

func TestServer_Routes(t *testing.T) {
	a := testApp(t, upstreamServer(t, true).URL)
	e := newServer(context.Background(), a)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/health/db", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodPost, "/api/v1/sources/clinic/sync", http.StatusOK},
		{http.MethodPost, "/api/v1/sources/clinic/sync/organization", http.StatusOK},
		{http.MethodGet, "/api/v1/sources/clinic/sync/status", http.StatusOK},
		{http.MethodGet, "/api/v1/sources/clinic/sync/runs", http.StatusOK},
		{http.MethodPost, "/api/v1/sources/other/sync", http.StatusNotFound},
		{http.MethodPost, "/api/v1/sources/clinic/sync/medications", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestServer_RequiresTokenWithSigningKey(t *testing.T) {
	a := testApp(t, upstreamServer(t, true).URL)
	a.cfg.AuthSigningKey = "secret"
	e := newServer(context.Background(), a)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/sources/clinic/sync", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("health should stay public, got %d", rec.Code)
	}
}

func TestNewLogger_Level(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"warn", zerolog.WarnLevel},
		{"", zerolog.InfoLevel},
		{"loud", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		l := newLogger(&config.Config{LogLevel: tt.level}, &bytes.Buffer{})
		if l.GetLevel() != tt.want {
			t.Errorf("LOG_LEVEL=%q: level = %s, want %s", tt.level, l.GetLevel(), tt.want)
		}
	}
}

func TestPrintStatus(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	printStatus(&buf, []db.MigrationStatus{
		{Version: 1, Name: "sync_core", Applied: true, AppliedAt: &at},
		{Version: 2, Name: "next"},
	})
	out := buf.String()
	if !strings.Contains(out, "sync_core") || !strings.Contains(out, "2026-03-01 09:00:00") || !strings.Contains(out, "pending") {
		t.Errorf("unexpected status output:\n%s", out)
	}
}

func TestServer_HealthReportsMemoryCache(t *testing.T) {
	a := testApp(t, upstreamServer(t, true).URL)
	e := newServer(context.Background(), a)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	var body struct {
		Cache        string `json:"cache"`
		CacheEntries *int   `json:"cache_entries"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Cache != "memory" || body.CacheEntries == nil || *body.CacheEntries != 0 {
		t.Errorf("health = %s, want an empty memory cache", rec.Body.String())
	}
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mwhitfield/barrage/internal/loadgen"
)

func writeCatalog(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing catalog fixture: %v", err)
	}
	return path
}

func TestLoadCatalog_YAML(t *testing.T) {
	path := writeCatalog(t, "catalog.yaml", `
endpoints:
  - method: get
    path: /api/users
    weight: 15
  - method: POST
    path: /api/orders
    weight: 8
    requiresAuth: true
`)

	endpoints, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}

	if len(endpoints) != 2 {
		t.Fatalf("len = %d, want 2", len(endpoints))
	}
	if endpoints[0].Method != "GET" {
		t.Errorf("method = %q, want GET (uppercased)", endpoints[0].Method)
	}
	if endpoints[0].Weight != 15 {
		t.Errorf("weight = %v, want 15", endpoints[0].Weight)
	}
	if !endpoints[1].RequiresAuth {
		t.Error("requiresAuth not carried through")
	}
}

func TestLoadCatalog_JSON(t *testing.T) {
	path := writeCatalog(t, "catalog.json", `{
  "endpoints": [
    {"method": "GET", "path": "/api/health", "weight": 1}
  ]
}`)

	endpoints, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if len(endpoints) != 1 || endpoints[0].Key() != "GET /api/health" {
		t.Errorf("endpoints = %+v", endpoints)
	}
}

func TestLoadCatalog_JSONSchemaRejections(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"missing endpoints", `{}`},
		{"empty endpoints", `{"endpoints": []}`},
		{"missing weight", `{"endpoints": [{"method": "GET", "path": "/a"}]}`},
		{"zero weight", `{"endpoints": [{"method": "GET", "path": "/a", "weight": 0}]}`},
		{"empty method", `{"endpoints": [{"method": "", "path": "/a", "weight": 1}]}`},
		{"not json", `endpoints: []`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeCatalog(t, "bad.json", tc.content)
			if _, err := LoadCatalog(path); err == nil {
				t.Fatal("LoadCatalog succeeded, want error")
			}
		})
	}
}

func TestLoadCatalog_YAMLInvalidWeight(t *testing.T) {
	// YAML catalogs skip the schema but still hit the core invariants.
	path := writeCatalog(t, "catalog.yaml", `
endpoints:
  - method: GET
    path: /api/users
    weight: -1
`)
	_, err := LoadCatalog(path)
	if err == nil {
		t.Fatal("LoadCatalog succeeded, want error")
	}
	if !strings.Contains(err.Error(), "weight") {
		t.Errorf("error = %v, want weight validation", err)
	}
}

func TestLoadCatalog_UnsupportedExtension(t *testing.T) {
	path := writeCatalog(t, "catalog.toml", `endpoints = []`)
	if _, err := LoadCatalog(path); err == nil {
		t.Fatal("LoadCatalog succeeded, want unsupported format error")
	}
}

func TestLoadCatalog_MissingFile(t *testing.T) {
	if _, err := LoadCatalog(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("LoadCatalog succeeded, want error")
	}
}

func TestDefaultCatalog(t *testing.T) {
	endpoints := DefaultCatalog()
	if err := loadgen.ValidateCatalog(endpoints); err != nil {
		t.Fatalf("default catalog invalid: %v", err)
	}
	if _, err := loadgen.NewSelector(endpoints); err != nil {
		t.Fatalf("default catalog not selectable: %v", err)
	}
}

package loadgen

import "fmt"

// Endpoint describes one entry of the endpoint catalog.
type Endpoint struct {
	// Method is the HTTP method.
	Method string

	// Path is the path template appended to the base URL. The core treats
	// it as opaque; placeholder expansion is the transport caller's
	// concern.
	Path string

	// Weight sets the relative selection probability; must be positive.
	Weight float64

	// RequiresAuth marks endpoints that need an Authorization header.
	RequiresAuth bool
}

// Key identifies the endpoint in metrics and reports.
func (e Endpoint) Key() string {
	return e.Method + " " + e.Path
}

// CatalogSource supplies the endpoint catalog, consumed once as an immutable
// list at run start. The core neither fetches nor mutates it.
type CatalogSource interface {
	ListEndpoints() ([]Endpoint, error)
}

// StaticCatalog is a CatalogSource over a fixed list.
type StaticCatalog []Endpoint

func (c StaticCatalog) ListEndpoints() ([]Endpoint, error) {
	return c, nil
}

// ValidateCatalog checks the catalog invariants: at least one endpoint, every
// weight positive, method and path present.
func ValidateCatalog(endpoints []Endpoint) error {
	if len(endpoints) == 0 {
		return &ValidationError{Field: "endpoints", Message: "catalog must contain at least one endpoint"}
	}
	for i, ep := range endpoints {
		if ep.Method == "" {
			return &ValidationError{Field: fmt.Sprintf("endpoints[%d].method", i), Message: "method is required"}
		}
		if ep.Path == "" {
			return &ValidationError{Field: fmt.Sprintf("endpoints[%d].path", i), Message: "path is required"}
		}
		if ep.Weight <= 0 {
			return &ValidationError{Field: fmt.Sprintf("endpoints[%d].weight", i), Message: "weight must be > 0"}
		}
	}
	return nil
}

package project

import (
	"encoding/json"
	"errors"
	"strings"
)

var (
	// ErrFieldOrder is returned when a fact sheet field is set before the field it depends on.
	ErrFieldOrder = errors.New("fact sheet field set out of order")
	// ErrScopeSet is returned when the project scope is set a second time.
	ErrScopeSet = errors.New("project scope already set")
)

// ProjectScope is the scoping decision produced once by the solutions architect.
type ProjectScope struct {
	IsCrudRequired         bool `json:"is_crud_required"`
	IsUserLoginAndLogout   bool `json:"is_user_login_and_logout"`
	IsExternalURLsRequired bool `json:"is_external_urls_required"`
}

// RouteObject describes one HTTP endpoint extracted from generated source.
// IsRouteDynamic is the literal text "true" or "false", matching what the
// endpoint extraction directive asks the model to emit.
type RouteObject struct {
	IsRouteDynamic string          `json:"is_route_dynamic"`
	Method         string          `json:"method"`
	RequestBody    json.RawMessage `json:"request_body,omitempty"`
	Response       json.RawMessage `json:"response,omitempty"`
	Route          string          `json:"route"`
}

// Probeable reports whether the route is a non-parameterized GET route.
func (r RouteObject) Probeable() bool {
	return r.Method == "get" && r.IsRouteDynamic == "false"
}

// FilterProbeable keeps only the routes that can be checked with a plain GET.
// Order is preserved. The result is never nil.
func FilterProbeable(routes []RouteObject) []RouteObject {
	out := make([]RouteObject, 0, len(routes))
	for _, r := range routes {
		if r.Probeable() {
			out = append(out, r)
		}
	}
	return out
}

// FactSheet is the shared record threaded through the pipeline. The description
// is fixed at construction; the remaining fields fill in dependency order.
type FactSheet struct {
	description       string
	ProjectScope      *ProjectScope
	ExternalURLs      []string
	BackendCode       *string
	APIEndpointSchema []RouteObject
}

// NewFactSheet creates a fact sheet for the given project description.
func NewFactSheet(description string) *FactSheet {
	return &FactSheet{description: strings.TrimSpace(description)}
}

// Description returns the project description.
func (f *FactSheet) Description() string { return f.description }

// SetScope stores the project scope. It may only be set once.
func (f *FactSheet) SetScope(scope ProjectScope) error {
	if f.ProjectScope != nil {
		return ErrScopeSet
	}
	f.ProjectScope = &scope
	return nil
}

// SetExternalURLs stores the external URLs the project depends on.
func (f *FactSheet) SetExternalURLs(urls []string) error {
	if f.ProjectScope == nil {
		return ErrFieldOrder
	}
	f.ExternalURLs = append([]string{}, urls...)
	return nil
}

// SetBackendCode replaces the generated backend code.
func (f *FactSheet) SetBackendCode(code string) {
	f.BackendCode = &code
}

// Code returns the generated backend code, or "" if none was generated yet.
func (f *FactSheet) Code() string {
	if f.BackendCode == nil {
		return ""
	}
	return *f.BackendCode
}

// SetEndpointSchema stores the endpoints extracted from the generated code.
func (f *FactSheet) SetEndpointSchema(routes []RouteObject) error {
	if f.BackendCode == nil {
		return ErrFieldOrder
	}
	f.APIEndpointSchema = append([]RouteObject{}, routes...)
	return nil
}

type factSheetJSON struct {
	ProjectDescription string        `json:"project_description"`
	ProjectScope       *ProjectScope `json:"project_scope"`
	ExternalURLs       []string      `json:"external_urls"`
	BackendCode        *string       `json:"backend_code"`
	APIEndpointSchema  []RouteObject `json:"api_endpoint_schema"`
}

// MarshalJSON renders the fact sheet the way it is handed to the model as context.
func (f *FactSheet) MarshalJSON() ([]byte, error) {
	return json.Marshal(factSheetJSON{
		ProjectDescription: f.description,
		ProjectScope:       f.ProjectScope,
		ExternalURLs:       f.ExternalURLs,
		BackendCode:        f.BackendCode,
		APIEndpointSchema:  f.APIEndpointSchema,
	})
}

// UnmarshalJSON restores a fact sheet, including its description.
func (f *FactSheet) UnmarshalJSON(data []byte) error {
	var raw factSheetJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*f = FactSheet{
		description:       raw.ProjectDescription,
		ProjectScope:      raw.ProjectScope,
		ExternalURLs:      raw.ExternalURLs,
		BackendCode:       raw.BackendCode,
		APIEndpointSchema: raw.APIEndpointSchema,
	}
	return nil
}

package project

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterProbeable(t *testing.T) {
	routes := []RouteObject{
		{Route: "/health", Method: "get", IsRouteDynamic: "false"},
		{Route: "/item/{id}", Method: "get", IsRouteDynamic: "true"},
		{Route: "/item", Method: "post", IsRouteDynamic: "false"},
		{Route: "/items", Method: "get", IsRouteDynamic: "false"},
		{Route: "/upper", Method: "GET", IsRouteDynamic: "false"},
		{Route: "/bool", Method: "get", IsRouteDynamic: "False"},
	}

	got := FilterProbeable(routes)
	require.Len(t, got, 2)
	assert.Equal(t, "/health", got[0].Route)
	assert.Equal(t, "/items", got[1].Route)
	for _, r := range got {
		assert.Equal(t, "get", r.Method)
		assert.Equal(t, "false", r.IsRouteDynamic)
	}
}

func TestFilterProbeable_Empty(t *testing.T) {
	got := FilterProbeable(nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFactSheet_DescriptionFixed(t *testing.T) {
	fs := NewFactSheet("  build a todo api  ")
	assert.Equal(t, "build a todo api", fs.Description())

	require.NoError(t, fs.SetScope(ProjectScope{IsCrudRequired: true}))
	fs.SetBackendCode("fn main() {}")
	require.NoError(t, fs.SetEndpointSchema([]RouteObject{{Route: "/"}}))
	assert.Equal(t, "build a todo api", fs.Description())
}

func TestFactSheet_FieldOrder(t *testing.T) {
	fs := NewFactSheet("x")

	assert.ErrorIs(t, fs.SetExternalURLs([]string{"http://a"}), ErrFieldOrder)
	assert.ErrorIs(t, fs.SetEndpointSchema(nil), ErrFieldOrder)

	require.NoError(t, fs.SetScope(ProjectScope{IsExternalURLsRequired: true}))
	assert.ErrorIs(t, fs.SetScope(ProjectScope{}), ErrScopeSet)
	require.NoError(t, fs.SetExternalURLs([]string{"http://a"}))
	assert.Equal(t, []string{"http://a"}, fs.ExternalURLs)
}

func TestFactSheet_CodeReplacedNeverUnset(t *testing.T) {
	fs := NewFactSheet("x")
	assert.Equal(t, "", fs.Code())
	fs.SetBackendCode("v1")
	fs.SetBackendCode("v2")
	assert.Equal(t, "v2", fs.Code())
	require.NotNil(t, fs.BackendCode)
}

func TestFactSheet_JSON(t *testing.T) {
	raw := `{
		"project_description": "build a website that tracks fitness progress with timezone information.",
		"project_scope": {
			"is_crud_required": true,
			"is_user_login_and_logout": true,
			"is_external_urls_required": true
		},
		"external_urls": ["http://worldtimeapi.org/api/timezone"],
		"backend_code": null,
		"api_endpoint_schema": null
	}`

	var fs FactSheet
	require.NoError(t, json.Unmarshal([]byte(raw), &fs))
	assert.Contains(t, fs.Description(), "fitness progress")
	require.NotNil(t, fs.ProjectScope)
	assert.True(t, fs.ProjectScope.IsExternalURLsRequired)
	assert.Nil(t, fs.BackendCode)

	out, err := json.Marshal(&fs)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"project_description":"build a website`)
	assert.Contains(t, string(out), `"backend_code":null`)
}

package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/collab-match-api/internal/dto"
)

func TestProjectHandler_CreateProject(t *testing.T) {
	env := setupTestEnv(t, envOptions{})
	owner := env.createUser(t, "owner")

	tests := []struct {
		name  string
		body  map[string]interface{}
		want  int
		field string
	}{
		{"success", map[string]interface{}{"title": "  Rocket  ", "description": "Build a rocket"}, http.StatusCreated, ""},
		{"missing title", map[string]interface{}{"description": "no title"}, http.StatusBadRequest, ""},
		{"blank title", map[string]interface{}{"title": "   "}, http.StatusBadRequest, "title"},
		{"title too long", map[string]interface{}{"title": strings.Repeat("a", 256)}, http.StatusBadRequest, "title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.request(t, http.MethodPost, "/api/projects", tt.body, owner.ID)
			assertStatus(t, w, tt.want)

			if tt.want == http.StatusCreated {
				var project dto.ProjectDTO
				decode(t, w, &project)
				assert.Equal(t, "Rocket", project.Title)
				assert.Equal(t, owner.ID, project.OwnerID)
				return
			}
			if tt.field != "" {
				var body errorBody
				decode(t, w, &body)
				assert.Equal(t, tt.field, body.Details["field"])
			}
		})
	}
}

func TestProjectHandler_ListProjects(t *testing.T) {
	env := setupTestEnv(t, envOptions{})
	owner := env.createUser(t, "owner")
	other := env.createUser(t, "other")
	env.createProject(t, owner.ID, "Rocket")
	env.createProject(t, owner.ID, "Boat")
	env.createProject(t, other.ID, "Car")

	w := env.request(t, http.MethodGet, "/api/projects", nil, owner.ID)
	assertStatus(t, w, http.StatusOK)

	var body struct {
		Projects []dto.ProjectDTO `json:"projects"`
	}
	decode(t, w, &body)
	require.Len(t, body.Projects, 2)
	for _, p := range body.Projects {
		assert.Equal(t, owner.ID, p.OwnerID)
	}
}

func TestProjectHandler_GetProject(t *testing.T) {
	env := setupTestEnv(t, envOptions{})
	owner := env.createUser(t, "owner")
	project := env.createProject(t, owner.ID, "Rocket")

	w := env.request(t, http.MethodGet, fmt.Sprintf("/api/projects/%d", project.ID), nil, owner.ID)
	assertStatus(t, w, http.StatusOK)
	var detail dto.ProjectDetailDTO
	decode(t, w, &detail)
	assert.Equal(t, "Rocket", detail.Title)
	if assert.NotNil(t, detail.Owner) {
		assert.Equal(t, "owner", detail.Owner.Username)
	}
	assert.Empty(t, detail.Members)

	w = env.request(t, http.MethodGet, "/api/projects/999", nil, owner.ID)
	assertStatus(t, w, http.StatusNotFound)

	w = env.request(t, http.MethodGet, "/api/projects/nope", nil, owner.ID)
	assertStatus(t, w, http.StatusBadRequest)
}

package docs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

func TestSwaggerDocIsRegistered(t *testing.T) {
	doc, err := swag.ReadDoc()
	require.NoError(t, err)

	var spec struct {
		BasePath    string                    `json:"basePath"`
		Info        map[string]any            `json:"info"`
		Paths       map[string]map[string]any `json:"paths"`
		Definitions map[string]any            `json:"definitions"`
	}
	require.NoError(t, json.Unmarshal([]byte(doc), &spec))

	assert.Equal(t, "/api/v1", spec.BasePath)
	assert.Equal(t, "CourseHub Course API", spec.Info["title"])
	assert.Contains(t, spec.Paths["/instructor/courses/{id}/curriculum/draft"], "get")
	assert.Contains(t, spec.Paths["/instructor/courses/{id}/curriculum/draft/save"], "post")
	assert.Contains(t, spec.Paths["/admin/approvals/{id}/approve"], "post")
	assert.Contains(t, spec.Definitions, "models.CurriculumDraft")
}

package swagger

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

func TestRegisteredDoc(t *testing.T) {
	raw, err := swag.ReadDoc(SwaggerInfo.InstanceName())
	require.NoError(t, err)

	var doc struct {
		Swagger  string                     `json:"swagger"`
		BasePath string                     `json:"basePath"`
		Paths    map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	assert.Equal(t, "2.0", doc.Swagger)
	assert.Equal(t, "/", doc.BasePath)

	for _, p := range []string{
		"/upload",
		"/list_images/",
		"/images/{path}",
		"/images/thumbnails/{path}/{height}",
		"/expiring-link/{path}/{height}/{expire}",
		"/expiring-data/images/",
		"/me",
	} {
		assert.Contains(t, doc.Paths, p)
	}
}

package http_test

import (
	"encoding/json"
	"regexp"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/clinica-estoque-api/docs"
)

var pathParam = regexp.MustCompile(`:(\w+)`)

// Las anotaciones de los handlers y las rutas registradas deben coincidir con docs/.
// Si falla: go generate ./cmd/api
func TestDocs_CubrenLasRutasDelRouter(t *testing.T) {
	var spec struct {
		Paths map[string]map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(docs.SwaggerInfo.ReadDoc()), &spec))

	routed := map[string]bool{}
	for _, r := range buildStockApp(t).GetRoutes(true) {
		if !strings.HasPrefix(r.Path, "/api/") || r.Method == fiber.MethodHead {
			continue
		}
		path := pathParam.ReplaceAllString(strings.TrimSuffix(r.Path, "/"), "{$1}")
		method := strings.ToLower(r.Method)
		routed[method+" "+path] = true
		assert.Contains(t, spec.Paths[path], method, "%s %s sin documentar", r.Method, path)
	}
	for path, methods := range spec.Paths {
		for method := range methods {
			assert.True(t, routed[method+" "+path], "%s %s documentado pero no registrado", method, path)
		}
	}
}

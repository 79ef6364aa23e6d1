package integration

import (
	"encoding/json"
	"strings"
	"testing"

	"finguy/internal/docs"
)

func TestSwaggerDocCoversRoutes(t *testing.T) {
	app := setupApp(t)

	var doc struct {
		BasePath string                                `json:"basePath"`
		Paths    map[string]map[string]json.RawMessage `json:"paths"`
	}
	if err := json.Unmarshal([]byte(docs.SwaggerInfo.ReadDoc()), &doc); err != nil {
		t.Fatalf("swagger document is not valid JSON: %v", err)
	}

	checked := 0
	for _, route := range app.Router.Routes() {
		if !strings.HasPrefix(route.Path, doc.BasePath+"/") {
			continue
		}
		path := strings.TrimPrefix(route.Path, doc.BasePath)
		path = strings.ReplaceAll(path, ":id", "{id}")
		if _, ok := doc.Paths[path][strings.ToLower(route.Method)]; !ok {
			t.Errorf("%s %s is not documented", route.Method, path)
		}
		checked++
	}
	if checked == 0 {
		t.Fatal("expected API routes to be registered")
	}
}

package swagger

import (
	"net/http"

	"github.com/swaggest/swgui/v5emb"
)

// Register attaches the API documentation routes to mux.
//
//	GET /openapi.yaml -> embedded OpenAPI spec
//	GET /api-docs/    -> Swagger UI rendering the spec
func Register(mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	mux.HandleFunc("GET /openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		_, _ = w.Write(OpenAPI)
	})

	// The UI serves its own static assets beneath the same prefix; the mux
	// redirects the bare /api-docs path to the slashed form.
	mux.Handle("GET /api-docs/", v5emb.New("Regista Match Engine API", "/openapi.yaml", "/api-docs"))
}

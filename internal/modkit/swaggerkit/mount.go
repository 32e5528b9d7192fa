// Package swaggerkit serves swagger UI over the hand-kept OpenAPI outline in docjson.go
package swaggerkit

import (
	"net/http"

	phttp "satyanetra/internal/platform/net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

const docsRoot = "/api/docs"

// Mount serves the UI at /api/docs/ and the outline at /api/docs/doc.json. Disabled in production
// deployments through CORE_API_SWAGGER=false
func Mount(r phttp.Router, enabled bool) {
	if !enabled {
		return
	}
	r.Get(docsRoot+"/doc.json", serveDocJSON())
	r.Handle(docsRoot+"/*", httpSwagger.Handler(
		httpSwagger.URL(docsRoot+"/doc.json"),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DeepLinking(true),
	))
	r.Get(docsRoot, http.RedirectHandler(docsRoot+"/", http.StatusPermanentRedirect).ServeHTTP)
}

package swaggerkit

import "net/http"

// docJSON is a hand-maintained OpenAPI outline of the public routes
const docJSON = `{
  "openapi": "3.0.3",
  "info": {"title": "satyanetra", "version": "1"},
  "paths": {
    "/api/v1/analysis/text": {"post": {"summary": "Submit text for analysis", "responses": {"202": {"description": "queued"}}}},
    "/api/v1/analysis/image": {"post": {"summary": "Submit a base64 image for analysis", "responses": {"202": {"description": "queued"}}}},
    "/api/v1/analysis/{id}": {"get": {"summary": "Fetch an analysis result", "responses": {"200": {"description": "result"}}}},
    "/api/v1/analysis/{id}/withdraw": {"post": {"summary": "Withdraw submitted content", "responses": {"200": {"description": "withdrawn"}}}},
    "/api/v1/analysis/{id}/reanalyze": {"post": {"summary": "Re-run analysis", "responses": {"202": {"description": "queued"}}}},
    "/api/v1/network/interactions": {"post": {"summary": "Record an account interaction", "responses": {"200": {"description": "recorded"}}}},
    "/api/v1/network/accounts": {"post": {"summary": "Upsert an account", "responses": {"200": {"description": "stored"}}}},
    "/api/v1/network/clusters": {"get": {"summary": "Latest published clusters", "responses": {"200": {"description": "clusters"}}}},
    "/api/v1/network/clusters/detect": {"post": {"summary": "Run cluster detection now", "responses": {"200": {"description": "clusters"}}}},
    "/api/v1/network/stats": {"get": {"summary": "Graph and cluster statistics", "responses": {"200": {"description": "stats"}}}},
    "/api/v1/network/map": {"get": {"summary": "Graph snapshot for visualisation", "responses": {"200": {"description": "nodes and edges"}}}},
    "/api/v1/alerts": {"get": {"summary": "Recent alerts", "responses": {"200": {"description": "alerts"}}}},
    "/api/v1/alerts/{id}/ack": {"post": {"summary": "Acknowledge an alert", "responses": {"200": {"description": "acknowledged"}}}},
    "/api/v1/trends": {"get": {"summary": "Time-series buckets", "responses": {"200": {"description": "buckets"}}}},
    "/api/v1/stream/results": {"get": {"summary": "Websocket stream of completed analyses", "responses": {"101": {"description": "switching protocols"}}}},
    "/api/v1/stream/alerts": {"get": {"summary": "Websocket stream of raised alerts", "responses": {"101": {"description": "switching protocols"}}}},
    "/api/v1/meta/health": {"get": {"summary": "Component health", "responses": {"200": {"description": "health"}}}},
    "/api/v1/meta/ready": {"get": {"summary": "Backend readiness", "responses": {"200": {"description": "readiness"}}}},
    "/api/v1/meta/version": {"get": {"summary": "Build info", "responses": {"200": {"description": "version"}}}}
  }
}`

func serveDocJSON() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write([]byte(docJSON))
	}
}

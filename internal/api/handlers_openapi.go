package api

import (
	_ "embed"
	"net/http"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

//go:embed openapi/openapi.yaml
var openAPISpec []byte

// openAPIETag is a strong validator for the embedded document; it only
// changes with the binary.
var openAPIETag = `"` + strconv.FormatUint(xxhash.Sum64(openAPISpec), 16) + `"`

const docsCacheControl = "public, max-age=3600"

// ServeOpenAPISpec serves the embedded OpenAPI 3.0.3 document. A matching
// If-None-Match gets 304 with no body.
func (h *Handlers) ServeOpenAPISpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("ETag", openAPIETag)
	w.Header().Set("Cache-Control", docsCacheControl)
	if r.Header.Get("If-None-Match") == openAPIETag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(openAPISpec)
}

// The document URL is relative so the page keeps working under a path prefix.
const swaggerUIHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Merchant Directory API</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <noscript>The interactive reference needs JavaScript. The raw document is at <a href="openapi.yaml">openapi.yaml</a>.</noscript>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: 'openapi.yaml',
      dom_id: '#swagger-ui',
      supportedSubmitMethods: ['get'],
      deepLinking: true,
      displayRequestDuration: true
    });
  </script>
</body>
</html>`

// ServeSwaggerUI serves a Swagger UI page for the embedded document.
func (h *Handlers) ServeSwaggerUI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", docsCacheControl)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(swaggerUIHTML))
}

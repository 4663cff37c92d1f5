package handler

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"

	"solana-payment-gateway/pkg/apperror"
	"solana-payment-gateway/pkg/response"

	"github.com/gin-gonic/gin"
)

const docsPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Solana Payment Gateway API</title>
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: '/swagger/spec',
      dom_id: '#swagger-ui',
      deepLinking: true,
      persistAuthorization: true,
      tryItOutEnabled: false
    });
  </script>
</body>
</html>`

// APIDocs serves the OpenAPI document of the payments API.
// A nil *APIDocs answers 404 on the spec route.
type APIDocs struct {
	spec []byte
	etag string
}

// NewAPIDocs wraps an OpenAPI YAML document.
func NewAPIDocs(spec []byte) *APIDocs {
	sum := sha256.Sum256(spec)
	return &APIDocs{
		spec: spec,
		etag: `"` + hex.EncodeToString(sum[:8]) + `"`,
	}
}

// LoadAPIDocs reads the OpenAPI document from path.
func LoadAPIDocs(path string) (*APIDocs, error) {
	spec, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading openapi spec: %w", err)
	}
	return NewAPIDocs(spec), nil
}

// Spec serves the raw YAML, honouring If-None-Match.
func (d *APIDocs) Spec(c *gin.Context) {
	if d == nil || len(d.spec) == 0 {
		response.Error(c, apperror.ErrNotFound("API specification"))
		return
	}
	c.Header("ETag", d.etag)
	c.Header("Cache-Control", "public, max-age=300")
	if c.GetHeader("If-None-Match") == d.etag {
		c.Status(http.StatusNotModified)
		return
	}
	c.Data(http.StatusOK, "application/yaml", d.spec)
}

// UI serves a Swagger UI page that loads /swagger/spec.
func (d *APIDocs) UI(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(docsPage))
}

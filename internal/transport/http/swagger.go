package http

import (
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/ghodss/yaml"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/soundloop/soundloop-api/internal/util"
)

var swaggerSpec struct {
	mu   sync.Mutex
	json []byte
}

// RegisterSwagger serves the API document and the Swagger UI under /swagger.
// The YAML source is converted to JSON on first successful read and cached;
// read failures are retried on the next request.
func RegisterSwagger(e *echo.Echo) {
	e.GET("/swagger/doc.json", serveSwaggerSpec)
	e.GET("/swagger/*", echoSwagger.WrapHandler)
}

func serveSwaggerSpec(c echo.Context) error {
	data, err := loadSwaggerSpec()
	if err != nil {
		c.Logger().Errorf("swagger spec: %v", err)
		return c.JSON(http.StatusInternalServerError, util.Error("api documentation unavailable"))
	}
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSONCharsetUTF8, data)
}

func loadSwaggerSpec() ([]byte, error) {
	swaggerSpec.mu.Lock()
	defer swaggerSpec.mu.Unlock()

	if swaggerSpec.json != nil {
		return swaggerSpec.json, nil
	}
	raw, err := os.ReadFile(filepath.Join("docs", "swagger.yaml"))
	if err != nil {
		return nil, err
	}
	converted, err := yaml.YAMLToJSON(raw)
	if err != nil {
		return nil, err
	}
	swaggerSpec.json = converted
	return converted, nil
}

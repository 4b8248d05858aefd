// Package swagger serves the dashboard API reference.
package swagger

import (
	_ "embed"
	"time"
)

// OpenAPI is the API description served at /openapi.yaml.
//
//go:embed openapi.yaml
var OpenAPI []byte

// builtAt stands in for the spec's modification time in conditional GETs.
var builtAt = time.Now()

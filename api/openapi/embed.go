// Package openapi embeds the HTTP API description.
package openapi

import _ "embed"

// Spec is the OpenAPI 3 document for the v1 API, in YAML.
//
//go:embed openapi.yaml
var Spec []byte

// Package schemas holds the JSON Schemas shipped with the admin tool.
package schemas

import _ "embed"

// Portfolio is the JSON Schema of a portfolio content document.
//
//go:embed portfolio.schema.json
var Portfolio []byte

//go:build tools

// Package tools fija las versiones de las herramientas de desarrollo.
// La documentación OpenAPI de docs/ se regenera con: swag init -g cmd/api/main.go
package tools

import (
	_ "github.com/swaggo/swag/cmd/swag"
)

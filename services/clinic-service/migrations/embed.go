// Package migrations embeds the clinic-service schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

// Dir is the directory inside FS that holds the SQL files.
const Dir = "."

// Package migrations embeds the goose SQL migration files into the binary.
package migrations

import "embed"

// FS holds every migration at its root, in goose naming order.
//
//go:embed *.sql
var FS embed.FS

// Package migrations holds the goose SQL migrations for the companion schema:
// the venue catalog, the bookmark store and persisted tours with their days
// and item notes.
package migrations

import "embed"

// FS is applied by cmd/api at startup through a goose.Provider.
//
//go:embed *.sql
var FS embed.FS

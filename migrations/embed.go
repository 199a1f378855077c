// Package migrations embeds the journal schema into the binary, so a node
// can create its journal without SQL files on disk.
package migrations

import "embed"

// FS holds every *.sql file in this directory at its root.
//
//go:embed *.sql
var FS embed.FS

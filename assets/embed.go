// Package assets embeds files the server ships with: the SQL migrations.
package assets

import (
	"embed"
	"io/fs"
)

//go:embed sql/*.sql
var sqlFS embed.FS

// Migrations returns the migration scripts rooted at the sql directory.
func Migrations() fs.FS {
	sub, err := fs.Sub(sqlFS, "sql")
	if err != nil {
		// the directory is embedded at build time
		panic(err)
	}
	return sub
}

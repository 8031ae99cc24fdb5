// Package appfs embeds the static application assets: goose SQL migrations
// and email templates.
package appfs

import (
	"embed"
	"io/fs"
)

//go:embed migrations all:assets
var FS embed.FS

func Open(name string) (fs.File, error) {
	return FS.Open(name)
}

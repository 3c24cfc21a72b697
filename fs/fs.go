package appfs

import "embed"

// FS embeds the assets needed at runtime: goose migrations and email templates.
//go:embed migrations all:assets
var FS embed.FS

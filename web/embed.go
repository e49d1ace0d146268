// Package web embeds the HTML templates and static assets served by
// internal/web.
package web

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed all:templates
var templatesFS embed.FS

//go:embed all:static
var staticFS embed.FS

// Assets returns the template and static filesystems, each rooted at its
// own directory.
func Assets() (templates fs.FS, static fs.FS, err error) {
	templates, err = fs.Sub(templatesFS, "templates")
	if err != nil {
		return nil, nil, fmt.Errorf("creating templates filesystem: %w", err)
	}
	static, err = fs.Sub(staticFS, "static")
	if err != nil {
		return nil, nil, fmt.Errorf("creating static filesystem: %w", err)
	}
	return templates, static, nil
}

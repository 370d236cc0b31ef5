package web

import "embed"

// TemplatesFS embeds the HTML report templates.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// Package renderer turns snapshot tables into markdown reports.
package renderer

import (
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed templates/*.md
var templates embed.FS

// renderTemplate executes one embedded template file with the given data.
func renderTemplate(name, file string, data any) string {
	tmpl, err := template.New(name).ParseFS(templates, "templates/"+file)
	if err != nil {
		return fmt.Sprintf("template error: %v", err)
	}
	var sb strings.Builder
	if err := tmpl.ExecuteTemplate(&sb, file, data); err != nil {
		return fmt.Sprintf("template error: %v", err)
	}
	return sb.String()
}

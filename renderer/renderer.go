// Package renderer formats price reports as markdown.
package renderer

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"
)

//go:embed templates/*.md
var templatesFS embed.FS

var templates, _ = fs.Sub(templatesFS, "templates")

// RenderUpdate renders the outcome of a reconciliation run to a markdown string.
func RenderUpdate(u *Update) string {
	partials := map[string]string{
		"update_title":     "update_title.md",
		"update_summary":   "update_summary.md",
		"update_namespace": "update_namespace.md",
	}
	return renderTemplate("update", "update.md", partials, u)
}

// RenderPrices renders price histories to a markdown string.
func RenderPrices(p *Prices) string {
	partials := map[string]string{
		"prices_history": "prices_history.md",
	}
	return renderTemplate("prices", "prices.md", partials, p)
}

// renderTemplate is a generic utility to render a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		content, err := fs.ReadFile(templates, file)
		if err != nil {
			return fmt.Sprintf("error reading partial template %q: %v", file, err)
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}

// Package renderer renders depot documents as markdown, from the templates
// embedded in templates/.
package renderer

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"
	"time"

	"github.com/etnz/depot"
	"github.com/shopspring/decimal"
)

//go:embed templates/*.md
var embedded embed.FS

var templates, _ = fs.Sub(embedded, "templates")

// funcs are the formatting helpers available in every template.
var funcs = template.FuncMap{
	"money":       func(d decimal.Decimal) string { return depot.EUR(d).String() },
	"signedMoney": func(d decimal.Decimal) string { return depot.EUR(d).SignedString() },
	"percent":     func(d decimal.Decimal) string { return depot.P(d).SignedString() },
	"price":       func(d decimal.Decimal) string { return d.StringFixed(2) },
	"signedPrice": func(d decimal.Decimal) string {
		if d.IsPositive() {
			return "+" + d.StringFixed(2)
		}
		return d.StringFixed(2)
	},
	"nullMoney": func(d decimal.NullDecimal) string {
		if !d.Valid {
			return "n/a"
		}
		return depot.EUR(d.Decimal).String()
	},
	"nullPrice": func(d decimal.NullDecimal) string {
		if !d.Valid {
			return "n/a"
		}
		return d.Decimal.StringFixed(2)
	},
	"shares": func(d decimal.Decimal) string { return d.String() },
	"clock":  func(t time.Time) string { return t.Format("15:04:05") },
}

// RenderReport renders the monitor report.
func RenderReport(r *depot.Report) string {
	partials := map[string]string{
		"report_table": "report_table.md",
	}
	return renderTemplate("report", "report.md", partials, r)
}

// RenderPositions renders positions and values on a day.
func RenderPositions(p *Positions) string {
	return renderTemplate("positions", "positions.md", nil, p)
}

// RenderHistory renders the total depot value over the last days of h.
func RenderHistory(h *HistorySummary) string {
	return renderTemplate("history", "history.md", nil, h)
}

// renderTemplate is a generic utility to render a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Funcs(funcs).Parse(string(mainContent))
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

// Package generator renders a model.Report as a single self-contained HTML
// page.
package generator

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"os"

	"github.com/chmouel/sniffy/internal/model"
)

//go:embed assets/*
var assets embed.FS

type templateData struct {
	Title    string
	CSS      template.CSS
	JS       template.JS
	DataJSON template.JS
	Config   template.JS
}

// Options configures the HTML report generation.
type Options struct {
	Title string
	// ShowBlank starts the viewer with blank lines highlighted.
	ShowBlank bool
	// Stdout receives the page when the output path is "-".
	Stdout io.Writer
}

// Render writes the HTML report to w.
func Render(w io.Writer, rep *model.Report, opts Options) error {
	cssBytes, err := assets.ReadFile("assets/style.css")
	if err != nil {
		return fmt.Errorf("reading CSS: %w", err)
	}

	jsBytes, err := assets.ReadFile("assets/app.js")
	if err != nil {
		return fmt.Errorf("reading JS: %w", err)
	}

	htmlBytes, err := assets.ReadFile("assets/template.html")
	if err != nil {
		return fmt.Errorf("reading HTML template: %w", err)
	}

	dataJSON, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("marshaling report data: %w", err)
	}

	title := opts.Title
	if title == "" {
		title = "Sniffy Report"
	}
	configJSON, err := json.Marshal(map[string]any{
		"title":       title,
		"showBlank":   opts.ShowBlank,
		"hasCoverage": rep.Summary.HasCoverage,
	})
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	tmpl, err := template.New("report").Parse(string(htmlBytes))
	if err != nil {
		return fmt.Errorf("parsing template: %w", err)
	}

	//nolint:gosec // G203: CSS/JS are from embedded assets, JSON is marshaled from our data
	td := templateData{
		Title:    title,
		CSS:      template.CSS(cssBytes),
		JS:       template.JS(jsBytes),
		DataJSON: template.JS(dataJSON),
		Config:   template.JS(configJSON),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, td); err != nil {
		return fmt.Errorf("executing template: %w", err)
	}
	_, err = w.Write(buf.Bytes())
	return err
}

// Generate writes the HTML report to outputPath, or to opts.Stdout
// (os.Stdout by default) when outputPath is "" or "-".
func Generate(rep *model.Report, outputPath string, opts Options) error {
	if outputPath == "" || outputPath == "-" {
		out := opts.Stdout
		if out == nil {
			out = os.Stdout
		}
		if err := Render(out, rep, opts); err != nil {
			return fmt.Errorf("writing to stdout: %w", err)
		}
		return nil
	}

	var buf bytes.Buffer
	if err := Render(&buf, rep, opts); err != nil {
		return err
	}
	if err := os.WriteFile(outputPath, buf.Bytes(), 0o644); err != nil { //nolint:gosec // G306: HTML report should be readable
		return fmt.Errorf("writing output file: %w", err)
	}
	return nil
}

// Package badge renders shields.io style SVG badges for line counts.
package badge

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/chmouel/sniffy/internal/model"
)

// Badge kinds.
const (
	KindCode     = "code"
	KindComments = "comments"
)

const codeColor = "#007ec6"

// Thresholds defines the color thresholds for the comment density badge.
type Thresholds struct {
	Red    float64 // Upper threshold for red (0-Red is red)
	Yellow float64 // Upper threshold for yellow (Red-Yellow is yellow, Yellow+ is green)
}

// DefaultThresholds returns the default comment density thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Red:    10,
		Yellow: 20,
	}
}

// Options configures the badge.
type Options struct {
	Kind       string
	Thresholds Thresholds
	Stdout     io.Writer
}

// CommentDensity returns comment lines as a percentage of comment and code
// lines. Blank lines are left out.
func CommentDensity(stats model.FileStats) float64 {
	n := stats.Comment + stats.Code
	if n == 0 {
		return 0
	}
	return float64(stats.Comment) / float64(n) * 100
}

// Generate creates an SVG badge for stats and writes it to outputPath.
// If outputPath is "-", the badge is written to opts.Stdout (os.Stdout by
// default).
func Generate(stats model.FileStats, outputPath string, opts Options) error {
	var svg string
	switch opts.Kind {
	case "", KindCode:
		svg = generateSVG("lines", humanize.Comma(int64(stats.Code)), codeColor)
	case KindComments:
		density := clamp(CommentDensity(stats))
		svg = generateSVG("comments", fmt.Sprintf("%.1f%%", density), getColor(density, opts.Thresholds))
	default:
		return fmt.Errorf("unknown badge kind %q", opts.Kind)
	}

	if outputPath == "-" {
		out := opts.Stdout
		if out == nil {
			out = os.Stdout
		}
		if _, err := io.WriteString(out, svg); err != nil {
			return fmt.Errorf("writing badge to stdout: %w", err)
		}
		return nil
	}

	if err := os.WriteFile(outputPath, []byte(svg), 0o644); err != nil { //nolint:gosec // G306: Badge should be readable
		return fmt.Errorf("writing badge file: %w", err)
	}

	return nil
}

func clamp(pct float64) float64 {
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// textWidth approximates the rendered width of s in 11px Verdana.
func textWidth(s string) int {
	return len(s)*7 + 10
}

// generateSVG creates the SVG content for the badge.
func generateSVG(label, value, color string) string {
	leftWidth := textWidth(label)
	rightWidth := textWidth(value)
	height := 20
	totalWidth := leftWidth + rightWidth

	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" width="%d" height="%d" role="img" aria-label="%s: %s">
  <title>%s: %s</title>
  <g shape-rendering="crispEdges">
    <rect width="%d" height="%d" fill="#555"/>
    <rect x="%d" width="%d" height="%d" fill="%s"/>
  </g>
  <g fill="#fff" text-anchor="middle" font-family="Verdana,Geneva,DejaVu Sans,sans-serif" text-rendering="geometricPrecision" font-size="11">
    <text aria-hidden="true" x="%d" y="15" fill="#010101" fill-opacity=".3">%s</text>
    <text x="%d" y="14">%s</text>
    <text aria-hidden="true" x="%d" y="15" fill="#010101" fill-opacity=".3">%s</text>
    <text x="%d" y="14">%s</text>
  </g>
</svg>`,
		totalWidth, height, label, value,
		label, value,
		totalWidth, height,
		leftWidth, rightWidth, height, color,
		leftWidth/2, label,
		leftWidth/2, label,
		leftWidth+rightWidth/2, value,
		leftWidth+rightWidth/2, value,
	)
}

// getColor returns the SVG color code for a comment density percentage.
func getColor(density float64, thresholds Thresholds) string {
	switch {
	case density >= thresholds.Yellow:
		return "#4c1" // Green
	case density > thresholds.Red:
		return "#dfb317" // Yellow/Amber
	default:
		return "#e05d44" // Red
	}
}

package badge

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chmouel/sniffy/internal/model"
)

func TestGenerate_FileOutput(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "badge.svg")

	err := Generate(model.FileStats{Blank: 10, Comment: 20, Code: 12345}, tmpFile, Options{})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	//nolint:gosec // G204: tmpFile is from t.TempDir
	content, err := os.ReadFile(tmpFile)
	if err != nil {
		t.Fatalf("Failed to read badge file: %v", err)
	}

	svg := string(content)
	if !strings.Contains(svg, "<svg") {
		t.Error("Badge doesn't contain SVG element")
	}
	if !strings.Contains(svg, "12,345") {
		t.Error("Badge doesn't contain the code line count")
	}
	if !strings.Contains(svg, ">lines<") {
		t.Error("Badge doesn't carry the lines label")
	}
	if !strings.Contains(svg, codeColor) {
		t.Error("code badge should use the fixed colour")
	}
}

func TestGenerate_Stdout(t *testing.T) {
	var buf bytes.Buffer
	err := Generate(model.FileStats{Comment: 1, Code: 3}, "-", Options{Kind: KindComments, Thresholds: DefaultThresholds(), Stdout: &buf})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	svg := buf.String()
	if !strings.Contains(svg, "25.0%") {
		t.Errorf("expected 25.0%% density, got %s", svg)
	}
	if !strings.Contains(svg, "#4c1") {
		t.Error("25% density should be green with default thresholds")
	}
}

func TestGenerate_UnknownKind(t *testing.T) {
	err := Generate(model.FileStats{}, filepath.Join(t.TempDir(), "b.svg"), Options{Kind: "coverage"})
	if err == nil {
		t.Error("expected error for unknown badge kind")
	}
}

func TestGenerate_InvalidPath(t *testing.T) {
	err := Generate(model.FileStats{Code: 1}, "/nonexistent/directory/badge.svg", Options{})
	if err == nil {
		t.Error("expected error for invalid output path")
	}
}

func TestCommentDensity(t *testing.T) {
	tests := []struct {
		stats    model.FileStats
		expected float64
	}{
		{model.FileStats{}, 0},
		{model.FileStats{Blank: 100}, 0},
		{model.FileStats{Comment: 1, Code: 1}, 50},
		{model.FileStats{Blank: 50, Comment: 1, Code: 9}, 10},
		{model.FileStats{Comment: 4}, 100},
	}
	for _, tt := range tests {
		if got := CommentDensity(tt.stats); got != tt.expected {
			t.Errorf("CommentDensity(%+v) = %.2f, want %.2f", tt.stats, got, tt.expected)
		}
	}
}

func TestGenerateSVG_Valid(t *testing.T) {
	svg := generateSVG("comments", "72.5%", "#4c1")

	if !strings.Contains(svg, `xmlns="http://www.w3.org/2000/svg"`) {
		t.Error("SVG doesn't have proper SVG namespace")
	}
	if !strings.Contains(svg, "<svg") {
		t.Error("SVG doesn't contain svg element")
	}
	if !strings.Contains(svg, "</svg>") {
		t.Error("SVG doesn't have closing svg tag")
	}
	if !strings.Contains(svg, `aria-label="comments: 72.5%"`) {
		t.Error("SVG doesn't carry the aria label")
	}
}

func TestGenerateSVG_WidthFollowsText(t *testing.T) {
	short := generateSVG("lines", "9", codeColor)
	long := generateSVG("lines", "1,234,567", codeColor)
	if !strings.Contains(short, `width="62"`) {
		t.Errorf("unexpected width for short badge: %s", short)
	}
	if !strings.Contains(long, `width="118"`) {
		t.Errorf("unexpected width for long badge: %s", long)
	}
}

func TestGetColor(t *testing.T) {
	thresholds := DefaultThresholds()
	tests := []struct {
		density  float64
		expected string
	}{
		{0, "#e05d44"},
		{10, "#e05d44"},
		{10.1, "#dfb317"},
		{19.9, "#dfb317"},
		{20, "#4c1"},
		{100, "#4c1"},
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			color := getColor(tt.density, thresholds)
			if color != tt.expected {
				t.Errorf("getColor(%.1f) = %s, want %s", tt.density, color, tt.expected)
			}
		})
	}
}

func TestGetColor_CustomThresholds(t *testing.T) {
	thresholds := Thresholds{
		Red:    50,
		Yellow: 80,
	}
	tests := []struct {
		density  float64
		expected string
	}{
		{25, "#e05d44"},   // Below red threshold
		{50, "#e05d44"},   // At red threshold
		{65, "#dfb317"},   // Between red and yellow
		{79.9, "#dfb317"}, // Below yellow threshold
		{80, "#4c1"},      // At yellow threshold
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			color := getColor(tt.density, thresholds)
			if color != tt.expected {
				t.Errorf("getColor(%.1f) = %s, want %s", tt.density, color, tt.expected)
			}
		})
	}
}

package fixture

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chmouel/sniffy/internal/classifier"
	"github.com/chmouel/sniffy/internal/language"
	"github.com/chmouel/sniffy/internal/model"
)

// ErrUnknownLanguage is returned when a fixture's language cannot be
// detected from its extension or shebang.
var ErrUnknownLanguage = errors.New("unknown language")

// NewClassifyFunc returns a ClassifyFunc detecting the language with det.
// With exact set, languages that have a tree-sitter grammar are classified
// from their syntax tree.
func NewClassifyFunc(ctx context.Context, det *language.Detector, exact bool) ClassifyFunc {
	return func(path string, lines []string) (model.FileStats, error) {
		lang := det.Detect(path)
		if lang == nil && len(lines) > 0 {
			lang = det.DetectShebang(lines[0])
		}
		if lang == nil {
			return model.FileStats{}, ErrUnknownLanguage
		}

		if exact && classifier.SupportsExact(lang.Name) {
			content := strings.Join(lines, "\n")
			if len(lines) > 0 {
				content += "\n"
			}
			_, stats, err := classifier.Exact(ctx, lang.Name, path, []byte(content))
			if err != nil {
				return model.FileStats{}, fmt.Errorf("exact classification: %w", err)
			}
			return stats, nil
		}

		_, stats := classifier.New(lang).ClassifyLines(lines)
		return stats, nil
	}
}

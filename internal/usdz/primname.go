package usdz

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// PrimName derives a legal USD prim identifier from an output path. USD
// identifiers are ASCII, start with a letter or underscore, and carry only
// letters, digits, and underscores.
func PrimName(outputPath string) string {
	base := filepath.Base(outputPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	folded := foldMarks(base)

	cleaned := strings.Builder{}
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			cleaned.WriteRune(r)
		default:
			cleaned.WriteByte('_')
		}
	}

	name := cleaned.String()
	if name == "" {
		return "Scene"
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "_" + name
	}
	return name
}

// foldMarks strips combining marks so accented letters survive as their base
// ASCII form instead of collapsing to underscores. Transformer chains carry
// buffer state, so one is built per call rather than shared across workers.
func foldMarks(s string) string {
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, s)
	if err != nil {
		return s
	}
	return folded
}

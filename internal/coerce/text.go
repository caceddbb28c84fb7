package coerce

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var invisible = strings.NewReplacer("\uFEFF", " ", "\u200B", " ", "\u00A0", " ")

// Clean turns BOM, zero-width and non-breaking spaces into plain spaces,
// strips surrounding quotes and trims.
func Clean(s string) string {
	s = strings.TrimSpace(invisible.Replace(s))
	s = strings.Trim(s, `"`)
	return strings.TrimSpace(s)
}

func stripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Lower lowercases, strips accents and collapses whitespace. Punctuation is kept
// so patterns like "dt. ent/sai" still match.
func Lower(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(stripAccents(Clean(s)))), " ")
}

// Fold reduces s to lowercase ASCII letters and digits: "Descrição do Produto"
// becomes "descricaodoproduto".
func Fold(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(stripAccents(Clean(s))) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsBlank reports whether s is empty once cleaned.
func IsBlank(s string) bool { return Clean(s) == "" }

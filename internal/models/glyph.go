package models

import "strings"

// UnknownGlyph is shown for labels outside the glyph table.
const UnknownGlyph = "❓"

var glyphs = map[string]string{
	"happy":     "🔥",
	"sad":       "💔",
	"angry":     "🤬",
	"surprised": "😲",
	"neutral":   "😐",
}

// Glyph maps an emotion label to its display glyph, ignoring case.
func Glyph(label string) string {
	if g, ok := glyphs[strings.ToLower(strings.TrimSpace(label))]; ok {
		return g
	}
	return UnknownGlyph
}

// CurrentGlyph is [Glyph] for the live indicator, where no detection yet reads as happy.
func CurrentGlyph(label string) string {
	if strings.TrimSpace(label) == "" {
		return glyphs["happy"]
	}
	return Glyph(label)
}

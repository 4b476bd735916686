package domain

import (
	"strings"
	"unicode"
)

// DefaultPalette is the avatar palette used when none is configured.
var DefaultPalette = []string{
	"#e74c3c",
	"#e67e22",
	"#f1c40f",
	"#2ecc71",
	"#1abc9c",
	"#3498db",
	"#9b59b6",
	"#34495e",
	"#d35400",
	"#16a085",
}

// ColorFor maps name onto a palette entry. The mapping is a pure function of
// name and palette: the same inputs always yield the same colour.
func ColorFor(name string, palette []string) string {
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	var h int32
	for _, r := range name {
		h = int32(r) + (h << 5) - h
	}
	n := int64(h)
	if n < 0 {
		n = -n
	}
	return palette[n%int64(len(palette))]
}

// InitialsFor returns up to two upper-cased initials: the first letter of the
// first and last words of name.
func InitialsFor(name string) string {
	words := strings.Fields(name)
	switch len(words) {
	case 0:
		return "?"
	case 1:
		return firstUpper(words[0])
	default:
		return firstUpper(words[0]) + firstUpper(words[len(words)-1])
	}
}

func firstUpper(word string) string {
	for _, r := range word {
		return string(unicode.ToUpper(r))
	}
	return ""
}

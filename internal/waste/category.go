package waste

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Category identifies a waste fraction collected by HIM
type Category string

const (
	CategoryRest       Category = "rest"
	CategoryFood       Category = "mat"
	CategoryPaper      Category = "papir"
	CategoryPlastic    Category = "plast"
	CategoryGlassMetal Category = "glass_metall"
)

const (
	CollectionSummary   = "Avfallstømming"
	CollectionIcon      = "mdi:trash-can-clock"
	unknownCategoryIcon = "mdi:trash-can"
)

// Categories lists all categories in the order they appear on the calendar page.
var Categories = []Category{
	CategoryRest,
	CategoryFood,
	CategoryPaper,
	CategoryPlastic,
	CategoryGlassMetal,
}

var displayNames = map[Category]string{
	CategoryPlastic:    "Plastavfall",
	CategoryFood:       "Matavfall",
	CategoryPaper:      "Papiravfall",
	CategoryRest:       "Restavfall",
	CategoryGlassMetal: "Glass og metallavfall",
}

var icons = map[Category]string{
	CategoryPlastic:    "mdi:recycle",
	CategoryFood:       "mdi:food-apple",
	CategoryPaper:      "mdi:file-document",
	CategoryRest:       "mdi:trash-can",
	CategoryGlassMetal: "mdi:bottle-wine",
}

// DisplayName returns the Norwegian display name for a category.
// Unknown categories are title-cased with underscores replaced by spaces.
func (c Category) DisplayName() string {
	if name, ok := displayNames[c]; ok {
		return name
	}
	words := strings.Fields(strings.ReplaceAll(string(c), "_", " "))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}

// Icon returns the Material Design icon name for a category
func (c Category) Icon() string {
	if icon, ok := icons[c]; ok {
		return icon
	}
	return unknownCategoryIcon
}

// Label returns the category key with underscores replaced by spaces ("glass metall")
func (c Category) Label() string {
	return strings.ReplaceAll(string(c), "_", " ")
}

// index returns the canonical position of c, or len(Categories) for unknown categories
func (c Category) index() int {
	for i, known := range Categories {
		if known == c {
			return i
		}
	}
	return len(Categories)
}

package vehicle

import "strings"

// makeAliases folds common shorthand onto catalogue make names.
var makeAliases = map[string]string{
	"mercedes":      "mercedes-benz",
	"mercedes benz": "mercedes-benz",
	"benz":          "mercedes-benz",
	"chevy":         "chevrolet",
	"vw":            "volkswagen",
	"land-rover":    "land rover",
	"alfa":          "alfa romeo",
}

// NormalizeMake lower-cases, trims and collapses whitespace, then resolves
// known aliases.
func NormalizeMake(mk string) string {
	m := collapse(mk)
	if alias, ok := makeAliases[m]; ok {
		return alias
	}
	return m
}

// NormalizeModel lower-cases, trims and collapses whitespace.
func NormalizeModel(model string) string {
	return collapse(model)
}

// LookupKey returns the normalized "make model" catalogue key.
func LookupKey(mk, model string) string {
	m := NormalizeMake(mk)
	md := NormalizeModel(model)
	if md == "" {
		return m
	}
	return m + " " + md
}

func collapse(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

package search

import (
	"sort"
	"strings"
	"unicode"
)

// Category is the coarse bucket an item or a query falls in, inferred from keywords.
type Category string

const (
	CategoryTurbo   Category = "turbo"
	CategoryCore    Category = "core"
	CategoryEngine  Category = "engine"
	CategoryFilter  Category = "filter"
	CategoryOil     Category = "oil"
	CategoryBrake   Category = "brake"
	CategoryMixed   Category = "mixed"
	CategoryGeneral Category = "general"
)

var categoryKeywords = []struct {
	cat      Category
	keywords []string
}{
	{CategoryTurbo, []string{"turbo", "turbocharger", "supercharger"}},
	{CategoryCore, []string{"core", "chra", "cartridge"}},
	{CategoryEngine, []string{"engine", "piston", "cylinder", "crankshaft", "diesel"}},
	{CategoryFilter, []string{"filter"}},
	{CategoryOil, []string{"oil", "lubricant"}},
	{CategoryBrake, []string{"brake", "caliper"}},
}

// A more specific bucket absorbs the general one it names: a turbo core is a core,
// an oil filter is a filter.
var categoryOverrides = map[Category]Category{
	CategoryTurbo: CategoryCore,
	CategoryOil:   CategoryFilter,
}

var typoTable = map[string]string{
	"terbo":  "turbo",
	"turbp":  "turbo",
	"tubro":  "turbo",
	"diesl":  "diesel",
	"desel":  "diesel",
	"filtr":  "filter",
	"fliter": "filter",
	"engin":  "engine",
	"brak":   "brake",
	"gaskit": "gasket",
	"cor":    "core",
	"oill":   "oil",
}

// CorrectTypos returns the known correction for a single folded word, or the word itself.
func CorrectTypos(word string) string {
	if fixed, ok := typoTable[fold(word)]; ok {
		return fixed
	}
	return word
}

// keywordToken reports whether tok is kw or its plural.
func keywordToken(tok, kw string) bool {
	return tok == kw || tok == kw+"s" || tok == kw+"es"
}

// CategoryOf infers the bucket of a piece of text from its whole words, so "coil" is not
// oil. Text hitting two unrelated buckets is mixed; text hitting none is general.
func CategoryOf(text string) Category {
	tokens := strings.FieldsFunc(fold(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	hits := make(map[Category]bool)
	for _, ck := range categoryKeywords {
	keywords:
		for _, kw := range ck.keywords {
			for _, tok := range tokens {
				if keywordToken(tok, kw) {
					hits[ck.cat] = true
					break keywords
				}
			}
		}
	}
	for general, specific := range categoryOverrides {
		if hits[general] && hits[specific] {
			delete(hits, general)
		}
	}
	switch len(hits) {
	case 0:
		return CategoryGeneral
	case 1:
		for c := range hits {
			return c
		}
	}
	return CategoryMixed
}

// Compatible reports whether an item in category item may be returned for a query in category query.
func Compatible(query, item Category) bool {
	if query == item {
		return true
	}
	return query == CategoryGeneral || query == CategoryMixed ||
		item == CategoryGeneral || item == CategoryMixed
}

// Match is one inventory search hit.
type Match struct {
	Name     string    `json:"name"`
	Match    MatchType `json:"-"`
	Kind     string    `json:"match"`
	Category Category  `json:"category"`
}

// Inventory searches item names. Every query word must be found in the name directly, through
// the typo table, or by fuzzy similarity against one of the name's words. Surviving names must
// also pass the category gate. Results are ordered exact, contains, fuzzy, then by name.
// An empty query returns every name.
func Inventory(names []string, query string) []Match {
	q := fold(query)
	words := strings.Fields(q)

	corrected := make([]string, len(words))
	for i, w := range words {
		corrected[i] = CorrectTypos(w)
	}
	queryCat := CategoryOf(strings.Join(corrected, " "))

	var out []Match
	for _, name := range names {
		n := fold(name)
		itemCat := CategoryOf(n)
		if len(words) == 0 {
			out = append(out, Match{Name: name, Match: MatchContains, Category: itemCat})
			continue
		}
		kind, ok := matchWords(n, words, corrected)
		if !ok || !Compatible(queryCat, itemCat) {
			continue
		}
		if n == q {
			kind = MatchExact
		}
		out = append(out, Match{Name: name, Match: kind, Category: itemCat})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Match != out[j].Match {
			return out[i].Match < out[j].Match
		}
		return fold(out[i].Name) < fold(out[j].Name)
	})
	for i := range out {
		out[i].Kind = out[i].Match.String()
	}
	return out
}

// matchWords returns the weakest match over all query words, or false when a word misses.
func matchWords(name string, words, corrected []string) (MatchType, bool) {
	nameWords := strings.Fields(name)
	kind := MatchContains
	for i, w := range words {
		if strings.Contains(name, w) {
			continue
		}
		if corrected[i] != w && strings.Contains(name, corrected[i]) {
			kind = MatchFuzzy
			continue
		}
		if !similarToAny(w, nameWords) {
			return 0, false
		}
		kind = MatchFuzzy
	}
	return kind, true
}

func similarToAny(word string, candidates []string) bool {
	for _, c := range candidates {
		if Similarity(word, c) >= FuzzyThreshold {
			return true
		}
	}
	return false
}

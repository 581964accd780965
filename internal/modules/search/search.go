// Package search implements the storefront product search, its suggestion list and the
// admin inventory search with typo correction, fuzzy matching and category gating.
package search

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
)

// MatchType ranks how a record matched. Lower values sort first.
type MatchType int

const (
	MatchExact MatchType = iota
	MatchContains
	MatchPrice
	MatchFuzzy
)

func (m MatchType) String() string {
	switch m {
	case MatchExact:
		return "exact"
	case MatchContains:
		return "contains"
	case MatchPrice:
		return "price"
	default:
		return "fuzzy"
	}
}

// MaxSuggestions caps Suggestions.
const MaxSuggestions = 5

// FuzzyThreshold is the minimum per-word similarity accepted by Inventory.
const FuzzyThreshold = 0.8

var priceTolerance = decimal.RequireFromString("0.10")

// Searchable is the part of a product the storefront search looks at.
// Price is the price the customer pays, after discount.
type Searchable struct {
	Name        string
	Description string
	Category    string
	Vehicles    []string
	Price       decimal.Decimal
}

// fold builds a new Caser per call; a Caser keeps state and cannot be shared.
func fold(s string) string {
	return strings.Join(strings.Fields(cases.Fold().String(s)), " ")
}

// MatchProduct reports whether p matches query and how. Text criteria are case-insensitive
// substring matches over name, description, category and compatible vehicles. A numeric
// query also matches prices within 10% of it. An empty query matches everything.
func MatchProduct(p Searchable, query string) (MatchType, bool) {
	q := fold(query)
	if q == "" {
		return MatchContains, true
	}
	name := fold(p.Name)
	if name == q {
		return MatchExact, true
	}
	if strings.Contains(name, q) ||
		strings.Contains(fold(p.Description), q) ||
		strings.Contains(fold(p.Category), q) {
		return MatchContains, true
	}
	for _, v := range p.Vehicles {
		if strings.Contains(fold(v), q) {
			return MatchContains, true
		}
	}
	if n, err := decimal.NewFromString(strings.TrimSpace(query)); err == nil && n.IsPositive() {
		if p.Price.Sub(n).Abs().LessThanOrEqual(n.Mul(priceTolerance)) {
			return MatchPrice, true
		}
	}
	return 0, false
}

// Products filters records by query. Results are ordered by match type, then name.
func Products[T any](records []T, view func(T) Searchable, query string) []T {
	type hit struct {
		rec  T
		name string
		kind MatchType
	}
	var hits []hit
	for _, r := range records {
		s := view(r)
		if kind, ok := MatchProduct(s, query); ok {
			hits = append(hits, hit{rec: r, name: fold(s.Name), kind: kind})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].kind != hits[j].kind {
			return hits[i].kind < hits[j].kind
		}
		return hits[i].name < hits[j].name
	})
	out := make([]T, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.rec)
	}
	return out
}

// Suggestions returns up to MaxSuggestions completions for query: product names starting
// with it, and categories or vehicles containing it, in the order met and without duplicates.
func Suggestions(records []Searchable, query string) []string {
	q := fold(query)
	if q == "" {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	add := func(s string) bool {
		key := fold(s)
		if _, dup := seen[key]; !dup {
			seen[key] = struct{}{}
			out = append(out, strings.TrimSpace(s))
		}
		return len(out) >= MaxSuggestions
	}

	for _, r := range records {
		if strings.HasPrefix(fold(r.Name), q) && add(r.Name) {
			return out
		}
		if r.Category != "" && strings.Contains(fold(r.Category), q) && add(r.Category) {
			return out
		}
		for _, v := range r.Vehicles {
			if strings.Contains(fold(v), q) && add(v) {
				return out
			}
		}
	}
	return out
}

// Similarity is 1 − levenshtein(a, b) / max(len(a), len(b)) over runes. Two empty strings are identical.
func Similarity(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

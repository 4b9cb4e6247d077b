package catalog

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/angelmondragon/photocard-store/pkg/enums"
	pkgerrors "github.com/angelmondragon/photocard-store/pkg/errors"
	"github.com/shopspring/decimal"
)

// Filter predicates are conjunctive; zero values match everything.
type Filter struct {
	Group       string
	Rarity      string
	Age         string
	Search      string
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	InStockOnly bool
}

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

type Sort struct {
	Field string
	Order SortOrder
}

type Query struct {
	Filter Filter
	Sort   Sort
}

type fieldKind int

const (
	fieldString fieldKind = iota
	fieldNumber
	fieldTime
)

type sortField struct {
	kind   fieldKind
	str    func(Item) string
	num    func(Item) decimal.Decimal
	cmpAny func(a, b Item) int
}

func cardAttr(get func(*CardDetails) string) func(Item) string {
	return func(it Item) string {
		if it.CardDetails == nil {
			return ""
		}
		return get(it.CardDetails)
	}
}

var sortFields = map[string]sortField{
	"id":          {kind: fieldNumber, num: func(it Item) decimal.Decimal { return decimal.NewFromInt(it.ID) }},
	"price":       {kind: fieldNumber, num: func(it Item) decimal.Decimal { return it.Price }},
	"quantity":    {kind: fieldNumber, num: func(it Item) decimal.Decimal { return decimal.NewFromInt(int64(it.Quantity)) }},
	"age":         {kind: fieldNumber, str: cardAttr(func(c *CardDetails) string { return string(c.Age) })},
	"name":        {kind: fieldString, str: func(it Item) string { return it.Name }},
	"description": {kind: fieldString, str: func(it Item) string { return it.Description }},
	"group":       {kind: fieldString, str: cardAttr(func(c *CardDetails) string { return c.Group })},
	"member":      {kind: fieldString, str: cardAttr(func(c *CardDetails) string { return c.Member })},
	"album":       {kind: fieldString, str: cardAttr(func(c *CardDetails) string { return c.Album })},
	"set":         {kind: fieldString, str: cardAttr(func(c *CardDetails) string { return c.Set })},
	"rarity":      {kind: fieldString, str: cardAttr(func(c *CardDetails) string { return string(c.Rarity) })},
	"category":    {kind: fieldString, str: cardAttr(func(c *CardDetails) string { return c.Category })},
	"createdat":   {kind: fieldTime, cmpAny: func(a, b Item) int { return a.CreatedAt.Compare(b.CreatedAt) }},
	"updatedat":   {kind: fieldTime, cmpAny: func(a, b Item) int { return a.UpdatedAt.Compare(b.UpdatedAt) }},
}

// SortFields lists the accepted sortBy values.
func SortFields() []string {
	names := make([]string, 0, len(sortFields))
	for name := range sortFields {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ParseSort validates a sortBy/sortOrder pair. An empty field means "keep
// file order".
func ParseSort(field, order string) (Sort, error) {
	field = strings.TrimSpace(field)
	if field == "" {
		return Sort{}, nil
	}
	if _, ok := sortFields[strings.ToLower(field)]; !ok {
		return Sort{}, pkgerrors.New(pkgerrors.CodeValidation, "unsupported sortBy").
			WithDetails(map[string]any{"sortBy": field, "allowed": SortFields()})
	}
	s := Sort{Field: strings.ToLower(field), Order: SortAsc}
	switch strings.ToLower(strings.TrimSpace(order)) {
	case "", "asc":
	case "desc":
		s.Order = SortDesc
	default:
		return Sort{}, pkgerrors.New(pkgerrors.CodeValidation, "sortOrder must be asc or desc")
	}
	return s, nil
}

// Apply filters and sorts items. The input slice is not modified.
func (q Query) Apply(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if q.Filter.matches(it) {
			out = append(out, it)
		}
	}
	q.Sort.apply(out)
	return out
}

func (f Filter) matches(it Item) bool {
	if f.InStockOnly && !it.InStock() {
		return false
	}
	if f.Group != "" {
		if it.CardDetails == nil || !containsFold(it.Group, f.Group) {
			return false
		}
	}
	if f.Rarity != "" {
		if it.CardDetails == nil || !it.Rarity.Matches(f.Rarity) {
			return false
		}
	}
	if f.Age != "" {
		if it.CardDetails == nil || string(it.Age) != f.Age {
			return false
		}
	}
	if f.Search != "" && !containsFold(it.Name, f.Search) && !containsFold(it.Description, f.Search) {
		return false
	}
	if f.MinPrice != nil && it.Price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && it.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	return true
}

func (s Sort) apply(items []Item) {
	field, ok := sortFields[strings.ToLower(s.Field)]
	if !ok {
		return
	}
	compare := field.compare
	if s.Order == SortDesc {
		// Negating the comparison keeps equal items in input order.
		compare = func(a, b Item) int { return -field.compare(a, b) }
	}
	slices.SortStableFunc(items, compare)
}

func (f sortField) compare(a, b Item) int {
	switch f.kind {
	case fieldTime:
		return f.cmpAny(a, b)
	case fieldNumber:
		if f.num != nil {
			return f.num(a).Cmp(f.num(b))
		}
		return compareNumericStrings(f.str(a), f.str(b))
	default:
		return cmp.Compare(strings.ToLower(f.str(a)), strings.ToLower(f.str(b)))
	}
}

// compareNumericStrings orders parseable numbers numerically and places
// values that do not parse after them, compared as text.
func compareNumericStrings(a, b string) int {
	af, aErr := strconv.ParseFloat(strings.TrimSpace(a), 64)
	bf, bErr := strconv.ParseFloat(strings.TrimSpace(b), 64)
	switch {
	case aErr == nil && bErr == nil:
		return cmp.Compare(af, bf)
	case aErr == nil:
		return -1
	case bErr == nil:
		return 1
	default:
		return cmp.Compare(strings.ToLower(a), strings.ToLower(b))
	}
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// filterForKind drops predicates that do not apply to kind.
func filterForKind(kind enums.ItemKind, f Filter) Filter {
	if kind == enums.ItemKindPrint {
		f.Group, f.Rarity, f.Age = "", "", ""
	}
	return f
}

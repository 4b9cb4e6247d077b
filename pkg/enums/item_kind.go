package enums

import (
	"fmt"
	"strings"
)

// ItemKind names the catalog collection an item belongs to.
type ItemKind string

const (
	ItemKindCard  ItemKind = "card"
	ItemKindPrint ItemKind = "print"
)

var validItemKinds = []ItemKind{
	ItemKindCard,
	ItemKindPrint,
}

// String implements fmt.Stringer.
func (k ItemKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known ItemKind.
func (k ItemKind) IsValid() bool {
	for _, candidate := range validItemKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseItemKind converts raw input into an ItemKind. "photocard" and plural
// forms are accepted since they appear in route names.
func ParseItemKind(value string) (ItemKind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "card", "cards", "photocard", "photocards":
		return ItemKindCard, nil
	case "print", "prints":
		return ItemKindPrint, nil
	}
	return "", fmt.Errorf("invalid item kind %q", value)
}

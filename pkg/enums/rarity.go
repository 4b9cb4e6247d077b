package enums

import (
	"fmt"
	"strings"
)

// Rarity describes how a photocard was distributed.
type Rarity string

const (
	RarityAlbum           Rarity = "Album"
	RarityPreorderBenefit Rarity = "Preorder Benefit"
	RarityLuckyDraw       Rarity = "Lucky Draw"
)

var validRarities = []Rarity{
	RarityAlbum,
	RarityPreorderBenefit,
	RarityLuckyDraw,
}

// String implements fmt.Stringer.
func (r Rarity) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Rarity.
func (r Rarity) IsValid() bool {
	for _, candidate := range validRarities {
		if candidate == r {
			return true
		}
	}
	return false
}

// Matches compares rarities case-insensitively, ignoring spaces and underscores.
func (r Rarity) Matches(value string) bool {
	return normalizeRarity(string(r)) == normalizeRarity(value)
}

// ParseRarity accepts the display form ("Lucky Draw") as well as compact
// spellings such as "lucky_draw" or "LuckyDraw".
func ParseRarity(value string) (Rarity, error) {
	for _, candidate := range validRarities {
		if candidate.Matches(value) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid rarity %q", value)
}

func normalizeRarity(value string) string {
	replacer := strings.NewReplacer(" ", "", "_", "", "-", "")
	return strings.ToLower(replacer.Replace(strings.TrimSpace(value)))
}

package entities

import (
	"strings"
	"time"

	"offerhub/contexts/offer-catalog/offer-service/domain/payout"
)

type Category string

const (
	CategoryGaming    Category = "Gaming"
	CategoryTech      Category = "Tech"
	CategoryHealth    Category = "Health"
	CategoryNutrition Category = "Nutrition"
	CategoryFashion   Category = "Fashion"
	CategoryFinance   Category = "Finance"
)

const (
	MaxTitleLength = 255
	MaxNameLength  = 255
)

var supportedCategories = []Category{
	CategoryGaming,
	CategoryTech,
	CategoryHealth,
	CategoryNutrition,
	CategoryFashion,
	CategoryFinance,
}

// ParseCategory matches case-insensitively and returns the canonical spelling.
func ParseCategory(raw string) (Category, bool) {
	value := strings.TrimSpace(raw)
	for _, item := range supportedCategories {
		if strings.EqualFold(value, string(item)) {
			return item, true
		}
	}
	return "", false
}

func ParseCategories(raw []string) ([]Category, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	items := make([]Category, 0, len(raw))
	seen := make(map[Category]struct{}, len(raw))
	for _, value := range raw {
		category, ok := ParseCategory(value)
		if !ok {
			return nil, false
		}
		if _, dup := seen[category]; dup {
			return nil, false
		}
		seen[category] = struct{}{}
		items = append(items, category)
	}
	return items, true
}

type Offer struct {
	OfferID     string
	Title       string
	Description string
	Categories  []Category
	Payout      payout.Definition
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (o Offer) ValidateBasics() bool {
	title := strings.TrimSpace(o.Title)
	if title == "" || len(title) > MaxTitleLength {
		return false
	}
	if strings.TrimSpace(o.Description) == "" || len(o.Categories) == 0 {
		return false
	}
	seen := make(map[Category]struct{}, len(o.Categories))
	for _, category := range o.Categories {
		if parsed, ok := ParseCategory(string(category)); !ok || parsed != category {
			return false
		}
		if _, dup := seen[category]; dup {
			return false
		}
		seen[category] = struct{}{}
	}
	return true
}

func (o Offer) CategoryNames() []string {
	names := make([]string, 0, len(o.Categories))
	for _, category := range o.Categories {
		names = append(names, string(category))
	}
	return names
}

// Clone copies the slices and the payout so stores never share them with callers.
func (o Offer) Clone() Offer {
	clone := o
	clone.Categories = append([]Category(nil), o.Categories...)
	clone.Payout = o.Payout.Clone()
	return clone
}

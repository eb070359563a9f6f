package entities_test

import (
	"strings"
	"testing"

	"offerhub/contexts/offer-catalog/offer-service/domain/entities"
)

func TestParseCategoriesNormalizesAndRejectsDuplicates(t *testing.T) {
	items, ok := entities.ParseCategories([]string{"gaming", " TECH "})
	if !ok {
		t.Fatalf("expected categories to parse")
	}
	if items[0] != entities.CategoryGaming || items[1] != entities.CategoryTech {
		t.Fatalf("unexpected categories %v", items)
	}
	if _, ok := entities.ParseCategories([]string{"Gaming", "gaming"}); ok {
		t.Fatalf("expected duplicate categories to be rejected")
	}
	if _, ok := entities.ParseCategories([]string{"Cooking"}); ok {
		t.Fatalf("expected unsupported category to be rejected")
	}
	if _, ok := entities.ParseCategories(nil); ok {
		t.Fatalf("expected empty categories to be rejected")
	}
}

func TestOfferValidateBasics(t *testing.T) {
	offer := entities.Offer{
		Title:       "Summer Sale",
		Description: "Promote the summer sale",
		Categories:  []entities.Category{entities.CategoryFashion},
	}
	if !offer.ValidateBasics() {
		t.Fatalf("expected offer to be valid")
	}

	tooLong := offer
	tooLong.Title = strings.Repeat("a", entities.MaxTitleLength+1)
	if tooLong.ValidateBasics() {
		t.Fatalf("expected long title to be rejected")
	}

	noDescription := offer
	noDescription.Description = "  "
	if noDescription.ValidateBasics() {
		t.Fatalf("expected blank description to be rejected")
	}
}

func TestIsValidEmail(t *testing.T) {
	valid := []string{"jane@example.com", "a.b+tag@mail.example.org"}
	invalid := []string{"", "jane", "jane@", "Jane <jane@example.com>", "jane@localhost"}
	for _, email := range valid {
		if !entities.IsValidEmail(email) {
			t.Fatalf("expected %q to be valid", email)
		}
	}
	for _, email := range invalid {
		if entities.IsValidEmail(email) {
			t.Fatalf("expected %q to be invalid", email)
		}
	}
}

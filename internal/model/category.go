package model

import (
	"fmt"
	"strings"
)

// Category is the topic a match draws its questions from
type Category string

const (
	CategoryFootball   Category = "football"
	CategoryBasketball Category = "basketball"
	CategoryTennis     Category = "tennis"
	CategoryOlympics   Category = "olympics"
	CategoryMixed      Category = "mixed"
)

// AllCategories lists every category a match can be created with, in display order
var AllCategories = []Category{
	CategoryFootball,
	CategoryBasketball,
	CategoryTennis,
	CategoryOlympics,
	CategoryMixed,
}

// ConcreteCategories are the categories questions are stored under.
// Mixed draws from all of them.
var ConcreteCategories = []Category{
	CategoryFootball,
	CategoryBasketball,
	CategoryTennis,
	CategoryOlympics,
}

// ParseCategory normalises and validates a category name
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}
	return c, nil
}

// Valid reports whether c is one of the known categories
func (c Category) Valid() bool {
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}
	return false
}

// IsConcrete reports whether questions can be stored under c
func (c Category) IsConcrete() bool {
	return c.Valid() && c != CategoryMixed
}

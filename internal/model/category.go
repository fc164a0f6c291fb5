package model

import "slices"

// DefaultCategories is used when no category list is configured.
var DefaultCategories = []string{
	"work",
	"health",
	"family",
	"financial",
	"relationships",
	"education",
	"other",
}

// Categories is the fixed, ordered set of categories a hardship may carry.
type Categories []string

// Contains reports whether c is a configured category.
func (cs Categories) Contains(c string) bool {
	return slices.Contains(cs, c)
}

package core

import "strings"

// Fallback category names used when a category is deleted.
const (
	OtherExpenseName = "Other"
	OtherIncomeName  = "Other Income"
)

// DefaultCategories returns the category set seeded for a first-time user.
func DefaultCategories(userID string) []Category {
	seed := []struct {
		name  string
		typ   EntryType
		color string
		icon  string
	}{
		{"Groceries", Expense, "#F56565", "shopping-cart"},
		{"Dining", Expense, "#ED8936", "utensils"},
		{"Transportation", Expense, "#ECC94B", "car"},
		{"Utilities", Expense, "#48BB78", "bolt"},
		{"Entertainment", Expense, "#38B2AC", "film"},
		{"Health", Expense, "#4299E1", "medkit"},
		{"Housing", Expense, "#0BC5EA", "home"},
		{"Shopping", Expense, "#9F7AEA", "shopping-bag"},
		{"Personal", Expense, "#ED64A6", "user"},
		{"Salary", Income, "#48BB78", "money-bill"},
		{"Investments", Income, "#38B2AC", "chart-line"},
		{"Gifts", Income, "#9F7AEA", "gift"},
		{OtherExpenseName, Expense, "#718096", "question"},
		{OtherIncomeName, Income, "#4299E1", "plus"},
	}
	out := make([]Category, 0, len(seed))
	for _, s := range seed {
		out = append(out, Category{
			ID:     NewID(),
			UserID: userID,
			Name:   s.name,
			Type:   s.typ,
			Color:  s.color,
			Icon:   s.icon,
		})
	}
	return out
}

// FallbackCategoryName is the name a transaction of type t is reassigned to
// when its category is deleted.
func FallbackCategoryName(t EntryType) string {
	if t == Income {
		return OtherIncomeName
	}
	return OtherExpenseName
}

// Keyword order matters: the first keyword contained in the name wins.
var iconKeywords = []struct{ keyword, icon string }{
	{"groceries", "shopping-cart"},
	{"dining", "utensils"},
	{"restaurant", "utensils"},
	{"food", "hamburger"},
	{"transportation", "car"},
	{"travel", "plane"},
	{"utilities", "bolt"},
	{"electric", "plug"},
	{"water", "tint"},
	{"entertainment", "film"},
	{"health", "medkit"},
	{"medical", "hospital"},
	{"housing", "home"},
	{"rent", "building"},
	{"mortgage", "home"},
	{"shopping", "shopping-bag"},
	{"clothes", "tshirt"},
	{"personal", "user"},
	{"education", "graduation-cap"},
	{"school", "school"},
	{"books", "book"},
	{"salary", "money-bill"},
	{"income", "dollar-sign"},
	{"investments", "chart-line"},
	{"stocks", "chart-line"},
	{"gifts", "gift"},
	{"charity", "hand-holding-heart"},
	{"donation", "hand-holding-heart"},
	{"insurance", "shield-alt"},
	{"gym", "dumbbell"},
	{"fitness", "running"},
	{"pet", "paw"},
	{"childcare", "baby"},
	{"streaming", "tv"},
	{"subscription", "repeat"},
	{"phone", "mobile-alt"},
	{"internet", "wifi"},
}

// IconFor picks an icon tag from keywords in a category name.
func IconFor(name string) string {
	lower := strings.ToLower(name)
	for _, k := range iconKeywords {
		if strings.Contains(lower, k.keyword) {
			return k.icon
		}
	}
	return "tag"
}

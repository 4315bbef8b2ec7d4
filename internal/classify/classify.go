package classify

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Category is an expense category tag
type Category string

const (
	CategoryTravel  Category = "travel"
	CategoryFood    Category = "food"
	CategoryLodging Category = "lodging"
	CategoryOffice  Category = "office"
	CategoryOther   Category = "other"
)

// Suggestion is a suggested category plus the vendor substring that triggered it
type Suggestion struct {
	Category Category `json:"category"`
	Keyword  string   `json:"keyword"`
}

// entry pairs a category with its keyword list; table order is the tie-break order
type entry struct {
	category Category
	keywords []string
}

// Table is an ordered keyword table mapping vendor substrings to categories
type Table struct {
	entries []entry
}

// DefaultTable returns the built-in keyword table. Categories are matched in
// declaration order: travel, food, lodging, office. "other" is never suggested.
func DefaultTable() *Table {
	return &Table{entries: []entry{
		{CategoryTravel, []string{
			"uber", "lyft", "taxi", "airline", "airways", "flight", "airport",
			"delta", "united", "amtrak", "parking", "rental car", "hertz", "avis",
		}},
		{CategoryFood, []string{
			"restaurant", "cafe", "coffee", "starbucks", "pizza", "grill",
			"deli", "diner", "bakery", "catering", "doordash", "grubhub",
		}},
		{CategoryLodging, []string{
			"hotel", "inn", "motel", "resort", "lodge", "marriott", "hilton",
			"hyatt", "airbnb", "suites",
		}},
		{CategoryOffice, []string{
			"staples", "office depot", "officemax", "supplies", "stationery",
			"printer", "toner", "ink",
		}},
	}}
}

// tableFile is the YAML shape of an external keyword table:
//
//	categories:
//	  - name: travel
//	    keywords: [uber, lyft]
//
// The sequence order in the file is the matching order.
type tableFile struct {
	Categories []struct {
		Name     string   `yaml:"name"`
		Keywords []string `yaml:"keywords"`
	} `yaml:"categories"`
}

// ParseTable parses a YAML keyword table, preserving category order
func ParseTable(data []byte) (*Table, error) {
	var file tableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing category table: %w", err)
	}
	if len(file.Categories) == 0 {
		return nil, fmt.Errorf("category table is empty")
	}

	table := &Table{entries: make([]entry, 0, len(file.Categories))}
	for _, c := range file.Categories {
		name := strings.ToLower(strings.TrimSpace(c.Name))
		if name == "" {
			return nil, fmt.Errorf("category with empty name")
		}
		if len(c.Keywords) == 0 {
			return nil, fmt.Errorf("category %q has no keywords", name)
		}
		table.entries = append(table.entries, entry{
			category: Category(name),
			keywords: c.Keywords,
		})
	}
	return table, nil
}

// Suggest returns the first category whose keyword occurs in the vendor text.
// Matching is case-insensitive and first-match-wins: the first category in table
// order with any matching keyword is returned, along with the keyword that
// matched. Empty or whitespace-only input never matches.
func (t *Table) Suggest(vendorText string) (Suggestion, bool) {
	text := strings.ToLower(strings.TrimSpace(vendorText))
	if text == "" {
		return Suggestion{}, false
	}

	for _, e := range t.entries {
		for _, keyword := range e.keywords {
			if strings.Contains(text, strings.ToLower(keyword)) {
				return Suggestion{Category: e.category, Keyword: keyword}, true
			}
		}
	}
	return Suggestion{}, false
}

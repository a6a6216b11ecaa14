package models

// Product is a sellable menu entry. Category holds the category name, not its ID.
type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Price       int64  `json:"price"`
	Description string `json:"description,omitempty"`
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AllCategories selects every product when filtering the catalog.
const AllCategories = "all"

package model

import "time"

// ProductCategory groups catalog products for menu display.
type ProductCategory string

const (
	CategoryBurger  ProductCategory = "BURGER"
	CategorySide    ProductCategory = "SIDE"
	CategoryDrink   ProductCategory = "DRINK"
	CategoryDessert ProductCategory = "DESSERT"
)

// Product represents a food product in the catalogue. Orders snapshot the
// name and price at checkout time; the catalog row may change afterwards.
type Product struct {
	ID          string          `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description" db:"description"`
	Price       float64         `json:"price" db:"price"`
	Category    ProductCategory `json:"category" db:"category"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
}

package models

// Product represents a catalog entry.
type Product struct {
	ID          string  `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name        string  `json:"name" gorm:"uniqueIndex;size:200;not null"`
	Description string  `json:"description" gorm:"size:500"`
	Price       float64 `json:"price" gorm:"not null"`
	Quantity    int     `json:"quantity" gorm:"not null"`
}

// TableName pins the table name regardless of naming strategy.
func (Product) TableName() string {
	return "products"
}

// WithPrice returns a copy of p with only the price replaced.
func (p Product) WithPrice(price float64) Product {
	p.Price = price
	return p
}

// WithQuantity returns a copy of p with only the quantity replaced.
func (p Product) WithQuantity(quantity int) Product {
	p.Quantity = quantity
	return p
}

// Package storefront holds the storefront's domain records, their validation
// schemas, and the small pieces of derived view state (cart totals, shipping,
// sitemap assembly) that sit on top of the synced data.
package storefront

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Product is one sellable item.
type Product struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Slug        string   `json:"slug"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	SalePrice   float64  `json:"sale_price"`
	CategoryID  string   `json:"category_id"`
	Images      []string `json:"images"`
	InStock     bool     `json:"in_stock"`
	Featured    bool     `json:"featured"`
}

// Validate implements validation.Validatable; the live query schema runs this
// on every incoming push.
func (p Product) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.ID, validation.Required),
		validation.Field(&p.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&p.Slug, validation.Required, validation.Match(slugPattern)),
		validation.Field(&p.Price, validation.Min(0.0)),
		validation.Field(&p.SalePrice, validation.Min(0.0), validation.Max(p.Price).Error("sale price cannot exceed price")),
	)
}

// EffectivePrice returns the sale price when one is set, else the list price.
func (p Product) EffectivePrice() float64 {
	if p.SalePrice > 0 && p.SalePrice < p.Price {
		return p.SalePrice
	}
	return p.Price
}

// Category groups products for navigation.
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Image string `json:"image"`
}

// Validate implements validation.Validatable.
func (c Category) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ID, validation.Required),
		validation.Field(&c.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&c.Slug, validation.Required, validation.Match(slugPattern)),
	)
}

// Banner is one promotional slot on the home page.
type Banner struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Image  string `json:"image"`
	Link   string `json:"link"`
	Active bool   `json:"active"`
}

// Validate implements validation.Validatable.
func (b Banner) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.ID, validation.Required),
		validation.Field(&b.Image, validation.Required, is.URL),
	)
}

// OrderItem is one line of a placed order, priced at order time.
type OrderItem struct {
	ProductID string  `json:"product_id"`
	Title     string  `json:"title"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// Validate implements validation.Validatable.
func (i OrderItem) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.ProductID, validation.Required),
		validation.Field(&i.Quantity, validation.Required, validation.Min(1)),
		validation.Field(&i.UnitPrice, validation.Min(0.0)),
	)
}

// Order is one placed order as synced from the source.
type Order struct {
	ID         string      `json:"id"`
	UserID     string      `json:"user_id"`
	Items      []OrderItem `json:"items"`
	Status     string      `json:"status"`
	Total      float64     `json:"total"`
	PlacedAt   string      `json:"placed_at"`
	ShipCity   string      `json:"ship_city"`
	ShipStreet string      `json:"ship_street"`
}

// Order statuses as stored at the source.
const (
	OrderPending   = "pending"
	OrderConfirmed = "confirmed"
	OrderShipped   = "shipped"
	OrderDelivered = "delivered"
	OrderCancelled = "cancelled"
)

// Validate implements validation.Validatable.
func (o Order) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.ID, validation.Required),
		validation.Field(&o.UserID, validation.Required),
		validation.Field(&o.Items, validation.Required),
		validation.Field(&o.Status, validation.Required, validation.In(
			OrderPending, OrderConfirmed, OrderShipped, OrderDelivered, OrderCancelled,
		)),
		validation.Field(&o.Total, validation.Min(0.0)),
	)
}

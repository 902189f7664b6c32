package storefront

// ShippingPolicy prices delivery for a cart. Orders at or above the free
// threshold ship free; everything else pays the flat fee.
type ShippingPolicy struct {
	FreeThreshold float64 `mapstructure:"free_threshold"`
	FlatFee       float64 `mapstructure:"flat_fee"`
}

// CartLine is one product plus quantity in a cart.
type CartLine struct {
	Product  Product
	Quantity int
}

// LineTotal prices the line at the product's effective price.
func (l CartLine) LineTotal() float64 {
	if l.Quantity <= 0 {
		return 0
	}
	return l.Product.EffectivePrice() * float64(l.Quantity)
}

// Cart is derived view state over the synced products; it is never persisted
// at the source.
type Cart struct {
	Lines    []CartLine
	Shipping ShippingPolicy
}

// ItemCount returns the total number of units across all lines.
func (c Cart) ItemCount() int {
	count := 0
	for _, line := range c.Lines {
		if line.Quantity > 0 {
			count += line.Quantity
		}
	}
	return count
}

// Subtotal sums all line totals.
func (c Cart) Subtotal() float64 {
	total := 0.0
	for _, line := range c.Lines {
		total += line.LineTotal()
	}
	return total
}

// ShippingFee returns the delivery charge for the cart's current subtotal.
// Empty carts ship nothing and pay nothing.
func (c Cart) ShippingFee() float64 {
	subtotal := c.Subtotal()
	if subtotal <= 0 {
		return 0
	}
	if c.Shipping.FreeThreshold > 0 && subtotal >= c.Shipping.FreeThreshold {
		return 0
	}
	return c.Shipping.FlatFee
}

// AmountToFreeShipping returns how much more the cart needs to qualify for
// free shipping, or zero if it already does (or no threshold is configured).
func (c Cart) AmountToFreeShipping() float64 {
	if c.Shipping.FreeThreshold <= 0 {
		return 0
	}
	remaining := c.Shipping.FreeThreshold - c.Subtotal()
	if remaining <= 0 {
		return 0
	}
	return remaining
}

// Total is the subtotal plus shipping.
func (c Cart) Total() float64 {
	return c.Subtotal() + c.ShippingFee()
}

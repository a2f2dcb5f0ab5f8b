package domain

import "encoding/json"

type CartLine struct {
	Product  Product `json:"product" bson:"product"`
	Quantity int     `json:"quantity" bson:"quantity"`
}

// Subtotal is unit price times quantity.
func (l CartLine) Subtotal() int64 {
	return l.Product.UnitPrice * int64(l.Quantity)
}

// Cart holds at most one line per product id, in the order products were first added.
// The zero value is an empty cart.
type Cart struct {
	lines []CartLine
}

func NewCart() *Cart {
	return &Cart{}
}

// RestoreCart rebuilds a cart from stored lines. Lines sharing a product id are merged
// and lines with a non-positive quantity are dropped.
func RestoreCart(lines []CartLine) *Cart {
	c := &Cart{}
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		if i := c.indexOf(line.Product.ID); i >= 0 {
			c.lines[i].Quantity += line.Quantity
			continue
		}
		c.lines = append(c.lines, line)
	}
	return c
}

// AddProduct increments the quantity of the product's line, or appends a new line with quantity 1.
func (c *Cart) AddProduct(product Product) {
	if i := c.indexOf(product.ID); i >= 0 {
		c.lines[i].Quantity++
		return
	}
	c.lines = append(c.lines, CartLine{Product: product, Quantity: 1})
}

// SetQuantity sets the quantity of an existing line. A quantity <= 0 removes the line.
// Unknown product ids are ignored.
func (c *Cart) SetQuantity(productID int64, quantity int) {
	i := c.indexOf(productID)
	if i < 0 {
		return
	}
	if quantity <= 0 {
		c.removeAt(i)
		return
	}
	c.lines[i].Quantity = quantity
}

func (c *Cart) RemoveLine(productID int64) {
	if i := c.indexOf(productID); i >= 0 {
		c.removeAt(i)
	}
}

func (c *Cart) Total() int64 {
	var total int64
	for _, line := range c.lines {
		total += line.Subtotal()
	}
	return total
}

func (c *Cart) Clear() {
	c.lines = nil
}

// Lines returns a copy of the cart lines.
func (c *Cart) Lines() []CartLine {
	out := make([]CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Len() int {
	return len(c.lines)
}

func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Quantity returns the quantity for a product id, 0 when absent.
func (c *Cart) Quantity(productID int64) int {
	if i := c.indexOf(productID); i >= 0 {
		return c.lines[i].Quantity
	}
	return 0
}

func (c Cart) MarshalJSON() ([]byte, error) {
	lines := c.lines
	if lines == nil {
		lines = []CartLine{}
	}
	return json.Marshal(lines)
}

func (c *Cart) UnmarshalJSON(data []byte) error {
	var lines []CartLine
	if err := json.Unmarshal(data, &lines); err != nil {
		return err
	}
	*c = *RestoreCart(lines)
	return nil
}

func (c *Cart) indexOf(productID int64) int {
	for i, line := range c.lines {
		if line.Product.ID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) removeAt(i int) {
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
}

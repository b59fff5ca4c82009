package cart

import (
	"encoding/gob"
	"errors"

	"github.com/shopspring/decimal"
)

var ErrInvalidQuantity = errors.New("quantity must be a positive integer")

// Item is one cart line. Name and Price are copied from the product when
// it is added and are not refreshed afterwards.
type Item struct {
	ProductID int64
	Name      string
	Price     decimal.Decimal
	Quantity  int
}

func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart keeps lines in insertion order.
type Cart struct {
	Items []Item
}

func init() {
	gob.Register(Cart{})
}

// Add appends the item or increases the quantity of an existing line for
// the same product.
func (c *Cart) Add(item Item) error {
	if item.Quantity <= 0 {
		return ErrInvalidQuantity
	}

	for i := range c.Items {
		if c.Items[i].ProductID == item.ProductID {
			c.Items[i].Quantity += item.Quantity
			return nil
		}
	}

	c.Items = append(c.Items, item)
	return nil
}

// Remove drops the line for productID. Missing products are ignored.
func (c *Cart) Remove(productID int64) {
	kept := c.Items[:0]
	for _, item := range c.Items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	c.Items = kept
}

func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// Count is the number of units across all lines.
func (c Cart) Count() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

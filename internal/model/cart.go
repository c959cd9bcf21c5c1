package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItem is a priced snapshot of a product variant. Carts, checkouts and
// orders all store their lines in this shape.
type LineItem struct {
	ProductID uuid.UUID       `json:"productId"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
	Size      string          `json:"size"`
	Color     string          `json:"color"`
	Quantity  int             `json:"quantity"`
}

func (li LineItem) Matches(productID uuid.UUID, size, color string) bool {
	return li.ProductID == productID && li.Size == size && li.Color == color
}

func (li LineItem) Subtotal() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

func SumItems(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// Cart is owned by exactly one of UserID or GuestID.
type Cart struct {
	ID         uuid.UUID
	UserID     *uuid.UUID
	GuestID    *string
	Items      []LineItem
	TotalPrice decimal.Decimal
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (c *Cart) FindItem(productID uuid.UUID, size, color string) int {
	for i, item := range c.Items {
		if item.Matches(productID, size, color) {
			return i
		}
	}
	return -1
}

func (c *Cart) RemoveItem(i int) {
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
}

func (c *Cart) Recalculate() {
	c.TotalPrice = SumItems(c.Items)
}

// Absorb adds other's lines into c, summing quantities of matching variants.
func (c *Cart) Absorb(other []LineItem) {
	for _, item := range other {
		if i := c.FindItem(item.ProductID, item.Size, item.Color); i > -1 {
			c.Items[i].Quantity += item.Quantity
			continue
		}
		c.Items = append(c.Items, item)
	}
	c.Recalculate()
}

// AssignTo turns the cart into a user cart.
func (c *Cart) AssignTo(userID uuid.UUID) {
	c.UserID = &userID
	c.GuestID = nil
}

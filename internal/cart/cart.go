// Package cart holds a customer's in-progress order and its money math.
package cart

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

// TaxRate is the flat rate applied to the subtotal. Tax rounds to the
// nearest whole rupee.
var TaxRate = decimal.NewFromFloat(0.05)

// Line is one distinct item in the cart.
type Line struct {
	ItemID   string
	Name     string
	Price    decimal.Decimal
	Quantity int
}

// Cart keys lines by item ID and preserves the order items were first
// added in.
type Cart struct {
	lines map[string]*Line
	order []string
}

func New() *Cart {
	return &Cart{lines: make(map[string]*Line)}
}

// Add puts one more of the item in the cart, creating the line on first add.
func (c *Cart) Add(itemID, name string, price decimal.Decimal) {
	if line, ok := c.lines[itemID]; ok {
		line.Quantity++
		return
	}
	c.lines[itemID] = &Line{ItemID: itemID, Name: name, Price: price, Quantity: 1}
	c.order = append(c.order, itemID)
}

// Remove takes one of the item out, dropping the line at zero. Removing an
// absent item is a no-op so quantities can never go negative.
func (c *Cart) Remove(itemID string) {
	line, ok := c.lines[itemID]
	if !ok {
		return
	}
	line.Quantity--
	if line.Quantity <= 0 {
		delete(c.lines, itemID)
		for i, id := range c.order {
			if id == itemID {
				c.order = append(c.order[:i], c.order[i+1:]...)
				break
			}
		}
	}
}

func (c *Cart) Clear() {
	c.lines = make(map[string]*Line)
	c.order = nil
}

// Len returns the number of distinct lines.
func (c *Cart) Len() int {
	return len(c.lines)
}

// Quantity returns how many of the item are in the cart.
func (c *Cart) Quantity(itemID string) int {
	if line, ok := c.lines[itemID]; ok {
		return line.Quantity
	}
	return 0
}

// Lines returns the cart contents in first-added order.
func (c *Cart) Lines() []Line {
	out := make([]Line, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.lines[id])
	}
	return out
}

func (c *Cart) TotalItems() int {
	n := 0
	for _, line := range c.lines {
		n += line.Quantity
	}
	return n
}

func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, line := range c.lines {
		sum = sum.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return sum
}

func (c *Cart) Tax() decimal.Decimal {
	return Tax(c.Subtotal())
}

func (c *Cart) Total() decimal.Decimal {
	sub := c.Subtotal()
	return sub.Add(Tax(sub))
}

// Tax applies the flat rate and rounds to the nearest rupee.
func Tax(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(TaxRate).Round(0)
}

// ParsePrice reads a display price like "₹1,250.50" into a decimal.
func ParsePrice(s string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.ReplaceAll(cleaned, "₹", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("empty price %q", s)
	}
	return decimal.NewFromString(cleaned)
}

// FormatPrice renders a decimal as a rupee amount for messages and invoices.
func FormatPrice(d decimal.Decimal) string {
	return "₹" + d.StringFixed(2)
}

// OrderMessage builds the numbered order summary sent over WhatsApp.
func (c *Cart) OrderMessage(cafeName, orderType, tableNumber, customerName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order for %s\n", cafeName)
	if customerName != "" {
		fmt.Fprintf(&b, "Name: %s\n", customerName)
	}
	if orderType == "DINE_IN" && tableNumber != "" {
		fmt.Fprintf(&b, "Table: %s\n", tableNumber)
	} else if orderType != "" {
		fmt.Fprintf(&b, "Type: %s\n", orderType)
	}
	b.WriteString("\n")
	for i, line := range c.Lines() {
		lineTotal := line.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		fmt.Fprintf(&b, "%d. %s x%d - %s\n", i+1, line.Name, line.Quantity, FormatPrice(lineTotal))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Subtotal: %s\n", FormatPrice(c.Subtotal()))
	fmt.Fprintf(&b, "Tax: %s\n", FormatPrice(c.Tax()))
	fmt.Fprintf(&b, "Total: %s", FormatPrice(c.Total()))
	return b.String()
}

// WhatsAppLink builds a wa.me URL that opens a chat with the message
// prefilled. The phone number keeps digits only.
func WhatsAppLink(phone, message string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	return "https://wa.me/" + digits.String() + "?text=" + url.QueryEscape(message)
}

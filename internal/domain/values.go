package domain

import (
	"math"
	"strings"

	"github.com/google/uuid"
)

// Quantity is a strictly positive item count
type Quantity int

// NewQuantity validates that n is positive
func NewQuantity(n int) (Quantity, error) {
	if n <= 0 {
		return 0, invalidArgument("quantity must be positive, got %d", n)
	}
	return Quantity(n), nil
}

// MustQuantity panics on a non-positive value. Intended for literals in tests and fixtures.
func MustQuantity(n int) Quantity {
	q, err := NewQuantity(n)
	if err != nil {
		panic(err)
	}
	return q
}

// Int returns the quantity as a plain int
func (q Quantity) Int() int {
	return int(q)
}

// Add returns q + other. q may be a zero running total, other must be positive
// and the sum must fit in an int.
func (q Quantity) Add(other Quantity) (Quantity, error) {
	if q < 0 || other <= 0 {
		return 0, invalidArgument("cannot add quantity %d to %d", other, q)
	}
	if other > Quantity(math.MaxInt)-q {
		return 0, invalidArgument("quantity %d plus %d overflows", q, other)
	}
	return q + other, nil
}

// Subtract returns q - other, rejecting a non-positive result
func (q Quantity) Subtract(other Quantity) (Quantity, error) {
	return NewQuantity(int(q) - int(other))
}

// Multiply returns q * factor, rejecting a non-positive factor
func (q Quantity) Multiply(factor int) (Quantity, error) {
	if factor <= 0 {
		return 0, invalidArgument("multiplication factor must be positive, got %d", factor)
	}
	if int(q) > math.MaxInt/factor {
		return 0, invalidArgument("quantity %d times %d overflows", q, factor)
	}
	return Quantity(int(q) * factor), nil
}

// SKU identifies a stock keeping unit
type SKU string

// NewSKU trims and validates a SKU code
func NewSKU(code string) (SKU, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", invalidArgument("sku code cannot be blank")
	}
	return SKU(code), nil
}

func (s SKU) String() string {
	return string(s)
}

// OrderID identifies the customer order consolidated in a slot
type OrderID string

// NewOrderID validates an order identity
func NewOrderID(id string) (OrderID, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", invalidArgument("order id cannot be blank")
	}
	return OrderID(id), nil
}

func (o OrderID) String() string {
	return string(o)
}

// WallID identifies a put wall
type WallID string

// NewWallID validates a put wall identity
func NewWallID(id string) (WallID, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", invalidArgument("put wall id cannot be blank")
	}
	return WallID(id), nil
}

// GenerateWallID returns a new random put wall identity
func GenerateWallID() WallID {
	return WallID("PW-" + uuid.New().String())
}

func (w WallID) String() string {
	return string(w)
}

// SlotID identifies a slot within a put wall
type SlotID string

// NewSlotID validates a slot identity
func NewSlotID(id string) (SlotID, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", invalidArgument("slot id cannot be blank")
	}
	return SlotID(id), nil
}

func (s SlotID) String() string {
	return string(s)
}

// RequiredItems maps each SKU of an order to the quantity the slot must receive
type RequiredItems map[SKU]Quantity

// NewRequiredItems converts raw SKU counts into validated required items
func NewRequiredItems(raw map[string]int) (RequiredItems, error) {
	if len(raw) == 0 {
		return nil, invalidArgument("required items cannot be empty")
	}
	items := make(RequiredItems, len(raw))
	for code, n := range raw {
		sku, err := NewSKU(code)
		if err != nil {
			return nil, err
		}
		qty, err := NewQuantity(n)
		if err != nil {
			return nil, invalidArgument("quantity for sku %s must be positive, got %d", sku, n)
		}
		if existing, ok := items[sku]; ok {
			if qty, err = existing.Add(qty); err != nil {
				return nil, err
			}
		}
		items[sku] = qty
	}
	return items, nil
}

// Clone returns an independent copy
func (r RequiredItems) Clone() RequiredItems {
	out := make(RequiredItems, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Total returns the sum of all quantities
func (r RequiredItems) Total() int {
	total := 0
	for _, q := range r {
		total += q.Int()
	}
	return total
}

// ToMap converts to primitive SKU counts, used for events and DTOs
func (r RequiredItems) ToMap() map[string]int {
	out := make(map[string]int, len(r))
	for k, v := range r {
		out[string(k)] = v.Int()
	}
	return out
}

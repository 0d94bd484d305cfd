package models

// CartLine is one row of a cart. Name, Price and Category are captured when the
// item is first added so later catalog price changes do not alter the total.
type CartLine struct {
	ItemID   string `json:"itemId"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Category string `json:"category"`
	Quantity int    `json:"quantity"`
}

func (l CartLine) Subtotal() int64 {
	return l.Price * int64(l.Quantity)
}

package cart

// Item is a catalog record as received from upstream feeds. Older feeds send
// the identifier as "_id", newer ones as "id"; Key resolves both to one
// canonical identity so the same logical item can never occupy two lines.
type Item struct {
	ID        string `json:"id,omitempty"`
	LegacyID  string `json:"_id,omitempty"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"` // minor currency units
}

func (i Item) Key() string {
	if i.LegacyID != "" {
		return i.LegacyID
	}
	return i.ID
}

type Line struct {
	ItemID    string `json:"item_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

// Cart is a per-customer-session collection of lines. It is owned by exactly
// one session and is never shared or persisted server-side, so no locking.
// Lines keep insertion order. Quantity is always >= 1; a line dropped to zero
// is removed, never stored.
type Cart struct {
	keys  []string
	lines map[string]*Line
}

func New() *Cart {
	return &Cart{
		lines: make(map[string]*Line),
	}
}

// AddItem inserts the item with quantity 1, or increments the quantity of the
// existing line for the same canonical key.
func (c *Cart) AddItem(item Item) {
	key := item.Key()
	if key == "" {
		return
	}
	if line, ok := c.lines[key]; ok {
		line.Quantity++
		return
	}
	c.keys = append(c.keys, key)
	c.lines[key] = &Line{
		ItemID:    key,
		Name:      item.Name,
		UnitPrice: item.UnitPrice,
		Quantity:  1,
	}
}

// RemoveItem deletes the line if present, no-op otherwise.
func (c *Cart) RemoveItem(itemID string) {
	if _, ok := c.lines[itemID]; !ok {
		return
	}
	delete(c.lines, itemID)
	for i, k := range c.keys {
		if k == itemID {
			c.keys = append(c.keys[:i], c.keys[i+1:]...)
			break
		}
	}
}

// UpdateQuantity sets the line quantity. Anything below 1 removes the line.
func (c *Cart) UpdateQuantity(itemID string, quantity int) {
	if quantity < 1 {
		c.RemoveItem(itemID)
		return
	}
	if line, ok := c.lines[itemID]; ok {
		line.Quantity = quantity
	}
}

func (c *Cart) Clear() {
	c.keys = nil
	c.lines = make(map[string]*Line)
}

func (c *Cart) TotalAmount() int64 {
	var total int64
	for _, line := range c.lines {
		total += line.UnitPrice * int64(line.Quantity)
	}
	return total
}

func (c *Cart) ItemCount() int {
	count := 0
	for _, line := range c.lines {
		count += line.Quantity
	}
	return count
}

func (c *Cart) Empty() bool {
	return len(c.lines) == 0
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, 0, len(c.keys))
	for _, k := range c.keys {
		out = append(out, *c.lines[k])
	}
	return out
}

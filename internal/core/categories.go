package core

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// CategoryTotals is the running per-category sum kept next to the expense
// sequence. Keys iterate in first-insertion order, in memory and in JSON.
type CategoryTotals struct {
	m *orderedmap.OrderedMap[string, Money]
}

func NewCategoryTotals() *CategoryTotals {
	return &CategoryTotals{m: orderedmap.New[string, Money]()}
}

// Add adds amount to category, creating the key at zero when unseen.
func (c *CategoryTotals) Add(category string, amount Money) {
	cur, _ := c.m.Get(category)
	c.m.Set(category, cur.Add(amount))
}

// Get returns the total for category and whether it has been seen.
func (c *CategoryTotals) Get(category string) (Money, bool) {
	return c.m.Get(category)
}

func (c *CategoryTotals) Len() int {
	return c.m.Len()
}

// Amounts lists the totals in first-insertion order.
func (c *CategoryTotals) Amounts() []CategoryAmount {
	out := make([]CategoryAmount, 0, c.m.Len())
	for pair := c.m.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, CategoryAmount{Name: pair.Key, Amount: pair.Value})
	}
	return out
}

// Sum returns the total over all categories.
func (c *CategoryTotals) Sum() Money {
	var total Money
	for pair := c.m.Oldest(); pair != nil; pair = pair.Next() {
		total = total.Add(pair.Value)
	}
	return total
}

func (c *CategoryTotals) MarshalJSON() ([]byte, error) {
	if c == nil || c.m == nil {
		return []byte("{}"), nil
	}
	return c.m.MarshalJSON()
}

func (c *CategoryTotals) UnmarshalJSON(data []byte) error {
	c.m = orderedmap.New[string, Money]()
	if string(data) == "null" {
		return nil
	}
	return c.m.UnmarshalJSON(data)
}

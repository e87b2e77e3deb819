// Package catalog 持有商品表快照及其与近邻索引之间的 ID 映射。
package catalog

import "github.com/rushteam/hybridrec/core"

// Catalog 是按表顺序保存的商品目录。
// 稠密下标即商品在表中的行号，与离线构建近邻索引时的顺序一致。
type Catalog struct {
	items []core.Item
	ids   *IDMap
}

// New 按表顺序构建目录；重复的商品 ID 会导致构建失败。
func New(items []core.Item) (*Catalog, error) {
	ids := make([]int64, len(items))
	indices := make([]int, len(items))
	for i, it := range items {
		ids[i] = it.ID
		indices[i] = i
	}
	m, err := NewIDMap(ids, indices)
	if err != nil {
		return nil, err
	}
	return &Catalog{items: items, ids: m}, nil
}

// Len 返回商品数。
func (c *Catalog) Len() int { return len(c.items) }

// Get 按商品 ID 查找。
func (c *Catalog) Get(id int64) (core.Item, bool) {
	idx, ok := c.ids.Index(id)
	if !ok {
		return core.Item{}, false
	}
	return c.items[idx], true
}

// Contains 判断商品是否在目录中。
func (c *Catalog) Contains(id int64) bool {
	_, ok := c.ids.Index(id)
	return ok
}

// IDs 返回 ID 映射。
func (c *Catalog) IDs() *IDMap { return c.ids }

// Head 按表顺序返回前 n 个商品 ID。
func (c *Catalog) Head(n int) []int64 {
	if n > len(c.items) {
		n = len(c.items)
	}
	if n <= 0 {
		return []int64{}
	}
	out := make([]int64, n)
	for i := 0; i < n; i++ {
		out[i] = c.items[i].ID
	}
	return out
}

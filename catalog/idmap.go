package catalog

import "github.com/rushteam/hybridrec/core"

// IDMap 是商品 ID 与稠密下标之间的双向映射，构建后不可变。
// 构建时校验为双射：ID 与下标均不允许重复。
type IDMap struct {
	toIndex map[int64]int
	toID    map[int]int64
}

// NewIDMap 以两个平行切片构建映射：ids[i] <-> indices[i]。
func NewIDMap(ids []int64, indices []int) (*IDMap, error) {
	if len(ids) != len(indices) {
		return nil, core.Errorf(core.ModuleCatalog, core.ErrorCodeInvalidInput,
			"catalog: ids and indices length mismatch (%d != %d)", len(ids), len(indices))
	}
	m := &IDMap{
		toIndex: make(map[int64]int, len(ids)),
		toID:    make(map[int]int64, len(ids)),
	}
	for i, id := range ids {
		idx := indices[i]
		if idx < 0 {
			return nil, core.Errorf(core.ModuleCatalog, core.ErrorCodeInvalidInput,
				"catalog: negative dense index %d for item %d", idx, id)
		}
		if _, dup := m.toIndex[id]; dup {
			return nil, core.Errorf(core.ModuleCatalog, core.ErrorCodeInvalidInput,
				"catalog: duplicate item id %d", id)
		}
		if _, dup := m.toID[idx]; dup {
			return nil, core.Errorf(core.ModuleCatalog, core.ErrorCodeInvalidInput,
				"catalog: duplicate dense index %d", idx)
		}
		m.toIndex[id] = idx
		m.toID[idx] = id
	}
	return m, nil
}

// Index 返回商品 ID 对应的稠密下标。
func (m *IDMap) Index(id int64) (int, bool) {
	idx, ok := m.toIndex[id]
	return idx, ok
}

// ID 返回稠密下标对应的商品 ID。
func (m *IDMap) ID(idx int) (int64, bool) {
	id, ok := m.toID[idx]
	return id, ok
}

// Len 返回映射条目数。
func (m *IDMap) Len() int { return len(m.toIndex) }

package compiler

import (
	"github.com/emirpasic/gods/maps/linkedhashmap"
)

// pool is a deduplicating constant pool. Constants are keyed by their literal
// text and keep their insertion order, which is their index.
type pool struct {
	name    string
	entries *linkedhashmap.Map // literal → poolEntry
}

type poolEntry struct {
	index int
	value interface{}
}

func newPool(name string) *pool {
	return &pool{name: name, entries: linkedhashmap.New()}
}

// insert returns the index of literal, adding value if the literal is new.
func (p *pool) insert(literal string, value interface{}) int {
	if e, found := p.entries.Get(literal); found {
		return e.(poolEntry).index
	}
	index := p.entries.Size()
	p.entries.Put(literal, poolEntry{index: index, value: value})
	tracer().Debugf("%s pool: %q → #%d", p.name, literal, index)
	return index
}

func (p *pool) size() int {
	return p.entries.Size()
}

func (p *pool) numbers() []float64 {
	values := p.entries.Values()
	nums := make([]float64, len(values))
	for i, v := range values {
		nums[i] = v.(poolEntry).value.(float64)
	}
	return nums
}

func (p *pool) texts() []string {
	values := p.entries.Values()
	texts := make([]string, len(values))
	for i, v := range values {
		texts[i] = v.(poolEntry).value.(string)
	}
	return texts
}

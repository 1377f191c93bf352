// Copyright 2020-2021 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package plan

import (
	"container/list"
	"sync"

	"github.com/mitchellh/hashstructure"

	"github.com/4store/qcore/blocktree"
)

// Cache is a per-process LRU of compiled plans keyed by a structural hash
// of the block tree (spec SPEC_FULL §C.1): a doubly-linked list plus a map,
// evicting the least-recently-used entry once Cap is exceeded.
type Cache struct {
	mu  sync.Mutex
	cap int
	ll  *list.List
	idx map[uint64]*list.Element
}

type cacheEntry struct {
	key   uint64
	value *blocktree.Tree
}

// NewCache builds a plan cache holding at most capacity compiled trees.
func NewCache(capacity int) *Cache {
	return &Cache{cap: capacity, ll: list.New(), idx: make(map[uint64]*list.Element)}
}

// Key derives the cache key for a parsed block tree via hashstructure,
// matching spec's bind-cache approach of hashing structural call keys
// (§4.5) but here applied to whole compiled plans.
func Key(tree *blocktree.Tree) (uint64, error) {
	return hashstructure.Hash(tree, nil)
}

// Get returns the cached tree for key, if present, promoting it to
// most-recently-used.
func (c *Cache) Get(key uint64) (*blocktree.Tree, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.idx[key]
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*cacheEntry).value, true
}

// Put inserts tree under key, evicting the LRU entry if the cache is full.
func (c *Cache) Put(key uint64, tree *blocktree.Tree) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.idx[key]; ok {
		el.Value.(*cacheEntry).value = tree
		c.ll.MoveToFront(el)
		return
	}
	el := c.ll.PushFront(&cacheEntry{key: key, value: tree})
	c.idx[key] = el
	if c.ll.Len() > c.cap {
		oldest := c.ll.Back()
		if oldest != nil {
			c.ll.Remove(oldest)
			delete(c.idx, oldest.Value.(*cacheEntry).key)
		}
	}
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

package core

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

type referenceCache struct {
	pool  *pgxpool.Pool
	mu    sync.RWMutex
	items map[RefKind]map[string]RefItem
}

// NewReferenceData loads reference_items into memory and returns the cache.
func NewReferenceData(ctx context.Context, pool *pgxpool.Pool) (ReferenceData, error) {
	c := &referenceCache{pool: pool}
	if err := c.Refresh(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// NewStaticReferenceData builds an in-memory provider from fixed items. Refresh is a no-op.
func NewStaticReferenceData(items []RefItem) ReferenceData {
	c := &referenceCache{}
	c.items = index(items)
	return c
}

func index(items []RefItem) map[RefKind]map[string]RefItem {
	out := make(map[RefKind]map[string]RefItem)
	for _, it := range items {
		if out[it.Kind] == nil {
			out[it.Kind] = make(map[string]RefItem)
		}
		out[it.Kind][it.Code] = it
	}
	return out
}

func (c *referenceCache) Lookup(kind RefKind, code string) (RefItem, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	it, ok := c.items[kind][code]
	if !ok {
		return RefItem{}, ReferenceError(kind, code)
	}
	return it, nil
}

func (c *referenceCache) List(kind RefKind) []RefItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]RefItem, 0, len(c.items[kind]))
	for _, it := range c.items[kind] {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func (c *referenceCache) Refresh(ctx context.Context) error {
	if c.pool == nil {
		return nil
	}
	rows, err := c.pool.Query(ctx, "SELECT kind, code, name FROM reference_items ORDER BY kind, code")
	if err != nil {
		return fmt.Errorf("load reference data: %w", err)
	}
	defer rows.Close()

	var items []RefItem
	for rows.Next() {
		var it RefItem
		if err := rows.Scan(&it.Kind, &it.Code, &it.Name); err != nil {
			return fmt.Errorf("scan reference item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load reference data: %w", err)
	}

	snapshot := index(items)
	c.mu.Lock()
	c.items = snapshot
	c.mu.Unlock()
	return nil
}

// lookupOptional resolves code only when it is non-nil and non-empty.
func lookupOptional(ref ReferenceData, kind RefKind, code *string) error {
	if code == nil || *code == "" {
		return nil
	}
	_, err := ref.Lookup(kind, *code)
	return err
}

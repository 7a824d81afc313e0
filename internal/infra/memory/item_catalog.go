package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"streak-quiz-service/internal/domain"
)

// ItemLoader fetches the item dataset from a backing store (Postgres, static
// files, ...).
type ItemLoader interface {
	LoadItems(ctx context.Context) ([]domain.Item, error)
}

// ItemCatalog caches the loaded dataset with a TTL so session startup does not
// hammer the backing store.
type ItemCatalog struct {
	loader ItemLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	items     []domain.Item
	expiresAt time.Time
}

func NewItemCatalog(loader ItemLoader, ttl time.Duration) *ItemCatalog {
	return &ItemCatalog{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *ItemCatalog) GetItems(ctx context.Context) ([]domain.Item, error) {
	now := c.clock()

	c.mu.RLock()
	if c.items != nil && c.expiresAt.After(now) {
		items := c.items
		c.mu.RUnlock()
		return items, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do("items", func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if c.items != nil && c.expiresAt.After(now) {
			items := c.items
			c.mu.RUnlock()
			return items, nil
		}
		c.mu.RUnlock()

		items, err := c.loader.LoadItems(ctx)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			return nil, domain.ErrNoItems
		}

		c.mu.Lock()
		c.items = items
		c.expiresAt = now.Add(c.ttlWithJitter())
		c.mu.Unlock()
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Item), nil
}

// StaticItemLoader serves a fixed slice (tests, demos, the no-database
// fallback).
type StaticItemLoader struct {
	items []domain.Item
}

func NewStaticItemLoader(items []domain.Item) *StaticItemLoader {
	return &StaticItemLoader{items: items}
}

func (l *StaticItemLoader) LoadItems(_ context.Context) ([]domain.Item, error) {
	if len(l.items) == 0 {
		return nil, domain.ErrNoItems
	}
	return l.items, nil
}

func (c *ItemCatalog) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

package repo

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"ivr-attendant-service/internal/menu"
)

// MenuCache is a read-through cache in front of the menu table. Call handling
// loads the same few menus for every inbound call, so lookups are served from
// memory and invalidated when an administrator saves or deletes a menu.
type MenuCache struct {
	repo  *Repo
	cache *lru.Cache[string, *menu.Definition]
}

// NewMenuCache builds a cache holding up to size definitions.
func NewMenuCache(repo *Repo, size int) (*MenuCache, error) {
	if size < 1 {
		size = 256
	}
	c, err := lru.New[string, *menu.Definition](size)
	if err != nil {
		return nil, err
	}
	return &MenuCache{repo: repo, cache: c}, nil
}

// LoadMenu returns a caller-owned copy of the definition. The cached value is
// never handed out directly so a session's snapshot cannot alias the cache.
func (c *MenuCache) LoadMenu(ctx context.Context, id string) (*menu.Definition, error) {
	if def, ok := c.cache.Get(id); ok {
		return def.Clone(), nil
	}
	def, err := c.repo.GetMenu(ctx, id)
	if err != nil {
		return nil, err
	}
	c.cache.Add(id, def)
	return def.Clone(), nil
}

// Invalidate drops one menu from the cache. In-flight sessions keep the
// snapshot they entered with.
func (c *MenuCache) Invalidate(id string) {
	c.cache.Remove(id)
}

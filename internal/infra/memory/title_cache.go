package memory

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"framequiz-service/internal/app"
	"framequiz-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// TitleCache caches title metadata and frame lists in-process with a TTL to
// avoid hammering the catalog during game builds. Searches pass through
// uncached; their results are pool queries that change with the filters.
type TitleCache struct {
	upstream app.TitleCatalog
	ttl      time.Duration
	clock    func() time.Time
	sf       singleflight.Group
	rnd      *rand.Rand

	mu     sync.RWMutex
	titles map[string]cachedTitle
	frames map[string]cachedFrames
}

type cachedTitle struct {
	title     domain.Title
	expiresAt time.Time
}

type cachedFrames struct {
	frames    []string
	expiresAt time.Time
}

func NewTitleCache(upstream app.TitleCatalog, ttl time.Duration) *TitleCache {
	return &TitleCache{
		upstream: upstream,
		ttl:      ttl,
		clock:    time.Now,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
		titles:   make(map[string]cachedTitle),
		frames:   make(map[string]cachedFrames),
	}
}

func (c *TitleCache) GetTitle(ctx context.Context, id int64, mediaType string) (domain.Title, error) {
	key := cacheKey("title", id, mediaType)
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.titles[key]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.title, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.titles[key]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.title, nil
		}
		c.mu.RUnlock()

		title, err := c.upstream.GetTitle(ctx, id, mediaType)
		if err != nil {
			return domain.Title{}, err
		}

		c.mu.Lock()
		c.titles[key] = cachedTitle{title: title, expiresAt: now.Add(c.ttlWithJitter())}
		c.mu.Unlock()
		return title, nil
	})
	if err != nil {
		return domain.Title{}, err
	}
	return result.(domain.Title), nil
}

func (c *TitleCache) GetFrames(ctx context.Context, id int64, mediaType string) ([]string, error) {
	key := cacheKey("frames", id, mediaType)
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.frames[key]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return append([]string(nil), entry.frames...), nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.frames[key]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.frames, nil
		}
		c.mu.RUnlock()

		frames, err := c.upstream.GetFrames(ctx, id, mediaType)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.frames[key] = cachedFrames{frames: frames, expiresAt: now.Add(c.ttlWithJitter())}
		c.mu.Unlock()
		return frames, nil
	})
	if err != nil {
		return nil, err
	}
	frames := result.([]string)
	return append([]string(nil), frames...), nil
}

func (c *TitleCache) SearchTitles(ctx context.Context, q domain.TitleQuery) ([]domain.Title, error) {
	return c.upstream.SearchTitles(ctx, q)
}

func cacheKey(kind string, id int64, mediaType string) string {
	if mediaType == "" {
		mediaType = "movie"
	}
	return kind + ":" + mediaType + ":" + strconv.FormatInt(id, 10)
}

func (c *TitleCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"strconv"
	"time"

	"framequiz-service/internal/app"
	"framequiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// TitleCache caches catalog responses in Redis so game builds across
// instances share one copy of title metadata and frame lists.
// Keys: title:{type}:{id} and frames:{type}:{id}, JSON values with TTL.
// Searches are not cached; each tier query is filter-specific.
type TitleCache struct {
	client   *redis.Client
	upstream app.TitleCatalog
	ttl      time.Duration
	sf       singleflight.Group
	rnd      *rand.Rand
}

func NewTitleCache(client *redis.Client, upstream app.TitleCatalog, ttl time.Duration) *TitleCache {
	return &TitleCache{
		client:   client,
		upstream: upstream,
		ttl:      ttl,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *TitleCache) GetTitle(ctx context.Context, id int64, mediaType string) (domain.Title, error) {
	key := titleKey(id, mediaType)

	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var title domain.Title
		if err := json.Unmarshal(raw, &title); err == nil {
			return title, nil
		}
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
			var title domain.Title
			if err := json.Unmarshal(raw, &title); err == nil {
				return title, nil
			}
		}

		title, err := c.upstream.GetTitle(ctx, id, mediaType)
		if err != nil {
			return domain.Title{}, err
		}
		c.store(ctx, key, title)
		return title, nil
	})
	if err != nil {
		return domain.Title{}, err
	}
	return result.(domain.Title), nil
}

func (c *TitleCache) GetFrames(ctx context.Context, id int64, mediaType string) ([]string, error) {
	key := framesKey(id, mediaType)

	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var frames []string
		if err := json.Unmarshal(raw, &frames); err == nil {
			return frames, nil
		}
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
			var frames []string
			if err := json.Unmarshal(raw, &frames); err == nil {
				return frames, nil
			}
		}

		frames, err := c.upstream.GetFrames(ctx, id, mediaType)
		if err != nil {
			return nil, err
		}
		if frames == nil {
			frames = []string{}
		}
		c.store(ctx, key, frames)
		return frames, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]string), nil
}

func (c *TitleCache) SearchTitles(ctx context.Context, q domain.TitleQuery) ([]domain.Title, error) {
	return c.upstream.SearchTitles(ctx, q)
}

// store writes best-effort; a failed cache fill never fails the lookup.
func (c *TitleCache) store(ctx context.Context, key string, value interface{}) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err()
}

func titleKey(id int64, mediaType string) string {
	return "title:" + normalizeType(mediaType) + ":" + strconv.FormatInt(id, 10)
}

func framesKey(id int64, mediaType string) string {
	return "frames:" + normalizeType(mediaType) + ":" + strconv.FormatInt(id, 10)
}

func normalizeType(mediaType string) string {
	if mediaType == "" {
		return "movie"
	}
	return mediaType
}

func (c *TitleCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

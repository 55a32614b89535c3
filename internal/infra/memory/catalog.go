package memory

import (
	"context"
	"sort"

	"framequiz-service/internal/domain"
)

// StaticCatalog is a fixture-backed app.TitleCatalog (useful for tests and
// the no-catalog demo mode). Search ranks by vote count the way tmdb-sync
// does.
type StaticCatalog struct {
	titles map[int64]domain.Title
	order  []int64
	frames map[int64][]string
}

func NewStaticCatalog(titles []domain.Title, frames map[int64][]string) *StaticCatalog {
	c := &StaticCatalog{
		titles: make(map[int64]domain.Title, len(titles)),
		frames: frames,
	}
	for _, t := range titles {
		c.titles[t.ID] = t
		c.order = append(c.order, t.ID)
	}
	return c
}

func (c *StaticCatalog) GetTitle(_ context.Context, id int64, mediaType string) (domain.Title, error) {
	t, ok := c.titles[id]
	if !ok || (mediaType != "" && t.MediaType != "" && t.MediaType != mediaType) {
		return domain.Title{}, domain.ErrTitleNotFound
	}
	return t, nil
}

func (c *StaticCatalog) GetFrames(_ context.Context, id int64, _ string) ([]string, error) {
	return append([]string(nil), c.frames[id]...), nil
}

func (c *StaticCatalog) SearchTitles(_ context.Context, q domain.TitleQuery) ([]domain.Title, error) {
	matched := make([]domain.Title, 0, len(c.order))
	for _, id := range c.order {
		t := c.titles[id]
		if q.MediaType != "" && t.MediaType != "" && t.MediaType != q.MediaType {
			continue
		}
		if q.GenreID != 0 && !hasGenre(t, q.GenreID) {
			continue
		}
		if q.YearFrom != 0 && t.Year() < q.YearFrom {
			continue
		}
		if q.YearTo != 0 && t.Year() > q.YearTo {
			continue
		}
		matched = append(matched, t)
	}

	asc := q.Order == "asc"
	sort.SliceStable(matched, func(i, j int) bool {
		if asc {
			return matched[i].VoteCount < matched[j].VoteCount
		}
		return matched[i].VoteCount > matched[j].VoteCount
	})

	if q.Skip > 0 {
		if q.Skip >= len(matched) {
			return nil, nil
		}
		matched = matched[q.Skip:]
	}
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

func hasGenre(t domain.Title, genreID int64) bool {
	for _, g := range t.GenreIDs {
		if g == genreID {
			return true
		}
	}
	return false
}

// StaticItemSource serves collection version contents from a fixed map.
type StaticItemSource struct {
	versions map[int64][]domain.Item
}

func NewStaticItemSource(versions map[int64][]domain.Item) *StaticItemSource {
	return &StaticItemSource{versions: versions}
}

func (s *StaticItemSource) ListItems(_ context.Context, versionID int64) ([]domain.Item, error) {
	items, ok := s.versions[versionID]
	if !ok {
		return nil, domain.ErrVersionNotFound
	}
	return append([]domain.Item(nil), items...), nil
}

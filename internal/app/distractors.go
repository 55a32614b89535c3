package app

import (
	"context"
	"math/rand"

	"framequiz-service/internal/domain"
)

// searchPoolSize bounds each tier's candidate query.
const searchPoolSize = 50

// selectDistractors picks up to need titles that can pass as wrong answers
// for correct. Tiers are tried in order of decreasing similarity:
//
//  1. same primary genre and same decade
//  2. same primary genre
//  3. same decade
//  4. unrestricted, top-ranked by vote count
//
// The seen set accumulates across tiers so no candidate (and never the
// correct title) is returned twice. Fewer than need results means the
// catalog is exhausted; the caller skips the round.
func selectDistractors(ctx context.Context, catalog TitleCatalog, correct domain.Title, need int, rng *rand.Rand) []domain.Title {
	genre := correct.MainGenre()
	decade := 0
	if year := correct.Year(); year > 0 {
		decade = year / 10 * 10
	}
	mediaType := correct.MediaType
	if mediaType == "" {
		mediaType = "movie"
	}

	var tiers []domain.TitleQuery
	if genre != 0 && decade != 0 {
		tiers = append(tiers, domain.TitleQuery{GenreID: genre, YearFrom: decade, YearTo: decade + 9})
	}
	if genre != 0 {
		tiers = append(tiers, domain.TitleQuery{GenreID: genre})
	}
	if decade != 0 {
		tiers = append(tiers, domain.TitleQuery{YearFrom: decade, YearTo: decade + 9})
	}
	tiers = append(tiers, domain.TitleQuery{})

	seen := map[int64]bool{correct.ID: true}
	picked := make([]domain.Title, 0, need)

	for _, q := range tiers {
		q.MediaType = mediaType
		q.SortBy = "vote_count"
		q.Order = "desc"
		q.Limit = searchPoolSize

		found, err := catalog.SearchTitles(ctx, q)
		if err != nil {
			// Tier unavailable; fall through to the next one.
			continue
		}

		candidates := make([]domain.Title, 0, len(found))
		for _, t := range found {
			if !seen[t.ID] {
				candidates = append(candidates, t)
			}
		}
		rng.Shuffle(len(candidates), func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})

		for _, t := range candidates {
			picked = append(picked, t)
			seen[t.ID] = true
			if len(picked) >= need {
				return picked
			}
		}
	}

	return picked
}

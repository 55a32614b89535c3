package app

import (
	"context"
	"log"
	"math/rand"

	"framequiz-service/internal/domain"
)

const (
	// defaultMaxRounds caps a game when the caller does not ask for a count.
	defaultMaxRounds = 100
	// distractorsPerRound fixes rounds at exactly four options.
	distractorsPerRound = 3
)

// CreateGameParams describes a game build request. TotalRounds <= 0 selects
// min(defaultMaxRounds, item count); a nil Seed derives one from the clock.
type CreateGameParams struct {
	VersionID   int64
	Mode        domain.Mode
	TotalRounds int
	Seed        *int64
}

// CreateGame materializes a new game from a collection version: the first N
// items in list order each become a round unless the catalog cannot supply
// metadata, frames, or enough distractors for them. The produced game and
// its rounds are persisted as one unit.
func (s *GameService) CreateGame(ctx context.Context, p CreateGameParams) (domain.Game, error) {
	items, err := s.items.ListItems(ctx, p.VersionID)
	if err != nil {
		return domain.Game{}, err
	}
	if len(items) == 0 {
		return domain.Game{}, domain.ErrVersionEmpty
	}

	n := p.TotalRounds
	if n <= 0 {
		n = defaultMaxRounds
	}
	if n > len(items) {
		n = len(items)
	}

	seed := int64(0)
	if p.Seed != nil {
		seed = *p.Seed
	} else {
		seed = s.clock().Unix()
	}
	// One random source for the whole build, consumed strictly in ordinal
	// order. Item selection itself is list order, untouched by the seed.
	rng := rand.New(rand.NewSource(seed))

	rounds := make([]domain.Round, 0, n)
	for _, item := range items[:n] {
		res := s.buildRound(ctx, item, p.Mode, rng)
		if res.round == nil {
			log.Printf("game build: skip item ord=%d title=%d: %s", item.Ord, item.TitleID, res.skipped)
			continue
		}
		round := *res.round
		round.Ord = len(rounds) + 1
		rounds = append(rounds, round)
	}
	if len(rounds) == 0 {
		return domain.Game{}, domain.ErrNoRoundsProducible
	}

	game := domain.Game{
		VersionID:   p.VersionID,
		Mode:        p.Mode,
		TotalRounds: len(rounds),
		Seed:        seed,
		Score:       0,
		CreatedAt:   s.clock(),
	}
	return s.games.CreateGame(ctx, game, rounds)
}

// roundResult makes the per-item skip policy an explicit branch: either a
// round or the reason the item was dropped.
type roundResult struct {
	round   *domain.Round
	skipped string
}

func skip(reason string) roundResult {
	return roundResult{skipped: reason}
}

func (s *GameService) buildRound(ctx context.Context, item domain.Item, mode domain.Mode, rng *rand.Rand) roundResult {
	correct, err := s.catalog.GetTitle(ctx, item.TitleID, item.MediaType)
	if err != nil {
		return skip("no metadata: " + err.Error())
	}

	frames, err := s.catalog.GetFrames(ctx, item.TitleID, item.MediaType)
	if err != nil {
		return skip("frames unavailable: " + err.Error())
	}
	picked := pickFrames(frames, mode, rng)
	if len(picked) == 0 {
		return skip("no frames")
	}

	distractors := selectDistractors(ctx, s.catalog, correct, distractorsPerRound, rng)
	if len(distractors) < distractorsPerRound {
		return skip("insufficient distractors")
	}

	options, correctIndex := assembleOptions(correct, distractors, rng)

	return roundResult{round: &domain.Round{
		CorrectID:    item.TitleID,
		MediaType:    item.MediaType,
		FramePaths:   picked,
		Options:      options,
		CorrectIndex: correctIndex,
	}}
}

package app

import (
	"context"
	"time"

	"framequiz-service/internal/domain"
)

// TitleCatalog is the external title metadata service (tmdb-sync). Calls may
// be slow or fail; the builder treats failures as "no data for this item".
type TitleCatalog interface {
	GetTitle(ctx context.Context, id int64, mediaType string) (domain.Title, error)
	GetFrames(ctx context.Context, id int64, mediaType string) ([]string, error)
	SearchTitles(ctx context.Context, q domain.TitleQuery) ([]domain.Title, error)
}

// ItemSource reads the ordered item list of a collection version.
type ItemSource interface {
	ListItems(ctx context.Context, versionID int64) ([]domain.Item, error)
}

// AnswerMutation is the state transition MutateRound applies to an
// unanswered round: the answer fields, the score delta implied by IsCorrect,
// and optionally the game's completion stamp.
type AnswerMutation struct {
	AnsweredIndex int
	IsCorrect     bool
	AnsweredAt    time.Time
	FinishGame    bool
}

// AnswerFunc decides the mutation for a round. It runs under the game's
// mutual exclusion with the current game, round, and the count of rounds
// still unanswered (including this one). Returning nil applies nothing.
type AnswerFunc func(game domain.Game, round domain.Round, unanswered int) (*AnswerMutation, error)

// GameRepository persists games and their rounds.
//
// CreateGame stores the game and all rounds as one atomic unit; no reader
// may observe the game before its round set is complete. MutateRound
// serializes per game: it loads state, invokes fn, and applies the returned
// mutation (round fields, score, completion time) atomically.
type GameRepository interface {
	CreateGame(ctx context.Context, game domain.Game, rounds []domain.Round) (domain.Game, error)
	GetGame(ctx context.Context, gameID int64) (domain.Game, error)
	GetRound(ctx context.Context, gameID int64, ord int) (domain.Round, error)
	ListRounds(ctx context.Context, gameID int64) ([]domain.Round, error)
	MutateRound(ctx context.Context, gameID int64, ord int, fn AnswerFunc) (domain.Game, domain.Round, error)
}

// GameService contains the core game use cases.
type GameService struct {
	games   GameRepository
	items   ItemSource
	catalog TitleCatalog
	clock   func() time.Time
}

func NewGameService(games GameRepository, items ItemSource, catalog TitleCatalog) *GameService {
	return NewGameServiceWithClock(games, items, catalog, time.Now)
}

// NewGameServiceWithClock is test-only for deterministic timestamps.
func NewGameServiceWithClock(games GameRepository, items ItemSource, catalog TitleCatalog, now func() time.Time) *GameService {
	return &GameService{games: games, items: items, catalog: catalog, clock: now}
}

// GameState reports a game's progress. Answered/correct counts are
// recomputed from the persisted rounds on every read.
func (s *GameService) GameState(ctx context.Context, gameID int64) (domain.GameState, error) {
	game, err := s.games.GetGame(ctx, gameID)
	if err != nil {
		return domain.GameState{}, err
	}
	rounds, err := s.games.ListRounds(ctx, gameID)
	if err != nil {
		return domain.GameState{}, err
	}

	answered, correct := 0, 0
	for _, r := range rounds {
		if r.Answered() {
			answered++
		}
		if r.IsCorrect != nil && *r.IsCorrect {
			correct++
		}
	}

	return domain.GameState{
		ID:          game.ID,
		VersionID:   game.VersionID,
		Mode:        game.Mode,
		TotalRounds: game.TotalRounds,
		Answered:    answered,
		Correct:     correct,
		Score:       game.Score,
		Finished:    game.Finished(),
	}, nil
}

// GetRound returns a round together with its parent game. Callers shaping
// responses must not reveal CorrectIndex before the round is answered.
func (s *GameService) GetRound(ctx context.Context, gameID int64, ord int) (domain.Game, domain.Round, error) {
	game, err := s.games.GetGame(ctx, gameID)
	if err != nil {
		return domain.Game{}, domain.Round{}, err
	}
	round, err := s.games.GetRound(ctx, gameID, ord)
	if err != nil {
		return domain.Game{}, domain.Round{}, err
	}
	return game, round, nil
}

package memory

import (
	"context"
	"sync"

	"framequiz-service/internal/app"
	"framequiz-service/internal/domain"
)

// GameRepository is an in-memory implementation of app.GameRepository.
// Each game record carries its own mutex so answer submissions serialize
// per game without blocking unrelated games.
type GameRepository struct {
	mu     sync.RWMutex
	nextID int64
	games  map[int64]*gameRecord
}

type gameRecord struct {
	mu     sync.Mutex
	game   domain.Game
	rounds []domain.Round // index ord-1
}

func NewGameRepository() *GameRepository {
	return &GameRepository{games: make(map[int64]*gameRecord)}
}

func (r *GameRepository) CreateGame(_ context.Context, game domain.Game, rounds []domain.Round) (domain.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	game.ID = r.nextID

	stored := make([]domain.Round, len(rounds))
	for i, round := range rounds {
		round.GameID = game.ID
		stored[i] = copyRound(round)
	}
	r.games[game.ID] = &gameRecord{game: game, rounds: stored}
	return game, nil
}

func (r *GameRepository) GetGame(_ context.Context, gameID int64) (domain.Game, error) {
	rec, ok := r.record(gameID)
	if !ok {
		return domain.Game{}, domain.ErrGameNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.game, nil
}

func (r *GameRepository) GetRound(_ context.Context, gameID int64, ord int) (domain.Round, error) {
	rec, ok := r.record(gameID)
	if !ok {
		return domain.Round{}, domain.ErrGameNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if ord < 1 || ord > len(rec.rounds) {
		return domain.Round{}, domain.ErrRoundNotFound
	}
	return copyRound(rec.rounds[ord-1]), nil
}

func (r *GameRepository) ListRounds(_ context.Context, gameID int64) ([]domain.Round, error) {
	rec, ok := r.record(gameID)
	if !ok {
		return nil, domain.ErrGameNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rounds := make([]domain.Round, len(rec.rounds))
	for i, round := range rec.rounds {
		rounds[i] = copyRound(round)
	}
	return rounds, nil
}

func (r *GameRepository) MutateRound(_ context.Context, gameID int64, ord int, fn app.AnswerFunc) (domain.Game, domain.Round, error) {
	rec, ok := r.record(gameID)
	if !ok {
		return domain.Game{}, domain.Round{}, domain.ErrGameNotFound
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if ord < 1 || ord > len(rec.rounds) {
		return domain.Game{}, domain.Round{}, domain.ErrRoundNotFound
	}
	round := &rec.rounds[ord-1]

	unanswered := 0
	for i := range rec.rounds {
		if !rec.rounds[i].Answered() {
			unanswered++
		}
	}

	mutation, err := fn(rec.game, copyRound(*round), unanswered)
	if err != nil {
		return domain.Game{}, domain.Round{}, err
	}
	if mutation != nil {
		idx := mutation.AnsweredIndex
		correct := mutation.IsCorrect
		answeredAt := mutation.AnsweredAt
		round.AnsweredIndex = &idx
		round.IsCorrect = &correct
		round.AnsweredAt = &answeredAt
		if correct {
			rec.game.Score++
		}
		if mutation.FinishGame {
			finishedAt := answeredAt
			rec.game.FinishedAt = &finishedAt
		}
	}
	return rec.game, copyRound(*round), nil
}

func (r *GameRepository) record(gameID int64) (*gameRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.games[gameID]
	return rec, ok
}

func copyRound(round domain.Round) domain.Round {
	round.FramePaths = append([]string(nil), round.FramePaths...)
	round.Options = append([]domain.Option(nil), round.Options...)
	if round.AnsweredIndex != nil {
		idx := *round.AnsweredIndex
		round.AnsweredIndex = &idx
	}
	if round.IsCorrect != nil {
		correct := *round.IsCorrect
		round.IsCorrect = &correct
	}
	if round.AnsweredAt != nil {
		at := *round.AnsweredAt
		round.AnsweredAt = &at
	}
	return round
}

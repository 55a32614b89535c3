package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"framequiz-service/internal/app"
	"framequiz-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// GameRepository persists games and rounds in Postgres. Frame refs and
// options are stored as JSONB per round; the answer path runs inside a
// transaction that locks the game row, so submissions for the same game
// serialize and the score/completion updates are never torn.
type GameRepository struct {
	pool *pgxpool.Pool
}

func NewGameRepository(pool *pgxpool.Pool) *GameRepository {
	return &GameRepository{pool: pool}
}

const gameColumns = `id, version_id, mode, total_rounds, seed, score, created_at, finished_at`
const roundColumns = `game_id, ord, correct_tmdb_id, media_type, frame_paths, options, correct_index, answered_index, is_correct, answered_at`

func (r *GameRepository) CreateGame(ctx context.Context, game domain.Game, rounds []domain.Round) (domain.Game, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Game{}, fmt.Errorf("begin create game: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO games (version_id, mode, total_rounds, seed, score, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		game.VersionID, string(game.Mode), game.TotalRounds, game.Seed, game.Score, game.CreatedAt,
	).Scan(&game.ID)
	if err != nil {
		return domain.Game{}, fmt.Errorf("insert game: %w", err)
	}

	for _, round := range rounds {
		frames, err := json.Marshal(round.FramePaths)
		if err != nil {
			return domain.Game{}, fmt.Errorf("marshal frames: %w", err)
		}
		options, err := json.Marshal(round.Options)
		if err != nil {
			return domain.Game{}, fmt.Errorf("marshal options: %w", err)
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO game_rounds (game_id, ord, correct_tmdb_id, media_type, frame_paths, options, correct_index)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			game.ID, round.Ord, round.CorrectID, round.MediaType, frames, options, round.CorrectIndex,
		)
		if err != nil {
			return domain.Game{}, fmt.Errorf("insert round %d: %w", round.Ord, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Game{}, fmt.Errorf("commit create game: %w", err)
	}
	return game, nil
}

func (r *GameRepository) GetGame(ctx context.Context, gameID int64) (domain.Game, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+gameColumns+` FROM games WHERE id=$1`, gameID)
	return scanGame(row)
}

func (r *GameRepository) GetRound(ctx context.Context, gameID int64, ord int) (domain.Round, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+roundColumns+` FROM game_rounds WHERE game_id=$1 AND ord=$2`, gameID, ord)
	round, err := scanRound(row)
	if errors.Is(err, domain.ErrRoundNotFound) {
		// Distinguish a missing game from a missing ordinal.
		if _, gerr := r.GetGame(ctx, gameID); gerr != nil {
			return domain.Round{}, gerr
		}
	}
	return round, err
}

func (r *GameRepository) ListRounds(ctx context.Context, gameID int64) ([]domain.Round, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+roundColumns+` FROM game_rounds WHERE game_id=$1 ORDER BY ord`, gameID)
	if err != nil {
		return nil, fmt.Errorf("list rounds: %w", err)
	}
	defer rows.Close()

	var rounds []domain.Round
	for rows.Next() {
		round, err := scanRound(rows)
		if err != nil {
			return nil, err
		}
		rounds = append(rounds, round)
	}
	return rounds, rows.Err()
}

func (r *GameRepository) MutateRound(ctx context.Context, gameID int64, ord int, fn app.AnswerFunc) (domain.Game, domain.Round, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Game{}, domain.Round{}, fmt.Errorf("begin answer: %w", err)
	}
	defer tx.Rollback(ctx)

	// The game row lock is the unit of mutual exclusion for answers.
	game, err := scanGame(tx.QueryRow(ctx, `SELECT `+gameColumns+` FROM games WHERE id=$1 FOR UPDATE`, gameID))
	if err != nil {
		return domain.Game{}, domain.Round{}, err
	}
	round, err := scanRound(tx.QueryRow(ctx,
		`SELECT `+roundColumns+` FROM game_rounds WHERE game_id=$1 AND ord=$2`, gameID, ord))
	if err != nil {
		return domain.Game{}, domain.Round{}, err
	}

	var unanswered int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM game_rounds WHERE game_id=$1 AND answered_index IS NULL`, gameID,
	).Scan(&unanswered)
	if err != nil {
		return domain.Game{}, domain.Round{}, fmt.Errorf("count unanswered: %w", err)
	}

	mutation, err := fn(game, round, unanswered)
	if err != nil {
		return domain.Game{}, domain.Round{}, err
	}
	if mutation == nil {
		return game, round, nil
	}

	_, err = tx.Exec(ctx,
		`UPDATE game_rounds SET answered_index=$1, is_correct=$2, answered_at=$3 WHERE game_id=$4 AND ord=$5`,
		mutation.AnsweredIndex, mutation.IsCorrect, mutation.AnsweredAt, gameID, ord)
	if err != nil {
		return domain.Game{}, domain.Round{}, fmt.Errorf("update round: %w", err)
	}

	if mutation.IsCorrect {
		game.Score++
	}
	if mutation.FinishGame {
		finishedAt := mutation.AnsweredAt
		game.FinishedAt = &finishedAt
	}
	_, err = tx.Exec(ctx,
		`UPDATE games SET score=$1, finished_at=$2 WHERE id=$3`,
		game.Score, game.FinishedAt, gameID)
	if err != nil {
		return domain.Game{}, domain.Round{}, fmt.Errorf("update game: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Game{}, domain.Round{}, fmt.Errorf("commit answer: %w", err)
	}

	idx := mutation.AnsweredIndex
	correct := mutation.IsCorrect
	answeredAt := mutation.AnsweredAt
	round.AnsweredIndex = &idx
	round.IsCorrect = &correct
	round.AnsweredAt = &answeredAt
	return game, round, nil
}

func scanGame(row pgx.Row) (domain.Game, error) {
	var game domain.Game
	var mode string
	var seed sql.NullInt64
	var finishedAt sql.NullTime
	err := row.Scan(&game.ID, &game.VersionID, &mode, &game.TotalRounds, &seed, &game.Score, &game.CreatedAt, &finishedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Game{}, domain.ErrGameNotFound
	}
	if err != nil {
		return domain.Game{}, fmt.Errorf("scan game: %w", err)
	}
	game.Mode = domain.Mode(mode)
	if seed.Valid {
		game.Seed = seed.Int64
	}
	if finishedAt.Valid {
		at := finishedAt.Time
		game.FinishedAt = &at
	}
	return game, nil
}

func scanRound(row pgx.Row) (domain.Round, error) {
	var round domain.Round
	var frames, options []byte
	var answeredIndex sql.NullInt32
	var isCorrect sql.NullBool
	var answeredAt sql.NullTime
	err := row.Scan(&round.GameID, &round.Ord, &round.CorrectID, &round.MediaType,
		&frames, &options, &round.CorrectIndex, &answeredIndex, &isCorrect, &answeredAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Round{}, domain.ErrRoundNotFound
	}
	if err != nil {
		return domain.Round{}, fmt.Errorf("scan round: %w", err)
	}
	if err := json.Unmarshal(frames, &round.FramePaths); err != nil {
		return domain.Round{}, fmt.Errorf("unmarshal frames: %w", err)
	}
	if err := json.Unmarshal(options, &round.Options); err != nil {
		return domain.Round{}, fmt.Errorf("unmarshal options: %w", err)
	}
	if answeredIndex.Valid {
		idx := int(answeredIndex.Int32)
		round.AnsweredIndex = &idx
	}
	if isCorrect.Valid {
		correct := isCorrect.Bool
		round.IsCorrect = &correct
	}
	if answeredAt.Valid {
		at := answeredAt.Time
		round.AnsweredAt = &at
	}
	return round, nil
}

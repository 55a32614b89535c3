package app

import (
	"context"

	"framequiz-service/internal/domain"
)

// SubmitAnswer records a player's answer to one round. The transition fires
// only on the round's first answer; replays return the recorded outcome
// unchanged with FinishedNow false, whatever index they carry. Round fields,
// score, and the completion stamp are applied as one atomic unit by the
// repository.
func (s *GameService) SubmitAnswer(ctx context.Context, gameID int64, ord, answerIndex int) (domain.AnswerResult, error) {
	finishedNow := false
	game, round, err := s.games.MutateRound(ctx, gameID, ord, func(g domain.Game, r domain.Round, unanswered int) (*AnswerMutation, error) {
		if r.Answered() {
			return nil, nil
		}
		if answerIndex < 0 || answerIndex >= len(r.Options) {
			return nil, domain.ErrAnswerOutOfRange
		}

		m := &AnswerMutation{
			AnsweredIndex: answerIndex,
			IsCorrect:     answerIndex == r.CorrectIndex,
			AnsweredAt:    s.clock(),
		}
		// unanswered counts this round, so 1 means it is the last one left.
		if unanswered == 1 && !g.Finished() {
			m.FinishGame = true
			finishedNow = true
		}
		return m, nil
	})
	if err != nil {
		return domain.AnswerResult{}, err
	}

	isCorrect := round.IsCorrect != nil && *round.IsCorrect
	return domain.AnswerResult{
		GameID:       gameID,
		Ord:          ord,
		IsCorrect:    isCorrect,
		CorrectIndex: round.CorrectIndex,
		Score:        game.Score,
		Finished:     game.Finished(),
		FinishedNow:  finishedNow,
	}, nil
}

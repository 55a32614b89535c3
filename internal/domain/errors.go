package domain

import "errors"

var (
	// ErrGameNotFound is returned when the referenced game does not exist.
	ErrGameNotFound = errors.New("game not found")
	// ErrRoundNotFound is returned when a game has no round with that ordinal.
	ErrRoundNotFound = errors.New("round not found")
	// ErrVersionNotFound indicates the source collection version does not exist.
	ErrVersionNotFound = errors.New("collection version not found")
	// ErrVersionEmpty indicates the version exists but has no items.
	ErrVersionEmpty = errors.New("collection version has no items")
	// ErrTitleNotFound indicates the catalog has no data for a title.
	ErrTitleNotFound = errors.New("title not found in catalog")
	// ErrAnswerOutOfRange rejects an answer index outside the option list.
	ErrAnswerOutOfRange = errors.New("answer index out of range")
	// ErrNoRoundsProducible indicates no item yielded a valid round.
	ErrNoRoundsProducible = errors.New("no rounds could be produced")
	// ErrInvalidMode rejects an unknown game mode.
	ErrInvalidMode = errors.New("invalid game mode")
)

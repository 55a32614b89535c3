package domain

import (
	"strconv"
	"time"
)

// Mode selects how a round is presented to the player.
type Mode string

const (
	// ModeOneFrameFourTitles shows a single frame and four title options.
	ModeOneFrameFourTitles Mode = "ONE_FRAME_FOUR_TITLES"
	// ModeFourFramesOneTitle shows up to four frames for one title.
	ModeFourFramesOneTitle Mode = "FOUR_FRAMES_ONE_TITLE"
)

// ParseMode validates a mode string; an empty string means the default mode.
func ParseMode(raw string) (Mode, error) {
	switch Mode(raw) {
	case "":
		return ModeOneFrameFourTitles, nil
	case ModeOneFrameFourTitles, ModeFourFramesOneTitle:
		return Mode(raw), nil
	}
	return "", ErrInvalidMode
}

// Item is one entry in a collection version's ordered list.
type Item struct {
	Ord       int
	TitleID   int64
	MediaType string
}

// Title is canonical catalog metadata for a movie or TV entry.
type Title struct {
	ID             int64   `json:"id"`
	Title          string  `json:"title"`
	TitleLocalized string  `json:"title_ru,omitempty"`
	ReleaseDate    string  `json:"release_date,omitempty"`
	GenreIDs       []int64 `json:"genre_ids,omitempty"`
	MediaType      string  `json:"_type,omitempty"`
	VoteCount      int     `json:"vote_count,omitempty"`
}

// Year extracts the release year, or 0 when the date is absent or malformed.
func (t Title) Year() int {
	if len(t.ReleaseDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(t.ReleaseDate[:4])
	if err != nil {
		return 0
	}
	return year
}

// MainGenre returns the primary genre tag, or 0 when the title has none.
func (t Title) MainGenre() int64 {
	if len(t.GenreIDs) == 0 {
		return 0
	}
	return t.GenreIDs[0]
}

// Option is one displayable answer choice within a round.
type Option struct {
	TitleID        int64  `json:"id"`
	Title          string `json:"title"`
	TitleLocalized string `json:"title_ru,omitempty"`
}

// Game is one play-through of a collection version.
type Game struct {
	ID          int64      `json:"id"`
	VersionID   int64      `json:"versionId"`
	Mode        Mode       `json:"mode"`
	TotalRounds int        `json:"totalRounds"`
	Seed        int64      `json:"seed"`
	Score       int        `json:"score"`
	CreatedAt   time.Time  `json:"createdAt"`
	FinishedAt  *time.Time `json:"finishedAt,omitempty"`
}

// Finished reports whether the game's completion time has been set.
func (g Game) Finished() bool {
	return g.FinishedAt != nil
}

// Round is one question within a game, keyed by (GameID, Ord) with ordinals
// starting at 1.
type Round struct {
	GameID        int64      `json:"gameId"`
	Ord           int        `json:"ord"`
	CorrectID     int64      `json:"correctId"`
	MediaType     string     `json:"mediaType"`
	FramePaths    []string   `json:"framePaths"`
	Options       []Option   `json:"options"`
	CorrectIndex  int        `json:"correctIndex"`
	AnsweredIndex *int       `json:"answeredIndex,omitempty"`
	IsCorrect     *bool      `json:"isCorrect,omitempty"`
	AnsweredAt    *time.Time `json:"answeredAt,omitempty"`
}

// Answered reports whether the round has received its first answer.
func (r Round) Answered() bool {
	return r.AnsweredIndex != nil
}

// GameState is the aggregate view of a game's progress, recomputed from its
// rounds rather than tracked incrementally.
type GameState struct {
	ID          int64 `json:"id"`
	VersionID   int64 `json:"versionId"`
	Mode        Mode  `json:"mode"`
	TotalRounds int   `json:"totalRounds"`
	Answered    int   `json:"answered"`
	Correct     int   `json:"correct"`
	Score       int   `json:"score"`
	Finished    bool  `json:"finished"`
}

// AnswerResult summarizes the outcome of an answer submission. Replayed
// submissions carry the originally recorded outcome with FinishedNow false.
type AnswerResult struct {
	GameID       int64 `json:"gameId"`
	Ord          int   `json:"ord"`
	IsCorrect    bool  `json:"isCorrect"`
	CorrectIndex int   `json:"correctIndex"`
	Score        int   `json:"score"`
	Finished     bool  `json:"finished"`
	FinishedNow  bool  `json:"finishedNow"`
}

// TitleQuery filters a ranked catalog search. Zero values mean "no filter".
type TitleQuery struct {
	GenreID   int64
	YearFrom  int
	YearTo    int
	MediaType string
	SortBy    string
	Order     string
	Limit     int
	Skip      int
}

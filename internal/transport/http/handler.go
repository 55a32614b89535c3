package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"framequiz-service/internal/app"
	"framequiz-service/internal/domain"
)

// Handler exposes the game use cases over REST.
type Handler struct {
	service *app.GameService
}

func NewHandler(service *app.GameService) *Handler {
	return &Handler{service: service}
}

// Register mounts the game routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /games", h.createGame)
	mux.HandleFunc("GET /games/{id}/state", h.gameState)
	mux.HandleFunc("GET /games/{id}/round/{ord}", h.getRound)
	mux.HandleFunc("POST /games/{id}/round/{ord}/answer", h.submitAnswer)
}

type createGameRequest struct {
	VersionID   int64  `json:"versionId"`
	Mode        string `json:"mode"`
	TotalRounds int    `json:"totalRounds"`
	Seed        *int64 `json:"seed"`
}

type gameCreated struct {
	ID          int64       `json:"id"`
	VersionID   int64       `json:"versionId"`
	Mode        domain.Mode `json:"mode"`
	TotalRounds int         `json:"totalRounds"`
	Seed        int64       `json:"seed"`
}

// roundOut deliberately omits the correct index and correctness flag until
// the round has been answered.
type roundOut struct {
	GameID        int64       `json:"gameId"`
	Ord           int         `json:"ord"`
	Mode          domain.Mode `json:"mode"`
	TotalRounds   int         `json:"totalRounds"`
	FramePaths    []string    `json:"framePaths"`
	Options       []option    `json:"options"`
	AnsweredIndex *int        `json:"answeredIndex,omitempty"`
	CorrectIndex  *int        `json:"correctIndex,omitempty"`
	IsCorrect     *bool       `json:"isCorrect,omitempty"`
}

type option struct {
	ID             int64  `json:"id"`
	Title          string `json:"title"`
	TitleLocalized string `json:"title_ru,omitempty"`
}

type answerRequest struct {
	AnswerIndex int `json:"answerIndex"`
}

func (h *Handler) createGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	mode, err := domain.ParseMode(req.Mode)
	if err != nil {
		writeError(w, err)
		return
	}

	game, err := h.service.CreateGame(r.Context(), app.CreateGameParams{
		VersionID:   req.VersionID,
		Mode:        mode,
		TotalRounds: req.TotalRounds,
		Seed:        req.Seed,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, gameCreated{
		ID:          game.ID,
		VersionID:   game.VersionID,
		Mode:        game.Mode,
		TotalRounds: game.TotalRounds,
		Seed:        game.Seed,
	})
}

func (h *Handler) gameState(w http.ResponseWriter, r *http.Request) {
	gameID, ok := pathInt64(w, r, "id")
	if !ok {
		return
	}
	state, err := h.service.GameState(r.Context(), gameID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *Handler) getRound(w http.ResponseWriter, r *http.Request) {
	gameID, ok := pathInt64(w, r, "id")
	if !ok {
		return
	}
	ord, ok := pathInt(w, r, "ord")
	if !ok {
		return
	}

	game, round, err := h.service.GetRound(r.Context(), gameID, ord)
	if err != nil {
		writeError(w, err)
		return
	}

	out := roundOut{
		GameID:        game.ID,
		Ord:           round.Ord,
		Mode:          game.Mode,
		TotalRounds:   game.TotalRounds,
		FramePaths:    round.FramePaths,
		Options:       toOptions(round.Options),
		AnsweredIndex: round.AnsweredIndex,
	}
	if round.Answered() {
		correctIndex := round.CorrectIndex
		out.CorrectIndex = &correctIndex
		out.IsCorrect = round.IsCorrect
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) submitAnswer(w http.ResponseWriter, r *http.Request) {
	gameID, ok := pathInt64(w, r, "id")
	if !ok {
		return
	}
	ord, ok := pathInt(w, r, "ord")
	if !ok {
		return
	}
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.service.SubmitAnswer(r.Context(), gameID, ord, req.AnswerIndex)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func toOptions(opts []domain.Option) []option {
	out := make([]option, len(opts))
	for i, o := range opts {
		out[i] = option{ID: o.TitleID, Title: o.Title, TitleLocalized: o.TitleLocalized}
	}
	return out
}

func pathInt64(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	v, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return v, true
}

func pathInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v, ok := pathInt64(w, r, name)
	return int(v), ok
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrGameNotFound),
		errors.Is(err, domain.ErrRoundNotFound),
		errors.Is(err, domain.ErrVersionNotFound),
		errors.Is(err, domain.ErrVersionEmpty):
		writeJSONError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrAnswerOutOfRange),
		errors.Is(err, domain.ErrInvalidMode),
		errors.Is(err, domain.ErrNoRoundsProducible):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("internal error: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

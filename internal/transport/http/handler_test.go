package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"framequiz-service/internal/app"
	"framequiz-service/internal/domain"
	"framequiz-service/internal/infra/memory"
)

func newTestServer(t *testing.T) (*httptest.Server, *app.GameService) {
	t.Helper()
	service := newTestService()
	handler := NewHandler(service)

	mux := http.NewServeMux()
	handler.Register(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, service
}

func TestCreateGameEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	resp := postJSON(t, server.URL+"/games", map[string]any{"versionId": 1, "seed": 42})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var created struct {
		ID          int64 `json:"id"`
		TotalRounds int   `json:"totalRounds"`
		Seed        int64 `json:"seed"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ID == 0 || created.TotalRounds != 3 || created.Seed != 42 {
		t.Fatalf("unexpected response: %+v", created)
	}
}

func TestCreateGameEndpointErrors(t *testing.T) {
	server, _ := newTestServer(t)

	resp := postJSON(t, server.URL+"/games", map[string]any{"versionId": 99})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown version: expected 404, got %d", resp.StatusCode)
	}

	resp = postJSON(t, server.URL+"/games", map[string]any{"versionId": 1, "mode": "FIVE_FRAMES"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad mode: expected 400, got %d", resp.StatusCode)
	}
}

func TestGetRoundHidesCorrectIndex(t *testing.T) {
	server, service := newTestServer(t)
	game := createGame(t, service)

	resp, err := http.Get(fmt.Sprintf("%s/games/%d/round/1", server.URL, game.ID))
	if err != nil {
		t.Fatalf("get round: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var raw map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, leaked := raw["correctIndex"]; leaked {
		t.Fatalf("correctIndex exposed before answering")
	}
	if _, leaked := raw["isCorrect"]; leaked {
		t.Fatalf("isCorrect exposed before answering")
	}
	options, ok := raw["options"].([]any)
	if !ok || len(options) != 4 {
		t.Fatalf("expected 4 options, got %v", raw["options"])
	}
}

func TestAnswerFlow(t *testing.T) {
	server, service := newTestServer(t)
	game := createGame(t, service)

	_, round, err := service.GetRound(context.Background(), game.ID, 1)
	if err != nil {
		t.Fatalf("get round: %v", err)
	}

	resp := postJSON(t, fmt.Sprintf("%s/games/%d/round/1/answer", server.URL, game.ID),
		map[string]any{"answerIndex": round.CorrectIndex})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result domain.AnswerResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !result.IsCorrect || result.Score != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}

	// After answering, the round view reveals the outcome.
	roundResp, err := http.Get(fmt.Sprintf("%s/games/%d/round/1", server.URL, game.ID))
	if err != nil {
		t.Fatalf("get round after answer: %v", err)
	}
	defer roundResp.Body.Close()
	var raw map[string]any
	if err := json.NewDecoder(roundResp.Body).Decode(&raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := raw["correctIndex"]; !ok {
		t.Fatalf("correctIndex missing after answering")
	}

	stateResp, err := http.Get(fmt.Sprintf("%s/games/%d/state", server.URL, game.ID))
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	defer stateResp.Body.Close()
	var state domain.GameState
	if err := json.NewDecoder(stateResp.Body).Decode(&state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if state.Answered != 1 || state.Score != 1 || state.Finished {
		t.Fatalf("unexpected state: %+v", state)
	}
}

func TestAnswerEndpointErrors(t *testing.T) {
	server, service := newTestServer(t)
	game := createGame(t, service)

	resp := postJSON(t, fmt.Sprintf("%s/games/%d/round/1/answer", server.URL, game.ID),
		map[string]any{"answerIndex": 99})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("out of range: expected 400, got %d", resp.StatusCode)
	}

	resp = postJSON(t, fmt.Sprintf("%s/games/999/round/1/answer", server.URL),
		map[string]any{"answerIndex": 0})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown game: expected 404, got %d", resp.StatusCode)
	}

	resp = postJSON(t, fmt.Sprintf("%s/games/%d/round/42/answer", server.URL, game.ID),
		map[string]any{"answerIndex": 0})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown round: expected 404, got %d", resp.StatusCode)
	}
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func createGame(t *testing.T, service *app.GameService) domain.Game {
	t.Helper()
	s := int64(42)
	game, err := service.CreateGame(context.Background(), app.CreateGameParams{
		VersionID: 1,
		Mode:      domain.ModeOneFrameFourTitles,
		Seed:      &s,
	})
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	return game
}

func newTestService() *app.GameService {
	return app.NewGameServiceWithClock(
		memory.NewGameRepository(),
		memory.NewStaticItemSource(sampleItems()),
		memory.NewStaticCatalog(sampleTitles(), sampleFrames()),
		func() time.Time { return time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC) },
	)
}

func sampleTitles() []domain.Title {
	return []domain.Title{
		{ID: 101, Title: "The Godfather", ReleaseDate: "1972-03-24", GenreIDs: []int64{18, 80}, MediaType: "movie", VoteCount: 19000},
		{ID: 102, Title: "Goodfellas", ReleaseDate: "1990-09-19", GenreIDs: []int64{18, 80}, MediaType: "movie", VoteCount: 11000},
		{ID: 103, Title: "Casino", ReleaseDate: "1995-11-22", GenreIDs: []int64{18, 80}, MediaType: "movie", VoteCount: 5200},
		{ID: 104, Title: "Scarface", ReleaseDate: "1983-12-09", GenreIDs: []int64{18, 80}, MediaType: "movie", VoteCount: 9800},
		{ID: 105, Title: "Heat", ReleaseDate: "1995-12-15", GenreIDs: []int64{28, 80}, MediaType: "movie", VoteCount: 6400},
	}
}

func sampleFrames() map[int64][]string {
	return map[int64][]string{
		101: {"/frames/101-1.jpg"},
		102: {"/frames/102-1.jpg"},
		103: {"/frames/103-1.jpg"},
		104: {"/frames/104-1.jpg"},
		105: {"/frames/105-1.jpg"},
	}
}

func sampleItems() map[int64][]domain.Item {
	return map[int64][]domain.Item{
		1: {
			{Ord: 1, TitleID: 101, MediaType: "movie"},
			{Ord: 2, TitleID: 102, MediaType: "movie"},
			{Ord: 3, TitleID: 103, MediaType: "movie"},
		},
	}
}

package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	forecast "ecotrack/internal/forecast/domain"
)

func answer(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"candidates": []any{
			map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": text}}}},
		},
	})
}

func fail(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"code": status, "message": message, "status": "ERR"},
	})
}

func history() forecast.MeterContext {
	return forecast.MeterContext{
		Name:     "Casa",
		Location: "Madrid",
		History: []forecast.HistoryPoint{
			{Date: "2024-01", GridKwh: 300, SolarKwh: 20, Cost: 45},
			{Date: "2024-02", GridKwh: 280, SolarKwh: 35, Cost: 41},
		},
	}
}

func TestEstimatePrice(t *testing.T) {
	var gotKey, gotPath, gotPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-goog-api-key")
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		var req generateRequest
		_ = json.Unmarshal(body, &req)
		if len(req.Contents) > 0 && len(req.Contents[0].Parts) > 0 {
			gotPrompt = req.Contents[0].Parts[0].Text
		}
		answer(w, "```json\n{\"price\": 0.19}\n```")
	}))
	defer server.Close()

	client := NewClient("secret", WithBaseURL(server.URL))
	price := client.EstimatePrice(context.Background(), time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC))
	if price != 0.19 {
		t.Fatalf("expected 0.19, got %v", price)
	}
	if gotKey != "secret" {
		t.Fatalf("expected api key header, got %q", gotKey)
	}
	if gotPath != "/v1beta/models/gemini-flash-latest:generateContent" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if !strings.Contains(gotPrompt, "March 2024") {
		t.Fatalf("expected month label in prompt, got %q", gotPrompt)
	}
}

func TestEstimatePriceFallbacks(t *testing.T) {
	month := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		fail(w, http.StatusInternalServerError, "overloaded")
	}))
	defer server.Close()

	if got := NewClient("", WithBaseURL(server.URL)).EstimatePrice(context.Background(), month); got != forecast.FallbackPrice {
		t.Fatalf("expected fallback without key, got %v", got)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Fatalf("expected no request without key")
	}
	if got := NewClient("k", WithBaseURL(server.URL)).EstimatePrice(context.Background(), month); got != forecast.FallbackPrice {
		t.Fatalf("expected fallback on server error, got %v", got)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected exactly one request, no retries, got %d", calls)
	}

	garbage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		answer(w, "roughly fifteen cents")
	}))
	defer garbage.Close()
	if got := NewClient("k", WithBaseURL(garbage.URL)).EstimatePrice(context.Background(), month); got != forecast.FallbackPrice {
		t.Fatalf("expected fallback on malformed answer, got %v", got)
	}
}

func TestAnalyze(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `\"gridKwh\":300`) {
			fail(w, http.StatusBadRequest, "missing history")
			return
		}
		answer(w, `{"predictions":[{"month":"March","kwh":270,"cost":40}],"advice":"Use the dishwasher at noon","savingsPotential":"8 €"}`)
	}))
	defer server.Close()

	analysis, err := NewClient("k", WithBaseURL(server.URL), WithModel("gemini-test")).Analyze(context.Background(), history())
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(analysis.Predictions) != 1 || analysis.Predictions[0].Kwh != 270 {
		t.Fatalf("unexpected predictions %+v", analysis.Predictions)
	}
	if analysis.SavingsPotential != "8 €" {
		t.Fatalf("unexpected savings potential %q", analysis.SavingsPotential)
	}
}

func TestAnalyzeErrors(t *testing.T) {
	ctx := context.Background()

	short := history()
	short.History = short.History[:1]
	if _, err := NewClient("k").Analyze(ctx, short); !errors.Is(err, forecast.ErrInsufficientHistory) || !errors.Is(err, forecast.ErrOracle) {
		t.Fatalf("expected insufficient history oracle error, got %v", err)
	}
	if _, err := NewClient("").Analyze(ctx, history()); !errors.Is(err, forecast.ErrNoCredential) {
		t.Fatalf("expected ErrNoCredential, got %v", err)
	}

	cases := []struct {
		status  int
		message string
		want    string
	}{
		{status: http.StatusNotFound, message: "models/x is not found", want: "model not found"},
		{status: http.StatusBadRequest, message: "bad payload", want: "invalid request"},
		{status: http.StatusBadRequest, message: "API key not valid. Please pass a valid API key.", want: "invalid API key"},
	}
	for _, tc := range cases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fail(w, tc.status, tc.message)
		}))
		_, err := NewClient("k", WithBaseURL(server.URL)).Analyze(ctx, history())
		server.Close()
		if !errors.Is(err, forecast.ErrOracle) {
			t.Fatalf("expected ErrOracle, got %v", err)
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("expected %q in %q", tc.want, err.Error())
		}
	}

	malformed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		answer(w, "I think you will use less energy.")
	}))
	defer malformed.Close()
	if _, err := NewClient("k", WithBaseURL(malformed.URL)).Analyze(ctx, history()); !errors.Is(err, forecast.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models" {
			fail(w, http.StatusNotFound, "no route")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"models":[{"name":"models/gemini-flash-latest"},{"name":"models/gemini-pro"}]}`)
	}))
	defer server.Close()

	names, err := NewClient("k", WithBaseURL(server.URL)).ListModels(context.Background())
	if err != nil {
		t.Fatalf("list models: %v", err)
	}
	if len(names) != 2 || names[0] != "gemini-flash-latest" {
		t.Fatalf("unexpected models %v", names)
	}
}

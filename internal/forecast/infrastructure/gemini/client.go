// Package gemini is a Forecast Oracle backed by the Gemini generateContent
// REST API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	forecast "ecotrack/internal/forecast/domain"
	"ecotrack/internal/observability/metrics"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-flash-latest"
	defaultTimeout = 60 * time.Second

	opPrice    = "price"
	opAnalyze  = "analyze"
	opModels   = "models"
	apiKeyHead = "x-goog-api-key"
)

// Client calls the Gemini API. It implements forecast.Oracle.
type Client struct {
	http   *resty.Client
	apiKey string
	model  string
	logger zerolog.Logger
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.http.SetBaseURL(strings.TrimRight(url, "/"))
		}
	}
}

// WithModel overrides the model name.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.http.SetTimeout(timeout)
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient constructs a client. An empty apiKey is allowed: prices then fall
// back and analyses fail with forecast.ErrNoCredential.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		http: resty.New().
			SetBaseURL(DefaultBaseURL).
			SetTimeout(defaultTimeout).
			SetHeader("Content-Type", "application/json"),
		apiKey: strings.TrimSpace(apiKey),
		model:  DefaultModel,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ forecast.Oracle = (*Client)(nil)

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

type modelsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// EstimatePrice asks for the average price of month. Any failure, including a
// missing key, yields forecast.FallbackPrice.
func (c *Client) EstimatePrice(ctx context.Context, month time.Time) float64 {
	if c.apiKey == "" {
		c.logger.Warn().Msg("no API key configured, using fallback price")
		return forecast.FallbackPrice
	}
	start := time.Now()
	price, err := c.estimatePrice(ctx, month)
	metrics.ObserveOracle(opPrice, metrics.Result(err), time.Since(start))
	if err != nil {
		c.logger.Warn().Err(err).Str("month", forecast.MonthLabel(month)).Msg("price estimate failed, using fallback price")
		return forecast.FallbackPrice
	}
	return price
}

func (c *Client) estimatePrice(ctx context.Context, month time.Time) (float64, error) {
	prompt, err := renderPricePrompt(forecast.MonthLabel(month))
	if err != nil {
		return 0, err
	}
	text, err := c.generate(ctx, prompt)
	if err != nil {
		return 0, err
	}
	return forecast.ParsePrice(text)
}

// Analyze forecasts the next months for a meter. Every failure wraps
// forecast.ErrOracle with a readable message.
func (c *Client) Analyze(ctx context.Context, meter forecast.MeterContext) (forecast.Analysis, error) {
	if err := meter.Validate(); err != nil {
		return forecast.Analysis{}, fmt.Errorf("%w: %w", forecast.ErrOracle, err)
	}
	if c.apiKey == "" {
		return forecast.Analysis{}, fmt.Errorf("%w: %w", forecast.ErrOracle, forecast.ErrNoCredential)
	}
	start := time.Now()
	analysis, err := c.analyze(ctx, meter)
	metrics.ObserveOracle(opAnalyze, metrics.Result(err), time.Since(start))
	if err != nil {
		c.logger.Error().Err(err).Str("meter", meter.Name).Msg("analysis failed")
		return forecast.Analysis{}, fmt.Errorf("%w: %w", forecast.ErrOracle, err)
	}
	return analysis, nil
}

func (c *Client) analyze(ctx context.Context, meter forecast.MeterContext) (forecast.Analysis, error) {
	prompt, err := renderAnalysisPrompt(meter)
	if err != nil {
		return forecast.Analysis{}, err
	}
	text, err := c.generate(ctx, prompt)
	if err != nil {
		return forecast.Analysis{}, err
	}
	return forecast.ParseAnalysis(text)
}

// ListModels returns the model names available to the key. It is used to
// check that the key works.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	if c.apiKey == "" {
		return nil, forecast.ErrNoCredential
	}
	start := time.Now()
	names, err := c.listModels(ctx)
	metrics.ObserveOracle(opModels, metrics.Result(err), time.Since(start))
	return names, err
}

func (c *Client) listModels(ctx context.Context) ([]string, error) {
	var out modelsResponse
	var failure apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader(apiKeyHead, c.apiKey).
		SetResult(&out).
		SetError(&failure).
		Get("/v1beta/models")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", forecast.ErrOracle, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: %s", forecast.ErrOracle, describe(resp.StatusCode(), failure, resp.String()))
	}
	if len(out.Models) == 0 {
		return nil, fmt.Errorf("%w: response lists no models", forecast.ErrMalformedResponse)
	}
	names := make([]string, 0, len(out.Models))
	for _, m := range out.Models {
		names = append(names, strings.TrimPrefix(m.Name, "models/"))
	}
	return names, nil
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	var out generateResponse
	var failure apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader(apiKeyHead, c.apiKey).
		SetPathParam("model", c.model).
		SetBody(generateRequest{Contents: []content{{Parts: []part{{Text: prompt}}}}}).
		SetResult(&out).
		SetError(&failure).
		Post("/v1beta/models/{model}:generateContent")
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", errors.New(describe(resp.StatusCode(), failure, resp.String()))
	}
	var text strings.Builder
	for _, candidate := range out.Candidates {
		for _, p := range candidate.Content.Parts {
			text.WriteString(p.Text)
		}
		if text.Len() > 0 {
			break
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("%w: empty candidate text", forecast.ErrMalformedResponse)
	}
	return text.String(), nil
}

// describe turns an API failure into a readable message. Later checks win,
// so an invalid key reported with status 400 reads as an invalid key.
func describe(status int, failure apiError, body string) string {
	msg := failure.Error.Message
	if msg == "" {
		msg = strings.TrimSpace(body)
	}
	msg = "HTTP " + strconv.Itoa(status) + ": " + msg
	if status == 404 || strings.Contains(msg, "404") {
		msg = "model not found (404), check the model name"
	}
	if status == 400 || strings.Contains(msg, "400") {
		msg = "invalid request (400), check the data sent"
	}
	if strings.Contains(failure.Error.Message, "API key") || strings.Contains(body, "API key") {
		msg = "invalid API key"
	}
	return msg
}

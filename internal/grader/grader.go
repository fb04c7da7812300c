// Package grader implements the Grader Oracle: an async boolean verdict
// for free-text answers, backed by an external LLM call with a
// case-insensitive trimmed-equality fallback whenever the call is
// unavailable, slow, or disabled.
package grader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/lumenquiz/session-runtime/internal/config"
)

// Oracle evaluates whether a free-text answer matches the expected answer.
type Oracle interface {
	Evaluate(ctx context.Context, question, expected, submitted string) (bool, error)
}

// HTTPOracle calls an OpenAI-compatible chat completion endpoint, wrapped
// in a circuit breaker and rate limiter so a flaky or down oracle cannot
// cascade into answer-submission latency.
type HTTPOracle struct {
	cfg        config.GraderConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[bool]
	group      singleflight.Group
	log        zerolog.Logger
	endpoint   string
}

// NewHTTPOracle constructs an HTTPOracle. If cfg.APIKey is empty the caller
// should use Fallback directly instead of constructing an oracle at all;
// NewHTTPOracle does not itself refuse to construct, so callers can still
// wire one up generically.
func NewHTTPOracle(cfg config.GraderConfig, log zerolog.Logger) *HTTPOracle {
	rl := cfg.RateLimitPerS
	if rl <= 0 {
		rl = 5
	}
	maxReqs := cfg.BreakerMaxReqs
	if maxReqs == 0 {
		maxReqs = 3
	}

	breakerSettings := gobreaker.Settings{
		Name:        "grader-oracle",
		MaxRequests: maxReqs,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	}

	return &HTTPOracle{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(rl), 1),
		breaker:    gobreaker.NewCircuitBreaker[bool](breakerSettings),
		log:        log,
		endpoint:   "https://api.openai.com/v1/chat/completions",
	}
}

type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Evaluate asks the oracle whether submitted is an acceptable answer to
// question given the expected value. Any failure — disabled oracle, rate
// limit wait error, breaker open, HTTP error, timeout, or unparsable
// response — falls back to case-insensitive trimmed equality.
func (o *HTTPOracle) Evaluate(ctx context.Context, question, expected, submitted string) (bool, error) {
	if o.cfg.APIKey == "" {
		return Fallback(expected, submitted), nil
	}

	key := question + "\x00" + expected + "\x00" + submitted
	v, err, _ := o.group.Do(key, func() (interface{}, error) {
		return o.call(ctx, question, expected, submitted)
	})
	if err != nil {
		o.log.Warn().Err(err).Msg("grader oracle call failed, using fallback")
		return Fallback(expected, submitted), nil
	}
	return v.(bool), nil
}

func (o *HTTPOracle) call(ctx context.Context, question, expected, submitted string) (bool, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return false, err
	}

	return o.breaker.Execute(func() (bool, error) {
		ctx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
		defer cancel()

		prompt := fmt.Sprintf(
			"Question: %s\nExpected answer: %s\nSubmitted answer: %s\nIs the submitted answer correct? Reply with exactly one word: yes or no.",
			question, expected, submitted,
		)

		body, err := json.Marshal(chatCompletionRequest{
			Model: o.cfg.Model,
			Messages: []chatMessage{
				{Role: "user", Content: prompt},
			},
		})
		if err != nil {
			return false, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewReader(body))
		if err != nil {
			return false, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+o.cfg.APIKey)

		resp, err := o.httpClient.Do(req)
		if err != nil {
			return false, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(resp.Body)
			return false, fmt.Errorf("grader oracle returned %d: %s", resp.StatusCode, string(respBody))
		}

		var out chatCompletionResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return false, err
		}
		if len(out.Choices) == 0 {
			return false, fmt.Errorf("grader oracle returned no choices")
		}

		verdict := strings.ToLower(strings.TrimSpace(out.Choices[0].Message.Content))
		return strings.HasPrefix(verdict, "yes"), nil
	})
}

// Fallback is the case-insensitive, whitespace-trimmed equality check used
// whenever the oracle itself cannot be consulted.
func Fallback(expected, submitted string) bool {
	return strings.EqualFold(strings.TrimSpace(expected), strings.TrimSpace(submitted))
}

package sleeper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/onclock/draft-alerts/internal/domain/draft"
	"github.com/onclock/draft-alerts/internal/platform/logging"
	"github.com/onclock/draft-alerts/internal/platform/resilience"
	"github.com/onclock/draft-alerts/internal/usecase"
)

const defaultBaseURL = "https://api.sleeper.app"

var errSleeperTransient = crerr.New("sleeper transient failure")

// ErrDraftNotFound means the draft id does not exist upstream.
var ErrDraftNotFound = crerr.New("draft not found")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

type Client struct {
	httpClient     *http.Client
	baseURL        string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

// FetchDraft returns the draft object for one draft id.
func (c *Client) FetchDraft(ctx context.Context, draftID string) (draft.Detail, error) {
	draftID = strings.TrimSpace(draftID)
	if draftID == "" {
		return draft.Detail{}, fmt.Errorf("%w: draft id is required", usecase.ErrInvalidInput)
	}

	var envelope draftEnvelope
	if err := c.doJSON(ctx, "/v1/draft/"+url.PathEscape(draftID), &envelope); err != nil {
		return draft.Detail{}, fmt.Errorf("fetch draft draft_id=%s: %w", draftID, err)
	}
	return mapDraftEnvelope(draftID, envelope), nil
}

// FetchPickCount returns how many picks have been made in a draft. The
// upstream picks array length is the count; pick bodies are not needed.
func (c *Client) FetchPickCount(ctx context.Context, draftID string) (int, error) {
	draftID = strings.TrimSpace(draftID)
	if draftID == "" {
		return 0, fmt.Errorf("%w: draft id is required", usecase.ErrInvalidInput)
	}

	var picks []pickItem
	if err := c.doJSON(ctx, "/v1/draft/"+url.PathEscape(draftID)+"/picks", &picks); err != nil {
		return 0, fmt.Errorf("fetch draft picks draft_id=%s: %w", draftID, err)
	}
	return len(picks), nil
}

// FetchLeague returns league display info for notification text.
func (c *Client) FetchLeague(ctx context.Context, leagueID string) (draft.LeagueInfo, error) {
	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return draft.LeagueInfo{}, fmt.Errorf("%w: league id is required", usecase.ErrInvalidInput)
	}

	var envelope leagueEnvelope
	if err := c.doJSON(ctx, "/v1/league/"+url.PathEscape(leagueID), &envelope); err != nil {
		return draft.LeagueInfo{}, fmt.Errorf("fetch league league_id=%s: %w", leagueID, err)
	}
	return mapLeagueEnvelope(envelope), nil
}

// FetchUserID resolves a username to the stable numeric user id used as
// the key of draft_order.
func (c *Client) FetchUserID(ctx context.Context, username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", fmt.Errorf("%w: username is required", usecase.ErrInvalidInput)
	}

	var envelope userEnvelope
	if err := c.doJSON(ctx, "/v1/user/"+url.PathEscape(username), &envelope); err != nil {
		return "", fmt.Errorf("fetch user username=%s: %w", username, err)
	}
	if envelope.UserID == "" {
		return "", fmt.Errorf("%w: username=%s", usecase.ErrNotFound, username)
	}
	return envelope.UserID, nil
}

func (c *Client) doJSON(ctx context.Context, path string, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "sleeper circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: draft provider is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	fullURL := c.baseURL + path
	out, err, _ := c.flight.Do(path, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && crerr.Is(reqErr, errSleeperTransient) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}

	// Sleeper returns a bare JSON null for unknown ids with status 200.
	if len(raw) == 0 || string(raw) == "null" {
		return ErrDraftNotFound
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode provider payload: %w", err)
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %v", errSleeperTransient, err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 6<<20))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errSleeperTransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case resp.StatusCode == http.StatusNotFound:
				return nil, ErrDraftNotFound
			case isRetryableStatus(resp.StatusCode):
				lastErr = fmt.Errorf("%w: provider status=%d", errSleeperTransient, resp.StatusCode)
			default:
				return nil, fmt.Errorf("provider status=%d", resp.StatusCode)
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("provider request failed")
	}
	c.logger.WarnContext(ctx, "sleeper request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

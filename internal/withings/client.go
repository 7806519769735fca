package withings

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	liftlogerrors "github.com/liftlog/liftlog/internal/errors"
	"github.com/liftlog/liftlog/internal/profile"
)

// ErrUnauthorized marks a measure call rejected for a stale access token.
// The sync layer refreshes the token and retries the call once.
var ErrUnauthorized = liftlogerrors.NewSentinel("withings token rejected")

// Withings signals auth failures through the status field of an otherwise
// 200 response body.
const statusUnauthorized = 401

// Client is a typed client for the Withings measure and token APIs.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	logger       *slog.Logger
}

// ClientConfig configures the Withings API client. BaseURL defaults to the
// public API host.
type ClientConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
}

// NewClient creates a Withings API client.
func NewClient(cfg ClientConfig, logger *slog.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://wbsapi.withings.net"
	}
	return &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		logger:       logger,
	}
}

type apiResponse struct {
	Status int             `json:"status"`
	Error  string          `json:"error"`
	Body   json.RawMessage `json:"body"`
}

type measureBody struct {
	MeasureGroups []measureGroup `json:"measuregrps"`
}

type measureGroup struct {
	Date     int64     `json:"date"`
	Measures []measure `json:"measures"`
}

type measure struct {
	Value int64 `json:"value"`
	Type  int   `json:"type"`
	Unit  int   `json:"unit"`
}

type tokenBody struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	UserID       string `json:"userid"`
}

// Measurements fetches all readings of one metric type in [since, until].
func (c *Client) Measurements(ctx context.Context, accessToken string, metric MetricType, since, until time.Time) ([]Measurement, error) {
	code, ok := measureTypeCodes[metric]
	if !ok {
		return nil, fmt.Errorf("unknown metric type %q", metric)
	}

	form := url.Values{
		"action":    {"getmeas"},
		"meastype":  {strconv.Itoa(code)},
		"category":  {"1"},
		"startdate": {strconv.FormatInt(since.Unix(), 10)},
		"enddate":   {strconv.FormatInt(until.Unix(), 10)},
	}
	raw, err := c.post(ctx, "/measure", accessToken, form)
	if err != nil {
		return nil, err
	}

	var body measureBody
	if err = json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("parse measure body: %w", err)
	}

	var measurements []Measurement
	for _, group := range body.MeasureGroups {
		for _, m := range group.Measures {
			if m.Type != code {
				continue
			}
			measurements = append(measurements, Measurement{
				Type:    metric,
				TakenAt: time.Unix(group.Date, 0),
				Value:   float64(m.Value) * math.Pow10(m.Unit),
			})
		}
	}
	return measurements, nil
}

// RefreshTokens exchanges the refresh token for a fresh token triple.
func (c *Client) RefreshTokens(ctx context.Context, refreshToken string) (profile.WithingsTokens, error) {
	form := url.Values{
		"action":        {"requesttoken"},
		"grant_type":    {"refresh_token"},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"refresh_token": {refreshToken},
	}
	raw, err := c.post(ctx, "/v2/oauth2", "", form)
	if err != nil {
		return profile.WithingsTokens{}, fmt.Errorf("refresh tokens: %w", err)
	}

	var body tokenBody
	if err = json.Unmarshal(raw, &body); err != nil {
		return profile.WithingsTokens{}, fmt.Errorf("parse token body: %w", err)
	}
	if body.AccessToken == "" || body.RefreshToken == "" {
		return profile.WithingsTokens{}, fmt.Errorf("token response missing tokens")
	}
	return profile.WithingsTokens{
		AccessToken:  body.AccessToken,
		RefreshToken: body.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(body.ExpiresIn) * time.Second),
		UserID:       body.UserID,
	}, nil
}

// post sends one form-encoded API call and unwraps the Withings response
// envelope.
func (c *Client) post(ctx context.Context, path, accessToken string, form url.Values) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", path, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.LogAttrs(ctx, slog.LevelError, "close response body", slog.Any("error", closeErr))
		}
	}()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("%s: %w", path, ErrUnauthorized)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status %d", path, resp.StatusCode)
	}

	var envelope apiResponse
	if err = json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", path, err)
	}
	if envelope.Status == statusUnauthorized {
		return nil, fmt.Errorf("%s: %s: %w", path, envelope.Error, ErrUnauthorized)
	}
	if envelope.Status != 0 {
		return nil, fmt.Errorf("%s: api status %d: %s", path, envelope.Status, envelope.Error)
	}
	return envelope.Body, nil
}

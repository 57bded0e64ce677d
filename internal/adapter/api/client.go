// Package api is the Resource Client: a typed wrapper over the weight
// tracker REST backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/lesniewskii/weight-tracker/internal/domain"
	"github.com/lesniewskii/weight-tracker/internal/metrics"
)

// RequestIDHeader carries a per-request id for correlating client and
// backend logs.
const RequestIDHeader = "X-Request-ID"

// Client calls the backend. No call is retried.
type Client struct {
	baseURL string
	http    *http.Client
	metrics *metrics.Manager
}

var (
	_ domain.ResourceReader    = (*Client)(nil)
	_ domain.MeasurementWriter = (*Client)(nil)
	_ domain.GoalWriter        = (*Client)(nil)
	_ domain.Transfer          = (*Client)(nil)
	_ domain.AuthAPI           = (*Client)(nil)
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. Its transport is
// wrapped to add the bearer token.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithMetrics counts requests on m.
func WithMetrics(m *metrics.Manager) Option {
	return func(c *Client) { c.metrics = m }
}

// New creates a Client for baseURL. The token of the session returned by
// sessions, if any, is attached to every call.
func New(baseURL string, sessions domain.SessionSource, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid backend url %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}

	hc := *c.http
	base := hc.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	hc.Transport = &bearerTransport{base: base, sessions: sessions}
	c.http = &hc
	return c, nil
}

// BaseURL returns the backend root.
func (c *Client) BaseURL() string { return c.baseURL }

// --- reads ---

// FetchMeasurements returns every measurement of the current user.
func (c *Client) FetchMeasurements(ctx context.Context) ([]domain.Measurement, error) {
	var out []domain.Measurement
	if err := c.getEnvelope(ctx, "/measurements", "measurements", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchGoals returns the goals of the current user.
func (c *Client) FetchGoals(ctx context.Context) ([]domain.Goal, error) {
	var out []domain.Goal
	if err := c.getEnvelope(ctx, "/goals", "goals", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchTrends returns the backend-computed trend summary.
func (c *Client) FetchTrends(ctx context.Context) (*domain.TrendSummary, error) {
	var out domain.TrendSummary
	if err := c.getEnvelope(ctx, "/trends", "trends", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- measurement and goal mutations ---

// CreateMeasurement submits a new measurement.
func (c *Client) CreateMeasurement(ctx context.Context, in domain.MeasurementInput) error {
	_, err := c.sendJSON(ctx, http.MethodPost, "/measurements", in)
	return err
}

// UpdateMeasurement applies patch to measurement id.
func (c *Client) UpdateMeasurement(ctx context.Context, id int64, patch domain.MeasurementPatch) error {
	_, err := c.sendJSON(ctx, http.MethodPut, measurementPath(id), patch)
	return err
}

// DeleteMeasurement removes measurement id.
func (c *Client) DeleteMeasurement(ctx context.Context, id int64) error {
	_, err := c.do(ctx, http.MethodDelete, measurementPath(id), nil, "")
	return err
}

// CreateGoal submits a new goal and returns it as stored.
func (c *Client) CreateGoal(ctx context.Context, in domain.GoalInput) (*domain.Goal, error) {
	body, err := c.sendJSON(ctx, http.MethodPost, "/goals", in)
	if err != nil {
		return nil, err
	}
	var g domain.Goal
	if err := json.Unmarshal(body, &g); err != nil {
		return nil, malformed("POST /goals", err)
	}
	return &g, nil
}

// --- import / export ---

// ImportCSV uploads r as the multipart field "file".
func (c *Client) ImportCSV(ctx context.Context, filename string, r io.Reader) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("build upload: %w", err)
	}
	if _, err := io.Copy(fw, r); err != nil {
		return fmt.Errorf("build upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("build upload: %w", err)
	}
	_, err = c.do(ctx, http.MethodPost, "/import", &buf, mw.FormDataContentType())
	return err
}

// ExportCSV downloads the user's measurements. The backend may answer with a
// CSV body or with {"csv": "..."}.
func (c *Client) ExportCSV(ctx context.Context) ([]byte, error) {
	resp, body, err := c.roundTrip(ctx, http.MethodGet, "/export", nil, "")
	if err != nil {
		return nil, err
	}
	mt, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mt == "text/csv" || mt == "text/plain" || mt == "application/octet-stream" {
		return body, nil
	}
	var csv string
	if err := decodeEnvelope(body, "csv", &csv); err != nil {
		return nil, malformed("GET /export", err)
	}
	return []byte(csv), nil
}

// --- auth ---

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (string, error) {
	body, err := c.sendJSON(ctx, http.MethodPost, "/auth/login", creds)
	if err != nil {
		return "", err
	}
	var out struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", malformed("POST /auth/login", err)
	}
	if out.AccessToken == "" {
		return "", malformed("POST /auth/login", fmt.Errorf("missing key %q", "access_token"))
	}
	if out.TokenType != "" && !strings.EqualFold(out.TokenType, "bearer") {
		log.Warnf("api: unexpected token type %q, using it as bearer", out.TokenType)
	}
	return out.AccessToken, nil
}

// Register creates an account. The token is empty unless the backend issues
// one with the new user.
func (c *Client) Register(ctx context.Context, r domain.Registration) (*domain.User, string, error) {
	body, err := c.sendJSON(ctx, http.MethodPost, "/auth/register", r)
	if err != nil {
		return nil, "", err
	}
	var out struct {
		domain.User
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, "", malformed("POST /auth/register", err)
	}
	u := out.User
	return &u, out.AccessToken, nil
}

// Me returns the profile of the current user.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	_, body, err := c.roundTrip(ctx, http.MethodGet, "/auth/me", nil, "")
	if err != nil {
		return nil, err
	}
	return decodeUser("GET /auth/me", body)
}

// UpdateMe replaces the profile of the current user.
func (c *Client) UpdateMe(ctx context.Context, u domain.ProfileUpdate) (*domain.User, error) {
	body, err := c.sendJSON(ctx, http.MethodPut, "/auth/me", u)
	if err != nil {
		return nil, err
	}
	return decodeUser("PUT /auth/me", body)
}

// --- plumbing ---

func (c *Client) getEnvelope(ctx context.Context, path, key string, dst any) error {
	_, body, err := c.roundTrip(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return err
	}
	if err := decodeEnvelope(body, key, dst); err != nil {
		return malformed("GET "+path, err)
	}
	return nil
}

func (c *Client) sendJSON(ctx context.Context, method, path string, in any) ([]byte, error) {
	b, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
	}
	return c.do(ctx, method, path, bytes.NewReader(b), "application/json")
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) ([]byte, error) {
	_, b, err := c.roundTrip(ctx, method, path, body, contentType)
	return b, err
}

// roundTrip performs one call and normalizes every failure into a
// *domain.FetchError.
func (c *Client) roundTrip(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, []byte, error) {
	op := method + " " + path
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, nil, &domain.FetchError{Kind: domain.KindTransport, Op: op, Err: err}
	}
	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)
	req.Header.Set("Accept", "application/json, text/csv;q=0.9")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.BackendRequest(method, 0, time.Since(started))
		log.WithFields(log.Fields{"op": op, "request_id": reqID}).Warnf("api: transport error: %v", err)
		return nil, nil, &domain.FetchError{Kind: domain.KindTransport, Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	took := time.Since(started)
	c.metrics.BackendRequest(method, resp.StatusCode, took)
	fields := log.Fields{"op": op, "status": resp.StatusCode, "took": took, "request_id": reqID}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		fe := &domain.FetchError{
			Kind:       domain.KindStatus,
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(b),
		}
		log.WithFields(fields).Warnf("api: %s", fe.Error())
		return resp, nil, fe
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp, nil, &domain.FetchError{Kind: domain.KindTransport, Op: op, Err: fmt.Errorf("read body: %w", err)}
	}
	log.WithFields(fields).Debug("api: ok")
	return resp, b, nil
}

func malformed(op string, err error) *domain.FetchError {
	return &domain.FetchError{Kind: domain.KindMalformed, Op: op, Err: err}
}

func decodeUser(op string, body []byte) (*domain.User, error) {
	var u domain.User
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, malformed(op, err)
	}
	return &u, nil
}

func measurementPath(id int64) string {
	return "/measurements/" + strconv.FormatInt(id, 10)
}

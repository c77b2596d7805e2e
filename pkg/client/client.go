package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/civicpulse/reporter/backend/internal/domain/entities"
	apperrors "github.com/civicpulse/reporter/backend/pkg/errors"
	"github.com/civicpulse/reporter/backend/pkg/retry"
)

// Client talks to the reporting API on behalf of one user
type Client struct {
	baseURL    string
	httpClient *http.Client
	snapshots  SnapshotStore
	readRetry  retry.Config

	mu      sync.RWMutex
	session *Snapshot

	Likes      *LikeTracker
	Navigation *Navigation
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithSnapshotStore persists the session between runs
func WithSnapshotStore(store SnapshotStore) Option {
	return func(c *Client) { c.snapshots = store }
}

// WithReadRetry replaces the retry policy of idempotent reads
func WithReadRetry(cfg retry.Config) Option {
	return func(c *Client) { c.readRetry = cfg }
}

// New creates a client for the API at baseURL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		readRetry:  retry.RequestConfig(),
		Likes:      NewLikeTracker(),
		Navigation: NewNavigation(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.readRetry.Retryable = retryable
	return c
}

// Session returns the current session snapshot, or nil when signed out
func (c *Client) Session() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return nil
	}
	cp := *c.session
	return &cp
}

// RegisterRequest is a self-registration form
type RegisterRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	Role                 string `json:"role"`
	Secret               string `json:"secret,omitempty"`
}

type authEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    *struct {
		User      entities.SessionUser `json:"user"`
		Token     string               `json:"token"`
		ExpiresAt *time.Time           `json:"expires_at"`
	} `json:"data"`
}

// Register creates an account and signs in
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*Snapshot, error) {
	return c.authenticate(ctx, "/api/auth/register", req)
}

// Login signs in with email and password
func (c *Client) Login(ctx context.Context, email, password string) (*Snapshot, error) {
	return c.authenticate(ctx, "/api/auth/login", map[string]string{"email": email, "password": password})
}

func (c *Client) authenticate(ctx context.Context, path string, payload interface{}) (*Snapshot, error) {
	var env authEnvelope
	if err := c.doJSON(ctx, http.MethodPost, path, payload, &env); err != nil {
		return nil, err
	}
	if !env.Success || env.Data == nil || env.Data.Token == "" {
		return nil, apperrors.NewAuthenticationError(env.Message)
	}

	snap := &Snapshot{User: env.Data.User, Token: env.Data.Token}
	if env.Data.ExpiresAt != nil {
		snap.ExpiresAt = *env.Data.ExpiresAt
	}
	c.setSession(ctx, snap)
	return snap, nil
}

// Logout ends the session locally and on the server. The local snapshot is
// cleared even when the server cannot be reached.
func (c *Client) Logout(ctx context.Context) error {
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	c.setSession(ctx, nil)
	return err
}

// Restore loads the persisted snapshot and confirms it with the server. A
// rejected or expired snapshot is cleared.
func (c *Client) Restore(ctx context.Context) (*Snapshot, error) {
	if c.snapshots == nil {
		return nil, nil
	}
	snap, err := c.snapshots.Load(ctx)
	if err != nil || snap == nil {
		return nil, err
	}
	if !snap.ExpiresAt.IsZero() && time.Now().After(snap.ExpiresAt) {
		c.setSession(ctx, nil)
		return nil, nil
	}

	c.mu.Lock()
	c.session = snap
	c.mu.Unlock()

	var env authEnvelope
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/session", nil, &env); err != nil {
		// keep the snapshot while the server is unreachable
		return snap, err
	}
	if !env.Success || env.Data == nil {
		c.setSession(ctx, nil)
		return nil, nil
	}

	snap.User = env.Data.User
	c.setSession(ctx, snap)
	return snap, nil
}

func (c *Client) setSession(ctx context.Context, snap *Snapshot) {
	c.mu.Lock()
	c.session = snap
	c.mu.Unlock()

	if c.snapshots == nil {
		return
	}
	var err error
	if snap == nil {
		err = c.snapshots.Clear(ctx)
	} else {
		err = c.snapshots.Save(ctx, snap)
	}
	if err != nil {
		log.Warn().Err(err).Msg("failed to persist session snapshot")
	}
}

// Issue is an issue as listed by the API
type Issue struct {
	entities.Issue
	ReporterName string `json:"reporterName"`
	LikeCount    int    `json:"likeCount"`
	CommentCount int    `json:"commentCount"`
}

type issueList struct {
	Issues []Issue `json:"issues"`
	Count  int     `json:"count"`
}

// ListIssues returns issues matching a status filter
func (c *Client) ListIssues(ctx context.Context, filter string) ([]Issue, error) {
	var out issueList
	if err := c.read(ctx, "/api/issues"+query("status", filter), &out); err != nil {
		return nil, err
	}
	c.trackCounts(out.Issues)
	return out.Issues, nil
}

// SearchIssues runs a free-text search within a status filter
func (c *Client) SearchIssues(ctx context.Context, q, filter string) ([]Issue, error) {
	params := url.Values{}
	params.Set("q", q)
	if filter != "" {
		params.Set("status", filter)
	}
	var out issueList
	if err := c.read(ctx, "/api/issues/search?"+params.Encode(), &out); err != nil {
		return nil, err
	}
	c.trackCounts(out.Issues)
	return out.Issues, nil
}

// GetIssue fetches one issue
func (c *Client) GetIssue(ctx context.Context, id string) (*Issue, error) {
	var out Issue
	if err := c.read(ctx, "/api/issues/"+url.PathEscape(id), &out); err != nil {
		return nil, err
	}
	c.trackCounts([]Issue{out})
	return &out, nil
}

func (c *Client) trackCounts(issues []Issue) {
	for _, issue := range issues {
		c.Likes.SetCount(issue.ID, issue.LikeCount)
	}
}

// ReportRequest is a report submission
type ReportRequest struct {
	Category       string   `json:"category"`
	Description    string   `json:"description"`
	LocationSource string   `json:"location_source"`
	Lat            *float64 `json:"lat,omitempty"`
	Lng            *float64 `json:"lng,omitempty"`
	LocationError  string   `json:"location_error,omitempty"`
	ImageRef       string   `json:"image_ref,omitempty"`
}

// ReportIssue submits a report from view. The request runs to completion
// even if the user navigates away, but the result is then dropped and
// ErrDiscarded returned.
func (c *Client) ReportIssue(ctx context.Context, view *View, req ReportRequest) (*Issue, error) {
	var out Issue
	err := c.doJSON(context.WithoutCancel(ctx), http.MethodPost, "/api/issues", req, &out)
	if !view.Active() {
		return nil, ErrDiscarded
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ToggleLike flips the user's like with an optimistic count. The tracker
// holds the pending change until the server answers.
func (c *Client) ToggleLike(ctx context.Context, issueID string, currentlyLiked bool) (*entities.LikeResult, error) {
	delta := 1
	if currentlyLiked {
		delta = -1
	}
	change := c.Likes.Begin(issueID, delta)

	var out entities.LikeResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/issues/"+url.PathEscape(issueID)+"/like", nil, &out); err != nil {
		c.Likes.Rollback(issueID, change)
		return nil, err
	}
	c.Likes.Resolve(issueID, change, out.Count)
	return &out, nil
}

// Comment is a comment as listed by the API
type Comment struct {
	entities.Comment
	UserName string `json:"userName"`
}

// ListComments returns an issue's comments in order
func (c *Client) ListComments(ctx context.Context, issueID string) ([]Comment, error) {
	var out struct {
		Comments []Comment `json:"comments"`
	}
	if err := c.read(ctx, "/api/issues/"+url.PathEscape(issueID)+"/comments", &out); err != nil {
		return nil, err
	}
	return out.Comments, nil
}

// AddComment appends a comment to an issue
func (c *Client) AddComment(ctx context.Context, issueID, content string) (*Comment, error) {
	var out Comment
	if err := c.doJSON(ctx, http.MethodPost, "/api/issues/"+url.PathEscape(issueID)+"/comments", map[string]string{"content": content}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ModerationSummary is the admin overview
type ModerationSummary struct {
	Total      int              `json:"total"`
	Open       int              `json:"open"`
	InProgress int              `json:"in_progress"`
	Resolved   int              `json:"resolved"`
	Filter     string           `json:"filter"`
	Issues     []entities.Issue `json:"issues"`
}

// Moderation fetches the admin summary for a status filter
func (c *Client) Moderation(ctx context.Context, filter string) (*ModerationSummary, error) {
	var out ModerationSummary
	if err := c.read(ctx, "/api/admin/issues"+query("status", filter), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateStatus moves an issue to status (admin only)
func (c *Client) UpdateStatus(ctx context.Context, issueID string, status entities.Status) (*entities.Issue, error) {
	var out entities.Issue
	if err := c.doJSON(ctx, http.MethodPatch, "/api/admin/issues/"+url.PathEscape(issueID)+"/status", map[string]string{"status": string(status)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Place is a reverse geocoded label
type Place struct {
	Street       string               `json:"street"`
	Neighborhood string               `json:"neighborhood"`
	Label        string               `json:"label"`
	Formatted    string               `json:"formatted"`
	Coordinates  entities.Coordinates `json:"coordinates"`
}

// ReverseGeocode labels a coordinate
func (c *Client) ReverseGeocode(ctx context.Context, lat, lng float64) (*Place, error) {
	params := url.Values{}
	params.Set("lat", fmt.Sprintf("%f", lat))
	params.Set("lng", fmt.Sprintf("%f", lng))
	var out Place
	if err := c.read(ctx, "/api/geocode/reverse?"+params.Encode(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// read performs an idempotent GET with the read retry policy
func (c *Client) read(ctx context.Context, path string, out interface{}) error {
	return retry.Do(ctx, c.readRetry, func() error {
		return c.doJSON(ctx, http.MethodGet, path, nil, out)
	})
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return apperrors.NewInternalError("failed to encode request", err)
		}
		body = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return apperrors.NewInternalError("failed to build request", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if snap := c.Session(); snap != nil && snap.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+snap.Token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return apperrors.NewTransportError("api unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.NewTransportError("malformed api response", err)
	}
	return nil
}

func query(key, value string) string {
	if value == "" {
		return ""
	}
	return "?" + url.Values{key: []string{value}}.Encode()
}

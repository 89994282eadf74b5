// Package client is a typed REST client for the document request API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/citedocs-api/internal/dto"
	"github.com/noah-isme/citedocs-api/internal/models"
	appErrors "github.com/noah-isme/citedocs-api/pkg/errors"
)

// Transport level failures. Both match with errors.Is through their code.
var (
	ErrNetwork = appErrors.New("NETWORK_ERROR", http.StatusServiceUnavailable, "backend unreachable")
	ErrServer  = appErrors.New("SERVER_ERROR", http.StatusBadGateway, "backend failure")
)

// TokenSource supplies the bearer token attached to every call.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource that always returns the same token.
type StaticToken string

// Token implements TokenSource.
func (t StaticToken) Token(context.Context) (string, error) {
	return string(t), nil
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	Tokens     TokenSource
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client calls the backend endpoints and unwraps the response envelope.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	logger  *zap.Logger
}

type envelope struct {
	Data  json.RawMessage  `json:"data"`
	Error *appErrors.Error `json:"error"`
}

// New validates options and builds a Client.
func New(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "base url is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid base url")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{baseURL: base, http: httpClient, tokens: opts.Tokens, logger: logger}, nil
}

// Login exchanges credentials for a session.
func (c *Client) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	var out models.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, models.LoginRequest{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListRequests fetches the projected request list.
func (c *Client) ListRequests(ctx context.Context, query dto.RequestListQuery) ([]models.Request, error) {
	values := url.Values{}
	setIfPresent(values, "userId", query.UserID)
	setIfPresent(values, "status", query.Status)
	setIfPresent(values, "documentType", query.DocumentType)
	setIfPresent(values, "search", query.Search)
	setIfPresent(values, "view", query.View)

	var out []models.Request
	if err := c.do(ctx, http.MethodGet, "/requests", values, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetRequest fetches a single request.
func (c *Client) GetRequest(ctx context.Context, id int64) (*models.Request, error) {
	var out models.Request
	if err := c.do(ctx, http.MethodGet, "/requests/"+strconv.FormatInt(id, 10), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateStatus submits a status change. A 409 means the stored status moved under the caller.
func (c *Client) UpdateStatus(ctx context.Context, id int64, payload dto.UpdateStatusPayload) (*models.Request, error) {
	var out models.Request
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/requests/%d/status", id), nil, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListStatusLogs fetches status history, optionally scoped to a user or request.
func (c *Client) ListStatusLogs(ctx context.Context, query dto.StatusLogQuery) ([]models.StatusLogEntry, error) {
	values := url.Values{}
	setIfPresent(values, "userId", query.UserID)
	if query.RequestID > 0 {
		values.Set("requestId", strconv.FormatInt(query.RequestID, 10))
	}
	var out []models.StatusLogEntry
	if err := c.do(ctx, http.MethodGet, "/request-status-logs", values, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Activity fetches the formatted activity feed.
func (c *Client) Activity(ctx context.Context) ([]models.ActivityItem, error) {
	var out []models.ActivityItem
	if err := c.do(ctx, http.MethodGet, "/activity", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PaymentByRequest returns the proof of payment of a request, or nil when none was uploaded.
func (c *Client) PaymentByRequest(ctx context.Context, requestID int64) (*models.Payment, error) {
	var out models.Payment
	if err := c.do(ctx, http.MethodGet, "/payments/request/"+strconv.FormatInt(requestID, 10), nil, nil, &out); err != nil {
		if appErrors.FromError(err).Code == appErrors.ErrNotFound.Code {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

// ListDocuments fetches the document catalogue.
func (c *Client) ListDocuments(ctx context.Context) ([]models.DocumentType, error) {
	var out []models.DocumentType
	if err := c.do(ctx, http.MethodGet, "/documents", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ClaimSlip fetches the claim slip of a ready request.
func (c *Client) ClaimSlip(ctx context.Context, id int64) (*models.ClaimSlip, error) {
	var out models.ClaimSlip
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/requests/%d/claim-slip", id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body interface{}, out interface{}) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to encode payload")
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "failed to obtain access token")
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		c.logger.Warn("api call failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return appErrors.Wrap(err, ErrNetwork.Code, ErrNetwork.Status, ErrNetwork.Message)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return appErrors.Wrap(err, ErrNetwork.Code, ErrNetwork.Status, "failed to read response")
	}
	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil && resp.StatusCode < http.StatusBadRequest {
			return appErrors.Wrap(err, ErrServer.Code, resp.StatusCode, "malformed response body")
		}
	}

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		message := ErrServer.Message
		var cause error
		if env.Error != nil {
			message = env.Error.Message
			cause = env.Error
		}
		c.logger.Warn("api server error", zap.String("method", method), zap.String("path", path), zap.Int("status", resp.StatusCode))
		return appErrors.Wrap(cause, ErrServer.Code, resp.StatusCode, message)
	case resp.StatusCode >= http.StatusBadRequest:
		if env.Error != nil {
			if env.Error.Status == 0 {
				env.Error.Status = resp.StatusCode
			}
			return env.Error
		}
		return statusError(resp.StatusCode)
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return appErrors.Wrap(err, ErrServer.Code, resp.StatusCode, "unexpected response payload")
	}
	return nil
}

func statusError(status int) *appErrors.Error {
	switch status {
	case http.StatusNotFound:
		return appErrors.ErrNotFound
	case http.StatusConflict:
		return appErrors.ErrConflict
	case http.StatusUnauthorized:
		return appErrors.ErrUnauthorized
	case http.StatusForbidden:
		return appErrors.ErrForbidden
	case http.StatusUnprocessableEntity:
		return appErrors.ErrInvalidTransition
	default:
		return appErrors.New(appErrors.ErrValidation.Code, status, http.StatusText(status))
	}
}

func setIfPresent(values url.Values, key, value string) {
	if value = strings.TrimSpace(value); value != "" {
		values.Set(key, value)
	}
}

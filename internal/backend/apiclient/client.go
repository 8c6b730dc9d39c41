package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/slok/inferctl/internal/backend"
	"github.com/slok/inferctl/internal/log"
	"github.com/slok/inferctl/internal/model"
)

const (
	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second
	// DefaultRetries is the default number of retries of idempotent requests.
	DefaultRetries = 3

	defaultRetryBaseDelay = 250 * time.Millisecond
	maxRetryDelay         = 5 * time.Second
)

// ClientConfig configures the orchestration API client.
type ClientConfig struct {
	// BaseURL is the orchestration API URL (e.g. "http://localhost:8080").
	BaseURL    string
	HTTPClient *http.Client
	// Retries is the number of retries of GET requests on 429 and 5xx responses.
	// Negative disables retries.
	Retries        int
	RetryBaseDelay time.Duration
	Logger         log.Logger
}

func (c *ClientConfig) defaults() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base url is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid base url %q", c.BaseURL)
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")

	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: DefaultTimeout}
	}
	if c.Retries == 0 {
		c.Retries = DefaultRetries
	}
	if c.Retries < 0 {
		c.Retries = 0
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = defaultRetryBaseDelay
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "backend.APIClient"})

	return nil
}

// Client implements backend.Backend over the orchestration HTTP API.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	retries        int
	retryBaseDelay time.Duration
	logger         log.Logger
}

var _ backend.Backend = &Client{}

// NewClient creates a new orchestration API client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Client{
		baseURL:        cfg.BaseURL,
		httpClient:     cfg.HTTPClient,
		retries:        cfg.Retries,
		retryBaseDelay: cfg.RetryBaseDelay,
		logger:         cfg.Logger,
	}, nil
}

// APIError is a non successful response of the API. The message is the
// error the server sent.
type APIError struct {
	StatusCode int
	Message    string

	retryAfter time.Duration
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return e.Message
}

// Unwrap maps the status to the domain errors.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return model.ErrNotFound
	case http.StatusConflict:
		return model.ErrAlreadyExists
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return model.ErrNotValid
	}
	return nil
}

// --- JSON wire types ---

type modelJSON struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Task      string `json:"task"`
	SizeBytes int64  `json:"size_bytes"`
}

type modelListJSON struct {
	Models []modelJSON `json:"models"`
}

type launchRequestJSON struct {
	Task    string            `json:"task"`
	Options map[string]string `json:"options"`
}

type serviceHandleJSON struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Endpoint string `json:"endpoint"`
}

type serviceJSON struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Task      string    `json:"task"`
	Model     string    `json:"model"`
	Status    string    `json:"status"`
	Endpoint  string    `json:"endpoint"`
	CreatedAt time.Time `json:"created_at"`
}

type serviceListJSON struct {
	Services []serviceJSON `json:"services"`
}

type fileEntryJSON struct {
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	IsDir      bool      `json:"is_dir"`
	SizeBytes  int64     `json:"size_bytes"`
	ModifiedAt time.Time `json:"modified_at"`
}

type fileListJSON struct {
	Entries []fileEntryJSON `json:"entries"`
}

type errorJSON struct {
	Error string `json:"error"`
}

// --- backend.Backend implementation ---

func (c *Client) ListModels(ctx context.Context, profile model.ServiceProfile, task model.TaskType) ([]model.Model, error) {
	q := url.Values{"task": []string{string(task)}}
	var resp modelListJSON
	if err := c.getJSON(ctx, c.url("/api/models", profile, q), &resp); err != nil {
		return nil, err
	}

	models := make([]model.Model, 0, len(resp.Models))
	for _, m := range resp.Models {
		models = append(models, model.Model{ID: m.ID, Name: m.Name, Task: model.TaskType(m.Task), SizeBytes: m.SizeBytes})
	}
	return models, nil
}

func (c *Client) Launch(ctx context.Context, profile model.ServiceProfile, task model.TaskType, opts model.ContainerOptions) (*model.ServiceHandle, error) {
	body, err := json.Marshal(launchRequestJSON{Task: string(task), Options: opts})
	if err != nil {
		return nil, fmt.Errorf("could not marshal launch request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/api/services", profile, nil), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	data, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var h serviceHandleJSON
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("parsing launch response: %w", err)
	}
	if h.ID == "" {
		return nil, fmt.Errorf("launch response without service id")
	}

	return &model.ServiceHandle{ID: h.ID, Name: h.Name, Endpoint: h.Endpoint}, nil
}

func (c *Client) ListServices(ctx context.Context, profile model.ServiceProfile) ([]model.Service, error) {
	var resp serviceListJSON
	if err := c.getJSON(ctx, c.url("/api/services", profile, nil), &resp); err != nil {
		return nil, err
	}

	svcs := make([]model.Service, 0, len(resp.Services))
	for _, s := range resp.Services {
		svcs = append(svcs, model.Service{
			ID:        s.ID,
			Name:      s.Name,
			Task:      model.TaskType(s.Task),
			Model:     s.Model,
			Status:    model.ServiceStatus(s.Status),
			Endpoint:  s.Endpoint,
			CreatedAt: s.CreatedAt,
		})
	}
	return svcs, nil
}

func (c *Client) StopService(ctx context.Context, profile model.ServiceProfile, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.url("/api/services/"+url.PathEscape(id), profile, nil), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	_, err = c.do(req)
	return err
}

func (c *Client) ListFiles(ctx context.Context, profile model.ServiceProfile, dir string) ([]model.FileEntry, error) {
	q := url.Values{"path": []string{dir}}
	var resp fileListJSON
	if err := c.getJSON(ctx, c.url("/api/files", profile, q), &resp); err != nil {
		return nil, err
	}

	entries := make([]model.FileEntry, 0, len(resp.Entries))
	for _, e := range resp.Entries {
		entries = append(entries, model.FileEntry{
			Name:       e.Name,
			Path:       e.Path,
			IsDir:      e.IsDir,
			SizeBytes:  e.SizeBytes,
			ModifiedAt: e.ModifiedAt,
		})
	}
	return entries, nil
}

func (c *Client) ReadFile(ctx context.Context, profile model.ServiceProfile, kind model.FileKind, path string) ([]byte, error) {
	q := url.Values{"path": []string{path}}
	return c.get(ctx, c.url("/api/"+string(kind), profile, q))
}

func (c *Client) UploadFile(ctx context.Context, profile model.ServiceProfile, upload backend.FileUpload) error {
	return c.sendFile(ctx, http.MethodPost, profile, upload)
}

func (c *Client) ReplaceFile(ctx context.Context, profile model.ServiceProfile, upload backend.FileUpload) error {
	return c.sendFile(ctx, http.MethodPut, profile, upload)
}

func (c *Client) DeleteFile(ctx context.Context, profile model.ServiceProfile, kind model.FileKind, path string) error {
	q := url.Values{"path": []string{path}}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.url("/api/"+string(kind), profile, q), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	_, err = c.do(req)
	return err
}

// --- HTTP helpers ---

// url builds an API URL, the profile is only sent for non local profiles.
func (c *Client) url(path string, profile model.ServiceProfile, q url.Values) string {
	if q == nil {
		q = url.Values{}
	}
	if !profile.IsLocal() && profile.Name != "" {
		q.Set("profile", profile.Name)
	}

	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

// sendFile streams a multipart form with the file and its destination path.
func (c *Client) sendFile(ctx context.Context, method string, profile model.ServiceProfile, upload backend.FileUpload) error {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := func() error {
			if err := mw.WriteField("path", upload.Path); err != nil {
				return err
			}
			fw, err := mw.CreateFormFile("file", upload.Name)
			if err != nil {
				return err
			}
			if upload.Content != nil {
				if _, err := io.Copy(fw, upload.Content); err != nil {
					return err
				}
			}
			return mw.Close()
		}()
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, method, c.url("/api/"+string(upload.Kind), profile, nil), pr)
	if err != nil {
		pr.Close()
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	_, err = c.do(req)
	return err
}

func (c *Client) getJSON(ctx context.Context, url string, dst any) error {
	data, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parsing response from %s: %w", url, err)
	}
	return nil
}

// get makes a GET request retrying on throttling and server errors.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}

		data, err := c.do(req)
		if err == nil {
			return data, nil
		}

		var apiErr *APIError
		if attempt >= c.retries || !errors.As(err, &apiErr) || !retryable(apiErr.StatusCode) {
			return nil, err
		}

		delay := c.retryDelay(attempt, apiErr)
		c.logger.Debugf("retrying %s in %s after HTTP %d", url, delay, apiErr.StatusCode)

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(data),
			retryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	return data, nil
}

func (c *Client) retryDelay(attempt int, apiErr *APIError) time.Duration {
	if apiErr.retryAfter > 0 {
		return min(apiErr.retryAfter, maxRetryDelay)
	}
	return min(c.retryBaseDelay<<attempt, maxRetryDelay)
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// errorMessage returns the error of a JSON error body or the body text.
func errorMessage(body []byte) string {
	var e errorJSON
	if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(body))
}

func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

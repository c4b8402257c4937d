package video

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"azure-prompt/internal/llm"

	"github.com/rs/zerolog"
)

const (
	jobsPath = "/openai/v1/video/generations/jobs"

	defaultPollInterval = 3 * time.Second
	defaultTimeout      = 10 * time.Minute

	minDimension = 64
	maxDimension = 1080
	minSeconds   = 1
	maxSeconds   = 60
)

var (
	ErrJobFailed  = errors.New("video job failed")
	ErrJobTimeout = errors.New("timed out waiting for the video job to complete")
)

var (
	succeededStates = map[string]bool{"succeeded": true, "completed": true, "done": true}
	failedStates    = map[string]bool{"failed": true, "error": true, "cancelled": true}
)

type Config struct {
	Endpoint     string
	APIKey       string
	APIVersion   string
	Deployment   string
	PollInterval time.Duration
	Timeout      time.Duration
	HTTPClient   *http.Client
	Logger       *zerolog.Logger
}

type Request struct {
	Prompt  string
	Width   int
	Height  int
	Seconds int
}

type Result struct {
	JobID        string
	GenerationID string
	Video        []byte
}

// Client runs one video generation job at a time: create, poll, download.
type Client struct {
	endpoint     string
	apiKey       string
	apiVersion   string
	deployment   string
	pollInterval time.Duration
	timeout      time.Duration
	httpClient   *http.Client
	logger       *zerolog.Logger
}

func NewClient(cfg Config) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.New("azure openai endpoint is required")
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, &llm.APIError{Kind: llm.ErrAuthentication, Message: "azure openai api key is required"}
	}
	deployment := strings.TrimSpace(cfg.Deployment)
	if deployment == "" {
		return nil, errors.New("video deployment name is required")
	}
	apiVersion := strings.TrimSpace(cfg.APIVersion)
	if apiVersion == "" {
		return nil, errors.New("video api version is required")
	}
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}
	logger := cfg.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Client{
		endpoint:     endpoint,
		apiKey:       apiKey,
		apiVersion:   apiVersion,
		deployment:   deployment,
		pollInterval: pollInterval,
		timeout:      timeout,
		httpClient:   client,
		logger:       logger,
	}, nil
}

func (r Request) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return errors.New("video prompt is required")
	}
	if r.Width < minDimension || r.Width > maxDimension {
		return fmt.Errorf("invalid width %d (must be between %d and %d)", r.Width, minDimension, maxDimension)
	}
	if r.Height < minDimension || r.Height > maxDimension {
		return fmt.Errorf("invalid height %d (must be between %d and %d)", r.Height, minDimension, maxDimension)
	}
	if r.Seconds < minSeconds || r.Seconds > maxSeconds {
		return fmt.Errorf("invalid duration %ds (must be between %d and %d)", r.Seconds, minSeconds, maxSeconds)
	}
	return nil
}

func (c *Client) Generate(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}
	jobsURL, err := BuildJobsURL(c.endpoint, c.apiVersion)
	if err != nil {
		return Result{}, err
	}

	jobID, err := c.createJob(ctx, jobsURL, req)
	if err != nil {
		return Result{}, err
	}
	c.logger.Info().Str("jobID", jobID).Msg("video job created")

	statusURL, err := BuildStatusURL(jobsURL, jobID)
	if err != nil {
		return Result{}, err
	}
	job, err := c.waitForJob(ctx, statusURL)
	if err != nil {
		return Result{}, err
	}
	generationID := job.firstGenerationID()
	if generationID == "" {
		return Result{}, fmt.Errorf("%w: job %s completed without a generation id", ErrJobFailed, jobID)
	}
	c.logger.Info().Str("jobID", jobID).Str("generationID", generationID).Msg("video generation succeeded")

	contentURL := ContentURL(c.endpoint, generationID, c.apiVersion)
	data, err := c.download(ctx, contentURL)
	if err != nil {
		return Result{}, fmt.Errorf("download video: %w", err)
	}
	c.logger.Info().Int("bytes", len(data)).Msg("video downloaded")
	return Result{
		JobID:        jobID,
		GenerationID: generationID,
		Video:        data,
	}, nil
}

func (c *Client) createJob(ctx context.Context, jobsURL string, req Request) (string, error) {
	payload := createJobRequest{
		Model:     c.deployment,
		Prompt:    strings.TrimSpace(req.Prompt),
		Height:    strconv.Itoa(req.Height),
		Width:     strconv.Itoa(req.Width),
		NSeconds:  strconv.Itoa(req.Seconds),
		NVariants: "1",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, jobsURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(httpReq)
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", networkError(err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < http.StatusOK || httpResp.StatusCode >= http.StatusMultipleChoices {
		return "", readError(httpResp.Body, httpResp.StatusCode)
	}
	var job jobResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&job); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	jobID := job.id()
	if jobID == "" {
		return "", fmt.Errorf("%w: could not read job id from response", llm.ErrAPI)
	}
	return jobID, nil
}

func (c *Client) waitForJob(ctx context.Context, statusURL string) (jobResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return jobResponse{}, ErrJobTimeout
			}
			return jobResponse{}, ctx.Err()
		case <-ticker.C:
		}

		job, err := c.pollJob(ctx, statusURL)
		if err != nil {
			if errors.Is(err, llm.ErrAuthentication) || errors.Is(err, llm.ErrNotFound) {
				return jobResponse{}, err
			}
			if ctx.Err() == nil {
				c.logger.Warn().Err(err).Msg("polling video job")
			}
			continue
		}
		state := job.state()
		c.logger.Debug().Str("state", state).Msg("video job status")
		switch {
		case succeededStates[state]:
			return job, nil
		case failedStates[state]:
			return jobResponse{}, fmt.Errorf("%w: job ended with status %s", ErrJobFailed, state)
		}
	}
}

func (c *Client) pollJob(ctx context.Context, statusURL string) (jobResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
	if err != nil {
		return jobResponse{}, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(httpReq)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return jobResponse{}, networkError(err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode >= http.StatusBadRequest {
		return jobResponse{}, readError(httpResp.Body, httpResp.StatusCode)
	}
	var job jobResponse
	if !strings.HasPrefix(httpResp.Header.Get("Content-Type"), "application/json") {
		return job, nil
	}
	if err := json.NewDecoder(httpResp.Body).Decode(&job); err != nil {
		return jobResponse{}, fmt.Errorf("decode status: %w", err)
	}
	return job, nil
}

func (c *Client) download(ctx context.Context, contentURL string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, contentURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(httpReq)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, networkError(err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < http.StatusOK || httpResp.StatusCode >= http.StatusMultipleChoices {
		return nil, readError(httpResp.Body, httpResp.StatusCode)
	}
	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, networkError(err)
	}
	return data, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")
}

// BuildJobsURL keeps an endpoint that already points at the jobs API and
// otherwise appends the jobs path. api-version is always set.
func BuildJobsURL(endpoint, apiVersion string) (string, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return "", errors.New("azure openai endpoint is required")
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint: %w", err)
	}
	p := strings.TrimRight(u.Path, "/")
	if !strings.Contains(p, "/video/generations/jobs") {
		p += jobsPath
	}
	u.Path = p
	u.RawPath = ""
	query := u.Query()
	query.Set("api-version", apiVersion)
	u.RawQuery = query.Encode()
	return u.String(), nil
}

// BuildStatusURL appends the job id to a jobs URL, preserving its query.
func BuildStatusURL(createURL, jobID string) (string, error) {
	u, err := url.Parse(createURL)
	if err != nil {
		return "", fmt.Errorf("invalid jobs url: %w", err)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/" + url.PathEscape(jobID)
	u.RawPath = ""
	return u.String(), nil
}

func ContentURL(endpoint, generationID, apiVersion string) string {
	query := url.Values{"api-version": []string{apiVersion}}
	return fmt.Sprintf("%s/openai/v1/video/generations/%s/content/video?%s",
		llm.ResourceEndpoint(endpoint), url.PathEscape(generationID), query.Encode())
}

func readError(body io.Reader, status int) error {
	var resp errorResponse
	_ = json.NewDecoder(body).Decode(&resp)
	return llm.StatusError(status, resp.Error.Message)
}

func networkError(err error) error {
	return &llm.APIError{Kind: llm.ErrNetwork, Err: err}
}

type createJobRequest struct {
	Model     string `json:"model"`
	Prompt    string `json:"prompt"`
	Height    string `json:"height"`
	Width     string `json:"width"`
	NSeconds  string `json:"n_seconds"`
	NVariants string `json:"n_variants"`
}

// jobResponse tolerates the field names used across preview API versions.
type jobResponse struct {
	ID        string `json:"id"`
	JobID     string `json:"job_id"`
	Status    string `json:"status"`
	State     string `json:"state"`
	JobStatus string `json:"job_status"`
	Data      *struct {
		ID string `json:"id"`
	} `json:"data,omitempty"`
	Generations []struct {
		ID string `json:"id"`
	} `json:"generations"`
}

func (j jobResponse) id() string {
	switch {
	case j.ID != "":
		return j.ID
	case j.JobID != "":
		return j.JobID
	case j.Data != nil:
		return j.Data.ID
	}
	return ""
}

func (j jobResponse) state() string {
	switch {
	case j.Status != "":
		return j.Status
	case j.State != "":
		return j.State
	}
	return j.JobStatus
}

func (j jobResponse) firstGenerationID() string {
	if len(j.Generations) == 0 {
		return ""
	}
	return j.Generations[0].ID
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/Veraticus/sakhi/internal/common"
	"github.com/Veraticus/sakhi/internal/model"
	"github.com/bytedance/sonic"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// DefaultBaseURL is where the classification service listens by default.
const DefaultBaseURL = "http://127.0.0.1:8000"

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 4 << 20

// Config holds configuration for the transport client.
type Config struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	RetryDelay time.Duration
	MaxRetries int
	RateLimit  int
	RateBurst  int
}

// Response is a completed HTTP exchange. Non-2xx statuses are not errors at
// this layer.
type Response struct {
	Body       []byte
	RequestID  string
	StatusCode int
}

// OK reports whether the status is 2xx.
func (r Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client sends verification requests.
type Client struct {
	httpClient  *http.Client
	rateLimiter *rateLimiter
	logger      *slog.Logger
	baseURL     string
	token       string
	retryOpts   common.RetryOptions
}

// NewClient creates a transport client.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("%w: api base URL %q must start with http:// or https://", common.ErrInvalidConfig, cfg.BaseURL)
	}

	// MaxRetries counts attempts after the first.
	retryOpts := common.RetryOptions{
		MaxAttempts:  max(cfg.MaxRetries, 0) + 1,
		InitialDelay: cfg.RetryDelay,
	}

	return &Client{
		baseURL:     baseURL,
		token:       cfg.Token,
		logger:      logger,
		retryOpts:   retryOpts,
		rateLimiter: newRateLimiter(cfg.RateLimit, cfg.RateBurst),
		httpClient: &http.Client{
			// Zero means the transport default: no client-side timeout.
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

// Close drops idle keep-alive connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// Post sends one verification request for the endpoint.
//
// The returned error is non-nil only for transport failures (the request
// could not be built, sent, or its body read) and for rate limiting. Those
// errors wrap common.ErrConnectivity or common.ErrRateLimit.
func (c *Client) Post(ctx context.Context, ep Endpoint, in model.RawInput) (Response, error) {
	requestID := uuid.NewString()

	var resp Response
	err := common.WithRetry(ctx, func() error {
		var attemptErr error
		resp, attemptErr = c.do(ctx, ep, in, requestID)
		return attemptErr
	}, c.retryOpts)
	if err != nil {
		return Response{RequestID: requestID}, err
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, ep Endpoint, in model.RawInput, requestID string) (Response, error) {
	if err := c.rateLimiter.wait(ctx, ep.Path); err != nil {
		return Response{}, err
	}

	body, contentType, err := encodeBody(ep, in)
	if err != nil {
		return Response{}, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ep.Path, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("%w: failed to create request: %v", common.ErrConnectivity, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return Response{}, err
		}
		c.logger.Warn("request failed", "path", ep.Path, "request_id", requestID, "error", err)
		return Response{}, &common.RetryableError{
			Err:       fmt.Errorf("%w: request failed: %v", common.ErrConnectivity, err),
			Retryable: true,
		}
	}
	defer func() { _ = httpResp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
	if err != nil {
		return Response{}, &common.RetryableError{
			Err:       fmt.Errorf("%w: failed to read response: %v", common.ErrConnectivity, err),
			Retryable: true,
		}
	}

	c.logger.Debug("response received",
		"path", ep.Path,
		"request_id", requestID,
		"status", httpResp.StatusCode,
		"bytes", len(data),
		"duration", time.Since(start))

	return Response{StatusCode: httpResp.StatusCode, Body: data, RequestID: requestID}, nil
}

func encodeBody(ep Endpoint, in model.RawInput) ([]byte, string, error) {
	if ep.Multipart {
		return encodeMultipart(ep.Field, in.Filename, in.Image)
	}
	body, err := sonic.Marshal(map[string]string{ep.Field: in.Text})
	if err != nil {
		return nil, "", err
	}
	return body, "application/json", nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func encodeMultipart(field, filename string, data []byte) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if filename == "" {
		filename = "upload"
	}

	// The service rejects parts that are not image/*, so sniff the bytes
	// instead of trusting the file extension.
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="%s"; filename="%s"`, quoteEscaper.Replace(field), quoteEscaper.Replace(filename)))
	header.Set("Content-Type", mimetype.Detect(data).String())

	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

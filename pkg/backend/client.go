package backend

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
	"strings"
	"time"

	"github.com/Dhruv3sood/finq/internal/pkg/logger"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const PresentationMIME = "application/vnd.openxmlformats-officedocument.presentationml.presentation"

// Client talks to one backend mount point (e.g. http://host/api/rag).
// It is stateless and safe for concurrent use.
type Client struct {
	BaseURL string
	// HealthURL is served once per backend, beside the mounts
	// (http://host/api/health).
	HealthURL string
	Client    *http.Client

	logger logger.ILogger
	tracer trace.Tracer
}

func NewClient(baseURL string, timeout time.Duration, logger logger.ILogger) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	return &Client{
		BaseURL:   baseURL,
		HealthURL: healthURL(baseURL),
		Client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
		tracer: otel.Tracer("github.com/Dhruv3sood/finq/pkg/backend"),
	}
}

// healthURL replaces the mount segment of baseURL with "health".
func healthURL(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return baseURL + "/health"
	}
	p := strings.TrimRight(u.Path, "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		p = p[:i]
	}
	u.Path = p + "/health"
	u.RawPath = ""
	return u.String()
}

type rawResponse struct {
	status int
	header http.Header
	body   []byte
}

func (c *Client) do(ctx context.Context, op, method, target string, body io.Reader, contentType string) (*rawResponse, error) {
	ctx, span := c.tracer.Start(ctx, "backend."+op, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	requestID := uuid.NewString()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("url.full", target),
		attribute.String("request.id", requestID),
	)

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.Client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failure")
		c.logger.Error("BACKEND", "Request failed", map[string]interface{}{
			"op":         op,
			"request_id": requestID,
			"error":      err.Error(),
		})
		return nil, fmt.Errorf("%s request failed: %w: %w", op, ErrTransport, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failure")
		return nil, fmt.Errorf("read %s response: %w: %w", op, ErrTransport, err)
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode >= 400 {
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
	}
	c.logger.Debug("BACKEND", "Request completed", map[string]interface{}{
		"op":          op,
		"request_id":  requestID,
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return &rawResponse{status: resp.StatusCode, header: resp.Header, body: respBody}, nil
}

// decodeEnvelope applies the success/error envelope rules and, on success,
// unmarshals the body into out.
func decodeEnvelope(op string, raw *rawResponse, out interface{}) error {
	var env envelope
	if err := json.Unmarshal(raw.body, &env); err != nil {
		if raw.status >= 300 {
			return fmt.Errorf("%s: %w: status %d", op, ErrUnexpectedStatus, raw.status)
		}
		return fmt.Errorf("%s: %w: %v", op, ErrMalformedResponse, err)
	}

	message := envelopeMessage(env)

	if env.Success == nil {
		if message != "" {
			return &APIError{Op: op, StatusCode: raw.status, Message: message, Missing: true}
		}
		return fmt.Errorf("%s: %w: missing success flag", op, ErrMalformedResponse)
	}

	if !*env.Success {
		if message == "" {
			message = "The server could not complete the request."
		}
		return &APIError{Op: op, StatusCode: raw.status, Message: message}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw.body, out); err != nil {
		return fmt.Errorf("%s: %w: %v", op, ErrMalformedResponse, err)
	}
	return nil
}

func envelopeMessage(env envelope) string {
	if strings.TrimSpace(env.Error) != "" {
		return env.Error
	}
	var parts []string
	for _, raw := range env.Errors {
		var s string
		if json.Unmarshal(raw, &s) == nil {
			if s != "" {
				parts = append(parts, s)
			}
			continue
		}
		var obj struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if json.Unmarshal(raw, &obj) == nil {
			if obj.Message != "" {
				parts = append(parts, obj.Message)
			} else if obj.Error != "" {
				parts = append(parts, obj.Error)
			}
		}
	}
	return strings.Join(parts, "; ")
}

func (c *Client) postJSON(ctx context.Context, op, path string, payload, out interface{}) error {
	if err := Validate(payload); err != nil {
		return err
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	raw, err := c.do(ctx, op, http.MethodPost, c.BaseURL+path, bytes.NewReader(payloadBytes), "application/json")
	if err != nil {
		return err
	}
	return decodeEnvelope(op, raw, out)
}

func (c *Client) getJSON(ctx context.Context, op, path string, out interface{}) error {
	raw, err := c.do(ctx, op, http.MethodGet, c.BaseURL+path, nil, "")
	if err != nil {
		return err
	}
	return decodeEnvelope(op, raw, out)
}

// Health reports whether the backend answers its health check.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	raw, err := c.do(ctx, "health", http.MethodGet, c.HealthURL, nil, "")
	if err != nil {
		return nil, err
	}
	if raw.status != http.StatusOK {
		return nil, fmt.Errorf("health: %w: status %d", ErrUnexpectedStatus, raw.status)
	}
	var out HealthResponse
	if err := json.Unmarshal(raw.body, &out); err != nil {
		return nil, fmt.Errorf("health: %w: %v", ErrMalformedResponse, err)
	}
	return &out, nil
}

// Upload sends the documents as one multipart request.
func (c *Client) Upload(ctx context.Context, req UploadRequest) (*UploadResponse, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, part := range req.Parts {
		fw, err := writer.CreateFormFile(part.Field, part.Filename)
		if err != nil {
			return nil, fmt.Errorf("create form file %s: %w", part.Field, err)
		}
		if _, err := fw.Write(part.Data); err != nil {
			return nil, fmt.Errorf("write form file %s: %w", part.Field, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	raw, err := c.do(ctx, "upload", http.MethodPost, c.BaseURL+"/upload", &buf, writer.FormDataContentType())
	if err != nil {
		return nil, err
	}

	var out UploadResponse
	if err := decodeEnvelope("upload", raw, &out); err != nil {
		return nil, err
	}
	if out.SessionID == "" {
		return nil, fmt.Errorf("upload: %w: missing session_id", ErrMalformedResponse)
	}
	return &out, nil
}

func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	var out ChatResponse
	if err := c.postJSON(ctx, "chat", "/chat", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Recommendations(ctx context.Context, sessionID string) ([]string, error) {
	var out RecommendationsResponse
	if err := c.getJSON(ctx, "recommendations", "/recommendations/"+url.PathEscape(sessionID), &out); err != nil {
		return nil, err
	}
	return out.Slides(), nil
}

func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	var out GenerateResponse
	if err := c.postJSON(ctx, "generate", "/generate", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Preview(ctx context.Context, sessionID string) (*PreviewResponse, error) {
	var out PreviewResponse
	if err := c.getJSON(ctx, "preview", "/preview/"+url.PathEscape(sessionID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Download fetches the generated presentation. A JSON body is always an error
// envelope, never a file.
func (c *Client) Download(ctx context.Context, sessionID string) (*Artifact, error) {
	raw, err := c.do(ctx, "download", http.MethodGet, c.BaseURL+"/download/"+url.PathEscape(sessionID), nil, "")
	if err != nil {
		return nil, err
	}

	contentType := raw.header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if mediaType == "application/json" || raw.status >= 300 {
		if err := decodeEnvelope("download", raw, nil); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("download: %w: expected a file", ErrMalformedResponse)
	}

	filename := "presentation_" + sessionID + ".pptx"
	if _, params, err := mime.ParseMediaType(raw.header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		filename = params["filename"]
	}
	if contentType == "" {
		contentType = PresentationMIME
	}

	return &Artifact{Filename: filename, ContentType: contentType, Data: raw.body}, nil
}

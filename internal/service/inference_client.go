package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MitaksharaYadav/NetraAI/internal/domain"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Inference failure classes. All of them reach the user as the same
// generic message; the class only shows up in logs.
var (
	ErrInferenceUnavailable = errors.New("inference server unavailable")
	ErrInferenceStatus      = errors.New("inference server returned error status")
	ErrMalformedResponse    = errors.New("malformed inference response")
)

// InferenceClient analyzes one fundus image.
type InferenceClient interface {
	Analyze(ctx context.Context, fileName string, image []byte) (*domain.DiagnosticResult, error)
}

// analyzeResponse body of POST /analyze. Pointers detect missing fields.
type analyzeResponse struct {
	Condition   *string  `json:"condition"`
	Severity    *float64 `json:"severity"`
	Confidence  *float64 `json:"confidence"`
	Regions     []string `json:"regions"`
	Description string   `json:"description"`
	RawScore    *float64 `json:"raw_score"`
}

// HTTPInferenceClient talks to the external analysis backend.
type HTTPInferenceClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewHTTPInferenceClient one attempt per submission, no retries.
func NewHTTPInferenceClient(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPInferenceClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")

	return &HTTPInferenceClient{
		httpClient: client,
		logger:     logger,
	}
}

var _ InferenceClient = (*HTTPInferenceClient)(nil)

func (c *HTTPInferenceClient) Analyze(ctx context.Context, fileName string, image []byte) (*domain.DiagnosticResult, error) {
	if fileName == "" {
		fileName = "fundus.jpg"
	}

	c.logger.Debug("Calling inference API: analyze",
		zap.String("file_name", fileName),
		zap.Int("size_bytes", len(image)),
	)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetFileReader("file", fileName, bytes.NewReader(image)).
		Post("/analyze")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInferenceUnavailable, err)
	}

	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: status %d", ErrInferenceStatus, resp.StatusCode())
	}

	result, err := parseAnalyzeResponse(resp.Body())
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Inference API returned result",
		zap.String("condition", result.Condition),
		zap.Int("severity", result.Severity),
		zap.Float64("confidence", result.Confidence),
	)
	return result, nil
}

// parseAnalyzeResponse decodes and validates a backend payload.
func parseAnalyzeResponse(body []byte) (*domain.DiagnosticResult, error) {
	var raw analyzeResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if raw.Condition == nil || strings.TrimSpace(*raw.Condition) == "" {
		return nil, fmt.Errorf("%w: missing condition", ErrMalformedResponse)
	}
	if raw.Severity == nil {
		return nil, fmt.Errorf("%w: missing severity", ErrMalformedResponse)
	}
	if raw.Confidence == nil {
		return nil, fmt.Errorf("%w: missing confidence", ErrMalformedResponse)
	}

	severity, err := domain.NormalizeSeverity(*raw.Severity)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	confidence, err := domain.NormalizeConfidence(*raw.Confidence)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	regions := raw.Regions
	if regions == nil {
		regions = []string{}
	}

	return &domain.DiagnosticResult{
		Condition:   *raw.Condition,
		Severity:    severity,
		Confidence:  confidence,
		Regions:     regions,
		Description: raw.Description,
		RawScore:    raw.RawScore,
	}, nil
}

// errorClass short log label for an inference error.
func errorClass(err error) string {
	switch {
	case errors.Is(err, ErrInferenceUnavailable):
		return "unavailable"
	case errors.Is(err, ErrInferenceStatus):
		return "status"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "unknown"
	}
}

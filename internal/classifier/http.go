// internal/classifier/http.go
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	commonhttp "lead-qualifier-workers/internal/common/http"
	"lead-qualifier-workers/internal/common/logger"
	"lead-qualifier-workers/internal/common/metrics"
)

// HTTPConfig holds connection settings for the zero-shot classification API.
type HTTPConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// HTTPClassifier calls a zero-shot classification endpoint.
type HTTPClassifier struct {
	config *HTTPConfig
	client *commonhttp.Client
	logger logger.Logger
}

func NewHTTPClassifier(config *HTTPConfig, log logger.Logger) *HTTPClassifier {
	return &HTTPClassifier{
		config: config,
		client: commonhttp.NewClient(config.Timeout),
		logger: log.WithFields(map[string]interface{}{"component": "classifier"}),
	}
}

type classifyRequest struct {
	Inputs     string             `json:"inputs"`
	Parameters classifyParameters `json:"parameters"`
}

type classifyParameters struct {
	CandidateLabels []string `json:"candidate_labels"`
	MultiLabel      bool     `json:"multi_label"`
}

type classifyResponse struct {
	Labels []string  `json:"labels"`
	Scores []float64 `json:"scores"`
}

func (c *HTTPClassifier) Classify(ctx context.Context, text string, labels []string) (Scores, error) {
	scores, err := c.classify(ctx, text, labels)
	switch {
	case err == nil:
		metrics.ClassifierRequests.WithLabelValues("success").Inc()
	case errors.Is(err, ErrClassifyTimeout):
		metrics.ClassifierRequests.WithLabelValues("timeout").Inc()
	default:
		metrics.ClassifierRequests.WithLabelValues("error").Inc()
	}
	return scores, err
}

func (c *HTTPClassifier) classify(ctx context.Context, text string, labels []string) (Scores, error) {
	body, err := json.Marshal(classifyRequest{
		Inputs: text,
		Parameters: classifyParameters{
			CandidateLabels: labels,
			MultiLabel:      false,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClassifyFailed, err)
	}

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff between retries
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ErrClassifyTimeout
			}
		}

		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
		if reqErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrClassifyFailed, reqErr)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.config.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
		}

		resp, lastErr = c.client.Do(req)

		// If the context expired during the request, report timeout immediately.
		if ctx.Err() != nil ||
			errors.Is(lastErr, context.DeadlineExceeded) ||
			errors.Is(lastErr, context.Canceled) {
			return nil, ErrClassifyTimeout
		}

		if lastErr == nil {
			if resp.StatusCode == http.StatusOK {
				break
			}
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			resp = nil
		}
	}

	if lastErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrClassifyTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrClassifyFailed, lastErr)
	}
	if resp == nil {
		return nil, fmt.Errorf("%w: no successful response after retries", ErrClassifyFailed)
	}
	defer resp.Body.Close()

	var apiResponse classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrClassifyFailed, err)
	}
	if len(apiResponse.Labels) != len(apiResponse.Scores) || len(apiResponse.Labels) == 0 {
		return nil, fmt.Errorf("%w: malformed response", ErrClassifyFailed)
	}

	scores := make(Scores, len(apiResponse.Labels))
	for i, label := range apiResponse.Labels {
		scores[label] = apiResponse.Scores[i]
	}

	c.logger.Debug("classification completed", map[string]interface{}{
		"labelCount": len(scores),
	})

	return scores, nil
}

func (c *HTTPClassifier) endpoint() string {
	if c.config.Model != "" {
		return c.config.BaseURL + "/models/" + c.config.Model
	}
	return c.config.BaseURL
}

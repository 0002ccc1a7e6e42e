package evidence

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"go.uber.org/zap"

	"github.com/trustpipe/trustpipe/internal/model"
)

const validateMaxRetries = 3

// validateSleepFunc is the sleep function used between retries (injectable for tests)
var validateSleepFunc = time.Sleep

// LinkResult is the outcome of probing one citation URL
type LinkResult struct {
	URL          string `json:"url"`
	IsAccessible bool   `json:"is_accessible"`
	StatusCode   int    `json:"status_code,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Validator probes citation URLs concurrently. Used to validate the source
// links reviewers attach to votes and the evidence URLs the verifier cites.
// It honors robots.txt before touching a host.
type Validator struct {
	httpClient *http.Client
	maxWorkers int
	userAgent  string
	robots     map[string]*robotstxt.RobotsData
	robotsMu   sync.RWMutex
	logger     *zap.Logger
}

// NewValidator creates a link validator
func NewValidator(cfg model.EvidenceConfig, logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	maxWorkers := cfg.CheckWorkers
	if maxWorkers <= 0 {
		maxWorkers = 10
	}
	timeout := cfg.CheckTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Validator{
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		maxWorkers: maxWorkers,
		userAgent:  cfg.UserAgent,
		robots:     make(map[string]*robotstxt.RobotsData),
		logger:     logger,
	}
}

// ValidateAll probes all URLs concurrently
func (v *Validator) ValidateAll(ctx context.Context, urls []string) []LinkResult {
	if len(urls) == 0 {
		return []LinkResult{}
	}

	results := make([]LinkResult, len(urls))
	var wg sync.WaitGroup

	semaphore := make(chan struct{}, v.maxWorkers)

	for i, u := range urls {
		wg.Add(1)
		go func(idx int, rawURL string) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				results[idx] = LinkResult{URL: rawURL, Error: "context cancelled"}
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			results[idx] = v.validateSingleWithRetry(ctx, rawURL)
		}(i, u)
	}

	wg.Wait()
	return results
}

// validateSingle probes a single URL with a HEAD request
func (v *Validator) validateSingle(ctx context.Context, rawURL string) LinkResult {
	result := LinkResult{URL: rawURL}

	if !v.allowedByRobots(ctx, rawURL) {
		result.Error = "disallowed by robots.txt"
		return result
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		result.Error = fmt.Sprintf("create request: %v", err)
		return result
	}
	req.Header.Set("User-Agent", v.userAgent)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		result.Error = fmt.Sprintf("request failed: %v", err)
		return result
	}
	defer func() { _ = resp.Body.Close() }()

	result.StatusCode = resp.StatusCode
	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		result.IsAccessible = true
	}

	return result
}

// validateSingleWithRetry retries transient failures with exponential backoff
func (v *Validator) validateSingleWithRetry(ctx context.Context, rawURL string) LinkResult {
	var result LinkResult
	for attempt := 0; attempt < validateMaxRetries; attempt++ {
		result = v.validateSingle(ctx, rawURL)
		if !isRetryableLinkResult(result) {
			return result
		}
		if attempt < validateMaxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			validateSleepFunc(backoff)
		}
	}
	return result
}

// isRetryableLinkResult returns true for results that indicate transient failures
func isRetryableLinkResult(result LinkResult) bool {
	if result.StatusCode >= 500 && result.StatusCode < 600 {
		return true
	}
	if result.StatusCode == 429 {
		return true
	}
	if result.Error != "" {
		s := strings.ToLower(result.Error)
		return strings.Contains(s, "timeout") ||
			strings.Contains(s, "connection refused") ||
			strings.Contains(s, "connection reset")
	}
	return false
}

// allowedByRobots checks robots.txt for the URL's host, caching per host.
// Unreachable robots.txt allows by default.
func (v *Validator) allowedByRobots(ctx context.Context, rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	v.robotsMu.RLock()
	data, exists := v.robots[parsed.Host]
	v.robotsMu.RUnlock()

	if !exists {
		data = v.fetchRobots(ctx, parsed)
		v.robotsMu.Lock()
		v.robots[parsed.Host] = data
		v.robotsMu.Unlock()
	}

	if data == nil {
		return true
	}
	return data.TestAgent(parsed.Path, v.userAgent)
}

func (v *Validator) fetchRobots(ctx context.Context, parsed *url.URL) *robotstxt.RobotsData {
	robotsURL := fmt.Sprintf("%s://%s/robots.txt", parsed.Scheme, parsed.Host)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", v.userAgent)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		data, _ := robotstxt.FromStatusAndBytes(404, nil)
		return data
	}

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		v.logger.Debug("parse robots.txt failed", zap.String("host", parsed.Host), zap.Error(err))
		return nil
	}
	return data
}

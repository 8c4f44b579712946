package broker

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/vitos/fx_margin_trader/internal/domain"
	"go.uber.org/zap"
)

const (
	// Private API allows roughly 1 req/sec; 1.1s keeps a safety margin.
	defaultMinInterval  = 1100 * time.Millisecond
	defaultMaxRetries   = 5
	defaultRetryBackoff = 500 * time.Millisecond
	defaultTimeout      = 10 * time.Second
)

// retryableStatus lists the HTTP codes worth retrying on read paths.
var retryableStatus = map[int]bool{429: true, 500: true, 502: true, 503: true, 504: true}

// SignedTransport builds authenticated requests against the broker API:
// HMAC signing, a pacing gate serializing authenticated calls, and a
// retry policy that differs by verb. GET calls retry with exponential
// backoff; POST calls never retry, because a write whose outcome is
// unknown must not be resubmitted.
type SignedTransport struct {
	apiKey     string
	apiSecret  string
	publicURL  string
	privateURL string
	client     *http.Client
	log        *zap.Logger

	// armed is re-checked immediately before every private write. It is
	// the last guard before network I/O; the adapter short-circuits
	// earlier, so reaching it disarmed is a bug upstream.
	armed func() bool

	mu       sync.Mutex
	nextSlot time.Time

	minInterval  time.Duration
	maxRetries   int
	retryBackoff time.Duration
	sleep        func(time.Duration)
}

func NewSignedTransport(apiKey, apiSecret, publicURL, privateURL string, armed func() bool, log *zap.Logger) *SignedTransport {
	if armed == nil {
		armed = func() bool { return false }
	}
	return &SignedTransport{
		apiKey:       apiKey,
		apiSecret:    apiSecret,
		publicURL:    publicURL,
		privateURL:   privateURL,
		client:       &http.Client{Timeout: defaultTimeout},
		log:          log,
		armed:        armed,
		minInterval:  defaultMinInterval,
		maxRetries:   defaultMaxRetries,
		retryBackoff: defaultRetryBackoff,
		sleep:        time.Sleep,
	}
}

// sign produces the authentication headers. The signed text is
// timestamp + method + path + body, where body is the exact byte
// sequence sent. GET requests sign with an empty body regardless of
// query parameters.
func (t *SignedTransport) sign(method, path string, body []byte) (map[string]string, error) {
	if t.apiKey == "" || t.apiSecret == "" {
		return nil, &domain.ValidationError{Msg: "API key/secret required for private API"}
	}

	timestamp := strconv.FormatInt(time.Now().UnixMilli(), 10)
	h := hmac.New(sha256.New, []byte(t.apiSecret))
	h.Write([]byte(timestamp + method + path))
	h.Write(body)

	headers := map[string]string{
		"API-KEY":       t.apiKey,
		"API-TIMESTAMP": timestamp,
		"API-SIGN":      hex.EncodeToString(h.Sum(nil)),
	}
	if method == http.MethodPost {
		headers["Content-Type"] = "application/json"
	}
	return headers, nil
}

// waitTurn reserves the next authenticated-call slot. The lock covers
// only the slot computation; the sleep happens outside it.
func (t *SignedTransport) waitTurn() {
	t.mu.Lock()
	now := time.Now()
	slot := t.nextSlot
	if slot.Before(now) {
		slot = now
	}
	t.nextSlot = slot.Add(t.minInterval)
	t.mu.Unlock()

	if d := time.Until(slot); d > 0 {
		t.sleep(d)
	}
}

// Send executes one API exchange and returns the envelope's data field.
// A non-zero envelope status is an APIError and is never retried.
func (t *SignedTransport) Send(ctx context.Context, method, path string, query url.Values, body any, private bool) (json.RawMessage, error) {
	// Final safety guard before any write reaches the wire.
	if private && method != http.MethodGet && !t.armed() {
		return nil, &domain.SafetyBlockedError{Reason: "private " + method + " attempted without armed live trading"}
	}

	var bodyBytes []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyBytes = b
	}

	attempts := 1
	if method == http.MethodGet {
		attempts = t.maxRetries
	}

	backoff := t.retryBackoff
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			t.sleep(backoff)
			backoff *= 2
		}

		data, retryable, err := t.doOnce(ctx, method, path, query, bodyBytes, private)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
		t.log.Warn("request failed, retrying",
			zap.String("path", path),
			zap.Int("attempt", attempt+1),
			zap.Int("max", attempts),
			zap.Error(err))
	}

	if attempts == 1 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("max retries exceeded for %s: %w", path, lastErr)
}

func (t *SignedTransport) doOnce(ctx context.Context, method, path string, query url.Values, bodyBytes []byte, private bool) (json.RawMessage, bool, error) {
	if private {
		t.waitTurn()
	}

	base := t.publicURL
	if private {
		base = t.privateURL
	}
	fullURL := base + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, false, err
	}

	if private {
		headers, err := t.sign(method, path, bodyBytes)
		if err != nil {
			return nil, false, err
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
	} else if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, true, &domain.NetworkError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, &domain.NetworkError{Op: "read " + path, Err: err}
	}

	if resp.StatusCode >= 400 {
		httpErr := &domain.HTTPError{StatusCode: resp.StatusCode, Body: string(respBody)}
		return nil, retryableStatus[resp.StatusCode], httpErr
	}

	var envelope struct {
		Status   int `json:"status"`
		Messages []struct {
			MessageCode   string `json:"message_code"`
			MessageString string `json:"message_string"`
		} `json:"messages"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, false, fmt.Errorf("decode response for %s: %w", path, err)
	}

	if envelope.Status != 0 {
		apiErr := &domain.APIError{Code: "UNKNOWN", Message: "Unknown Error"}
		if len(envelope.Messages) > 0 {
			apiErr.Code = envelope.Messages[0].MessageCode
			apiErr.Message = envelope.Messages[0].MessageString
		}
		return nil, false, apiErr
	}

	return envelope.Data, false, nil
}

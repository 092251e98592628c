package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	healthCheckTimeout   = 10 * time.Second
	createSessionTimeout = 15 * time.Second
	startSessionTimeout  = 20 * time.Second
	sendMessageTimeout   = 20 * time.Second
	typingTimeout        = 10 * time.Second

	defaultKeepAliveInterval = 600 * time.Second

	contactSuffix = "@c.us"
	groupSuffix   = "@g.us"
)

var (
	ErrGatewayNotConfigured = errors.New("WAHA gateway URL is not configured")
	ErrSessionNotReady      = errors.New("WAHA session not ready")
)

// readyStatuses are the session states in which messages can be sent.
var readyStatuses = map[string]bool{
	"working":   true,
	"active":    true,
	"connected": true,
	"ready":     true,
}

// GatewayError reports a non-success HTTP status from the gateway.
type GatewayError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *GatewayError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("WAHA %s failed: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("WAHA %s failed: status %d: %s", e.Op, e.StatusCode, e.Body)
}

type WAHAConfig struct {
	URL               string
	APIKey            string
	Session           string
	KeepAliveInterval time.Duration
}

// WAHAClient talks to a WAHA WhatsApp bridge. Configuration is fixed at
// construction; only the keep-alive state changes afterwards.
type WAHAClient struct {
	url               string
	baseURL           string
	apiKey            string
	sessionName       string
	keepAliveInterval time.Duration
	httpClient        *http.Client

	mu              sync.Mutex
	keepAliveCancel context.CancelFunc
	keepAliveDone   chan struct{}
}

func NewWAHAClient(cfg WAHAConfig, httpClient *http.Client) *WAHAClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	session := cfg.Session
	if session == "" {
		session = "default"
	}
	interval := cfg.KeepAliveInterval
	if interval <= 0 {
		interval = defaultKeepAliveInterval
	}

	return &WAHAClient{
		url:               cfg.URL,
		baseURL:           baseURLFrom(cfg.URL),
		apiKey:            cfg.APIKey,
		sessionName:       session,
		keepAliveInterval: interval,
		httpClient:        httpClient,
	}
}

// baseURLFrom strips an endpoint path such as "/api/sendText" from the
// configured URL.
func baseURLFrom(wahaURL string) string {
	if wahaURL == "" {
		return ""
	}
	if before, _, found := strings.Cut(wahaURL, "/api/"); found {
		return before
	}
	return strings.TrimRight(wahaURL, "/")
}

// NormalizeChatID appends the contact suffix unless the id is already a
// contact or group address.
func NormalizeChatID(phone string) string {
	if strings.Contains(phone, contactSuffix) || strings.Contains(phone, groupSuffix) {
		return phone
	}
	return phone + contactSuffix
}

func (c *WAHAClient) SessionName() string {
	return c.sessionName
}

func (c *WAHAClient) BaseURL() string {
	return c.baseURL
}

func (c *WAHAClient) sessionURL() string {
	return fmt.Sprintf("%s/api/sessions/%s", c.baseURL, c.sessionName)
}

// primaryEndpoint is the configured URL when it names a send endpoint rather
// than just the gateway root.
func (c *WAHAClient) primaryEndpoint() string {
	if c.url == "" || strings.TrimRight(c.url, "/") == c.baseURL {
		return ""
	}
	return c.url
}

func (c *WAHAClient) fallbackEndpoint() string {
	return c.sessionURL() + "/messages/text"
}

func (c *WAHAClient) do(ctx context.Context, method, url string, payload interface{}, timeout time.Duration) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-KEY", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

// HealthCheck reports whether the session can send messages. A missing
// session is created and started, and reported healthy without waiting for
// it to come up. When unhealthy the error says why.
func (c *WAHAClient) HealthCheck(ctx context.Context) (bool, error) {
	if c.baseURL == "" {
		return false, ErrGatewayNotConfigured
	}

	status, body, err := c.do(ctx, http.MethodGet, c.sessionURL(), nil, healthCheckTimeout)
	if err != nil {
		log.Printf("WAHA health check error: %v", err)
		return false, fmt.Errorf("WAHA health check: %w", err)
	}

	switch status {
	case http.StatusOK:
		var data struct {
			Status string `json:"status"`
		}
		if err := json.Unmarshal(body, &data); err != nil {
			return false, fmt.Errorf("WAHA health check: invalid session payload: %w", err)
		}
		state := strings.ToLower(data.Status)
		if readyStatuses[state] {
			return true, nil
		}
		return false, fmt.Errorf("%w: status %q", ErrSessionNotReady, state)

	case http.StatusNotFound:
		if err := c.createSession(ctx); err != nil {
			log.Printf("WAHA create session: %v", err)
		}
		if err := c.startSession(ctx); err != nil {
			log.Printf("WAHA start session: %v", err)
		}
		return true, nil
	}

	return false, &GatewayError{Op: "health check", StatusCode: status, Body: string(body)}
}

func (c *WAHAClient) createSession(ctx context.Context) error {
	status, body, err := c.do(ctx, http.MethodPost, c.sessionURL(), nil, createSessionTimeout)
	if err != nil {
		return err
	}
	switch status {
	case http.StatusOK, http.StatusCreated, http.StatusConflict:
		return nil
	}
	return &GatewayError{Op: "create session", StatusCode: status, Body: string(body)}
}

func (c *WAHAClient) startSession(ctx context.Context) error {
	status, body, err := c.do(ctx, http.MethodPost, c.sessionURL()+"/start", nil, startSessionTimeout)
	if err != nil {
		return err
	}
	switch {
	case status == http.StatusOK || status == http.StatusAccepted:
		return nil
	case status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(string(body)), "already started"):
		return nil
	}
	return &GatewayError{Op: "start session", StatusCode: status, Body: string(body)}
}

type sendTextRequest struct {
	ChatID  string `json:"chatId"`
	Text    string `json:"text"`
	Session string `json:"session"`
}

// SendMessage delivers text to phone, trying the configured endpoint first and
// the session-scoped endpoint second. nil means one of them accepted it.
func (c *WAHAClient) SendMessage(ctx context.Context, phone, text string) error {
	healthy, err := c.HealthCheck(ctx)
	if !healthy {
		log.Printf("WAHA not ready; message to %s not sent", phone)
		if err == nil {
			err = ErrSessionNotReady
		}
		return err
	}

	payload := sendTextRequest{
		ChatID:  NormalizeChatID(phone),
		Text:    text,
		Session: c.sessionName,
	}

	var lastErr error
	endpoints := []string{c.primaryEndpoint(), c.fallbackEndpoint()}
	for _, endpoint := range endpoints {
		if endpoint == "" {
			continue
		}

		status, body, err := c.do(ctx, http.MethodPost, endpoint, payload, sendMessageTimeout)
		if err != nil {
			lastErr = fmt.Errorf("WAHA send message: %w", err)
			log.Printf("WAHA send_message error (%s): %v", endpoint, err)
			continue
		}
		if status == http.StatusOK || status == http.StatusCreated {
			return nil
		}
		lastErr = &GatewayError{Op: "send message", StatusCode: status, Body: string(body)}
		log.Printf("WAHA send_message failed (%s): %d %s", endpoint, status, body)
	}

	return lastErr
}

type typingRequest struct {
	ChatID  string `json:"chatId"`
	Session string `json:"session"`
}

func (c *WAHAClient) setTyping(ctx context.Context, action, phone string) error {
	if c.baseURL == "" {
		return ErrGatewayNotConfigured
	}
	url := fmt.Sprintf("%s/api/%s", c.baseURL, action)
	status, body, err := c.do(ctx, http.MethodPost, url, typingRequest{ChatID: NormalizeChatID(phone), Session: c.sessionName}, typingTimeout)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return &GatewayError{Op: action, StatusCode: status, Body: string(body)}
	}
	return nil
}

func (c *WAHAClient) StartTyping(ctx context.Context, phone string) error {
	return c.setTyping(ctx, "startTyping", phone)
}

func (c *WAHAClient) StopTyping(ctx context.Context, phone string) error {
	return c.setTyping(ctx, "stopTyping", phone)
}

// ShowTyping holds the typing indicator for d, or until ctx is done.
func (c *WAHAClient) ShowTyping(ctx context.Context, phone string, d time.Duration) error {
	if err := c.StartTyping(ctx, phone); err != nil {
		return err
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}

	return c.StopTyping(context.WithoutCancel(ctx), phone)
}

// StartKeepAlive polls HealthCheck every keep-alive interval until
// StopKeepAlive is called or ctx is cancelled. Calling it while the loop is
// running does nothing.
func (c *WAHAClient) StartKeepAlive(ctx context.Context) {
	c.mu.Lock()
	if c.keepAliveCancel != nil {
		c.mu.Unlock()
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.keepAliveCancel = cancel
	c.keepAliveDone = done
	c.mu.Unlock()

	go c.keepAliveLoop(loopCtx, done)
	log.Printf("WAHA keep-alive started (every %s)", c.keepAliveInterval)
}

// StopKeepAlive cancels the loop and waits for it to exit.
func (c *WAHAClient) StopKeepAlive() {
	c.mu.Lock()
	cancel, done := c.keepAliveCancel, c.keepAliveDone
	c.keepAliveCancel = nil
	c.keepAliveDone = nil
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	log.Println("WAHA keep-alive stopped")
}

func (c *WAHAClient) KeepAliveActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.keepAliveCancel != nil
}

func (c *WAHAClient) keepAliveLoop(ctx context.Context, done chan struct{}) {
	defer func() {
		// The parent context may end the loop without StopKeepAlive.
		c.mu.Lock()
		if c.keepAliveDone == done {
			c.keepAliveCancel = nil
			c.keepAliveDone = nil
		}
		c.mu.Unlock()
		close(done)
	}()

	ticker := time.NewTicker(c.keepAliveInterval)
	defer ticker.Stop()

	for {
		ok, err := c.HealthCheck(ctx)
		if ctx.Err() != nil {
			return
		}
		if ok {
			log.Println("WAHA keep-alive: OK")
		} else {
			log.Printf("WAHA keep-alive: NOT READY (%v)", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

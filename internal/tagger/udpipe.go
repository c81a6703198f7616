package tagger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultURL            = "https://lindat.mff.cuni.cz/services/udpipe/api"
	DefaultModel          = "turkish-boun-ud-2.15-241121"
	DefaultConnectTimeout = 25 * time.Second
	DefaultReadTimeout    = 60 * time.Second

	previewLimit = 500
)

// Options configures a UDPipe client. Zero values take the defaults above;
// MaxAttempts below 1 means a single attempt.
type Options struct {
	Model          string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	MaxAttempts    int
	Logger         *slog.Logger
}

// UDPipe calls the UDPipe 2 REST service. Text is tokenized with character
// ranges, tagged and parsed with one model; the CoNLL-U result is returned
// as is.
type UDPipe struct {
	endpoints   *Endpoints
	model       string
	maxAttempts int
	timeout     time.Duration
	log         *slog.Logger

	http *http.Client
}

// NewUDPipe creates a client that spreads calls over endpoints.
func NewUDPipe(endpoints *Endpoints, opts Options) *UDPipe {
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = DefaultReadTimeout
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	dialer := &net.Dialer{Timeout: opts.ConnectTimeout}
	return &UDPipe{
		endpoints:   endpoints,
		model:       opts.Model,
		maxAttempts: opts.MaxAttempts,
		timeout:     opts.ConnectTimeout + opts.ReadTimeout,
		log:         opts.Logger,
		http: &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				DialContext:           dialer.DialContext,
				TLSHandshakeTimeout:   opts.ConnectTimeout,
				ResponseHeaderTimeout: opts.ReadTimeout,
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   16,
				IdleConnTimeout:       90 * time.Second,
			},
		},
	}
}

// Model returns the model name sent with every request.
func (c *UDPipe) Model() string { return c.model }

// Endpoints returns the base URLs the client spreads calls over.
func (c *UDPipe) Endpoints() []string { return c.endpoints.All() }

type processResponse struct {
	Result  *string `json:"result"`
	Error   string  `json:"error"`
	Message string  `json:"message"`
}

// Tag sends text to the service and returns its CoNLL-U output. A failed
// call is retried on a different endpoint up to MaxAttempts times in total.
func (c *UDPipe) Tag(ctx context.Context, text string) (string, error) {
	var lastErr error
	tried := map[string]bool{}
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		ep := c.endpoints.NextExcluding(tried)
		tried[ep] = true

		start := time.Now()
		out, err := c.process(ctx, ep, text)
		if err == nil {
			c.log.Debug("tagger request", "endpoint", ep, "elapsed", time.Since(start))
			return out, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		if attempt+1 < c.maxAttempts {
			c.log.Warn("tagger: request failed, retrying with different endpoint", "attempt", attempt+1, "endpoint", ep, "err", err)
		}
	}
	return "", lastErr
}

func (c *UDPipe) process(ctx context.Context, base, text string) (string, error) {
	form := url.Values{
		"data":      {text},
		"model":     {c.model},
		"tokenizer": {"ranges"},
		"input":     {"horizontal"},
		"tagger":    {""},
		"parser":    {""},
		"output":    {"conllu"},
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/process", strings.NewReader(form.Encode()))
	if err != nil {
		return "", &Failure{Endpoint: base, Detail: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", &Failure{Endpoint: base, Detail: "request timed out (connect/read)", Err: err}
		}
		return "", &Failure{Endpoint: base, Detail: "request failed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return "", &Failure{Endpoint: base, Status: resp.StatusCode, Detail: "request timed out (connect/read)", Err: err}
		}
		return "", &Failure{Endpoint: base, Status: resp.StatusCode, Detail: "read body", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &Failure{Endpoint: base, Status: resp.StatusCode, Detail: "body preview: " + preview(body)}
	}

	var res processResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return "", &Failure{Endpoint: base, Detail: "decode response: " + preview(body), Err: err}
	}
	if res.Result == nil {
		msg := res.Error
		if msg == "" {
			msg = res.Message
		}
		if msg == "" {
			msg = "missing 'result' in response"
		}
		return "", &Failure{Endpoint: base, Detail: "service error: " + msg}
	}
	return *res.Result, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// preview returns the first characters of a response body on one line.
func preview(body []byte) string {
	r := []rune(string(body))
	if len(r) > previewLimit {
		r = r[:previewLimit]
	}
	return strings.ReplaceAll(string(r), "\n", " ")
}

func (c *UDPipe) String() string {
	return fmt.Sprintf("udpipe(%s, %d endpoints)", c.model, c.endpoints.Len())
}

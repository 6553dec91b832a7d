package httpclient

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/unkn0wn-root/grillon/internal/errdef"
	"github.com/unkn0wn-root/grillon/internal/headers"
	"github.com/unkn0wn-root/grillon/internal/reqstate"
	"github.com/unkn0wn-root/grillon/internal/telemetry"
)

type Options struct {
	Timeout            time.Duration
	FollowRedirects    bool
	InsecureSkipVerify bool
	ProxyURL           string
}

func DefaultOptions() Options {
	return Options{Timeout: 30 * time.Second, FollowRedirects: true}
}

type Client struct {
	opts        Options
	httpFactory func(Options) (*http.Client, error)
	telemetry   telemetry.Instrumenter
	now         func() time.Time

	mu     sync.Mutex
	cached *http.Client
}

func NewClient(opts Options) *Client {
	c := &Client{opts: opts, telemetry: telemetry.Noop(), now: time.Now}
	c.httpFactory = c.buildHTTPClient
	return c
}

// SetHTTPFactory allows callers to override how http.Client instances are created.
// Passing nil restores the default factory.
func (c *Client) SetHTTPFactory(factory func(Options) (*http.Client, error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.httpFactory = factory
	c.cached = nil
}

// SetTelemetry configures the instrumenter used to emit OpenTelemetry spans. Passing nil restores the no-op implementation.
func (c *Client) SetTelemetry(instr telemetry.Instrumenter) {
	if instr == nil {
		instr = telemetry.Noop()
	}
	c.telemetry = instr
}

func (c *Client) Options() Options {
	return c.opts
}

func (c *Client) resolveHTTPFactory() func(Options) (*http.Client, error) {
	if c == nil {
		return nil
	}
	if c.httpFactory != nil {
		return c.httpFactory
	}
	return c.buildHTTPClient
}

// httpClient builds the transport once per Client so keep-alive
// connections are reused across runs. A failed build is retried next time.
func (c *Client) httpClient() (*http.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cached != nil {
		return c.cached, nil
	}
	client, err := c.resolveHTTPFactory()(c.opts)
	if err != nil {
		return nil, err
	}
	c.cached = client
	return client, nil
}

// Request is one exchange built from a window's captured state.
type Request struct {
	WindowID uint64
	Method   string
	URL      string
	Headers  headers.Pairs
	Body     string
}

func RequestFromState(st reqstate.State) Request {
	return Request{
		WindowID: uint64(st.ID),
		Method:   st.Method,
		URL:      st.URI,
		Headers:  st.Headers,
		Body:     st.Body,
	}
}

// Summary is what a window shows after a successful exchange.
type Summary struct {
	Status      string
	StatusCode  int
	Proto       string
	Bytes       int64
	RTT         time.Duration
	Latency     time.Duration
	Body        []byte
	ContentType string
	Headers     http.Header
	URL         string
}

// Execute performs one exchange. Latency runs from dispatch until status
// and headers are in; RTT runs until the body has been read.
func (c *Client) Execute(ctx context.Context, req Request) (sum *Summary, err error) {
	httpReq, err := buildHTTPRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	client, err := c.httpClient()
	if err != nil {
		return nil, err
	}

	instrumenter := c.telemetry
	if instrumenter == nil {
		instrumenter = telemetry.Noop()
	}
	spanCtx, span := instrumenter.Start(httpReq.Context(), telemetry.RequestStart{
		HTTPRequest: httpReq,
		WindowID:    req.WindowID,
	})
	httpReq = httpReq.WithContext(spanCtx)

	timing := newFirstByteTrace(c.now)
	httpReq = timing.bind(httpReq)

	defer func() {
		res := telemetry.RequestResult{Err: err}
		if sum != nil {
			res.StatusCode = sum.StatusCode
			res.Bytes = sum.Bytes
			res.RTT = sum.RTT
			res.Latency = sum.Latency
		}
		if at, ok := timing.firstByte(); ok {
			span.FirstByte(at)
		}
		span.End(res)
	}()

	start := c.now()
	httpResp, err := client.Do(httpReq)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeHTTP, err, "perform request")
	}
	headersAt := c.now()

	defer func() {
		if closeErr := httpResp.Body.Close(); closeErr != nil && err == nil {
			err = errdef.Wrap(errdef.CodeHTTP, closeErr, "close response body")
		}
	}()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeHTTP, err, "read response body")
	}
	done := c.now()

	sum = summaryFromHTTP(httpReq, httpResp, body)
	sum.Latency = headersAt.Sub(start)
	sum.RTT = done.Sub(start)
	return sum, nil
}

func buildHTTPRequest(ctx context.Context, req Request) (*http.Request, error) {
	method := reqstate.Verbs[reqstate.VerbIndex(req.Method)]
	target := strings.TrimSpace(req.URL)
	if target == "" {
		return nil, errdef.New(errdef.CodeHTTP, "request url is empty")
	}

	var body io.Reader
	if req.Body != "" {
		body = strings.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeHTTP, err, "build request")
	}
	for _, h := range req.Headers {
		httpReq.Header.Set(h.Name, h.Value)
	}
	if host := httpReq.Header.Get("Host"); host != "" {
		httpReq.Host = host
	}
	return httpReq, nil
}

package engine

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
	"unicode/utf8"

	tls "github.com/refraction-networking/utls"
	"golang.org/x/net/html/charset"
)

// DefaultUserAgent is sent with every page request unless overridden.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36"

// DefaultTimeout bounds a single page fetch when FetchRequest.Timeout is zero.
const DefaultTimeout = 12 * time.Second

// maxBody caps how much of a response body is read.
const maxBody = 10 << 20

// HTTPEngine fetches pages with plain net/http over a Chrome-like TLS
// fingerprint. One HTTPEngine is shared by all requests.
type HTTPEngine struct {
	client    *http.Client
	userAgent string
}

// chromeH1Spec is a Chrome-like TLS ClientHello with ALPN forced to http/1.1
// only. Computed once at init time and reused for every connection.
var chromeH1Spec tls.ClientHelloSpec

func init() {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		return
	}
	// h2 would be negotiated otherwise, and http.Transport cannot speak
	// it over a utls connection.
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	chromeH1Spec = spec
}

// NewHTTPEngine creates an HTTPEngine. An empty userAgent selects
// DefaultUserAgent.
func NewHTTPEngine(userAgent string) *HTTPEngine {
	return newHTTPEngine(userAgent, nil)
}

// newHTTPEngine builds the utls transport. A nil roots pool uses the
// system roots.
func newHTTPEngine(userAgent string, roots *x509.CertPool) *HTTPEngine {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			dialer := &net.Dialer{Timeout: 10 * time.Second}
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			host, _, _ := net.SplitHostPort(addr)
			tlsConn := tls.UClient(conn, &tls.Config{ServerName: host, RootCAs: roots}, tls.HelloCustom)
			if err := tlsConn.ApplyPreset(&chromeH1Spec); err != nil {
				conn.Close()
				return nil, fmt.Errorf("http_engine: apply tls spec: %w", err)
			}
			if err := tlsConn.HandshakeContext(ctx); err != nil {
				conn.Close()
				return nil, err
			}
			return tlsConn, nil
		},
		ForceAttemptHTTP2:   false,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}
	return NewHTTPEngineWithClient(&http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return errors.New("too many redirects")
			}
			return nil
		},
	}, userAgent)
}

// NewHTTPEngineWithClient wraps an existing client. The caller owns the
// client's lifecycle.
func NewHTTPEngineWithClient(client *http.Client, userAgent string) *HTTPEngine {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &HTTPEngine{client: client, userAgent: userAgent}
}

func (e *HTTPEngine) Name() string { return "http" }

func (e *HTTPEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("http_engine: build request: %w", err)
	}

	httpReq.Header.Set("User-Agent", e.userAgent)
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	httpReq.Header.Set("Accept-Language", "en-US,en;q=0.9")

	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http_engine: do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("http_engine: read body: %w", err)
	}
	contentType := resp.Header.Get("Content-Type")
	body, err := decodeBody(raw, contentType)
	if err != nil {
		return nil, fmt.Errorf("http_engine: decode body: %w", err)
	}

	return &FetchResult{
		HTML:        string(body),
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		FinalURL:    resp.Request.URL.String(),
		EngineName:  e.Name(),
	}, nil
}

// decodeBody converts raw to UTF-8. A charset in contentType is always
// honoured. Otherwise a BOM or <meta charset> is used, unless raw is
// already valid UTF-8.
func decodeBody(raw []byte, contentType string) ([]byte, error) {
	enc, name, certain := charset.DetermineEncoding(raw, contentType)
	if name == "utf-8" || (!certain && utf8.Valid(raw)) {
		return raw, nil
	}
	return enc.NewDecoder().Bytes(raw)
}

// CloseIdleConnections releases pooled connections. Call on shutdown.
func (e *HTTPEngine) CloseIdleConnections() {
	e.client.CloseIdleConnections()
}

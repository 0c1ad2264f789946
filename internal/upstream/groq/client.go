package groq

import (
	"net"
	"net/http"
	"net/url"
	"sync"

	"classecho-go/internal/config"
	"classecho-go/internal/constants"
	"classecho-go/internal/credential"
	openai "github.com/sashabaranov/go-openai"
	"github.com/spf13/afero"
)

const (
	OpTranscription = "transcription"
	OpGeneration    = "generation"
)

// Client performs single remote calls against an OpenAI-compatible
// provider. It never retries; classification is left to the orchestrator.
type Client struct {
	cfg  config.UpstreamConfig
	http *http.Client
	fs   afero.Fs

	mu      sync.Mutex
	clients map[string]*openai.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the pooled transport, e.g. in tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithFs sets the filesystem used to stage uploads.
func WithFs(fs afero.Fs) Option {
	return func(c *Client) { c.fs = fs }
}

func New(cfg config.UpstreamConfig, opts ...Option) *Client {
	c := &Client{
		cfg:     cfg,
		fs:      afero.NewOsFs(),
		clients: make(map[string]*openai.Client),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = newHTTPClient(cfg)
	}
	return c
}

func newHTTPClient(cfg config.UpstreamConfig) *http.Client {
	tr := &http.Transport{
		Proxy: proxyFunc(cfg.ProxyURL),
		DialContext: (&net.Dialer{
			Timeout:   config.DurationOrDefault(cfg.DialTimeoutSec, constants.DefaultDialTimeout),
			KeepAlive: constants.DefaultKeepAlive,
		}).DialContext,
		TLSHandshakeTimeout:   config.DurationOrDefault(cfg.TLSHandshakeTimeoutSec, constants.DefaultTLSHandshakeTimeout),
		ResponseHeaderTimeout: config.DurationOrDefault(cfg.ResponseHeaderTimeoutSec, constants.DefaultResponseHeaderTimeout),
		ExpectContinueTimeout: constants.DefaultExpectContinueTimeout,
		MaxIdleConns:          constants.BaseMaxIdleConns,
		MaxIdleConnsPerHost:   constants.BaseMaxIdleConnsPerHost,
		IdleConnTimeout:       constants.BaseIdleConnTimeout,
	}
	return &http.Client{
		Transport: tr,
		Timeout:   config.DurationOrDefault(cfg.TimeoutSec, constants.UpstreamCallTimeout),
	}
}

func proxyFunc(proxyURL string) func(*http.Request) (*url.URL, error) {
	if proxyURL != "" {
		if parsed, err := url.Parse(proxyURL); err == nil {
			return http.ProxyURL(parsed)
		}
	}
	return http.ProxyFromEnvironment
}

// api returns the cached SDK client bound to cred's token.
func (c *Client) api(cred credential.Credential) *openai.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cli, ok := c.clients[cred.Token]; ok {
		return cli
	}
	oc := openai.DefaultConfig(cred.Token)
	if c.cfg.BaseURL != "" {
		oc.BaseURL = c.cfg.BaseURL
	}
	oc.HTTPClient = c.http
	cli := openai.NewClientWithConfig(oc)
	c.clients[cred.Token] = cli
	return cli
}

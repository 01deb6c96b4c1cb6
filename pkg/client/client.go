package client

import (
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/pixelfolio/cli/pkg/config"
	"github.com/pixelfolio/cli/pkg/credentials"
	"github.com/pixelfolio/cli/pkg/logger"
)

const userAgent = "Pixelfolio-CLI/0.1.0"

// Options describes how to build an HTTP client for the backend.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// Session supplies the bearer token; nil means anonymous.
	Session credentials.Session
}

var httpClient *resty.Client
var session credentials.Session

// New builds a resty client. Every request carries an X-Request-ID and, when
// the session is authenticated, the bearer token.
func New(opts Options) *resty.Client {
	c := resty.New()
	c.SetBaseURL(opts.BaseURL)
	if opts.Timeout > 0 {
		c.SetTimeout(opts.Timeout)
	}
	c.SetHeader("User-Agent", userAgent)
	c.SetHeader("Accept", "application/json")

	sess := opts.Session
	c.OnBeforeRequest(func(c *resty.Client, req *resty.Request) error {
		requestID := uuid.NewString()
		req.SetHeader("X-Request-ID", requestID)
		if sess != nil && sess.Authenticated() {
			req.SetAuthToken(sess.Token())
		}
		logger.Debug("HTTP Request", "method", req.Method, "url", req.URL, "request_id", requestID)
		return nil
	})

	c.OnAfterResponse(func(c *resty.Client, resp *resty.Response) error {
		logger.Debug("HTTP Response",
			"status", resp.StatusCode(),
			"url", resp.Request.URL,
			"elapsed", resp.Time(),
			"request_id", resp.Request.Header.Get("X-Request-ID"))
		return nil
	})

	return c
}

// Init initializes the shared client from configuration and the current session
func Init() {
	httpClient = New(Options{
		BaseURL: config.GetString("api.base_url"),
		Timeout: config.GetSeconds("api.timeout"),
		Session: session,
	})
}

// GetClient returns the shared HTTP client
func GetClient() *resty.Client {
	if httpClient == nil {
		Init()
	}
	return httpClient
}

// SetSession installs the session used for bearer auth and rebuilds the client
func SetSession(s credentials.Session) {
	session = s
	Init()
}

// GetSession returns the installed session, anonymous if none was set
func GetSession() credentials.Session {
	if session == nil {
		return credentials.Anonymous()
	}
	return session
}

// ClearSession drops the session and rebuilds the client without auth
func ClearSession() {
	session = nil
	Init()
}

// NewUploadClient builds an anonymous client for the image host. The
// backend token is never attached.
func NewUploadClient() *resty.Client {
	return New(Options{
		BaseURL: config.GetString("upload.base_url"),
		Timeout: 2 * time.Minute,
	})
}

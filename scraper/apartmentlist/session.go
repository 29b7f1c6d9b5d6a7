package apartmentlist

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"rental-ingest/config"
	"rental-ingest/models"
	"rental-ingest/utils"
)

const (
	authPath     = "/v4/users/ensure_user"
	listingsPath = "/listings-search/listings"

	userAgent = "Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:94.0) Gecko/20100101 Firefox/94.0"
)

// Session is an HTTP client that carries the browser-like header set and the
// cookie issued by the ensure_user endpoint.
type Session struct {
	client     *http.Client
	apiBaseURL string
	siteURL    string
	token      string
	logger     *utils.Logger
}

// NewSession creates an unauthenticated Session. Call Authenticate before
// any API request.
func NewSession(cfg *config.Config, logger *utils.Logger) (*Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("session: cookie jar: %w", err)
	}

	return &Session{
		client: &http.Client{
			Jar:     jar,
			Timeout: time.Duration(cfg.HTTPTimeoutSec) * time.Second,
		},
		apiBaseURL: cfg.APIBaseURL,
		siteURL:    cfg.SiteURL,
		token:      cfg.APIToken,
		logger:     logger,
	}, nil
}

// Authenticate posts to ensure_user so the server sets the session cookie.
func (s *Session) Authenticate(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiBaseURL+authPath, nil)
	if err != nil {
		return &models.AuthenticationError{Err: err}
	}
	s.setAPIHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return &models.AuthenticationError{Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if !isSuccess(resp.StatusCode) {
		return &models.AuthenticationError{StatusCode: resp.StatusCode}
	}

	s.logger.Info("[session] Authenticated — %d cookie(s) issued", len(s.client.Jar.Cookies(req.URL)))
	return nil
}

// FetchPage GETs a site page and returns its raw body. It satisfies PageSource.
func (s *Session) FetchPage(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", &models.FetchError{Batch: -1, URL: pageURL, Err: err}
	}
	s.setBrowserHeaders(req)

	status, body, err := s.do(req)
	if err != nil {
		return "", &models.FetchError{Batch: -1, URL: pageURL, Err: err}
	}
	if !isSuccess(status) {
		return "", &models.FetchError{StatusCode: status, Batch: -1, URL: pageURL}
	}
	return string(body), nil
}

// getAPI issues an authenticated GET against the API and returns status and body.
func (s *Session) getAPI(ctx context.Context, rawURL string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, nil, err
	}
	s.setAPIHeaders(req)
	return s.do(req)
}

func (s *Session) do(req *http.Request) (int, []byte, error) {
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read body: %w", err)
	}
	return resp.StatusCode, body, nil
}

func (s *Session) setBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
}

// setAPIHeaders mirrors what the site's own frontend sends to the API.
func (s *Session) setAPIHeaders(req *http.Request) {
	s.setBrowserHeaders(req)
	req.Header.Set("Referer", s.siteURL+"/")
	req.Header.Set("Origin", s.siteURL)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token token="+s.token)
	req.Header.Set("Sec-Fetch-Dest", "empty")
	req.Header.Set("Sec-Fetch-Mode", "cors")
	req.Header.Set("Sec-Fetch-Site", "same-site")
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

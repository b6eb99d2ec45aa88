package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"
	"github.com/temoto/robotstxt"
	"golang.org/x/net/html/charset"
)

const maxHops = 15

// ErrRobotsDisallowed marks paths the site's robots.txt forbids.
var ErrRobotsDisallowed = errors.New("path disallowed by robots.txt")

// Client fetches pages and parses them into goquery documents. It does
// not retry; a failed fetch is the caller's signal to skip the page.
type Client struct {
	http      *http.Client
	userAgent string
	robots    *robotstxt.Group
}

func NewClient(userAgent string, timeout time.Duration) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		http: &http.Client{
			Transport: &http.Transport{
				DisableKeepAlives: true,
			},
			Jar:     jar,
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxHops {
					return fmt.Errorf("stopped after %d redirects", maxHops)
				}
				return nil
			},
		},
		userAgent: userAgent,
	}
}

// InitRobots loads robots.txt for the seed's host. Failures are logged
// and ignored: an unreachable robots.txt means no restrictions.
func (c *Client) InitRobots(ctx context.Context, seed string) {
	u, err := url.Parse(seed)
	if err != nil {
		log.Warn("cannot derive robots.txt location", "seed", seed, "err", err)
		return
	}
	robotsURL := fmt.Sprintf("%s://%s/robots.txt", u.Scheme, u.Host)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		log.Debug("robots.txt not loaded", "url", robotsURL, "err", err)
		return
	}
	defer resp.Body.Close()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		log.Debug("robots.txt not parsed", "url", robotsURL, "err", err)
		return
	}
	c.robots = data.FindGroup(c.userAgent)
	log.Debug("robots.txt applied", "url", robotsURL)
}

// FetchDocument GETs urlStr and parses the response as HTML, decoding
// the body according to the declared charset.
func (c *Client) FetchDocument(ctx context.Context, urlStr string) (*goquery.Document, error) {
	u, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("parse url %q: %w", urlStr, err)
	}
	if c.robots != nil && !c.robots.Test(u.Path) {
		return nil, fmt.Errorf("%s: %w", u.Path, ErrRobotsDisallowed)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: HTTP %d", urlStr, resp.StatusCode)
	}

	var body io.Reader
	body, err = charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		body = resp.Body
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", urlStr, err)
	}
	return doc, nil
}

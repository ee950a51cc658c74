// Package retailer scrapes a bookstore product page for book metadata. It
// reads the OpenGraph tags and schema.org itemprop markup most storefronts
// emit, and is the last resort when no catalog API knows an ISBN.
package retailer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
)

// ErrBadTemplate is returned by New when the URL template has no {isbn} slot.
var ErrBadTemplate = errors.New("retailer: url template must contain {isbn}")

const isbnPlaceholder = "{isbn}"

// Product is what the page exposes about a book. Zero values mean the page
// did not say.
type Product struct {
	URL         string
	Title       string
	Authors     []string
	Publisher   string
	Year        int
	Pages       int
	Language    string
	Description string
	ImageURL    string
}

type Config struct {
	// URLTemplate is the product or search page, e.g.
	// "https://shop.example/search?q={isbn}".
	URLTemplate string
	UserAgent   string
	Timeout     time.Duration
}

type Scraper struct {
	cfg       Config
	transport http.RoundTripper
}

func New(cfg Config) (*Scraper, error) {
	if !strings.Contains(cfg.URLTemplate, isbnPlaceholder) {
		return nil, ErrBadTemplate
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Scraper{
		cfg: cfg,
		transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   cfg.Timeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}, nil
}

// URLFor returns the page scraped for isbn.
func (s *Scraper) URLFor(isbn string) string {
	return strings.ReplaceAll(s.cfg.URLTemplate, isbnPlaceholder, isbn)
}

// Scrape visits the page for isbn. It returns nil, nil when the page is
// missing or carries no title.
func (s *Scraper) Scrape(ctx context.Context, isbn string) (*Product, error) {
	target := s.URLFor(isbn)

	// A collector per call keeps callbacks and ctx local to this request.
	c := colly.NewCollector(
		colly.UserAgent(s.cfg.UserAgent),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(s.cfg.Timeout)
	c.WithTransport(ctxTransport{ctx: ctx, base: s.transport})

	p := &Product{URL: target}
	var (
		status int
		ogName string
	)

	c.OnHTML(`meta[property="og:title"]`, func(e *colly.HTMLElement) {
		ogName = strings.TrimSpace(e.Attr("content"))
	})
	c.OnHTML(`meta[property="og:image"]`, func(e *colly.HTMLElement) {
		if p.ImageURL == "" {
			p.ImageURL = e.Request.AbsoluteURL(strings.TrimSpace(e.Attr("content")))
		}
	})
	c.OnHTML(`meta[property="og:description"]`, func(e *colly.HTMLElement) {
		if p.Description == "" {
			p.Description = strings.TrimSpace(e.Attr("content"))
		}
	})
	c.OnHTML(`h1[itemprop="name"], [itemtype*="schema.org/Book"] > [itemprop="name"]`, func(e *colly.HTMLElement) {
		if p.Title == "" {
			p.Title = collapse(e.Text)
		}
	})
	c.OnHTML(`[itemprop="author"]`, func(e *colly.HTMLElement) {
		if name := itemValue(e); name != "" {
			p.Authors = append(p.Authors, name)
		}
	})
	c.OnHTML(`[itemprop="publisher"]`, func(e *colly.HTMLElement) {
		if p.Publisher == "" {
			p.Publisher = itemValue(e)
		}
	})
	c.OnHTML(`[itemprop="datePublished"]`, func(e *colly.HTMLElement) {
		if p.Year == 0 {
			p.Year = ParseYear(itemValue(e))
		}
	})
	c.OnHTML(`[itemprop="numberOfPages"]`, func(e *colly.HTMLElement) {
		if n, err := strconv.Atoi(digitsOnly(itemValue(e))); err == nil && n > 0 {
			p.Pages = n
		}
	})
	c.OnHTML(`[itemprop="inLanguage"]`, func(e *colly.HTMLElement) {
		if p.Language == "" {
			p.Language = strings.ToLower(itemValue(e))
		}
	})
	c.OnHTML(`[itemprop="description"]`, func(e *colly.HTMLElement) {
		if d := itemValue(e); d != "" {
			p.Description = d
		}
	})
	c.OnError(func(r *colly.Response, _ error) {
		if r != nil {
			status = r.StatusCode
		}
	})

	if err := c.Visit(target); err != nil {
		if status == http.StatusNotFound {
			return nil, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("scrape %s: %w", target, err)
	}

	if p.Title == "" {
		p.Title = ogName
	}
	if p.Title == "" {
		return nil, nil
	}
	return p, nil
}

// itemValue prefers the content attribute, which meta and time elements use.
func itemValue(e *colly.HTMLElement) string {
	if v := strings.TrimSpace(e.Attr("content")); v != "" {
		return v
	}
	if v := strings.TrimSpace(e.Attr("datetime")); v != "" {
		return v
	}
	if v := collapse(e.ChildText(`[itemprop="name"]`)); v != "" {
		return v
	}
	return collapse(e.Text)
}

// ParseYear pulls the first four-digit run out of a free-form date.
func ParseYear(s string) int {
	run := 0
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			run++
			if run == 4 && (i+1 == len(s) || s[i+1] < '0' || s[i+1] > '9') {
				y, _ := strconv.Atoi(s[i-3 : i+1])
				return y
			}
			continue
		}
		run = 0
	}
	return 0
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ctxTransport binds outgoing requests to the caller's context so a lookup
// deadline also cancels the scrape.
type ctxTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t ctxTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	return t.base.RoundTrip(r.WithContext(t.ctx))
}

package metadata

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"

	"github.com/listenupapp/tafcue/internal/errors"
	"github.com/listenupapp/tafcue/internal/ratelimit"
)

const (
	// One product page every two seconds per host.
	scrapeRPS     = 0.5
	scrapeBurst   = 1
	scrapeTimeout = 15 * time.Second
	maxPageSize   = 8 * 1024 * 1024

	descriptionMarker   = "Inhalt:"
	minDescriptionRunes = 50
	tracklistMarker     = "Titelliste"
)

// Badge values shown on product pages.
var (
	genreBadges    = map[string]bool{"Hörspiel": true, "Hörbuch": true, "Musik": true, "Wissen": true}
	languageBadges = map[string]string{"Deutsch": "Deutsch", "Englisch": "English"}
)

// Details are the values scraped from a product page.
type Details struct {
	Description string
	Age         int
	Genre       string
	Language    string
}

// Scraper fetches product pages with per-host rate limiting.
type Scraper struct {
	http    *http.Client
	limiter *ratelimit.KeyedRateLimiter
	logger  *slog.Logger
}

// NewScraper creates a scraper.
func NewScraper(logger *slog.Logger) *Scraper {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scraper{
		http:    &http.Client{Timeout: scrapeTimeout},
		limiter: ratelimit.New(scrapeRPS, scrapeBurst),
		logger:  logger,
	}
}

// Close releases resources held by the scraper.
func (s *Scraper) Close() {
	s.limiter.Stop()
}

// Scrape fetches and parses the product page at pageURL.
func (s *Scraper) Scrape(ctx context.Context, pageURL string) (*Details, error) {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return nil, errors.Validationf("invalid product page URL %q", pageURL)
	}

	if err := s.limiter.Wait(ctx, u.Host); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/html")
	req.Header.Set("Accept-Language", "de-DE,de;q=0.9")

	s.logger.Debug("scrape request", "url", pageURL)

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDownloadFailed, "fetch product page")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(fmt.Errorf("status %d", resp.StatusCode), errors.CodeDownloadFailed, "fetch product page %s", pageURL)
	}

	return ParseDetails(io.LimitReader(resp.Body, maxPageSize))
}

// ParseDetails extracts the description block and the age, genre and
// language badges from a product page.
func ParseDetails(r io.Reader) (*Details, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse product page: %w", err)
	}

	d := &Details{}
	if n := findText(doc, descriptionMarker); n != nil {
		// Climb from the marker until the element holds more than a heading.
		container := n.Parent
		for range 4 {
			if container == nil || container.Parent == nil ||
				utf8.RuneCountInString(strings.TrimSpace(textContent(container))) >= minDescriptionRunes {
				break
			}
			container = container.Parent
		}
		if container != nil {
			d.Description = descriptionFrom(container)
		}
	}

	walk(doc, func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}
		switch n.Data {
		case "span", "div", "p":
		default:
			return
		}
		txt := strings.TrimSpace(collapseWhitespace(textContent(n)))
		switch {
		case d.Age == 0 && strings.Contains(txt, "Jahre") && strings.Contains(strings.ToLower(txt), "ab") && utf8.RuneCountInString(txt) < 15:
			d.Age = ExtractAge(txt)
		case d.Genre == "" && genreBadges[txt]:
			d.Genre = txt
		case d.Language == "" && languageBadges[txt] != "":
			d.Language = languageBadges[txt]
		}
	})

	return d, nil
}

// Merge returns a copy of e with scraped values applied. Scraped values win
// where present.
func (e *Entry) Merge(d *Details) *Entry {
	out := *e
	if d == nil {
		return &out
	}
	if d.Description != "" {
		out.Description = d.Description
	}
	if d.Age > 0 {
		out.Age = d.Age
	}
	if d.Genre != "" {
		out.Genre = d.Genre
	}
	if d.Language != "" {
		out.Language = d.Language
	}
	return &out
}

// NeedsScrape reports whether the page is worth fetching: it exists and the
// database lacks a description or an age.
func (e *Entry) NeedsScrape() bool {
	return e.Web != "" && (e.Description == "" || e.Age == 0)
}

// descriptionFrom converts the container to Markdown and keeps the text
// between the description marker and the track list.
func descriptionFrom(n *html.Node) string {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return ""
	}

	md, err := htmltomarkdown.ConvertString(buf.String())
	if err != nil {
		md = textContent(n)
	}

	if _, after, ok := strings.Cut(md, descriptionMarker); ok {
		md = after
	}
	md, _, _ = strings.Cut(md, tracklistMarker)

	md = strings.TrimLeft(md, "*_ \t\r\n")
	md = strings.TrimRight(md, "*_# \t\r\n")
	return md
}

// findText returns the first text node containing s.
func findText(n *html.Node, s string) *html.Node {
	if n.Type == html.TextNode && strings.Contains(n.Data, s) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findText(c, s); found != nil {
			return found
		}
	}
	return nil
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

// textContent returns the concatenated text below n, with a space after
// block elements.
func textContent(n *html.Node) string {
	var buf strings.Builder
	extractText(n, &buf)
	return buf.String()
}

// extractText recursively extracts text content from HTML nodes.
func extractText(n *html.Node, buf *strings.Builder) {
	if n.Type == html.TextNode {
		buf.WriteString(n.Data)
	}
	if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
		return
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extractText(c, buf)
	}

	if n.Type == html.ElementNode {
		switch n.Data {
		case "p", "div", "br", "li", "h1", "h2", "h3", "h4", "h5", "h6":
			buf.WriteString(" ")
		}
	}
}

var whitespaceRegex = regexp.MustCompile(`\s+`)

func collapseWhitespace(s string) string {
	return whitespaceRegex.ReplaceAllString(s, " ")
}

package clients

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
	"resty.dev/v3"

	logger "github.com/pwnholic/slidedown/internal"
)

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36"

type clientRequest struct {
	Client       *resty.Client
	pageTimeout  time.Duration
	imageTimeout time.Duration
}

type HTTPClientOptions struct {
	RetryCount       int
	RetryWaitTime    time.Duration
	RetryMaxWaitTime time.Duration
	PageTimeout      time.Duration
	ImageTimeout     time.Duration
	UserAgent        string
}

func DefaultHTTPClientOptions() HTTPClientOptions {
	return HTTPClientOptions{
		RetryCount:       0,
		RetryWaitTime:    time.Second,
		RetryMaxWaitTime: 5 * time.Second,
		PageTimeout:      15 * time.Second,
		ImageTimeout:     10 * time.Second,
		UserAgent:        DefaultUserAgent,
	}
}

func NewClientRequest(t *HTTPClientOptions) *clientRequest {
	userAgent := t.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	client := resty.New().
		SetRetryCount(t.RetryCount).
		SetRetryWaitTime(t.RetryWaitTime).
		SetRetryMaxWaitTime(t.RetryMaxWaitTime).
		SetHeader("User-Agent", userAgent)

	return &clientRequest{
		Client:       client,
		pageTimeout:  t.PageTimeout,
		imageTimeout: t.ImageTimeout,
	}
}

func (c *clientRequest) Close() error {
	return c.Client.Close()
}

func statusCode(resp *resty.Response) (bool, string) {
	switch resp.StatusCode() {
	case http.StatusTooManyRequests:
		return true, "IP blocked: Too Many Requests (429)"
	case http.StatusForbidden:
		return true, "IP blocked: Forbidden (403)"
	case http.StatusServiceUnavailable:
		return true, "IP blocked: Service Unavailable (503)"
	case http.StatusOK:
		return false, "Status OK"
	}
	return false, "IP not blocked"
}

func completeURL(inputURL, defaultHost string) (string, error) {
	if inputURL == "" {
		return "", fmt.Errorf("URL cannot be empty")
	}
	parsedURL, err := url.Parse(inputURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.IsAbs() {
		return inputURL, nil
	}
	if defaultHost == "" {
		return "", fmt.Errorf("host needed for relative URL %q", inputURL)
	}
	defaultURL, err := url.Parse(defaultHost)
	if err != nil {
		return "", fmt.Errorf("invalid default host: %w", err)
	}
	if defaultURL.Scheme == "" {
		defaultURL.Scheme = "https"
	}
	return defaultURL.ResolveReference(parsedURL).String(), nil
}

// get issues a GET bounded by timeout and returns the body once the status
// is known to be a success.
func (c *clientRequest) get(ctx context.Context, rawURL string, timeout time.Duration) ([]byte, string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	response, err := c.Client.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer response.Body.Close()

	if isIPBlocked, reason := statusCode(response); isIPBlocked {
		logger.Warn("BLOCKED: %s", reason)
	}
	if code := response.StatusCode(); code < 200 || code > 299 {
		return nil, "", fmt.Errorf("%w: %d from %s", ErrHTTPStatus, code, rawURL)
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response body: %w", err)
	}
	return body, response.Header().Get("Content-Type"), nil
}

// CollectDeck fetches a presentation page and extracts its title and slide
// image URLs.
func (c *clientRequest) CollectDeck(ctx context.Context, metadata *DeckMetadata) (*Deck, error) {
	body, contentType, err := c.get(ctx, metadata.RawURL, c.pageTimeout)
	if err != nil {
		return nil, err
	}

	bodyReader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to create charset reader: %w", err)
	}

	document, err := goquery.NewDocumentFromReader(bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML document: %w", err)
	}

	deck := ExtractDeck(document, metadata.ScraperConfig, metadata.RawURL)
	logger.Debug("Found %d slide tags and %d image URLs on %s", deck.TagCount, len(deck.ImageURLs), metadata.RawURL)

	if metadata.FromSlide > 0 || metadata.ToSlide > 0 {
		logger.Info("Selecting slides %d-%d", metadata.FromSlide, metadata.ToSlide)
		deck.ImageURLs = SelectRange(deck.ImageURLs, metadata.FromSlide, metadata.ToSlide)
	}
	return deck, nil
}

// ExtractDeck reads the deck out of an already parsed page. Relative image
// URLs are resolved against pageURL.
func ExtractDeck(document *goquery.Document, site ScraperConfig, pageURL string) *Deck {
	deck := &Deck{}

	if title := document.Find(site.TitleSelector).First(); title.Length() > 0 {
		deck.Title = strings.Join(strings.Fields(title.Text()), " ")
	}

	document.Find(site.ImageSelector).Each(func(i int, s *goquery.Selection) {
		deck.TagCount++

		attr, exists := s.Attr(site.AttrImage)
		if !exists {
			return
		}
		src := attr
		if strings.EqualFold(site.AttrImage, "srcset") {
			src = largestSrcsetCandidate(attr)
		}
		src = strings.TrimSpace(src)
		if src == "" {
			return
		}

		result, err := completeURL(src, pageURL)
		if err != nil {
			logger.Warn("Skipping slide %d: %s", i+1, err.Error())
			return
		}
		deck.ImageURLs = append(deck.ImageURLs, result)
	})
	return deck
}

// largestSrcsetCandidate returns the URL of the last srcset candidate, which
// the site lists in ascending resolution.
func largestSrcsetCandidate(srcset string) string {
	candidates := strings.Split(strings.TrimSpace(srcset), ",")
	last := strings.Fields(candidates[len(candidates)-1])
	if len(last) == 0 {
		return ""
	}
	return last[0]
}

func (c *clientRequest) CollectImage(ctx context.Context, imgURL string) ([]byte, error) {
	body, _, err := c.get(ctx, imgURL, c.imageTimeout)
	if err != nil {
		return nil, err
	}
	return body, nil
}

// ImageExtension returns the extension of the URL path, including the dot,
// falling back to ".jpg".
func ImageExtension(imgURL string) string {
	parsedURL, err := url.Parse(imgURL)
	if err != nil {
		return ".jpg"
	}
	ext := path.Ext(parsedURL.Path)
	if ext == "" || ext == "." {
		return ".jpg"
	}
	return ext
}

package clients

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/andybalholm/cascadia"
)

type DeckMetadata struct {
	RawURL    string
	FromSlide int
	ToSlide   int
	ScraperConfig
}

// Deck is what a presentation page yields: its title and the slide image
// URLs in page order.
type Deck struct {
	Title     string
	ImageURLs []string
	TagCount  int
}

type ScraperConfig struct {
	Hostname      string `json:"hostname" mapstructure:"hostname"`
	MobilePrefix  string `json:"mobile_prefix" mapstructure:"mobile_prefix"`
	TitleSelector string `json:"title_selector" mapstructure:"title_selector"`
	ImageSelector string `json:"image_selector" mapstructure:"image_selector"`
	AttrImage     string `json:"attr_image" mapstructure:"attr_image"`
}

func DefaultScraperConfig() ScraperConfig {
	return ScraperConfig{
		Hostname:      "slideshare.net",
		MobilePrefix:  "/mobile",
		TitleSelector: "h1.Metadata_title__aM3nZ",
		ImageSelector: "img.VerticalSlideImage_image__VtE4p",
		AttrImage:     "srcset",
	}
}

func (s ScraperConfig) Validate() error {
	if s.Hostname == "" {
		return fmt.Errorf("site hostname cannot be empty")
	}
	if s.AttrImage == "" {
		return fmt.Errorf("image attribute cannot be empty")
	}
	if _, err := cascadia.Compile(s.TitleSelector); err != nil {
		return fmt.Errorf("invalid title selector %q: %w", s.TitleSelector, err)
	}
	if _, err := cascadia.Compile(s.ImageSelector); err != nil {
		return fmt.Errorf("invalid image selector %q: %w", s.ImageSelector, err)
	}
	return nil
}

// Supports reports whether rawURL points at the configured site or one of
// its subdomains.
func (s ScraperConfig) Supports(rawURL string) bool {
	parsedURL, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}
	host := strings.ToLower(parsedURL.Hostname())
	want := strings.ToLower(s.Hostname)
	return host == want || strings.HasSuffix(host, "."+want)
}

// NormalizeURL rewrites the path onto the mobile layout, which renders
// every slide as a plain img tag.
func (s ScraperConfig) NormalizeURL(rawURL string) (string, error) {
	parsedURL, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("failed to parse URL: %w", err)
	}
	if s.MobilePrefix == "" {
		return parsedURL.String(), nil
	}

	prefix := "/" + strings.Trim(s.MobilePrefix, "/") + "/"
	if !strings.HasPrefix(parsedURL.Path, prefix) {
		parsedURL.Path = strings.TrimSuffix(prefix, "/") + ensureLeadingSlash(parsedURL.Path)
		parsedURL.RawPath = ""
	}
	return parsedURL.String(), nil
}

func ensureLeadingSlash(p string) string {
	if strings.HasPrefix(p, "/") {
		return p
	}
	return "/" + p
}

// SelectRange returns slides from..to (1-based, inclusive). Zero leaves that
// end of the range open.
func SelectRange(links []string, from, to int) []string {
	if from <= 0 {
		from = 1
	}
	if to <= 0 || to > len(links) {
		to = len(links)
	}
	if from > to {
		return nil
	}
	return links[from-1 : to]
}

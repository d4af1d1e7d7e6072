package clients

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const deckPage = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>ignored</title></head>
<body>
  <h1 class="Metadata_title__aM3nZ">
    Scaling   Go
    Services
  </h1>
  <h1 class="Metadata_title__aM3nZ">Second title</h1>
  <img class="VerticalSlideImage_image__VtE4p" srcset="https://img.example/1-320.jpg 320w, https://img.example/1-638.jpg 638w, https://img.example/1-2048.jpg 2048w">
  <img class="VerticalSlideImage_image__VtE4p" src="https://img.example/no-srcset.jpg">
  <img class="VerticalSlideImage_image__VtE4p" srcset="/slides/2-2048.png 2048w">
  <img class="Other" srcset="https://img.example/ad.jpg 1x">
  <img class="VerticalSlideImage_image__VtE4p" srcset=" https://img.example/3.jpg ">
</body></html>`

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestExtractDeck(t *testing.T) {
	deck := ExtractDeck(parse(t, deckPage), DefaultScraperConfig(), "https://www.slideshare.net/mobile/alice/deck")

	assert.Equal(t, "Scaling Go Services", deck.Title)
	assert.Equal(t, 4, deck.TagCount)
	assert.Equal(t, []string{
		"https://img.example/1-2048.jpg",
		"https://www.slideshare.net/slides/2-2048.png",
		"https://img.example/3.jpg",
	}, deck.ImageURLs)
}

func TestExtractDeckWithoutTitleOrSlides(t *testing.T) {
	deck := ExtractDeck(parse(t, `<html><body><p>gone</p></body></html>`), DefaultScraperConfig(), "https://www.slideshare.net/mobile/x")

	assert.Empty(t, deck.Title)
	assert.Zero(t, deck.TagCount)
	assert.Empty(t, deck.ImageURLs)
}

func TestExtractDeckCustomAttribute(t *testing.T) {
	site := DefaultScraperConfig()
	site.ImageSelector = "div.slides img"
	site.AttrImage = "data-src"

	page := `<div class="slides"><img data-src="a.webp"><img data-src="b.webp"></div>`
	deck := ExtractDeck(parse(t, page), site, "https://host.example/deck/")

	assert.Equal(t, []string{"https://host.example/deck/a.webp", "https://host.example/deck/b.webp"}, deck.ImageURLs)
}

func TestLargestSrcsetCandidate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"a.jpg 1x, b.jpg 2x", "b.jpg"},
		{"only.jpg", "only.jpg"},
		{"  spaced.jpg   900w  ", "spaced.jpg"},
		{"a.jpg 1x,", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, largestSrcsetCandidate(tt.in))
		})
	}
}

func TestImageExtension(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://img.example/slide-1-2048.jpg", ".jpg"},
		{"https://img.example/slide.PNG?cb=1", ".PNG"},
		{"https://img.example/slide.webp#frag", ".webp"},
		{"https://img.example/slide", ".jpg"},
		{"https://img.example/dir.v2/slide", ".jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ImageExtension(tt.in))
		})
	}
}

func TestCompleteURL(t *testing.T) {
	got, err := completeURL("/a/b.jpg", "https://www.slideshare.net/mobile/x")
	require.NoError(t, err)
	assert.Equal(t, "https://www.slideshare.net/a/b.jpg", got)

	got, err = completeURL("https://cdn.example/c.jpg", "")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/c.jpg", got)

	_, err = completeURL("", "https://x")
	assert.Error(t, err)

	_, err = completeURL("rel.jpg", "")
	assert.Error(t, err)
}

func newTestClient() *clientRequest {
	opts := DefaultHTTPClientOptions()
	opts.PageTimeout = 2 * time.Second
	opts.ImageTimeout = 2 * time.Second
	return NewClientRequest(&opts)
}

func TestCollectDeck(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, deckPage)
	}))
	defer srv.Close()

	c := newTestClient()
	defer c.Close()

	deck, err := c.CollectDeck(context.Background(), &DeckMetadata{
		RawURL:        srv.URL + "/mobile/alice/deck",
		ScraperConfig: DefaultScraperConfig(),
	})
	require.NoError(t, err)

	assert.Equal(t, DefaultUserAgent, gotUA)
	assert.Equal(t, "Scaling Go Services", deck.Title)
	assert.Len(t, deck.ImageURLs, 3)
	assert.Equal(t, srv.URL+"/slides/2-2048.png", deck.ImageURLs[1])
}

func TestCollectDeckRange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, deckPage)
	}))
	defer srv.Close()

	c := newTestClient()
	defer c.Close()

	deck, err := c.CollectDeck(context.Background(), &DeckMetadata{
		RawURL:        srv.URL,
		FromSlide:     2,
		ToSlide:       2,
		ScraperConfig: DefaultScraperConfig(),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{srv.URL + "/slides/2-2048.png"}, deck.ImageURLs)
}

func TestCollectDeckHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient()
	defer c.Close()

	_, err := c.CollectDeck(context.Background(), &DeckMetadata{RawURL: srv.URL, ScraperConfig: DefaultScraperConfig()})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrHTTPStatus)
	assert.Contains(t, err.Error(), "404")
}

func TestCollectImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.jpg":
			w.Header().Set("Content-Type", "image/jpeg")
			w.Write([]byte("jpeg-bytes"))
		case "/blocked.jpg":
			w.WriteHeader(http.StatusForbidden)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := newTestClient()
	defer c.Close()

	data, err := c.CollectImage(context.Background(), srv.URL+"/ok.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), data)

	_, err = c.CollectImage(context.Background(), srv.URL+"/blocked.jpg")
	assert.ErrorIs(t, err, ErrHTTPStatus)
}

func TestCollectImageTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	opts := DefaultHTTPClientOptions()
	opts.ImageTimeout = 50 * time.Millisecond
	c := NewClientRequest(&opts)
	defer c.Close()

	_, err := c.CollectImage(context.Background(), srv.URL+"/slow.jpg")
	assert.Error(t, err)
}

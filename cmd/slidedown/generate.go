package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/pwnholic/slidedown/internal"
	"github.com/pwnholic/slidedown/internal/clients"
	"github.com/pwnholic/slidedown/internal/exports"
)

const fallbackFilename = "slides.pdf"

var invalidFilenameChars = regexp.MustCompile(`[\\/*?:"<>|]`)

type generateDeck struct {
	clients  clients.RequestBuilder
	exporter *exports.DocumentExporter
	cfg      *Config
	progress io.Writer
}

func NewGenerateDeck(t *clients.HTTPClientOptions, cfg *Config) *generateDeck {
	var progress io.Writer = os.Stderr
	if cfg.Quiet {
		progress = io.Discard
	}
	return &generateDeck{
		clients:  *clients.NewRequestBuilder(t, cfg.Site),
		exporter: exports.NewDocumentExporter(cfg.PDFOptions()),
		cfg:      cfg,
		progress: progress,
	}
}

func (gd *generateDeck) Close() error {
	return gd.clients.Request.Close()
}

type runSummary struct {
	processed int
	generated int
	skipped   int
	failed    int
	images    int
}

type deckResult struct {
	outputPath string
	pages      int
	skipped    bool
}

// processDecks runs every URL through the pipeline in order. A failing deck
// is logged and counted; it never stops the remaining ones.
func (gd *generateDeck) processDecks(ctx context.Context, urls []string) runSummary {
	var summary runSummary

	if err := os.MkdirAll(gd.cfg.Output, 0o755); err != nil {
		internal.Error("Failed to create output directory %s: %s", gd.cfg.Output, err.Error())
		summary.failed = len(urls)
		return summary
	}

	for i, rawURL := range urls {
		if ctx.Err() != nil {
			internal.Warn("Interrupted, %d link(s) not processed", len(urls)-i)
			summary.failed += len(urls) - i
			break
		}

		internal.Info("==================================================")
		internal.Info("Processing link %d of %d: %s", i+1, len(urls), rawURL)
		summary.processed++

		result, err := gd.processSingleDeck(ctx, rawURL)
		switch {
		case errors.Is(err, clients.ErrUnsupportedSite):
			internal.Warn("URL does not look like %s, skipping", gd.cfg.Site.Hostname)
			summary.skipped++
		case err != nil:
			internal.Error("Failed to process %s: %s", rawURL, err.Error())
			summary.failed++
		case result.skipped:
			summary.skipped++
		default:
			summary.generated++
			summary.images += result.pages
		}
	}
	return summary
}

func (gd *generateDeck) processSingleDeck(ctx context.Context, rawURL string) (*deckResult, error) {
	site := gd.clients.Website
	if !site.Supports(rawURL) {
		return nil, clients.ErrUnsupportedSite
	}

	targetURL, err := site.NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	internal.Info("Connecting to %s", targetURL)
	deck, err := gd.clients.Request.CollectDeck(ctx, &clients.DeckMetadata{
		RawURL:        targetURL,
		FromSlide:     gd.cfg.From,
		ToSlide:       gd.cfg.To,
		ScraperConfig: site,
	})
	if err != nil {
		return nil, fmt.Errorf("error fetching presentation: %w", err)
	}

	filename := outputFilename(deck.Title)
	if deck.Title != "" {
		internal.Info("Title found: %q", deck.Title)
	} else {
		internal.Warn("Title not found, the PDF will be saved as %q", filename)
	}

	outputPath := filepath.Join(gd.cfg.Output, filename)
	if _, err := os.Stat(outputPath); err == nil && !gd.cfg.Force {
		internal.Info("File already exists, skipping: %s", outputPath)
		return &deckResult{outputPath: outputPath, skipped: true}, nil
	}

	if deck.TagCount == 0 || len(deck.ImageURLs) == 0 {
		return nil, fmt.Errorf("%w (found %d slide tags, the site layout may have changed)", clients.ErrNoSlides, deck.TagCount)
	}
	internal.Info("Found %d slides", len(deck.ImageURLs))

	tempDir, err := os.MkdirTemp(gd.cfg.TempDir, "slidedown-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary directory: %w", err)
	}
	defer func() {
		internal.Debug("Removing temporary files in %s", tempDir)
		if err := os.RemoveAll(tempDir); err != nil {
			internal.Warn("Failed to remove %s: %s", tempDir, err.Error())
		}
	}()

	imagePaths, err := gd.processSlideImages(ctx, deck.ImageURLs, tempDir)
	if err != nil {
		return nil, err
	}
	if len(imagePaths) == 0 {
		return nil, fmt.Errorf("%w: every slide download failed", exports.ErrNoImages)
	}

	internal.Info("Assembling %q from %d slides", filename, len(imagePaths))
	pages, err := gd.exporter.Assemble(imagePaths, deck.Title, outputPath)
	if err != nil {
		return nil, err
	}

	internal.Success("Saved %d pages to %s", pages, outputPath)
	return &deckResult{outputPath: outputPath, pages: pages}, nil
}

// processSlideImages downloads the slides one after another into dir and
// returns the paths of the ones that made it, in slide order.
func (gd *generateDeck) processSlideImages(ctx context.Context, imageURLs []string, dir string) ([]string, error) {
	bar := progressbar.NewOptions(len(imageURLs),
		progressbar.OptionSetWriter(gd.progress),
		progressbar.OptionSetDescription("Downloading slides"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(gd.progress)
		}),
	)
	defer bar.Close()

	var imagePaths []string
	for i, imgURL := range imageURLs {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("download interrupted: %w", err)
		}

		imgPath, err := gd.processSlide(ctx, i+1, imgURL, dir)
		_ = bar.Add(1)
		if err != nil {
			internal.Warn("Failed to download slide %d, skipping: %s", i+1, err.Error())
			continue
		}
		imagePaths = append(imagePaths, imgPath)
	}
	return imagePaths, nil
}

func (gd *generateDeck) processSlide(ctx context.Context, number int, imgURL, dir string) (string, error) {
	imageData, err := gd.clients.Request.CollectImage(ctx, imgURL)
	if err != nil {
		return "", err
	}

	imgPath := filepath.Join(dir, fmt.Sprintf("slide_%03d%s", number, clients.ImageExtension(imgURL)))
	if err := os.WriteFile(imgPath, imageData, 0o644); err != nil {
		return "", fmt.Errorf("failed to save slide: %w", err)
	}

	if gd.cfg.NoCrop {
		return imgPath, nil
	}
	cropped, err := exports.CropFile(imgPath, gd.cfg.CropOptions())
	if err != nil {
		internal.Warn("Error cropping %s, keeping it as is: %s", filepath.Base(imgPath), err.Error())
		return imgPath, nil
	}
	return cropped, nil
}

func sanitizeFilename(name string) string {
	return invalidFilenameChars.ReplaceAllString(name, "")
}

func outputFilename(title string) string {
	name := strings.TrimSpace(sanitizeFilename(title))
	if name == "" {
		return fallbackFilename
	}
	return name + ".pdf"
}

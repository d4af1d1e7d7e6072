package exports

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"sync"

	"github.com/signintech/gopdf"

	"github.com/pwnholic/slidedown/internal"
)

type PDFOptions struct {
	// DPI converts image pixels into page points.
	DPI         float64
	JPEGQuality int
	Creator     string
}

func DefaultPDFOptions() PDFOptions {
	return PDFOptions{DPI: 96, JPEGQuality: 95, Creator: "slidedown"}
}

type PDFGenerator struct {
	pdf     *gopdf.GoPdf
	options PDFOptions
	pages   int
	mutex   sync.Mutex
}

func NewPDFGenerator(opts PDFOptions, title string) *PDFGenerator {
	if opts.DPI <= 0 {
		opts.DPI = DefaultPDFOptions().DPI
	}

	pdf := &gopdf.GoPdf{}
	pdf.Start(gopdf.Config{
		Unit:     gopdf.UnitPT,
		PageSize: *gopdf.PageSizeA4,
	})
	pdf.SetInfo(gopdf.PdfInfo{
		Title:   title,
		Creator: opts.Creator,
	})
	return &PDFGenerator{pdf: pdf, options: opts}
}

// AddImage appends one page sized exactly to the image. JPEG data is
// embedded as is; other formats are re-encoded to JPEG first.
func (p *PDFGenerator) AddImage(imgBytes []byte, name string) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.pdf == nil {
		return errors.New("PDF not initialized")
	}
	if len(imgBytes) == 0 {
		return fmt.Errorf("%s: %w", name, ErrEmptyImage)
	}

	imageConfig, format, err := image.DecodeConfig(bytes.NewReader(imgBytes))
	if err != nil {
		return fmt.Errorf("failed to decode image config of %s: %w", name, err)
	}
	width, height := imageConfig.Width, imageConfig.Height
	if width < 1 || height < 1 {
		return fmt.Errorf("invalid image dimensions %dx%d for %s", width, height, name)
	}

	if format != "jpeg" {
		img, _, err := image.Decode(bytes.NewReader(imgBytes))
		if err != nil {
			return fmt.Errorf("failed to decode %s image %s: %w", format, name, err)
		}
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality(p.options.JPEGQuality)}); err != nil {
			return fmt.Errorf("failed to convert %s to JPEG: %w", name, err)
		}
		imgBytes = buf.Bytes()
	}

	imageHolder, err := gopdf.ImageHolderByBytes(imgBytes)
	if err != nil {
		return fmt.Errorf("failed to create image holder: %w", err)
	}

	pageSize := &gopdf.Rect{
		W: float64(width) * 72 / p.options.DPI,
		H: float64(height) * 72 / p.options.DPI,
	}
	p.pdf.AddPageWithOption(gopdf.PageOption{PageSize: pageSize})
	if err := p.pdf.ImageByHolder(imageHolder, 0, 0, pageSize); err != nil {
		return fmt.Errorf("failed to add %s to PDF: %w", name, err)
	}
	p.pages++

	internal.Debug("format: (%s), size: (%dx%d), page: (%d), file: (%s)", format, width, height, p.pages, name)
	return nil
}

func (p *PDFGenerator) Pages() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.pages
}

func (p *PDFGenerator) SavePDF(outputPath string) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.pdf == nil {
		return errors.New("PDF not initialized")
	}
	return p.pdf.WritePdf(outputPath)
}

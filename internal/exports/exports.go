package exports

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pwnholic/slidedown/internal"
)

type Document interface {
	AddImage(imgBytes []byte, name string) error
	SavePDF(outputPath string) error
	Pages() int
}

type DocumentExporter struct {
	options PDFOptions
	newPDF  func(opts PDFOptions, title string) Document
}

func NewDocumentExporter(opts PDFOptions) *DocumentExporter {
	return &DocumentExporter{
		options: opts,
		newPDF: func(opts PDFOptions, title string) Document {
			return NewPDFGenerator(opts, title)
		},
	}
}

// Assemble writes one page per image, in the order given, to outputPath.
// Images that cannot be read or embedded are logged and left out; it is an
// error only when none of them make it into the document.
func (d *DocumentExporter) Assemble(imagePaths []string, title, outputPath string) (int, error) {
	doc := d.newPDF(d.options, title)

	for _, imgPath := range imagePaths {
		name := filepath.Base(imgPath)
		data, err := os.ReadFile(imgPath)
		if err != nil {
			internal.Error("Failed to read %s: %s", name, err.Error())
			continue
		}
		if err := doc.AddImage(data, name); err != nil {
			internal.Error("Error adding image to PDF: %s", err.Error())
			continue
		}
	}

	if doc.Pages() == 0 {
		return 0, ErrNoImages
	}
	if err := doc.SavePDF(outputPath); err != nil {
		return 0, fmt.Errorf("error saving PDF: %w", err)
	}
	return doc.Pages(), nil
}

// Package rasterize turns the first page of a PDF document into a PNG image.
package rasterize

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"

	"github.com/gen2brain/go-fitz"
	"github.com/ledongthuc/pdf"
)

// DefaultDPI is the render resolution used when none is configured.
const DefaultDPI = 150

const mimePNG = "image/png"

var pdfMagic = []byte("%PDF-")

// Image is a rasterized page ready for upload.
type Image struct {
	Data     []byte
	MimeType string
	Width    int
	Height   int
}

// Rasterizer converts a PDF payload into a single image of its first page.
type Rasterizer interface {
	Rasterize(ctx context.Context, document []byte) (Image, error)
}

// ConversionError reports input that could not be turned into an image.
type ConversionError struct {
	Reason string
	Err    error
}

func (e *ConversionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("conversion failed: %s: %v", e.Reason, e.Err)
	}
	return "conversion failed: " + e.Reason
}

func (e *ConversionError) Unwrap() error { return e.Err }

// IsConversionError reports whether err is or wraps a *ConversionError.
func IsConversionError(err error) bool {
	var ce *ConversionError
	return errors.As(err, &ce)
}

// FitzRasterizer renders with MuPDF through go-fitz.
type FitzRasterizer struct {
	DPI float64

	// render is swapped in tests.
	render func(document []byte, dpi float64) (image.Image, error)
}

// NewFitzRasterizer returns a rasterizer rendering at dpi (DefaultDPI when <= 0).
func NewFitzRasterizer(dpi float64) *FitzRasterizer {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &FitzRasterizer{DPI: dpi, render: renderFirstPage}
}

// Rasterize validates the document, renders page one and encodes it as PNG.
func (r *FitzRasterizer) Rasterize(ctx context.Context, document []byte) (img Image, err error) {
	if err := ctx.Err(); err != nil {
		return Image{}, err
	}
	if _, err := PageCount(document); err != nil {
		return Image{}, err
	}

	defer func() {
		if rec := recover(); rec != nil {
			img = Image{}
			err = &ConversionError{Reason: "renderer crashed", Err: fmt.Errorf("%v", rec)}
		}
	}()

	render := r.render
	if render == nil {
		render = renderFirstPage
	}
	dpi := r.DPI
	if dpi <= 0 {
		dpi = DefaultDPI
	}

	page, err := render(document, dpi)
	if err != nil {
		return Image{}, &ConversionError{Reason: "failed to render first page", Err: err}
	}
	return Encode(page)
}

// Encode converts a decoded page into an uploadable PNG Image.
func Encode(page image.Image) (Image, error) {
	if page == nil {
		return Image{}, &ConversionError{Reason: "renderer returned no image"}
	}
	bounds := page.Bounds()
	if bounds.Empty() {
		return Image{}, &ConversionError{Reason: "rendered page is empty"}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, page); err != nil {
		return Image{}, &ConversionError{Reason: "failed to encode png", Err: err}
	}
	return Image{
		Data:     buf.Bytes(),
		MimeType: mimePNG,
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
	}, nil
}

// PageCount checks the PDF structure and returns its number of pages.
func PageCount(document []byte) (n int, err error) {
	if len(document) == 0 {
		return 0, &ConversionError{Reason: "document is empty"}
	}
	if !bytes.HasPrefix(document, pdfMagic) {
		return 0, &ConversionError{Reason: "not a PDF document"}
	}

	defer func() {
		if rec := recover(); rec != nil {
			n = 0
			err = &ConversionError{Reason: "malformed PDF structure", Err: fmt.Errorf("%v", rec)}
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(document), int64(len(document)))
	if err != nil {
		return 0, &ConversionError{Reason: "malformed PDF structure", Err: err}
	}
	n = reader.NumPage()
	if n == 0 {
		return 0, &ConversionError{Reason: "PDF has no pages"}
	}
	return n, nil
}

func renderFirstPage(document []byte, dpi float64) (image.Image, error) {
	doc, err := fitz.NewFromMemory(document)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, errors.New("document has no pages")
	}
	return doc.ImageDPI(0, dpi)
}

var _ Rasterizer = (*FitzRasterizer)(nil)

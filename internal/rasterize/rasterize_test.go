package rasterize

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"
)

// minimalPDF builds a one-page PDF with a correct xref table.
func minimalPDF() []byte {
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 200 100] /Contents 4 0 R /Resources << >> >>",
		"<< /Length 0 >>\nstream\n\nendstream",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, body := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f\r\n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n\r\n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func solidImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
		}
	}
	return img
}

func TestPageCountMinimalPDF(t *testing.T) {
	n, err := PageCount(minimalPDF())
	if err != nil {
		t.Fatalf("PageCount: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 page, got %d", n)
	}
}

func TestPageCountRejectsBadInput(t *testing.T) {
	valid := minimalPDF()
	cases := map[string][]byte{
		"empty":     nil,
		"not pdf":   []byte("PK\x03\x04 this is a zip"),
		"truncated": valid[:40],
		"garbage":   append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte{0xde, 0xad}, 64)...),
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := PageCount(input)
			if !IsConversionError(err) {
				t.Fatalf("expected ConversionError, got %v", err)
			}
		})
	}
}

func TestRasterizeEncodesPNG(t *testing.T) {
	r := &FitzRasterizer{DPI: 72, render: func(doc []byte, dpi float64) (image.Image, error) {
		if dpi != 72 {
			t.Fatalf("expected dpi 72, got %v", dpi)
		}
		return solidImage(20, 10), nil
	}}

	img, err := r.Rasterize(context.Background(), minimalPDF())
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	if img.MimeType != "image/png" || img.Width != 20 || img.Height != 10 {
		t.Fatalf("unexpected image metadata: %+v", img)
	}
	decoded, err := png.Decode(bytes.NewReader(img.Data))
	if err != nil {
		t.Fatalf("output is not a png: %v", err)
	}
	if decoded.Bounds().Dx() != 20 {
		t.Fatalf("unexpected decoded width %d", decoded.Bounds().Dx())
	}
}

func TestRasterizeCorruptedDocumentNeverRenders(t *testing.T) {
	called := false
	r := &FitzRasterizer{render: func([]byte, float64) (image.Image, error) {
		called = true
		return solidImage(1, 1), nil
	}}

	_, err := r.Rasterize(context.Background(), []byte("%PDF-1.7 broken"))
	if !IsConversionError(err) {
		t.Fatalf("expected ConversionError, got %v", err)
	}
	if called {
		t.Fatalf("renderer should not run for a malformed document")
	}
}

func TestRasterizeRenderFailure(t *testing.T) {
	boom := errors.New("mupdf: cannot render")
	r := &FitzRasterizer{render: func([]byte, float64) (image.Image, error) {
		return nil, boom
	}}

	_, err := r.Rasterize(context.Background(), minimalPDF())
	var ce *ConversionError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConversionError, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected cause to be preserved")
	}
}

func TestRasterizeRecoversRendererPanic(t *testing.T) {
	r := &FitzRasterizer{render: func([]byte, float64) (image.Image, error) {
		panic("segv")
	}}

	_, err := r.Rasterize(context.Background(), minimalPDF())
	if !IsConversionError(err) {
		t.Fatalf("expected ConversionError, got %v", err)
	}
}

func TestRasterizeCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewFitzRasterizer(0).Rasterize(ctx, minimalPDF())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestEncodeRejectsEmptyImage(t *testing.T) {
	if _, err := Encode(image.NewRGBA(image.Rect(0, 0, 0, 0))); !IsConversionError(err) {
		t.Fatalf("expected ConversionError, got %v", err)
	}
}

func TestFitzRendersMinimalPDF(t *testing.T) {
	img, err := NewFitzRasterizer(72).Rasterize(context.Background(), minimalPDF())
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	if img.Width <= 0 || img.Height <= 0 {
		t.Fatalf("expected non-empty image, got %dx%d", img.Width, img.Height)
	}
	if _, err := png.Decode(bytes.NewReader(img.Data)); err != nil {
		t.Fatalf("output is not a png: %v", err)
	}
}

// Package receipt validates receipt attachments and renders thumbnails.
package receipt

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"finboard/models"

	"github.com/disintegration/imaging"
)

// MaxSize is the largest accepted receipt in bytes.
const MaxSize = 5 << 20

// MaxThumbnailWidth bounds the ?width= parameter.
const MaxThumbnailWidth = 2000

var allowed = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"application/pdf": true,
}

var (
	// ErrTooLarge is returned for receipts over MaxSize.
	ErrTooLarge = errors.New("receipt exceeds the 5 MB limit")
	// ErrType is returned for content types outside the allow-list.
	ErrType = errors.New("only JPEG, PNG, GIF, WEBP images and PDF files are allowed")
	// ErrNotImage is returned by Thumbnail for receipts it cannot resize.
	ErrNotImage = errors.New("receipt is not a resizable image")
	// ErrCannotShrink is returned by Shrink when no downscale fits the limit.
	ErrCannotShrink = errors.New("receipt cannot be shrunk under the size limit")
)

// Allowed reports whether contentType may be stored.
func Allowed(contentType string) bool {
	return allowed[normalize(contentType)]
}

func normalize(ct string) string {
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		return strings.ToLower(mt)
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

// Check validates data against the size cap and the allow-list and returns the
// content type to store. An empty or generic declared type is replaced by a sniffed one.
func Check(data []byte, declared string) (string, error) {
	if len(data) > MaxSize {
		return "", ErrTooLarge
	}
	ct := normalize(declared)
	if ct == "" || ct == "application/octet-stream" {
		ct = normalize(http.DetectContentType(data))
	}
	if !allowed[ct] {
		return "", ErrType
	}
	return ct, nil
}

// FromFileHeader reads and validates an uploaded multipart file.
func FromFileHeader(fh *multipart.FileHeader) (*models.Receipt, error) {
	if fh.Size > MaxSize {
		return nil, ErrTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, MaxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	ct, err := Check(data, fh.Header.Get("Content-Type"))
	if err != nil {
		return nil, err
	}
	return &models.Receipt{Data: data, ContentType: ct}, nil
}

// TypeByExtension maps a file name to a receipt content type, or "".
func TypeByExtension(name string) string {
	ct := normalize(mime.TypeByExtension(strings.ToLower(filepath.Ext(name))))
	if allowed[ct] {
		return ct
	}
	return ""
}

// Detect sniffs data and falls back to the file extension when sniffing
// finds nothing on the allow-list. It returns "" for unsupported files.
func Detect(name string, data []byte) string {
	if ct := normalize(http.DetectContentType(data)); allowed[ct] {
		return ct
	}
	return TypeByExtension(name)
}

func resizable(ct string) bool {
	switch ct {
	case "image/jpeg", "image/png", "image/gif":
		return true
	}
	return false
}

// Thumbnail returns a JPEG no wider than width. Narrower images keep their size.
func Thumbnail(r *models.Receipt, width int) ([]byte, error) {
	if !resizable(normalize(r.ContentType)) {
		return nil, ErrNotImage
	}
	img, err := imaging.Decode(bytes.NewReader(r.Data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode receipt: %w", err)
	}
	if img.Bounds().Dx() > width {
		img = imaging.Resize(img, width, 0, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// Shrink downscales an oversized image until it fits in max bytes. Small
// receipts and non-images are returned unchanged.
func Shrink(r *models.Receipt, max int) (*models.Receipt, error) {
	if len(r.Data) <= max || !resizable(normalize(r.ContentType)) {
		return r, nil
	}
	img, err := imaging.Decode(bytes.NewReader(r.Data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode receipt: %w", err)
	}
	// size roughly follows area
	scale := math.Sqrt(float64(max) / float64(len(r.Data)))
	for attempt := 0; attempt < 6; attempt++ {
		scale = math.Max(0.1, math.Min(scale, 0.95))
		w := int(math.Max(1, math.Round(float64(img.Bounds().Dx())*scale)))
		resized := imaging.Resize(img, w, 0, imaging.Lanczos)
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
			return nil, fmt.Errorf("encode receipt: %w", err)
		}
		if buf.Len() <= max {
			return &models.Receipt{Data: buf.Bytes(), ContentType: "image/jpeg"}, nil
		}
		scale *= 0.8
	}
	return nil, fmt.Errorf("%w: %d bytes", ErrCannotShrink, max)
}

// Package preview turns an uploaded receipt into a small displayable raster.
package preview

import (
	"bytes"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

// Kind is the input branch for a preview, resolved once from the declared
// media type at ingestion
type Kind int

const (
	// KindRaster is a directly decodable image (image/*)
	KindRaster Kind = iota
	// KindDocument is a paginated document whose first page is rasterized
	KindDocument
	// KindUnsupported gets no preview
	KindUnsupported
)

// KindOf resolves the preview branch from a declared media type
func KindOf(contentType string) Kind {
	mimeType := strings.ToLower(strings.TrimSpace(contentType))
	switch {
	case mimeType == "application/pdf":
		return KindDocument
	case strings.HasPrefix(mimeType, "image/"):
		return KindRaster
	default:
		return KindUnsupported
	}
}

// State is the lifecycle state of a preview result
type State string

const (
	// StatePending means no preview is available (yet, or at all)
	StatePending State = "pending"
	// StateReady means PNG holds a displayable raster
	StateReady State = "ready"
	// StateFallback means decoding failed and a typed icon should be shown
	StateFallback State = "fallback"
)

// FallbackKind selects which icon to show when decoding fails
type FallbackKind string

const (
	FallbackPDF     FallbackKind = "pdf"
	FallbackGeneric FallbackKind = "generic"
)

// Result is the outcome of one preview render
type Result struct {
	State    State        `json:"state"`
	PNG      []byte       `json:"png,omitempty"`
	Width    int          `json:"width,omitempty"`
	Height   int          `json:"height,omitempty"`
	Fallback FallbackKind `json:"fallback,omitempty"`
}

// targetWidth is the raster width a document page is scaled to
const targetWidth = 160

// decodeDocument rasterizes the first page of a PDF at the target width.
// Every failure along the way (parse, bounds, rasterization, encoding)
// degrades to the pdf fallback icon; corrupt uploads are expected.
func decodeDocument(data []byte) Result {
	fallback := Result{State: StateFallback, Fallback: FallbackPDF}

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return fallback
	}
	defer doc.Close()

	bound, err := doc.Bound(0)
	if err != nil || bound.Dx() <= 0 {
		return fallback
	}

	// Scale the page so its native width lands on the target width
	scale := float64(targetWidth) / float64(bound.Dx())
	img, err := doc.ImageDPI(0, 72*scale)
	if err != nil {
		return fallback
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fallback
	}

	size := img.Bounds()
	return Result{
		State:  StateReady,
		PNG:    buf.Bytes(),
		Width:  size.Dx(),
		Height: size.Dy(),
	}
}

// decodeRaster decodes an uploaded image into a PNG raster. Decode failures
// degrade to the generic fallback icon.
func decodeRaster(data []byte, contentType string) Result {
	fallback := Result{State: StateFallback, Fallback: FallbackGeneric}

	var img image.Image
	var err error
	if isHEIC(data, contentType) {
		img, err = heic.Decode(bytes.NewReader(data))
	} else {
		img, _, err = image.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return fallback
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fallback
	}

	size := img.Bounds()
	return Result{
		State:  StateReady,
		PNG:    buf.Bytes(),
		Width:  size.Dx(),
		Height: size.Dy(),
	}
}

// isHEIC reports whether the upload is a HEIC/HEIF phone photo, which the
// standard image decoders cannot handle
func isHEIC(data []byte, contentType string) bool {
	mimeType := strings.ToLower(strings.TrimSpace(contentType))
	if strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif") {
		return true
	}
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heif", "mif1", "msf1":
		return true
	}
	return false
}

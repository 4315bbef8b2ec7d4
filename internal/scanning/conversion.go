package scanning

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

// extractionPrompt is the shared prompt used by all vision backends
const extractionPrompt = `You are analyzing a receipt or invoice document. Carefully read all text in the image and extract the following information:

1. **Vendor**: The merchant, store or business name, usually the largest text or in a header at the top of the receipt. Examples: "Uber", "Starbucks", "Hilton Garden Inn", "Staples".

2. **Date**: The transaction date, purchase date, or invoice date. Convert it to ISO 8601 format (YYYY-MM-DD). Common source formats: MM/DD/YYYY, DD/MM/YYYY, or written dates.

3. **Total Amount**: The final total, grand total, or amount due, usually at the bottom, labeled "TOTAL", "Amount Due", "Grand Total" or similar. Extract only the numeric value (e.g., 42.75 for $42.75).

Return ONLY valid JSON in this exact format:
{
  "vendor": "Vendor Name",
  "date": "YYYY-MM-DD",
  "amount": 0.00
}

Important:
- The vendor must be the actual business name printed on the receipt
- The date must be in YYYY-MM-DD format
- The amount must be a number (not a string), representing dollars and cents
- If you cannot find a field, use null for that field
- Do not include any text before or after the JSON
- Do not use markdown code blocks`

// documentToPNG rasterizes the first page of a PDF into a PNG image
func documentToPNG(pdfData []byte) ([]byte, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	// Receipts are almost always single page; the first page carries the
	// vendor, date and total
	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}

	return buf.Bytes(), nil
}

// imageToPNG converts any supported image format to PNG
func imageToPNG(imageData []byte, mimeType string) ([]byte, error) {
	var img image.Image
	var err error

	if IsHEIC(imageData) || isHEICMimeType(mimeType) {
		// Phone photos; Go's standard image package cannot decode these
		img, err = heic.Decode(bytes.NewReader(imageData))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
	} else {
		img, _, err = image.Decode(bytes.NewReader(imageData))
		if err != nil {
			if strings.Contains(err.Error(), "unknown format") || strings.Contains(err.Error(), "unsupported") {
				return nil, fmt.Errorf("unsupported image format. Supported formats: JPEG, PNG, GIF, HEIC, HEIF, PDF. Error: %w", err)
			}
			return nil, fmt.Errorf("decoding image: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}

	return buf.Bytes(), nil
}

// IsHEIC reports whether the data carries a HEIC/HEIF container signature:
// an ftyp box at offset 4 with a heic, heif, mif1 or msf1 brand
func IsHEIC(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	if string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heif", "mif1", "msf1":
		return true
	}
	return false
}

// isHEICMimeType reports whether the MIME type indicates HEIC/HEIF
func isHEICMimeType(mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	return mimeType == "image/heic" || mimeType == "image/heif" ||
		strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif")
}

// preparePNG normalizes an upload for the vision model: PDFs have their first
// page rasterized, non-PNG images are re-encoded. The returned data is always
// PNG.
func preparePNG(data []byte, contentType string) ([]byte, error) {
	mimeType := strings.ToLower(strings.TrimSpace(contentType))
	if mimeType == "" {
		mimeType = "image/jpeg" // default
	}

	if mimeType == "application/pdf" {
		pngData, err := documentToPNG(data)
		if err != nil {
			return nil, fmt.Errorf("converting PDF to image: %w", err)
		}
		return pngData, nil
	}

	if mimeType != "image/png" || IsHEIC(data) {
		pngData, err := imageToPNG(data, mimeType)
		if err != nil {
			return nil, fmt.Errorf("converting image to PNG: %w", err)
		}
		return pngData, nil
	}

	return data, nil
}

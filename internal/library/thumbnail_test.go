package library

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
)

func testCover(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test image failed: %v", err)
	}
	return buf.Bytes()
}

func TestGenerateCoverThumbnail(t *testing.T) {
	thumb, err := GenerateCoverThumbnail(testCover(t, 400, 600))
	if err != nil {
		t.Fatalf("GenerateCoverThumbnail() failed: %v", err)
	}
	if !strings.HasPrefix(thumb, "data:image/jpeg;base64,") {
		t.Errorf("expected a JPEG data URI, got prefix %q", thumb[:32])
	}
}

func TestGenerateCoverThumbnailLandscape(t *testing.T) {
	thumb, err := GenerateCoverThumbnail(testCover(t, 600, 400))
	if err != nil {
		t.Fatalf("GenerateCoverThumbnail() failed: %v", err)
	}
	if thumb == "" {
		t.Error("expected a thumbnail for landscape input")
	}
}

func TestGenerateCoverThumbnailInvalidData(t *testing.T) {
	_, err := GenerateCoverThumbnail([]byte("not an image"))
	if err == nil {
		t.Error("expected an error for undecodable data")
	}
}

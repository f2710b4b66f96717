// Package imaging normalizes item photos before they are stored.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"

	"golang.org/x/image/draw"
	"golang.org/x/image/webp"

	"github.com/erazemk/sladkarije/internal/model"
)

const (
	// MaxUploadBytes caps the size of an uploaded photo.
	MaxUploadBytes = 5 << 20
	// MaxDimension is the longest side a stored photo may have.
	MaxDimension = 1024
	// JPEGQuality is used for every stored photo.
	JPEGQuality = 85
	// StoredMIME is the content type of every stored photo.
	StoredMIME = "image/jpeg"
)

var decoders = map[string]func(io.Reader) (image.Image, error){
	"image/jpeg": jpeg.Decode,
	"image/png":  png.Decode,
	"image/webp": webp.Decode,
}

// ErrTooLarge is returned for uploads over MaxUploadBytes.
var ErrTooLarge = fmt.Errorf("%w: photo exceeds %d bytes", model.ErrInvalidArgument, MaxUploadBytes)

// Photo is a normalized item photo.
type Photo struct {
	Data   []byte
	MIME   string
	Width  int
	Height int
}

// Normalize reads a photo, checks its format by sniffing the bytes rather
// than trusting the client, shrinks it to fit MaxDimension and re-encodes it
// as JPEG. Rejected input wraps model.ErrInvalidArgument.
func Normalize(r io.Reader) (*Photo, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading photo: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return nil, ErrTooLarge
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty photo", model.ErrInvalidArgument)
	}

	detected := http.DetectContentType(data)
	decode, ok := decoders[detected]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported photo format %s", model.ErrInvalidArgument, detected)
	}

	img, err := decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding photo: %v", model.ErrInvalidArgument, err)
	}

	img = fit(img, MaxDimension)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding photo: %w", err)
	}

	b := img.Bounds()
	return &Photo{
		Data:   buf.Bytes(),
		MIME:   StoredMIME,
		Width:  b.Dx(),
		Height: b.Dy(),
	}, nil
}

// IsTooLarge reports whether err came from an oversized upload.
func IsTooLarge(err error) bool {
	return errors.Is(err, ErrTooLarge)
}

// fit scales img down so its longest side is maxDim, keeping the aspect
// ratio. Smaller images are returned unchanged.
func fit(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}

	newW, newH := maxDim, maxDim
	if w > h {
		newH = max(1, h*maxDim/w)
	} else {
		newW = max(1, w*maxDim/h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

package compress

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/webp"
	_ "golang.org/x/image/webp"

	"github.com/matzehuels/devtoys/pkg/errors"
)

// Codec decodes source bytes into a bitmap and encodes bitmaps.
// Implementations must be safe for concurrent use.
type Codec interface {
	// Decode returns the bitmap and the registered format name of src.
	Decode(ctx context.Context, src []byte) (image.Image, string, error)

	// Encode renders img with p. p has been validated.
	Encode(ctx context.Context, img image.Image, p Params) ([]byte, error)
}

// ImagingCodec is the default Codec, built on disintegration/imaging, with
// WebP output from gen2brain/webp. JPEG, PNG, GIF, BMP, TIFF and WebP sources
// are accepted; EXIF orientation is applied on decode.
type ImagingCodec struct {
	// Background fills transparent areas for formats without alpha.
	// Nil means white.
	Background color.Color
}

// Decode implements Codec.
func (ImagingCodec) Decode(ctx context.Context, src []byte) (image.Image, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	if len(src) == 0 {
		return nil, "", errors.New(errors.ErrCodeDecode, "source image is empty")
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(src))
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeDecode, err, "read image header")
	}
	img, err := imaging.Decode(bytes.NewReader(src), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeDecode, err, "decode %s image", format)
	}
	return img, format, nil
}

// Encode implements Codec.
func (c ImagingCodec) Encode(ctx context.Context, img image.Image, p Params) ([]byte, error) {
	if p.Format == WebP {
		return encodeWebP(ctx, img, p.Quality)
	}
	target, err := imagingFormat(p.Format)
	if err != nil {
		return nil, err
	}

	rendered := c.render(img, p.Format)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	opts := []imaging.EncodeOption{imaging.PNGCompressionLevel(png.BestCompression)}
	if p.Format.Lossy() {
		opts = append(opts, imaging.JPEGQuality(p.Quality))
	}
	if err := imaging.Encode(&buf, rendered, target, opts...); err != nil {
		return nil, errors.Wrap(errors.ErrCodeEncode, err, "encode %s", p.Format)
	}
	return buf.Bytes(), nil
}

func encodeWebP(ctx context.Context, img image.Image, quality int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, webp.Options{Quality: quality}); err != nil {
		return nil, errors.Wrap(errors.ErrCodeEncode, err, "encode webp")
	}
	return buf.Bytes(), nil
}

// render draws img onto an opaque canvas when the target has no alpha.
func (c ImagingCodec) render(img image.Image, f ImageFormat) image.Image {
	if !f.Opaque() {
		return img
	}
	bg := c.Background
	if bg == nil {
		bg = color.White
	}
	b := img.Bounds()
	canvas := imaging.New(b.Dx(), b.Dy(), bg)
	return imaging.Overlay(canvas, img, image.Pt(0, 0), 1.0)
}

func imagingFormat(f ImageFormat) (imaging.Format, error) {
	switch f {
	case JPEG:
		return imaging.JPEG, nil
	case PNG:
		return imaging.PNG, nil
	case GIF:
		return imaging.GIF, nil
	case BMP:
		return imaging.BMP, nil
	case TIFF:
		return imaging.TIFF, nil
	}
	return 0, errors.New(errors.ErrCodeUnsupported, "encoding to %s is not supported", f)
}

var _ Codec = ImagingCodec{}

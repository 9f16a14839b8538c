package compress

import (
	"strings"

	"github.com/matzehuels/devtoys/pkg/errors"
)

// ImageFormat is an image encoding.
type ImageFormat string

const (
	JPEG ImageFormat = "jpeg"
	PNG  ImageFormat = "png"
	GIF  ImageFormat = "gif"
	BMP  ImageFormat = "bmp"
	TIFF ImageFormat = "tiff"
	WebP ImageFormat = "webp"
)

// TargetFormats lists the formats the engine can encode to.
var TargetFormats = []ImageFormat{JPEG, PNG, GIF, BMP, TIFF, WebP}

// ParseImageFormat resolves a format name or file extension. The leading dot
// of an extension is optional and jpg and tif are accepted.
func ParseImageFormat(s string) (ImageFormat, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".") {
	case "jpeg", "jpg":
		return JPEG, nil
	case "png":
		return PNG, nil
	case "gif":
		return GIF, nil
	case "bmp":
		return BMP, nil
	case "tiff", "tif":
		return TIFF, nil
	case "webp":
		return WebP, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unknown image format %q", s)
}

// Lossy reports whether the format takes a quality setting.
func (f ImageFormat) Lossy() bool {
	return f == JPEG || f == WebP
}

// Opaque reports whether the format has no alpha channel, so transparent
// pixels must be flattened onto a background before encoding.
func (f ImageFormat) Opaque() bool {
	return f == JPEG || f == BMP
}

// Encodable reports whether the engine can produce this format.
func (f ImageFormat) Encodable() bool {
	for _, t := range TargetFormats {
		if f == t {
			return true
		}
	}
	return false
}

// MIMEType returns the media type, e.g. "image/jpeg".
func (f ImageFormat) MIMEType() string {
	return "image/" + string(f)
}

// Params are the encode parameters.
type Params struct {
	Format ImageFormat

	// Quality is a percentage in [1, 100]. It only applies to lossy formats
	// and is ignored, not validated, for lossless ones.
	Quality int
}

// Validate reports INVALID_FORMAT for unknown formats, UNSUPPORTED for
// formats that cannot be encoded and INVALID_INPUT for a lossy quality out
// of range.
func (p Params) Validate() error {
	f, err := ParseImageFormat(string(p.Format))
	if err != nil {
		return err
	}
	if !f.Encodable() {
		return errors.New(errors.ErrCodeUnsupported, "encoding to %s is not supported", f)
	}
	if f.Lossy() {
		return errors.ValidateQuality(p.Quality)
	}
	return nil
}

// EffectiveQuality is the quality the encoder will use: Quality for lossy
// formats and 0 otherwise.
func (p Params) EffectiveQuality() int {
	if p.Format.Lossy() {
		return p.Quality
	}
	return 0
}

func (p Params) normalize() Params {
	if f, err := ParseImageFormat(string(p.Format)); err == nil {
		p.Format = f
	}
	return p
}

package upload

import (
	"bytes"
	"image"
	"slices"

	// Registered decoders for the strict image dimension path.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// Category selects which allowed-type list and size ceiling apply to a file.
type Category string

const (
	CategoryImage    Category = "image"
	CategoryVideo    Category = "video"
	CategoryDocument Category = "document"
)

// Limits is the local validation policy for one category.
type Limits struct {
	AllowedTypes []string `mapstructure:"allowed_types"`
	MaxBytes     int64    `mapstructure:"max_bytes"`
}

// DefaultLimits returns the stock per-category policy: images up to 5 MiB,
// videos up to 100 MiB, documents up to 10 MiB.
func DefaultLimits() map[Category]Limits {
	return map[Category]Limits{
		CategoryImage: {
			AllowedTypes: []string{"image/jpeg", "image/png", "image/webp", "image/gif"},
			MaxBytes:     5 << 20,
		},
		CategoryVideo: {
			AllowedTypes: []string{"video/mp4", "video/webm", "video/quicktime"},
			MaxBytes:     100 << 20,
		},
		CategoryDocument: {
			AllowedTypes: []string{
				"application/pdf",
				"application/msword",
				"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
			},
			MaxBytes: 10 << 20,
		},
	}
}

// DimensionBox bounds pixel dimensions for the strict image path. Zero max
// values mean unbounded above.
type DimensionBox struct {
	MinWidth  int `mapstructure:"min_width"`
	MinHeight int `mapstructure:"min_height"`
	MaxWidth  int `mapstructure:"max_width"`
	MaxHeight int `mapstructure:"max_height"`
}

// File is the local input to an upload job: the binary plus its declared
// media type. Size is derived from the content.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// validate runs the pre-network checks in order: type, size, then (for the
// image category with a configured box) pixel dimensions. The first violation
// is terminal.
func validate(file File, category Category, limits Limits, box *DimensionBox) error {
	if !slices.Contains(limits.AllowedTypes, file.ContentType) {
		return failf(KindInvalidType, "type %q not allowed for category %s", file.ContentType, category)
	}

	if int64(len(file.Data)) > limits.MaxBytes {
		return failf(KindTooLarge, "%d bytes exceeds %d byte ceiling for category %s", len(file.Data), limits.MaxBytes, category)
	}

	if category == CategoryImage && box != nil {
		if err := checkDimensions(file, *box); err != nil {
			return err
		}
	}

	return nil
}

func checkDimensions(file File, box DimensionBox) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(file.Data))
	if err != nil {
		return wrap(KindBadDimensions, err, "could not decode image")
	}

	if cfg.Width < box.MinWidth || cfg.Height < box.MinHeight {
		return failf(KindBadDimensions, "%dx%d below minimum %dx%d", cfg.Width, cfg.Height, box.MinWidth, box.MinHeight)
	}
	if (box.MaxWidth > 0 && cfg.Width > box.MaxWidth) || (box.MaxHeight > 0 && cfg.Height > box.MaxHeight) {
		return failf(KindBadDimensions, "%dx%d above maximum %dx%d", cfg.Width, cfg.Height, box.MaxWidth, box.MaxHeight)
	}

	return nil
}

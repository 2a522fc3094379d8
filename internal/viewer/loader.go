package viewer

import (
	"fmt"
	"image"
	"os"

	// Decoders for the media formats the library scanner accepts.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/oukeidos/capt/internal/apperrors"
)

// Loader decodes the image at path.
type Loader func(path string) (image.Image, error)

// DecodeFile is the default loader: it decodes an image file from disk.
// Failures come back as decode-kind errors with a user-safe message.
func DecodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Decode(fmt.Errorf("open %s: %w", path, err))
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, apperrors.Decode(fmt.Errorf("decode %s: %w", path, err))
	}
	return img, nil
}

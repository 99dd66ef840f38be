package validators

import (
	"bytes"
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

var (
	ErrInvalidImage  = errors.New(MsgInvalidImage)
	ErrImageTooLarge = errors.New(MsgImageTooLarge)
)

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

// Image is an upload that passed validation, held in memory.
type Image struct {
	Data        []byte
	ContentType string
	Ext         string
	Width       int
	Height      int
}

func (i *Image) Size() int64 { return int64(len(i.Data)) }

func (i *Image) Reader() io.Reader { return bytes.NewReader(i.Data) }

// ValidateImage reads an uploaded file and checks that it is a decodable image
// no larger than maxBytes. A non-positive maxBytes disables the size check.
func ValidateImage(fh *multipart.FileHeader, maxBytes int64) (*Image, error) {
	if maxBytes > 0 && fh.Size > maxBytes {
		return nil, ErrImageTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if maxBytes > 0 {
		r = io.LimitReader(f, maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, ErrImageTooLarge
	}
	return CheckImage(data)
}

// CheckImage sniffs the content type and decodes the image header.
func CheckImage(data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, ErrInvalidImage
	}
	mt := mimetype.Detect(data)
	ext, ok := allowedImageTypes[mt.String()]
	if !ok {
		return nil, ErrInvalidImage
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width == 0 || cfg.Height == 0 {
		return nil, ErrInvalidImage
	}
	return &Image{
		Data:        data,
		ContentType: mt.String(),
		Ext:         ext,
		Width:       cfg.Width,
		Height:      cfg.Height,
	}, nil
}

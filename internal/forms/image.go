package forms

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

const (
	msgInvalidImage = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
	msgEmptyFile    = "The submitted file is empty."
)

// Upload is an image that passed validation and is ready to be stored.
type Upload struct {
	Data     []byte
	Ext      string
	MIME     string
	Filename string
}

// readImage returns the validated upload in field, nil when none was sent,
// or a user-facing message when the file is not acceptable.
func readImage(r *http.Request, field string, maxUpload int64) (*Upload, string, error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File[field]) == 0 {
		return nil, "", nil
	}
	header := r.MultipartForm.File[field][0]
	if header.Filename == "" {
		return nil, "", nil
	}
	if header.Size == 0 {
		return nil, msgEmptyFile, nil
	}
	if header.Size > maxUpload {
		return nil, tooLarge(maxUpload), nil
	}

	f, err := header.Open()
	if err != nil {
		return nil, "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUpload+1))
	if err != nil {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > maxUpload {
		return nil, tooLarge(maxUpload), nil
	}

	mt, ok := sniffImage(data)
	if !ok {
		return nil, msgInvalidImage, nil
	}
	return &Upload{Data: data, Ext: mt.Extension(), MIME: mt.String(), Filename: header.Filename}, "", nil
}

// sniffImage accepts data whose content is an image type Go can decode.
func sniffImage(data []byte) (*mimetype.MIME, bool) {
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, false
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return nil, false
	}
	return mt, true
}

func tooLarge(limit int64) string {
	return fmt.Sprintf("Ensure this file is at most %d bytes.", limit)
}

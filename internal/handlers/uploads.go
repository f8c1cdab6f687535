package handlers

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/apiclient"
	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/imaging"
)

// maxFormBytes bounds multipart forms; the image itself is capped lower by imaging.
const maxFormBytes = 10 << 20

// uploadImage shrinks the picture sent in field and stores it on the image
// host. It returns "" when the form carries no file. The multipart form must
// already be parsed.
func (a *App) uploadImage(ctx context.Context, r *http.Request, field string) (string, error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File[field]) == 0 {
		return "", nil
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", apiclient.Invalid("Image upload failed!")
	}
	defer file.Close()

	if header.Size > imaging.MaxUploadBytes {
		return "", apiclient.Invalid("Image size should be less than 5MB!")
	}
	data, err := imaging.Shrink(file, header.Filename, a.ImageMaxWidth)
	switch {
	case errors.Is(err, imaging.ErrUnsupportedFormat):
		return "", apiclient.Invalid("Only image files are allowed!")
	case errors.Is(err, imaging.ErrTooLarge):
		return "", apiclient.Invalid("Image size should be less than 5MB!")
	case err != nil:
		slog.Warn("Failed to process uploaded image", "file", header.Filename, "error", err)
		return "", apiclient.Invalid("Image upload failed!")
	}

	return a.Images.Upload(ctx, imaging.JPEGName(header.Filename), bytes.NewReader(data))
}

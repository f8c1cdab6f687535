package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/najmus-shakib01/Flower-Sell-Frontend/internal/metrics"
)

// ImageHost uploads images to a Cloudinary-style unsigned upload endpoint and
// returns the public URL.
type ImageHost struct {
	UploadURL string
	Preset    string
	HTTP      *http.Client
}

func NewImageHost(uploadURL, preset string, timeout time.Duration) *ImageHost {
	return &ImageHost{UploadURL: uploadURL, Preset: preset, HTTP: &http.Client{Timeout: timeout}}
}

func (h *ImageHost) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	if h.UploadURL == "" {
		return "", Invalid("Image uploads are not configured.")
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", err
	}
	if err := mw.WriteField("upload_preset", h.Preset); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.UploadURL, &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	start := time.Now()
	resp, err := h.HTTP.Do(req)
	if err != nil {
		metrics.RecordUpstream(http.MethodPost, "image-upload", "network", time.Since(start))
		return "", &Error{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		kind := kindForStatus(resp.StatusCode)
		metrics.RecordUpstream(http.MethodPost, "image-upload", kind.String(), time.Since(start))
		return "", &Error{Kind: kind, Status: resp.StatusCode, Message: "Image upload failed!", Err: fmt.Errorf("image upload: %s", resp.Status)}
	}
	metrics.RecordUpstream(http.MethodPost, "image-upload", "ok", time.Since(start))

	var out struct {
		SecureURL string `json:"secure_url"`
	}
	if err := json.Unmarshal(raw, &out); err != nil || out.SecureURL == "" {
		return "", &Error{Kind: KindUnknown, Message: "Image upload failed!", Err: fmt.Errorf("image upload returned no secure_url")}
	}
	return out.SecureURL, nil
}

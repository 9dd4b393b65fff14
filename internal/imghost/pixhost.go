package imghost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

const pixhostUploadURL = "https://api.pixhost.to/images"

type pixhostResponse struct {
	ThURL   string `json:"th_url"`
	ShowURL string `json:"show_url"`
}

// uploadPixhostOne uploads a single image. The API only returns a thumbnail
// URL; the direct image URL is derived by rewriting the thumbnail host and
// path segments.
func (c *Client) uploadPixhostOne(ctx context.Context, path string) (Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return Record{}, fmt.Errorf("pixhost upload: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("img", filepath.Base(path))
	if err != nil {
		return Record{}, fmt.Errorf("pixhost upload: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return Record{}, fmt.Errorf("pixhost upload: %w", err)
	}
	if err := writer.WriteField("content_type", "0"); err != nil {
		return Record{}, fmt.Errorf("pixhost upload: %w", err)
	}
	if err := writer.WriteField("max_th_size", "350"); err != nil {
		return Record{}, fmt.Errorf("pixhost upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return Record{}, fmt.Errorf("pixhost upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, pixhostUploadURL, &body)
	if err != nil {
		return Record{}, fmt.Errorf("pixhost upload: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Record{}, fmt.Errorf("pixhost upload: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Record{}, fmt.Errorf("pixhost upload: status %d", resp.StatusCode)
	}

	var decoded pixhostResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Record{}, fmt.Errorf("pixhost response: %w", err)
	}
	if decoded.ThURL == "" {
		return Record{}, fmt.Errorf("pixhost response: missing thumbnail URL")
	}

	raw := strings.Replace(decoded.ThURL, "https://t", "https://img", 1)
	raw = strings.Replace(raw, "/thumbs/", "/images/", 1)
	return Record{RawURL: raw, ImgURL: decoded.ThURL, WebURL: decoded.ShowURL}, nil
}

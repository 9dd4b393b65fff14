package imghost

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
)

const imgbbUploadURL = "https://api.imgbb.com/1/upload"

type imgbbResponse struct {
	Data struct {
		URL        string `json:"url"`
		DisplayURL string `json:"display_url"`
		URLViewer  string `json:"url_viewer"`
	} `json:"data"`
	Success bool `json:"success"`
}

// uploadImgBBOne uploads a single image as a base64 form field.
func (c *Client) uploadImgBBOne(ctx context.Context, path string) (Record, error) {
	if c.cfg.ImgBBAPIKey == "" {
		return Record{}, fmt.Errorf("imgbb upload: api key not configured")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Record{}, fmt.Errorf("imgbb upload: %w", err)
	}

	form := url.Values{}
	form.Set("key", c.cfg.ImgBBAPIKey)
	form.Set("image", base64.StdEncoding.EncodeToString(data))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, imgbbUploadURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return Record{}, fmt.Errorf("imgbb upload: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return Record{}, fmt.Errorf("imgbb upload: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Record{}, fmt.Errorf("imgbb upload: status %d", resp.StatusCode)
	}

	var decoded imgbbResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Record{}, fmt.Errorf("imgbb response: %w", err)
	}
	if !decoded.Success || decoded.Data.URL == "" {
		return Record{}, fmt.Errorf("imgbb response: upload rejected")
	}
	return Record{
		RawURL: decoded.Data.URL,
		ImgURL: decoded.Data.DisplayURL,
		WebURL: decoded.Data.URLViewer,
	}, nil
}

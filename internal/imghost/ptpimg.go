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
)

const ptpimgUploadURL = "https://ptpimg.me/upload.php"

type ptpimgEntry struct {
	Code string `json:"code"`
	Ext  string `json:"ext"`
}

// uploadPTPImg sends the whole batch in one multipart request, as the host
// expects, and derives direct URLs from the returned code/ext pairs.
func (c *Client) uploadPTPImg(ctx context.Context, paths []string) ([]Record, error) {
	if c.cfg.PTPImgAPIKey == "" {
		return nil, fmt.Errorf("ptpimg upload: api key not configured")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("api_key", c.cfg.PTPImgAPIKey); err != nil {
		return nil, fmt.Errorf("ptpimg upload: %w", err)
	}
	for _, path := range paths {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("ptpimg upload: %w", err)
		}
		part, err := writer.CreateFormFile("file-upload[]", filepath.Base(path))
		if err == nil {
			_, err = io.Copy(part, file)
		}
		file.Close()
		if err != nil {
			return nil, fmt.Errorf("ptpimg upload: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("ptpimg upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ptpimgUploadURL, &body)
	if err != nil {
		return nil, fmt.Errorf("ptpimg upload: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ptpimg upload: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("ptpimg returned non-200 status")
		return nil, nil
	}

	var entries []ptpimgEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("ptpimg response: %w", err)
	}

	records := make([]Record, 0, len(entries))
	for _, entry := range entries {
		if entry.Code == "" || entry.Ext == "" {
			continue
		}
		direct := fmt.Sprintf("https://ptpimg.me/%s.%s", entry.Code, entry.Ext)
		records = append(records, Record{RawURL: direct, ImgURL: direct, WebURL: direct})
	}
	return records, nil
}

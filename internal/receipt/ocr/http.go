package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPEngine sends images to a remote OCR service.
type HTTPEngine struct {
	endpoint   string
	httpClient *http.Client
}

// NewHTTPEngine creates an engine posting to endpoint + "/ocr".
func NewHTTPEngine(endpoint string, timeout time.Duration) *HTTPEngine {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPEngine{
		endpoint:   strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (e *HTTPEngine) Name() string { return "http" }

type ocrRequest struct {
	Image    string `json:"image"`
	Language string `json:"language"`
}

type ocrResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

func (e *HTTPEngine) Recognize(ctx context.Context, src Source, lang string) (string, error) {
	image := src.DataURL
	if image == "" {
		data, err := src.Bytes()
		if err != nil {
			return "", fmt.Errorf("ocr http: read image: %w", err)
		}
		image = dataURLPrefix + base64.StdEncoding.EncodeToString(data)
	}

	body, err := json.Marshal(ocrRequest{Image: image, Language: lang})
	if err != nil {
		return "", fmt.Errorf("ocr http: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint+"/ocr", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("ocr http: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ocr http: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("ocr http: read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ocr http: service returned %d: %s", resp.StatusCode, string(respBody))
	}

	var out ocrResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("ocr http: parse response: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("ocr http: %s", out.Error)
	}
	return out.Text, nil
}

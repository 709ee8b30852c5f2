package images

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cyberbrief/newsroom/config"
)

const maxImageBytes = 16 << 20

// HuggingFace calls the hosted text-to-image inference endpoint.
type HuggingFace struct {
	endpoint string
	token    string
	http     *http.Client
}

func NewHuggingFace(cfg config.ImagesConfig) *HuggingFace {
	return &HuggingFace{
		endpoint: strings.TrimRight(cfg.InferenceURL, "/") + "/" + cfg.Model,
		token:    cfg.Token,
		http:     &http.Client{Timeout: cfg.Timeout},
	}
}

// Generate returns the raw image bytes and their content type.
func (h *HuggingFace) Generate(ctx context.Context, prompt string) ([]byte, string, error) {
	body, err := json.Marshal(map[string]string{"inputs": prompt})
	if err != nil {
		return nil, "", fmt.Errorf("HuggingFace.Generate: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, "", fmt.Errorf("HuggingFace.Generate: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+h.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "image/png")

	resp, err := h.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("HuggingFace.Generate: request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, "", fmt.Errorf("HuggingFace.Generate: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("HuggingFace.Generate: status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, "", fmt.Errorf("HuggingFace.Generate: unexpected content type %q", contentType)
	}
	return data, contentType, nil
}

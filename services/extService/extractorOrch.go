package extService

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/STop211650/HyphynessTracker/models"
	"github.com/STop211650/HyphynessTracker/services/common"
	"go.uber.org/zap"
)

const maxScreenshotBytes = 10 << 20

// HTTPExtractor sends bet slip screenshots to the extraction service and
// returns whatever it could read off them.
type HTTPExtractor struct {
	url    string
	apiKey string
	client *http.Client
	log    *zap.Logger
}

type extractRequest struct {
	Screenshot string `json:"screenshot"`
}

type extractResponse struct {
	BetData *models.RawExtraction `json:"bet_data"`
	Error   string                `json:"error"`
}

func NewHTTPExtractor(url, apiKey string, timeout time.Duration, log *zap.Logger) *HTTPExtractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTPExtractor{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

func (e *HTTPExtractor) Extract(ctx context.Context, screenshot []byte) (models.RawExtraction, error) {
	if len(screenshot) == 0 {
		return models.RawExtraction{}, fmt.Errorf("%w: screenshot is empty", common.ErrExtraction)
	}

	body, err := json.Marshal(extractRequest{Screenshot: base64.StdEncoding.EncodeToString(screenshot)})
	if err != nil {
		return models.RawExtraction{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return models.RawExtraction{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	started := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		return models.RawExtraction{}, fmt.Errorf("%w: %v", common.ErrExtraction, err)
	}
	defer resp.Body.Close()

	var decoded extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return models.RawExtraction{}, fmt.Errorf("%w: unreadable response (status %d)", common.ErrExtraction, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK || decoded.BetData == nil {
		msg := decoded.Error
		if msg == "" {
			msg = resp.Status
		}
		return models.RawExtraction{}, fmt.Errorf("%w: %s", common.ErrExtraction, msg)
	}

	e.log.Debug("screenshot extracted", zap.Duration("took", time.Since(started)))
	return *decoded.BetData, nil
}

// FetchAttachment downloads an uploaded screenshot, refusing anything larger
// than the extractor accepts.
func (e *HTTPExtractor) FetchAttachment(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading attachment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading attachment: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxScreenshotBytes+1))
	if err != nil {
		return nil, fmt.Errorf("downloading attachment: %w", err)
	}
	if len(data) > maxScreenshotBytes {
		return nil, fmt.Errorf("attachment is larger than %d bytes", maxScreenshotBytes)
	}
	return data, nil
}

package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/stitchworks/uniform-order-service/pkg/logger"
	"go.uber.org/zap"
)

// Verdict is the outcome of matching OCR-extracted receipt text against an
// expected OR number. Confidence is advisory only and never affects IsValid.
type Verdict struct {
	IsValid       bool   `json:"is_valid"`
	Confidence    int    `json:"confidence"`
	ExtractedText string `json:"extracted_text"`
}

type Config struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// Client calls an external text-extraction service and checks whether the
// extracted text contains the expected official-receipt number.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	logger     logger.ZapLogger
}

func NewClient(cfg *Config, log logger.ZapLogger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     log,
	}
}

const exitCodeSuccess = 1

type parseResponse struct {
	OCRExitCode   int            `json:"OCRExitCode"`
	ParsedResults []parsedResult `json:"ParsedResults"`
	ErrorMessage  []string       `json:"ErrorMessage"`
}

type parsedResult struct {
	ParsedText  string `json:"ParsedText"`
	TextOverlay struct {
		Lines []json.RawMessage `json:"Lines"`
	} `json:"TextOverlay"`
}

// Validate submits the receipt image and checks the extracted text for the
// expected OR number. The match is a lower-cased substring containment check:
// formatting differences or OCR misreads can produce false negatives, which
// is accepted rather than silently corrected. Results are never cached;
// every call re-invokes the service.
func (c *Client) Validate(ctx context.Context, imageDataURI, expectedORNumber string) (*Verdict, error) {
	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	fields := map[string]string{
		"apikey":      c.apiKey,
		"base64Image": imageDataURI,
		"language":    "eng",
		"OCREngine":   "2",
		"filetype":    "JPG",
	}
	for key, value := range fields {
		if err := form.WriteField(key, value); err != nil {
			return nil, fmt.Errorf("build ocr request: %w", err)
		}
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("build ocr request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build ocr request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ServiceError{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ServiceError{Message: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}

	var parsed parseResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &ServiceError{Message: "malformed response: " + err.Error()}
	}

	if parsed.OCRExitCode != exitCodeSuccess {
		msg := "text extraction failed"
		if len(parsed.ErrorMessage) > 0 && parsed.ErrorMessage[0] != "" {
			msg = parsed.ErrorMessage[0]
		}
		return nil, &ServiceError{Message: msg}
	}

	if len(parsed.ParsedResults) == 0 {
		return nil, ErrNoTextExtracted
	}

	texts := make([]string, 0, len(parsed.ParsedResults))
	confidence := 0
	for _, result := range parsed.ParsedResults {
		texts = append(texts, result.ParsedText)
		if len(result.TextOverlay.Lines) > 0 {
			confidence = 1
		}
	}
	extracted := strings.Join(texts, "\n")

	verdict := &Verdict{
		IsValid:       strings.Contains(strings.ToLower(extracted), strings.ToLower(expectedORNumber)),
		Confidence:    confidence,
		ExtractedText: extracted,
	}

	c.logger.Debug("ocr verdict",
		zap.Bool("is_valid", verdict.IsValid),
		zap.Int("confidence", verdict.Confidence),
	)

	return verdict, nil
}

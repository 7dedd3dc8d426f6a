package capture

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cashm/note-sorter/internal/domain"
)

// Classifier turns a captured frame into a label and confidence score.
type Classifier interface {
	Classify(ctx context.Context, imageRef string) (domain.ClassificationResult, error)
}

// HTTPClassifier calls the inference sidecar over HTTP. The model and its
// preprocessing live behind this boundary; the engine only sees the
// (label, confidence) contract.
type HTTPClassifier struct {
	Base string
	HTTP *http.Client
}

// NewHTTPClassifier builds a client for the given base URL.
func NewHTTPClassifier(base string) *HTTPClassifier {
	return &HTTPClassifier{Base: base, HTTP: http.DefaultClient}
}

type classifyRequest struct {
	Image string `json:"image"`
}

type classifyReply struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Classify posts the frame reference and validates the reply against the
// closed label set and the [0,1] confidence range.
func (c *HTTPClassifier) Classify(ctx context.Context, imageRef string) (domain.ClassificationResult, error) {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(classifyRequest{Image: imageRef}); err != nil {
		return domain.ClassificationResult{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Base+"/classify", buf)
	if err != nil {
		return domain.ClassificationResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return domain.ClassificationResult{}, domain.WrapEngineError(domain.ErrClassifierUnavailable.Code, "classify request", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return domain.ClassificationResult{}, domain.WrapEngineError(domain.ErrClassifierUnavailable.Code,
			fmt.Sprintf("classify: %s", resp.Status), domain.ErrClassifyFailed)
	}

	var reply classifyReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return domain.ClassificationResult{}, domain.WrapEngineError(domain.ErrBadClassifierReply.Code, "decode reply", err)
	}

	label := domain.Label(reply.Label)
	if !label.IsValid() {
		return domain.ClassificationResult{}, domain.NewEngineError(domain.ErrBadClassifierReply.Code,
			fmt.Sprintf("label %q is outside the closed set", reply.Label))
	}
	if reply.Confidence < 0 || reply.Confidence > 1 {
		return domain.ClassificationResult{}, domain.NewEngineError(domain.ErrBadClassifierReply.Code,
			fmt.Sprintf("confidence %v is outside [0,1]", reply.Confidence))
	}

	return domain.ClassificationResult{
		Label:      label,
		Confidence: reply.Confidence,
		ImageRef:   imageRef,
	}, nil
}

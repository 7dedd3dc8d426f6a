package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cashm/note-sorter/internal/domain"
)

// HTTPSink forwards journal events to an external dashboard endpoint.
type HTTPSink struct {
	Base string
	HTTP *http.Client
}

// NewHTTPSink builds a sink posting to base+"/sorting_log".
func NewHTTPSink(base string) *HTTPSink {
	return &HTTPSink{Base: base, HTTP: http.DefaultClient}
}

// Emit posts the event as JSON.
func (s *HTTPSink) Emit(ctx context.Context, ev domain.TelemetryEvent) error {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(ev); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Base+"/sorting_log", buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("telemetry post: %s", resp.Status)
	}
	return nil
}

package httpapi

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"nllbd/pkg/types"
)

// Service that blocks until the context is done; used to exercise timeout path.
type blockService struct{}

func (b *blockService) Status() types.StatusResponse { return types.StatusResponse{} }
func (b *blockService) Ready() bool                  { return true }
func (b *blockService) Handle(ctx context.Context, job types.Job) types.JobOutput {
	<-ctx.Done()
	return types.Failure(ctx.Err().Error())
}

func TestRunSyncLogsWithZerolog(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))
	defer SetLogger(zerolog.Nop())

	w := postJSON(t, NewMux(&mockService{}), "/runsync?log=debug", `{"id":"j1","input":{"text":"hi"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with debug logging, got %d", w.Code)
	}
	out := buf.String()
	if !bytes.Contains(buf.Bytes(), []byte(`"job_id":"j1"`)) || !bytes.Contains(buf.Bytes(), []byte("runsync end")) {
		t.Fatalf("missing log lines: %q", out)
	}
}

func TestRunSyncLogOff(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))
	defer SetLogger(zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/runsync", bytes.NewBufferString(`{"input":{"text":"hi"}}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Log-Level", "off")
	w := httptest.NewRecorder()
	NewMux(&mockService{}).ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no logs, got %q", buf.String())
	}
}

func TestCORSAndSecurityHeaders(t *testing.T) {
	// Enable CORS temporarily
	SetCORSOptions(true, []string{"*"}, nil, nil)
	defer SetCORSOptions(false, nil, nil, nil)

	h := NewMux(&mockService{ready: true})
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("expected X-Content-Type-Options=nosniff, got %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got == "" {
		t.Fatalf("expected CORS header Access-Control-Allow-Origin to be set, got empty")
	}
}

func TestCORSDisabledByDefault(t *testing.T) {
	h := NewMux(&mockService{})
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no CORS header, got %q", got)
	}
}

func TestRunSyncJobTimeout(t *testing.T) {
	defer SetJobTimeout(0)
	SetJobTimeout(50 * time.Millisecond)

	w := postJSON(t, NewMux(&blockService{}), "/runsync", `{"input":{"text":"x"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with FAILED payload, got %d", w.Code)
	}
	resp := decodeRun(t, w)
	if resp.Status != types.StatusFailed || resp.Output.Error == nil || *resp.Output.Error != context.DeadlineExceeded.Error() {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestRunSyncBaseContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	SetBaseContext(ctx)
	defer SetBaseContext(nil)
	cancel()

	w := postJSON(t, NewMux(&blockService{}), "/runsync", `{"input":{"text":"x"}}`)
	resp := decodeRun(t, w)
	if resp.Status != types.StatusFailed {
		t.Fatalf("expected FAILED after shutdown, got %+v", resp)
	}
}

func TestContentTypeCaseInsensitive(t *testing.T) {
	h := NewMux(&mockService{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/runsync", bytes.NewBufferString(`{"input":{"text":"hi"}}`))
	req.Header.Set("Content-Type", "Application/JSON; charset=utf-8")
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with mixed-case content-type, got %d", rec.Code)
	}
}

func TestSwaggerDocServed(t *testing.T) {
	h := NewMux(&mockService{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !bytes.Contains(body, []byte("/runsync")) {
		t.Fatalf("doc.json missing /runsync: %.200s", body)
	}
}

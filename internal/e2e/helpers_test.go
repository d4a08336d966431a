package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"nllbd/internal/backend"
	"nllbd/internal/handler"
	"nllbd/internal/httpapi"
	"nllbd/internal/manager"
)

// sidecar is an in-process stand-in for the model runtime. It "translates"
// by decoding to a fixed string per forced BOS token.
type sidecar struct {
	cuda      bool
	genDelay  time.Duration
	failGen   atomic.Bool
	inflight  atomic.Int32
	maxActive atomic.Int32
	emptied   atomic.Int32

	mu       sync.Mutex
	lastBOS  int
	bosByTok map[string]int
	textByID map[int]string
}

func newSidecar() *sidecar {
	return &sidecar{
		bosByTok: map[string]int{"eng_Latn": 256047, "fra_Latn": 256057, "kor_Hang": 256098},
		textByID: map[int]string{256047: "Hello", 256057: "Bonjour", 256098: "안녕하세요"},
	}
}

func (s *sidecar) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}
	mux.HandleFunc("/v1/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"status": "ok", "cuda_available": s.cuda})
	})
	mux.HandleFunc("/v1/models/load", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		writeJSON(w, req)
	})
	mux.HandleFunc("/v1/tokenize", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"input_ids": []int{256047, 17, 2}, "attention_mask": []int{1, 1, 1}})
	})
	mux.HandleFunc("/v1/tokens/ids", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Tokens []string `json:"tokens"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		ids := make([]int, 0, len(req.Tokens))
		s.mu.Lock()
		for _, tok := range req.Tokens {
			ids = append(ids, s.bosByTok[tok]) // unknown tokens map to 0 (unk)
		}
		s.mu.Unlock()
		writeJSON(w, map[string]any{"ids": ids})
	})
	mux.HandleFunc("/v1/generate", func(w http.ResponseWriter, r *http.Request) {
		n := s.inflight.Add(1)
		defer s.inflight.Add(-1)
		for {
			m := s.maxActive.Load()
			if n <= m || s.maxActive.CompareAndSwap(m, n) {
				break
			}
		}
		if s.genDelay > 0 {
			time.Sleep(s.genDelay)
		}
		if s.failGen.Load() {
			http.Error(w, "CUDA out of memory", http.StatusInternalServerError)
			return
		}
		var req struct {
			ForcedBOS int `json:"forced_bos_token_id"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		s.mu.Lock()
		s.lastBOS = req.ForcedBOS
		s.mu.Unlock()
		writeJSON(w, map[string]any{"sequences": [][]int{{2, req.ForcedBOS, 2}}})
	})
	mux.HandleFunc("/v1/decode", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			IDs []int `json:"ids"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		text := ""
		if len(req.IDs) > 1 {
			s.mu.Lock()
			text = s.textByID[req.IDs[1]]
			s.mu.Unlock()
		}
		writeJSON(w, map[string]any{"text": text})
	})
	mux.HandleFunc("/v1/cache/empty", func(w http.ResponseWriter, r *http.Request) {
		s.emptied.Add(1)
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

// bundledMap is the language map shipped at the repository root.
func bundledMap(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	// this file: <root>/internal/e2e/helpers_test.go
	return filepath.Join(filepath.Dir(thisFile), "..", "..", "bcp47_to_flores.json")
}

// newServer wires the real runtime client, manager, handler and HTTP API
// against sc and returns the API server.
func newServer(t *testing.T, sc *sidecar, strict bool) (*httptest.Server, *manager.Manager) {
	t.Helper()
	rt := httptest.NewServer(sc.handler(t))
	t.Cleanup(rt.Close)

	mgr, err := manager.New(context.Background(), manager.ManagerConfig{
		ModelID:         "facebook/nllb-200-distilled-600M",
		LangMapPath:     bundledMap(t),
		StrictLanguages: strict,
		Runtime:         backend.New(rt.URL, backend.WithTimeout(5*time.Second)),
	})
	if err != nil {
		t.Fatalf("manager.New: %v", err)
	}
	t.Cleanup(func() { _ = mgr.Close() })

	svc := struct {
		*handler.Handler
		*manager.Manager
	}{handler.New(mgr), mgr}
	srv := httptest.NewServer(httpapi.NewMux(svc))
	t.Cleanup(srv.Close)
	return srv, mgr
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func httpPostJSON(t *testing.T, url string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

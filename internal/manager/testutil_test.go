package manager

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"nllbd/internal/langmap"
)

// fakeRuntime is a lightweight in-memory runtime used for tests.
type fakeRuntime struct {
	accel     bool
	probeErr  error
	loadErr   error
	cacheErr  error
	tok       *fakeTokenizer
	mdl       *fakeModel
	loaded    LoadSpec
	emptied   int
	emptiedOn Device
}

func newFakeRuntime() *fakeRuntime {
	return &fakeRuntime{
		tok: &fakeTokenizer{ids: map[string]int{"fra_Latn": 256057, "eng_Latn": 256047, "kor_Hang": 256098}},
		mdl: &fakeModel{seqs: [][]int{{2, 256057, 17, 2}}},
	}
}

func (r *fakeRuntime) AcceleratorAvailable(ctx context.Context) (bool, error) {
	return r.accel, r.probeErr
}

func (r *fakeRuntime) Load(ctx context.Context, spec LoadSpec) (Tokenizer, Model, error) {
	r.loaded = spec
	if r.loadErr != nil {
		return nil, nil, r.loadErr
	}
	return r.tok, r.mdl, nil
}

func (r *fakeRuntime) EmptyCache(ctx context.Context, d Device) error {
	r.emptied++
	r.emptiedOn = d
	return r.cacheErr
}

type fakeTokenizer struct {
	ids       map[string]int
	encodeErr error
	decodeErr error
	decoded   string
	gotText   string
	gotSkip   bool
}

func (t *fakeTokenizer) Encode(ctx context.Context, text string) (Encoding, error) {
	t.gotText = text
	if t.encodeErr != nil {
		return Encoding{}, t.encodeErr
	}
	return Encoding{InputIDs: []int{256047, 1, 2}, AttentionMask: []int{1, 1, 1}}, nil
}

func (t *fakeTokenizer) TokenID(ctx context.Context, token string) (int, error) {
	id, ok := t.ids[token]
	if !ok {
		return 0, errors.New("unknown token " + token)
	}
	return id, nil
}

func (t *fakeTokenizer) Decode(ctx context.Context, ids []int, skipSpecial bool) (string, error) {
	t.gotSkip = skipSpecial
	if t.decodeErr != nil {
		return "", t.decodeErr
	}
	if t.decoded == "" {
		return "Bonjour", nil
	}
	return t.decoded, nil
}

type fakeModel struct {
	mu     sync.Mutex
	seqs   [][]int
	genErr error
	panics bool
	block  chan struct{}
	opts   []GenerateOptions
	closed bool
}

func (m *fakeModel) Generate(ctx context.Context, in Encoding, opts GenerateOptions) ([][]int, error) {
	m.mu.Lock()
	m.opts = append(m.opts, opts)
	block := m.block
	m.mu.Unlock()
	if m.panics {
		panic("boom")
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.genErr != nil {
		return nil, m.genErr
	}
	return m.seqs, nil
}

func (m *fakeModel) Close() error { m.closed = true; return nil }

func (m *fakeModel) lastOpts(t *testing.T) GenerateOptions {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.opts) == 0 {
		t.Fatalf("Generate was not called")
	}
	return m.opts[len(m.opts)-1]
}

type fakeAuth struct {
	err   error
	token string
}

func (a *fakeAuth) Login(ctx context.Context, token string) (string, error) {
	a.token = token
	if a.err != nil {
		return "", a.err
	}
	return "tester", nil
}

func testLanguages() *langmap.Map {
	return langmap.New(map[string]string{"en": "eng_Latn", "fr": "fra_Latn", "ko": "kor_Hang"})
}

// newTestManager builds a ready Manager around rt.
func newTestManager(t *testing.T, rt *fakeRuntime, mut ...func(*ManagerConfig)) *Manager {
	t.Helper()
	cfg := ManagerConfig{Runtime: rt, Languages: testLanguages()}
	for _, f := range mut {
		f(&cfg)
	}
	m, err := New(testCtx(t), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

// testCtx returns a context with a short timeout, canceled on test cleanup.
func testCtx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return c
}

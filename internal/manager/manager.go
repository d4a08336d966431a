package manager

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"nllbd/internal/langmap"
)

type Manager struct {
	mu      sync.RWMutex
	state   State
	err     string
	modelID string
	device  Device
	strict  bool

	langs     *langmap.Map
	runtime   Runtime
	tokenizer Tokenizer
	model     Model
	gen       GenerateOptions

	afterInvoke PostInferenceHook
	publisher   EventPublisher
	log         zerolog.Logger

	// genCh is the single in-flight generation slot.
	genCh   chan struct{}
	waiting atomic.Int32

	startTime   time.Time
	invocations uint64
	failures    uint64
	lastErr     string
}

// New selects the device, authenticates against the hub, loads the language
// map and asks the runtime for the tokenizer and model. Hub authentication
// failures are logged and ignored; every other failure is returned and the
// caller is expected to exit.
func New(ctx context.Context, cfg ManagerConfig) (*Manager, error) {
	cfg = cfg.withDefaults()
	m := &Manager{
		state:     StateLoading,
		modelID:   cfg.ModelID,
		strict:    cfg.StrictLanguages,
		runtime:   cfg.Runtime,
		gen:       GenerateOptions{MaxNewTokens: cfg.MaxNewTokens, NumBeams: cfg.NumBeams},
		publisher: cfg.Publisher,
		log:       cfg.Logger.With().Str("component", "manager").Logger(),
		genCh:     make(chan struct{}, 1),
		startTime: time.Now(),
	}
	if m.runtime == nil {
		err := ErrConfig("new manager", errors.New("runtime is required"))
		m.log.Error().Err(err).Msg("initialization failed")
		return nil, err
	}
	m.device = selectDevice(ctx, cfg.CPUOnly, m.runtime, m.log)

	m.authenticate(ctx, cfg.HFToken, cfg.Authenticator)

	if err := m.initialize(ctx, cfg); err != nil {
		m.log.Error().Err(err).Msg("initialization failed")
		m.emit(EventInitFailed, map[string]any{"error": err.Error()})
		return nil, err
	}
	m.afterInvoke = m.postInferenceHook(cfg.AfterInvoke)
	return m, nil
}

func (m *Manager) authenticate(ctx context.Context, token string, auth Authenticator) {
	if token == "" || auth == nil {
		return
	}
	m.log.Info().Msg("logging into hugging face hub")
	name, err := auth.Login(ctx, token)
	if err != nil {
		m.log.Error().Err(err).Msg("hub login failed; continuing with public or cached artifacts")
		m.emit(EventAuthFailed, map[string]any{"error": err.Error()})
		return
	}
	m.log.Info().Str("account", name).Msg("hub login ok")
	m.emit(EventAuthOK, map[string]any{"account": name})
}

func (m *Manager) initialize(ctx context.Context, cfg ManagerConfig) error {
	langs := cfg.Languages
	if langs == nil {
		m.log.Info().Str("path", cfg.LangMapPath).Msg("loading language code map")
		l, err := langmap.Load(cfg.LangMapPath)
		if err != nil {
			return ErrConfig("load language map", err)
		}
		langs = l
	}

	m.log.Info().Str("model", m.modelID).Str("device", string(m.device)).Msg("loading model")
	tok, mdl, err := m.runtime.Load(ctx, LoadSpec{ModelID: m.modelID, Device: m.device, Token: cfg.HFToken})
	if err != nil {
		return ErrModelLoad("load "+m.modelID, err)
	}
	if tok == nil || mdl == nil {
		return ErrModelLoad("load "+m.modelID, errors.New("runtime returned no tokenizer or model"))
	}

	m.mu.Lock()
	m.langs = langs
	m.tokenizer = tok
	m.model = mdl
	m.state = StateReady
	m.mu.Unlock()
	m.log.Info().Int("languages", langs.Len()).Msg("model and tokenizer loaded")
	m.emit(EventModelLoaded, map[string]any{"device": string(m.device)})
	return nil
}

// Ready reports whether the manager can serve invocations.
func (m *Manager) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state == StateReady
}

func (m *Manager) ModelID() string { return m.modelID }

func (m *Manager) Device() Device { return m.device }

// Languages returns the loaded language map.
func (m *Manager) Languages() *langmap.Map {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.langs
}

// Close releases the model. Invocations after Close fail.
func (m *Manager) Close() error {
	m.mu.Lock()
	mdl := m.model
	m.state = StateClosed
	m.mu.Unlock()
	if mdl == nil {
		return nil
	}
	return mdl.Close()
}

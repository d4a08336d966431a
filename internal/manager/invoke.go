package manager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nllbd/internal/langmap"
)

// Invoke translates text into the language named by langCode (a BCP-47 tag
// or a Flores code; empty means langmap.DefaultCode). Failures are logged
// and returned as *Error; nothing is retried.
func (m *Manager) Invoke(ctx context.Context, text, langCode string) (string, error) {
	if langCode == "" {
		langCode = langmap.DefaultCode
	}
	m.log.Info().Int("chars", len(text)).Str("lang_code", langCode).Msg("invoking translation")
	start := time.Now()

	out, err := m.invoke(ctx, text, langCode)
	m.record(err)
	if err != nil {
		m.log.Error().Err(err).Str("lang_code", langCode).Dur("dur", time.Since(start)).Msg("translation failed")
		m.emit(EventInvokeFailed, map[string]any{"lang_code": langCode, "error": err.Error()})
		return "", err
	}
	m.log.Debug().Str("lang_code", langCode).Dur("dur", time.Since(start)).Msg("translation done")
	m.emit(EventInvokeDone, map[string]any{"lang_code": langCode})
	return out, nil
}

func (m *Manager) invoke(ctx context.Context, text, langCode string) (string, error) {
	m.mu.RLock()
	state, langs, tok, mdl := m.state, m.langs, m.tokenizer, m.model
	m.mu.RUnlock()
	if state != StateReady {
		return "", ErrInference("invoke", fmt.Errorf("manager is %s", state))
	}

	code, err := m.resolve(langs, langCode)
	if err != nil {
		return "", err
	}

	release, err := m.acquireSlot(ctx)
	if err != nil {
		return "", ErrInference("admit", err)
	}
	defer release()
	defer m.runHook(ctx)

	return m.generate(ctx, tok, mdl, text, code)
}

func (m *Manager) resolve(langs *langmap.Map, langCode string) (string, error) {
	if !m.strict {
		return langs.Resolve(langCode), nil
	}
	code, err := langs.ResolveStrict(langCode)
	if err != nil {
		return "", ErrInvalidInput("resolve language", err)
	}
	return code, nil
}

// generate runs encode, generate and decode. A panic inside the runtime
// client is reported as an inference error.
func (m *Manager) generate(ctx context.Context, tok Tokenizer, mdl Model, text, code string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ErrInference("generate", fmt.Errorf("panic: %v", r))
		}
	}()

	enc, err := tok.Encode(ctx, text)
	if err != nil {
		return "", ErrInference("encode", err)
	}
	bos, err := tok.TokenID(ctx, code)
	if err != nil {
		return "", ErrInference("lookup "+code+" token", err)
	}
	opts := m.gen
	opts.ForcedBOSTokenID = bos
	seqs, err := mdl.Generate(ctx, enc, opts)
	if err != nil {
		return "", ErrInference("generate", err)
	}
	if len(seqs) == 0 {
		return "", ErrInference("generate", errors.New("runtime returned no sequences"))
	}
	out, err = tok.Decode(ctx, seqs[0], true)
	if err != nil {
		return "", ErrInference("decode", err)
	}
	return out, nil
}

func (m *Manager) runHook(ctx context.Context) {
	if m.afterInvoke == nil {
		return
	}
	// The hook still runs when the request context is already done.
	hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := m.afterInvoke(hctx, m.device); err != nil {
		m.log.Warn().Err(err).Msg("post-inference hook failed")
	}
}

func (m *Manager) record(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invocations++
	if err != nil {
		m.failures++
		m.lastErr = err.Error()
	}
}

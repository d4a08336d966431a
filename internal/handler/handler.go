// Package handler is the job entry point shared by every host: it decodes a
// job, calls the translator and always answers with a result payload.
package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"nllbd/internal/manager"
	"nllbd/pkg/types"
)

// Translator is the subset of *manager.Manager the handler needs.
type Translator interface {
	Invoke(ctx context.Context, text, langCode string) (string, error)
}

// Outcome labels reported to an ObserverFunc.
const (
	OutcomeSuccess      = "success"
	OutcomeInvalidInput = "invalid_input"
	OutcomeError        = "error"
)

// ObserverFunc is called once per handled job.
type ObserverFunc func(outcome string, duration time.Duration)

type Option func(*Handler)

// WithLogger sets the handler logger.
func WithLogger(l zerolog.Logger) Option { return func(h *Handler) { h.log = l } }

// WithObserver installs a per-job callback, typically a metrics recorder.
func WithObserver(fn ObserverFunc) Option { return func(h *Handler) { h.observe = fn } }

type Handler struct {
	tr      Translator
	log     zerolog.Logger
	observe ObserverFunc
}

func New(tr Translator, opts ...Option) *Handler {
	h := &Handler{tr: tr, log: zerolog.Nop()}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

var nullJSON = []byte("null")

// Handle runs one job. It never returns an error: every failure, including a
// panic inside the translator, becomes JobOutput.Error.
func (h *Handler) Handle(ctx context.Context, job types.Job) types.JobOutput {
	start := time.Now()
	translation, err := h.run(ctx, job)
	dur := time.Since(start)

	outcome := OutcomeSuccess
	switch {
	case err == nil:
		h.log.Info().Str("job_id", job.ID).Dur("dur", dur).Msg("job done")
	case manager.IsInvalidInput(err):
		outcome = OutcomeInvalidInput
		h.log.Warn().Str("job_id", job.ID).Err(err).Msg("job rejected")
	default:
		outcome = OutcomeError
		h.log.Error().Str("job_id", job.ID).Err(err).Dur("dur", dur).Msg("job failed")
	}
	if h.observe != nil {
		h.observe(outcome, dur)
	}
	if err != nil {
		return types.Failure(err.Error())
	}
	return types.Success(translation)
}

func (h *Handler) run(ctx context.Context, job types.Job) (translation string, err error) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error().Str("job_id", job.ID).Interface("panic", r).Msg("translator panicked")
			err = manager.ErrInference("handle job", fmt.Errorf("panic: %v", r))
		}
	}()
	text, lang, err := decodeInput(job.Input)
	if err != nil {
		return "", err
	}
	h.log.Debug().Str("job_id", job.ID).Str("lang_code", lang).Int("text_len", len(text)).Msg("job start")
	return h.tr.Invoke(ctx, text, lang)
}

// decodeInput extracts text and lang_code. A missing lang_code means the
// default language; a null one is rejected, as is a missing text.
func decodeInput(raw json.RawMessage) (text, lang string, err error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, nullJSON) {
		return "", "", manager.ErrInvalidInput("decode job", errors.New("missing required field 'input'"))
	}
	var in types.JobInput
	if err := json.Unmarshal(raw, &in); err != nil {
		return "", "", manager.ErrInvalidInput("decode job", err)
	}
	if in.Text == nil {
		return "", "", manager.ErrInvalidInput("decode job", errors.New("missing required field 'text'"))
	}
	lang = types.DefaultLangCode
	if in.LangCode == nil && hasNullField(raw, "lang_code") {
		return "", "", manager.ErrInvalidInput("decode job", errors.New("field 'lang_code' must be a string, got null"))
	}
	if in.LangCode != nil {
		lang = *in.LangCode
	}
	return *in.Text, lang, nil
}

func hasNullField(raw json.RawMessage, name string) bool {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return false
	}
	v, ok := fields[name]
	return ok && bytes.Equal(bytes.TrimSpace(v), nullJSON)
}

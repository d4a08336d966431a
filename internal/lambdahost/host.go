// Package lambdahost runs the job handler inside the AWS Lambda event loop.
package lambdahost

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog"

	"nllbd/internal/manager"
	"nllbd/pkg/types"
)

// JobHandler is implemented by *handler.Handler.
type JobHandler interface {
	Handle(ctx context.Context, job types.Job) types.JobOutput
}

type Option func(*Host)

// WithLogger sets the host logger.
func WithLogger(l zerolog.Logger) Option { return func(h *Host) { h.log = l } }

// WithInvoker replaces the Lambda client used for warmup fan-out.
func WithInvoker(inv Invoker) Option { return func(h *Host) { h.invoker = inv } }

// WithFunctionName overrides $AWS_LAMBDA_FUNCTION_NAME for self-invocation.
func WithFunctionName(name string) Option { return func(h *Host) { h.functionName = name } }

// WithWarmupDelay overrides DefaultWarmupDelay.
func WithWarmupDelay(d time.Duration) Option { return func(h *Host) { h.warmupDelay = d } }

// WithMaxFanOut caps the siblings one warmup event may start. Zero or less
// disables fan-out.
func WithMaxFanOut(n int) Option { return func(h *Host) { h.maxFanOut = n } }

type Host struct {
	handler      JobHandler
	log          zerolog.Logger
	functionName string
	warmupDelay  time.Duration
	maxFanOut    int

	invokerMu sync.Mutex
	invoker   Invoker
}

func New(handler JobHandler, opts ...Option) *Host {
	h := &Host{
		handler:      handler,
		log:          zerolog.Nop(),
		functionName: os.Getenv("AWS_LAMBDA_FUNCTION_NAME"),
		warmupDelay:  DefaultWarmupDelay,
		maxFanOut:    DefaultMaxFanOut,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Start hands control to the Lambda runtime. It does not return.
func (h *Host) Start() {
	lambda.Start(h.HandleRequest)
}

// HandleRequest answers warmup pings without touching the model and passes
// every other event to the job handler. The error result is always nil so
// job failures stay in the payload.
func (h *Host) HandleRequest(ctx context.Context, event json.RawMessage) (interface{}, error) {
	if w, ok := ParseWarmup(event); ok {
		return h.HandleWarmup(ctx, w), nil
	}

	var job types.Job
	if err := json.Unmarshal(event, &job); err != nil {
		err = manager.ErrInvalidInput("decode event", err)
		h.log.Warn().Err(err).Msg("event rejected")
		return types.Failure(err.Error()), nil
	}
	return h.handler.Handle(ctx, job), nil
}

// HandleWarmup keeps this instance warm and starts up to maxFanOut siblings
// when the ping asks for concurrency. The body counts this instance plus
// the sibling invocations Lambda accepted.
func (h *Host) HandleWarmup(ctx context.Context, w WarmupEvent) map[string]interface{} {
	warm := 1
	if n := min(w.Concurrency, h.maxFanOut); n > 0 {
		if n < w.Concurrency {
			h.log.Warn().Int("requested", w.Concurrency).Int("max", h.maxFanOut).Msg("warmup fan-out capped")
		}
		started, err := h.fanOut(ctx, n)
		if err != nil {
			h.log.Warn().Err(err).Int("requested", n).Int("started", started).Msg("warmup fan-out incomplete")
		}
		warm += started
	}

	if h.warmupDelay > 0 {
		t := time.NewTimer(h.warmupDelay)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
		}
	}

	h.log.Debug().Int("instances", warm).Msg("warm")
	return map[string]interface{}{
		"statusCode": 200,
		"body":       WarmupResponse{Status: "warm", InstancesWarmed: warm},
	}
}

func (h *Host) lambdaInvoker(ctx context.Context) (Invoker, error) {
	h.invokerMu.Lock()
	defer h.invokerMu.Unlock()
	if h.invoker != nil {
		return h.invoker, nil
	}
	inv, err := newInvoker(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	h.invoker = inv
	return inv, nil
}

var errNoFunctionName = errors.New("AWS_LAMBDA_FUNCTION_NAME is not set")

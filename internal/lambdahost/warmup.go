package lambdahost

import (
	"context"
	"encoding/json"
	"math"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	lambdasdk "github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"golang.org/x/sync/errgroup"
)

const (
	// WarmupSource is the "source" value of a scheduled warmup ping.
	WarmupSource = "warmup"

	// DefaultWarmupDelay keeps a warmup invocation alive long enough for the
	// sibling invocations to land on other instances.
	DefaultWarmupDelay = 75 * time.Millisecond

	// DefaultMaxFanOut is the sibling cap when none is configured.
	DefaultMaxFanOut = 10

	// invokeParallelism bounds concurrent lambda:Invoke calls.
	invokeParallelism = 4
)

// WarmupEvent is the scheduled-rule payload. Concurrency asks for that many
// extra warm instances besides the one handling the event.
type WarmupEvent struct {
	Source      string `json:"source"`
	Concurrency int    `json:"concurrency"`
}

// WarmupResponse reports how many instances are known to be warm.
type WarmupResponse struct {
	Status          string `json:"status"`
	InstancesWarmed int    `json:"instancesWarmed"`
}

// Invoker is the subset of the Lambda API client used for self-invocation.
type Invoker interface {
	Invoke(ctx context.Context, params *lambdasdk.InvokeInput, optFns ...func(*lambdasdk.Options)) (*lambdasdk.InvokeOutput, error)
}

func newInvoker(ctx context.Context) (Invoker, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return lambdasdk.NewFromConfig(cfg), nil
}

// ParseWarmup reports whether event is a warmup ping: a JSON object whose
// source is WarmupSource and which has no "input" key. Anything carrying
// input is a job, whatever its source says. A missing, negative or
// non-numeric concurrency means no fan-out.
func ParseWarmup(event json.RawMessage) (WarmupEvent, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(event, &fields); err != nil {
		return WarmupEvent{}, false
	}
	if _, isJob := fields["input"]; isJob {
		return WarmupEvent{}, false
	}
	var source string
	if err := json.Unmarshal(fields["source"], &source); err != nil || source != WarmupSource {
		return WarmupEvent{}, false
	}
	w := WarmupEvent{Source: source}
	var n float64
	if err := json.Unmarshal(fields["concurrency"], &n); err == nil && n > 0 {
		w.Concurrency = int(math.Min(n, math.MaxInt32))
	}
	return w, true
}

// fanOut starts n sibling instances with async self-invocations, at most
// invokeParallelism in flight. It returns how many invocations were
// accepted and the first error seen.
func (h *Host) fanOut(ctx context.Context, n int) (int, error) {
	if h.functionName == "" {
		return 0, errNoFunctionName
	}
	client, err := h.lambdaInvoker(ctx)
	if err != nil {
		return 0, err
	}
	// Siblings get concurrency 0 and stop there.
	payload, err := json.Marshal(WarmupEvent{Source: WarmupSource})
	if err != nil {
		return 0, err
	}

	var accepted atomic.Int64
	var g errgroup.Group
	g.SetLimit(invokeParallelism)
	for range n {
		g.Go(func() error {
			_, err := client.Invoke(ctx, &lambdasdk.InvokeInput{
				FunctionName:   aws.String(h.functionName),
				InvocationType: lambdatypes.InvocationTypeEvent,
				Payload:        payload,
			})
			if err != nil {
				return err
			}
			accepted.Add(1)
			return nil
		})
	}
	err = g.Wait()
	return int(accepted.Load()), err
}

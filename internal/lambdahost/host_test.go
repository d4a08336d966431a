package lambdahost

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	lambdasdk "github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"

	"nllbd/pkg/types"
)

type fakeHandler struct {
	jobs []types.Job
}

func (f *fakeHandler) Handle(ctx context.Context, job types.Job) types.JobOutput {
	f.jobs = append(f.jobs, job)
	return types.Success("Bonjour")
}

// fakeInvoker records invocations. err fails every call; failEvery fails
// every n-th call.
type fakeInvoker struct {
	mu        sync.Mutex
	inputs    []*lambdasdk.InvokeInput
	err       error
	failEvery int
	active    int
	peak      int
}

func (f *fakeInvoker) Invoke(ctx context.Context, in *lambdasdk.InvokeInput, optFns ...func(*lambdasdk.Options)) (*lambdasdk.InvokeOutput, error) {
	f.mu.Lock()
	f.inputs = append(f.inputs, in)
	n := len(f.inputs)
	f.active++
	f.peak = max(f.peak, f.active)
	f.mu.Unlock()

	time.Sleep(time.Millisecond)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.active--
	if f.err != nil {
		return nil, f.err
	}
	if f.failEvery > 0 && n%f.failEvery == 0 {
		return nil, errors.New("throttled")
	}
	return &lambdasdk.InvokeOutput{StatusCode: 202}, nil
}

func TestParseWarmup(t *testing.T) {
	cases := []struct {
		event       string
		ok          bool
		concurrency int
	}{
		{`{"source":"warmup"}`, true, 0},
		{`{"source":"warmup","concurrency":3}`, true, 3},
		{`{"source":"warmup","concurrency":-2}`, true, 0},
		{`{"source":"warmup","concurrency":"lots"}`, true, 0},
		{`{"source":"warmup","concurrency":1e30}`, true, math.MaxInt32},
		{`{"source":"warmup","input":{"text":"hi"}}`, false, 0},
		{`{"source":"warmup","input":null}`, false, 0},
		{`{"source":"aws.events"}`, false, 0},
		{`{"source":42}`, false, 0},
		{`{"input":{"text":"hi"}}`, false, 0},
		{`[1,2]`, false, 0},
		{`not json`, false, 0},
	}
	for _, tc := range cases {
		w, ok := ParseWarmup(json.RawMessage(tc.event))
		if ok != tc.ok {
			t.Fatalf("%s: ok=%v want %v", tc.event, ok, tc.ok)
		}
		if ok && w.Concurrency != tc.concurrency {
			t.Fatalf("%s: concurrency=%d want %d", tc.event, w.Concurrency, tc.concurrency)
		}
	}
}

func TestWarmupSourceWithInputIsAJob(t *testing.T) {
	fh := &fakeHandler{}
	inv := &fakeInvoker{}
	h := New(fh, WithInvoker(inv), WithFunctionName("fn"), WithWarmupDelay(0))
	res, err := h.HandleRequest(context.Background(), json.RawMessage(`{"source":"warmup","input":{"text":"Hello","lang_code":"fr"}}`))
	if err != nil {
		t.Fatalf("HandleRequest() error = %v", err)
	}
	if out, ok := res.(types.JobOutput); !ok || out.Failed() {
		t.Fatalf("expected a job result, got %#v", res)
	}
	if len(fh.jobs) != 1 || len(inv.inputs) != 0 {
		t.Fatalf("jobs=%d invokes=%d", len(fh.jobs), len(inv.inputs))
	}
}

func TestWarmupFanOutIsCapped(t *testing.T) {
	inv := &fakeInvoker{}
	h := New(&fakeHandler{}, WithInvoker(inv), WithFunctionName("fn"), WithWarmupDelay(0), WithMaxFanOut(5))
	res, err := h.HandleRequest(context.Background(), json.RawMessage(`{"source":"warmup","concurrency":20000}`))
	if err != nil {
		t.Fatalf("HandleRequest() error = %v", err)
	}
	if got := res.(map[string]interface{})["body"].(WarmupResponse).InstancesWarmed; got != 6 {
		t.Fatalf("instancesWarmed=%d want 6", got)
	}
	if len(inv.inputs) != 5 {
		t.Fatalf("invokes=%d want 5", len(inv.inputs))
	}
	if inv.peak > invokeParallelism {
		t.Fatalf("peak concurrent invokes=%d, limit %d", inv.peak, invokeParallelism)
	}
}

func TestWarmupDefaultCap(t *testing.T) {
	inv := &fakeInvoker{}
	h := New(&fakeHandler{}, WithInvoker(inv), WithFunctionName("fn"), WithWarmupDelay(0))
	h.HandleWarmup(context.Background(), WarmupEvent{Source: WarmupSource, Concurrency: 1000})
	if len(inv.inputs) != DefaultMaxFanOut {
		t.Fatalf("invokes=%d want %d", len(inv.inputs), DefaultMaxFanOut)
	}
}

func TestWarmupFanOutDisabled(t *testing.T) {
	inv := &fakeInvoker{}
	h := New(&fakeHandler{}, WithInvoker(inv), WithFunctionName("fn"), WithWarmupDelay(0), WithMaxFanOut(0))
	got := h.HandleWarmup(context.Background(), WarmupEvent{Source: WarmupSource, Concurrency: 3})
	if got["body"].(WarmupResponse).InstancesWarmed != 1 || len(inv.inputs) != 0 {
		t.Fatalf("expected no fan-out: %+v invokes=%d", got, len(inv.inputs))
	}
}

func TestWarmupCountsAcceptedInvokesOnly(t *testing.T) {
	inv := &fakeInvoker{failEvery: 2}
	h := New(&fakeHandler{}, WithInvoker(inv), WithFunctionName("fn"), WithWarmupDelay(0))
	got := h.HandleWarmup(context.Background(), WarmupEvent{Source: WarmupSource, Concurrency: 4})
	if n := got["body"].(WarmupResponse).InstancesWarmed; n != 3 {
		t.Fatalf("instancesWarmed=%d want 3", n)
	}
}

func TestHandleRequestRoutesJob(t *testing.T) {
	fh := &fakeHandler{}
	h := New(fh)
	res, err := h.HandleRequest(context.Background(), json.RawMessage(`{"id":"a1","input":{"text":"Hello","lang_code":"fr"}}`))
	if err != nil {
		t.Fatalf("HandleRequest() error = %v", err)
	}
	out, ok := res.(types.JobOutput)
	if !ok || out.Translation == nil || *out.Translation != "Bonjour" {
		t.Fatalf("unexpected result: %#v", res)
	}
	if len(fh.jobs) != 1 || fh.jobs[0].ID != "a1" {
		t.Fatalf("handler got %+v", fh.jobs)
	}
}

func TestHandleRequestBadEventIsPayload(t *testing.T) {
	fh := &fakeHandler{}
	res, err := New(fh).HandleRequest(context.Background(), json.RawMessage(`"just a string"`))
	if err != nil {
		t.Fatalf("HandleRequest() must not return an error, got %v", err)
	}
	out := res.(types.JobOutput)
	if !out.Failed() || !strings.HasPrefix(*out.Error, "invalid_input: decode event") {
		t.Fatalf("unexpected result: %+v", out)
	}
	if len(fh.jobs) != 0 {
		t.Fatalf("handler must not be called")
	}
}

func TestWarmupSkipsHandlerAndFansOut(t *testing.T) {
	fh := &fakeHandler{}
	inv := &fakeInvoker{}
	h := New(fh, WithInvoker(inv), WithFunctionName("nllbd-worker"), WithWarmupDelay(0))

	res, err := h.HandleRequest(context.Background(), json.RawMessage(`{"source":"warmup","concurrency":3}`))
	if err != nil {
		t.Fatalf("HandleRequest() error = %v", err)
	}
	body := res.(map[string]interface{})["body"].(WarmupResponse)
	if body.Status != "warm" || body.InstancesWarmed != 4 {
		t.Fatalf("unexpected warmup body: %+v", body)
	}
	if len(fh.jobs) != 0 {
		t.Fatalf("warmup must not reach the handler")
	}
	if len(inv.inputs) != 3 {
		t.Fatalf("expected 3 self-invocations, got %d", len(inv.inputs))
	}
	for _, in := range inv.inputs {
		if *in.FunctionName != "nllbd-worker" || in.InvocationType != lambdatypes.InvocationTypeEvent {
			t.Fatalf("unexpected invoke input: %+v", in)
		}
		var child WarmupEvent
		if err := json.Unmarshal(in.Payload, &child); err != nil || child.Concurrency != 0 || child.Source != WarmupSource {
			t.Fatalf("child payload must not fan out: %s", in.Payload)
		}
	}
}

func TestWarmupFanOutFailureCountsSelfOnly(t *testing.T) {
	inv := &fakeInvoker{err: errors.New("throttled")}
	h := New(&fakeHandler{}, WithInvoker(inv), WithFunctionName("fn"), WithWarmupDelay(0))
	got := h.HandleWarmup(context.Background(), WarmupEvent{Source: WarmupSource, Concurrency: 2})
	if got["body"].(WarmupResponse).InstancesWarmed != 1 {
		t.Fatalf("unexpected body: %+v", got)
	}
}

func TestWarmupWithoutFunctionName(t *testing.T) {
	inv := &fakeInvoker{}
	h := New(&fakeHandler{}, WithInvoker(inv), WithFunctionName(""), WithWarmupDelay(0))
	got := h.HandleWarmup(context.Background(), WarmupEvent{Source: WarmupSource, Concurrency: 2})
	if got["body"].(WarmupResponse).InstancesWarmed != 1 || len(inv.inputs) != 0 {
		t.Fatalf("expected no fan-out without a function name: %+v", got)
	}
}

package types

import "encoding/json"

// DefaultLangCode is used when a job omits lang_code.
const DefaultLangCode = "eng_Latn"

// Job is one unit of work dispatched by the host runtime.
type Job struct {
	// Optional job identifier assigned by the host.
	// example: 3f1c2d4e-sync-1
	ID string `json:"id,omitempty" example:"3f1c2d4e-sync-1"`
	// Raw job input. Decoded by the handler into JobInput so that missing
	// fields can be reported instead of silently zeroed.
	Input json.RawMessage `json:"input" swaggertype:"object"`
}

// JobInput is the decoded form of Job.Input.
type JobInput struct {
	// Text to translate.
	// example: Hello
	Text *string `json:"text" example:"Hello"`
	// Target language as a BCP-47 tag or a Flores code.
	// example: fr
	LangCode *string `json:"lang_code,omitempty" example:"fr"`
}

// JobOutput is the handler result. Exactly one field is set.
type JobOutput struct {
	// Translated text on success.
	// example: Bonjour
	Translation *string `json:"translation,omitempty" example:"Bonjour"`
	// Error message on failure.
	// example: invalid_input: decode job: missing required field 'text'
	Error *string `json:"error,omitempty" example:"invalid_input: decode job: missing required field 'text'"`
}

// Success builds a translation payload.
func Success(translation string) JobOutput { return JobOutput{Translation: &translation} }

// Failure builds an error payload.
func Failure(msg string) JobOutput { return JobOutput{Error: &msg} }

// Failed reports whether the payload carries an error.
func (o JobOutput) Failed() bool { return o.Error != nil }

// Job statuses reported by /runsync.
const (
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
)

// RunResponse wraps a job result for the HTTP host.
type RunResponse struct {
	// Job identifier (echoed or generated).
	// example: 3f1c2d4e-sync-1
	ID string `json:"id" example:"3f1c2d4e-sync-1"`
	// COMPLETED or FAILED.
	// example: COMPLETED
	Status string `json:"status" example:"COMPLETED"`
	// Handler payload.
	Output JobOutput `json:"output"`
}

// ErrorResponse is a consistent JSON error payload for transport failures.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Manager state (loading, ready, closed).
	// example: ready
	State string `json:"state" example:"ready"`
	// Model identifier served by this worker.
	// example: Youseff1987/nllb-200-finetuning-20250305
	ModelID string `json:"model_id" example:"Youseff1987/nllb-200-finetuning-20250305"`
	// Compute device (cpu or cuda).
	// example: cuda
	Device string `json:"device" example:"cuda"`
	// Number of entries in the language map.
	// example: 180
	Languages int `json:"languages" example:"180"`
	// Whether unknown languages are rejected instead of falling back.
	// example: false
	StrictLanguages bool `json:"strict_languages" example:"false"`
	// Total invocations since start.
	// example: 42
	InvocationsTotal uint64 `json:"invocations_total" example:"42"`
	// Failed invocations since start.
	// example: 1
	FailuresTotal uint64 `json:"failures_total" example:"1"`
	// Last invocation error, if any.
	LastError string `json:"last_error,omitempty"`
	// Invocations waiting for the generation slot.
	// example: 0
	Waiting int `json:"waiting" example:"0"`
	// Uptime of the worker in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}

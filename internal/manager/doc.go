// Package manager owns the translation model lifecycle and the invoke path.
// It is structured into small files by concern:
//
//   - manager.go: core Manager type, New, simple getters, Close.
//   - config.go: ManagerConfig and package defaults.
//   - types.go: State and Device.
//   - errors.go: the closed error-kind set (ErrConfig, ErrModelLoad,
//     ErrInference, ErrInvalidInput) and Is* predicates.
//   - adapter_iface.go: Runtime, Tokenizer, Model and the optional
//     CacheReleaser/Authenticator collaborators.
//   - device.go: compute device selection.
//   - admission.go: single in-flight generation slot and its wait count.
//   - invoke.go: Invoke (resolve, encode, generate, decode, post hook).
//   - events.go, eventpub_memory.go: lifecycle event publishing.
//   - status_report.go: Status for the HTTP host and the CLI.
//
// The tensors themselves never live in this process: a Runtime (see package
// backend) loads the tokenizer and model and executes generation. Callers
// should construct one Manager per process with New and inject it where it is
// needed.
package manager

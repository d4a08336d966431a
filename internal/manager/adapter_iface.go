package manager

import "context"

// LoadSpec describes what a Runtime should load.
type LoadSpec struct {
	ModelID string
	Device  Device
	// Token is the hub credential, forwarded so gated checkpoints can be fetched.
	Token string
}

// Runtime abstracts the process that holds tokenizer and model tensors.
// Concrete implementations (see package backend) satisfy this interface.
type Runtime interface {
	// AcceleratorAvailable reports whether a GPU can be used.
	AcceleratorAvailable(ctx context.Context) (bool, error)
	// Load prepares the tokenizer and model for spec.ModelID on spec.Device.
	Load(ctx context.Context, spec LoadSpec) (Tokenizer, Model, error)
}

// Encoding is the tokenized form of one input text.
type Encoding struct {
	InputIDs      []int
	AttentionMask []int
}

// Tokenizer converts between text and token ids.
type Tokenizer interface {
	Encode(ctx context.Context, text string) (Encoding, error)
	// TokenID returns the vocabulary id of a single token such as "fra_Latn".
	TokenID(ctx context.Context, token string) (int, error)
	Decode(ctx context.Context, ids []int, skipSpecial bool) (string, error)
}

// GenerateOptions are passed to Model.Generate. Zero values defer to the
// checkpoint's generation config.
type GenerateOptions struct {
	// ForcedBOSTokenID pins the first decoded token to the target language.
	ForcedBOSTokenID int
	MaxNewTokens     int
	NumBeams         int
}

// Model runs sequence generation.
type Model interface {
	// Generate returns one or more generated id sequences; the first is used.
	Generate(ctx context.Context, in Encoding, opts GenerateOptions) ([][]int, error)
	// Close releases any resources associated with the model.
	Close() error
}

// CacheReleaser is implemented by runtimes that can hand cached but unused
// device memory back to the allocator.
type CacheReleaser interface {
	EmptyCache(ctx context.Context, device Device) error
}

// Authenticator validates a hub credential and returns the account name.
type Authenticator interface {
	Login(ctx context.Context, token string) (string, error)
}

// PostInferenceHook runs after every generation attempt. Errors are logged only.
type PostInferenceHook func(ctx context.Context, device Device) error

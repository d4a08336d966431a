package manager

import (
	"github.com/rs/zerolog"

	"nllbd/internal/langmap"
)

// Defaults applied when corresponding ManagerConfig fields are unset.
const (
	DefaultModelID     = "Youseff1987/nllb-200-finetuning-20250305"
	DefaultLangMapPath = "./bcp47_to_flores.json"
)

// ManagerConfig encapsulates all inputs for Manager construction.
type ManagerConfig struct {
	ModelID string
	HFToken string
	CPUOnly bool
	// LangMapPath is read at startup unless Languages is set.
	LangMapPath string
	Languages   *langmap.Map
	// StrictLanguages rejects tags without a mapping instead of falling back
	// to langmap.DefaultCode.
	StrictLanguages bool
	MaxNewTokens    int
	NumBeams        int

	Runtime       Runtime
	Authenticator Authenticator
	// AfterInvoke overrides the default post-inference hook.
	AfterInvoke PostInferenceHook
	Publisher   EventPublisher
	Logger      *zerolog.Logger
}

func (c ManagerConfig) withDefaults() ManagerConfig {
	if c.ModelID == "" {
		c.ModelID = DefaultModelID
	}
	if c.LangMapPath == "" {
		c.LangMapPath = DefaultLangMapPath
	}
	if c.MaxNewTokens < 0 {
		c.MaxNewTokens = 0
	}
	if c.NumBeams < 0 {
		c.NumBeams = 0
	}
	if c.Publisher == nil {
		c.Publisher = noopPublisher{}
	}
	if c.Logger == nil {
		l := zerolog.Nop()
		c.Logger = &l
	}
	return c
}

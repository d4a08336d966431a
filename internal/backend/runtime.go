package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"nllbd/internal/manager"
)

// Endpoint paths exposed by the runtime sidecar.
const (
	pathHealth     = "/v1/health"
	pathLoad       = "/v1/models/load"
	pathTokenize   = "/v1/tokenize"
	pathTokenIDs   = "/v1/tokens/ids"
	pathGenerate   = "/v1/generate"
	pathDecode     = "/v1/decode"
	pathEmptyCache = "/v1/cache/empty"
)

var (
	_ manager.Runtime       = (*Client)(nil)
	_ manager.CacheReleaser = (*Client)(nil)
	_ manager.Tokenizer     = (*session)(nil)
	_ manager.Model         = (*session)(nil)
)

type healthResponse struct {
	Status        string `json:"status"`
	CUDAAvailable bool   `json:"cuda_available"`
}

type loadRequest struct {
	ModelID string `json:"model_id"`
	Device  string `json:"device"`
	Token   string `json:"token,omitempty"`
}

type loadResponse struct {
	ModelID string `json:"model_id"`
	Device  string `json:"device"`
}

type tokenizeRequest struct {
	ModelID string `json:"model_id"`
	Text    string `json:"text"`
}

type tokenizeResponse struct {
	InputIDs      []int `json:"input_ids"`
	AttentionMask []int `json:"attention_mask"`
}

type tokenIDsRequest struct {
	ModelID string   `json:"model_id"`
	Tokens  []string `json:"tokens"`
}

type tokenIDsResponse struct {
	IDs []int `json:"ids"`
}

type generateRequest struct {
	ModelID          string `json:"model_id"`
	InputIDs         []int  `json:"input_ids"`
	AttentionMask    []int  `json:"attention_mask,omitempty"`
	ForcedBOSTokenID int    `json:"forced_bos_token_id"`
	MaxNewTokens     int    `json:"max_new_tokens,omitempty"`
	NumBeams         int    `json:"num_beams,omitempty"`
}

type generateResponse struct {
	Sequences [][]int `json:"sequences"`
}

type decodeRequest struct {
	ModelID           string `json:"model_id"`
	IDs               []int  `json:"ids"`
	SkipSpecialTokens bool   `json:"skip_special_tokens"`
}

type decodeResponse struct {
	Text string `json:"text"`
}

type emptyCacheRequest struct {
	Device string `json:"device"`
}

// AcceleratorAvailable asks the runtime whether it can place the model on a GPU.
func (c *Client) AcceleratorAvailable(ctx context.Context) (bool, error) {
	var out healthResponse
	if err := c.do(ctx, pathHealth, nil, &out); err != nil {
		return false, err
	}
	return out.CUDAAvailable, nil
}

// Load asks the runtime to load the tokenizer and model and returns handles
// bound to spec.ModelID.
func (c *Client) Load(ctx context.Context, spec manager.LoadSpec) (manager.Tokenizer, manager.Model, error) {
	if strings.TrimSpace(spec.ModelID) == "" {
		return nil, nil, errors.New("model id is empty")
	}
	var out loadResponse
	err := c.do(ctx, pathLoad, loadRequest{ModelID: spec.ModelID, Device: string(spec.Device), Token: spec.Token}, &out)
	if err != nil {
		return nil, nil, err
	}
	if out.Device != "" && out.Device != string(spec.Device) {
		c.log.Warn().Str("requested", string(spec.Device)).Str("actual", out.Device).Msg("runtime placed model on a different device")
	}
	s := &session{c: c, modelID: spec.ModelID}
	return s, s, nil
}

// EmptyCache asks the runtime to return cached device memory to the allocator.
func (c *Client) EmptyCache(ctx context.Context, device manager.Device) error {
	return c.do(ctx, pathEmptyCache, emptyCacheRequest{Device: string(device)}, nil)
}

// session holds per-model state; the runtime keys everything by model id.
type session struct {
	c       *Client
	modelID string
}

func (s *session) Encode(ctx context.Context, text string) (manager.Encoding, error) {
	var out tokenizeResponse
	if err := s.c.do(ctx, pathTokenize, tokenizeRequest{ModelID: s.modelID, Text: text}, &out); err != nil {
		return manager.Encoding{}, err
	}
	if len(out.InputIDs) == 0 {
		return manager.Encoding{}, errors.New("runtime returned no input ids")
	}
	return manager.Encoding{InputIDs: out.InputIDs, AttentionMask: out.AttentionMask}, nil
}

func (s *session) TokenID(ctx context.Context, token string) (int, error) {
	var out tokenIDsResponse
	if err := s.c.do(ctx, pathTokenIDs, tokenIDsRequest{ModelID: s.modelID, Tokens: []string{token}}, &out); err != nil {
		return 0, err
	}
	if len(out.IDs) != 1 {
		return 0, fmt.Errorf("runtime returned %d ids for 1 token", len(out.IDs))
	}
	return out.IDs[0], nil
}

func (s *session) Generate(ctx context.Context, in manager.Encoding, opts manager.GenerateOptions) ([][]int, error) {
	req := generateRequest{
		ModelID:          s.modelID,
		InputIDs:         in.InputIDs,
		AttentionMask:    in.AttentionMask,
		ForcedBOSTokenID: opts.ForcedBOSTokenID,
		MaxNewTokens:     opts.MaxNewTokens,
		NumBeams:         opts.NumBeams,
	}
	var out generateResponse
	if err := s.c.do(ctx, pathGenerate, req, &out); err != nil {
		return nil, err
	}
	return out.Sequences, nil
}

func (s *session) Decode(ctx context.Context, ids []int, skipSpecial bool) (string, error) {
	var out decodeResponse
	if err := s.c.do(ctx, pathDecode, decodeRequest{ModelID: s.modelID, IDs: ids, SkipSpecialTokens: skipSpecial}, &out); err != nil {
		return "", err
	}
	return out.Text, nil
}

// Close is a no-op: the runtime owns the model for the lifetime of its process.
func (s *session) Close() error { return nil }

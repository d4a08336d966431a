// Package backend talks to the model runtime sidecar: the process that owns
// the tokenizer and the sequence-to-sequence model tensors (for example a
// transformers or CTranslate2 server) and runs generation on our behalf.
//
// # Sidecar protocol
//
// All bodies are JSON. When an API key is configured every request carries
// "Authorization: Bearer <key>". Any non-2xx reply is returned as *Error with
// the body text; the worker does not retry.
//
//	GET  /v1/health
//	     -> {"status": "ok", "cuda_available": bool}
//	POST /v1/models/load      {"model_id", "device": "cpu"|"cuda", "token"?}
//	     -> {"model_id", "device"}
//	POST /v1/tokenize         {"model_id", "text"}
//	     -> {"input_ids": [int], "attention_mask": [int]}
//	POST /v1/tokens/ids       {"model_id", "tokens": [string]}
//	     -> {"ids": [int]}
//	POST /v1/generate         {"model_id", "input_ids", "attention_mask"?,
//	                           "forced_bos_token_id", "max_new_tokens"?, "num_beams"?}
//	     -> {"sequences": [[int]]}
//	POST /v1/decode           {"model_id", "ids": [int], "skip_special_tokens": bool}
//	     -> {"text": string}
//	POST /v1/cache/empty      {"device"}
//	     -> any 2xx; the body is ignored
//
// A translation is one tokenize, one tokens/ids lookup for the Flores code
// (its id becomes forced_bos_token_id), one generate and one decode of the
// first sequence. Omitted max_new_tokens and num_beams leave the model's
// generation config in charge. health is called once at startup to pick the
// device, and cache/empty after each generation on cuda.
package backend

// Package docs holds the OpenAPI document for nllbd, in the layout produced by
// swag init from the annotations in cmd/nllbd and internal/httpapi.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "nllbd maintainers"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/runsync": {
            "post": {
                "description": "Runs one job and returns its payload. Translation failures are reported in output.error with status FAILED, not as HTTP errors.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["jobs"],
                "summary": "Translate synchronously",
                "parameters": [
                    {
                        "description": "Job with input {text, lang_code}",
                        "name": "job",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/types.Job"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.RunResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "415": {"description": "Unsupported Media Type", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/status": {
            "get": {
                "description": "Model, device, language map size and invocation counters.",
                "produces": ["application/json"],
                "tags": ["status"],
                "summary": "Worker status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatusResponse"}}
                }
            }
        }
    },
    "definitions": {
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "integer", "example": 400},
                "error": {"type": "string", "example": "invalid JSON body"}
            }
        },
        "types.Job": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "example": "3f1c2d4e-sync-1"},
                "input": {"type": "object"}
            }
        },
        "types.JobOutput": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "invalid_input: decode job: missing required field 'text'"},
                "translation": {"type": "string", "example": "Bonjour"}
            }
        },
        "types.RunResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "example": "3f1c2d4e-sync-1"},
                "output": {"$ref": "#/definitions/types.JobOutput"},
                "status": {"type": "string", "example": "COMPLETED"}
            }
        },
        "types.StatusResponse": {
            "type": "object",
            "properties": {
                "device": {"type": "string", "example": "cuda"},
                "failures_total": {"type": "integer", "example": 1},
                "invocations_total": {"type": "integer", "example": 42},
                "languages": {"type": "integer", "example": 180},
                "last_error": {"type": "string"},
                "model_id": {"type": "string", "example": "Youseff1987/nllb-200-finetuning-20250305"},
                "server_time_unix": {"type": "integer", "example": 1700000000},
                "state": {"type": "string", "example": "ready"},
                "strict_languages": {"type": "boolean", "example": false},
                "uptime_seconds": {"type": "integer", "example": 3600},
                "waiting": {"type": "integer", "example": 0}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "nllbd API",
	Description:      "Serverless NLLB translation worker.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

// Package docs holds the Swagger document served at /swagger. Regenerate with
// `swag init -g cmd/main.go` after changing handler annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
	"schemes": {{ marshal .Schemes }},
	"swagger": "2.0",
	"info": {
		"description": "{{escape .Description}}",
		"title": "{{.Title}}",
		"contact": {},
		"version": "{{.Version}}"
	},
	"host": "{{.Host}}",
	"basePath": "{{.BasePath}}",
	"paths": {
		"/auth/register": {
			"post": {
				"tags": [
					"Auth"
				],
				"summary": "Create an account",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Account",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				],
				"responses": {
					"201": {
						"description": "OK"
					},
					"default": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					}
				}
			}
		},
		"/auth/login": {
			"post": {
				"tags": [
					"Auth"
				],
				"summary": "Exchange credentials for a token",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Credentials",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"default": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					}
				}
			}
		},
		"/auth/me": {
			"get": {
				"tags": [
					"Auth"
				],
				"summary": "The authenticated user",
				"produces": [
					"application/json"
				],
				"parameters": [],
				"responses": {
					"200": {
						"description": "OK"
					},
					"default": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/admin/tests": {
			"post": {
				"tags": [
					"Admin - Tests"
				],
				"summary": "(Creator) Create a test",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Test with optional questions",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				],
				"responses": {
					"201": {
						"description": "OK"
					},
					"default": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			},
			"get": {
				"tags": [
					"Admin - Tests"
				],
				"summary": "(Creator) List own tests",
				"produces": [
					"application/json"
				],
				"parameters": [],
				"responses": {
					"200": {
						"description": "OK"
					},
					"default": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/admin/tests/{test_id}": {
			"get": {
				"tags": [
					"Admin - Tests"
				],
				"summary": "(Creator) Get a test with answer keys",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Test ID",
						"name": "test_id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"default": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			},
			"put": {
				"tags": [
					"Admin - Tests"
				],
				"summary": "(Creator) Update test metadata",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Test ID",
						"name": "test_id",
						"in": "path",
						"required": true
					},
					{
						"description": "Fields to change",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"default": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/admin/tests/{test_id}/publish": {
			"post": {
				"tags": [
					"Admin - Tests"
				],
				"summary": "(Creator) Publish a test",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Test ID",
						"name": "test_id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"default": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/admin/tests/{test_id}/percentile-mapping": {
			"post": {
				"tags": [
					"Admin - Rankings"
				],
				"summary": "(Creator) Replace the percentile mapping",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Test ID",
						"name": "test_id",
						"in": "path",
						"required": true
					},
					{
						"description": "Thresholds",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"default": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/admin/tests/{test_id}/rankings/recompute": {
			"post": {
				"tags": [
					"Admin - Rankings"
				],
				"summary": "(Creator) Recompute ranks and percentiles",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Test ID",
						"name": "test_id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"default": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/admin/tests/{test_id}/questions": {
			"get": {
				"tags": [
					"Admin - Questions"
				],
				"summary": "(Creator) List a test's questions",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Test ID",
						"name": "test_id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"default": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			},
			"post": {
				"tags": [
					"Admin - Questions"
				],
				"summary": "(Creator) Add a question",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Test ID",
						"name": "test_id",
						"in": "path",
						"required": true
					},
					{
						"description": "Question",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				],
				"responses": {
					"201": {
						"description": "OK"
					},
					"default": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/admin/questions/{question_id}": {
			"put": {
				"tags": [
					"Admin - Questions"
				],
				"summary": "(Creator) Replace a question",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Question ID",
						"name": "question_id",
						"in": "path",
						"required": true
					},
					{
						"description": "Question",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"default": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			},
			"delete": {
				"tags": [
					"Admin - Questions"
				],
				"summary": "(Creator) Delete a question",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Question ID",
						"name": "question_id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"204": {
						"description": "No Content"
					},
					"default": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/tests": {
			"get": {
				"tags": [
					"User - Tests"
				],
				"summary": "(Student) List published tests",
				"produces": [
					"application/json"
				],
				"parameters": [],
				"responses": {
					"200": {
						"description": "OK"
					},
					"default": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/tests/{test_id}": {
			"get": {
				"tags": [
					"User - Tests"
				],
				"summary": "(Student) Get a published test",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Test ID",
						"name": "test_id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"default": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/tests/{test_id}/leaderboard": {
			"get": {
				"tags": [
					"User - Tests"
				],
				"summary": "Top finalized attempts of a test",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Test ID",
						"name": "test_id",
						"in": "path",
						"required": true
					},
					{
						"type": "integer",
						"description": "Entries to return (default 10, max 100)",
						"name": "limit",
						"in": "query",
						"required": false
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"default": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/tests/{test_id}/attempts": {
			"post": {
				"tags": [
					"User - Attempts"
				],
				"summary": "Start or resume an attempt",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Test ID",
						"name": "test_id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"201": {
						"description": "OK"
					},
					"default": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/me/attempts": {
			"get": {
				"tags": [
					"User - Attempts"
				],
				"summary": "The caller's finalized attempts, newest first",
				"produces": [
					"application/json"
				],
				"parameters": [],
				"responses": {
					"200": {
						"description": "OK"
					},
					"default": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/attempts/{attempt_id}": {
			"get": {
				"tags": [
					"User - Attempts"
				],
				"summary": "Current state of an attempt",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Attempt ID",
						"name": "attempt_id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"default": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/attempts/{attempt_id}/answers/{position}": {
			"put": {
				"tags": [
					"User - Attempts"
				],
				"summary": "Answer a question",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Attempt ID",
						"name": "attempt_id",
						"in": "path",
						"required": true
					},
					{
						"type": "integer",
						"description": "0-based question position",
						"name": "position",
						"in": "path",
						"required": true
					},
					{
						"description": "Answer",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"default": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			},
			"delete": {
				"tags": [
					"User - Attempts"
				],
				"summary": "Clear an answer",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Attempt ID",
						"name": "attempt_id",
						"in": "path",
						"required": true
					},
					{
						"type": "integer",
						"description": "0-based question position",
						"name": "position",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"default": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/attempts/{attempt_id}/review/{position}": {
			"post": {
				"tags": [
					"User - Attempts"
				],
				"summary": "Toggle the review mark",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Attempt ID",
						"name": "attempt_id",
						"in": "path",
						"required": true
					},
					{
						"type": "integer",
						"description": "0-based question position",
						"name": "position",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"default": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/attempts/{attempt_id}/navigate": {
			"post": {
				"tags": [
					"User - Attempts"
				],
				"summary": "Move to a question",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Attempt ID",
						"name": "attempt_id",
						"in": "path",
						"required": true
					},
					{
						"description": "Target position",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"type": "object"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"default": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/attempts/{attempt_id}/submit": {
			"post": {
				"tags": [
					"User - Attempts"
				],
				"summary": "Submit an attempt",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Attempt ID",
						"name": "attempt_id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"default": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/attempts/{attempt_id}/result": {
			"get": {
				"tags": [
					"User - Attempts"
				],
				"summary": "Scored result of a finalized attempt",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Attempt ID",
						"name": "attempt_id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"default": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/attempts/{attempt_id}/analysis": {
			"get": {
				"tags": [
					"User - Attempts"
				],
				"summary": "Section breakdown and filtered review list",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Attempt ID",
						"name": "attempt_id",
						"in": "path",
						"required": true
					},
					{
						"type": "string",
						"description": "all, correct, incorrect or unattempted",
						"name": "status",
						"in": "query",
						"required": false
					},
					{
						"type": "string",
						"description": "Physics, Chemistry, Mathematics or all",
						"name": "section",
						"in": "query",
						"required": false
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"default": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/attempts/{attempt_id}/questions/{position}/explanation": {
			"get": {
				"tags": [
					"User - Attempts"
				],
				"summary": "Explanation of a question's solution",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"description": "Attempt ID",
						"name": "attempt_id",
						"in": "path",
						"required": true
					},
					{
						"type": "integer",
						"description": "0-based question position",
						"name": "position",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"default": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/dto.ErrorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		}
	},
	"definitions": {
		"dto.ErrorResponse": {
			"type": "object",
			"properties": {
				"message": {
					"type": "string"
				},
				"details": {
					"type": "array",
					"items": {
						"type": "string"
					}
				}
			}
		}
	},
	"securityDefinitions": {
		"BearerAuth": {
			"type": "apiKey",
			"name": "Authorization",
			"in": "header"
		}
	}
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:		  "1.0",
	Host:			 "localhost:8080",
	BasePath:		 "/api/v1",
	Schemes:		  []string{"http", "https"},
	Title:			"Mock Test API",
	Description:	  "Timed mock exams: authoring, attempts with a server-side countdown, scoring, ranking and analysis.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:		"{{",
	RightDelim:	   "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

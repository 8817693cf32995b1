// Package docs registers the OpenAPI document served under /swagger.
// Regenerate with: swag init -g cmd/api/main.go
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
        "/users": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "List users",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/handler.identityResponse"}}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Register a Telegram-linked user",
                "parameters": [{"description": "Telegram account", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.registerRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.identityResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/users/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Get a user by id",
                "parameters": [{"type": "integer", "description": "User id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.identityResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Update a user",
                "parameters": [
                    {"type": "integer", "description": "User id", "name": "id", "in": "path", "required": true},
                    {"description": "Fields to change", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.updateIdentityRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.identityResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Delete a user",
                "parameters": [{"type": "integer", "description": "User id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.identityResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/users/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Request a login credential",
                "parameters": [{"description": "Username", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.loginRequest"}}],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/handler.loginResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/users/login/verify": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Exchange a credential for a session token",
                "parameters": [{"description": "Credential received over Telegram", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.verifyRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.tokenResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/users/auth": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Resolve the bearer token to its identity",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.snapshotResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/posts": {
            "get": {
                "produces": ["application/json"],
                "tags": ["posts"],
                "summary": "List posts",
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Post"}}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["posts"],
                "summary": "Create a post",
                "parameters": [{"description": "Post", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.createPostRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Post"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.errorResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Liveness probe",
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "domain.Post": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "author_id": {"type": "integer"},
                "title": {"type": "string"},
                "content": {"type": "string"},
                "image_url": {"type": "string"},
                "likes_count": {"type": "integer"},
                "dislikes_count": {"type": "integer"},
                "views_count": {"type": "integer"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "handler.errorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}, "field": {"type": "string"}}
        },
        "handler.registerRequest": {
            "type": "object",
            "required": ["telegram_id", "username"],
            "properties": {"id": {"type": "integer"}, "telegram_id": {"type": "integer"}, "username": {"type": "string"}}
        },
        "handler.updateIdentityRequest": {
            "type": "object",
            "properties": {"username": {"type": "string"}, "role": {"type": "string", "enum": ["USER", "ADMIN"]}}
        },
        "handler.identityResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "telegram_id": {"type": "integer"},
                "username": {"type": "string"},
                "role": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "handler.loginRequest": {
            "type": "object",
            "required": ["username"],
            "properties": {"username": {"type": "string"}}
        },
        "handler.loginResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}, "channel": {"type": "string"}, "accepted_at": {"type": "string"}}
        },
        "handler.verifyRequest": {
            "type": "object",
            "properties": {"code": {"type": "string"}}
        },
        "handler.tokenResponse": {
            "type": "object",
            "properties": {"token": {"type": "string"}, "expires_at": {"type": "string"}}
        },
        "handler.snapshotResponse": {
            "type": "object",
            "properties": {"id": {"type": "integer"}, "username": {"type": "string"}, "role": {"type": "string"}}
        },
        "handler.createPostRequest": {
            "type": "object",
            "required": ["title", "content"],
            "properties": {"id": {"type": "integer"}, "author_id": {"type": "integer"}, "title": {"type": "string"}, "content": {"type": "string"}, "image_url": {"type": "string"}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "ClipCoins API",
	Description:      "Telegram-linked identities, passwordless sessions and posts.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

// Package swagger registers the OpenAPI document served at /swagger/doc.json.
// It is maintained by hand alongside the handler annotations; running
// "swag init -g cmd/api/main.go -o docs/swagger" regenerates it from them.
package swagger

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
        "/expiring-data/images/": {
            "get": {
                "description": "Serves the image a signed link grants, with the minting account's current entitlements.",
                "produces": ["image/png", "image/jpeg"],
                "tags": ["links"],
                "summary": "Redeem expiring link",
                "parameters": [
                    {"type": "string", "description": "Signed token", "name": "signature", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.ErrorBody"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.ErrorBody"}}
                }
            }
        },
        "/expiring-link/{path}/{height}/{expire}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Signs a link to an original or thumbnail that works without a bearer token for expire seconds (300 to 30000).",
                "produces": ["application/json"],
                "tags": ["links"],
                "summary": "Create expiring link",
                "parameters": [
                    {"type": "string", "description": "Image name", "name": "path", "in": "path", "required": true},
                    {"type": "integer", "description": "Thumbnail height", "name": "height", "in": "path"},
                    {"type": "integer", "description": "Lifetime in seconds", "name": "expire", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/media.Link"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.ErrorBody"}}
                }
            }
        },
        "/images/thumbnails/{path}/{height}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Returns the image scaled to the requested height, which must be one of the caller's tier heights.",
                "produces": ["image/png", "image/jpeg"],
                "tags": ["images"],
                "summary": "Get thumbnail",
                "parameters": [
                    {"type": "string", "description": "Image name", "name": "path", "in": "path", "required": true},
                    {"type": "integer", "description": "Thumbnail height", "name": "height", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.ErrorBody"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.ErrorBody"}}
                }
            }
        },
        "/images/{path}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["image/png", "image/jpeg"],
                "tags": ["images"],
                "summary": "Get original image",
                "parameters": [
                    {"type": "string", "description": "Image name", "name": "path", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.ErrorBody"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.ErrorBody"}}
                }
            }
        },
        "/list_images/": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Maps each of the caller's image names to its original URL (when entitled) and one thumbnail URL per tier height.",
                "produces": ["application/json"],
                "tags": ["images"],
                "summary": "List images",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"$ref": "#/definitions/media.Entry"}}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.ErrorBody"}}
                }
            }
        },
        "/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Returns the authenticated account and the entitlements of its current tier.",
                "produces": ["application/json"],
                "tags": ["accounts"],
                "summary": "Get current account",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/account.Profile"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.ErrorBody"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.ErrorBody"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/response.ErrorBody"}}
                }
            }
        },
        "/upload": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Upload a JPEG or PNG (multipart field \"image\", at most 2 MB). Returns the stored name mapped to the URLs the caller's tier may use.",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["images"],
                "summary": "Upload image",
                "parameters": [
                    {"type": "file", "description": "Image file", "name": "image", "in": "formData", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"type": "object", "additionalProperties": {"$ref": "#/definitions/media.Entry"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.FieldErrors"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.ErrorBody"}}
                }
            }
        }
    },
    "definitions": {
        "account.Entitlements": {
            "type": "object",
            "properties": {
                "can_access_original": {"type": "boolean"},
                "can_create_expiring_link": {"type": "boolean"},
                "thumbnail_heights": {"type": "array", "items": {"type": "integer"}},
                "tier": {"type": "string"}
            }
        },
        "account.Profile": {
            "type": "object",
            "properties": {
                "createdAt": {"type": "string"},
                "entitlements": {"$ref": "#/definitions/account.Entitlements"},
                "id": {"type": "string"},
                "tier": {"type": "string"},
                "username": {"type": "string"}
            }
        },
        "media.Entry": {
            "type": "object",
            "properties": {
                "original_url": {"type": "string"},
                "thumbnails": {"type": "array", "items": {"$ref": "#/definitions/media.Thumbnail"}}
            }
        },
        "media.Link": {
            "type": "object",
            "properties": {
                "expire_at": {"type": "string"},
                "expiring_url": {"type": "string"},
                "height": {"type": "integer"},
                "image_url": {"type": "string"},
                "is_thumbnail": {"type": "boolean"}
            }
        },
        "media.Thumbnail": {
            "type": "object",
            "properties": {
                "height": {"type": "integer"},
                "url": {"type": "string"}
            }
        },
        "response.ErrorBody": {
            "type": "object",
            "properties": {
                "error": {"type": "string"}
            }
        },
        "response.FieldErrors": {
            "type": "object",
            "additionalProperties": {"type": "array", "items": {"type": "string"}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "JWT Bearer token. Format: **Bearer {token}**",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Imagehost API",
	Description:      "Tiered image hosting: uploads, thumbnails and expiring links.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

// Package docs holds the OpenAPI document served under /spec and /docs.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "license": {
            "name": "MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/author/search": {
            "post": {
                "tags": ["authors"],
                "summary": "Search authors",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/dto.AuthorRequest"}}
                ],
                "responses": {
                    "200": {"description": "Author name buckets", "schema": {"type": "array", "items": {"type": "object"}}},
                    "400": {"description": "Malformed request", "schema": {"type": "string"}},
                    "404": {"description": "No matched data found", "schema": {"type": "string"}}
                }
            }
        },
        "/api/author/books": {
            "post": {
                "tags": ["authors"],
                "summary": "Books by author",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/dto.SearchRequest"}}
                ],
                "responses": {
                    "200": {"description": "Search hits", "schema": {"type": "array", "items": {"type": "object"}}},
                    "404": {"description": "No matched data found", "schema": {"type": "string"}}
                }
            }
        },
        "/api/book/search": {
            "post": {
                "tags": ["books"],
                "summary": "Search titles",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/dto.SearchRequest"}}
                ],
                "responses": {
                    "200": {"description": "Search hits", "schema": {"type": "array", "items": {"type": "object"}}},
                    "404": {"description": "No matched data found", "schema": {"type": "string"}}
                }
            }
        },
        "/api/book/series": {
            "post": {
                "tags": ["books"],
                "summary": "Search series",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/dto.SearchRequest"}}
                ],
                "responses": {
                    "200": {"description": "Search hits", "schema": {"type": "array", "items": {"type": "object"}}},
                    "404": {"description": "No matched data found", "schema": {"type": "string"}}
                }
            }
        },
        "/api/book/langs": {
            "get": {
                "tags": ["books"],
                "summary": "List languages",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "Language buckets", "schema": {"type": "array", "items": {"type": "object"}}}
                }
            }
        },
        "/api/book/archive": {
            "post": {
                "tags": ["books"],
                "summary": "Download several books",
                "consumes": ["application/json"],
                "produces": ["application/zip"],
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/dto.DownloadRequest"}}
                ],
                "responses": {
                    "200": {"description": "Zip archive", "schema": {"type": "file"}},
                    "400": {"description": "Malformed request", "schema": {"type": "string"}},
                    "404": {"description": "None of the ids could be resolved", "schema": {"type": "string"}}
                }
            }
        },
        "/api/book/{id}": {
            "get": {
                "tags": ["books"],
                "summary": "Show book",
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Book document", "schema": {"$ref": "#/definitions/data.Book"}},
                    "404": {"description": "No matched data found", "schema": {"type": "string"}}
                }
            }
        },
        "/api/book/{id}/download": {
            "get": {
                "tags": ["books"],
                "summary": "Download book",
                "produces": ["application/octet-stream"],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Book file", "schema": {"type": "file"}},
                    "404": {"description": "No matched data found", "schema": {"type": "string"}}
                }
            }
        },
        "/v1/healthcheck": {
            "get": {
                "tags": ["system"],
                "summary": "Health check",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "Available"},
                    "503": {"description": "Search backend unavailable"}
                }
            }
        }
    },
    "definitions": {
        "data.Book": {
            "type": "object",
            "properties": {
                "authors": {"type": "array", "items": {"type": "string"}},
                "genres": {"type": "array", "items": {"type": "string"}},
                "title": {"type": "string"},
                "series": {"type": "string"},
                "ser_no": {"type": "integer"},
                "file": {"type": "string"},
                "file_size": {"type": "integer"},
                "lib_id": {"type": "string"},
                "del": {"type": "string"},
                "ext": {"type": "string"},
                "date": {"type": "string"},
                "lang": {"type": "string"},
                "container": {"type": "string"}
            }
        },
        "dto.AuthorRequest": {
            "type": "object",
            "properties": {
                "author": {"type": "string"},
                "limit": {"type": "integer", "default": 10}
            }
        },
        "dto.SearchRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "author": {"type": "string"},
                "series": {"type": "string"},
                "limit": {"type": "integer", "default": 10},
                "deleted": {"type": "boolean"},
                "langs": {"type": "array", "items": {"type": "string"}}
            }
        },
        "dto.DownloadRequest": {
            "type": "object",
            "properties": {
                "ids": {"type": "array", "items": {"type": "string"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Flibooks API",
	Description:      "Search and download service for INPX book catalogs.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

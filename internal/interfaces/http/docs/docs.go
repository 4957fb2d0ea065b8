// Package docs registers the OpenAPI document of the dashboard API with swag.
// Regenerate with: swag init -g internal/interfaces/http/rest/router.go -o internal/interfaces/http/docs
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
        "/cache/invalidate/{kind}": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Drops every cached entry tagged with the kind. \"all\" also drops chart data.",
                "produces": ["application/json"],
                "tags": ["cache"],
                "summary": "Invalidate cached pages",
                "parameters": [
                    {"enum": ["projects", "users", "tickets", "all"], "type": "string", "description": "Cache kind", "name": "kind", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.InvalidateResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/cache/stats": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["cache"],
                "summary": "Cache statistics",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.CacheStatsResponse"}}
                }
            }
        },
        "/charts/tickets/{projectID}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Counts a project's tickets per status. Cached in the chart-data cache.",
                "produces": ["application/json"],
                "tags": ["charts"],
                "summary": "Ticket status breakdown",
                "parameters": [
                    {"type": "string", "description": "Project ID", "name": "projectID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.ChartSeries"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/payments": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Payments are never cached.",
                "produces": ["application/json"],
                "tags": ["payments"],
                "summary": "List payments",
                "parameters": [
                    {"type": "integer", "default": 1, "description": "Page number", "name": "page", "in": "query"},
                    {"type": "integer", "default": 10, "description": "Items per page", "name": "limit", "in": "query"},
                    {"type": "string", "description": "Sort column", "name": "sortBy", "in": "query"},
                    {"enum": ["asc", "desc"], "type": "string", "description": "Sort direction", "name": "sortOrder", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/repository.PaginatedResult-domain_Payment"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/projects": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Returns one page of projects. Unreserved query parameters filter by column; comma-separated values match any.",
                "produces": ["application/json"],
                "tags": ["projects"],
                "summary": "List projects",
                "parameters": [
                    {"type": "integer", "default": 1, "description": "Page number", "name": "page", "in": "query"},
                    {"type": "integer", "default": 10, "description": "Items per page", "name": "limit", "in": "query"},
                    {"type": "string", "description": "Sort column", "name": "sortBy", "in": "query"},
                    {"enum": ["asc", "desc"], "type": "string", "description": "Sort direction", "name": "sortOrder", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/repository.PaginatedResult-domain_Project"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/tickets": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["tickets"],
                "summary": "List tickets",
                "parameters": [
                    {"type": "integer", "default": 1, "description": "Page number", "name": "page", "in": "query"},
                    {"type": "integer", "default": 10, "description": "Items per page", "name": "limit", "in": "query"},
                    {"type": "string", "description": "Sort column", "name": "sortBy", "in": "query"},
                    {"enum": ["asc", "desc"], "type": "string", "description": "Sort direction", "name": "sortOrder", "in": "query"},
                    {"type": "string", "description": "Comma-separated ticket statuses", "name": "status", "in": "query"},
                    {"type": "string", "description": "Project ID", "name": "project_id", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/repository.PaginatedResult-domain_Ticket"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/users": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "List users",
                "parameters": [
                    {"type": "integer", "default": 1, "description": "Page number", "name": "page", "in": "query"},
                    {"type": "integer", "default": 10, "description": "Items per page", "name": "limit", "in": "query"},
                    {"type": "string", "description": "Sort column", "name": "sortBy", "in": "query"},
                    {"enum": ["asc", "desc"], "type": "string", "description": "Sort direction", "name": "sortOrder", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/repository.PaginatedResult-domain_User"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/users/{userID}/notifications": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Notifications are never cached.",
                "produces": ["application/json"],
                "tags": ["notifications"],
                "summary": "List a user's notifications",
                "parameters": [
                    {"type": "string", "description": "User ID", "name": "userID", "in": "path", "required": true},
                    {"type": "integer", "default": 1, "description": "Page number", "name": "page", "in": "query"},
                    {"type": "integer", "default": 10, "description": "Items per page", "name": "limit", "in": "query"},
                    {"type": "boolean", "description": "Read flag", "name": "read", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/repository.PaginatedResult-domain_Notification"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "api.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "cache.Stats": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "total": {"type": "integer"},
                "valid": {"type": "integer"},
                "expired": {"type": "integer"},
                "hits": {"type": "integer"},
                "misses": {"type": "integer"},
                "evictions": {"type": "integer"},
                "hit_rate": {"type": "number"},
                "max_size": {"type": "integer"}
            }
        },
        "domain.ChartPoint": {
            "type": "object",
            "properties": {"label": {"type": "string"}, "value": {"type": "integer"}}
        },
        "domain.ChartSeries": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "points": {"type": "array", "items": {"$ref": "#/definitions/domain.ChartPoint"}},
                "generated_at": {"type": "string"}
            }
        },
        "domain.Notification": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "user_id": {"type": "string"},
                "title": {"type": "string"},
                "body": {"type": "string"},
                "read": {"type": "boolean"},
                "created_at": {"type": "string"}
            }
        },
        "domain.Payment": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "project_id": {"type": "string"},
                "user_id": {"type": "string"},
                "amount": {"type": "integer"},
                "currency": {"type": "string"},
                "status": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "domain.Project": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "description": {"type": "string"},
                "status": {"type": "string"},
                "owner_id": {"type": "string"},
                "version": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "domain.Ticket": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "project_id": {"type": "string"},
                "title": {"type": "string"},
                "status": {"type": "string"},
                "priority": {"type": "string"},
                "assignee_id": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "domain.User": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "email": {"type": "string"},
                "full_name": {"type": "string"},
                "role": {"type": "string"},
                "active": {"type": "boolean"},
                "created_at": {"type": "string"}
            }
        },
        "handlers.CacheStatsResponse": {
            "type": "object",
            "properties": {"caches": {"type": "array", "items": {"$ref": "#/definitions/cache.Stats"}}}
        },
        "handlers.InvalidateResponse": {
            "type": "object",
            "properties": {"kind": {"type": "string"}, "removed": {"type": "integer"}}
        },
        "repository.PageMeta": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "limit": {"type": "integer"},
                "total": {"type": "integer"},
                "totalPages": {"type": "integer"},
                "hasNext": {"type": "boolean"},
                "hasPrev": {"type": "boolean"}
            }
        },
        "repository.PaginatedResult-domain_Notification": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/domain.Notification"}},
                "pagination": {"$ref": "#/definitions/repository.PageMeta"}
            }
        },
        "repository.PaginatedResult-domain_Payment": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/domain.Payment"}},
                "pagination": {"$ref": "#/definitions/repository.PageMeta"}
            }
        },
        "repository.PaginatedResult-domain_Project": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/domain.Project"}},
                "pagination": {"$ref": "#/definitions/repository.PageMeta"}
            }
        },
        "repository.PaginatedResult-domain_Ticket": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/domain.Ticket"}},
                "pagination": {"$ref": "#/definitions/repository.PageMeta"}
            }
        },
        "repository.PaginatedResult-domain_User": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/domain.User"}},
                "pagination": {"$ref": "#/definitions/repository.PageMeta"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and the Supabase access token",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "PM Admin Dashboard API",
	Description:      "Paged, cached reads over the project management backend.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "schemes": {{ marshal .Schemes }},
    "paths": {
        "/sessions": {
            "post": {
                "tags": ["sessions"],
                "summary": "Open a session",
                "description": "Start a session with an empty task list and return its bearer token",
                "produces": ["application/json"],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ports.SessionToken"}},
                    "503": {"description": "Session limit reached", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["sessions"],
                "summary": "Close the current session",
                "description": "Discard the session and all of its tasks",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.MessageResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/tasks": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["tasks"],
                "summary": "List tasks",
                "description": "List the session's tasks in the requested order",
                "produces": ["application/json"],
                "parameters": [
                    {
                        "type": "string",
                        "enum": ["none", "date_newest", "date_oldest", "priority_high_first", "priority_low_first"],
                        "name": "sort",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.TaskListResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["tasks"],
                "summary": "Create a task",
                "description": "Append a task to the session store. Blank titles are rejected.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {
                        "description": "Task data",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/http.CreateTaskBody"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/http.TaskResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/tasks/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["tasks"],
                "summary": "Get a task",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "description": "Task ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.TaskResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/tasks/{id}/toggle": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["tasks"],
                "summary": "Toggle task completion",
                "description": "Flip the completed state of a task",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "description": "Task ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.TaskResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/sort-options": {
            "get": {
                "tags": ["tasks"],
                "summary": "List sort options",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/http.SortOptionResponse"}}}
                }
            }
        }
    },
    "definitions": {
        "http.CreateTaskBody": {
            "type": "object",
            "required": ["title"],
            "properties": {
                "title": {"type": "string", "maxLength": 500},
                "details": {"type": "string", "maxLength": 5000},
                "priority": {"type": "string", "enum": ["low", "medium", "high"]},
                "is_flagged": {"type": "boolean"},
                "deadline": {"type": "string", "example": "31.12 18:30"}
            }
        },
        "http.TaskResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "format": "uuid"},
                "created_at": {"type": "string", "format": "date-time"},
                "title": {"type": "string"},
                "details": {"type": "string"},
                "priority": {"type": "string", "enum": ["low", "medium", "high"]},
                "is_flagged": {"type": "boolean"},
                "deadline": {"type": "string", "format": "date-time"},
                "is_completed": {"type": "boolean"},
                "display": {"$ref": "#/definitions/presenter.TaskView"}
            }
        },
        "http.TaskListResponse": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/http.TaskResponse"}},
                "total": {"type": "integer"},
                "sort": {"type": "string"},
                "sort_label": {"type": "string"},
                "empty": {"type": "boolean"},
                "empty_text": {"type": "string"}
            }
        },
        "http.SortOptionResponse": {
            "type": "object",
            "properties": {
                "value": {"type": "string"},
                "label": {"type": "string"}
            }
        },
        "http.MessageResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}}
        },
        "http.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "details": {"type": "string"}
            }
        },
        "ports.SessionToken": {
            "type": "object",
            "properties": {
                "session_id": {"type": "string", "format": "uuid"},
                "token": {"type": "string"},
                "token_type": {"type": "string"},
                "expires_in": {"type": "integer"}
            }
        },
        "presenter.TaskView": {
            "type": "object",
            "properties": {
                "priority_label": {"type": "string"},
                "accent": {"type": "string"},
                "subtitle": {"type": "string"},
                "status_mark": {"type": "string"},
                "flagged": {"type": "boolean"},
                "overdue": {"type": "boolean"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header",
            "description": "Type 'Bearer' followed by a space and the session token"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http"},
	Title:            "SmartPlanner API",
	Description:      "Session scoped task lists with sorting and completion tracking",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

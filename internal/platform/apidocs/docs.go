// Package apidocs registers the OpenAPI (swagger 2.0) document served under
// /swagger in dev mode.
package apidocs

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/swaggo/swag"
)

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/form": {
            "get": {
                "produces": ["application/json"],
                "summary": "Current state of the loan request page",
                "responses": {"200": {"description": "page snapshot"}}
            }
        },
        "/form/fields/{id}": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Set a field value and dispatch its input event",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/FieldInput"}}
                ],
                "responses": {
                    "200": {"description": "page snapshot"},
                    "400": {"description": "element is not an input", "schema": {"$ref": "#/definitions/Error"}},
                    "404": {"description": "no such element", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        },
        "/form/submit": {
            "post": {
                "produces": ["application/json"],
                "summary": "Submit the loan form as currently filled",
                "responses": {
                    "201": {"description": "loan stored"},
                    "422": {"description": "submission blocked by validation", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        },
        "/loans": {
            "get": {
                "produces": ["application/json"],
                "summary": "List stored loan requests",
                "parameters": [
                    {"type": "string", "name": "student_id", "in": "query"},
                    {"type": "string", "name": "book_id", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "integer", "name": "offset", "in": "query"}
                ],
                "responses": {"200": {"description": "items and total"}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Fill and submit the loan form in one call",
                "parameters": [
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoanRequest"}}
                ],
                "responses": {
                    "201": {"description": "loan stored"},
                    "400": {"description": "invalid json", "schema": {"$ref": "#/definitions/Error"}},
                    "422": {"description": "submission blocked by validation", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        },
        "/loans/export": {
            "get": {
                "produces": ["text/csv"],
                "summary": "Export stored loan requests as CSV",
                "parameters": [
                    {"type": "string", "enum": ["utf-8", "windows-1252"], "name": "encoding", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "csv file"},
                    "400": {"description": "unknown encoding", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        }
    },
    "definitions": {
        "FieldInput": {
            "type": "object",
            "properties": {"value": {"type": "string"}}
        },
        "LoanRequest": {
            "type": "object",
            "properties": {
                "student_name": {"type": "string"},
                "student_id": {"type": "string"},
                "book_id": {"type": "string"},
                "loan_date": {"type": "string", "format": "date"},
                "return_date": {"type": "string", "format": "date"}
            }
        },
        "Error": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "object",
                    "properties": {
                        "code": {"type": "string"},
                        "message": {"type": "string"}
                    }
                }
            }
        }
    }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Biblioteca loan requests API",
	Description:      "Headless book-loan request form and loan log.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

// Register mounts the swagger UI at /swagger/*any.
func Register(r gin.IRoutes) {
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// Package docs holds the OpenAPI description served under /swagger.
//
// Regenerate with: swag init -g cmd/api/main.go -o docs
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
        "/admin/approvals": {
            "get": {
                "summary": "List approval requests",
                "description": "Get paginated list of approval requests, oldest first",
                "tags": [
                    "admin"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Request status (PENDING, APPROVED, REJECTED), default: PENDING",
                        "name": "status",
                        "in": "query",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "description": "Page number (default: 1)",
                        "name": "page",
                        "in": "query",
                        "required": false,
                        "type": "integer"
                    },
                    {
                        "description": "Items per page (default: 20)",
                        "name": "count",
                        "in": "query",
                        "required": false,
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/models.ApprovalListItem"
                            }
                        }
                    },
                    "400": {
                        "description": "Invalid status",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    },
                    "500": {
                        "description": "Internal server error",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    }
                }
            }
        },
        "/admin/approvals/{id}": {
            "get": {
                "summary": "Get approval request",
                "description": "Get an approval request with its course and the curriculum under review",
                "tags": [
                    "admin"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Approval request ID",
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/models.ApprovalDetail"
                        }
                    },
                    "404": {
                        "description": "Approval request not found",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    }
                }
            }
        },
        "/admin/approvals/{id}/approve": {
            "post": {
                "summary": "Approve a course",
                "tags": [
                    "admin"
                ],
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Approval request ID",
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "description": "Optional admin notes",
                        "name": "request",
                        "in": "body",
                        "required": false,
                        "schema": {
                            "$ref": "#/definitions/models.ReviewDecisionRequest"
                        }
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    },
                    "404": {
                        "description": "Approval request not found",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    },
                    "409": {
                        "description": "Approval request has already been reviewed",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    }
                }
            }
        },
        "/admin/approvals/{id}/reject": {
            "post": {
                "summary": "Reject a course",
                "tags": [
                    "admin"
                ],
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Approval request ID",
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "description": "Admin notes explaining the rejection",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/models.ReviewDecisionRequest"
                        }
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    },
                    "400": {
                        "description": "Admin notes are required",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    },
                    "404": {
                        "description": "Approval request not found",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    },
                    "409": {
                        "description": "Approval request has already been reviewed",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    }
                }
            }
        },
        "/admin/currencies": {
            "get": {
                "summary": "Get currencies",
                "tags": [
                    "admin"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/models.Currency"
                            }
                        }
                    },
                    "500": {
                        "description": "Internal server error",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    }
                }
            },
            "post": {
                "summary": "Create a currency",
                "tags": [
                    "admin"
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Currency",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/models.CreateCurrencyRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/models.Currency"
                        }
                    },
                    "400": {
                        "description": "Invalid field",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    },
                    "409": {
                        "description": "Currency already exists",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    }
                }
            }
        },
        "/admin/currencies/{code}": {
            "patch": {
                "summary": "Update a currency",
                "tags": [
                    "admin"
                ],
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "ISO 4217 code",
                        "name": "code",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "description": "Currency update",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/models.UpdateCurrencyRequest"
                        }
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    },
                    "400": {
                        "description": "Invalid field",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    },
                    "404": {
                        "description": "Currency not found",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    }
                }
            },
            "delete": {
                "summary": "Delete a currency",
                "tags": [
                    "admin"
                ],
                "parameters": [
                    {
                        "description": "ISO 4217 code",
                        "name": "code",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    },
                    "404": {
                        "description": "Currency not found",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    },
                    "409": {
                        "description": "Currency is used by courses",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    }
                }
            }
        },
        "/admin/exchange-rates": {
            "get": {
                "summary": "Get exchange rates",
                "tags": [
                    "admin"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Base currency ISO code",
                        "name": "base",
                        "in": "query",
                        "required": false,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/models.ExchangeRate"
                            }
                        }
                    },
                    "400": {
                        "description": "Invalid base currency",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    }
                }
            },
            "put": {
                "summary": "Set an exchange rate",
                "tags": [
                    "admin"
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Exchange rate",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/models.UpsertExchangeRateRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/models.ExchangeRate"
                        }
                    },
                    "400": {
                        "description": "Invalid field",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    },
                    "404": {
                        "description": "Currency not found",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    }
                }
            }
        },
        "/admin/exchange-rates/{base}/{quote}": {
            "delete": {
                "summary": "Delete an exchange rate",
                "tags": [
                    "admin"
                ],
                "parameters": [
                    {
                        "description": "Base currency ISO code",
                        "name": "base",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "description": "Quote currency ISO code",
                        "name": "quote",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    },
                    "404": {
                        "description": "Exchange rate not found",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    }
                }
            }
        },
        "/courses/{id}/curriculum": {
            "get": {
                "summary": "Get published curriculum",
                "description": "Get the saved curriculum of a published course",
                "tags": [
                    "curriculum"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Course ID",
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/models.Section"
                            }
                        }
                    },
                    "400": {
                        "description": "Invalid course ID",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    },
                    "404": {
                        "description": "Course not found",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    },
                    "500": {
                        "description": "Internal server error",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    }
                }
            }
        },
        "/instructor/courses": {
            "get": {
                "summary": "Get list of courses",
                "description": "Get paginated list of courses of the authenticated instructor (every course for admins)",
                "tags": [
                    "instructor"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Course status (DRAFT, PENDING_REVIEW, PUBLISHED, REJECTED)",
                        "name": "status",
                        "in": "query",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "description": "Search query",
                        "name": "search",
                        "in": "query",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "description": "Page number (default: 1)",
                        "name": "page",
                        "in": "query",
                        "required": false,
                        "type": "integer"
                    },
                    {
                        "description": "Items per page (default: 20)",
                        "name": "count",
                        "in": "query",
                        "required": false,
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "List of courses",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/models.CourseListItem"
                            }
                        }
                    },
                    "400": {
                        "description": "Invalid status",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    },
                    "500": {
                        "description": "Internal server error",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    }
                }
            },
            "post": {
                "summary": "Create a course",
                "description": "Create a new course for the authenticated instructor; the slug is generated from the title when omitted",
                "tags": [
                    "instructor"
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Course creation request",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/models.CreateCourseRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Course created successfully",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    },
                    "400": {
                        "description": "Invalid request body",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    },
                    "409": {
                        "description": "Slug or title already used",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    },
                    "500": {
                        "description": "Internal server error",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    }
                }
            }
        },
        "/instructor/courses/{id}": {
            "get": {
                "summary": "Get a course",
                "tags": [
                    "instructor"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Course ID",
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/models.Course"
                        }
                    },
                    "403": {
                        "description": "Forbidden - not course owner",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    },
                    "404": {
                        "description": "Course not found",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    }
                }
            },
            "patch": {
                "summary": "Update a course",
                "description": "Update a course owned by the authenticated instructor (partial update)",
                "tags": [
                    "instructor"
                ],
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Course ID",
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "description": "Course update request",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/models.UpdateCourseRequest"
                        }
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    },
                    "400": {
                        "description": "Invalid request body",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    },
                    "403": {
                        "description": "Forbidden - not course owner",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    },
                    "404": {
                        "description": "Course not found",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    },
                    "409": {
                        "description": "Course pending review or slug already used",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    }
                }
            },
            "delete": {
                "summary": "Delete a course",
                "description": "Delete a course with its curriculum",
                "tags": [
                    "instructor"
                ],
                "parameters": [
                    {
                        "description": "Course ID",
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    },
                    "403": {
                        "description": "Forbidden - not course owner",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    },
                    "404": {
                        "description": "Course not found",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    },
                    "500": {
                        "description": "Internal server error",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    }
                }
            }
        },
        "/instructor/courses/{id}/curriculum/draft": {
            "get": {
                "summary": "Open curriculum draft",
                "description": "Get the editing draft of a course, starting one from the saved curriculum if none exists",
                "tags": [
                    "curriculum"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Course ID",
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/models.CurriculumDraft"
                        }
                    },
                    "400": {
                        "description": "Invalid course ID",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    },
                    "403": {
                        "description": "Forbidden - not course owner",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    },
                    "404": {
                        "description": "Course not found",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    },
                    "500": {
                        "description": "Internal server error",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    }
                }
            },
            "delete": {
                "summary": "Discard curriculum draft",
                "description": "Drop the editing draft of a course; the saved curriculum is not affected",
                "tags": [
                    "curriculum"
                ],
                "parameters": [
                    {
                        "description": "Course ID",
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    },
                    "403": {
                        "description": "Forbidden - not course owner",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    },
                    "404": {
                        "description": "Course not found",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    }
                }
            }
        },
        "/instructor/courses/{id}/curriculum/draft/actions": {
            "post": {
                "summary": "Apply curriculum action",
                "description": "Apply a raw curriculum action (ADD_SECTION, UPDATE_LESSON, REORDER_SECTIONS, ...) to the draft",
                "tags": [
                    "curriculum"
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Course ID",
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "description": "Action",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/models.ActionRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/models.DraftResponse"
                        }
                    },
                    "400": {
                        "description": "Invalid or unknown action",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    },
                    "404": {
                        "description": "Target not found",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    }
                }
            }
        },
        "/instructor/courses/{id}/curriculum/draft/save": {
            "post": {
                "summary": "Save curriculum draft",
                "description": "Validate the draft and write it to the database",
                "tags": [
                    "curriculum"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Course ID",
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/models.CurriculumDraft"
                        }
                    },
                    "400": {
                        "description": "Invalid curriculum with the list of violations",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    },
                    "404": {
                        "description": "Course or draft not found",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    },
                    "409": {
                        "description": "Course pending review or draft changed while saving",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    },
                    "500": {
                        "description": "Internal server error",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    }
                }
            }
        },
        "/instructor/courses/{id}/curriculum/draft/sections": {
            "post": {
                "summary": "Add section",
                "tags": [
                    "curriculum"
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Course ID",
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "description": "Section",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/models.SectionRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/models.DraftResponse"
                        }
                    },
                    "400": {
                        "description": "Invalid request body",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    }
                }
            }
        },
        "/instructor/courses/{id}/curriculum/draft/sections/order": {
            "put": {
                "summary": "Reorder sections",
                "tags": [
                    "curriculum"
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Course ID",
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "description": "New order of every section",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/models.ReorderRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/models.DraftResponse"
                        }
                    },
                    "400": {
                        "description": "Order does not list every section exactly once",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    }
                }
            }
        },
        "/instructor/courses/{id}/curriculum/draft/sections/{sectionRef}": {
            "patch": {
                "summary": "Update section",
                "tags": [
                    "curriculum"
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Course ID",
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "description": "Section ID or temporary ID",
                        "name": "sectionRef",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "description": "Section",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/models.SectionRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/models.DraftResponse"
                        }
                    },
                    "404": {
                        "description": "Section not found",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    }
                }
            },
            "delete": {
                "summary": "Delete section",
                "tags": [
                    "curriculum"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Course ID",
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "description": "Section ID or temporary ID",
                        "name": "sectionRef",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/models.DraftResponse"
                        }
                    },
                    "404": {
                        "description": "Section not found",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    }
                }
            }
        },
        "/instructor/courses/{id}/curriculum/draft/sections/{sectionRef}/lessons": {
            "post": {
                "summary": "Add lesson",
                "tags": [
                    "curriculum"
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Course ID",
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "description": "Section ID or temporary ID",
                        "name": "sectionRef",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "description": "Lesson",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/models.Lesson"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/models.DraftResponse"
                        }
                    },
                    "400": {
                        "description": "Invalid lesson",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    },
                    "404": {
                        "description": "Section not found",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    }
                }
            }
        },
        "/instructor/courses/{id}/curriculum/draft/sections/{sectionRef}/lessons/order": {
            "put": {
                "summary": "Reorder lessons",
                "tags": [
                    "curriculum"
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Course ID",
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "description": "Section ID or temporary ID",
                        "name": "sectionRef",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "description": "New order of every lesson of the section",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/models.ReorderRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/models.DraftResponse"
                        }
                    },
                    "400": {
                        "description": "Order does not list every lesson exactly once",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    }
                }
            }
        },
        "/instructor/courses/{id}/curriculum/draft/sections/{sectionRef}/lessons/{lessonRef}": {
            "patch": {
                "summary": "Update lesson",
                "description": "Replace the content of a lesson; its identifiers and position are kept",
                "tags": [
                    "curriculum"
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Course ID",
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "description": "Section ID or temporary ID",
                        "name": "sectionRef",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "description": "Lesson ID or temporary ID",
                        "name": "lessonRef",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "description": "Lesson",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/models.Lesson"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/models.DraftResponse"
                        }
                    },
                    "404": {
                        "description": "Section or lesson not found",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    }
                }
            },
            "delete": {
                "summary": "Delete lesson",
                "tags": [
                    "curriculum"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Course ID",
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "description": "Section ID or temporary ID",
                        "name": "sectionRef",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "description": "Lesson ID or temporary ID",
                        "name": "lessonRef",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/models.DraftResponse"
                        }
                    },
                    "404": {
                        "description": "Section or lesson not found",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    }
                }
            }
        },
        "/instructor/courses/{id}/curriculum/draft/sections/{sectionRef}/lessons/{lessonRef}/questions/{questionRef}/correct": {
            "put": {
                "summary": "Set correct quiz option",
                "description": "Mark one option of a quiz question as its only correct answer",
                "tags": [
                    "curriculum"
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Course ID",
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "description": "Section ID or temporary ID",
                        "name": "sectionRef",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "description": "Lesson ID or temporary ID",
                        "name": "lessonRef",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "description": "Question ID or temporary ID",
                        "name": "questionRef",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "description": "Option reference",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/models.CorrectOptionRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/models.DraftResponse"
                        }
                    },
                    "404": {
                        "description": "Question or option not found",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    }
                }
            }
        },
        "/instructor/courses/{id}/submit": {
            "post": {
                "summary": "Submit a course for review",
                "description": "Send the saved curriculum of a course to the admins for approval",
                "tags": [
                    "instructor"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Course ID",
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/models.ApprovalRequest"
                        }
                    },
                    "400": {
                        "description": "Curriculum is empty",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    },
                    "403": {
                        "description": "Forbidden - not course owner",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    },
                    "409": {
                        "description": "Course is already pending review",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    }
                }
            }
        },
        "/notifications": {
            "get": {
                "summary": "Get notifications",
                "tags": [
                    "notifications"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Only unread notifications",
                        "name": "unread",
                        "in": "query",
                        "required": false,
                        "type": "boolean"
                    },
                    {
                        "description": "Page number (default: 1)",
                        "name": "page",
                        "in": "query",
                        "required": false,
                        "type": "integer"
                    },
                    {
                        "description": "Items per page (default: 20)",
                        "name": "count",
                        "in": "query",
                        "required": false,
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/models.Notification"
                            }
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    },
                    "500": {
                        "description": "Internal server error",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    }
                }
            }
        },
        "/notifications/read-all": {
            "post": {
                "summary": "Mark every notification as read",
                "tags": [
                    "notifications"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "Number of updated notifications",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    },
                    "500": {
                        "description": "Internal server error",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    }
                }
            }
        },
        "/notifications/{id}/read": {
            "post": {
                "summary": "Mark a notification as read",
                "tags": [
                    "notifications"
                ],
                "parameters": [
                    {
                        "description": "Notification ID",
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer"
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    },
                    "404": {
                        "description": "Notification not found",
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "models.ActionRequest": {
            "type": "object",
            "properties": {
                "type": {
                    "type": "string"
                },
                "payload": {
                    "type": "object"
                }
            }
        },
        "models.ApprovalDetail": {
            "type": "object",
            "properties": {
                "request": {
                    "$ref": "#/definitions/models.ApprovalRequest"
                },
                "course": {
                    "$ref": "#/definitions/models.Course"
                },
                "curriculum": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/models.Section"
                    }
                }
            }
        },
        "models.ApprovalListItem": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "integer"
                },
                "courseId": {
                    "type": "integer"
                },
                "courseTitle": {
                    "type": "string"
                },
                "requestType": {
                    "type": "string"
                },
                "status": {
                    "type": "string"
                },
                "submittedBy": {
                    "type": "integer"
                },
                "createdAt": {
                    "type": "string"
                }
            }
        },
        "models.ApprovalRequest": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "integer"
                },
                "courseId": {
                    "type": "integer"
                },
                "requestType": {
                    "type": "string"
                },
                "status": {
                    "type": "string"
                },
                "submittedBy": {
                    "type": "integer"
                },
                "reviewedBy": {
                    "type": "integer"
                },
                "adminNotes": {
                    "type": "string"
                },
                "createdAt": {
                    "type": "string"
                },
                "reviewedAt": {
                    "type": "string"
                }
            }
        },
        "models.Attachment": {
            "type": "object",
            "properties": {
                "attachmentId": {
                    "type": "integer"
                },
                "tempId": {
                    "type": "string"
                },
                "fileName": {
                    "type": "string"
                },
                "fileUrl": {
                    "type": "string"
                },
                "fileType": {
                    "type": "string"
                },
                "fileSize": {
                    "type": "integer"
                }
            }
        },
        "models.CorrectOptionRequest": {
            "type": "object",
            "properties": {
                "optionRef": {
                    "type": "string"
                }
            }
        },
        "models.Course": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "integer"
                },
                "slug": {
                    "type": "string"
                },
                "authorId": {
                    "type": "integer"
                },
                "title": {
                    "type": "string"
                },
                "shortSummary": {
                    "type": "string"
                },
                "price": {
                    "type": "number"
                },
                "currencyCode": {
                    "type": "string"
                },
                "status": {
                    "type": "string"
                },
                "wasPublished": {
                    "type": "boolean"
                },
                "createdAt": {
                    "type": "string"
                },
                "updatedAt": {
                    "type": "string"
                }
            }
        },
        "models.CourseListItem": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "integer"
                },
                "slug": {
                    "type": "string"
                },
                "title": {
                    "type": "string"
                },
                "price": {
                    "type": "number"
                },
                "currencyCode": {
                    "type": "string"
                },
                "status": {
                    "type": "string"
                },
                "authorId": {
                    "type": "integer"
                }
            }
        },
        "models.CreateCourseRequest": {
            "type": "object",
            "properties": {
                "slug": {
                    "type": "string"
                },
                "title": {
                    "type": "string"
                },
                "shortSummary": {
                    "type": "string"
                },
                "price": {
                    "type": "number"
                },
                "currencyCode": {
                    "type": "string"
                }
            }
        },
        "models.CreateCurrencyRequest": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "name": {
                    "type": "string"
                },
                "symbol": {
                    "type": "string"
                }
            }
        },
        "models.Currency": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "name": {
                    "type": "string"
                },
                "symbol": {
                    "type": "string"
                }
            }
        },
        "models.CurriculumDraft": {
            "type": "object",
            "properties": {
                "courseId": {
                    "type": "integer"
                },
                "version": {
                    "type": "integer"
                },
                "sections": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/models.Section"
                    }
                },
                "updatedAt": {
                    "type": "string"
                }
            }
        },
        "models.DraftResponse": {
            "type": "object",
            "properties": {
                "draft": {
                    "$ref": "#/definitions/models.CurriculumDraft"
                },
                "notices": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/models.Notice"
                    }
                }
            }
        },
        "models.ExchangeRate": {
            "type": "object",
            "properties": {
                "baseCode": {
                    "type": "string"
                },
                "quoteCode": {
                    "type": "string"
                },
                "rate": {
                    "type": "number"
                },
                "updatedAt": {
                    "type": "string"
                }
            }
        },
        "models.Lesson": {
            "type": "object",
            "properties": {
                "lessonId": {
                    "type": "integer"
                },
                "tempId": {
                    "type": "string"
                },
                "lessonName": {
                    "type": "string"
                },
                "description": {
                    "type": "string"
                },
                "lessonOrder": {
                    "type": "integer"
                },
                "lessonType": {
                    "type": "string"
                },
                "videoUrl": {
                    "type": "string"
                },
                "videoDuration": {
                    "type": "integer"
                },
                "textContent": {
                    "type": "string"
                },
                "questions": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/models.QuizQuestion"
                    }
                },
                "isFree": {
                    "type": "boolean"
                },
                "attachments": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/models.Attachment"
                    }
                },
                "subtitles": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/models.Subtitle"
                    }
                }
            }
        },
        "models.Notice": {
            "type": "object",
            "properties": {
                "level": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                }
            }
        },
        "models.Notification": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "integer"
                },
                "userId": {
                    "type": "integer"
                },
                "title": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "link": {
                    "type": "string"
                },
                "isRead": {
                    "type": "boolean"
                },
                "createdAt": {
                    "type": "string"
                }
            }
        },
        "models.QuizOption": {
            "type": "object",
            "properties": {
                "optionId": {
                    "type": "integer"
                },
                "tempId": {
                    "type": "string"
                },
                "optionText": {
                    "type": "string"
                },
                "isCorrect": {
                    "type": "boolean"
                },
                "optionOrder": {
                    "type": "integer"
                }
            }
        },
        "models.QuizQuestion": {
            "type": "object",
            "properties": {
                "questionId": {
                    "type": "integer"
                },
                "tempId": {
                    "type": "string"
                },
                "questionText": {
                    "type": "string"
                },
                "explanation": {
                    "type": "string"
                },
                "questionOrder": {
                    "type": "integer"
                },
                "options": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/models.QuizOption"
                    }
                }
            }
        },
        "models.ReorderRequest": {
            "type": "object",
            "properties": {
                "order": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                }
            }
        },
        "models.ReviewDecisionRequest": {
            "type": "object",
            "properties": {
                "notes": {
                    "type": "string"
                }
            }
        },
        "models.Section": {
            "type": "object",
            "properties": {
                "sectionId": {
                    "type": "integer"
                },
                "tempId": {
                    "type": "string"
                },
                "sectionName": {
                    "type": "string"
                },
                "description": {
                    "type": "string"
                },
                "sectionOrder": {
                    "type": "integer"
                },
                "lessons": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/models.Lesson"
                    }
                }
            }
        },
        "models.SectionRequest": {
            "type": "object",
            "properties": {
                "sectionName": {
                    "type": "string"
                },
                "description": {
                    "type": "string"
                }
            }
        },
        "models.Subtitle": {
            "type": "object",
            "properties": {
                "subtitleId": {
                    "type": "integer"
                },
                "tempId": {
                    "type": "string"
                },
                "languageCode": {
                    "type": "string"
                },
                "subtitleUrl": {
                    "type": "string"
                },
                "isDefault": {
                    "type": "boolean"
                }
            }
        },
        "models.UpdateCourseRequest": {
            "type": "object",
            "properties": {
                "slug": {
                    "type": "string"
                },
                "title": {
                    "type": "string"
                },
                "shortSummary": {
                    "type": "string"
                },
                "price": {
                    "type": "number"
                },
                "currencyCode": {
                    "type": "string"
                }
            }
        },
        "models.UpdateCurrencyRequest": {
            "type": "object",
            "properties": {
                "name": {
                    "type": "string"
                },
                "symbol": {
                    "type": "string"
                }
            }
        },
        "models.UpsertExchangeRateRequest": {
            "type": "object",
            "properties": {
                "baseCode": {
                    "type": "string"
                },
                "quoteCode": {
                    "type": "string"
                },
                "rate": {
                    "type": "number"
                }
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
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
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "CourseHub Course API",
	Description:      "API for course authoring, curriculum editing and course approval",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

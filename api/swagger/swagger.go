package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Edu ERP CRM API",
        "description": "Lead lifecycle, pipeline dashboards and bulk operations for admissions counselling",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {
            "name": "Leads",
            "description": "Lead lifecycle and bulk mutations"
        },
        {
            "name": "Tasks",
            "description": "Follow-up tasks"
        },
        {
            "name": "Pipeline",
            "description": "Board, funnel and follow-up alert"
        },
        {
            "name": "Imports",
            "description": "Bulk CSV lead upload"
        },
        {
            "name": "Reports",
            "description": "CSV and PDF exports"
        },
        {
            "name": "Directory",
            "description": "Users, roles, courses and institutions"
        },
        {
            "name": "Audit",
            "description": "Audit trail of bulk operations"
        }
    ],
    "paths": {
        "/leads": {
            "get": {
                "tags": [
                    "Leads"
                ],
                "summary": "List leads",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "stage",
                        "in": "query",
                        "type": "string",
                        "description": ""
                    },
                    {
                        "name": "source",
                        "in": "query",
                        "type": "string",
                        "description": ""
                    },
                    {
                        "name": "assignedUserId",
                        "in": "query",
                        "type": "string",
                        "description": ""
                    },
                    {
                        "name": "search",
                        "in": "query",
                        "type": "string",
                        "description": ""
                    },
                    {
                        "name": "page",
                        "in": "query",
                        "type": "integer",
                        "description": ""
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "type": "integer",
                        "description": ""
                    }
                ]
            },
            "post": {
                "tags": [
                    "Leads"
                ],
                "summary": "Create a lead",
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation failed",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateLeadRequest"
                        }
                    }
                ]
            }
        },
        "/leads/{id}": {
            "get": {
                "tags": [
                    "Leads"
                ],
                "summary": "Get a lead",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Lead id"
                    }
                ]
            },
            "put": {
                "tags": [
                    "Leads"
                ],
                "summary": "Update a lead",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation failed",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Lead id"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/UpdateLeadRequest"
                        }
                    }
                ]
            }
        },
        "/leads/{id}/tasks": {
            "post": {
                "tags": [
                    "Leads"
                ],
                "summary": "Schedule a task",
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation failed",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Lead id"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/AddTaskRequest"
                        }
                    }
                ]
            }
        },
        "/leads/{id}/activities": {
            "post": {
                "tags": [
                    "Leads"
                ],
                "summary": "Log an activity",
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation failed",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Lead id"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/AddActivityRequest"
                        }
                    }
                ]
            }
        },
        "/leads/bulk-update": {
            "post": {
                "tags": [
                    "Leads"
                ],
                "summary": "Bulk stage, assignee or distribution update",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation failed",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/BulkUpdateRequest"
                        }
                    }
                ]
            }
        },
        "/leads/bulk-delete": {
            "post": {
                "tags": [
                    "Leads"
                ],
                "summary": "Bulk delete leads",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation failed",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/BulkDeleteRequest"
                        }
                    }
                ]
            }
        },
        "/leads/distribute": {
            "post": {
                "tags": [
                    "Leads"
                ],
                "summary": "Round-robin distribute leads across counselors",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation failed",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/DistributeLeadsRequest"
                        }
                    }
                ]
            }
        },
        "/leads/imports": {
            "post": {
                "tags": [
                    "Imports"
                ],
                "summary": "Upload a CSV of leads",
                "consumes": [
                    "multipart/form-data"
                ],
                "parameters": [
                    {
                        "name": "file",
                        "in": "formData",
                        "type": "file",
                        "required": true
                    }
                ],
                "responses": {
                    "202": {
                        "description": "Queued",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation failed"
                    },
                    "413": {
                        "description": "Payload too large"
                    }
                }
            }
        },
        "/leads/imports/{id}": {
            "get": {
                "tags": [
                    "Imports"
                ],
                "summary": "Import status",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Import job id"
                    }
                ]
            }
        },
        "/tasks": {
            "get": {
                "tags": [
                    "Tasks"
                ],
                "summary": "List tasks",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "leadId",
                        "in": "query",
                        "type": "string",
                        "description": ""
                    },
                    {
                        "name": "assignedUserId",
                        "in": "query",
                        "type": "string",
                        "description": ""
                    },
                    {
                        "name": "status",
                        "in": "query",
                        "type": "string",
                        "description": ""
                    },
                    {
                        "name": "type",
                        "in": "query",
                        "type": "string",
                        "description": ""
                    }
                ]
            }
        },
        "/tasks/{id}/status": {
            "patch": {
                "tags": [
                    "Tasks"
                ],
                "summary": "Update a task status",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation failed",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Task id"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/UpdateTaskStatusRequest"
                        }
                    }
                ]
            }
        },
        "/pipeline/board": {
            "get": {
                "tags": [
                    "Pipeline"
                ],
                "summary": "Kanban board grouped by stage",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation failed",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "sort",
                        "in": "query",
                        "type": "string",
                        "description": "created or priority"
                    }
                ]
            }
        },
        "/pipeline/funnel": {
            "get": {
                "tags": [
                    "Pipeline"
                ],
                "summary": "Stage funnel with conversion ratios",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/pipeline/missed-follow-up": {
            "get": {
                "tags": [
                    "Pipeline"
                ],
                "summary": "Most recent lead with a follow-up due today",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/reports/{report}": {
            "get": {
                "tags": [
                    "Reports"
                ],
                "summary": "Download a pipeline report",
                "produces": [
                    "text/csv",
                    "application/pdf"
                ],
                "parameters": [
                    {
                        "name": "report",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "funnel or counselors"
                    },
                    {
                        "name": "format",
                        "in": "query",
                        "type": "string",
                        "description": "csv or pdf"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Report file",
                        "schema": {
                            "type": "file"
                        }
                    },
                    "400": {
                        "description": "Unsupported report or format"
                    }
                }
            }
        },
        "/users": {
            "get": {
                "tags": [
                    "Directory"
                ],
                "summary": "List users",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "roleId",
                        "in": "query",
                        "type": "string",
                        "description": ""
                    }
                ]
            }
        },
        "/roles": {
            "get": {
                "tags": [
                    "Directory"
                ],
                "summary": "List roles",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/courses": {
            "get": {
                "tags": [
                    "Directory"
                ],
                "summary": "List courses",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "institutionId",
                        "in": "query",
                        "type": "string",
                        "description": ""
                    }
                ]
            }
        },
        "/institutions": {
            "get": {
                "tags": [
                    "Directory"
                ],
                "summary": "List institutions",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/audit-logs": {
            "get": {
                "tags": [
                    "Audit"
                ],
                "summary": "List audit entries",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "parameters": [
                    {
                        "name": "action",
                        "in": "query",
                        "type": "string",
                        "description": ""
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "type": "integer",
                        "description": ""
                    }
                ]
            }
        }
    },
    "definitions": {
        "PhoneNumber": {
            "type": "object",
            "properties": {
                "title": {
                    "type": "string"
                },
                "number": {
                    "type": "string"
                }
            }
        },
        "CreateLeadRequest": {
            "type": "object",
            "properties": {
                "name": {
                    "type": "string"
                },
                "email": {
                    "type": "string"
                },
                "phoneNumbers": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/PhoneNumber"
                    }
                },
                "source": {
                    "type": "string"
                },
                "otherSource": {
                    "type": "string"
                },
                "socialMediaChannel": {
                    "type": "string"
                },
                "referrerName": {
                    "type": "string"
                },
                "courseInterest": {
                    "type": "string"
                },
                "city": {
                    "type": "string"
                },
                "gender": {
                    "type": "string"
                },
                "birthDate": {
                    "type": "string"
                }
            },
            "required": [
                "name",
                "email",
                "phoneNumbers",
                "source"
            ]
        },
        "UpdateLeadRequest": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "name": {
                    "type": "string"
                },
                "email": {
                    "type": "string"
                },
                "phoneNumbers": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/PhoneNumber"
                    }
                },
                "source": {
                    "type": "string"
                },
                "assignedUserId": {
                    "type": "string"
                },
                "stage": {
                    "type": "string"
                },
                "courseInterest": {
                    "type": "string"
                }
            },
            "required": [
                "name",
                "email",
                "phoneNumbers",
                "source",
                "assignedUserId"
            ]
        },
        "AddTaskRequest": {
            "type": "object",
            "properties": {
                "type": {
                    "type": "string"
                },
                "dueDate": {
                    "type": "string"
                },
                "priority": {
                    "type": "string"
                },
                "notes": {
                    "type": "string"
                },
                "assignedUserId": {
                    "type": "string"
                }
            },
            "required": [
                "type",
                "dueDate",
                "priority",
                "notes",
                "assignedUserId"
            ]
        },
        "AddActivityRequest": {
            "type": "object",
            "properties": {
                "type": {
                    "type": "string"
                },
                "outcome": {
                    "type": "string"
                },
                "notes": {
                    "type": "string"
                },
                "userId": {
                    "type": "string"
                },
                "courseInterest": {
                    "type": "string"
                },
                "stage": {
                    "type": "string"
                }
            },
            "required": [
                "type",
                "outcome",
                "notes"
            ]
        },
        "DistributionEntry": {
            "type": "object",
            "properties": {
                "leadId": {
                    "type": "string"
                },
                "assignedUserId": {
                    "type": "string"
                }
            }
        },
        "BulkUpdateRequest": {
            "type": "object",
            "properties": {
                "leadIds": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "stage": {
                    "type": "string"
                },
                "assignedUserId": {
                    "type": "string"
                },
                "distribution": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/DistributionEntry"
                    }
                }
            },
            "required": [
                "leadIds"
            ]
        },
        "BulkDeleteRequest": {
            "type": "object",
            "properties": {
                "leadIds": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                }
            },
            "required": [
                "leadIds"
            ]
        },
        "DistributeLeadsRequest": {
            "type": "object",
            "properties": {
                "counselorIds": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "leadIds": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                }
            },
            "required": [
                "counselorIds"
            ]
        },
        "UpdateTaskStatusRequest": {
            "type": "object",
            "properties": {
                "status": {
                    "type": "string"
                }
            },
            "required": [
                "status"
            ]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {
                    "type": "integer"
                },
                "page_size": {
                    "type": "integer"
                },
                "total_count": {
                    "type": "integer"
                }
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "status": {
                    "type": "integer"
                },
                "fields": {
                    "type": "object",
                    "additionalProperties": {
                        "type": "array",
                        "items": {
                            "type": "string"
                        }
                    }
                }
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object"
                },
                "error": {
                    "$ref": "#/definitions/APIError"
                },
                "pagination": {
                    "$ref": "#/definitions/Pagination"
                },
                "meta": {
                    "type": "object"
                }
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}

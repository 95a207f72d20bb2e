package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Attendance Bot Service API",
        "description": "Attendance stats, per-user reports, report exports and file uploads.",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Attendance", "description": "Aggregated attendance stats and per-user reports"},
        {"name": "Exports", "description": "Asynchronous CSV/PDF report exports"},
        {"name": "Files", "description": "Attachment uploads"}
    ],
    "paths": {
        "/healthz": {
            "get": {
                "summary": "Liveness check",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/readyz": {
            "get": {
                "summary": "Readiness check against database and cache",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "A dependency is unreachable"}
                }
            }
        },
        "/api/v4/bot-service/attendance/stats": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Aggregated attendance stats for a date range",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "from", "in": "query", "type": "string", "format": "date", "required": true},
                    {"name": "to", "in": "query", "type": "string", "format": "date", "required": true},
                    {"name": "team_id", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/AttendanceStats"}},
                    "400": {"description": "Invalid range", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v4/bot-service/attendance/report": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Per-user attendance report for a date range",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "from", "in": "query", "type": "string", "format": "date", "required": true},
                    {"name": "to", "in": "query", "type": "string", "format": "date", "required": true},
                    {"name": "team_id", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/AttendanceReport"}},
                    "400": {"description": "Invalid range", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v4/bot-service/attendance/cache": {
            "delete": {
                "tags": ["Attendance"],
                "summary": "Drop cached stats and reports",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "204": {"description": "Invalidated"},
                    "403": {"description": "Admin role required", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v4/bot-service/attendance/check-in": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Check in for today",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CheckInRequest"}}
                ],
                "responses": {
                    "201": {"description": "Applied", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "State does not allow this change", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v4/bot-service/attendance/break/start": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Start a break",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Applied", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "State does not allow this change", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v4/bot-service/attendance/break/end": {
            "post": {
                "tags": ["Attendance"],
                "summary": "End the current break",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Applied", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "State does not allow this change", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v4/bot-service/attendance/check-out": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Check out for today",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Applied", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "State does not allow this change", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v4/bot-service/attendance/leave-requests": {
            "post": {
                "tags": ["Leave"],
                "summary": "Submit a leave request",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateLeaveRequest"}}
                ],
                "responses": {
                    "201": {"description": "Applied", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "State does not allow this change", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v4/bot-service/attendance/leave-requests/{id}/approve": {
            "post": {
                "tags": ["Leave"],
                "summary": "Approve a pending leave request",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Applied", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Admin role required or own request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "State does not allow this change", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v4/bot-service/attendance/leave-requests/{id}/reject": {
            "post": {
                "tags": ["Leave"],
                "summary": "Reject a pending leave request",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/RejectLeaveRequest"}}
                ],
                "responses": {
                    "200": {"description": "Applied", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Admin role required or own request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "State does not allow this change", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v4/attendance/report/exports": {
            "post": {
                "tags": ["Exports"],
                "summary": "Queue a report export",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v4/attendance/report/exports/{id}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export job status",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ExportStatus"}},
                    "404": {"description": "Unknown job", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/attendance/exports/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a finished export through its signed token",
                "parameters": [
                    {"name": "token", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "File content"},
                    "403": {"description": "Expired or tampered token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v4/files": {
            "post": {
                "tags": ["Files"],
                "summary": "Upload a file to a channel",
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "channel_id", "in": "formData", "type": "string", "required": true},
                    {"name": "files", "in": "formData", "type": "file", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/FileUploadResponse"}},
                    "413": {"description": "File too large", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "415": {"description": "Unsupported media type", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v4/files/{id}": {
            "get": {
                "tags": ["Files"],
                "summary": "Fetch an uploaded file",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "File content"},
                    "404": {"description": "Unknown file", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "AttendanceStats": {
            "type": "object",
            "properties": {
                "from": {"type": "string"},
                "to": {"type": "string"},
                "total_checked_in": {"type": "integer"},
                "total_working": {"type": "integer"},
                "total_on_break": {"type": "integer"},
                "total_checked_out": {"type": "integer"},
                "total_on_leave": {"type": "integer"},
                "total_late_arrivals": {"type": "integer"},
                "total_early_departures": {"type": "integer"},
                "pending_requests": {"type": "integer"}
            }
        },
        "AttendanceEntry": {
            "type": "object",
            "properties": {
                "date": {"type": "string"},
                "check_in": {"type": "string"},
                "check_out": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "LeaveEntry": {
            "type": "object",
            "properties": {
                "type": {"type": "string"},
                "dates": {"type": "array", "items": {"type": "string"}},
                "reason": {"type": "string"},
                "expected_time": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "UserReport": {
            "type": "object",
            "properties": {
                "user_id": {"type": "string"},
                "username": {"type": "string"},
                "days_worked": {"type": "integer"},
                "days_leave": {"type": "integer"},
                "late_arrivals": {"type": "integer"},
                "early_departures": {"type": "integer"},
                "attendance": {"type": "array", "items": {"$ref": "#/definitions/AttendanceEntry"}},
                "leave_requests": {"type": "array", "items": {"$ref": "#/definitions/LeaveEntry"}}
            }
        },
        "AttendanceReport": {
            "type": "object",
            "properties": {
                "from": {"type": "string"},
                "to": {"type": "string"},
                "users": {"type": "array", "items": {"$ref": "#/definitions/UserReport"}}
            }
        },
        "CheckInRequest": {
            "type": "object",
            "required": ["channel_id", "team_id"],
            "properties": {
                "channel_id": {"type": "string"},
                "team_id": {"type": "string"}
            }
        },
        "CreateLeaveRequest": {
            "type": "object",
            "required": ["channel_id", "team_id", "type", "dates", "reason"],
            "properties": {
                "channel_id": {"type": "string"},
                "team_id": {"type": "string"},
                "type": {"type": "string", "enum": ["leave", "emergency", "sick", "late_arrival", "early_departure"]},
                "dates": {"type": "array", "items": {"type": "string", "format": "date"}},
                "reason": {"type": "string"},
                "expected_time": {"type": "string", "description": "HH:MM, required for late_arrival and early_departure"}
            }
        },
        "RejectLeaveRequest": {
            "type": "object",
            "properties": {
                "reason": {"type": "string"}
            }
        },
        "ExportRequest": {
            "type": "object",
            "required": ["from", "to", "format"],
            "properties": {
                "from": {"type": "string", "format": "date"},
                "to": {"type": "string", "format": "date"},
                "team_id": {"type": "string"},
                "format": {"type": "string", "enum": ["csv", "pdf"]}
            }
        },
        "ExportStatus": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "status": {"type": "string", "enum": ["QUEUED", "PROCESSING", "FINISHED", "FAILED"]},
                "progress": {"type": "integer"},
                "result_url": {"type": "string"},
                "error": {"type": "string"}
            }
        },
        "FileInfo": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "extension": {"type": "string"},
                "size": {"type": "integer"},
                "mime_type": {"type": "string"}
            }
        },
        "FileUploadResponse": {
            "type": "object",
            "properties": {
                "file_infos": {"type": "array", "items": {"$ref": "#/definitions/FileInfo"}}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
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

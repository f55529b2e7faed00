// Package docs holds the swagger document served at /swagger/*. Keep it in
// sync with the @ annotations on main and the controllers.
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
        "/private/booking": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Booking"],
                "summary": "List the host's bookings",
                "parameters": [
                    {"type": "string", "description": "RFC3339", "name": "from", "in": "query"},
                    {"type": "string", "description": "RFC3339", "name": "to", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/dto.BookingResponse"}}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/errors.AppError"}}
                }
            }
        },
        "/private/booking/{id}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["Booking"],
                "summary": "Cancel a booking",
                "parameters": [
                    {"type": "string", "description": "Booking id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.AppError"}}
                }
            }
        },
        "/private/calendar/connections": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Calendar"],
                "summary": "Store a connected calendar account",
                "parameters": [
                    {"description": "Tokens from the consent exchange", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.SaveConnectionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.ConnectionResponse"}},
                    "409": {"description": "plan calendar limit", "schema": {"$ref": "#/definitions/errors.AppError"}}
                }
            }
        },
        "/private/calendar/connections/{key}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "description": "Revokes the grant and removes the account. The oldest remaining account becomes default.",
                "produces": ["application/json"],
                "tags": ["Calendar"],
                "summary": "Disconnect a calendar account",
                "parameters": [
                    {"type": "string", "description": "Account key", "name": "key", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.DisconnectResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.AppError"}}
                }
            }
        },
        "/public/booking/{slug}/dates": {
            "get": {
                "description": "Days in [from, to] with at least one free slot. Empty when the host is fully booked.",
                "produces": ["application/json"],
                "tags": ["Booking"],
                "summary": "Available dates",
                "parameters": [
                    {"type": "string", "description": "Host booking slug", "name": "slug", "in": "path", "required": true},
                    {"type": "string", "description": "YYYY-MM-DD, default today", "name": "from", "in": "query"},
                    {"type": "string", "description": "YYYY-MM-DD inclusive, default from+29d", "name": "to", "in": "query"},
                    {"type": "integer", "description": "Slot minutes", "name": "duration", "in": "query"},
                    {"type": "string", "description": "Meeting type id", "name": "meeting_type", "in": "query"},
                    {"type": "string", "description": "IANA timezone of the viewer", "name": "tz", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.AvailableDatesResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.AppError"}}
                }
            }
        },
        "/public/booking/{slug}/quota": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Booking"],
                "summary": "Host booking quota",
                "parameters": [
                    {"type": "string", "description": "Host booking slug", "name": "slug", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/entity.PlanQuota"}}
                }
            }
        },
        "/public/booking/{slug}/schedule": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Booking"],
                "summary": "Book a slot",
                "parameters": [
                    {"type": "string", "description": "Host booking slug", "name": "slug", "in": "path", "required": true},
                    {"description": "Guest and slot", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.CreateBookingRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.BookingResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.AppError"}},
                    "409": {"description": "quota exceeded or slot taken", "schema": {"$ref": "#/definitions/errors.AppError"}}
                }
            }
        },
        "/public/booking/{slug}/slots": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Booking"],
                "summary": "Available slots",
                "parameters": [
                    {"type": "string", "description": "Host booking slug", "name": "slug", "in": "path", "required": true},
                    {"type": "string", "description": "YYYY-MM-DD", "name": "date", "in": "query", "required": true},
                    {"type": "integer", "description": "Slot minutes", "name": "duration", "in": "query"},
                    {"type": "string", "description": "Meeting type id", "name": "meeting_type", "in": "query"},
                    {"type": "string", "description": "IANA timezone of the viewer", "name": "tz", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.AvailableSlotsResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.AppError"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.AppError"}}
                }
            }
        }
    },
    "definitions": {
        "dto.AvailableDatesResponse": {
            "type": "object",
            "properties": {
                "dates": {"type": "array", "items": {"type": "string"}},
                "timezone": {"type": "string"}
            }
        },
        "dto.AvailableSlotsResponse": {
            "type": "object",
            "properties": {
                "date": {"type": "string"},
                "slots": {"type": "array", "items": {"$ref": "#/definitions/dto.SlotResponse"}},
                "timezone": {"type": "string"}
            }
        },
        "dto.BookingResponse": {
            "type": "object",
            "properties": {
                "end": {"type": "string"},
                "guest_email": {"type": "string"},
                "guest_name": {"type": "string"},
                "id": {"type": "string"},
                "meeting_type_id": {"type": "string"},
                "notes": {"type": "string"},
                "remote_event_id": {"type": "string"},
                "remote_meeting_link": {"type": "string"},
                "start": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "dto.ConnectionResponse": {
            "type": "object",
            "properties": {
                "connected_at": {"type": "string"},
                "email": {"type": "string"},
                "is_default": {"type": "boolean"},
                "key": {"type": "string"}
            }
        },
        "dto.CreateBookingRequest": {
            "type": "object",
            "properties": {
                "duration_minutes": {"type": "integer"},
                "email": {"type": "string"},
                "meeting_type_id": {"type": "string"},
                "name": {"type": "string"},
                "notes": {"type": "string"},
                "start_time": {"type": "string"}
            }
        },
        "dto.DisconnectResponse": {
            "type": "object",
            "properties": {
                "promoted_default": {"type": "string"},
                "removed": {"type": "string"}
            }
        },
        "dto.SaveConnectionRequest": {
            "type": "object",
            "properties": {
                "access_token": {"type": "string"},
                "account_id": {"type": "string"},
                "email": {"type": "string"},
                "expires_in": {"type": "integer"},
                "refresh_token": {"type": "string"}
            }
        },
        "dto.SlotResponse": {
            "type": "object",
            "properties": {
                "end": {"type": "string"},
                "start": {"type": "string"}
            }
        },
        "entity.PlanQuota": {
            "type": "object",
            "properties": {
                "is_exceeded": {"type": "boolean"},
                "limit": {"type": "integer"},
                "plan": {"type": "string"},
                "remaining": {"type": "integer"},
                "unlimited": {"type": "boolean"},
                "used": {"type": "integer"}
            }
        },
        "errors.AppError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "JWT Bearer token. Example: \"Bearer {token}\"",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:7070",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Booking API",
	Description:      "Booking availability and conflict engine",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Slag Field API",
        "description": "Bucket cooling lifecycle service for the slag yard",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Operator login"},
        {"name": "Places", "description": "Yard place catalog"},
        {"name": "Buckets", "description": "Slag bucket catalog"},
        {"name": "Materials", "description": "Materials and cooling profiles"},
        {"name": "SlagField", "description": "Place lifecycle operations"},
        {"name": "History", "description": "Audit log and exports"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate operator",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/places": {
            "get": {
                "tags": ["Places"],
                "summary": "List yard places",
                "parameters": [
                    {"name": "row", "in": "query", "type": "integer"},
                    {"name": "enabled", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Places"],
                "summary": "Create place",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PlaceRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Coordinates already taken"}
                }
            }
        },
        "/places/{id}": {
            "get": {
                "tags": ["Places"],
                "summary": "Get place",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["Places"],
                "summary": "Update place coordinates",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PlaceRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Places"],
                "summary": "Delete place",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/buckets": {
            "get": {
                "tags": ["Buckets"],
                "summary": "List buckets",
                "parameters": [
                    {"name": "include_deleted", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Buckets"],
                "summary": "Register bucket",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/NameRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/buckets/{id}": {
            "get": {
                "tags": ["Buckets"],
                "summary": "Get bucket",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["Buckets"],
                "summary": "Rename bucket",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/NameRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Buckets"],
                "summary": "Delete bucket",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "204": {"description": "Deleted"},
                    "409": {"description": "Bucket currently on the field"}
                }
            }
        },
        "/materials": {
            "get": {
                "tags": ["Materials"],
                "summary": "List materials",
                "parameters": [
                    {"name": "include_deleted", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Materials"],
                "summary": "Register material",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/NameRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/materials/{id}/cooling-stages": {
            "get": {
                "tags": ["Materials"],
                "summary": "Get cooling profile",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["Materials"],
                "summary": "Replace cooling profile",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CoolingProfileRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Profile violates contiguity invariants"}
                }
            }
        },
        "/slagfield/state": {
            "get": {
                "tags": ["SlagField"],
                "summary": "Full field state for the dashboard",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/slagfield/places/{id}/place-bucket": {
            "post": {
                "tags": ["SlagField"],
                "summary": "Place a bucket on a place",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PlaceBucketRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Place occupied or bucket already in use"}
                }
            }
        },
        "/slagfield/places/{id}/empty-bucket": {
            "post": {
                "tags": ["SlagField"],
                "summary": "Empty the bucket on a place",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EmptyBucketRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Cooling not finished"}
                }
            }
        },
        "/slagfield/places/{id}/remove-bucket": {
            "post": {
                "tags": ["SlagField"],
                "summary": "Remove the emptied bucket",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "204": {"description": "Removed"},
                    "409": {"description": "Bucket not emptied yet"}
                }
            }
        },
        "/slagfield/places/{id}/invalid": {
            "post": {
                "tags": ["SlagField"],
                "summary": "Invalidate the place state",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/InvalidateRequest"}}
                ],
                "responses": {"204": {"description": "Invalidated"}}
            }
        },
        "/slagfield/places/{id}/went-in-use": {
            "post": {
                "tags": ["SlagField"],
                "summary": "Put a place back in service",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Enabled"}}
            }
        },
        "/slagfield/places/{id}/out-of-use": {
            "post": {
                "tags": ["SlagField"],
                "summary": "Take a place out of service",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "204": {"description": "Disabled"},
                    "409": {"description": "Place still holds a bucket"}
                }
            }
        },
        "/slagfield/places/{id}/eligibility": {
            "get": {
                "tags": ["SlagField"],
                "summary": "Check whether the bucket may be emptied",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "at", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/slagfield/places/{id}/visual-stage": {
            "get": {
                "tags": ["SlagField"],
                "summary": "Current cooling classification",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "at", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/history": {
            "get": {
                "tags": ["History"],
                "summary": "List history records",
                "parameters": [
                    {"name": "action", "in": "query", "type": "string"},
                    {"name": "place_id", "in": "query", "type": "string"},
                    {"name": "from", "in": "query", "type": "string"},
                    {"name": "to", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/history/export": {
            "get": {
                "tags": ["History"],
                "summary": "Export history as CSV or PDF",
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "action", "in": "query", "type": "string"},
                    {"name": "place_id", "in": "query", "type": "string"},
                    {"name": "from", "in": "query", "type": "string"},
                    {"name": "to", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "File"}}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "NameRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"}
            }
        },
        "PlaceRequest": {
            "type": "object",
            "properties": {
                "row": {"type": "integer"},
                "number": {"type": "integer"}
            }
        },
        "PlaceBucketRequest": {
            "type": "object",
            "properties": {
                "bucket_id": {"type": "string"},
                "material_id": {"type": "string"},
                "start_date": {"type": "string", "format": "date-time"},
                "weight_grams": {"type": "integer"}
            }
        },
        "EmptyBucketRequest": {
            "type": "object",
            "properties": {
                "end_date": {"type": "string", "format": "date-time"}
            }
        },
        "InvalidateRequest": {
            "type": "object",
            "properties": {
                "reason": {"type": "string"}
            }
        },
        "CoolingProfileRequest": {
            "type": "object",
            "properties": {
                "stages": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/CoolingStage"}
                }
            }
        },
        "CoolingStage": {
            "type": "object",
            "properties": {
                "total_duration_minutes": {"type": "integer"},
                "visual_code": {"type": "string", "enum": ["Red", "Yellow", "Blue", "Green"]},
                "min_hours": {"type": "number"},
                "max_hours": {"type": "number"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
                "pagination": {"$ref": "#/definitions/Pagination"}
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

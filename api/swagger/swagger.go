package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Grant Match API",
        "description": "Student profiles, grant matching, applications and tryout deliverables",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "Bearer": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"Bearer": []}],
    "tags": [
        {"name": "Profile", "description": "Student profile and documents"},
        {"name": "Wizard", "description": "Multi-step profile wizard"},
        {"name": "Opportunities", "description": "Grant listings and bookmarks"},
        {"name": "Applications", "description": "Student applications"},
        {"name": "Tryout", "description": "Deliverable upload wizard"},
        {"name": "Review", "description": "Professor applicant queue"},
        {"name": "Dashboard", "description": "Student dashboard and mobility checklist"}
    ],
    "paths": {
        "/profile": {
            "get": {
                "tags": ["Profile"],
                "summary": "Get own profile with completeness",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["Profile"],
                "summary": "Create or update own profile",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ProfileDraft"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/profile/documents": {
            "get": {
                "tags": ["Profile"],
                "summary": "List own profile documents",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Profile"],
                "summary": "Upload a profile document",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "kind", "in": "formData", "required": true, "type": "string", "enum": ["transcript", "cv", "recommendation", "other"]},
                    {"name": "file", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/wizard/profile": {
            "get": {
                "tags": ["Wizard"],
                "summary": "Current profile wizard state",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/wizard/profile/next": {
            "post": {
                "tags": ["Wizard"],
                "summary": "Save the current step and advance",
                "parameters": [
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/ProfileDraft"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Missing or invalid fields", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Save failed, retry", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/wizard/profile/back": {
            "post": {
                "tags": ["Wizard"],
                "summary": "Save the current step and go back",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/wizard/profile/jump": {
            "post": {
                "tags": ["Wizard"],
                "summary": "Move to any step",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/JumpRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/opportunities": {
            "get": {
                "tags": ["Opportunities"],
                "summary": "List grants",
                "parameters": [
                    {"name": "q", "in": "query", "type": "string"},
                    {"name": "degree", "in": "query", "type": "array", "items": {"type": "string"}, "collectionFormat": "multi"},
                    {"name": "country", "in": "query", "type": "array", "items": {"type": "string"}, "collectionFormat": "multi"},
                    {"name": "field", "in": "query", "type": "array", "items": {"type": "string"}, "collectionFormat": "multi"},
                    {"name": "type", "in": "query", "type": "string"},
                    {"name": "featured", "in": "query", "type": "boolean"},
                    {"name": "open", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string"},
                    {"name": "order", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Opportunities"],
                "summary": "Post a grant",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/OpportunityRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/opportunities/saved": {
            "get": {
                "tags": ["Opportunities"],
                "summary": "List bookmarked grants",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/opportunities/{id}": {
            "get": {
                "tags": ["Opportunities"],
                "summary": "Grant detail with urgency and match score",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["Opportunities"],
                "summary": "Update a grant",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/OpportunityRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/opportunities/{id}/save": {
            "post": {
                "tags": ["Opportunities"],
                "summary": "Bookmark a grant",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "No Content"}}
            },
            "delete": {
                "tags": ["Opportunities"],
                "summary": "Remove a bookmark",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/opportunities/{id}/applications": {
            "post": {
                "tags": ["Applications"],
                "summary": "Start an application",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "Existing application", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/opportunities/{id}/applicants": {
            "get": {
                "tags": ["Review"],
                "summary": "Ranked applicants of a grant",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "q", "in": "query", "type": "string", "description": "Name, application id, origin, university, research interest or status"},
                    {"name": "status", "in": "query", "type": "array", "items": {"type": "string"}, "collectionFormat": "multi"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/opportunities/{id}/applicants/export": {
            "get": {
                "tags": ["Review"],
                "summary": "Export the ranked shortlist",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {"200": {"description": "File"}}
            }
        },
        "/profiles/search": {
            "get": {
                "tags": ["Profile"],
                "summary": "Search profiles by name or title",
                "parameters": [{"name": "q", "in": "query", "required": true, "type": "string", "minLength": 2}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/universities": {
            "get": {
                "tags": ["Opportunities"],
                "summary": "List universities",
                "parameters": [{"name": "q", "in": "query", "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/applications": {
            "get": {
                "tags": ["Applications"],
                "summary": "List own applications",
                "parameters": [
                    {"name": "status", "in": "query", "type": "array", "items": {"type": "string"}, "collectionFormat": "multi"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/applications/{id}": {
            "get": {
                "tags": ["Applications"],
                "summary": "Application detail",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/applications/{id}/submit": {
            "post": {
                "tags": ["Applications"],
                "summary": "Submit a draft application",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Not a draft", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/applications/{id}/review": {
            "post": {
                "tags": ["Review"],
                "summary": "Record a review decision",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReviewRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Decision is final", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/applications/{id}/tryout": {
            "get": {
                "tags": ["Tryout"],
                "summary": "Tryout submission state",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/applications/{id}/tryout/{kind}": {
            "put": {
                "tags": ["Tryout"],
                "summary": "Upload a deliverable",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "kind", "in": "path", "required": true, "type": "string", "enum": ["proposal", "video", "portfolio"]},
                    {"name": "file", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Tryout"],
                "summary": "Remove a deliverable",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "kind", "in": "path", "required": true, "type": "string", "enum": ["proposal", "video", "portfolio"]}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/applications/{id}/tryout/next": {
            "post": {
                "tags": ["Tryout"],
                "summary": "Advance the tryout wizard",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/applications/{id}/tryout/back": {
            "post": {
                "tags": ["Tryout"],
                "summary": "Go back one tryout step",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/applications/{id}/tryout/submit": {
            "post": {
                "tags": ["Tryout"],
                "summary": "Submit the tryout deliverables",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Proposal or video missing", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/dashboard": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Student dashboard",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/mobility": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Pre-departure checklist",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/files/{token}": {
            "get": {
                "tags": ["Files"],
                "summary": "Download an uploaded file",
                "security": [],
                "parameters": [{"name": "token", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "File"}, "403": {"description": "Link invalid or expired"}}
            }
        }
    },
    "definitions": {
        "ProfileDraft": {
            "type": "object",
            "properties": {
                "first_name": {"type": "string"},
                "last_name": {"type": "string"},
                "email": {"type": "string"},
                "phone": {"type": "string"},
                "nationality": {"type": "string"},
                "current_country": {"type": "string"},
                "current_city": {"type": "string"},
                "date_of_birth": {"type": "string", "format": "date"},
                "bio": {"type": "string"},
                "university_id": {"type": "string"},
                "degree_level": {"type": "string", "enum": ["bachelors", "masters", "phd"]},
                "field_of_study": {"type": "string"},
                "gpa": {"type": "number"},
                "gpa_scale": {"type": "number"},
                "graduation_year": {"type": "integer"},
                "gre_verbal": {"type": "integer"},
                "gre_quant": {"type": "integer"},
                "gre_writing": {"type": "number"},
                "toefl_score": {"type": "integer"},
                "research_interests": {"type": "string"}
            }
        },
        "JumpRequest": {
            "type": "object",
            "required": ["step"],
            "properties": {
                "step": {"type": "string", "enum": ["introduction", "personal", "academic", "research", "documents", "review"]}
            }
        },
        "OpportunityRequest": {
            "type": "object",
            "required": ["title", "type"],
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "type": {"type": "string", "enum": ["scholarship", "fellowship", "research_grant", "travel_grant"]},
                "university_id": {"type": "string"},
                "degree_levels": {"type": "array", "items": {"type": "string"}},
                "fields_of_study": {"type": "array", "items": {"type": "string"}},
                "eligible_countries": {"type": "array", "items": {"type": "string"}},
                "min_gpa": {"type": "number"},
                "funding_amount": {"type": "string"},
                "monthly_stipend": {"type": "string"},
                "covers_tuition": {"type": "boolean"},
                "covers_living": {"type": "boolean"},
                "deadline": {"type": "string", "format": "date-time"},
                "start_date": {"type": "string", "format": "date-time"},
                "duration_months": {"type": "integer"},
                "language": {"type": "string"},
                "application_url": {"type": "string"},
                "featured": {"type": "boolean"}
            }
        },
        "ReviewRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "status": {"type": "string", "enum": ["under_review", "shortlisted", "interview", "accepted", "rejected"]},
                "r_score": {"type": "number", "minimum": 0, "maximum": 100},
                "notes": {"type": "string"}
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
                "status": {"type": "integer"},
                "details": {"type": "object"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
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

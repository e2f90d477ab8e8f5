// Package docs registers the OpenAPI description served at /swagger.
package docs

import "github.com/swaggo/swag"

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
        "/ingest": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["ingestion"],
                "summary": "Ingest a document",
                "parameters": [{"description": "Request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.IngestRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.IngestResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/ingest/file": {
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["ingestion"],
                "summary": "Ingest an uploaded file",
                "parameters": [
                    {"type": "file", "description": "Document", "name": "file", "in": "formData", "required": true},
                    {"type": "string", "description": "Source label", "name": "source", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.IngestResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/documents/{id}": {
            "delete": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["ingestion"],
                "summary": "Delete a document",
                "parameters": [{"type": "string", "description": "Document ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.MessageResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/query": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["learning"],
                "summary": "Ask a question",
                "parameters": [{"description": "Request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.QueryRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.QueryResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/teach": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["learning"],
                "summary": "Socratic tutoring turn",
                "parameters": [{"description": "Request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.TeachRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.TeachingTurn"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/quiz/start": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["quiz"],
                "summary": "Start a quiz",
                "parameters": [{"description": "Request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.QuizStartRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.QuizStartResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/quiz/answer": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["quiz"],
                "summary": "Submit a quiz answer",
                "parameters": [{"description": "Request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.QuizAnswerRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.QuizAnswerResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/quiz/feedback/{quizId}/{questionId}": {
            "get": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["quiz"],
                "summary": "Get answer feedback",
                "parameters": [
                    {"type": "string", "description": "Quiz ID", "name": "quizId", "in": "path", "required": true},
                    {"type": "string", "description": "Question ID", "name": "questionId", "in": "path", "required": true},
                    {"type": "string", "description": "Quiz owner", "name": "user_id", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.AnswerFeedback"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/user/progress": {
            "get": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["quiz"],
                "summary": "Get learner progress",
                "parameters": [{"type": "string", "description": "Learner", "name": "user_id", "in": "query", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.ProgressResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/study/flashcards": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["study"],
                "summary": "Generate flash cards",
                "parameters": [{"description": "Request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.FlashCardRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.FlashCardSet"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/study/flashcards/evaluate": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["study"],
                "summary": "Grade a flash-card answer",
                "parameters": [{"description": "Request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.FlashCardAnswerRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.FlashCardEvaluation"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/study/flashcards/analyze": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["study"],
                "summary": "Analyse a flash-card session",
                "parameters": [{"description": "Request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.FlashCardSessionCompleteRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.SessionAnalysis"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/study/clinical-case": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["study"],
                "summary": "Generate a clinical case",
                "parameters": [{"description": "Request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.StudyRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.ClinicalCase"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/study/notes": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["study"],
                "summary": "Generate study notes",
                "parameters": [{"description": "Request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.StudyRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.StudyNotes"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/study/clinical/start": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["clinical"],
                "summary": "Start a clinical simulation",
                "parameters": [{"description": "Request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.ClinicalStartRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.ClinicalStart"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/study/clinical/interact": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["clinical"],
                "summary": "Send a message in a clinical simulation",
                "parameters": [{"description": "Request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.ClinicalInteractRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.ClinicalTurn"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "parameters": [],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.HealthStatus"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.AnswerFeedback": {"type": "object"},
        "domain.ClinicalCase": {"type": "object"},
        "domain.ClinicalTurn": {"type": "object"},
        "domain.FlashCardEvaluation": {"type": "object"},
        "domain.SessionAnalysis": {"type": "object"},
        "domain.StudyNotes": {"type": "object"},
        "domain.TeachingTurn": {"type": "object"},
        "dto.ClinicalInteractRequest": {"type": "object"},
        "dto.ClinicalStartRequest": {"type": "object"},
        "dto.FlashCardAnswerRequest": {"type": "object"},
        "dto.FlashCardRequest": {"type": "object"},
        "dto.FlashCardSessionCompleteRequest": {"type": "object"},
        "dto.IngestRequest": {"type": "object"},
        "dto.IngestResponse": {"type": "object"},
        "dto.MessageResponse": {"type": "object"},
        "dto.ProgressResponse": {"type": "object"},
        "dto.QueryRequest": {"type": "object"},
        "dto.QueryResponse": {"type": "object"},
        "dto.QuizAnswerRequest": {"type": "object"},
        "dto.QuizAnswerResponse": {"type": "object"},
        "dto.QuizStartRequest": {"type": "object"},
        "dto.QuizStartResponse": {"type": "object"},
        "dto.StudyRequest": {"type": "object"},
        "dto.TeachRequest": {"type": "object"},
        "middleware.ErrorResponse": {"type": "object"},
        "service.ClinicalStart": {"type": "object"},
        "service.FlashCardSet": {"type": "object"},
        "service.HealthStatus": {"type": "object"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8090",
	BasePath:         "/api",
	Schemes:          []string{"http", "https"},
	Title:            "NeuraBuddy API",
	Description:      "Retrieval-augmented neuroanatomy tutor: question answering, quizzes, study aids and clinical simulations.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

// Package docs is generated by swaggo/swag from the godoc annotations in internal/controller.
// Regenerate with: swag init -g cmd/main.go
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
        "/auth/login/student": {"post": {"tags": ["Auth"], "summary": "Student login", "responses": {"200": {"description": "OK"}, "401": {"description": "Invalid mobile number or batch code"}}}},
        "/auth/login/teacher": {"post": {"tags": ["Auth"], "summary": "Teacher login", "responses": {"200": {"description": "OK"}, "401": {"description": "Invalid credentials"}}}},
        "/auth/login/admin": {"post": {"tags": ["Auth"], "summary": "Admin login", "responses": {"200": {"description": "OK"}, "401": {"description": "Invalid credentials"}}}},
        "/auth/me": {"get": {"tags": ["Auth"], "summary": "Current user", "responses": {"200": {"description": "OK"}, "401": {"description": "Not authenticated"}}}},
        "/auth/logout": {"post": {"tags": ["Auth"], "summary": "Logout", "responses": {"200": {"description": "OK"}}}},
        "/admin/tests": {"post": {"tags": ["Admin - Tests"], "summary": "(Teacher/Admin) Create a test with its answer key", "responses": {"201": {"description": "Created"}, "400": {"description": "Invalid input data"}, "403": {"description": "Teacher or admin role required"}}}},
        "/admin/tests/generate-questions": {"post": {"tags": ["Admin - Tests"], "summary": "(Teacher/Admin) Draft questions with Gemini", "responses": {"200": {"description": "OK"}, "503": {"description": "Question generation unavailable"}}}},
        "/tests": {"get": {"tags": ["User - Tests & Attempts"], "summary": "List available tests", "responses": {"200": {"description": "OK"}}}},
        "/tests/{test_id}": {"get": {"tags": ["User - Tests & Attempts"], "summary": "Get a test with its questions", "parameters": [{"type": "string", "name": "test_id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Test not found"}}}},
        "/tests/{test_id}/attempts": {"post": {"tags": ["User - Tests & Attempts"], "summary": "(Student) Submit answers for an entire test", "parameters": [{"type": "string", "name": "test_id", "in": "path", "required": true}], "responses": {"201": {"description": "Created"}, "400": {"description": "Invalid input"}, "404": {"description": "Test not found"}}}},
        "/tests/{test_id}/leaderboard": {"get": {"tags": ["User - Tests & Attempts"], "summary": "Leaderboard of a test", "parameters": [{"type": "string", "name": "test_id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/tests/{test_id}/my-attempts": {"get": {"tags": ["User - Tests & Attempts"], "summary": "(Student) My attempts for a test", "parameters": [{"type": "string", "name": "test_id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/test-attempts/{attempt_id}": {"get": {"tags": ["User - Tests & Attempts"], "summary": "Graded attempt details", "parameters": [{"type": "string", "name": "attempt_id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "Attempt belongs to another student"}, "404": {"description": "Attempt not found"}}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "Vertical Studies Coaching API",
	Description:      "Tests, submissions, scoring and leaderboards for a coaching institute.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

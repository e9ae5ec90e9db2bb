package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "PageVault API",
        "description": "Web page archive: folders, captured pages, and signed content downloads",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Bearer token verification"},
        {"name": "Folders", "description": "Folder management with consistent cross-collection delete"},
        {"name": "Pages", "description": "Archived pages and their stored content"}
    ],
    "paths": {
        "/auth/check": {
            "get": {
                "tags": ["Auth"],
                "summary": "Verify the bearer token",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Token accepted"},
                    "401": {"description": "Token missing or invalid"}
                }
            }
        },
        "/folders/all": {
            "get": {
                "tags": ["Folders"],
                "summary": "List active folders",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}, "description": "OK"}
                }
            }
        },
        "/folders/create": {
            "post": {
                "tags": ["Folders"],
                "summary": "Create a folder",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateFolderRequest"}}
                ],
                "responses": {
                    "200": {"description": "Created"},
                    "400": {"description": "Name missing"}
                }
            }
        },
        "/folders/update": {
            "put": {
                "tags": ["Folders"],
                "summary": "Rename a folder",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateFolderRequest"}}
                ],
                "responses": {
                    "200": {"description": "Renamed"},
                    "400": {"description": "Folder missing or state inconsistent"}
                }
            }
        },
        "/folders/delete": {
            "delete": {
                "tags": ["Folders"],
                "summary": "Soft-delete a folder together with its active pages",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "query", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Deleted"},
                    "400": {"description": "Folder missing or delete left partial state"}
                }
            }
        },
        "/pages/create": {
            "post": {
                "tags": ["Pages"],
                "summary": "Archive a captured page",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SavePageRequest"}}
                ],
                "responses": {
                    "200": {"description": "Archived"},
                    "400": {"description": "Payload invalid or folder missing"}
                }
            }
        },
        "/pages/all": {
            "get": {
                "tags": ["Pages"],
                "summary": "List active pages in a folder",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "folderId", "in": "query", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"schema": {"$ref": "#/definitions/ResponseEnvelope"}, "description": "OK"}
                }
            }
        },
        "/pages/delete": {
            "delete": {
                "tags": ["Pages"],
                "summary": "Soft-delete a page",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "query", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Deleted"},
                    "400": {"description": "Page missing"}
                }
            }
        },
        "/pages/{id}/download-url": {
            "get": {
                "tags": ["Pages"],
                "summary": "Mint a signed, expiring content download link",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Signed URL"},
                    "400": {"description": "Page missing"}
                }
            }
        },
        "/pages/content/{id}": {
            "get": {
                "tags": ["Pages"],
                "summary": "Stream the archived page content",
                "produces": ["text/html"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "token", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Archived HTML"},
                    "401": {"description": "Token invalid or expired"}
                }
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
        "CreateFolderRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "name": {"type": "string"}
            }
        },
        "UpdateFolderRequest": {
            "type": "object",
            "required": ["id"],
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"}
            }
        },
        "SavePageRequest": {
            "type": "object",
            "required": ["title", "content", "pageUrl", "folderId"],
            "properties": {
                "title": {"type": "string"},
                "content": {"type": "string"},
                "pageUrl": {"type": "string"},
                "folderId": {"type": "integer"},
                "pageDesc": {"type": "string"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "success": {"type": "boolean"},
                "data": {"type": "object"},
                "msg": {"type": "string"}
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

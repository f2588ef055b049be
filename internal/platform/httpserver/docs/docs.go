// Package docs holds the registered OpenAPI document served under /swagger/.
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
        "/api/videos/upload": {
            "post": {
                "tags": [
                    "battle-engine"
                ],
                "summary": "Upload a video",
                "consumes": [
                    "multipart/form-data"
                ],
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "file",
                        "name": "video",
                        "in": "formData",
                        "required": true
                    },
                    {
                        "type": "string",
                        "name": "title",
                        "in": "formData",
                        "required": true
                    },
                    {
                        "type": "string",
                        "name": "description",
                        "in": "formData"
                    },
                    {
                        "type": "string",
                        "description": "Comma separated tags",
                        "name": "tags",
                        "in": "formData",
                        "required": true
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/httptransport.UploadVideoResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/httptransport.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/httptransport.ErrorResponse"
                        }
                    },
                    "413": {
                        "description": "Payload Too Large",
                        "schema": {
                            "$ref": "#/definitions/httptransport.ErrorResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/httptransport.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/api/videos/my-videos": {
            "get": {
                "tags": [
                    "battle-engine"
                ],
                "summary": "List the caller's videos",
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/httptransport.VideoDTO"
                            }
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/httptransport.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/api/videos/{video_id}": {
            "get": {
                "tags": [
                    "battle-engine"
                ],
                "summary": "Get one video",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "name": "video_id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/httptransport.GetVideoResponse"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/httptransport.ErrorResponse"
                        }
                    }
                }
            },
            "delete": {
                "tags": [
                    "battle-engine"
                ],
                "summary": "Soft delete an owned video",
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "name": "video_id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/httptransport.GetVideoResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/httptransport.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/httptransport.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/httptransport.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "Conflict",
                        "schema": {
                            "$ref": "#/definitions/httptransport.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/api/videos/{video_id}/views": {
            "post": {
                "tags": [
                    "battle-engine"
                ],
                "summary": "Count a view",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "name": "video_id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/httptransport.GetVideoResponse"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/httptransport.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/api/battles": {
            "post": {
                "tags": [
                    "battle-engine"
                ],
                "summary": "Open a battle between two videos",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/httptransport.CreateBattleRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/httptransport.CreateBattleResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/httptransport.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/httptransport.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/httptransport.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "Conflict",
                        "schema": {
                            "$ref": "#/definitions/httptransport.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/api/battles/active": {
            "get": {
                "tags": [
                    "battle-engine"
                ],
                "summary": "List votable battles",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/httptransport.ActiveBattleDTO"
                            }
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/httptransport.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/api/battles/{battle_id}": {
            "get": {
                "tags": [
                    "battle-engine"
                ],
                "summary": "Get one battle with both videos",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "name": "battle_id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/httptransport.GetBattleResponse"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/httptransport.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/api/votes/vote": {
            "post": {
                "tags": [
                    "battle-engine"
                ],
                "summary": "Vote in a battle",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "name": "Idempotency-Key",
                        "in": "header"
                    },
                    {
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/httptransport.CastVoteRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Replayed",
                        "schema": {
                            "$ref": "#/definitions/httptransport.CastVoteResponse"
                        }
                    },
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/httptransport.CastVoteResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/httptransport.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/httptransport.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/httptransport.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "Conflict",
                        "schema": {
                            "$ref": "#/definitions/httptransport.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/api/profile": {
            "get": {
                "tags": [
                    "battle-engine"
                ],
                "summary": "Get the caller's profile",
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/httptransport.ProfileResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/httptransport.ErrorResponse"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "httptransport.VideoDTO": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "ownerId": {
                    "type": "string"
                },
                "title": {
                    "type": "string"
                },
                "description": {
                    "type": "string"
                },
                "tags": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "url": {
                    "type": "string"
                },
                "uploadedAt": {
                    "type": "string"
                },
                "views": {
                    "type": "integer"
                },
                "votes": {
                    "type": "integer"
                },
                "status": {
                    "type": "string"
                }
            }
        },
        "httptransport.UploadVideoResponse": {
            "type": "object",
            "properties": {
                "message": {
                    "type": "string"
                },
                "video": {
                    "$ref": "#/definitions/httptransport.VideoDTO"
                }
            }
        },
        "httptransport.GetVideoResponse": {
            "type": "object",
            "properties": {
                "video": {
                    "$ref": "#/definitions/httptransport.VideoDTO"
                }
            }
        },
        "httptransport.CreateBattleRequest": {
            "type": "object",
            "properties": {
                "video1Id": {
                    "type": "string"
                },
                "video2Id": {
                    "type": "string"
                },
                "tag": {
                    "type": "string"
                }
            }
        },
        "httptransport.BattleVideoDTO": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "title": {
                    "type": "string"
                },
                "url": {
                    "type": "string"
                }
            }
        },
        "httptransport.BattleDTO": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "tag": {
                    "type": "string"
                },
                "video1": {
                    "$ref": "#/definitions/httptransport.BattleVideoDTO"
                },
                "video2": {
                    "$ref": "#/definitions/httptransport.BattleVideoDTO"
                },
                "video1Votes": {
                    "type": "integer"
                },
                "video2Votes": {
                    "type": "integer"
                },
                "startedAt": {
                    "type": "string"
                },
                "endsAt": {
                    "type": "string"
                },
                "endsInMs": {
                    "type": "integer"
                },
                "active": {
                    "type": "boolean"
                },
                "votable": {
                    "type": "boolean"
                },
                "winnerId": {
                    "type": "string"
                },
                "concludedAt": {
                    "type": "string"
                }
            }
        },
        "httptransport.CreateBattleResponse": {
            "type": "object",
            "properties": {
                "battle": {
                    "$ref": "#/definitions/httptransport.BattleDTO"
                }
            }
        },
        "httptransport.GetBattleResponse": {
            "type": "object",
            "properties": {
                "battle": {
                    "$ref": "#/definitions/httptransport.BattleDTO"
                }
            }
        },
        "httptransport.ActiveBattleDTO": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "tag": {
                    "type": "string"
                },
                "video1": {
                    "$ref": "#/definitions/httptransport.BattleVideoDTO"
                },
                "video2": {
                    "$ref": "#/definitions/httptransport.BattleVideoDTO"
                },
                "video1Votes": {
                    "type": "integer"
                },
                "video2Votes": {
                    "type": "integer"
                },
                "endsInMs": {
                    "type": "integer"
                },
                "startedAt": {
                    "type": "string"
                }
            }
        },
        "httptransport.CastVoteRequest": {
            "type": "object",
            "properties": {
                "battleId": {
                    "type": "string"
                },
                "votedFor": {
                    "type": "string"
                },
                "votedAgainst": {
                    "type": "string"
                }
            }
        },
        "httptransport.VoteDTO": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "battleId": {
                    "type": "string"
                },
                "voterId": {
                    "type": "string"
                },
                "votedFor": {
                    "type": "string"
                },
                "votedAgainst": {
                    "type": "string"
                },
                "votedAt": {
                    "type": "string"
                }
            }
        },
        "httptransport.CastVoteResponse": {
            "type": "object",
            "properties": {
                "message": {
                    "type": "string"
                },
                "vote": {
                    "$ref": "#/definitions/httptransport.VoteDTO"
                },
                "video1Votes": {
                    "type": "integer"
                },
                "video2Votes": {
                    "type": "integer"
                },
                "replayed": {
                    "type": "boolean"
                }
            }
        },
        "httptransport.ProfileVoteDTO": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "battleId": {
                    "type": "string"
                },
                "tag": {
                    "type": "string"
                },
                "votedFor": {
                    "type": "string"
                },
                "videoTitle": {
                    "type": "string"
                },
                "votedAt": {
                    "type": "string"
                },
                "endsInMs": {
                    "type": "integer"
                }
            }
        },
        "httptransport.ProfileResponse": {
            "type": "object",
            "properties": {
                "userId": {
                    "type": "string"
                },
                "username": {
                    "type": "string"
                },
                "videos": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/httptransport.VideoDTO"
                    }
                },
                "votes": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/httptransport.ProfileVoteDTO"
                    }
                }
            }
        },
        "httptransport.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
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
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Reel Rivals API",
	Description:      "Video battle pairing and voting.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

// Package docs holds the OpenAPI document served under /swagger. It follows
// the swag annotations on the handlers.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
	"schemes": {{ marshal .Schemes }},
	"swagger": "2.0",
	"info": {
		"description": "{{escape .Description}}",
		"title": "{{.Title}}",
		"termsOfService": "http://swagger.io/terms/",
		"contact": {},
		"version": "{{.Version}}"
	},
	"host": "{{.Host}}",
	"basePath": "{{.BasePath}}",
	"paths": {
		"/accounts": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"accounts"
				],
				"summary": "List accounts",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"responses": {
					"200": {
						"description": "Accounts with transaction counts",
						"schema": {
							"$ref": "#/definitions/handlers.SuccessResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			},
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"accounts"
				],
				"summary": "Create an account",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Request body",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handlers.CreateAccountRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "Account created",
						"schema": {
							"$ref": "#/definitions/handlers.SuccessResponse"
						}
					},
					"400": {
						"description": "Invalid input",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/accounts/{id}": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"accounts"
				],
				"summary": "Get an account",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"description": "Account ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "Account",
						"schema": {
							"$ref": "#/definitions/handlers.SuccessResponse"
						}
					},
					"404": {
						"description": "Account not found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			},
			"put": {
				"produces": [
					"application/json"
				],
				"tags": [
					"accounts"
				],
				"summary": "Update an account",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Account ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Request body",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handlers.UpdateAccountRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "Account updated",
						"schema": {
							"$ref": "#/definitions/handlers.SuccessResponse"
						}
					},
					"400": {
						"description": "Invalid input",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"404": {
						"description": "Account not found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			},
			"delete": {
				"produces": [
					"application/json"
				],
				"tags": [
					"accounts"
				],
				"summary": "Delete an account",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"description": "Account ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "Account deleted",
						"schema": {
							"$ref": "#/definitions/handlers.SuccessResponse"
						}
					},
					"404": {
						"description": "Account not found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/accounts/{id}/default": {
			"put": {
				"produces": [
					"application/json"
				],
				"tags": [
					"accounts"
				],
				"summary": "Make an account the default",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"description": "Account ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "Default account",
						"schema": {
							"$ref": "#/definitions/handlers.SuccessResponse"
						}
					},
					"404": {
						"description": "Account not found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/transactions": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"transactions"
				],
				"summary": "List transactions",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"description": "Filter by account",
						"name": "account_id",
						"in": "query"
					},
					{
						"type": "string",
						"description": "INCOME or EXPENSE",
						"name": "type",
						"in": "query"
					},
					{
						"type": "string",
						"description": "Filter by category",
						"name": "category",
						"in": "query"
					},
					{
						"type": "boolean",
						"description": "Filter recurring templates",
						"name": "is_recurring",
						"in": "query"
					},
					{
						"type": "string",
						"description": "Filter by start date (RFC3339 or YYYY-MM-DD)",
						"name": "from_date",
						"in": "query"
					},
					{
						"type": "string",
						"description": "Filter by end date (RFC3339 or YYYY-MM-DD)",
						"name": "to_date",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "Page number",
						"name": "page",
						"in": "query"
					},
					{
						"type": "integer",
						"description": "Page size",
						"name": "page_size",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "Page of transactions",
						"schema": {
							"$ref": "#/definitions/handlers.SuccessResponse"
						}
					},
					"400": {
						"description": "Invalid filter",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			},
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"transactions"
				],
				"summary": "Create a transaction",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Request body",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handlers.TransactionRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "Transaction created",
						"schema": {
							"$ref": "#/definitions/handlers.SuccessResponse"
						}
					},
					"400": {
						"description": "Invalid input",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"404": {
						"description": "Account not found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/transactions/bulk-delete": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"transactions"
				],
				"summary": "Delete several transactions",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Request body",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handlers.BulkDeleteRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "Deleted count",
						"schema": {
							"$ref": "#/definitions/handlers.SuccessResponse"
						}
					},
					"400": {
						"description": "Invalid input",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/transactions/scan-receipt": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"transactions"
				],
				"summary": "Scan a receipt",
				"description": "Upload a receipt image (max 5MB). Returns a draft; nothing is saved.",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"multipart/form-data"
				],
				"parameters": [
					{
						"type": "file",
						"description": "Receipt image",
						"name": "file",
						"in": "formData",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "Extracted draft",
						"schema": {
							"$ref": "#/definitions/handlers.SuccessResponse"
						}
					},
					"400": {
						"description": "Invalid upload",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"422": {
						"description": "Not a receipt",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"502": {
						"description": "Scan failed",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/transactions/{id}": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"transactions"
				],
				"summary": "Get a transaction",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"description": "Transaction ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "Transaction",
						"schema": {
							"$ref": "#/definitions/handlers.SuccessResponse"
						}
					},
					"404": {
						"description": "Transaction not found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			},
			"put": {
				"produces": [
					"application/json"
				],
				"tags": [
					"transactions"
				],
				"summary": "Update a transaction",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Transaction ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Request body",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handlers.TransactionRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "Transaction updated",
						"schema": {
							"$ref": "#/definitions/handlers.SuccessResponse"
						}
					},
					"400": {
						"description": "Invalid input",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"404": {
						"description": "Transaction not found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			},
			"delete": {
				"produces": [
					"application/json"
				],
				"tags": [
					"transactions"
				],
				"summary": "Delete a transaction",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"description": "Transaction ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "Transaction deleted",
						"schema": {
							"$ref": "#/definitions/handlers.SuccessResponse"
						}
					},
					"404": {
						"description": "Transaction not found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/goals": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"goals"
				],
				"summary": "List goals",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"responses": {
					"200": {
						"description": "Goals",
						"schema": {
							"$ref": "#/definitions/handlers.SuccessResponse"
						}
					}
				}
			},
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"goals"
				],
				"summary": "Create a goal",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Request body",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handlers.CreateGoalRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "Goal created",
						"schema": {
							"$ref": "#/definitions/handlers.SuccessResponse"
						}
					},
					"400": {
						"description": "Invalid input",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/goals/{id}": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"goals"
				],
				"summary": "Get a goal",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"description": "Goal ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "Goal",
						"schema": {
							"$ref": "#/definitions/handlers.SuccessResponse"
						}
					},
					"404": {
						"description": "Goal not found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			},
			"put": {
				"produces": [
					"application/json"
				],
				"tags": [
					"goals"
				],
				"summary": "Update a goal",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Goal ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Request body",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handlers.UpdateGoalRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "Goal updated",
						"schema": {
							"$ref": "#/definitions/handlers.SuccessResponse"
						}
					},
					"400": {
						"description": "Invalid input",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"404": {
						"description": "Goal not found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			},
			"delete": {
				"produces": [
					"application/json"
				],
				"tags": [
					"goals"
				],
				"summary": "Delete a goal",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"description": "Goal ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "Goal deleted",
						"schema": {
							"$ref": "#/definitions/handlers.SuccessResponse"
						}
					},
					"404": {
						"description": "Goal not found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/goals/{id}/add-money": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"goals"
				],
				"summary": "Add money to a goal",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Goal ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Request body",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handlers.AddMoneyRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "Goal after deposit",
						"schema": {
							"$ref": "#/definitions/handlers.SuccessResponse"
						}
					},
					"400": {
						"description": "Invalid input",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"404": {
						"description": "Goal not found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/conversations": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"conversations"
				],
				"summary": "List conversations",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"responses": {
					"200": {
						"description": "Conversations",
						"schema": {
							"$ref": "#/definitions/handlers.SuccessResponse"
						}
					}
				}
			},
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"conversations"
				],
				"summary": "Create a conversation",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Request body",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handlers.CreateConversationRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "Conversation created",
						"schema": {
							"$ref": "#/definitions/handlers.SuccessResponse"
						}
					},
					"400": {
						"description": "Invalid input",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			},
			"delete": {
				"produces": [
					"application/json"
				],
				"tags": [
					"conversations"
				],
				"summary": "Clear all conversations",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"responses": {
					"200": {
						"description": "Deleted count",
						"schema": {
							"$ref": "#/definitions/handlers.SuccessResponse"
						}
					}
				}
			}
		},
		"/conversations/{id}": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"conversations"
				],
				"summary": "Get a conversation",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"description": "Conversation ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "Conversation with messages",
						"schema": {
							"$ref": "#/definitions/handlers.SuccessResponse"
						}
					},
					"404": {
						"description": "Conversation not found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			},
			"put": {
				"produces": [
					"application/json"
				],
				"tags": [
					"conversations"
				],
				"summary": "Replace conversation messages",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Conversation ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "Request body",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handlers.ReplaceMessagesRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "Conversation",
						"schema": {
							"$ref": "#/definitions/handlers.SuccessResponse"
						}
					},
					"400": {
						"description": "Invalid input",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"404": {
						"description": "Conversation not found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			},
			"delete": {
				"produces": [
					"application/json"
				],
				"tags": [
					"conversations"
				],
				"summary": "Delete a conversation",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"description": "Conversation ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "Conversation deleted",
						"schema": {
							"$ref": "#/definitions/handlers.SuccessResponse"
						}
					},
					"404": {
						"description": "Conversation not found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/chat": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"chat"
				],
				"summary": "Chat with the assistant",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Request body",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handlers.SendMessageRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "Transcript with reply",
						"schema": {
							"$ref": "#/definitions/handlers.SuccessResponse"
						}
					},
					"400": {
						"description": "Invalid input",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"404": {
						"description": "Conversation not found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/dashboard": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"dashboard"
				],
				"summary": "Get the financial summary",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"responses": {
					"200": {
						"description": "Summary",
						"schema": {
							"$ref": "#/definitions/handlers.SuccessResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/profile": {
			"get": {
				"produces": [
					"application/json"
				],
				"tags": [
					"auth"
				],
				"summary": "Get the current user",
				"security": [
					{
						"BearerAuth": []
					}
				],
				"responses": {
					"200": {
						"description": "User",
						"schema": {
							"$ref": "#/definitions/handlers.SuccessResponse"
						}
					},
					"401": {
						"description": "Unauthorized",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"404": {
						"description": "User not found",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		},
		"/pipeline/recurring/process": {
			"post": {
				"produces": [
					"application/json"
				],
				"tags": [
					"pipeline"
				],
				"summary": "Process recurring transactions",
				"description": "Runs one inline pass of the recurring processor",
				"parameters": [
					{
						"type": "string",
						"description": "Pipeline API key",
						"name": "X-API-Key",
						"in": "header",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "Run summary",
						"schema": {
							"$ref": "#/definitions/handlers.SuccessResponse"
						}
					},
					"401": {
						"description": "Invalid API key",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					},
					"503": {
						"description": "Pipeline not configured",
						"schema": {
							"$ref": "#/definitions/handlers.ErrorResponse"
						}
					}
				}
			}
		}
	},
	"definitions": {
		"handlers.SuccessResponse": {
			"type": "object",
			"properties": {
				"success": {
					"type": "boolean",
					"example": true
				},
				"data": {}
			}
		},
		"handlers.ErrorDetail": {
			"type": "object",
			"properties": {
				"code": {
					"type": "string",
					"example": "INVALID_INPUT"
				},
				"message": {
					"type": "string",
					"example": "Invalid input"
				}
			}
		},
		"handlers.ErrorResponse": {
			"type": "object",
			"properties": {
				"success": {
					"type": "boolean",
					"example": false
				},
				"error": {
					"$ref": "#/definitions/handlers.ErrorDetail"
				}
			}
		},
		"handlers.CreateAccountRequest": {
			"type": "object",
			"required": [
				"name",
				"type"
			],
			"properties": {
				"name": {
					"type": "string",
					"example": "Everyday"
				},
				"type": {
					"type": "string",
					"example": "CURRENT"
				},
				"initial_balance": {
					"type": "string",
					"example": "250.00"
				},
				"is_default": {
					"type": "boolean"
				}
			}
		},
		"handlers.UpdateAccountRequest": {
			"type": "object",
			"properties": {
				"name": {
					"type": "string"
				},
				"type": {
					"type": "string"
				}
			}
		},
		"handlers.TransactionRequest": {
			"type": "object",
			"required": [
				"account_id",
				"category",
				"type"
			],
			"properties": {
				"account_id": {
					"type": "string"
				},
				"type": {
					"type": "string",
					"example": "EXPENSE"
				},
				"amount": {
					"type": "string",
					"example": "42.50"
				},
				"description": {
					"type": "string"
				},
				"date": {
					"type": "string",
					"example": "2024-03-01"
				},
				"category": {
					"type": "string",
					"example": "groceries"
				},
				"receipt_url": {
					"type": "string"
				},
				"is_recurring": {
					"type": "boolean"
				},
				"recurring_interval": {
					"type": "string",
					"example": "MONTHLY"
				}
			}
		},
		"handlers.BulkDeleteRequest": {
			"type": "object",
			"required": [
				"ids"
			],
			"properties": {
				"ids": {
					"type": "array",
					"items": {
						"type": "string"
					}
				}
			}
		},
		"handlers.CreateGoalRequest": {
			"type": "object",
			"required": [
				"title"
			],
			"properties": {
				"title": {
					"type": "string",
					"example": "Bike"
				},
				"target_amount": {
					"type": "string",
					"example": "1000.00"
				},
				"saved_amount": {
					"type": "string",
					"example": "0"
				}
			}
		},
		"handlers.UpdateGoalRequest": {
			"type": "object",
			"properties": {
				"title": {
					"type": "string"
				},
				"target_amount": {
					"type": "string"
				},
				"saved_amount": {
					"type": "string"
				}
			}
		},
		"handlers.AddMoneyRequest": {
			"type": "object",
			"properties": {
				"amount": {
					"type": "string",
					"example": "25.00"
				}
			}
		},
		"handlers.MessageInput": {
			"type": "object",
			"required": [
				"content",
				"role"
			],
			"properties": {
				"content": {
					"type": "string"
				},
				"role": {
					"type": "string",
					"example": "user"
				},
				"timestamp": {
					"type": "string",
					"example": "2024-05-01T10:00:00Z"
				}
			}
		},
		"handlers.CreateConversationRequest": {
			"type": "object",
			"properties": {
				"title": {
					"type": "string"
				},
				"messages": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/handlers.MessageInput"
					}
				}
			}
		},
		"handlers.ReplaceMessagesRequest": {
			"type": "object",
			"required": [
				"messages"
			],
			"properties": {
				"messages": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/handlers.MessageInput"
					}
				}
			}
		},
		"handlers.SendMessageRequest": {
			"type": "object",
			"required": [
				"message"
			],
			"properties": {
				"conversation_id": {
					"type": "string"
				},
				"message": {
					"type": "string",
					"example": "How much did I spend last month?"
				},
				"history": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/handlers.MessageInput"
					}
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
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "FinGuy API",
	Description:      "FinGuy is a personal finance assistant: accounts, transactions, savings goals and an AI chat that knows your numbers.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

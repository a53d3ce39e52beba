// Package docs registers the OpenAPI description with swag. Regenerate with
// swag init -g cmd/server/main.go after changing handler annotations.
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
        "/sync/offender-transactions": {
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Sync"
                ],
                "summary": "Sync offender transaction",
                "parameters": [
                    {
                        "description": "Legacy offender transaction",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/models.OffenderTransactionRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/models.SyncResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/services.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/services.ErrorResponse"
                        }
                    },
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/models.SyncResponse"
                        }
                    }
                },
                "description": "Posts a legacy prisoner transaction. Replays answer PROCESSED, changed bodies for a known transaction answer UPDATED",
                "consumes": [
                    "application/json"
                ]
            }
        },
        "/sync/general-ledger-transactions": {
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Sync"
                ],
                "summary": "Sync general ledger transaction",
                "parameters": [
                    {
                        "description": "Legacy general ledger transaction",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/models.GeneralLedgerTransactionRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/models.SyncResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/services.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/services.ErrorResponse"
                        }
                    },
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/models.SyncResponse"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ]
            }
        },
        "/migrate/prisoner-balances/{prisonNumber}": {
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Migration"
                ],
                "summary": "Migrate prisoner balances",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Prisoner number",
                        "name": "prisonNumber",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Legacy balances",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/models.PrisonerBalancesRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/models.MigrationResult"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/services.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/services.ErrorResponse"
                        }
                    },
                    "502": {
                        "description": "Bad Gateway",
                        "schema": {
                            "$ref": "#/definitions/services.ErrorResponse"
                        }
                    }
                },
                "description": "Adjusts local balances to the legacy figures with opening balance postings and pushes statement balances to the general ledger",
                "consumes": [
                    "application/json"
                ]
            }
        },
        "/migrate/general-ledger-balances/{prisonId}": {
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Migration"
                ],
                "summary": "Migrate general ledger balances",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Prison id",
                        "name": "prisonId",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Legacy balances",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/models.GeneralLedgerBalancesRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/models.MigrationResult"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/services.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/services.ErrorResponse"
                        }
                    },
                    "502": {
                        "description": "Bad Gateway",
                        "schema": {
                            "$ref": "#/definitions/services.ErrorResponse"
                        }
                    }
                },
                "consumes": [
                    "application/json"
                ]
            }
        },
        "/reconcile/prisoners/{prisonNumber}": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Reconciliation"
                ],
                "summary": "Prisoner balances",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Prisoner number",
                        "name": "prisonNumber",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/models.EstablishmentBalance"
                            }
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/services.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/services.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/reconcile/prisoners/{prisonNumber}/general-ledger": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Reconciliation"
                ],
                "summary": "Prisoner general ledger comparison",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Prisoner number",
                        "name": "prisonNumber",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/models.ReconciliationReport"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/services.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/services.ErrorResponse"
                        }
                    },
                    "502": {
                        "description": "Bad Gateway",
                        "schema": {
                            "$ref": "#/definitions/services.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/reconcile/prisons/{prisonId}": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Reconciliation"
                ],
                "summary": "Prison balances",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Prison id",
                        "name": "prisonId",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/models.AccountBalance"
                            }
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/services.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/services.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/reconcile/prisons/{prisonId}/general-ledger": {
            "get": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Reconciliation"
                ],
                "summary": "Prison general ledger comparison",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Prison id",
                        "name": "prisonId",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/models.PrisonReconciliationReport"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/services.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/services.ErrorResponse"
                        }
                    },
                    "502": {
                        "description": "Bad Gateway",
                        "schema": {
                            "$ref": "#/definitions/services.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/merge": {
            "post": {
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "Merge"
                ],
                "summary": "Merge prisoner accounts",
                "parameters": [
                    {
                        "description": "Merge request",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/models.MergeRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/models.MergeResult"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/services.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/services.ErrorResponse"
                        }
                    }
                },
                "description": "Operator-triggered merge, identical to handling a prisoner.merged event. Safe to repeat",
                "consumes": [
                    "application/json"
                ]
            }
        }
    },
    "definitions": {
        "services.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "string"
                },
                "details": {
                    "type": "object",
                    "additionalProperties": {
                        "type": "string"
                    }
                }
            }
        },
        "models.GeneralLedgerEntry": {
            "type": "object",
            "properties": {
                "entrySequence": {
                    "type": "integer"
                },
                "code": {
                    "type": "integer"
                },
                "postingType": {
                    "type": "string",
                    "enum": [
                        "DR",
                        "CR"
                    ]
                },
                "amount": {
                    "type": "number"
                }
            },
            "required": [
                "code",
                "postingType"
            ]
        },
        "models.OffenderTransaction": {
            "type": "object",
            "properties": {
                "entrySequence": {
                    "type": "integer"
                },
                "offenderId": {
                    "type": "integer"
                },
                "offenderDisplayId": {
                    "type": "string"
                },
                "offenderBookingId": {
                    "type": "integer"
                },
                "subAccountType": {
                    "type": "string",
                    "enum": [
                        "REG",
                        "SPND",
                        "SAV"
                    ]
                },
                "postingType": {
                    "type": "string",
                    "enum": [
                        "DR",
                        "CR"
                    ]
                },
                "type": {
                    "type": "string"
                },
                "description": {
                    "type": "string"
                },
                "amount": {
                    "type": "number"
                },
                "reference": {
                    "type": "string"
                },
                "generalLedgerEntries": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/models.GeneralLedgerEntry"
                    }
                }
            },
            "required": [
                "offenderDisplayId",
                "subAccountType",
                "postingType",
                "type"
            ]
        },
        "models.OffenderTransactionRequest": {
            "type": "object",
            "properties": {
                "transactionId": {
                    "type": "integer"
                },
                "requestId": {
                    "type": "string"
                },
                "caseloadId": {
                    "type": "string"
                },
                "transactionTimestamp": {
                    "type": "string"
                },
                "createdAt": {
                    "type": "string"
                },
                "createdBy": {
                    "type": "string"
                },
                "createdByDisplayName": {
                    "type": "string"
                },
                "lastModifiedAt": {
                    "type": "string"
                },
                "lastModifiedBy": {
                    "type": "string"
                },
                "lastModifiedByDisplayName": {
                    "type": "string"
                },
                "offenderTransactions": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/models.OffenderTransaction"
                    }
                }
            },
            "required": [
                "transactionId",
                "requestId",
                "caseloadId",
                "createdBy",
                "offenderTransactions"
            ]
        },
        "models.GeneralLedgerTransactionRequest": {
            "type": "object",
            "properties": {
                "transactionId": {
                    "type": "integer"
                },
                "requestId": {
                    "type": "string"
                },
                "description": {
                    "type": "string"
                },
                "reference": {
                    "type": "string"
                },
                "caseloadId": {
                    "type": "string"
                },
                "transactionType": {
                    "type": "string"
                },
                "transactionTimestamp": {
                    "type": "string"
                },
                "createdAt": {
                    "type": "string"
                },
                "createdBy": {
                    "type": "string"
                },
                "createdByDisplayName": {
                    "type": "string"
                },
                "lastModifiedAt": {
                    "type": "string"
                },
                "lastModifiedBy": {
                    "type": "string"
                },
                "lastModifiedByDisplayName": {
                    "type": "string"
                },
                "generalLedgerEntries": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/models.GeneralLedgerEntry"
                    }
                }
            },
            "required": [
                "transactionId",
                "requestId",
                "caseloadId",
                "transactionType",
                "createdBy",
                "generalLedgerEntries"
            ]
        },
        "models.SyncResponse": {
            "type": "object",
            "properties": {
                "synchronizedTransactionId": {
                    "type": "string"
                },
                "action": {
                    "type": "string",
                    "enum": [
                        "CREATED",
                        "UPDATED",
                        "PROCESSED"
                    ]
                }
            }
        },
        "models.PrisonerAccountBalance": {
            "type": "object",
            "properties": {
                "prisonId": {
                    "type": "string"
                },
                "accountCode": {
                    "type": "integer"
                },
                "balance": {
                    "type": "number"
                },
                "holdBalance": {
                    "type": "number"
                },
                "asOfTimestamp": {
                    "type": "string"
                },
                "transactionId": {
                    "type": "integer"
                }
            },
            "required": [
                "prisonId",
                "accountCode"
            ]
        },
        "models.PrisonerBalancesRequest": {
            "type": "object",
            "properties": {
                "accountBalances": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/models.PrisonerAccountBalance"
                    }
                }
            },
            "required": [
                "accountBalances"
            ]
        },
        "models.GeneralLedgerAccountBalance": {
            "type": "object",
            "properties": {
                "accountCode": {
                    "type": "integer"
                },
                "balance": {
                    "type": "number"
                },
                "asOfTimestamp": {
                    "type": "string"
                }
            },
            "required": [
                "accountCode"
            ]
        },
        "models.GeneralLedgerBalancesRequest": {
            "type": "object",
            "properties": {
                "accountBalances": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/models.GeneralLedgerAccountBalance"
                    }
                }
            },
            "required": [
                "accountBalances"
            ]
        },
        "models.MigrationResult": {
            "type": "object",
            "properties": {
                "ownerId": {
                    "type": "string"
                },
                "localPostings": {
                    "type": "integer"
                },
                "remotePostings": {
                    "type": "integer"
                },
                "subAccountsSeen": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                }
            }
        },
        "models.EstablishmentBalance": {
            "type": "object",
            "properties": {
                "prisonId": {
                    "type": "string"
                },
                "accountCode": {
                    "type": "integer"
                },
                "totalBalance": {
                    "type": "number"
                },
                "holdBalance": {
                    "type": "number"
                }
            }
        },
        "models.AccountBalance": {
            "type": "object",
            "properties": {
                "accountCode": {
                    "type": "integer"
                },
                "name": {
                    "type": "string"
                },
                "subAccountType": {
                    "type": "string"
                },
                "balance": {
                    "type": "number"
                }
            }
        },
        "models.ReconciliationLine": {
            "type": "object",
            "properties": {
                "subAccountReference": {
                    "type": "string"
                },
                "localBalance": {
                    "type": "integer"
                },
                "remoteBalance": {
                    "type": "integer"
                },
                "discrepancy": {
                    "type": "integer"
                }
            }
        },
        "models.ReconciliationReport": {
            "type": "object",
            "properties": {
                "prisonerNumber": {
                    "type": "string"
                },
                "balanced": {
                    "type": "boolean"
                },
                "lines": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/models.ReconciliationLine"
                    }
                }
            }
        },
        "models.PrisonReconciliationReport": {
            "type": "object",
            "properties": {
                "prisonId": {
                    "type": "string"
                },
                "balanced": {
                    "type": "boolean"
                },
                "lines": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/models.ReconciliationLine"
                    }
                }
            }
        },
        "models.MergeRequest": {
            "type": "object",
            "properties": {
                "survivingPrisonerNumber": {
                    "type": "string"
                },
                "removedPrisonerNumber": {
                    "type": "string"
                }
            },
            "required": [
                "survivingPrisonerNumber",
                "removedPrisonerNumber"
            ]
        },
        "models.MergeResult": {
            "type": "object",
            "properties": {
                "movedEntries": {
                    "type": "integer"
                },
                "reassignedAccounts": {
                    "type": "integer"
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
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Prisoner Finance Ledger Sync API",
	Description:      "Synchronises legacy prison finance transactions into the prisoner ledger",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

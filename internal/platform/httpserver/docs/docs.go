// Package docs serves the swagger document for the offer API.
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
        "/healthz": {
            "get": {"produces": ["application/json"], "tags": ["ops"], "summary": "Liveness probe", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/offers": {
            "get": {
                "produces": ["application/json"],
                "tags": ["offers"],
                "summary": "List offers",
                "parameters": [
                    {"type": "string", "name": "title", "in": "query"},
                    {"type": "integer", "name": "skip", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/OfferListResponse"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["offers"],
                "summary": "Create offer",
                "parameters": [
                    {"type": "string", "name": "Idempotency-Key", "in": "header", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateOfferRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/OfferResponse"}},
                    "200": {"description": "Replayed", "schema": {"$ref": "#/definitions/OfferResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/api/v1/offers/{offer_id}": {
            "get": {
                "produces": ["application/json"], "tags": ["offers"], "summary": "Get offer",
                "parameters": [{"type": "string", "name": "offer_id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/OfferResponse"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}}
            },
            "put": {
                "consumes": ["application/json"], "produces": ["application/json"], "tags": ["offers"], "summary": "Partially update offer",
                "parameters": [
                    {"type": "string", "name": "offer_id", "in": "path", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateOfferRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/OfferResponse"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}}
            },
            "delete": {
                "tags": ["offers"], "summary": "Delete offer and its custom payouts",
                "parameters": [{"type": "string", "name": "offer_id", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}}
            }
        },
        "/api/v1/offers/{offer_id}/custom-payouts/{influencer_id}": {
            "put": {
                "consumes": ["application/json"], "produces": ["application/json"], "tags": ["custom-payouts"], "summary": "Assign custom payout",
                "parameters": [
                    {"type": "string", "name": "offer_id", "in": "path", "required": true},
                    {"type": "string", "name": "influencer_id", "in": "path", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/Payout"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/CustomPayoutResponse"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}}
            },
            "delete": {
                "tags": ["custom-payouts"], "summary": "Remove custom payout",
                "parameters": [
                    {"type": "string", "name": "offer_id", "in": "path", "required": true},
                    {"type": "string", "name": "influencer_id", "in": "path", "required": true}
                ],
                "responses": {"204": {"description": "No Content"}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}}
            }
        },
        "/api/v1/offers/influencer/{influencer_id}": {
            "get": {
                "produces": ["application/json"], "tags": ["influencer-offers"], "summary": "List offers with resolved payouts for an influencer",
                "parameters": [
                    {"type": "string", "name": "influencer_id", "in": "path", "required": true},
                    {"type": "string", "name": "title", "in": "query"},
                    {"type": "integer", "name": "skip", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/InfluencerOfferListResponse"}}, "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/ErrorResponse"}}}
            }
        },
        "/api/v1/offers/{offer_id}/influencers/{influencer_id}": {
            "get": {
                "produces": ["application/json"], "tags": ["influencer-offers"], "summary": "Get one offer with the resolved payout for an influencer",
                "parameters": [
                    {"type": "string", "name": "offer_id", "in": "path", "required": true},
                    {"type": "string", "name": "influencer_id", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/InfluencerOfferResponse"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}, "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/ErrorResponse"}}}
            }
        },
        "/api/v1/influencers": {
            "get": {
                "produces": ["application/json"], "tags": ["influencers"], "summary": "List influencers",
                "parameters": [{"type": "integer", "name": "skip", "in": "query"}, {"type": "integer", "name": "limit", "in": "query"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/InfluencerListResponse"}}}
            },
            "post": {
                "consumes": ["application/json"], "produces": ["application/json"], "tags": ["influencers"], "summary": "Create influencer",
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateInfluencerRequest"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/InfluencerResponse"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ErrorResponse"}}}
            }
        },
        "/api/v1/influencers/{influencer_id}": {
            "get": {
                "produces": ["application/json"], "tags": ["influencers"], "summary": "Get influencer",
                "parameters": [{"type": "string", "name": "influencer_id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/InfluencerResponse"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}}
            }
        }
    },
    "definitions": {
        "ErrorResponse": {"type": "object", "properties": {"code": {"type": "string"}, "message": {"type": "string"}}},
        "CountryOverride": {"type": "object", "properties": {"country_code": {"type": "string"}, "cpa_amount": {"type": "string"}}},
        "Payout": {
            "type": "object",
            "properties": {
                "payout_type": {"type": "string", "enum": ["CPA", "FIXED", "CPA_PLUS_FIXED"]},
                "cpa_amount": {"type": "string"},
                "fixed_amount": {"type": "string"},
                "country_overrides": {"type": "array", "items": {"$ref": "#/definitions/CountryOverride"}}
            }
        },
        "CreateOfferRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "categories": {"type": "array", "items": {"type": "string"}},
                "payout": {"$ref": "#/definitions/Payout"}
            }
        },
        "UpdateOfferRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "categories": {"type": "array", "items": {"type": "string"}},
                "payout": {"$ref": "#/definitions/Payout"}
            }
        },
        "Offer": {
            "type": "object",
            "properties": {
                "offer_id": {"type": "string"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "categories": {"type": "array", "items": {"type": "string"}},
                "payout": {"$ref": "#/definitions/Payout"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "OfferResponse": {"type": "object", "properties": {"status": {"type": "string"}, "replayed": {"type": "boolean"}, "data": {"$ref": "#/definitions/Offer"}}},
        "OfferListResponse": {"type": "object", "properties": {"status": {"type": "string"}, "total": {"type": "integer"}, "data": {"type": "array", "items": {"$ref": "#/definitions/Offer"}}}},
        "CreateInfluencerRequest": {"type": "object", "properties": {"name": {"type": "string"}, "email": {"type": "string"}}},
        "Influencer": {
            "type": "object",
            "properties": {
                "influencer_id": {"type": "string"},
                "name": {"type": "string"},
                "email": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "InfluencerResponse": {"type": "object", "properties": {"status": {"type": "string"}, "data": {"$ref": "#/definitions/Influencer"}}},
        "InfluencerListResponse": {"type": "object", "properties": {"status": {"type": "string"}, "total": {"type": "integer"}, "data": {"type": "array", "items": {"$ref": "#/definitions/Influencer"}}}},
        "CustomPayout": {
            "type": "object",
            "properties": {
                "offer_id": {"type": "string"},
                "influencer_id": {"type": "string"},
                "payout": {"$ref": "#/definitions/Payout"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "CustomPayoutResponse": {"type": "object", "properties": {"status": {"type": "string"}, "data": {"$ref": "#/definitions/CustomPayout"}}},
        "PayoutInfo": {
            "type": "object",
            "properties": {
                "payout_type": {"type": "string"},
                "label": {"type": "string"},
                "display_text": {"type": "string"},
                "cpa_low": {"type": "string"},
                "cpa_high": {"type": "string"},
                "fixed_amount": {"type": "string"},
                "min_amount": {"type": "string"},
                "max_amount": {"type": "string"},
                "is_custom_payout": {"type": "boolean"}
            }
        },
        "InfluencerOffer": {
            "type": "object",
            "properties": {
                "offer_id": {"type": "string"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "categories": {"type": "array", "items": {"type": "string"}},
                "payout_info": {"$ref": "#/definitions/PayoutInfo"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "InfluencerOfferResponse": {"type": "object", "properties": {"status": {"type": "string"}, "data": {"$ref": "#/definitions/InfluencerOffer"}}},
        "InfluencerOfferListResponse": {"type": "object", "properties": {"status": {"type": "string"}, "total": {"type": "integer"}, "data": {"type": "array", "items": {"$ref": "#/definitions/InfluencerOffer"}}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "offerhub offer API",
	Description:      "Offer catalog with per-influencer payout resolution.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

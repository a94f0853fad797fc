package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>inkpact — Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

// Minimal OpenAPI document describing the auth and agreement endpoints.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "inkpact", "version": "v0.1.0" },
  "paths": {
    "/api/auth/register": {
      "post": { "summary": "Register a local account", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"fullName":{"type":"string"},"email":{"type":"string"},"password":{"type":"string"}}}}}}, "responses": { "201": { "description": "user created" }, "409": { "description": "email already registered" } } }
    },
    "/api/auth/login": {
      "post": { "summary": "Login with email and password", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"email":{"type":"string"},"password":{"type":"string"}}}}}}, "responses": { "200": { "description": "tokens returned" }, "401": { "description": "invalid credentials" } } }
    },
    "/api/auth/refresh": {
      "post": { "summary": "Refresh access token", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"refresh_token":{"type":"string"}}}}}}, "responses": { "200": { "description": "new access token" }, "401": { "description": "invalid refresh" } } }
    },
    "/api/auth/logout": {
      "post": { "summary": "Logout and invalidate refresh token", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"refresh_token":{"type":"string"}}}}}}, "responses": { "200": { "description": "logged out" } } }
    },
    "/api/agreements/create": {
      "post": { "summary": "Create an agreement and invite signers", "responses": { "201": { "description": "agreement created" }, "400": { "description": "invalid input" } } }
    },
    "/api/agreements/my-agreements": {
      "get": { "summary": "List agreements created by the caller", "responses": { "200": { "description": "agreements" } } }
    },
    "/api/agreements/pending-to-sign": {
      "get": { "summary": "List agreements awaiting the caller's signature", "responses": { "200": { "description": "agreements" } } }
    },
    "/api/agreements/all": {
      "get": { "summary": "List fully signed agreements the caller was invited to", "responses": { "200": { "description": "agreements" } } }
    },
    "/api/agreements/{id}/sign": {
      "post": { "summary": "Record the caller's signature", "responses": { "200": { "description": "signed" }, "403": { "description": "not a party" }, "409": { "description": "already signed" }, "422": { "description": "unsupported signature payload" } } }
    },
    "/api/agreements/{id}/remove-signature": {
      "post": { "summary": "Remove a signature (creator only)", "responses": { "200": { "description": "removed" }, "403": { "description": "not the creator" } } }
    },
    "/api/agreements/search": {
      "get": { "summary": "Search agreements by title substring", "responses": { "200": { "description": "agreements" }, "400": { "description": "title missing" } } }
    },
    "/api/agreements/{id}/download": {
      "get": { "summary": "Download the agreement PDF", "responses": { "200": { "description": "PDF document" }, "404": { "description": "not found" }, "422": { "description": "signatures missing" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`

package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/inkpact/inkpact/backend/go-services/internal/agreement/handler"
	"github.com/inkpact/inkpact/backend/go-services/internal/agreement/repository"
	"github.com/inkpact/inkpact/backend/go-services/internal/agreement/service"
	"github.com/inkpact/inkpact/backend/go-services/internal/database"
	"github.com/inkpact/inkpact/backend/go-services/internal/oidc"
	"github.com/inkpact/inkpact/backend/go-services/internal/tokens"
	"github.com/inkpact/inkpact/backend/go-services/pkg/middleware"
)

// Standalone agreement API for local development and integration tests. Uses
// the in-memory store unless MONGODB_URI is provided, and skips signature
// verification when no JWT_SECRET is set.
func main() {
	port := os.Getenv("AGREEMENT_SERVICE_PORT")
	if port == "" {
		port = "5011"
	}

	r := gin.New()
	r.Use(gin.Recovery())

	var repo repository.Repository
	if mongoURI := os.Getenv("MONGODB_URI"); mongoURI != "" {
		client, err := database.ConnectMongo(context.Background(), mongoURI, 10*time.Second)
		if err != nil {
			log.Printf("warning: cannot connect to MongoDB (%v) — using memory-backed repo", err)
			repo = repository.NewMemoryRepo()
		} else {
			repo = repository.NewMongoRepo(client.Database(os.Getenv("MONGODB_DATABASE")).Collection("agreements"))
		}
	} else {
		repo = repository.NewMemoryRepo()
	}

	var verifier middleware.Verifier
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		verifier = tokens.NewJWTVerifier(secret)
	} else {
		log.Printf("warning: JWT_SECRET not set — tokens are parsed without verification")
		verifier = oidc.NewInsecureVerifier()
	}

	svc := service.NewService(repo, nil, nil)
	handler.RegisterAgreementRoutes(r, svc, middleware.AuthMiddleware(verifier))

	log.Printf("agreement service listening on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}

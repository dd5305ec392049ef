// Multi-tenant scheduler/CRM API server: auth, tenants, clients, services,
// staff, appointments, deals, and the AI intent router.
package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/monsevich/nutri/internal/crm"
)

const defaultTokenTTLMinutes = 60

func main() {
	godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	tokenTTL := defaultTokenTTLMinutes * time.Minute
	if raw := os.Getenv("ACCESS_TOKEN_EXPIRE_MINUTES"); raw != "" {
		minutes, err := strconv.Atoi(raw)
		if err != nil || minutes <= 0 {
			log.Fatalf("ACCESS_TOKEN_EXPIRE_MINUTES must be a positive integer, got %q", raw)
		}
		tokenTTL = time.Duration(minutes) * time.Minute
	}

	ctx := context.Background()
	pool, err := crm.NewPool(ctx)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer pool.Close()

	router := gin.Default()
	router.SetTrustedProxies(nil)
	router.Use(cors.Default())
	crm.NewHandler(pool, []byte(jwtSecret), tokenTTL).RegisterRoutes(router)

	addr := os.Getenv("CRM_ADDR")
	if addr == "" {
		addr = ":8002"
	}
	log.Printf("crm api listening on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

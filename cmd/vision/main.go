// Vision service: estimates a dish and its macros from a meal photo.
package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/monsevich/nutri/internal/vision"
)

func main() {
	godotenv.Load()

	router := gin.Default()
	router.SetTrustedProxies(nil)
	vision.NewHandler().RegisterRoutes(router)

	addr := os.Getenv("VISION_ADDR")
	if addr == "" {
		addr = ":8001"
	}
	log.Printf("vision service listening on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

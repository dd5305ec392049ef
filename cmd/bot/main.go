// Telegram bot relay: long-polls for messages and forwards them to the
// core and vision services.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/monsevich/nutri/internal/bot"
)

func main() {
	godotenv.Load()

	token := os.Getenv("TG_BOT_TOKEN")
	if token == "" {
		log.Fatal("TG_BOT_TOKEN is required")
	}
	coreURL := os.Getenv("CORE_API_URL")
	if coreURL == "" {
		coreURL = "http://localhost:8000"
	}
	visionURL := os.Getenv("VISION_API_URL")
	if visionURL == "" {
		visionURL = "http://localhost:8001"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b := bot.New(token, bot.NewCoreClient(coreURL), bot.NewVisionClient(visionURL))
	if err := b.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("bot stopped: %v", err)
	}
}

// One-shot tool that regenerates the trailing-week report for every user,
// whether or not one exists. Useful after fixing bad log data.
// Usage: go run ./cmd/manual-report
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/monsevich/nutri/internal/coreapi"
)

func main() {
	godotenv.Load()

	ctx := context.Background()
	pool, err := coreapi.NewPool(ctx)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer pool.Close()

	generated, failed, err := coreapi.GenerateAllReports(ctx, pool)
	if err != nil {
		log.Fatalf("report run failed: %v", err)
	}
	fmt.Printf("%d report(s) generated, %d failed.\n", generated, failed)
}

// Core nutrition API server: profile, daily logs, progress, menus, and
// weekly reports, plus the daily report scheduler.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/monsevich/nutri/internal/coreapi"
)

const (
	defaultReportHour = 3
	shutdownTimeout   = 10 * time.Second
)

func main() {
	// .env is optional in production where real env vars are set.
	godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := coreapi.NewPool(ctx)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer pool.Close()

	reportHour := defaultReportHour
	if raw := os.Getenv("REPORT_HOUR"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 || parsed > 23 {
			log.Fatalf("REPORT_HOUR must be an hour 0-23, got %q", raw)
		}
		reportHour = parsed
	}
	coreapi.NewScheduler(pool, reportHour).Start(ctx)

	router := gin.Default()
	router.SetTrustedProxies(nil)
	router.Use(cors.Default())
	coreapi.NewHandler(pool).RegisterRoutes(router)

	addr := os.Getenv("CORE_API_ADDR")
	if addr == "" {
		addr = ":8000"
	}
	log.Printf("core api listening on %s", addr)
	if err := serve(ctx, &http.Server{Addr: addr, Handler: router}); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
	log.Println("core api shut down")
}

// serve runs srv until ctx is cancelled, then drains in-flight requests.
// Returning (instead of blocking in ListenAndServe) lets the deferred
// stop() release the signal handler, so a second SIGINT kills the process.
func serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

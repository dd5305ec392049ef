package coreapi

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Handler holds shared dependencies (db pool) for all route handlers.
type Handler struct {
	db *pgxpool.Pool
}

// NewHandler wires a Handler to a database pool.
func NewHandler(db *pgxpool.Pool) *Handler {
	return &Handler{db: db}
}

/* ─── Database helpers ────────────────────────────────────────────────── */

// queryOne runs a query and scans the first row into T using RowToStructByName.
// Logs query and scan errors for debugging (e.g. struct/column mismatches).
// Takes a context.Context so both gin handlers and the scheduler can use it.
func queryOne[T any](pool *pgxpool.Pool, ctx context.Context, sql string, args pgx.NamedArgs) (T, error) {
	rows, err := pool.Query(ctx, sql, args)
	if err != nil {
		log.Printf("[queryOne] Query error: %v", err)
		var zero T
		return zero, err
	}
	result, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[T])
	if err != nil && err != pgx.ErrNoRows {
		log.Printf("[queryOne] Scan error: %v", err)
	}
	return result, err
}

// queryMany runs a query and scans all rows into []T using RowToStructByName.
func queryMany[T any](pool *pgxpool.Pool, ctx context.Context, sql string, args pgx.NamedArgs) ([]T, error) {
	rows, err := pool.Query(ctx, sql, args)
	if err != nil {
		log.Printf("[queryMany] Query error: %v", err)
		return nil, err
	}
	results, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		log.Printf("[queryMany] Scan error: %v", err)
	}
	return results, err
}

// apiError returns a consistent JSON error response: {"error": "message"}.
func apiError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

/* ─── Server setup ────────────────────────────────────────────────────── */

// NewPool creates a connection pool from the DB_URL environment variable.
// A pool (not a single conn) because managed Postgres providers close idle
// connections aggressively.
func NewPool(ctx context.Context) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, os.Getenv("DB_URL"))
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// RegisterRoutes registers all core API routes on the router. The core API
// is only reachable by the bot relay, so there is no auth layer here.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.POST("/profile/init", h.initProfile)
	router.POST("/log/daily-intake", h.logDailyIntake)
	router.POST("/log/body", h.logBodyMetrics)
	router.GET("/progress/summary", h.getProgressSummary)
	router.GET("/menu/week", h.getWeekMenu)
	router.GET("/report/weekly", h.getWeeklyReport)
}

// getUserByTelegramID looks up a user by the opaque telegram key. Returns
// pgx.ErrNoRows when the user is unknown — handlers turn that into a 404.
func (h *Handler) getUserByTelegramID(ctx context.Context, telegramID string) (user, error) {
	return queryOne[user](h.db, ctx,
		"SELECT * FROM users WHERE telegram_id = @telegramID",
		pgx.NamedArgs{"telegramID": telegramID})
}

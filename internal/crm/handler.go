package crm

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Handler holds shared dependencies (db pool, signing key) for all CRM routes.
type Handler struct {
	db        *pgxpool.Pool
	jwtSecret []byte
	tokenTTL  time.Duration
}

// NewHandler wires a Handler to a database pool and a JWT signing secret.
func NewHandler(db *pgxpool.Pool, jwtSecret []byte, tokenTTL time.Duration) *Handler {
	return &Handler{db: db, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

/* ─── Database helpers ────────────────────────────────────────────────── */

// queryOne runs a query and scans the first row into T using RowToStructByName.
// Logs query and scan errors for debugging (e.g. struct/column mismatches).
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

// NewPool creates a connection pool from the CRM_DB_URL environment variable.
// The CRM schema lives in its own database, separate from the nutrition one.
func NewPool(ctx context.Context) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, os.Getenv("CRM_DB_URL"))
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// RegisterRoutes registers all CRM routes. Tenant creation and auth are
// public; everything else requires a valid token and is scoped to the
// token's tenant.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.POST("/auth/signup", h.signup)
	router.POST("/auth/login", h.login)
	router.POST("/tenants", h.createTenant)
	router.GET("/tenants/:id", h.getTenant)
	router.POST("/ai/route", h.routeAIMessage)

	authed := router.Group("/", h.authMiddleware())
	authed.GET("/clients", h.listClients)
	authed.POST("/clients", h.createClient)
	authed.GET("/services", h.listServices)
	authed.POST("/services", h.createService)
	authed.GET("/staff", h.listStaff)
	authed.POST("/staff", h.createStaff)
	authed.GET("/appointments", h.listAppointments)
	authed.POST("/appointments", h.createAppointment)
	authed.GET("/deals", h.listDeals)
	authed.POST("/deals", h.createDeal)
}

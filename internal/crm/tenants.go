package crm

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// createTenant provisions a new organization. POST /tenants (public — this
// is the entry point for onboarding, before any user exists).
func (h *Handler) createTenant(c *gin.Context) {
	var body tenantCreateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Name == "" || body.Timezone == "" || body.Plan == "" {
		apiError(c, http.StatusBadRequest, "name, timezone, and plan are required")
		return
	}
	isActive := true
	if body.IsActive != nil {
		isActive = *body.IsActive
	}

	created, err := queryOne[tenant](h.db, c,
		`INSERT INTO tenants (id, name, timezone, plan, is_active)
		 VALUES (@id, @name, @timezone, @plan, @isActive)
		 RETURNING *`,
		pgx.NamedArgs{
			"id":       uuid.New(),
			"name":     body.Name,
			"timezone": body.Timezone,
			"plan":     body.Plan,
			"isActive": isActive,
		})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to create tenant")
		return
	}
	c.JSON(http.StatusCreated, created)
}

// getTenant returns one tenant by id. GET /tenants/:id
func (h *Handler) getTenant(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid tenant id")
		return
	}

	t, err := queryOne[tenant](h.db, c,
		"SELECT * FROM tenants WHERE id = @id",
		pgx.NamedArgs{"id": id})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			apiError(c, http.StatusNotFound, "tenant not found")
		} else {
			apiError(c, http.StatusInternalServerError, "failed to fetch tenant")
		}
		return
	}
	c.JSON(http.StatusOK, t)
}

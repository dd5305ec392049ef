package crm

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// listServices returns the tenant's services ordered by name. GET /services
func (h *Handler) listServices(c *gin.Context) {
	services, err := queryMany[service](h.db, c,
		"SELECT * FROM services WHERE tenant_id = @tenantID ORDER BY name",
		pgx.NamedArgs{"tenantID": currentTenantID(c)})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch services")
		return
	}
	if services == nil {
		services = []service{}
	}
	c.JSON(http.StatusOK, services)
}

// createService adds a bookable service. POST /services
func (h *Handler) createService(c *gin.Context) {
	var body serviceCreateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Name == "" {
		apiError(c, http.StatusBadRequest, "name is required")
		return
	}
	if body.DurationMinutes <= 0 {
		apiError(c, http.StatusBadRequest, "duration_minutes must be positive")
		return
	}
	if body.Price < 0 {
		apiError(c, http.StatusBadRequest, "price must not be negative")
		return
	}

	created, err := queryOne[service](h.db, c,
		`INSERT INTO services (id, tenant_id, name, duration_minutes, price, is_medical, description)
		 VALUES (@id, @tenantID, @name, @durationMinutes, @price, @isMedical, @description)
		 RETURNING *`,
		pgx.NamedArgs{
			"id":              uuid.New(),
			"tenantID":        currentTenantID(c),
			"name":            body.Name,
			"durationMinutes": body.DurationMinutes,
			"price":           body.Price,
			"isMedical":       body.IsMedical,
			"description":     body.Description,
		})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to create service")
		return
	}
	c.JSON(http.StatusCreated, created)
}

package crm

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// listClients returns the tenant's clients ordered by name. GET /clients
func (h *Handler) listClients(c *gin.Context) {
	clients, err := queryMany[client](h.db, c,
		"SELECT * FROM clients WHERE tenant_id = @tenantID ORDER BY full_name",
		pgx.NamedArgs{"tenantID": currentTenantID(c)})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch clients")
		return
	}
	if clients == nil {
		clients = []client{}
	}
	c.JSON(http.StatusOK, clients)
}

// createClient adds a client under the caller's tenant. POST /clients
func (h *Handler) createClient(c *gin.Context) {
	var body clientCreateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.FullName == "" {
		apiError(c, http.StatusBadRequest, "full_name is required")
		return
	}

	created, err := queryOne[client](h.db, c,
		`INSERT INTO clients (id, tenant_id, full_name, phone, email, comment)
		 VALUES (@id, @tenantID, @fullName, @phone, @email, @comment)
		 RETURNING *`,
		pgx.NamedArgs{
			"id":       uuid.New(),
			"tenantID": currentTenantID(c),
			"fullName": body.FullName,
			"phone":    body.Phone,
			"email":    body.Email,
			"comment":  body.Comment,
		})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to create client")
		return
	}
	c.JSON(http.StatusCreated, created)
}

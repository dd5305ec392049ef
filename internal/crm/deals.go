package crm

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// validDealStages is the closed pipeline accepted on create.
var validDealStages = map[string]bool{
	"new":          true,
	"consultation": true,
	"booked":       true,
	"done":         true,
	"upsell":       true,
}

// listDeals returns the tenant's deals ordered by stage. GET /deals
func (h *Handler) listDeals(c *gin.Context) {
	deals, err := queryMany[deal](h.db, c,
		"SELECT * FROM deals WHERE tenant_id = @tenantID ORDER BY stage",
		pgx.NamedArgs{"tenantID": currentTenantID(c)})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch deals")
		return
	}
	if deals == nil {
		deals = []deal{}
	}
	c.JSON(http.StatusOK, deals)
}

// createDeal opens a pipeline entry for a client. POST /deals
func (h *Handler) createDeal(c *gin.Context) {
	var body dealCreateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if !validDealStages[body.Stage] {
		apiError(c, http.StatusBadRequest, "invalid stage")
		return
	}

	tenantID := currentTenantID(c)
	if !h.rowInTenant(c, "clients", body.ClientID, tenantID) {
		apiError(c, http.StatusBadRequest, "client not found")
		return
	}

	created, err := queryOne[deal](h.db, c,
		`INSERT INTO deals (id, tenant_id, client_id, stage, source, ai_summary)
		 VALUES (@id, @tenantID, @clientID, @stage, @source, @aiSummary)
		 RETURNING *`,
		pgx.NamedArgs{
			"id":        uuid.New(),
			"tenantID":  tenantID,
			"clientID":  body.ClientID,
			"stage":     body.Stage,
			"source":    body.Source,
			"aiSummary": body.AISummary,
		})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to create deal")
		return
	}
	c.JSON(http.StatusCreated, created)
}

package crm

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// staffServiceLink is one row of the staff_services join table.
type staffServiceLink struct {
	StaffID   uuid.UUID `db:"staff_id"`
	ServiceID uuid.UUID `db:"service_id"`
}

// listStaff returns the tenant's staff with their service assignments.
// GET /staff
func (h *Handler) listStaff(c *gin.Context) {
	members, err := queryMany[staffMember](h.db, c,
		"SELECT * FROM staff WHERE tenant_id = @tenantID ORDER BY full_name",
		pgx.NamedArgs{"tenantID": currentTenantID(c)})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch staff")
		return
	}

	links, err := queryMany[staffServiceLink](h.db, c,
		`SELECT ss.staff_id, ss.service_id FROM staff_services ss
		 JOIN staff s ON s.id = ss.staff_id
		 WHERE s.tenant_id = @tenantID`,
		pgx.NamedArgs{"tenantID": currentTenantID(c)})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch staff services")
		return
	}
	byStaff := map[uuid.UUID][]uuid.UUID{}
	for _, link := range links {
		byStaff[link.StaffID] = append(byStaff[link.StaffID], link.ServiceID)
	}

	out := make([]staffResponse, 0, len(members))
	for _, m := range members {
		serviceIDs := byStaff[m.ID]
		if serviceIDs == nil {
			serviceIDs = []uuid.UUID{}
		}
		out = append(out, staffResponse{
			ID:         m.ID,
			FullName:   m.FullName,
			Role:       m.Role,
			IsActive:   m.IsActive,
			ServiceIDs: serviceIDs,
		})
	}
	c.JSON(http.StatusOK, out)
}

// createStaff adds a staff member and links the listed services. Every
// service id must belong to the caller's tenant or the whole request is
// rejected. POST /staff
func (h *Handler) createStaff(c *gin.Context) {
	var body staffCreateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.FullName == "" || body.Role == "" {
		apiError(c, http.StatusBadRequest, "full_name and role are required")
		return
	}
	isActive := true
	if body.IsActive != nil {
		isActive = *body.IsActive
	}

	// Dedupe before validating so a repeated id can't fake a shortfall.
	uniqueIDs := uniqueUUIDs(body.ServiceIDs)
	if len(uniqueIDs) > 0 {
		var count int
		err := h.db.QueryRow(c,
			"SELECT COUNT(*) FROM services WHERE id = ANY(@ids) AND tenant_id = @tenantID",
			pgx.NamedArgs{"ids": uniqueIDs, "tenantID": currentTenantID(c)}).Scan(&count)
		if err != nil {
			apiError(c, http.StatusInternalServerError, "failed to validate services")
			return
		}
		if count != len(uniqueIDs) {
			apiError(c, http.StatusBadRequest, "some services not found for tenant")
			return
		}
	}

	// The member and its service links land together or not at all.
	tx, err := h.db.Begin(c)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to create staff member")
		return
	}
	defer tx.Rollback(c)

	staffID := uuid.New()
	_, err = tx.Exec(c,
		`INSERT INTO staff (id, tenant_id, full_name, role, is_active)
		 VALUES (@id, @tenantID, @fullName, @role, @isActive)`,
		pgx.NamedArgs{
			"id":       staffID,
			"tenantID": currentTenantID(c),
			"fullName": body.FullName,
			"role":     body.Role,
			"isActive": isActive,
		})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to create staff member")
		return
	}
	for _, serviceID := range uniqueIDs {
		_, err = tx.Exec(c,
			"INSERT INTO staff_services (staff_id, service_id) VALUES (@staffID, @serviceID)",
			pgx.NamedArgs{"staffID": staffID, "serviceID": serviceID})
		if err != nil {
			apiError(c, http.StatusInternalServerError, "failed to link services")
			return
		}
	}
	if err := tx.Commit(c); err != nil {
		apiError(c, http.StatusInternalServerError, "failed to create staff member")
		return
	}

	c.JSON(http.StatusCreated, staffResponse{
		ID:         staffID,
		FullName:   body.FullName,
		Role:       body.Role,
		IsActive:   isActive,
		ServiceIDs: uniqueIDs,
	})
}

// uniqueUUIDs returns the ids with duplicates removed, order preserved.
func uniqueUUIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

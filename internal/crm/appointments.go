package crm

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// validAppointmentStatuses is the closed set accepted on create.
var validAppointmentStatuses = map[string]bool{
	"planned":   true,
	"confirmed": true,
	"done":      true,
	"canceled":  true,
}

// listAppointments returns the tenant's appointments ordered by start time,
// optionally restricted to one calendar day (UTC).
// GET /appointments?date=2006-01-02
func (h *Handler) listAppointments(c *gin.Context) {
	sql := "SELECT * FROM appointments WHERE tenant_id = @tenantID"
	args := pgx.NamedArgs{"tenantID": currentTenantID(c)}

	if dateParam := c.Query("date"); dateParam != "" {
		day, err := time.Parse("2006-01-02", dateParam)
		if err != nil {
			apiError(c, http.StatusBadRequest, "date must be in YYYY-MM-DD format")
			return
		}
		sql += " AND start_datetime >= @dayStart AND start_datetime < @dayEnd"
		args["dayStart"] = day
		args["dayEnd"] = day.AddDate(0, 0, 1)
	}
	sql += " ORDER BY start_datetime"

	appointments, err := queryMany[appointment](h.db, c, sql, args)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch appointments")
		return
	}
	if appointments == nil {
		appointments = []appointment{}
	}
	c.JSON(http.StatusOK, appointments)
}

// createAppointment books a client with a staff member. The end time is
// start plus the service duration; clients never supply it. Client, staff,
// and service must all belong to the caller's tenant. POST /appointments
func (h *Handler) createAppointment(c *gin.Context) {
	var body appointmentCreateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if !validAppointmentStatuses[body.Status] {
		apiError(c, http.StatusBadRequest, "invalid status")
		return
	}
	if body.StartDatetime.IsZero() {
		apiError(c, http.StatusBadRequest, "start_datetime is required")
		return
	}

	tenantID := currentTenantID(c)
	if !h.rowInTenant(c, "clients", body.ClientID, tenantID) {
		apiError(c, http.StatusBadRequest, "client not found")
		return
	}
	if !h.rowInTenant(c, "staff", body.StaffID, tenantID) {
		apiError(c, http.StatusBadRequest, "staff not found")
		return
	}

	svc, err := queryOne[service](h.db, c,
		"SELECT * FROM services WHERE id = @id AND tenant_id = @tenantID",
		pgx.NamedArgs{"id": body.ServiceID, "tenantID": tenantID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			apiError(c, http.StatusBadRequest, "service not found")
		} else {
			apiError(c, http.StatusInternalServerError, "failed to fetch service")
		}
		return
	}

	end := appointmentEnd(body.StartDatetime, svc.DurationMinutes)
	created, err := queryOne[appointment](h.db, c,
		`INSERT INTO appointments
		   (id, tenant_id, client_id, staff_id, service_id, start_datetime, end_datetime, status, room)
		 VALUES
		   (@id, @tenantID, @clientID, @staffID, @serviceID, @start, @end, @status, @room)
		 RETURNING *`,
		pgx.NamedArgs{
			"id":        uuid.New(),
			"tenantID":  tenantID,
			"clientID":  body.ClientID,
			"staffID":   body.StaffID,
			"serviceID": body.ServiceID,
			"start":     body.StartDatetime,
			"end":       end,
			"status":    body.Status,
			"room":      body.Room,
		})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to create appointment")
		return
	}
	c.JSON(http.StatusCreated, created)
}

// appointmentEnd derives the end time from the booked service's duration.
func appointmentEnd(start time.Time, durationMinutes int) time.Time {
	return start.Add(time.Duration(durationMinutes) * time.Minute)
}

// rowInTenant reports whether the table has a row with this id under the
// tenant. Cross-tenant ids look exactly like missing ones to the caller.
func (h *Handler) rowInTenant(c *gin.Context, table string, id, tenantID uuid.UUID) bool {
	var exists bool
	err := h.db.QueryRow(c,
		"SELECT EXISTS (SELECT 1 FROM "+table+" WHERE id = @id AND tenant_id = @tenantID)",
		pgx.NamedArgs{"id": id, "tenantID": tenantID}).Scan(&exists)
	return err == nil && exists
}

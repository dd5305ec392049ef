package crm

import (
	"time"

	"github.com/google/uuid"
)

/* ─── Database row types ─────────────────────────────────────────────── */

// tenant is one customer organization. Every other row in the CRM schema
// hangs off a tenant, and all authenticated reads and writes are scoped to
// the caller's tenant.
type tenant struct {
	ID       uuid.UUID `db:"id" json:"id"`
	Name     string    `db:"name" json:"name"`
	Timezone string    `db:"timezone" json:"timezone"`
	Plan     string    `db:"plan" json:"plan"`
	IsActive bool      `db:"is_active" json:"is_active"`
}

// user is a staff login for the CRM itself, not a person being served.
type user struct {
	ID             uuid.UUID `db:"id" json:"id"`
	TenantID       uuid.UUID `db:"tenant_id" json:"tenant_id"`
	Email          string    `db:"email" json:"email"`
	HashedPassword string    `db:"hashed_password" json:"-"`
	IsActive       bool      `db:"is_active" json:"is_active"`
}

// client is a person the tenant serves.
type client struct {
	ID       uuid.UUID `db:"id" json:"id"`
	TenantID uuid.UUID `db:"tenant_id" json:"-"`
	FullName string    `db:"full_name" json:"full_name"`
	Phone    *string   `db:"phone" json:"phone"`
	Email    *string   `db:"email" json:"email"`
	Comment  *string   `db:"comment" json:"comment"`
}

// service is a bookable offering with a fixed duration and price.
type service struct {
	ID              uuid.UUID `db:"id" json:"id"`
	TenantID        uuid.UUID `db:"tenant_id" json:"-"`
	Name            string    `db:"name" json:"name"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	Price           float64   `db:"price" json:"price"`
	IsMedical       bool      `db:"is_medical" json:"is_medical"`
	Description     *string   `db:"description" json:"description"`
}

// staffMember is a provider who performs services.
type staffMember struct {
	ID       uuid.UUID `db:"id" json:"id"`
	TenantID uuid.UUID `db:"tenant_id" json:"-"`
	FullName string    `db:"full_name" json:"full_name"`
	Role     string    `db:"role" json:"role"`
	IsActive bool      `db:"is_active" json:"is_active"`
}

// appointment books a client with a staff member for one service. The end
// time is always derived from the service duration, never supplied.
type appointment struct {
	ID            uuid.UUID `db:"id" json:"id"`
	TenantID      uuid.UUID `db:"tenant_id" json:"-"`
	ClientID      uuid.UUID `db:"client_id" json:"client_id"`
	StaffID       uuid.UUID `db:"staff_id" json:"staff_id"`
	ServiceID     uuid.UUID `db:"service_id" json:"service_id"`
	StartDatetime time.Time `db:"start_datetime" json:"start_datetime"`
	EndDatetime   time.Time `db:"end_datetime" json:"end_datetime"`
	Status        string    `db:"status" json:"status"`
	Room          *string   `db:"room" json:"room"`
}

// deal tracks a client through the sales pipeline.
type deal struct {
	ID        uuid.UUID `db:"id" json:"id"`
	TenantID  uuid.UUID `db:"tenant_id" json:"-"`
	ClientID  uuid.UUID `db:"client_id" json:"client_id"`
	Stage     string    `db:"stage" json:"stage"`
	Source    *string   `db:"source" json:"source"`
	AISummary *string   `db:"ai_summary" json:"ai_summary"`
}

/* ─── Request / response types ───────────────────────────────────────── */

type signupRequest struct {
	TenantID uuid.UUID `json:"tenant_id"`
	Email    string    `json:"email"`
	Password string    `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type tenantCreateRequest struct {
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
	Plan     string `json:"plan"`
	IsActive *bool  `json:"is_active"`
}

type clientCreateRequest struct {
	FullName string  `json:"full_name"`
	Phone    *string `json:"phone"`
	Email    *string `json:"email"`
	Comment  *string `json:"comment"`
}

type serviceCreateRequest struct {
	Name            string  `json:"name"`
	DurationMinutes int     `json:"duration_minutes"`
	Price           float64 `json:"price"`
	IsMedical       bool    `json:"is_medical"`
	Description     *string `json:"description"`
}

type staffCreateRequest struct {
	FullName   string      `json:"full_name"`
	Role       string      `json:"role"`
	IsActive   *bool       `json:"is_active"`
	ServiceIDs []uuid.UUID `json:"service_ids"`
}

// staffResponse flattens the staff_services join into a list of service IDs.
type staffResponse struct {
	ID         uuid.UUID   `json:"id"`
	FullName   string      `json:"full_name"`
	Role       string      `json:"role"`
	IsActive   bool        `json:"is_active"`
	ServiceIDs []uuid.UUID `json:"service_ids"`
}

type appointmentCreateRequest struct {
	ClientID      uuid.UUID `json:"client_id"`
	StaffID       uuid.UUID `json:"staff_id"`
	ServiceID     uuid.UUID `json:"service_id"`
	StartDatetime time.Time `json:"start_datetime"`
	Status        string    `json:"status"`
	Room          *string   `json:"room"`
}

type dealCreateRequest struct {
	ClientID  uuid.UUID `json:"client_id"`
	Stage     string    `json:"stage"`
	Source    *string   `json:"source"`
	AISummary *string   `json:"ai_summary"`
}

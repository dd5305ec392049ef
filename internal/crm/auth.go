package crm

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

// dummyHash is a pre-computed bcrypt hash used when a login email isn't found.
// Running bcrypt against it (instead of returning early) keeps response time
// constant, preventing timing-based email enumeration.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy"), bcrypt.DefaultCost)

// accessClaims is the JWT payload: the user id in the registered subject,
// plus the tenant the token is scoped to.
type accessClaims struct {
	TenantID string `json:"tenant_id"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// createToken signs an HS256 access token for the user.
func (h *Handler) createToken(u user) (string, error) {
	claims := &accessClaims{
		TenantID: u.TenantID.String(),
		Email:    u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(h.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.jwtSecret)
}

// parseToken validates the token signature and expiry and returns its claims.
func (h *Handler) parseToken(tokenString string) (*accessClaims, error) {
	claims := &accessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			return h.jwtSecret, nil
		})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// signup registers a new staff login under an existing tenant.
// POST /auth/signup (public — bootstrapping the first user needs no token).
func (h *Handler) signup(c *gin.Context) {
	var body signupRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Email == "" || !strings.Contains(body.Email, "@") {
		apiError(c, http.StatusBadRequest, "a valid email is required")
		return
	}
	if body.Password == "" {
		apiError(c, http.StatusBadRequest, "password is required")
		return
	}

	_, err := queryOne[tenant](h.db, c,
		"SELECT * FROM tenants WHERE id = @tenantID",
		pgx.NamedArgs{"tenantID": body.TenantID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			apiError(c, http.StatusNotFound, "tenant not found")
		} else {
			apiError(c, http.StatusInternalServerError, "failed to fetch tenant")
		}
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to hash password")
		return
	}

	// The unique index on email makes duplicate signups race-safe: the
	// second insert fails instead of silently creating a twin.
	created, err := queryOne[user](h.db, c,
		`INSERT INTO users (id, tenant_id, email, hashed_password, is_active)
		 VALUES (@id, @tenantID, @email, @hashedPassword, TRUE)
		 ON CONFLICT (email) DO NOTHING
		 RETURNING *`,
		pgx.NamedArgs{
			"id":             uuid.New(),
			"tenantID":       body.TenantID,
			"email":          body.Email,
			"hashedPassword": string(hashed),
		})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			apiError(c, http.StatusBadRequest, "email already registered")
		} else {
			apiError(c, http.StatusInternalServerError, "failed to create user")
		}
		return
	}

	c.JSON(http.StatusCreated, created)
}

// login verifies email/password and returns a signed access token.
// POST /auth/login (public).
func (h *Handler) login(c *gin.Context) {
	var body loginRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	u, lookupErr := queryOne[user](h.db, c,
		"SELECT * FROM users WHERE email = @email",
		pgx.NamedArgs{"email": body.Email})

	// Always run bcrypt to keep response time constant regardless of whether
	// the email was found — prevents timing-based email enumeration.
	hashToCheck := string(dummyHash)
	if lookupErr == nil {
		hashToCheck = u.HashedPassword
	}
	compareErr := bcrypt.CompareHashAndPassword([]byte(hashToCheck), []byte(body.Password))

	if lookupErr != nil || compareErr != nil {
		apiError(c, http.StatusUnauthorized, "incorrect credentials")
		return
	}
	if !u.IsActive {
		apiError(c, http.StatusForbidden, "inactive user")
		return
	}

	token, err := h.createToken(u)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to sign token")
		return
	}
	c.JSON(http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

// authMiddleware validates the Bearer token and sets user_id and tenant_id
// on the context. Every handler behind it reads the tenant from here, never
// from the request body.
func (h *Handler) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			apiError(c, http.StatusUnauthorized, "missing or invalid authorization header")
			c.Abort()
			return
		}

		claims, err := h.parseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			apiError(c, http.StatusUnauthorized, "invalid token")
			c.Abort()
			return
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			apiError(c, http.StatusUnauthorized, "invalid token")
			c.Abort()
			return
		}
		tenantID, err := uuid.Parse(claims.TenantID)
		if err != nil {
			apiError(c, http.StatusUnauthorized, "invalid token")
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		c.Set("tenant_id", tenantID)
		c.Next()
	}
}

// currentTenantID returns the tenant the authenticated caller belongs to.
// Only valid behind authMiddleware.
func currentTenantID(c *gin.Context) uuid.UUID {
	return c.MustGet("tenant_id").(uuid.UUID)
}

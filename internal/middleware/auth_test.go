package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/selimdoruk/account-backend/internal/config"
	"github.com/selimdoruk/account-backend/internal/models"
	"github.com/selimdoruk/account-backend/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupGuardDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to initialize test database")
	require.NoError(t, db.AutoMigrate(&models.User{}))
	return db
}

func guardConfig() *config.Config {
	return &config.Config{
		JWTSecret:    "test-secret",
		SupportEmail: "support@example.com",
	}
}

// seedSession creates a user with a freshly issued token already stored on
// the row, the state a successful login leaves behind.
func seedSession(t *testing.T, db *gorm.DB, role models.Role, status models.Status) (*models.User, string) {
	t.Helper()

	issuer, err := token.NewIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	user := models.User{
		ID:              uuid.New(),
		Email:           uuid.NewString() + "@example.com",
		PasswordHash:    "x",
		Role:            role,
		Status:          status,
		IsEmailVerified: true,
	}
	tok, err := issuer.Issue(user.ID, user.Role)
	require.NoError(t, err)
	user.AuthToken = tok

	require.NoError(t, db.Create(&user).Error)
	return &user, tok
}

func guardedApp(t *testing.T, db *gorm.DB, admin bool) *fiber.App {
	t.Helper()

	cfg := guardConfig()
	app := fiber.New()
	handlers := []fiber.Handler{JWTProtected(cfg), AuthRequired(db, cfg)}
	if admin {
		handlers = append(handlers, AdminRequired())
	}
	handlers = append(handlers, func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		require.NotNil(t, user, "guard must set the user on the context")
		return c.SendString(user.ID.String())
	})
	app.Get("/guarded", handlers...)
	return app
}

func doGet(t *testing.T, app *fiber.App, target, bearer string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestAuthRequired(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		app := guardedApp(t, setupGuardDB(t), false)
		resp := doGet(t, app, "/guarded", "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("malformed token", func(t *testing.T) {
		app := guardedApp(t, setupGuardDB(t), false)
		resp := doGet(t, app, "/guarded", "not-a-jwt")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("valid token matching the stored one", func(t *testing.T) {
		db := setupGuardDB(t)
		_, tok := seedSession(t, db, models.RoleUser, models.StatusActive)
		app := guardedApp(t, db, false)

		resp := doGet(t, app, "/guarded", tok)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("token accepted via query parameter", func(t *testing.T) {
		db := setupGuardDB(t)
		_, tok := seedSession(t, db, models.RoleUser, models.StatusActive)
		app := guardedApp(t, db, false)

		resp := doGet(t, app, "/guarded?token="+tok, "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("superseded token is rejected", func(t *testing.T) {
		db := setupGuardDB(t)
		user, tok := seedSession(t, db, models.RoleUser, models.StatusActive)

		// a later login stored a different token on the row
		require.NoError(t, db.Model(user).Update("auth_token", "another-token").Error)

		app := guardedApp(t, db, false)
		resp := doGet(t, app, "/guarded", tok)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("logged-out session is rejected", func(t *testing.T) {
		db := setupGuardDB(t)
		user, tok := seedSession(t, db, models.RoleUser, models.StatusActive)
		require.NoError(t, db.Model(user).Update("auth_token", "").Error)

		app := guardedApp(t, db, false)
		resp := doGet(t, app, "/guarded", tok)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("soft-deleted user is rejected", func(t *testing.T) {
		db := setupGuardDB(t)
		user, tok := seedSession(t, db, models.RoleUser, models.StatusActive)
		require.NoError(t, db.Delete(user).Error)

		app := guardedApp(t, db, false)
		resp := doGet(t, app, "/guarded", tok)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("blocked user is rejected", func(t *testing.T) {
		db := setupGuardDB(t)
		_, tok := seedSession(t, db, models.RoleUser, models.StatusBlocked)

		app := guardedApp(t, db, false)
		resp := doGet(t, app, "/guarded", tok)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		db := setupGuardDB(t)
		user, _ := seedSession(t, db, models.RoleUser, models.StatusActive)

		expired, err := token.NewIssuer("test-secret", -time.Minute)
		require.NoError(t, err)
		tok, err := expired.Issue(user.ID, user.Role)
		require.NoError(t, err)
		require.NoError(t, db.Model(user).Update("auth_token", tok).Error)

		app := guardedApp(t, db, false)
		resp := doGet(t, app, "/guarded", tok)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestAdminRequired(t *testing.T) {
	t.Run("regular user is forbidden", func(t *testing.T) {
		db := setupGuardDB(t)
		_, tok := seedSession(t, db, models.RoleUser, models.StatusActive)

		app := guardedApp(t, db, true)
		resp := doGet(t, app, "/guarded", tok)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("admin passes", func(t *testing.T) {
		db := setupGuardDB(t)
		_, tok := seedSession(t, db, models.RoleAdmin, models.StatusActive)

		app := guardedApp(t, db, true)
		resp := doGet(t, app, "/guarded", tok)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

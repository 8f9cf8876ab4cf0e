package routes

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailforecast/config"
	"retailforecast/models"
)

func token(t *testing.T, role string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, models.JwtClaims{
		UserID: "u1",
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(config.AppConfig.JWTSecret))
	require.NoError(t, err)
	return signed
}

func TestMerchantRoutesRequireAuth(t *testing.T) {
	config.AppConfig.JWTSecret = "routes-secret"
	app := fiber.New()
	SetupRoutes(app)

	cases := []struct {
		name string
		role string
		path string
		want int
	}{
		{"anonymous", "", "/api/v1/merchant/forecast", 401},
		{"admin is not a reader", "admin", "/api/v1/merchant/forecast/correlations", 403},
		// role passes, horizon check runs before any data access
		{"merchant reaches handler", "merchant", "/api/v1/merchant/forecast/predictions?days=3", 400},
		{"staff reaches handler", "staff", "/api/v1/merchant/forecast/products/p1?days=3", 400},
		{"unknown route", "merchant", "/api/v1/merchant/invoices", 404},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tc.path, nil)
			if tc.role != "" {
				req.Header.Set("Authorization", "Bearer "+token(t, tc.role))
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	app := fiber.New()
	SetupRoutes(app)

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "go_goroutines")
}

package handlers

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleDBHealth(t *testing.T) {
	prev := pingDB
	t.Cleanup(func() { pingDB = prev })

	app := fiber.New()
	app.Get("/health/db", HandleDBHealth)

	pingDB = func(context.Context) error { return nil }
	resp, err := app.Test(httptest.NewRequest("GET", "/health/db", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	pingDB = func(context.Context) error { return errors.New("refused") }
	resp, err = app.Test(httptest.NewRequest("GET", "/health/db", nil))
	require.NoError(t, err)
	assert.Equal(t, 503, resp.StatusCode)
}

func TestHandleVersion(t *testing.T) {
	app := fiber.New()
	app.Get("/version", HandleVersion)

	resp, err := app.Test(httptest.NewRequest("GET", "/version", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), "text/html")
}

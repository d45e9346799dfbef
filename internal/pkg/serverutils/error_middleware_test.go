package serverutils

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	recoverer "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/stretchr/testify/assert"
)

func newEnvelopeApp() *fiber.App {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Use(recoverer.New())
	app.Get("/fiber-error", func(ctx *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusConflict, "already exists")
	})
	app.Get("/plain-error", func(ctx *fiber.Ctx) error {
		return io.ErrUnexpectedEOF
	})
	app.Get("/panics", func(ctx *fiber.Ctx) error {
		panic("boom")
	})
	return app
}

func TestErrorHandlerMiddleware(t *testing.T) {
	app := newEnvelopeApp()

	t.Run("fiber error keeps its status", func(t *testing.T) {
		res, err := app.Test(httptest.NewRequest("GET", "/fiber-error", nil))
		assert.NoError(t, err)
		assert.Equal(t, fiber.StatusConflict, res.StatusCode)

		body, _ := io.ReadAll(res.Body)
		var envelope BaseResponse[any]
		assert.NoError(t, json.Unmarshal(body, &envelope))
		assert.False(t, envelope.Success)
		assert.Equal(t, fiber.StatusConflict, envelope.Code)
	})

	t.Run("plain error becomes 500", func(t *testing.T) {
		res, err := app.Test(httptest.NewRequest("GET", "/plain-error", nil))
		assert.NoError(t, err)
		assert.Equal(t, fiber.StatusInternalServerError, res.StatusCode)
	})

	t.Run("handler panic becomes enveloped 500", func(t *testing.T) {
		res, err := app.Test(httptest.NewRequest("GET", "/panics", nil))
		assert.NoError(t, err)
		assert.Equal(t, fiber.StatusInternalServerError, res.StatusCode)

		body, _ := io.ReadAll(res.Body)
		var envelope BaseResponse[any]
		assert.NoError(t, json.Unmarshal(body, &envelope))
		assert.False(t, envelope.Success)
	})
}

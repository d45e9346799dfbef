package controller

import (
	"bufio"
	"context"
	"errors"

	"ai-landing-be/internal/dto"
	"ai-landing-be/internal/pkg/serverutils"
	"ai-landing-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

type ICompletionController interface {
	RegisterRoutes(r fiber.Router)
	Complete(ctx *fiber.Ctx) error
}

type completionController struct {
	service service.ICompletionService
}

func NewCompletionController(service service.ICompletionService) ICompletionController {
	return &completionController{service: service}
}

func (c *completionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("/completion", c.Complete)
}

// Complete relays model output to the browser as a chunked plain-text body.
// All validation and the user-turn write happen before the response starts,
// so every failure up to that point still gets a proper status code.
func (c *completionController) Complete(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.CompletionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}

	stream, err := c.service.StartCompletion(ctx.Context(), userId, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrChatNotFound):
			return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, err.Error()))
		case errors.Is(err, service.ErrNoUserMessage):
			return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
		default:
			return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
		}
	}

	ctx.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")

	// The fiber context dies once this handler returns; the stream runs on
	// its own context for the lifetime of the response body.
	streamCtx := context.Background()
	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		stream.Run(streamCtx, w)
	}))

	return nil
}

package handler

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/Uzinex/Boost-v1.0/internal/chatlink"
	"github.com/Uzinex/Boost-v1.0/internal/config"
	"github.com/Uzinex/Boost-v1.0/internal/service"
	"github.com/Uzinex/Boost-v1.0/internal/telegram"
)

var errInvalidRequest = errors.New("Некорректные данные запроса")

type Handler struct {
	cfg         *config.Config
	userSvc     *service.UserService
	orderSvc    *service.OrderService
	activitySvc *service.ActivityService
}

func New(cfg *config.Config, userSvc *service.UserService, orderSvc *service.OrderService, activitySvc *service.ActivityService) *Handler {
	return &Handler{
		cfg:         cfg,
		userSvc:     userSvc,
		orderSvc:    orderSvc,
		activitySvc: activitySvc,
	}
}

// RegisterRoutes mounts the API surface. /health is exposed both bare (for
// the platform's liveness probe) and under /api (for the Mini App client).
func RegisterRoutes(app *fiber.App, h *Handler) {
	app.Get("/health", h.Health)

	api := app.Group("/api")
	api.Get("/health", h.Health)

	api.Post("/users/sync", h.SyncUser)
	api.Get("/users/:id", h.GetUser)

	api.Get("/orders", h.GetOrders)
	api.Post("/orders", h.CreateOrder)
	api.Post("/orders/:id/complete", h.CompleteOrder)

	api.Get("/task-completions/:user_id", h.GetTaskCompletions)

	api.Post("/activity", h.RecordActivity)
	api.Get("/activity/:user_id", h.GetActivity)
}

func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
	})
}

// respondError translates engine outcomes into statuses: not-found → 404,
// unconfirmed membership → 403, domain rule violations and failed oracle
// calls → 400 with their message, anything unexpected → logged and hidden
// behind a generic message.
func (h *Handler) respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrOrderNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})

	case errors.Is(err, service.ErrNotSubscribed):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})

	case errors.Is(err, errInvalidRequest),
		errors.Is(err, service.ErrInsufficientBalance),
		errors.Is(err, service.ErrOwnOrder),
		errors.Is(err, service.ErrOrderAlreadyCompleted),
		errors.Is(err, service.ErrTaskAlreadyCompleted),
		errors.Is(err, service.ErrTelegramRequired),
		errors.Is(err, service.ErrVerificationUnavailable),
		errors.Is(err, chatlink.ErrEmptyLink),
		errors.Is(err, chatlink.ErrInvalidFormat),
		errors.Is(err, chatlink.ErrUnsupportedHost),
		errors.Is(err, chatlink.ErrMissingIdentifier),
		errors.Is(err, chatlink.ErrPrivateLink),
		errors.Is(err, telegram.ErrSubscriptionCheckFailed):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	log.Printf("[api] unexpected error: %v", err)
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Внутренняя ошибка сервера"})
}

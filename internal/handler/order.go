package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Uzinex/Boost-v1.0/internal/model"
	"github.com/Uzinex/Boost-v1.0/internal/service"
)

type createOrderRequest struct {
	UserID  string `json:"userId"`
	Payload struct {
		Type           model.OrderType `json:"type"`
		RequestedCount int             `json:"requestedCount"`
		Link           string          `json:"link"`
	} `json:"payload"`
}

func parseCreateOrderRequest(c *fiber.Ctx) (*createOrderRequest, error) {
	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, errInvalidRequest
	}
	if req.UserID == "" || !req.Payload.Type.Valid() || req.Payload.Link == "" {
		return nil, errInvalidRequest
	}
	if req.Payload.RequestedCount < 10 {
		return nil, errInvalidRequest
	}
	return &req, nil
}

type completeOrderRequest struct {
	UserID     string `json:"userId"`
	TelegramID *int64 `json:"telegramId"`
}

func parseCompleteOrderRequest(c *fiber.Ctx) (*completeOrderRequest, error) {
	var req completeOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, errInvalidRequest
	}
	if req.UserID == "" {
		return nil, errInvalidRequest
	}
	return &req, nil
}

func (h *Handler) GetOrders(c *fiber.Ctx) error {
	orders, err := h.orderSvc.ListOrders(c.Context())
	if err != nil {
		return h.respondError(c, err)
	}
	if orders == nil {
		orders = []model.Order{}
	}

	return c.JSON(fiber.Map{"orders": orders})
}

func (h *Handler) CreateOrder(c *fiber.Ctx) error {
	req, err := parseCreateOrderRequest(c)
	if err != nil {
		return h.respondError(c, err)
	}

	order, user, err := h.orderSvc.PlaceOrder(c.Context(), req.UserID, service.PlaceOrderInput{
		Type:           req.Payload.Type,
		RequestedCount: req.Payload.RequestedCount,
		Link:           req.Payload.Link,
	})
	if err != nil {
		return h.respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"order": order,
		"user":  user,
	})
}

func (h *Handler) CompleteOrder(c *fiber.Ctx) error {
	req, err := parseCompleteOrderRequest(c)
	if err != nil {
		return h.respondError(c, err)
	}

	result, err := h.orderSvc.CompleteTask(c.Context(), c.Params("id"), req.UserID, req.TelegramID)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(result)
}

type completionResponse struct {
	OrderID     string    `json:"orderId"`
	CompletedAt time.Time `json:"completedAt"`
}

func (h *Handler) GetTaskCompletions(c *fiber.Ctx) error {
	completions, err := h.orderSvc.ListCompletions(c.Context(), c.Params("user_id"))
	if err != nil {
		return h.respondError(c, err)
	}

	resp := make([]completionResponse, len(completions))
	for i, completion := range completions {
		resp[i] = completionResponse{OrderID: completion.OrderID, CompletedAt: completion.CompletedAt}
	}

	return c.JSON(fiber.Map{"completions": resp})
}

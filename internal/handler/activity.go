package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Uzinex/Boost-v1.0/internal/model"
)

type recordActivityRequest struct {
	UserID string               `json:"userId"`
	Event  *model.ActivityEvent `json:"event"`
}

func parseRecordActivityRequest(c *fiber.Ctx) (*recordActivityRequest, error) {
	var req recordActivityRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, errInvalidRequest
	}
	if req.UserID == "" || req.Event == nil {
		return nil, errInvalidRequest
	}
	if req.Event.ID == "" || !req.Event.Type.Valid() || req.Event.CreatedAt.IsZero() {
		return nil, errInvalidRequest
	}
	return &req, nil
}

func (h *Handler) RecordActivity(c *fiber.Ctx) error {
	req, err := parseRecordActivityRequest(c)
	if err != nil {
		return h.respondError(c, err)
	}

	if err := h.activitySvc.Record(c.Context(), req.UserID, req.Event); err != nil {
		return h.respondError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) GetActivity(c *fiber.Ctx) error {
	history, err := h.activitySvc.History(c.Context(), c.Params("user_id"))
	if err != nil {
		return h.respondError(c, err)
	}
	if history == nil {
		history = []model.ActivityEvent{}
	}

	return c.JSON(fiber.Map{"history": history})
}

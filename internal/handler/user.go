package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Uzinex/Boost-v1.0/internal/model"
)

type syncUserRequest struct {
	Profile *model.UserProfile `json:"profile"`
}

func parseSyncUserRequest(c *fiber.Ctx) (*model.UserProfile, error) {
	var req syncUserRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, errInvalidRequest
	}

	p := req.Profile
	if p == nil || p.ID == "" || p.FirstName == "" || p.FullName == "" ||
		p.ReferralCode == "" || p.PasswordHash == "" || p.CreatedAt.IsZero() {
		return nil, errInvalidRequest
	}
	if p.Balance < 0 {
		return nil, errInvalidRequest
	}
	if p.Referrer != nil && (p.Referrer.ID == "" || p.Referrer.FullName == "") {
		return nil, errInvalidRequest
	}
	return p, nil
}

func (h *Handler) SyncUser(c *fiber.Ctx) error {
	profile, err := parseSyncUserRequest(c)
	if err != nil {
		return h.respondError(c, err)
	}

	if err := h.userSvc.SyncProfile(c.Context(), profile); err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(fiber.Map{"success": true})
}

func (h *Handler) GetUser(c *fiber.Ctx) error {
	profile, err := h.userSvc.GetProfile(c.Context(), c.Params("id"))
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(fiber.Map{"profile": profile})
}

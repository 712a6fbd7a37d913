package settings

import (
	"strconv"

	"siparis-backend/internal/auth"

	"github.com/gofiber/fiber/v2"
)

// GET /api/admin/settings
func GetSettingsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cur, err := svc.Get(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(cur)
	}
}

// PUT /api/admin/settings
func UpdateSettingsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body UpdateInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		id, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		next, changes, err := svc.Update(c.UserContext(), body, Actor{ID: id.UserID, Name: id.Name})
		if err != nil {
			return err
		}

		return c.JSON(fiber.Map{
			"settings":   next,
			"changes":    changes,
			"no_changes": len(changes) == 0,
		})
	}
}

// GET /api/admin/settings/history?limit=30
func SettingsHistoryHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit := 0
		if v := c.Query("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 || n > maxHistoryLimit {
				return fiber.NewError(fiber.StatusBadRequest, "limit 1-100 arasında olmalı")
			}
			limit = n
		}

		entries, err := svc.History(c.UserContext(), limit)
		if err != nil {
			return err
		}
		return c.JSON(entries)
	}
}

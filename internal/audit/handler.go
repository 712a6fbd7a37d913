package audit

import (
	"strconv"
	"time"

	"siparis-backend/internal/database"
	"siparis-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type AuditLogResponse struct {
	ID          uuid.UUID          `json:"id"`
	CreatedAt   string             `json:"created_at"`
	BranchID    *uuid.UUID         `json:"branch_id"`
	UserID      *uuid.UUID         `json:"user_id"`
	UserName    string             `json:"user_name"`
	EntityType  string             `json:"entity_type"`
	EntityID    string             `json:"entity_id"`
	Action      models.AuditAction `json:"action"`
	Description string             `json:"description"`
	BeforeData  string             `json:"before_data"`
	AfterData   string             `json:"after_data"`
}

func NewAuditLogResponse(log models.AuditLog) AuditLogResponse {
	return AuditLogResponse{
		ID:          log.ID,
		CreatedAt:   log.CreatedAt.Format("2006-01-02 15:04:05"),
		BranchID:    log.BranchID,
		UserID:      log.ActorUserID,
		UserName:    log.ActorName,
		EntityType:  log.EntityType,
		EntityID:    log.EntityID,
		Action:      log.Action,
		Description: log.Description,
		BeforeData:  log.BeforeData,
		AfterData:   log.AfterData,
	}
}

// GET /api/admin/logs?from=2025-12-01&to=2025-12-31&action=approve&entity_type=order&q=...&limit=100
func ListAuditLogsHandler(loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var f Filter

		if v := c.Query("from"); v != "" {
			d, err := time.ParseInLocation("2006-01-02", v, loc)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "from formatı 'YYYY-MM-DD' olmalı")
			}
			f.From = &d
		}
		if v := c.Query("to"); v != "" {
			d, err := time.ParseInLocation("2006-01-02", v, loc)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "to formatı 'YYYY-MM-DD' olmalı")
			}
			end := d.AddDate(0, 0, 1)
			f.To = &end
		}
		if v := c.Query("branch_id"); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Geçersiz branch_id")
			}
			f.BranchID = &id
		}
		if v := c.Query("user_id"); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Geçersiz user_id")
			}
			f.UserID = &id
		}
		if v := c.Query("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Geçersiz limit")
			}
			f.Limit = n
		}
		f.Action = c.Query("action")
		f.EntityType = c.Query("entity_type")
		f.EntityID = c.Query("entity_id")
		f.Query = c.Query("q")

		logs, err := ListLogs(database.DB.WithContext(c.UserContext()), f)
		if err != nil {
			return err
		}

		resp := make([]AuditLogResponse, 0, len(logs))
		for _, log := range logs {
			resp = append(resp, NewAuditLogResponse(log))
		}
		return c.JSON(resp)
	}
}

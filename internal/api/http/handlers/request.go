package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/queue-service/internal/auth"
	"github.com/spec-kit/queue-service/internal/domain"
	"github.com/spec-kit/queue-service/internal/stats"
	apperrors "github.com/spec-kit/queue-service/pkg/util/errorutil"
)

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}

// parseOptionalBody accepts an empty body for endpoints whose fields are all
// optional.
func parseOptionalBody(c *fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	return parseBody(c, out)
}

func currentUser(c *fiber.Ctx) (*auth.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return nil, apperrors.NewUnauthorized("user required")
	}
	return principal, nil
}

func parseTime(c *fiber.Ctx, key string) (*time.Time, error) {
	val := c.Query(key)
	if val == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid time", map[string]any{key: "must be RFC3339"})
	}
	return &t, nil
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func parseStatuses(val string) []domain.TicketStatus {
	if val == "" {
		return nil
	}
	var statuses []domain.TicketStatus
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			statuses = append(statuses, domain.TicketStatus(part))
		}
	}
	return statuses
}

// parseWindow reads the from/to query pair. to is exclusive.
func parseWindow(c *fiber.Ctx) (stats.Window, error) {
	var w stats.Window
	from, err := parseTime(c, "from")
	if err != nil {
		return w, err
	}
	to, err := parseTime(c, "to")
	if err != nil {
		return w, err
	}
	if from != nil {
		w.Start = *from
	}
	if to != nil {
		w.End = *to
	}
	return w, nil
}

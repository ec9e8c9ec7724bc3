package common

import (
	"context"
	"fmt"
	"strings"

	"medassist/internal/models"

	"github.com/google/uuid"
)

type contextKey string

const (
	UserIDKey contextKey = "user_id"
	RoleKey   contextKey = "role"
)

// WithCaller stores the authenticated identity on the context.
func WithCaller(ctx context.Context, caller models.Caller) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, caller.UserID)
	return context.WithValue(ctx, RoleKey, caller.Role)
}

// GetCallerFromContext extracts the authenticated identity from the request context
func GetCallerFromContext(ctx context.Context) (models.Caller, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	if !ok {
		return models.Caller{}, false
	}
	role, _ := ctx.Value(RoleKey).(models.Role)
	return models.Caller{UserID: userID, Role: role}, true
}

// ValidateUUID parses an identifier taken from a path or body field.
func ValidateUUID(idStr string, fieldName string) (uuid.UUID, error) {
	idStr = strings.TrimSpace(idStr)
	if idStr == "" {
		return uuid.Nil, NewValidationError(fmt.Sprintf("%s is required", fieldName))
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, NewValidationError(fmt.Sprintf("Invalid %s format", fieldName))
	}
	return id, nil
}

// EscapeLikePattern escapes LIKE wildcards so user text matches literally,
// then wraps it for a substring match.
func EscapeLikePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(term)) + "%"
}

// NormalizePage applies defaults and an upper bound to page/limit inputs.
func NormalizePage(page, limit, defaultLimit, maxLimit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

// SplitCSV splits a comma separated query value, dropping blanks.
func SplitCSV(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SafeString safely handles string pointer operations
func SafeString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

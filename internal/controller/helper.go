package controller

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/flatclass/classroom/internal/service/room"
	"github.com/flatclass/classroom/pkg/rest"
)

func (c controller) generateTimeBasedId() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}

func (c controller) bearerToken(r *http.Request) string {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return ""
	}

	return token
}

func statusFromError(err error) int {
	switch {
	case errors.Is(err, room.ErrRoomNotFound), errors.Is(err, room.ErrMemberNotFound):
		return http.StatusNotFound
	case errors.Is(err, room.ErrMembersLimitReached), errors.Is(err, room.ErrAlreadyConnected):
		return http.StatusConflict
	case errors.Is(err, room.ErrInvalidAuthToken):
		return http.StatusUnauthorized
	case errors.Is(err, room.ErrPermissionDenied):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func (c controller) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFromError(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		c.logger.ErrorContext(r.Context(), "request failed", "error", err)
		msg = http.StatusText(status)
	}

	if err := rest.WriteJSON(w, status, rest.Envelope{"error": msg}); err != nil {
		c.logger.WarnContext(r.Context(), "failed to write response", "error", err)
	}
}

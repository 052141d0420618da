package controller

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/flatclass/classroom/internal/service/room"
	"github.com/flatclass/classroom/pkg/ctxlogger"
)

func (c controller) requestIdMw(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx = ctxlogger.AppendCtx(ctx, slog.String("request_id", c.generateTimeBasedId()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (c controller) requestLoggingMw(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		c.logger.InfoContext(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"status", ww.Status(),
		)
	})
}

// authMw admits requests carrying an auth token issued for the room in
// the path.
func (c controller) authMw(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := c.roomService.ParseAuthToken(c.bearerToken(r))
		if err != nil {
			c.writeError(w, r, err)
			return
		}

		if claims.RoomID != chi.URLParam(r, "room-id") {
			c.writeError(w, r, room.ErrPermissionDenied)
			return
		}

		ctx := c.withMember(r.Context(), claims.RoomID, claims.MemberID)
		ctx = ctxlogger.AppendCtx(ctx, slog.String("member_id", claims.MemberID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

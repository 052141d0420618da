package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/flatclass/classroom/internal/service/room"
	"github.com/flatclass/classroom/pkg/rest"
)

type createRoomInput struct {
	Title     string `json:"title" validate:"required,max=64"`
	Name      string `json:"name" validate:"required,max=32"`
	AvatarURL string `json:"avatar_url" validate:"omitempty,url"`
	BeginTime int64  `json:"begin_time" validate:"min=0"`
	EndTime   int64  `json:"end_time" validate:"min=0,gtefield=BeginTime"`
}

func (c controller) createRoom(w http.ResponseWriter, r *http.Request) {
	var input createRoomInput
	if err := rest.ReadJSON(r, &input); err != nil {
		c.logger.DebugContext(r.Context(), "failed to read json", "error", err)
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(input); !ok {
		c.logger.DebugContext(r.Context(), "invalid input", "errors", validationErrors)
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	creds, err := c.roomService.CreateRoom(r.Context(), &room.CreateRoomParams{
		Title:     input.Title,
		Name:      input.Name,
		AvatarURL: input.AvatarURL,
		BeginTime: input.BeginTime,
		EndTime:   input.EndTime,
	})
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusCreated, rest.Envelope{"data": creds})
}

type joinRoomInput struct {
	Name      string `json:"name" validate:"required,max=32"`
	AvatarURL string `json:"avatar_url" validate:"omitempty,url"`
}

func (c controller) joinRoom(w http.ResponseWriter, r *http.Request) {
	var input joinRoomInput
	if err := rest.ReadJSON(r, &input); err != nil {
		c.logger.DebugContext(r.Context(), "failed to read json", "error", err)
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(input); !ok {
		c.logger.DebugContext(r.Context(), "invalid input", "errors", validationErrors)
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	creds, err := c.roomService.JoinRoom(r.Context(), &room.JoinRoomParams{
		RoomID:    chi.URLParam(r, "room-id"),
		Name:      input.Name,
		AvatarURL: input.AvatarURL,
	})
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": creds})
}

func (c controller) getRoomInfo(w http.ResponseWriter, r *http.Request) {
	info, err := c.roomService.GetRoomInfo(r.Context(), c.getRoomIdFromCtx(r.Context()))
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": info})
}

type getRoomUsersInput struct {
	IDs []string `json:"ids" validate:"required,min=1,max=100,dive,required"`
}

func (c controller) getRoomUsers(w http.ResponseWriter, r *http.Request) {
	var input getRoomUsersInput
	if err := rest.ReadJSON(r, &input); err != nil {
		c.logger.DebugContext(r.Context(), "failed to read json", "error", err)
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(input); !ok {
		c.logger.DebugContext(r.Context(), "invalid input", "errors", validationErrors)
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	users, err := c.roomService.GetRoomUsers(r.Context(), c.getRoomIdFromCtx(r.Context()), input.IDs)
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": users})
}

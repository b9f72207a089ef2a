package chatbot

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	invhandler "github.com/smartinventory/smartinventory-backend/internal/inventory/handler"
	"github.com/smartinventory/smartinventory-backend/pkg/httputil"
	"github.com/smartinventory/smartinventory-backend/pkg/logger"
	"github.com/smartinventory/smartinventory-backend/pkg/permissions"
)

// AskRequest is the chatbot request body.
type AskRequest struct {
	Message string `json:"message"`
}

// Handler serves the chatbot endpoint.
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// NewHandler creates a chatbot handler.
func NewHandler(svc *Service, log *logger.Logger) *Handler {
	return &Handler{service: svc, logger: log.WithComponent("chatbot-handler")}
}

// Register mounts POST /api/chatbot.
func (h *Handler) Register(r chi.Router, guard invhandler.Guard) {
	if guard != nil {
		r = r.With(guard(permissions.ItemsRead))
	}
	r.Post("/api/chatbot", h.Ask)
}

// Ask handles POST /api/chatbot
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	reply, err := h.service.Ask(r.Context(), req.Message)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.Raw(w, http.StatusOK, reply)
}

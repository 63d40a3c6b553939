package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"referearn/internal/referral/models"
	dErrors "referearn/pkg/domain-errors"
	"referearn/pkg/platform/httputil"
	"referearn/pkg/requestcontext"
)

// Public error messages. Store and notification failures share one message.
const (
	MsgFetchFailed   = "Failed to fetch referrals"
	MsgProcessFailed = "Failed to process referral"
	MsgCreated       = "Referral created successfully"
)

// Service defines the interface for referral operations.
type Service interface {
	Submit(ctx context.Context, sub models.Submission) (*models.Referral, error)
	List(ctx context.Context) ([]models.Referral, error)
	Health(ctx context.Context) models.HealthStatus
}

// Handler maps referral HTTP requests onto the referral service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a referral handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts the health and referral routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/health", h.HandleHealth)
	r.Get("/api/referrals", h.HandleList)
	r.Post("/api/referrals", h.HandleCreate)
}

// HandleHealth handles GET /health. It always answers 200.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.service.Health(r.Context()))
}

// HandleList handles GET /api/referrals.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	referrals, err := h.service.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "error fetching referrals",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteErrorMessage(w, err, MsgFetchFailed)
		return
	}
	if referrals == nil {
		referrals = []models.Referral{}
	}
	httputil.WriteJSON(w, http.StatusOK, referrals)
}

// HandleCreate handles POST /api/referrals.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	var sub models.Submission
	if err := httputil.DecodeJSON(r, &sub); err != nil {
		// An unreadable body carries none of the required fields.
		h.logger.WarnContext(ctx, "invalid referral request body",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteErrorMessage(w, err, models.MsgAllFieldsRequired)
		return
	}

	referral, err := h.service.Submit(ctx, sub)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeValidation) {
			httputil.WriteErrorMessage(w, err, models.MsgAllFieldsRequired)
			return
		}
		h.logger.ErrorContext(ctx, "error processing referral",
			"request_id", requestID,
			"code", dErrors.CodeOf(err),
			"error", err,
		)
		httputil.WriteErrorMessage(w, err, MsgProcessFailed)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, CreateResponse{
		Message:  MsgCreated,
		Referral: referral,
	})
}

package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/OzanD26/halk-habercisi/internal/domain/enums"
	pgrepo "github.com/OzanD26/halk-habercisi/internal/repo/postgres"
	modsvc "github.com/OzanD26/halk-habercisi/internal/services/moderation"
	"github.com/OzanD26/halk-habercisi/internal/transport/http/dto"
	httperrors "github.com/OzanD26/halk-habercisi/internal/transport/http/errors"
)

// MediaResolver picks the URL to serve for a stored report.
type MediaResolver interface {
	Resolve(ctx context.Context, storagePath, mediaURL string) string
}

type ModerationHandler struct {
	service  *modsvc.Service
	resolver MediaResolver
}

func NewModerationHandler(service *modsvc.Service) *ModerationHandler {
	return &ModerationHandler{service: service}
}

// AttachResolver enables fresh download URLs in list responses.
func (h *ModerationHandler) AttachResolver(resolver MediaResolver) {
	h.resolver = resolver
}

func (h *ModerationHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	tab := enums.FilterTabAll
	if raw := r.URL.Query().Get("tab"); raw != "" {
		parsed, err := enums.ParseFilterTab(raw)
		if err != nil {
			writeBadRequest(w, "VALIDATION_ERROR", "tab must be one of all, pending, approved")
			return
		}
		tab = parsed
	}

	records, err := h.service.ListReports(r.Context(), tab)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to load reports")
		return
	}

	items := make([]dto.ModerationReportResponse, 0, len(records))
	for _, rec := range records {
		items = append(items, h.reportResponse(r.Context(), rec))
	}
	httperrors.Write(w, http.StatusOK, dto.ModerationReportsListResponse{Items: items})
}

func (h *ModerationHandler) ToggleApproved(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	id := chi.URLParam(r, "id")
	record, err := h.service.ToggleApproved(r.Context(), id)
	if err != nil {
		handleModerationError(w, err)
		return
	}
	httperrors.Write(w, http.StatusOK, h.reportResponse(r.Context(), record))
}

func (h *ModerationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.service.DeleteReport(r.Context(), id); err != nil {
		handleModerationError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ModerationHandler) reportResponse(ctx context.Context, rec pgrepo.ReportRecord) dto.ModerationReportResponse {
	storagePath := ""
	if rec.StoragePath != nil {
		storagePath = *rec.StoragePath
	}

	mediaURL := rec.MediaURL
	if h.resolver != nil {
		mediaURL = h.resolver.Resolve(ctx, storagePath, rec.MediaURL)
	}

	var location *dto.LocationPayload
	if rec.Latitude != nil && rec.Longitude != nil {
		location = &dto.LocationPayload{Latitude: *rec.Latitude, Longitude: *rec.Longitude}
	}

	return dto.ModerationReportResponse{
		ID:          rec.ID,
		Description: rec.Description,
		MediaURL:    mediaURL,
		StoragePath: storagePath,
		MediaType:   rec.MediaType,
		Approved:    rec.Approved,
		Location:    location,
		CreatedAt:   rec.CreatedAt,
	}
}

func handleModerationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pgrepo.ErrReportNotFound):
		writeNotFound(w, "REPORT_NOT_FOUND", "report does not exist")
	default:
		writeInternal(w, "INTERNAL_ERROR", "moderation operation failed")
	}
}

package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	reportsvc "github.com/OzanD26/halk-habercisi/internal/services/report"
	uploadsvc "github.com/OzanD26/halk-habercisi/internal/services/upload"
	"github.com/OzanD26/halk-habercisi/internal/transport/http/dto"
	httperrors "github.com/OzanD26/halk-habercisi/internal/transport/http/errors"
)

type ReportHandler struct {
	service  *reportsvc.Service
	maxBytes int64
}

func NewReportHandler(service *reportsvc.Service, maxBytes int64) *ReportHandler {
	return &ReportHandler{service: service, maxBytes: maxBytes}
}

// Submit accepts a multipart form with the media file, a description and
// an optional latitude/longitude pair, and runs the submission pipeline.
func (h *ReportHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "REPORT_SERVICE_UNAVAILABLE", "report service is unavailable")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		writeBadRequest(w, "VALIDATION_ERROR", "invalid multipart form")
		return
	}

	var asset *reportsvc.MediaAsset
	var payload []byte
	if file, header, err := r.FormFile("file"); err == nil {
		defer file.Close()
		payload, err = io.ReadAll(file)
		if err != nil {
			writeBadRequest(w, "VALIDATION_ERROR", "failed to read uploaded file")
			return
		}
		contentType := header.Header.Get("Content-Type")
		asset = &reportsvc.MediaAsset{
			URI:       header.Filename,
			Kind:      reportsvc.DetectKind(contentType, header.Filename),
			MimeType:  contentType,
			SizeBytes: header.Size,
		}
	}

	location, ok := parseLocation(r)
	if !ok {
		writeBadRequest(w, "VALIDATION_ERROR", "latitude and longitude must be valid numbers")
		return
	}

	report, err := h.service.Submit(
		r.Context(),
		asset,
		payload,
		r.FormValue("description"),
		location,
		nil,
	)
	if err != nil {
		handleReportError(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, dto.SubmitReportResponse{
		ID:          report.ID,
		Description: report.Description,
		MediaURL:    report.MediaURL,
		StoragePath: report.StoragePath,
		MediaType:   string(report.MediaType),
		Approved:    report.Approved,
		Location:    locationPayload(report.Location),
		CreatedAt:   report.CreatedAt,
	})
}

// parseLocation reads the optional coordinate pair. A pair is only
// accepted whole: a lone latitude or longitude counts as absent and the
// service reports the missing location field.
func parseLocation(r *http.Request) (*reportsvc.Location, bool) {
	latRaw := r.FormValue("latitude")
	lonRaw := r.FormValue("longitude")
	if latRaw == "" || lonRaw == "" {
		return nil, true
	}

	lat, err := strconv.ParseFloat(latRaw, 64)
	if err != nil {
		return nil, false
	}
	lon, err := strconv.ParseFloat(lonRaw, 64)
	if err != nil {
		return nil, false
	}
	return &reportsvc.Location{Latitude: lat, Longitude: lon}, true
}

func locationPayload(loc *reportsvc.Location) *dto.LocationPayload {
	if loc == nil {
		return nil
	}
	return &dto.LocationPayload{Latitude: loc.Latitude, Longitude: loc.Longitude}
}

func handleReportError(w http.ResponseWriter, err error) {
	var validationErr *reportsvc.ValidationError
	var protocolErr *uploadsvc.ProtocolError
	var transferErr *uploadsvc.TransferError
	var persistErr *reportsvc.PersistenceError

	switch {
	case errors.As(err, &validationErr):
		httperrors.Write(w, http.StatusBadRequest, httperrors.FieldsError{
			Code:    "VALIDATION_ERROR",
			Message: validationErr.Error(),
			Fields:  validationErr.Fields,
		})
	case errors.As(err, &protocolErr):
		writeBadGateway(w, "UPLOAD_HANDSHAKE_FAILED", "storage backend rejected the upload handshake")
	case errors.As(err, &transferErr):
		writeBadGateway(w, "UPLOAD_TRANSFER_FAILED", "storage backend rejected the media transfer")
	case errors.As(err, &persistErr):
		writeInternal(w, "REPORT_PERSIST_FAILED", "report could not be saved")
	default:
		writeInternal(w, "INTERNAL_ERROR", "report submission failed")
	}
}

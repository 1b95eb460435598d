package handler

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/imelnik/fintrack/internal/ingest"
	"github.com/imelnik/fintrack/internal/service"
)

// Uploads are capped to keep a bad client from buffering gigabytes.
const maxUploadBytes = 16 << 20

type plansInsertResponse struct {
	Message  string `json:"message"`
	Inserted int    `json:"inserted"`
}

// plansInsertHandler serves POST /plans_insert. The plan file arrives
// either as a multipart form field named "file" or as the raw request
// body with a CSV content type.
func plansInsertHandler(svc *service.ReportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /plans_insert")
		defer span.End()

		body, err := planFileReader(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		defer body.Close()

		records, err := ingest.ParsePlanRecords(io.LimitReader(body, maxUploadBytes))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		n, err := svc.InsertPlans(ctx, records)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, plansInsertResponse{
			Message:  "Plans inserted successfully",
			Inserted: n,
		})
	}
}

// planFileReader extracts the uploaded plan file from the request.
func planFileReader(r *http.Request) (io.ReadCloser, error) {
	contentType := r.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = contentType
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, errors.New("multipart field \"file\" is required")
		}
		return file, nil
	}
	return r.Body, nil
}

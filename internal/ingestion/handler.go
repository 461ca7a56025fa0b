package ingestion

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	v1 "github.com/MercuryTechnologies/streamly/internal/api/v1"
	httperr "github.com/MercuryTechnologies/streamly/internal/core/errors"
	"github.com/MercuryTechnologies/streamly/internal/core/storage"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgReadBodyFailed  = "Failed to read request body"
	msgInvalidJSON     = "Invalid JSON body"
	msgPersistFailed   = "Failed to persist sample"
	msgDuplicateSample = "Sample already exists"
)

// ingestionError carries the structured HTTP error shape from a helper back
// to the orchestrator. Helpers return this instead of writing to gin.Context
// directly, keeping them decoupled from HTTP.
type ingestionError struct {
	statusCode int
	errorType  string
	message    string
	details    interface{}
}

func (e *ingestionError) Error() string {
	return e.message
}

// IngestHandler handles HTTP POST requests for sample ingestion. A sample is
// persisted first and only then fed to the tracker, so a crash between the
// two is repaired by startup replay rather than by double counting.
func (s *Service) IngestHandler(c *gin.Context) {
	smp, payloadSize, err := s.parseSample(c)
	if err != nil {
		writeError(c, err)
		return
	}

	slog.Info("Received sample",
		"sample_id", smp.ID,
		"metric", smp.Metric,
		"payload_size", payloadSize)

	if err := s.persistSample(c.Request.Context(), smp); err != nil {
		writeError(c, err)
		return
	}

	s.tracker.Observe(smp.Metric, smp.Float64())

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted", "id": smp.ID})
}

// parseSample reads the raw request body and binds it into a Sample. Returns
// the parsed sample and the raw payload size (used for structured logging
// upstream).
func (s *Service) parseSample(c *gin.Context) (*v1.Sample, int, *ingestionError) {
	// Enforce maximum body size to prevent OOM attacks
	maxBytes := int64(s.maxBodySizeBytes)
	limitedBody := io.LimitReader(c.Request.Body, maxBytes+1) // +1 to detect oversized requests

	bodyBytes, err := io.ReadAll(limitedBody)
	if err != nil {
		slog.Error("Failed to read request body", "error", err)
		return nil, 0, &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgReadBodyFailed,
		}
	}

	if int64(len(bodyBytes)) > maxBytes {
		slog.Warn("Request body exceeds maximum size", "size", len(bodyBytes), "max", maxBytes)
		return nil, len(bodyBytes), &ingestionError{
			statusCode: http.StatusRequestEntityTooLarge,
			errorType:  httperr.HttpInvalidJsonError,
			message:    "Request body exceeds maximum allowed size",
			details: map[string]interface{}{
				"max_size_mb": maxBytes / (1024 * 1024),
			},
		}
	}

	c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))

	var smp v1.Sample
	if err := c.ShouldBindJSON(&smp); err != nil {
		slog.Warn("Invalid JSON body received", "error", err, "payload_size", len(bodyBytes))
		return nil, len(bodyBytes), &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidJsonError,
			message:    msgInvalidJSON,
		}
	}

	if err := smp.Validate(); err != nil {
		slog.Warn("Sample validation failed", "error", err, "sample_id", smp.ID)
		return nil, len(bodyBytes), &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidSampleError,
			message:    err.Error(),
		}
	}

	now := time.Now().UTC()
	if smp.ID == "" {
		smp.ID = uuid.New().String()
	}
	if smp.OccurredAt.IsZero() {
		smp.OccurredAt = now
	}
	smp.IngestedAt = now

	return &smp, len(bodyBytes), nil
}

// persistSample saves the sample to the backing store.
func (s *Service) persistSample(ctx context.Context, smp *v1.Sample) *ingestionError {
	if err := s.store.SaveSample(ctx, smp); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			slog.Info("Duplicate sample rejected", "sample_id", smp.ID, "metric", smp.Metric)
			return &ingestionError{
				statusCode: http.StatusConflict,
				errorType:  httperr.HttpDuplicateSampleError,
				message:    msgDuplicateSample,
			}
		}

		slog.Error("Failed to persist sample", "error", err, "sample_id", smp.ID)
		return &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgPersistFailed,
		}
	}

	return nil
}

// writeError serializes an ingestionError as the JSON HTTP response.
func writeError(c *gin.Context, err *ingestionError) {
	c.JSON(err.statusCode, httperr.ErrorResponse{
		ErrorType: err.errorType,
		Message:   err.message,
		Details:   err.details,
	})
}

package ingestion

import (
	"github.com/MercuryTechnologies/streamly/internal/core/storage"
	"github.com/MercuryTechnologies/streamly/internal/tracker"
	"github.com/gin-gonic/gin"
)

type Service struct {
	tracker          *tracker.Tracker
	store            storage.SampleStore
	maxBodySizeBytes int
}

func NewService(tr *tracker.Tracker, store storage.SampleStore, maxBodySizeMB int) *Service {
	if tr == nil {
		panic("ingestion: tracker must not be nil")
	}
	if store == nil {
		panic("ingestion: store must not be nil")
	}
	if maxBodySizeMB <= 0 {
		maxBodySizeMB = 1 // default to 1MB
	}
	return &Service{
		tracker:          tr,
		store:            store,
		maxBodySizeBytes: maxBodySizeMB * 1024 * 1024,
	}
}

// RegisterRoutes registers the ingestion service routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.POST("/v1/samples", s.IngestHandler)
}

package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/markdave123-py/MindMesh/internal/core/pipeline"
)

// EventsHandler receives S3 object-created notifications and feeds matching
// keys to the ingestion queue. Delivery is at-least-once, so a key may show
// up more than once.
type EventsHandler struct {
	ingestor *pipeline.DocumentIngestor
	logger   *slog.Logger
}

func NewEventsHandler(ingestor *pipeline.DocumentIngestor, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{ingestor: ingestor, logger: logger}
}

// s3Event mirrors the S3 notification payload, keeping only what routing
// needs. Object keys arrive URL-encoded.
type s3Event struct {
	Records []struct {
		EventName string `json:"eventName"`
		S3        struct {
			Bucket struct {
				Name string `json:"name"`
			} `json:"bucket"`
			Object struct {
				Key string `json:"key"`
			} `json:"object"`
		} `json:"s3"`
	} `json:"Records"`
}

func (h *EventsHandler) S3ObjectCreated(w http.ResponseWriter, r *http.Request) {
	var event s3Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		http.Error(w, "invalid event payload", http.StatusBadRequest)
		return
	}

	accepted := 0
	for _, rec := range event.Records {
		key, err := url.QueryUnescape(rec.S3.Object.Key)
		if err != nil {
			h.logger.Warn("undecodable object key in event", "key", rec.S3.Object.Key)
			continue
		}
		if !pipeline.MatchesTrigger(key) {
			continue
		}
		h.ingestor.Enqueue(pipeline.IngestJob{Bucket: rec.S3.Bucket.Name, Key: key})
		accepted++
	}

	h.logger.Info("s3 event processed", "records", len(event.Records), "accepted", accepted)
	w.WriteHeader(http.StatusAccepted)
}

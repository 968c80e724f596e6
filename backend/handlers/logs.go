package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/PhilHem/registry-server/backend/database"
	"github.com/PhilHem/registry-server/backend/middleware"
	"github.com/PhilHem/registry-server/backend/models"
	"github.com/PhilHem/registry-server/backend/repository"
)

const dateLayout = "2006-01-02"

type CreateLogRequest struct {
	ImageID        *int64     `json:"image_id"`
	OrganizationID *int64     `json:"organization_id"`
	Username       *string    `json:"username"`
	Datetime       *time.Time `json:"datetime"`
}

type LogsResponse struct {
	Logs  []models.LogEntry `json:"logs"`
	Total int               `json:"total"`
}

type StatsResponse struct {
	ImageID int64               `json:"image_id"`
	Start   string              `json:"start"`
	End     string              `json:"end"`
	Stats   []models.StatBucket `json:"stats"`
}

func logRepo() *repository.LogRepository {
	return repository.NewLogRepository(database.DB)
}

// CreateLog records one access event. Without any identifier in the body the
// authenticated caller's username is used.
func CreateLog(w http.ResponseWriter, r *http.Request) {
	var req CreateLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.Username != nil && strings.TrimSpace(*req.Username) == "" {
		req.Username = nil
	}
	if req.ImageID == nil && req.OrganizationID == nil && req.Username == nil {
		if name, ok := middleware.Username(r.Context()); ok {
			req.Username = &name
		} else {
			http.Error(w, "One of image_id, organization_id or username is required", http.StatusBadRequest)
			return
		}
	}

	entry := models.LogEntry{
		ImageID:        req.ImageID,
		OrganizationID: req.OrganizationID,
		Username:       req.Username,
	}
	if req.Datetime != nil {
		entry.Datetime = *req.Datetime
	}
	if err := logRepo().Create(r.Context(), &entry); err != nil {
		storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

var errPartialRange = errors.New("start and end must be given together")

// queryRange reads the optional RFC 3339 start/end parameters.
// ok is false when neither is present.
func queryRange(r *http.Request) (start, end time.Time, ok bool, err error) {
	rawStart, rawEnd := r.URL.Query().Get("start"), r.URL.Query().Get("end")
	if rawStart == "" && rawEnd == "" {
		return time.Time{}, time.Time{}, false, nil
	}
	if rawStart == "" || rawEnd == "" {
		return time.Time{}, time.Time{}, false, errPartialRange
	}
	if start, err = time.Parse(time.RFC3339, rawStart); err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	if end, err = time.Parse(time.RFC3339, rawEnd); err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	return start, end, true, nil
}

type (
	allLogs   func(ctx context.Context) ([]models.LogEntry, error)
	rangeLogs func(ctx context.Context, start, end time.Time) ([]models.LogEntry, error)
)

func serveLogs(w http.ResponseWriter, r *http.Request, all allLogs, between rangeLogs) {
	start, end, ranged, err := queryRange(r)
	if err != nil {
		http.Error(w, "Invalid time range: "+err.Error(), http.StatusBadRequest)
		return
	}

	var logs []models.LogEntry
	if ranged {
		logs, err = between(r.Context(), start, end)
	} else {
		logs, err = all(r.Context())
	}
	if err != nil {
		storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LogsResponse{Logs: logs, Total: len(logs)})
}

func GetImageLogs(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid image id", http.StatusBadRequest)
		return
	}
	repo := logRepo()
	serveLogs(w, r,
		func(ctx context.Context) ([]models.LogEntry, error) { return repo.LogsByImageID(ctx, id) },
		func(ctx context.Context, start, end time.Time) ([]models.LogEntry, error) {
			return repo.LogsByImageIDBetween(ctx, id, start, end)
		})
}

func GetOrganizationLogs(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid organization id", http.StatusBadRequest)
		return
	}
	repo := logRepo()
	serveLogs(w, r,
		func(ctx context.Context) ([]models.LogEntry, error) { return repo.LogsByOrganizationID(ctx, id) },
		func(ctx context.Context, start, end time.Time) ([]models.LogEntry, error) {
			return repo.LogsByOrganizationIDBetween(ctx, id, start, end)
		})
}

func GetUserLogs(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")
	repo := logRepo()
	serveLogs(w, r,
		func(ctx context.Context) ([]models.LogEntry, error) { return repo.LogsByUsername(ctx, username) },
		func(ctx context.Context, start, end time.Time) ([]models.LogEntry, error) {
			return repo.LogsByUsernameBetween(ctx, username, start, end)
		})
}

// GetImageStats returns per-day access counts for an image between two
// calendar dates, both inclusive. Days without activity are not listed.
func GetImageStats(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid image id", http.StatusBadRequest)
		return
	}
	q := r.URL.Query()
	start, err := time.Parse(dateLayout, q.Get("start"))
	if err != nil {
		http.Error(w, "start must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	end, err := time.Parse(dateLayout, q.Get("end"))
	if err != nil {
		http.Error(w, "end must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	stats, err := logRepo().Stats(r.Context(), id, start, end)
	if err != nil {
		storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, StatsResponse{
		ImageID: id,
		Start:   start.Format(dateLayout),
		End:     end.Format(dateLayout),
		Stats:   stats,
	})
}

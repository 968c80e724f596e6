package repository

import (
	"context"
	"time"

	"github.com/PhilHem/registry-server/backend/models"

	"gorm.io/gorm"
)

// LogRepository reads and writes usage log entries.
// Every lookup returns an empty, non-nil slice when nothing matches.
type LogRepository struct {
	db *gorm.DB
}

func NewLogRepository(db *gorm.DB) *LogRepository {
	return &LogRepository{db: db}
}

// TimeRange is a closed interval [Start, End].
type TimeRange struct {
	Start time.Time
	End   time.Time
}

func (r *LogRepository) LogsByImageID(ctx context.Context, imageID int64) ([]models.LogEntry, error) {
	return r.find(ctx, "image_id", imageID, nil)
}

func (r *LogRepository) LogsByOrganizationID(ctx context.Context, organizationID int64) ([]models.LogEntry, error) {
	return r.find(ctx, "organization_id", organizationID, nil)
}

func (r *LogRepository) LogsByUsername(ctx context.Context, username string) ([]models.LogEntry, error) {
	return r.find(ctx, "username", username, nil)
}

func (r *LogRepository) LogsByImageIDBetween(ctx context.Context, imageID int64, start, end time.Time) ([]models.LogEntry, error) {
	return r.find(ctx, "image_id", imageID, &TimeRange{Start: start, End: end})
}

func (r *LogRepository) LogsByOrganizationIDBetween(ctx context.Context, organizationID int64, start, end time.Time) ([]models.LogEntry, error) {
	return r.find(ctx, "organization_id", organizationID, &TimeRange{Start: start, End: end})
}

func (r *LogRepository) LogsByUsernameBetween(ctx context.Context, username string, start, end time.Time) ([]models.LogEntry, error) {
	return r.find(ctx, "username", username, &TimeRange{Start: start, End: end})
}

// find filters on one of the identifying columns and, when between is set,
// on an inclusive datetime range. column is never caller input.
func (r *LogRepository) find(ctx context.Context, column string, value any, between *TimeRange) ([]models.LogEntry, error) {
	q := r.db.WithContext(ctx).Model(&models.LogEntry{})
	if between != nil {
		q = q.Where(column+" IS NOT NULL").
			Where(column+" = ?", value).
			Where("datetime BETWEEN ? AND ?", between.Start.UTC(), between.End.UTC())
	} else {
		q = q.Where(column+" = ?", value)
	}

	logs := []models.LogEntry{}
	if err := q.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// Stats counts the entries for imageID per UTC calendar day, covering every
// instant of startDate through endDate. Days without entries are omitted;
// buckets come back in ascending date order.
func (r *LogRepository) Stats(ctx context.Context, imageID int64, startDate, endDate time.Time) ([]models.StatBucket, error) {
	buckets := []models.StatBucket{}
	if err := statsQuery(r.db.WithContext(ctx), imageID, startDate, endDate).Scan(&buckets).Error; err != nil {
		return nil, err
	}
	return buckets, nil
}

func statsQuery(db *gorm.DB, imageID int64, startDate, endDate time.Time) *gorm.DB {
	day := dayExpr(db.Dialector.Name())
	from := truncateDay(startDate)
	until := truncateDay(endDate).AddDate(0, 0, 1)

	return db.Model(&models.LogEntry{}).
		Select("count(id) AS count, "+day+" AS date").
		Where("image_id = ?", imageID).
		Where("datetime >= ? AND datetime < ?", from, until).
		Group(day).
		Order(day)
}

// dayExpr formats the datetime column as a UTC "YYYY-MM-DD" for the given dialect.
func dayExpr(dialect string) string {
	if dialect == "postgres" {
		return "to_char(datetime AT TIME ZONE 'UTC', 'YYYY-MM-DD')"
	}
	return "strftime('%Y-%m-%d', datetime)"
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Create records one access event. A zero Datetime is set to now.
func (r *LogRepository) Create(ctx context.Context, entry *models.LogEntry) error {
	if entry.Datetime.IsZero() {
		entry.Datetime = time.Now()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

// DeleteBefore removes entries older than cutoff and reports how many went.
func (r *LogRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("datetime < ?", cutoff.UTC()).Delete(&models.LogEntry{})
	return result.RowsAffected, result.Error
}

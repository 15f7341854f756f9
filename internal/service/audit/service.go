package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	apperrors "insta-giveaway-backend/internal/common/errors"
	"insta-giveaway-backend/internal/common/logger"
	da "insta-giveaway-backend/internal/domain/audit"
	"insta-giveaway-backend/internal/metrics"
)

const exportPageSize = 1000

// Publisher pushes an event onto the audit stream.
type Publisher interface {
	Publish(ctx context.Context, values map[string]interface{}) error
}

// ObjectStore receives audit exports.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body []byte) error
}

// Service writes and reads the audit log. Publisher and store are optional.
type Service struct {
	repo      da.Repository
	publisher Publisher
	store     ObjectStore
	now       func() time.Time
	log       zerolog.Logger
}

func NewService(repo da.Repository, publisher Publisher, store ObjectStore) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		store:     store,
		now:       func() time.Time { return time.Now().UTC() },
		log:       logger.Component("audit"),
	}
}

// Record appends l and then publishes it. Only the append can fail the call.
func (s *Service) Record(ctx context.Context, l *da.Log) error {
	if l.Timestamp.IsZero() {
		l.Timestamp = s.now()
	}
	if l.ActionDetails == nil {
		l.ActionDetails = map[string]interface{}{}
	}
	if err := s.repo.Append(ctx, l); err != nil {
		return apperrors.NewDatabaseError("append audit log", err)
	}

	if s.publisher == nil {
		return nil
	}
	values, err := StreamValues(l)
	if err != nil {
		s.log.Error().Err(err).Int64("audit_id", l.ID).Msg("Failed to encode audit event")
		metrics.AuditPublishErrors.Inc()
		return nil
	}
	if err := s.publisher.Publish(ctx, values); err != nil {
		s.log.Error().Err(err).Int64("audit_id", l.ID).Str("action", string(l.ActionType)).Msg("Failed to publish audit event")
		metrics.AuditPublishErrors.Inc()
	}
	return nil
}

// StreamValues flattens a log row into stream fields. Details are JSON encoded.
func StreamValues(l *da.Log) (map[string]interface{}, error) {
	details, err := json.Marshal(l.ActionDetails)
	if err != nil {
		return nil, err
	}
	values := map[string]interface{}{
		"id":          strconv.FormatInt(l.ID, 10),
		"action_type": string(l.ActionType),
		"object_type": l.ObjectType,
		"object_id":   l.ObjectID,
		"timestamp":   l.Timestamp.UTC().Format(time.RFC3339Nano),
		"details":     string(details),
	}
	if l.UserID != nil {
		values["user_id"] = strconv.FormatInt(*l.UserID, 10)
	}
	return values, nil
}

// List returns audit rows. Staff only.
func (s *Service) List(ctx context.Context, staff bool, f da.Filter) ([]da.Log, error) {
	if !staff {
		return nil, apperrors.NewForbiddenError("Staff access required")
	}
	out, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list audit logs", err)
	}
	return out, nil
}

// Export writes every row since the given time as NDJSON to object storage
// and returns the object key.
func (s *Service) Export(ctx context.Context, staff bool, since time.Time) (string, int, error) {
	if !staff {
		return "", 0, apperrors.NewForbiddenError("Staff access required")
	}
	if s.store == nil {
		return "", 0, apperrors.New(apperrors.ErrCodeBadRequest, "Audit export storage is not configured")
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	total := 0
	for offset := 0; ; offset += exportPageSize {
		page, err := s.repo.List(ctx, da.Filter{
			Since:     &since,
			Ascending: true,
			Limit:     exportPageSize,
			Offset:    offset,
		})
		if err != nil {
			return "", 0, apperrors.NewDatabaseError("list audit logs", err)
		}
		for i := range page {
			if err := enc.Encode(&page[i]); err != nil {
				return "", 0, apperrors.Wrap(err, apperrors.ErrCodeInternal, "Failed to encode audit log")
			}
		}
		total += len(page)
		if len(page) < exportPageSize {
			break
		}
	}

	now := s.now()
	key := fmt.Sprintf("audit/%04d/%02d/%02d/%d.ndjson", now.Year(), int(now.Month()), now.Day(), now.Unix())
	if err := s.store.Put(ctx, key, "application/x-ndjson", buf.Bytes()); err != nil {
		return "", 0, apperrors.NewStorageError("upload audit export", err)
	}

	s.log.Info().Str("key", key).Int("rows", total).Time("since", since).Msg("Audit log exported")
	return key, total, nil
}

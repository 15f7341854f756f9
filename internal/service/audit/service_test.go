package audit

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "insta-giveaway-backend/internal/common/errors"
	da "insta-giveaway-backend/internal/domain/audit"
)

type memRepo struct {
	rows []da.Log
	err  error
}

func (m *memRepo) Append(_ context.Context, l *da.Log) error {
	if m.err != nil {
		return m.err
	}
	l.ID = int64(len(m.rows) + 1)
	m.rows = append(m.rows, *l)
	return nil
}

func (m *memRepo) List(_ context.Context, f da.Filter) ([]da.Log, error) {
	var out []da.Log
	for _, r := range m.rows {
		if f.Since != nil && r.Timestamp.Before(*f.Since) {
			continue
		}
		if f.ActionType != "" && r.ActionType != f.ActionType {
			continue
		}
		out = append(out, r)
	}
	if f.Offset >= len(out) {
		return nil, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, values map[string]interface{}) error {
	return m.Called(ctx, values).Error(0)
}

type memStore struct {
	key  string
	body []byte
}

func (m *memStore) Put(_ context.Context, key, _ string, body []byte) error {
	m.key = key
	m.body = body
	return nil
}

func TestRecord_AppendsAndPublishes(t *testing.T) {
	repo := &memRepo{}
	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(v map[string]interface{}) bool {
		return v["action_type"] == "entry_created" && v["object_id"] == "e1" && v["user_id"] == "7"
	})).Return(nil).Once()

	svc := NewService(repo, pub, nil)
	uid := int64(7)
	err := svc.Record(context.Background(), &da.Log{
		UserID:        &uid,
		ActionType:    da.ActionEntryCreated,
		ObjectType:    da.ObjectEntry,
		ObjectID:      "e1",
		ActionDetails: map[string]interface{}{"giveaway_id": "g1"},
	})
	require.NoError(t, err)
	require.Len(t, repo.rows, 1)
	assert.False(t, repo.rows[0].Timestamp.IsZero())
	pub.AssertExpectations(t)
}

func TestRecord_PublishFailureIsNotReturned(t *testing.T) {
	repo := &memRepo{}
	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("redis down"))

	svc := NewService(repo, pub, nil)
	require.NoError(t, svc.Record(context.Background(), &da.Log{ActionType: da.ActionWinnerSelected}))
	assert.Len(t, repo.rows, 1)
}

func TestRecord_AppendFailure(t *testing.T) {
	svc := NewService(&memRepo{err: errors.New("db down")}, nil, nil)
	err := svc.Record(context.Background(), &da.Log{ActionType: da.ActionWinnerSelected})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeDatabaseError))
}

func TestList_StaffOnly(t *testing.T) {
	svc := NewService(&memRepo{}, nil, nil)
	_, err := svc.List(context.Background(), false, da.Filter{})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeForbidden))

	_, err = svc.List(context.Background(), true, da.Filter{})
	assert.NoError(t, err)
}

func TestExport(t *testing.T) {
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	repo := &memRepo{}
	store := &memStore{}
	svc := NewService(repo, nil, store)
	svc.now = func() time.Time { return now }

	for i, ts := range []time.Time{now.Add(-48 * time.Hour), now.Add(-time.Hour), now.Add(-time.Minute)} {
		require.NoError(t, svc.Record(context.Background(), &da.Log{
			ActionType: da.ActionEntryCreated,
			ObjectID:   string(rune('a' + i)),
			Timestamp:  ts,
		}))
	}

	key, n, err := svc.Export(context.Background(), true, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "audit/2026/03/04/1772600767.ndjson", key)
	assert.Equal(t, key, store.key)

	sc := bufio.NewScanner(bytes.NewReader(store.body))
	lines := 0
	for sc.Scan() {
		var row map[string]interface{}
		require.NoError(t, json.Unmarshal(sc.Bytes(), &row))
		assert.Equal(t, "entry_created", row["action_type"])
		lines++
	}
	assert.Equal(t, 2, lines)
}

func TestExport_NotConfigured(t *testing.T) {
	svc := NewService(&memRepo{}, nil, nil)
	_, _, err := svc.Export(context.Background(), true, time.Now())
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeBadRequest))
}

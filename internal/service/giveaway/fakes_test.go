package giveaway

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	rediscache "insta-giveaway-backend/internal/cache/redis"
	"insta-giveaway-backend/internal/domain/audit"
	dg "insta-giveaway-backend/internal/domain/giveaway"
	"insta-giveaway-backend/internal/domain/social"
)

// errInvalidUUID stands in for the Postgres 22P02 error raised when a
// malformed id is compared against a uuid column.
var errInvalidUUID = errors.New("pq: invalid input syntax for type uuid")

func checkUUID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errInvalidUUID
	}
	return nil
}

type fakeGiveaways struct {
	mu   sync.Mutex
	rows map[string]dg.Giveaway
}

func newFakeGiveaways() *fakeGiveaways { return &fakeGiveaways{rows: map[string]dg.Giveaway{}} }

func (f *fakeGiveaways) Create(_ context.Context, g *dg.Giveaway) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[g.ID] = *g
	return nil
}

func (f *fakeGiveaways) GetByID(_ context.Context, id string) (*dg.Giveaway, error) {
	if err := checkUUID(id); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	return &g, nil
}

func (f *fakeGiveaways) Update(_ context.Context, g *dg.Giveaway) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[g.ID] = *g
	return nil
}

func (f *fakeGiveaways) UpdateStatus(_ context.Context, id string, status dg.GiveawayStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := f.rows[id]
	g.Status = status
	f.rows[id] = g
	return nil
}

func (f *fakeGiveaways) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, id)
	return nil
}

func (f *fakeGiveaways) List(_ context.Context, flt dg.ListFilter) ([]dg.Giveaway, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []dg.Giveaway
	for _, g := range f.rows {
		if flt.CreatedBy != nil && g.CreatedBy != *flt.CreatedBy {
			continue
		}
		if !flt.Viewer.IsStaff && !g.IsPublic() && g.CreatedBy != flt.Viewer.UserID {
			continue
		}
		if flt.Status != "" && g.Status != flt.Status {
			continue
		}
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeGiveaways) ListExpiredActive(_ context.Context, now time.Time) ([]dg.Giveaway, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []dg.Giveaway
	for _, g := range f.rows {
		if g.Status == dg.GiveawayStatusActive && g.EndDate.Before(now) {
			out = append(out, g)
		}
	}
	return out, nil
}

type fakeEntries struct {
	mu        sync.Mutex
	rows      map[string]dg.Entry
	forceDupe bool
}

func newFakeEntries() *fakeEntries { return &fakeEntries{rows: map[string]dg.Entry{}} }

func (f *fakeEntries) Create(_ context.Context, e *dg.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.forceDupe {
		return dg.ErrDuplicateEntry
	}
	for _, r := range f.rows {
		if r.GiveawayID == e.GiveawayID && r.InstagramUsername == e.InstagramUsername {
			return dg.ErrDuplicateEntry
		}
	}
	f.rows[e.ID] = *e
	return nil
}

func (f *fakeEntries) GetByID(_ context.Context, id string) (*dg.Entry, error) {
	if err := checkUUID(id); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (f *fakeEntries) Exists(_ context.Context, giveawayID, username string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.GiveawayID == giveawayID && r.InstagramUsername == username {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeEntries) Save(_ context.Context, e *dg.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[e.ID] = *e
	return nil
}

func (f *fakeEntries) List(_ context.Context, flt dg.EntryFilter) ([]dg.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []dg.Entry
	for _, e := range f.rows {
		if flt.GiveawayID != "" && e.GiveawayID != flt.GiveawayID {
			continue
		}
		if flt.AccountID != nil && (e.InstagramAccountID == nil || *e.InstagramAccountID != *flt.AccountID) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeEntries) ListByStatus(_ context.Context, giveawayID string, status dg.VerificationStatus) ([]dg.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []dg.Entry
	for _, e := range f.rows {
		if e.GiveawayID == giveawayID && e.VerificationStatus == status {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeWinners struct {
	mu      sync.Mutex
	byEntry map[string]dg.Winner
}

func newFakeWinners() *fakeWinners { return &fakeWinners{byEntry: map[string]dg.Winner{}} }

func (f *fakeWinners) GetOrCreate(_ context.Context, w *dg.Winner) (*dg.Winner, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.byEntry[w.EntryID]; ok {
		return &existing, false, nil
	}
	f.byEntry[w.EntryID] = *w
	out := *w
	return &out, true, nil
}

func (f *fakeWinners) GetByID(_ context.Context, id string) (*dg.Winner, error) {
	if err := checkUUID(id); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, w := range f.byEntry {
		if w.ID == id {
			out := w
			return &out, nil
		}
	}
	return nil, nil
}

func (f *fakeWinners) Save(_ context.Context, w *dg.Winner) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byEntry[w.EntryID] = *w
	return nil
}

func (f *fakeWinners) List(_ context.Context, flt dg.WinnerFilter) ([]dg.Winner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []dg.Winner
	for _, w := range f.byEntry {
		if flt.GiveawayID != "" && w.GiveawayID != flt.GiveawayID {
			continue
		}
		out = append(out, w)
	}
	return out, nil
}

func (f *fakeWinners) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byEntry)
}

type fakeRules struct {
	rows []dg.Rule
}

func (f *fakeRules) Create(_ context.Context, r *dg.Rule) error {
	f.rows = append(f.rows, *r)
	return nil
}

func (f *fakeRules) GetByID(_ context.Context, id string) (*dg.Rule, error) {
	if err := checkUUID(id); err != nil {
		return nil, err
	}
	for _, r := range f.rows {
		if r.ID == id {
			out := r
			return &out, nil
		}
	}
	return nil, nil
}

func (f *fakeRules) Update(_ context.Context, r *dg.Rule) error {
	for i := range f.rows {
		if f.rows[i].ID == r.ID {
			f.rows[i] = *r
		}
	}
	return nil
}

func (f *fakeRules) Delete(_ context.Context, id string) error {
	out := f.rows[:0]
	for _, r := range f.rows {
		if r.ID != id {
			out = append(out, r)
		}
	}
	f.rows = out
	return nil
}

func (f *fakeRules) ListByGiveaway(_ context.Context, giveawayID string) ([]dg.Rule, error) {
	var out []dg.Rule
	for _, r := range f.rows {
		if r.GiveawayID == giveawayID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRules) List(ctx context.Context, flt dg.RuleFilter) ([]dg.Rule, error) {
	if flt.GiveawayID != "" {
		return f.ListByGiveaway(ctx, flt.GiveawayID)
	}
	return f.rows, nil
}

type fakeAudit struct {
	mu   sync.Mutex
	logs []audit.Log
}

func (f *fakeAudit) Record(_ context.Context, l *audit.Log) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, *l)
	return nil
}

func (f *fakeAudit) actions() []audit.ActionType {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]audit.ActionType, 0, len(f.logs))
	for _, l := range f.logs {
		out = append(out, l.ActionType)
	}
	return out
}

func (f *fakeAudit) last(action audit.ActionType) *audit.Log {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.logs) - 1; i >= 0; i-- {
		if f.logs[i].ActionType == action {
			l := f.logs[i]
			return &l
		}
	}
	return nil
}

type fakeSocial struct {
	accounts map[int64]*social.Account
	follow   bool
	like     bool
	comment  bool
	tag      bool
	err      error
}

func newFakeSocial() *fakeSocial {
	return &fakeSocial{accounts: map[int64]*social.Account{}, follow: true, like: true, comment: true, tag: true}
}

func (f *fakeSocial) AccountByID(_ context.Context, id int64) (*social.Account, error) {
	return f.accounts[id], nil
}

func (f *fakeSocial) AccountByUserID(_ context.Context, userID int64) (*social.Account, error) {
	for _, a := range f.accounts {
		if a.UserID == userID {
			return a, nil
		}
	}
	return nil, nil
}

func (f *fakeSocial) VerifyFollow(context.Context, *social.Account, string) (bool, error) {
	return f.follow, f.err
}

func (f *fakeSocial) VerifyLike(context.Context, *social.Account, string) (bool, error) {
	return f.like, f.err
}

func (f *fakeSocial) VerifyComment(context.Context, *social.Account, string) (bool, error) {
	return f.comment, f.err
}

func (f *fakeSocial) VerifyTag(context.Context, *social.Account, string, int) (bool, error) {
	return f.tag, f.err
}

type fakeLocker struct {
	held map[string]bool
}

func (f *fakeLocker) Acquire(_ context.Context, key string, _ time.Duration) (func(context.Context) error, error) {
	if f.held[key] {
		return nil, rediscache.ErrAlreadyLocked
	}
	f.held[key] = true
	return func(context.Context) error {
		delete(f.held, key)
		return nil
	}, nil
}

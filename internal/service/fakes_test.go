package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/verticalstudies/coaching-api/internal/model"
	"github.com/verticalstudies/coaching-api/internal/repository"
	"gorm.io/gorm"
)

var errBoom = errors.New("boom")

type fakeTestRepo struct {
	mu      sync.Mutex
	tests   map[string]model.Test
	failAll bool
}

func newFakeTestRepo(tests ...model.Test) *fakeTestRepo {
	r := &fakeTestRepo{tests: map[string]model.Test{}}
	for _, t := range tests {
		r.tests[t.ID] = t
	}
	return r
}

func (r *fakeTestRepo) Create(_ context.Context, test *model.Test) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return errBoom
	}
	r.tests[test.ID] = *test
	return nil
}

func (r *fakeTestRepo) FindByID(_ context.Context, id string) (*model.Test, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return nil, errBoom
	}
	t, ok := r.tests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	t.Questions = nil
	return &t, nil
}

func (r *fakeTestRepo) FindByIDWithQuestions(ctx context.Context, id string) (*model.Test, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &t, nil
}

func (r *fakeTestRepo) FindAll(_ context.Context, filter repository.TestFilter) ([]model.Test, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return nil, errBoom
	}
	var out []model.Test
	for _, t := range r.tests {
		if filter.SubjectID != "" && (t.SubjectID == nil || *t.SubjectID != filter.SubjectID) {
			continue
		}
		if filter.ChapterID != "" && (t.ChapterID == nil || *t.ChapterID != filter.ChapterID) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// fakeQuestionRepo reads questions from the test repo so both stay consistent.
type fakeQuestionRepo struct {
	tests *fakeTestRepo
}

func (r *fakeQuestionRepo) ListByTest(_ context.Context, testID string) ([]model.Question, error) {
	r.tests.mu.Lock()
	defer r.tests.mu.Unlock()
	return append([]model.Question(nil), r.tests.tests[testID].Questions...), nil
}

func (r *fakeQuestionRepo) CountByTest(_ context.Context, testIDs []string) (map[string]int, error) {
	r.tests.mu.Lock()
	defer r.tests.mu.Unlock()
	out := map[string]int{}
	for _, id := range testIDs {
		if t, ok := r.tests.tests[id]; ok {
			out[id] = len(t.Questions)
		}
	}
	return out, nil
}

type fakeAttemptRepo struct {
	mu              sync.Mutex
	attempts        map[string]model.TestAttempt
	failCreate      bool
	failUpdateRanks bool
	failList        bool
	rankWrites      int
}

func newFakeAttemptRepo(attempts ...model.TestAttempt) *fakeAttemptRepo {
	r := &fakeAttemptRepo{attempts: map[string]model.TestAttempt{}}
	for _, a := range attempts {
		r.attempts[a.ID] = a
	}
	return r
}

func (r *fakeAttemptRepo) Create(_ context.Context, attempt *model.TestAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate {
		return errBoom
	}
	a := *attempt
	a.Answers = append([]model.Answer(nil), attempt.Answers...)
	r.attempts[a.ID] = a
	return nil
}

func (r *fakeAttemptRepo) FindByID(_ context.Context, id string) (*model.TestAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.attempts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &a, nil
}

func (r *fakeAttemptRepo) ListByTest(_ context.Context, testID string) ([]model.TestAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failList {
		return nil, errBoom
	}
	var out []model.TestAttempt
	for _, a := range r.attempts {
		if a.TestID == testID {
			a.Answers = nil
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CompletedAt.Equal(out[j].CompletedAt) {
			return out[i].CompletedAt.Before(out[j].CompletedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *fakeAttemptRepo) ListByTestAndStudent(ctx context.Context, testID, studentID string) ([]model.TestAttempt, error) {
	all, err := r.ListByTest(ctx, testID)
	if err != nil {
		return nil, err
	}
	var out []model.TestAttempt
	for _, a := range all {
		if a.StudentID == studentID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAttemptRepo) UpdateRank(_ context.Context, attemptID string, rank int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.attempts[attemptID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	a.Rank = rank
	r.attempts[attemptID] = a
	return nil
}

func (r *fakeAttemptRepo) UpdateRanks(_ context.Context, ranks map[string]int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpdateRanks {
		return errBoom
	}
	for id, rank := range ranks {
		a := r.attempts[id]
		a.Rank = rank
		r.attempts[id] = a
		r.rankWrites++
	}
	return nil
}

func (r *fakeAttemptRepo) rankOf(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempts[id].Rank
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]model.User
}

func newFakeUserRepo(users ...model.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[string]model.User{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

func (r *fakeUserRepo) FindByIDs(_ context.Context, ids []string) ([]model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) FindByEmailAndRole(_ context.Context, email, role string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email != nil && *u.Email == email && u.Role == role {
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) FindStudentByMobileAndBatch(_ context.Context, mobile, batchCode string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Role == model.RoleStudent && u.Mobile != nil && *u.Mobile == mobile && u.BatchCode != nil && *u.BatchCode == batchCode {
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]model.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[string]model.Session{}}
}

func (r *fakeSessionRepo) Create(_ context.Context, s *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.Token] = *s
	return nil
}

func (r *fakeSessionRepo) FindByToken(_ context.Context, token string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[token]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &s, nil
}

func (r *fakeSessionRepo) Delete(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, token)
	return nil
}

type publishedEvent struct {
	eventType string
	payload   interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, eventType string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{eventType: eventType, payload: payload})
	return p.err
}

func (p *recordingPublisher) Close() {}

type failingLocker struct{}

func (failingLocker) Lock(context.Context, string) (context.Context, func(), error) {
	return nil, nil, errBoom
}

// lostLeaseLocker grants the lock with a lease that is already gone.
type lostLeaseLocker struct{}

func (lostLeaseLocker) Lock(ctx context.Context, _ string) (context.Context, func(), error) {
	lease, cancel := context.WithCancelCause(ctx)
	cancel(ErrLockLost)
	return lease, func() {}, nil
}

type staticNames map[string]string

func (n staticNames) GetDisplayNames(_ context.Context, ids []string) (map[string]string, error) {
	out := map[string]string{}
	for _, id := range ids {
		if name, ok := n[id]; ok {
			out[id] = name
		}
	}
	return out, nil
}

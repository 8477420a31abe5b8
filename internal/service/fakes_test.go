package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"truefeedback/internal/domain"
	"truefeedback/internal/repository"
	"truefeedback/pkg/redis"
)

type fakePollRepo struct {
	mu        sync.Mutex
	polls     map[string]*domain.Poll // by slug
	createErr error
	findErr   error
	appendErr error
	creates   int
}

func newFakePollRepo() *fakePollRepo {
	return &fakePollRepo{polls: make(map[string]*domain.Poll)}
}

func (f *fakePollRepo) Create(_ context.Context, poll *domain.Poll) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.createErr != nil {
		err := f.createErr
		// fail once with a slug collision, then succeed
		if errors.Is(err, repository.ErrSlugTaken) {
			f.createErr = nil
		}
		return err
	}
	if _, ok := f.polls[poll.Slug]; ok {
		return repository.ErrSlugTaken
	}
	cp := *poll
	f.polls[poll.Slug] = &cp
	return nil
}

func (f *fakePollRepo) FindBySlug(_ context.Context, slug string) (*domain.Poll, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	p, ok := f.polls[slug]
	if !ok {
		return nil, nil
	}
	cp := *p
	cp.Responses = append([]domain.Response(nil), p.Responses...)
	return &cp, nil
}

func (f *fakePollRepo) AppendResponse(_ context.Context, pollID string, response domain.Response) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return 0, f.appendErr
	}
	for _, p := range f.polls {
		if p.ID == pollID {
			p.Responses = append(p.Responses, response)
			p.ResponseCount++
			return p.ResponseCount, nil
		}
	}
	return 0, repository.ErrPollNotFound
}

func (f *fakePollRepo) ListByOwner(_ context.Context, ownerID string) ([]domain.PollSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.PollSummary{}
	for _, p := range f.polls {
		if p.CreatedBy == ownerID {
			out = append(out, domain.PollSummary{ID: p.ID, Title: p.Title, Slug: p.Slug, TotalResponses: p.ResponseCount, CreatedAt: p.CreatedAt})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type fakeProfileRepo struct {
	mu       sync.Mutex
	byUser   map[string]*domain.Profile
	getErr   error
	getCalls int
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{byUser: make(map[string]*domain.Profile)}
}

func (f *fakeProfileRepo) Upsert(_ context.Context, profile *domain.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for uid, p := range f.byUser {
		if p.Slug == profile.Slug && uid != profile.UserID {
			return repository.ErrSlugTaken
		}
	}
	cp := *profile
	f.byUser[profile.UserID] = &cp
	return nil
}

func (f *fakeProfileRepo) GetByUserID(_ context.Context, userID string) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.byUser[userID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeProfileRepo) GetBySlug(_ context.Context, slug string) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, p := range f.byUser {
		if p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

type fakeMessageRepo struct {
	mu        sync.Mutex
	messages  []domain.Message
	lastLimit int
}

func (f *fakeMessageRepo) Create(_ context.Context, message *domain.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, *message)
	return nil
}

func (f *fakeMessageRepo) ListByRecipient(_ context.Context, recipientID string, limit int) ([]domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLimit = limit
	out := []domain.Message{}
	for i := len(f.messages) - 1; i >= 0 && len(out) < limit; i-- {
		if f.messages[i].RecipientID == recipientID {
			out = append(out, f.messages[i])
		}
	}
	return out, nil
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	client, err := redis.NewClient("redis://"+mr.Addr(), "test", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

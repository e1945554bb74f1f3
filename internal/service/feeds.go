package service

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edirooss/avcapture-server/internal/domain/feed"
)

// FeedStore persists the ordered IP camera feed list.
type FeedStore interface {
	LoadFeeds(ctx context.Context) ([]*feed.IPCameraFeed, error)
	SaveFeeds(ctx context.Context, list []*feed.IPCameraFeed) error
}

// FeedService owns the feed list; every mutation is written through.
type FeedService struct {
	log   *zap.Logger
	store FeedStore

	mu       sync.RWMutex
	list     []*feed.IPCameraFeed
	onRemove []func(id string)
}

func NewFeedService(ctx context.Context, log *zap.Logger, store FeedStore) (*FeedService, error) {
	list, err := store.LoadFeeds(ctx)
	if err != nil {
		return nil, fmt.Errorf("load feeds: %w", err)
	}
	return &FeedService{log: log.Named("feeds"), store: store, list: list}, nil
}

// OnRemove registers fn to run after a feed is removed.
func (s *FeedService) OnRemove(fn func(id string)) {
	s.mu.Lock()
	s.onRemove = append(s.onRemove, fn)
	s.mu.Unlock()
}

func (s *FeedService) List() []*feed.IPCameraFeed {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*feed.IPCameraFeed, len(s.list))
	for i, f := range s.list {
		c := *f
		out[i] = &c
	}
	return out
}

func (s *FeedService) Get(id string) (*feed.IPCameraFeed, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("%q: %w", id, ErrFeedNotFound)
	}
	c := *s.list[i]
	return &c, nil
}

// Create appends a feed. With a nil patch the feed is named "IP Camera N"
// and has no input yet; the fields are filled in with Update.
func (s *FeedService) Create(ctx context.Context, patch *feed.Patch) (*feed.IPCameraFeed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := &feed.IPCameraFeed{
		ID:        uuid.NewString(),
		Name:      "IP Camera " + strconv.Itoa(len(s.list)+1),
		Transport: feed.TransportRTP,
	}
	if patch != nil {
		patch.Apply(f)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFeedInvalid, err)
	}

	list := append(append([]*feed.IPCameraFeed(nil), s.list...), f)
	if err := s.commit(ctx, list); err != nil {
		return nil, err
	}
	s.log.Info("feed created", zap.String("id", f.ID), zap.String("name", f.Name))
	c := *f
	return &c, nil
}

// Update applies patch to the feed in place; its position and ID are kept.
func (s *FeedService) Update(ctx context.Context, id string, patch *feed.Patch) (*feed.IPCameraFeed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("%q: %w", id, ErrFeedNotFound)
	}
	f := *s.list[i]
	patch.Apply(&f)
	f.ID = id
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFeedInvalid, err)
	}

	list := append([]*feed.IPCameraFeed(nil), s.list...)
	list[i] = &f
	if err := s.commit(ctx, list); err != nil {
		return nil, err
	}
	c := f
	return &c, nil
}

func (s *FeedService) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%q: %w", id, ErrFeedNotFound)
	}
	list := make([]*feed.IPCameraFeed, 0, len(s.list)-1)
	list = append(append(list, s.list[:i]...), s.list[i+1:]...)
	err := s.commit(ctx, list)
	hooks := slices.Clone(s.onRemove)
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.log.Info("feed removed", zap.String("id", id))
	for _, fn := range hooks {
		fn(id)
	}
	return nil
}

func (s *FeedService) commit(ctx context.Context, list []*feed.IPCameraFeed) error {
	if err := s.store.SaveFeeds(ctx, list); err != nil {
		return fmt.Errorf("save feeds: %w", err)
	}
	s.list = list
	return nil
}

func (s *FeedService) indexOf(id string) int {
	for i, f := range s.list {
		if f.ID == id {
			return i
		}
	}
	return -1
}

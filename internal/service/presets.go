package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edirooss/avcapture-server/internal/domain/preset"
)

// PresetStore persists the ordered preset list with the active preset ID.
type PresetStore interface {
	LoadPresets(ctx context.Context) (list []*preset.EncodingPreset, activeID string, found bool, err error)
	SavePresets(ctx context.Context, list []*preset.EncodingPreset, activeID string) error
}

// PresetService owns the preset collection. Every mutation is written
// through to the store under the service mutex; a failed write rolls the
// in-memory state back.
type PresetService struct {
	log   *zap.Logger
	store PresetStore

	mu     sync.RWMutex
	list   []*preset.EncodingPreset
	active string // "" = none
}

// NewPresetService loads the stored presets, seeding the built-ins when
// storage is empty.
func NewPresetService(ctx context.Context, log *zap.Logger, store PresetStore) (*PresetService, error) {
	s := &PresetService{log: log.Named("presets"), store: store}

	list, active, found, err := store.LoadPresets(ctx)
	if err != nil {
		return nil, fmt.Errorf("load presets: %w", err)
	}
	if !found || len(list) == 0 {
		list = preset.Builtins()
		active = list[0].ID
		if err := store.SavePresets(ctx, list, active); err != nil {
			return nil, fmt.Errorf("seed presets: %w", err)
		}
		s.log.Info("seeded built-in presets")
	}

	s.list, s.active = list, active
	if s.indexOf(active) < 0 {
		s.active = ""
	}
	return s, nil
}

// List returns copies of all presets in order.
func (s *PresetService) List() []*preset.EncodingPreset {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*preset.EncodingPreset, len(s.list))
	for i, p := range s.list {
		out[i] = p.Clone()
	}
	return out
}

func (s *PresetService) Get(id string) (*preset.EncodingPreset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("%q: %w", id, ErrPresetNotFound)
	}
	return s.list[i].Clone(), nil
}

// Active returns the active preset, if any.
func (s *PresetService) Active() (*preset.EncodingPreset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(s.active)
	if i < 0 {
		return nil, false
	}
	return s.list[i].Clone(), true
}

// Resolve returns the preset with id, or the active preset when id is empty.
func (s *PresetService) Resolve(id string) (*preset.EncodingPreset, error) {
	if id != "" {
		return s.Get(id)
	}
	p, ok := s.Active()
	if !ok {
		return nil, fmt.Errorf("no active preset: %w", ErrPresetNotFound)
	}
	return p, nil
}

// SetActive selects id; an empty id clears the selection.
func (s *PresetService) SetActive(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" && s.indexOf(id) < 0 {
		return fmt.Errorf("%q: %w", id, ErrPresetNotFound)
	}
	return s.commit(ctx, s.list, id)
}

// Create appends a copy of the active preset named "<name> copy", or a
// default preset named "new item N" when none is active. The new preset
// becomes active.
func (s *PresetService) Create(ctx context.Context) (*preset.EncodingPreset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var p *preset.EncodingPreset
	if i := s.indexOf(s.active); i >= 0 {
		p = s.list[i].Clone()
		p.Name += " copy"
	} else {
		p = &preset.EncodingPreset{
			Name:  "new item " + strconv.Itoa(len(s.list)),
			Video: preset.DefaultVideo(),
			Audio: preset.DefaultAudio(),
		}
	}
	p.ID = uuid.NewString()

	list := append(append([]*preset.EncodingPreset(nil), s.list...), p)
	if err := s.commit(ctx, list, p.ID); err != nil {
		return nil, err
	}
	s.log.Info("preset created", zap.String("id", p.ID), zap.String("name", p.Name))
	return p.Clone(), nil
}

// Rename changes the name of a user preset.
func (s *PresetService) Rename(ctx context.Context, id, name string) (*preset.EncodingPreset, error) {
	return s.mutate(ctx, id, true, func(p *preset.EncodingPreset) { p.Name = name })
}

// Update applies patch to any preset, built-ins included.
func (s *PresetService) Update(ctx context.Context, id string, patch *preset.Patch) (*preset.EncodingPreset, error) {
	return s.mutate(ctx, id, false, patch.Apply)
}

// Remove deletes a user preset. If it was active, the first remaining
// preset becomes active.
func (s *PresetService) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%q: %w", id, ErrPresetNotFound)
	}
	if i < preset.BuiltinCount {
		return fmt.Errorf("%q: %w", id, ErrPresetProtected)
	}

	list := make([]*preset.EncodingPreset, 0, len(s.list)-1)
	list = append(append(list, s.list[:i]...), s.list[i+1:]...)

	active := s.active
	if active == id {
		active = ""
		if len(list) > 0 {
			active = list[0].ID
		}
	}
	if err := s.commit(ctx, list, active); err != nil {
		return err
	}
	s.log.Info("preset removed", zap.String("id", id))
	return nil
}

func (s *PresetService) mutate(ctx context.Context, id string, protected bool, fn func(*preset.EncodingPreset)) (*preset.EncodingPreset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("%q: %w", id, ErrPresetNotFound)
	}
	if protected && i < preset.BuiltinCount {
		return nil, fmt.Errorf("%q: %w", id, ErrPresetProtected)
	}

	p := s.list[i].Clone()
	fn(p)
	p.ID = id
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrPresetInvalid, err)
	}

	list := append([]*preset.EncodingPreset(nil), s.list...)
	list[i] = p
	if err := s.commit(ctx, list, s.active); err != nil {
		return nil, err
	}
	return p.Clone(), nil
}

// commit persists then swaps in the new state. Caller holds s.mu.
func (s *PresetService) commit(ctx context.Context, list []*preset.EncodingPreset, active string) error {
	if err := s.store.SavePresets(ctx, list, active); err != nil {
		return fmt.Errorf("save presets: %w", err)
	}
	s.list, s.active = list, active
	return nil
}

// indexOf returns the position of id, or -1. Caller holds s.mu.
func (s *PresetService) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, p := range s.list {
		if p.ID == id {
			return i
		}
	}
	return -1
}

package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/namiferry/ferrybot/internal/domain"
	"github.com/namiferry/ferrybot/internal/storage"
)

type ShipService struct {
	sn       *storage.Snapshots
	defaults []domain.Ship
	mu       sync.Mutex
}

func NewShipService(sn *storage.Snapshots, defaults []domain.Ship) *ShipService {
	return &ShipService{sn: sn, defaults: defaults}
}

func (s *ShipService) load(ctx context.Context) []domain.Ship {
	return storage.Load(ctx, s.sn, storage.KeyShips, slices.Clone(s.defaults))
}

// List returns the fleet
func (s *ShipService) List(ctx context.Context) []domain.Ship {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Get returns a ship by id
func (s *ShipService) Get(ctx context.Context, id string) (*domain.Ship, error) {
	for _, sh := range s.List(ctx) {
		if sh.ID == id {
			return &sh, nil
		}
	}
	return nil, fmt.Errorf("ship %s: %w", id, ErrNotFound)
}

// ByName returns a ship by its exact name
func (s *ShipService) ByName(ctx context.Context, name string) (*domain.Ship, bool) {
	for _, sh := range s.List(ctx) {
		if sh.Name == name {
			return &sh, true
		}
	}
	return nil, false
}

// Save creates a ship when ID is empty, otherwise replaces it
func (s *ShipService) Save(ctx context.Context, sh domain.Ship) (*domain.Ship, error) {
	sh.Name = strings.TrimSpace(sh.Name)
	if sh.Name == "" || sh.Capacity <= 0 {
		return nil, validationError("name and capacity are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ships := s.load(ctx)
	if sh.ID == "" {
		sh.ID = newID("ship")
		ships = append(ships, sh)
	} else {
		i := slices.IndexFunc(ships, func(x domain.Ship) bool { return x.ID == sh.ID })
		if i < 0 {
			return nil, fmt.Errorf("ship %s: %w", sh.ID, ErrNotFound)
		}
		ships[i] = sh
	}

	if err := s.sn.Save(ctx, storage.KeyShips, ships); err != nil {
		return nil, fmt.Errorf("save ship: %w", err)
	}
	return &sh, nil
}

// Delete removes a ship. Logs keep the ship name they were written with.
func (s *ShipService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ships := s.load(ctx)
	i := slices.IndexFunc(ships, func(x domain.Ship) bool { return x.ID == id })
	if i < 0 {
		return fmt.Errorf("ship %s: %w", id, ErrNotFound)
	}
	ships = slices.Delete(ships, i, i+1)

	if err := s.sn.Save(ctx, storage.KeyShips, ships); err != nil {
		return fmt.Errorf("delete ship: %w", err)
	}
	return nil
}

package memory

import (
	"context"
	"fmt"
	"sort"

	"equiprent/internal/domain"
)

type equipmentRepository struct {
	state *state
}

func (r *equipmentRepository) Create(ctx context.Context, equipment *domain.Equipment) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	snap := equipment.Snapshot()
	if _, exists := r.state.equipment[snap.ID]; exists {
		return fmt.Errorf("equipment %s already exists", snap.ID)
	}
	r.state.equipment[snap.ID] = snap
	return nil
}

func (r *equipmentRepository) GetByID(ctx context.Context, id domain.EquipmentID) (*domain.Equipment, error) {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()

	snap, ok := r.state.equipment[id.String()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrEquipmentNotFound, id)
	}
	return domain.ReconstituteEquipment(snap)
}

func (r *equipmentRepository) Update(ctx context.Context, equipment *domain.Equipment) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	snap := equipment.Snapshot()
	if _, ok := r.state.equipment[snap.ID]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrEquipmentNotFound, snap.ID)
	}
	r.state.equipment[snap.ID] = snap
	return nil
}

func (r *equipmentRepository) List(ctx context.Context) ([]*domain.Equipment, error) {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()

	out := make([]*domain.Equipment, 0, len(r.state.equipment))
	for _, snap := range r.state.equipment {
		equipment, err := domain.ReconstituteEquipment(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, equipment)
	}
	sortEquipment(out)
	return out, nil
}

func (r *equipmentRepository) ListRentable(ctx context.Context, category string) ([]*domain.Equipment, error) {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()

	var out []*domain.Equipment
	for _, snap := range r.state.equipment {
		if category != "" && snap.Category != category {
			continue
		}
		equipment, err := domain.ReconstituteEquipment(snap)
		if err != nil {
			return nil, err
		}
		if equipment.IsRentable() {
			out = append(out, equipment)
		}
	}
	sortEquipment(out)
	return out, nil
}

// sortEquipment keeps listings stable across calls; map iteration
// order is not.
func sortEquipment(items []*domain.Equipment) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Name() != items[j].Name() {
			return items[i].Name() < items[j].Name()
		}
		return items[i].ID().String() < items[j].ID().String()
	})
}

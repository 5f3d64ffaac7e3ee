package service

import (
	"context"
	"time"

	"equiprent/internal/domain"
)

type equipmentService struct {
	repos Repositories
	now   Clock
}

func NewEquipmentService(repos Repositories, clock Clock) EquipmentService {
	if clock == nil {
		clock = time.Now
	}
	return &equipmentService{repos: repos, now: clock}
}

func (s *equipmentService) AddEquipment(ctx context.Context, name, description, category string, dailyRateCents int64, condition string) (*domain.Equipment, error) {
	rate, err := domain.Cents(dailyRateCents)
	if err != nil {
		return nil, err
	}
	cond, err := domain.ParseCondition(condition)
	if err != nil {
		return nil, err
	}
	equipment, err := domain.NewEquipment(name, description, category, rate, cond, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repos.Equipment.Create(ctx, equipment); err != nil {
		return nil, err
	}
	return equipment, nil
}

func (s *equipmentService) GetEquipment(ctx context.Context, id domain.EquipmentID) (*domain.Equipment, error) {
	return s.repos.Equipment.GetByID(ctx, id)
}

func (s *equipmentService) ListEquipment(ctx context.Context) ([]*domain.Equipment, error) {
	return s.repos.Equipment.List(ctx)
}

func (s *equipmentService) ListRentable(ctx context.Context, category string) ([]*domain.Equipment, error) {
	return s.repos.Equipment.ListRentable(ctx, category)
}

func (s *equipmentService) UpdateDailyRate(ctx context.Context, id domain.EquipmentID, dailyRateCents int64) (*domain.Equipment, error) {
	rate, err := domain.Cents(dailyRateCents)
	if err != nil {
		return nil, err
	}
	equipment, err := s.repos.Equipment.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := equipment.UpdateDailyRate(rate); err != nil {
		return nil, err
	}
	if err := s.repos.Equipment.Update(ctx, equipment); err != nil {
		return nil, err
	}
	return equipment, nil
}

func (s *equipmentService) UpdateCondition(ctx context.Context, id domain.EquipmentID, condition string) (*domain.Equipment, error) {
	cond, err := domain.ParseCondition(condition)
	if err != nil {
		return nil, err
	}
	equipment, err := s.repos.Equipment.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := equipment.UpdateCondition(cond); err != nil {
		return nil, err
	}
	if err := s.repos.Equipment.Update(ctx, equipment); err != nil {
		return nil, err
	}
	return equipment, nil
}

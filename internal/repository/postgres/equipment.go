package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"equiprent/internal/domain"
	"equiprent/internal/repository"
)

type equipmentRepository struct {
	db *sql.DB
}

func NewEquipmentRepository(db *sql.DB) repository.EquipmentRepository {
	return &equipmentRepository{db: db}
}

const equipmentColumns = `id, name, description, category, daily_rate_cents, condition,
	       available, current_rental_id, created_at`

func (r *equipmentRepository) Create(ctx context.Context, equipment *domain.Equipment) error {
	query := `INSERT INTO equipment (` + equipmentColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	s := equipment.Snapshot()
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.Name, s.Description, s.Category, s.DailyRateCents, s.Condition,
		s.Available, nullableID(s.CurrentRentalID), s.CreatedAt)
	return err
}

func (r *equipmentRepository) GetByID(ctx context.Context, id domain.EquipmentID) (*domain.Equipment, error) {
	query := `SELECT ` + equipmentColumns + `
	          FROM equipment WHERE id = $1`
	s, err := scanEquipment(r.db.QueryRowContext(ctx, query, id.String()))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", domain.ErrEquipmentNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return domain.ReconstituteEquipment(s)
}

func (r *equipmentRepository) Update(ctx context.Context, equipment *domain.Equipment) error {
	query := `UPDATE equipment
	          SET name = $2, description = $3, category = $4, daily_rate_cents = $5,
	              condition = $6, available = $7, current_rental_id = $8, updated_at = NOW()
	          WHERE id = $1`
	s := equipment.Snapshot()
	result, err := r.db.ExecContext(ctx, query,
		s.ID, s.Name, s.Description, s.Category, s.DailyRateCents,
		s.Condition, s.Available, nullableID(s.CurrentRentalID))
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", domain.ErrEquipmentNotFound, s.ID)
	}
	return nil
}

func (r *equipmentRepository) List(ctx context.Context) ([]*domain.Equipment, error) {
	query := `SELECT ` + equipmentColumns + `
	          FROM equipment ORDER BY name, id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEquipment(rows)
}

func (r *equipmentRepository) ListRentable(ctx context.Context, category string) ([]*domain.Equipment, error) {
	// The WHERE clause mirrors Equipment.IsRentable; keep them in sync.
	query := `SELECT ` + equipmentColumns + `
	          FROM equipment
	          WHERE available AND condition <> 'DAMAGED' AND ($1 = '' OR category = $1)
	          ORDER BY name, id`
	rows, err := r.db.QueryContext(ctx, query, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEquipment(rows)
}

func scanEquipment(row scanner) (domain.EquipmentSnapshot, error) {
	var s domain.EquipmentSnapshot
	var rentalID sql.NullString
	err := row.Scan(
		&s.ID, &s.Name, &s.Description, &s.Category, &s.DailyRateCents, &s.Condition,
		&s.Available, &rentalID, &s.CreatedAt)
	if err != nil {
		return domain.EquipmentSnapshot{}, err
	}
	s.CurrentRentalID = rentalID.String
	return s, nil
}

func collectEquipment(rows *sql.Rows) ([]*domain.Equipment, error) {
	var out []*domain.Equipment
	for rows.Next() {
		s, err := scanEquipment(rows)
		if err != nil {
			return nil, err
		}
		equipment, err := domain.ReconstituteEquipment(s)
		if err != nil {
			return nil, err
		}
		out = append(out, equipment)
	}
	return out, rows.Err()
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"equiprent/internal/domain"
	"equiprent/internal/repository"
)

type memberRepository struct {
	db *sql.DB
}

func NewMemberRepository(db *sql.DB) repository.MemberRepository {
	return &memberRepository{db: db}
}

func (r *memberRepository) Create(ctx context.Context, member *domain.Member) error {
	query := `INSERT INTO members (id, name, email, password_hash, tier, active, active_rentals, total_rentals, joined_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	s := member.Snapshot()
	_, err := r.db.ExecContext(ctx, query, s.ID, s.Name, s.Email, s.PasswordHash, s.Tier, s.Active, s.ActiveRentals, s.TotalRentals, s.JoinedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateEmail, s.Email)
	}
	return err
}

func (r *memberRepository) GetByID(ctx context.Context, id domain.MemberID) (*domain.Member, error) {
	query := `SELECT id, name, email, password_hash, tier, active, active_rentals, total_rentals, joined_at
	          FROM members WHERE id = $1`
	var s domain.MemberSnapshot
	err := r.db.QueryRowContext(ctx, query, id.String()).Scan(&s.ID, &s.Name, &s.Email, &s.PasswordHash, &s.Tier, &s.Active, &s.ActiveRentals, &s.TotalRentals, &s.JoinedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", domain.ErrMemberNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return domain.ReconstituteMember(s)
}

func (r *memberRepository) GetByEmail(ctx context.Context, email string) (*domain.Member, error) {
	query := `SELECT id, name, email, password_hash, tier, active, active_rentals, total_rentals, joined_at
	          FROM members WHERE email = $1`
	var s domain.MemberSnapshot
	err := r.db.QueryRowContext(ctx, query, email).Scan(&s.ID, &s.Name, &s.Email, &s.PasswordHash, &s.Tier, &s.Active, &s.ActiveRentals, &s.TotalRentals, &s.JoinedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", domain.ErrMemberNotFound, email)
	}
	if err != nil {
		return nil, err
	}
	return domain.ReconstituteMember(s)
}

func (r *memberRepository) Update(ctx context.Context, member *domain.Member) error {
	query := `UPDATE members SET name = $2, email = $3, password_hash = $4, tier = $5, active = $6, active_rentals = $7, total_rentals = $8, updated_at = NOW()
	          WHERE id = $1`
	s := member.Snapshot()
	result, err := r.db.ExecContext(ctx, query, s.ID, s.Name, s.Email, s.PasswordHash, s.Tier, s.Active, s.ActiveRentals, s.TotalRentals)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateEmail, s.Email)
	}
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", domain.ErrMemberNotFound, s.ID)
	}
	return nil
}

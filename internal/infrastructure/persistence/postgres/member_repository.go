package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/DanielPopoola/ficmart-commerce/internal/application"
	"github.com/DanielPopoola/ficmart-commerce/internal/domain"
	"github.com/jackc/pgx/v5"
)

// MemberRepository is a read-only view of the members table.
type MemberRepository struct {
	db *DB
}

func NewMemberRepository(db *DB) *MemberRepository {
	return &MemberRepository{db: db}
}

func (r *MemberRepository) FindActiveMember(ctx context.Context, memberID string) (*domain.Member, error) {
	query := `SELECT id, email, active FROM members WHERE id = $1 AND active`

	var m domain.Member
	err := r.db.executor(ctx).QueryRow(ctx, query, memberID).Scan(&m.ID, &m.Email, &m.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewMemberNotFoundError(memberID)
		}
		return nil, fmt.Errorf("failed to find member: %w", err)
	}
	return &m, nil
}

var _ application.MemberDirectory = (*MemberRepository)(nil)

package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lumenquiz/session-runtime/internal/model"
)

// PostgresPlayerRepository implements PlayerRepository.
type PostgresPlayerRepository struct {
	db *DB
}

func NewPostgresPlayerRepository(db *DB) *PostgresPlayerRepository {
	return &PostgresPlayerRepository{db: db}
}

func (r *PostgresPlayerRepository) CreatePlayer(ctx context.Context, player *model.SessionPlayer) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO session_players (id, session_id, name, score, connected, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, player.ID, player.SessionID, player.Name, player.Score, player.Connected, player.CreatedAt, player.UpdatedAt)
	return err
}

func (r *PostgresPlayerRepository) GetPlayer(ctx context.Context, sessionID uuid.UUID, playerID string) (*model.SessionPlayer, error) {
	var p model.SessionPlayer
	err := r.db.QueryRowContext(ctx, `
		SELECT id, session_id, name, score, connected, created_at, updated_at
		FROM session_players
		WHERE session_id = $1 AND id = $2
	`, sessionID, playerID).Scan(&p.ID, &p.SessionID, &p.Name, &p.Score, &p.Connected, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PostgresPlayerRepository) ListPlayers(ctx context.Context, sessionID uuid.UUID) ([]*model.SessionPlayer, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, name, score, connected, created_at, updated_at
		FROM session_players
		WHERE session_id = $1
		ORDER BY created_at ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []*model.SessionPlayer
	for rows.Next() {
		var p model.SessionPlayer
		if err := rows.Scan(&p.ID, &p.SessionID, &p.Name, &p.Score, &p.Connected, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		players = append(players, &p)
	}
	return players, rows.Err()
}

func (r *PostgresPlayerRepository) UpdatePlayer(ctx context.Context, player *model.SessionPlayer) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE session_players
		SET name = $3, score = $4, connected = $5, updated_at = $6
		WHERE session_id = $1 AND id = $2
	`, player.SessionID, player.ID, player.Name, player.Score, player.Connected, player.UpdatedAt)
	return err
}

package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"sangha/sangha-common/domain"
)

// PostgresMembersRepo stores each member as a JSONB document. Insertion order
// is kept by a BIGSERIAL position and the collection version lives in a
// single-row table: the revision is bumped in the same transaction as the
// change, the epoch is drawn once when the row is created.
type PostgresMembersRepo struct {
	db *sql.DB
}

func NewPostgresMembersRepo(db *sql.DB) *PostgresMembersRepo {
	return &PostgresMembersRepo{db: db}
}

var _ MembersRepository = (*PostgresMembersRepo)(nil)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS sangha_members (
	position   BIGSERIAL PRIMARY KEY,
	member_id  TEXT NOT NULL UNIQUE,
	id_code    TEXT NOT NULL DEFAULT '',
	full_name  TEXT NOT NULL DEFAULT '',
	data       JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS sangha_revision (
	id       SMALLINT PRIMARY KEY,
	revision BIGINT NOT NULL,
	epoch    TEXT NOT NULL DEFAULT ''
);
ALTER TABLE sangha_revision ADD COLUMN IF NOT EXISTS epoch TEXT NOT NULL DEFAULT '';
`

// seedVersionSQL creates the version row, or gives an epoch to a row left by a
// schema without one.
const seedVersionSQL = `
INSERT INTO sangha_revision (id, revision, epoch) VALUES (1, 0, $1)
ON CONFLICT (id) DO UPDATE SET epoch = EXCLUDED.epoch WHERE sangha_revision.epoch = ''`

// EnsureSchema creates the tables and the version row if they do not exist.
func (r *PostgresMembersRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create members schema: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, seedVersionSQL, uuid.NewString()); err != nil {
		return fmt.Errorf("failed to seed members version: %w", err)
	}
	return nil
}

func (r *PostgresMembersRepo) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to begin snapshot: %w", err)
	}
	defer tx.Rollback()

	var snap domain.Snapshot
	err = tx.QueryRowContext(ctx, `SELECT revision, epoch FROM sangha_revision WHERE id = 1`).
		Scan(&snap.Revision, &snap.Epoch)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to read version: %w", err)
	}

	rows, err := tx.QueryContext(ctx, `SELECT data FROM sangha_members ORDER BY position`)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	snap.Members = []domain.Member{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return domain.Snapshot{}, fmt.Errorf("failed to scan member: %w", err)
		}
		var m domain.Member
		if err := json.Unmarshal(raw, &m); err != nil {
			return domain.Snapshot{}, fmt.Errorf("failed to decode member: %w", err)
		}
		snap.Members = append(snap.Members, m)
	}
	if err := rows.Err(); err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to iterate members: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return snap, nil
}

func (r *PostgresMembersRepo) Get(ctx context.Context, id string) (*domain.Member, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx, `SELECT data FROM sangha_members WHERE member_id = $1`, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}

	var m domain.Member
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to decode member: %w", err)
	}
	return &m, nil
}

func (r *PostgresMembersRepo) Create(ctx context.Context, m *domain.Member) (domain.Version, error) {
	if m.ID == "" {
		return domain.Version{}, fmt.Errorf("create member: empty id")
	}
	data, err := json.Marshal(m)
	if err != nil {
		return domain.Version{}, fmt.Errorf("failed to encode member: %w", err)
	}

	return r.mutate(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO sangha_members (member_id, id_code, full_name, data, created_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			m.ID, m.IDCode, m.FullName, data, m.CreatedAt,
		)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == "23505" {
				return fmt.Errorf("%w: %s", ErrDuplicate, m.ID)
			}
			return fmt.Errorf("failed to insert member: %w", err)
		}
		return nil
	})
}

func (r *PostgresMembersRepo) Update(ctx context.Context, m *domain.Member) (domain.Version, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return domain.Version{}, fmt.Errorf("failed to encode member: %w", err)
	}

	return r.mutate(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE sangha_members SET id_code = $2, full_name = $3, data = $4 WHERE member_id = $1`,
			m.ID, m.IDCode, m.FullName, data,
		)
		if err != nil {
			return fmt.Errorf("failed to update member: %w", err)
		}
		return requireRow(res, m.ID)
	})
}

func (r *PostgresMembersRepo) Delete(ctx context.Context, id string) (domain.Version, error) {
	return r.mutate(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM sangha_members WHERE member_id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete member: %w", err)
		}
		return requireRow(res, id)
	})
}

// mutate runs change and bumps the revision in one transaction.
func (r *PostgresMembersRepo) mutate(ctx context.Context, change func(tx *sql.Tx) error) (domain.Version, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Version{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := change(tx); err != nil {
		return domain.Version{}, err
	}

	var v domain.Version
	err = tx.QueryRowContext(ctx,
		`UPDATE sangha_revision SET revision = revision + 1 WHERE id = 1 RETURNING revision, epoch`,
	).Scan(&v.Revision, &v.Epoch)
	if err != nil {
		return domain.Version{}, fmt.Errorf("failed to bump revision: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Version{}, fmt.Errorf("failed to commit: %w", err)
	}
	return v, nil
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

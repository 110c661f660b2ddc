// Package storage persists the expense sharing domain in SQLite and owns
// every transactional read-modify-write against the balance ledger.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"centsible/internal/core"

	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound marks lookups that matched no row.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate marks unique-constraint violations (email, join code,
	// split per user).
	ErrDuplicate = errors.New("already exists")
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// A single connection keeps the session pragmas in force and serializes
	// writers, so a balance read-modify-write can never interleave with
	// another writer's.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %s: %w", pragma, err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func wrapConstraint(err error) error {
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

func now() int64 {
	return time.Now().Unix()
}

// --- users ---

func (r *SQLiteRepository) CreateUser(ctx context.Context, name, email, passwordHash string) (core.User, error) {
	createdAt := now()
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash, created_at) VALUES (?, ?, ?, ?)",
		name, email, passwordHash, createdAt,
	)
	if err != nil {
		return core.User{}, fmt.Errorf("insert user: %w", wrapConstraint(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.User{}, fmt.Errorf("user id: %w", err)
	}
	return core.User{
		ID:           id,
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Unix(createdAt, 0),
	}, nil
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		"SELECT id, name, email, password_hash, created_at FROM users WHERE email = ?", email))
}

func (r *SQLiteRepository) GetUserByID(ctx context.Context, id int64) (core.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		"SELECT id, name, email, password_hash, created_at FROM users WHERE id = ?", id))
}

func (r *SQLiteRepository) scanUser(row *sql.Row) (core.User, error) {
	var u core.User
	var createdAt int64
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &createdAt)
	if err == sql.ErrNoRows {
		return core.User{}, fmt.Errorf("user: %w", ErrNotFound)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("scan user: %w", err)
	}
	u.CreatedAt = time.Unix(createdAt, 0)
	return u, nil
}

// UserNames resolves display names for a set of user ids.
func (r *SQLiteRepository) UserNames(ctx context.Context, ids []int64) (map[int64]string, error) {
	names := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name FROM users WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, fmt.Errorf("query user names: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan user name: %w", err)
		}
		names[id] = name
	}
	return names, rows.Err()
}

// --- groups ---

// CreateGroup inserts the group and its creator's membership atomically.
func (r *SQLiteRepository) CreateGroup(ctx context.Context, g core.Group) (core.Group, error) {
	createdAt := now()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Group{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO groups (name, description, join_code, created_by, created_at) VALUES (?, ?, ?, ?, ?)",
		g.Name, g.Description, g.JoinCode, g.CreatedBy, createdAt,
	)
	if err != nil {
		return core.Group{}, fmt.Errorf("insert group: %w", wrapConstraint(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Group{}, fmt.Errorf("group id: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO members (group_id, user_id, joined_at) VALUES (?, ?, ?)",
		id, g.CreatedBy, createdAt,
	); err != nil {
		return core.Group{}, fmt.Errorf("insert creator membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return core.Group{}, fmt.Errorf("commit group: %w", err)
	}

	g.ID = id
	g.CreatedAt = time.Unix(createdAt, 0)
	return g, nil
}

func (r *SQLiteRepository) GetGroup(ctx context.Context, id int64) (core.Group, error) {
	return r.scanGroup(r.db.QueryRowContext(ctx,
		"SELECT id, name, description, join_code, created_by, created_at FROM groups WHERE id = ?", id))
}

func (r *SQLiteRepository) GetGroupByJoinCode(ctx context.Context, code string) (core.Group, error) {
	return r.scanGroup(r.db.QueryRowContext(ctx,
		"SELECT id, name, description, join_code, created_by, created_at FROM groups WHERE join_code = ?", code))
}

func (r *SQLiteRepository) scanGroup(row *sql.Row) (core.Group, error) {
	var g core.Group
	var createdAt int64
	err := row.Scan(&g.ID, &g.Name, &g.Description, &g.JoinCode, &g.CreatedBy, &createdAt)
	if err == sql.ErrNoRows {
		return core.Group{}, fmt.Errorf("group: %w", ErrNotFound)
	}
	if err != nil {
		return core.Group{}, fmt.Errorf("scan group: %w", err)
	}
	g.CreatedAt = time.Unix(createdAt, 0)
	return g, nil
}

func (r *SQLiteRepository) ListGroupsForUser(ctx context.Context, userID int64) ([]core.Group, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT g.id, g.name, g.description, g.join_code, g.created_by, g.created_at
		FROM groups g
		JOIN members m ON m.group_id = g.id
		WHERE m.user_id = ?
		ORDER BY g.created_at DESC, g.id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query groups: %w", err)
	}
	defer rows.Close()

	var groups []core.Group
	for rows.Next() {
		var g core.Group
		var createdAt int64
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.JoinCode, &g.CreatedBy, &createdAt); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		g.CreatedAt = time.Unix(createdAt, 0)
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (r *SQLiteRepository) AddMember(ctx context.Context, groupID, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO members (group_id, user_id, joined_at) VALUES (?, ?, ?)",
		groupID, userID, now(),
	)
	if err != nil {
		return fmt.Errorf("insert member: %w", wrapConstraint(err))
	}
	return nil
}

func (r *SQLiteRepository) ListMemberIDs(ctx context.Context, groupID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT user_id FROM members WHERE group_id = ? ORDER BY joined_at, user_id", groupID)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *SQLiteRepository) IsMember(ctx context.Context, groupID, userID int64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM members WHERE group_id = ? AND user_id = ?", groupID, userID,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query membership: %w", err)
	}
	return true, nil
}

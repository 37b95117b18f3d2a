package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vaultfs/filevault/pkg/filevault"
)

// DBTX is an interface that allows us to use either a database connection
// or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements filevault.Repository using PostgreSQL.
//
// The root parent sentinel is stored as NULL; parentParam and the
// IS NOT DISTINCT FROM comparison keep the two representations aligned
// in both directions.
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

func translateError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return filevault.ErrUserExists
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}
	return fmt.Errorf("database error in %s: %w", operation, err)
}

// parentParam maps the root sentinel to NULL for storage.
func parentParam(id filevault.ID) interface{} {
	if id.IsRoot() {
		return nil
	}
	return uuid.UUID(id)
}

// User operations

func (r *Repository) CreateUser(ctx context.Context, user *filevault.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)`

	_, err := r.db.Exec(ctx, query,
		uuid.UUID(user.ID), user.Email, user.PasswordHash, user.CreatedAt)
	if err != nil {
		return translateError("create_user", err)
	}
	return nil
}

func (r *Repository) GetUser(ctx context.Context, id filevault.ID) (*filevault.User, error) {
	query := `SELECT id, email, password_hash, created_at FROM users WHERE id = $1`
	return r.scanUser(r.db.QueryRow(ctx, query, uuid.UUID(id)))
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*filevault.User, error) {
	query := `SELECT id, email, password_hash, created_at FROM users WHERE email = $1`
	return r.scanUser(r.db.QueryRow(ctx, query, email))
}

func (r *Repository) scanUser(row pgx.Row) (*filevault.User, error) {
	var user filevault.User
	var id uuid.UUID
	err := row.Scan(&id, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, filevault.ErrUserNotFound
		}
		return nil, translateError("get_user", err)
	}
	user.ID = filevault.ID(id)
	return &user, nil
}

func (r *Repository) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&n)
	if err != nil {
		return 0, translateError("count_users", err)
	}
	return n, nil
}

// Entry operations

func (r *Repository) CreateEntry(ctx context.Context, entry *filevault.FileEntry) error {
	if !entry.ParentID.IsRoot() {
		var kind filevault.EntryKind
		err := r.db.QueryRow(ctx, `SELECT kind FROM entries WHERE id = $1`,
			uuid.UUID(entry.ParentID)).Scan(&kind)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return filevault.ErrParentNotFound
			}
			return translateError("create_entry", err)
		}
		if kind != filevault.KindFolder {
			return filevault.ErrParentNotFolder
		}
	}

	query := `
		INSERT INTO entries (id, owner_id, name, kind, parent_id, public, path, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		uuid.UUID(entry.ID), uuid.UUID(entry.OwnerID), entry.Name, string(entry.Kind),
		parentParam(entry.ParentID), entry.Public, entry.Path, entry.CreatedAt)
	if err != nil {
		return translateError("create_entry", err)
	}
	return nil
}

const entryColumns = `id, owner_id, name, kind, parent_id, public, path, created_at`

func (r *Repository) GetEntry(ctx context.Context, id filevault.ID) (*filevault.FileEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE id = $1`
	entry, err := scanEntry(r.db.QueryRow(ctx, query, uuid.UUID(id)))
	if err != nil {
		return nil, err
	}
	if err := r.loadVariants(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *Repository) GetOwnedEntry(ctx context.Context, id, ownerID filevault.ID) (*filevault.FileEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE id = $1 AND owner_id = $2`
	entry, err := scanEntry(r.db.QueryRow(ctx, query, uuid.UUID(id), uuid.UUID(ownerID)))
	if err != nil {
		return nil, err
	}
	if err := r.loadVariants(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *Repository) ListChildren(ctx context.Context, ownerID, parentID filevault.ID, page int) ([]*filevault.FileEntry, error) {
	if page < 0 {
		page = 0
	}

	query := `
		SELECT ` + entryColumns + `
		FROM entries
		WHERE owner_id = $1 AND parent_id IS NOT DISTINCT FROM $2
		ORDER BY seq
		LIMIT $3 OFFSET $4`

	rows, err := r.db.Query(ctx, query,
		uuid.UUID(ownerID), parentParam(parentID), filevault.PageSize, page*filevault.PageSize)
	if err != nil {
		return nil, translateError("list_children", err)
	}
	defer rows.Close()

	result := []*filevault.FileEntry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, translateError("list_children", err)
	}
	return result, nil
}

func (r *Repository) SetVisibility(ctx context.Context, id, ownerID filevault.ID, public bool) (*filevault.FileEntry, error) {
	query := `
		UPDATE entries SET public = $3
		WHERE id = $1 AND owner_id = $2
		RETURNING ` + entryColumns

	entry, err := scanEntry(r.db.QueryRow(ctx, query, uuid.UUID(id), uuid.UUID(ownerID), public))
	if err != nil {
		return nil, err
	}
	if err := r.loadVariants(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *Repository) SetVariant(ctx context.Context, id filevault.ID, width int, path string) error {
	query := `
		INSERT INTO entry_variants (entry_id, width, path)
		VALUES ($1, $2, $3)
		ON CONFLICT (entry_id, width) DO UPDATE SET path = EXCLUDED.path`

	_, err := r.db.Exec(ctx, query, uuid.UUID(id), width, path)
	if err != nil {
		return translateError("set_variant", err)
	}
	return nil
}

func (r *Repository) CountEntries(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM entries`).Scan(&n)
	if err != nil {
		return 0, translateError("count_entries", err)
	}
	return n, nil
}

func (r *Repository) Ping(ctx context.Context) error {
	var one int
	return r.db.QueryRow(ctx, `SELECT 1`).Scan(&one)
}

func (r *Repository) loadVariants(ctx context.Context, entry *filevault.FileEntry) error {
	rows, err := r.db.Query(ctx,
		`SELECT width, path FROM entry_variants WHERE entry_id = $1`, uuid.UUID(entry.ID))
	if err != nil {
		return translateError("load_variants", err)
	}
	defer rows.Close()

	for rows.Next() {
		var width int
		var path string
		if err := rows.Scan(&width, &path); err != nil {
			return translateError("load_variants", err)
		}
		if entry.Variants == nil {
			entry.Variants = make(map[int]string)
		}
		entry.Variants[width] = path
	}
	return rows.Err()
}

func scanEntry(row pgx.Row) (*filevault.FileEntry, error) {
	var entry filevault.FileEntry
	var id, owner uuid.UUID
	var parent *uuid.UUID
	var kind string

	err := row.Scan(&id, &owner, &entry.Name, &kind, &parent, &entry.Public, &entry.Path, &entry.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, filevault.ErrEntryNotFound
		}
		return nil, translateError("get_entry", err)
	}

	entry.ID = filevault.ID(id)
	entry.OwnerID = filevault.ID(owner)
	entry.Kind = filevault.EntryKind(kind)
	if parent != nil {
		entry.ParentID = filevault.ID(*parent)
	}
	return &entry, nil
}

var _ filevault.Repository = (*Repository)(nil)

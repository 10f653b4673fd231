package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/mailrag/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/mailrag/internal/core/domain"
	"github.com/custodia-labs/mailrag/internal/core/ports/driven"
)

// DefaultFileName is the database file created under ~/.mailrag.
const DefaultFileName = "mailrag.db"

// Store owns the database connection and hands out the email and
// category views.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// NewStore opens (creating if needed) the database at path and applies
// pending migrations. An empty path selects ~/.mailrag/mailrag.db.
func NewStore(path string) (*Store, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, ".mailrag", DefaultFileName)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: path, now: time.Now}
	if err := s.migrate(migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Emails returns the EmailStore view of this database.
func (s *Store) Emails() driven.EmailStore {
	return &emailStore{store: s}
}

// Categories returns the CategoryStore view of this database.
func (s *Store) Categories() driven.CategoryStore {
	return &categoryStore{store: s}
}

// migrate applies every NNN_*.up.sql file newer than the recorded version,
// each in its own transaction together with its version row.
func (s *Store) migrate(fsys fs.FS) error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	var ups []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".up.sql") {
			ups = append(ups, e.Name())
		}
	}
	sort.Strings(ups)

	for _, name := range ups {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil || version <= current {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(string(content)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %s: %w", name, err)
		}
	}
	return nil
}

// ==================== Email Store ====================

type emailStore struct {
	store *Store
}

var _ driven.EmailStore = (*emailStore)(nil)

const emailColumns = `id, sender, subject, body, summary, category, date_extracted, status, created_at`

// Create inserts an email and returns its ID.
func (e *emailStore) Create(ctx context.Context, email *domain.Email) (int64, error) {
	category := email.Category
	if category == "" {
		category = domain.CategoryUnclassified
	}
	status := email.Status
	if status == "" {
		status = domain.StatusCompleted
	}
	createdAt := email.CreatedAt
	if createdAt.IsZero() {
		createdAt = e.store.now()
	}

	res, err := e.store.db.ExecContext(ctx, `
		INSERT INTO emails (sender, subject, body, summary, category, date_extracted, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, email.Sender, email.Subject, email.Body, email.Summary, category,
		nullString(email.ExtractedDate), string(status), createdAt.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("inserting email: %w", err)
	}
	return res.LastInsertId()
}

// Get retrieves an email by ID.
func (e *emailStore) Get(ctx context.Context, id int64) (*domain.Email, error) {
	row := e.store.db.QueryRowContext(ctx, `SELECT `+emailColumns+` FROM emails WHERE id = ?`, id)
	email, err := scanEmail(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning email: %w", err)
	}
	return email, nil
}

// List returns emails newest first.
func (e *emailStore) List(ctx context.Context, filter domain.EmailFilter) ([]domain.Email, error) {
	filter = filter.Normalise()

	query := `SELECT ` + emailColumns + ` FROM emails`
	var args []any
	if filter.Category != "" {
		query += ` WHERE category = ?`
		args = append(args, filter.Category)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, filter.Limit, filter.Offset)

	return e.query(ctx, query, args...)
}

// ListPending returns deferred emails, oldest first.
func (e *emailStore) ListPending(ctx context.Context) ([]domain.Email, error) {
	return e.query(ctx, `SELECT `+emailColumns+` FROM emails WHERE status = ? ORDER BY id`, string(domain.StatusPending))
}

// UpdateCategory sets an email's category.
func (e *emailStore) UpdateCategory(ctx context.Context, id int64, category string) error {
	res, err := e.store.db.ExecContext(ctx, `UPDATE emails SET category = ? WHERE id = ?`, category, id)
	if err != nil {
		return fmt.Errorf("updating category: %w", err)
	}
	return requireRow(res)
}

// UpdateClassification replaces an email's classification fields. An
// empty subject keeps the stored one.
func (e *emailStore) UpdateClassification(ctx context.Context, id int64, result domain.ClassificationResult) error {
	res, err := e.store.db.ExecContext(ctx, `
		UPDATE emails SET
			category = ?,
			subject = CASE WHEN ? = '' THEN subject ELSE ? END,
			summary = ?,
			date_extracted = ?,
			status = ?
		WHERE id = ?
	`, result.Category, result.Subject, result.Subject, result.Summary,
		nullString(result.ExtractedDate), string(result.Status), id)
	if err != nil {
		return fmt.Errorf("updating classification: %w", err)
	}
	return requireRow(res)
}

// Delete removes an email.
func (e *emailStore) Delete(ctx context.Context, id int64) error {
	res, err := e.store.db.ExecContext(ctx, `DELETE FROM emails WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting email: %w", err)
	}
	return requireRow(res)
}

func (e *emailStore) query(ctx context.Context, query string, args ...any) ([]domain.Email, error) {
	rows, err := e.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying emails: %w", err)
	}
	defer rows.Close()

	emails := []domain.Email{}
	for rows.Next() {
		email, err := scanEmail(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning email: %w", err)
		}
		emails = append(emails, *email)
	}
	return emails, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEmail(row scanner) (*domain.Email, error) {
	var (
		email     domain.Email
		date      sql.NullString
		status    string
		createdAt int64
	)
	if err := row.Scan(&email.ID, &email.Sender, &email.Subject, &email.Body, &email.Summary,
		&email.Category, &date, &status, &createdAt); err != nil {
		return nil, err
	}
	if date.Valid {
		d := date.String
		email.ExtractedDate = &d
	}
	email.Status = domain.ClassificationStatus(status)
	email.CreatedAt = time.Unix(0, createdAt)
	return &email, nil
}

// ==================== Category Store ====================

type categoryStore struct {
	store *Store
}

var _ driven.CategoryStore = (*categoryStore)(nil)

// List returns all categories ordered by ID.
func (c *categoryStore) List(ctx context.Context) ([]domain.Category, error) {
	rows, err := c.store.db.QueryContext(ctx, `SELECT id, name, description, created_at FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	defer rows.Close()

	var cats []domain.Category
	for rows.Next() {
		cat, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		cats = append(cats, *cat)
	}
	return cats, rows.Err()
}

// Get returns a category by ID.
func (c *categoryStore) Get(ctx context.Context, id int64) (*domain.Category, error) {
	row := c.store.db.QueryRowContext(ctx, `SELECT id, name, description, created_at FROM categories WHERE id = ?`, id)
	cat, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning category: %w", err)
	}
	return cat, nil
}

// Add creates a category.
func (c *categoryStore) Add(ctx context.Context, name, description string) (*domain.Category, error) {
	now := c.store.now()
	res, err := c.store.db.ExecContext(ctx,
		`INSERT INTO categories (name, description, created_at) VALUES (?, ?, ?)`,
		name, description, now.UnixNano())
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		return nil, fmt.Errorf("inserting category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &domain.Category{ID: id, Name: name, Description: description, CreatedAt: time.Unix(0, now.UnixNano())}, nil
}

// Update renames a category and moves its emails to the new name.
func (c *categoryStore) Update(ctx context.Context, id int64, name, description string) error {
	return c.inTx(ctx, func(tx *sql.Tx) error {
		var old string
		if err := tx.QueryRowContext(ctx, `SELECT name FROM categories WHERE id = ?`, id).Scan(&old); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrNotFound
			}
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE categories SET name = ?, description = ? WHERE id = ?`, name, description, id); err != nil {
			if isUniqueViolation(err) {
				return domain.ErrAlreadyExists
			}
			return fmt.Errorf("updating category: %w", err)
		}
		if old != name {
			if _, err := tx.ExecContext(ctx, `UPDATE emails SET category = ? WHERE category = ?`, name, old); err != nil {
				return fmt.Errorf("moving emails to %q: %w", name, err)
			}
		}
		return nil
	})
}

// Delete removes a category and moves its emails to Unclassified.
func (c *categoryStore) Delete(ctx context.Context, id int64) error {
	return c.inTx(ctx, func(tx *sql.Tx) error {
		var name string
		if err := tx.QueryRowContext(ctx, `SELECT name FROM categories WHERE id = ?`, id).Scan(&name); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrNotFound
			}
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE emails SET category = ? WHERE category = ?`, domain.CategoryUnclassified, name); err != nil {
			return fmt.Errorf("reassigning emails: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id); err != nil {
			return fmt.Errorf("deleting category: %w", err)
		}
		return nil
	})
}

func (c *categoryStore) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := c.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func scanCategory(row scanner) (*domain.Category, error) {
	var (
		cat       domain.Category
		createdAt int64
	)
	if err := row.Scan(&cat.ID, &cat.Name, &cat.Description, &createdAt); err != nil {
		return nil, err
	}
	cat.CreatedAt = time.Unix(0, createdAt)
	return &cat, nil
}

// ==================== Helpers ====================

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"notecheck/model"
	"notecheck/utils"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const noteColumns = `id::text, title, content, tags, attachments, created_at, updated_at`

// PostgresNotesRepo stores notes in a single table keyed by UUID.
type PostgresNotesRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresNotesRepo(pool *pgxpool.Pool) *PostgresNotesRepo {
	return &PostgresNotesRepo{pool: pool}
}

// MigratePostgres brings the schema at databaseURL up to date.
func MigratePostgres(databaseURL string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, migrateURL(databaseURL))
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// migrateURL rewrites a postgres:// URL to the scheme the pgx/v5 migrate driver registers.
func migrateURL(databaseURL string) string {
	for _, prefix := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(databaseURL, prefix) {
			return "pgx5://" + strings.TrimPrefix(databaseURL, prefix)
		}
	}
	return databaseURL
}

// notFoundOnBadID maps a rejected uuid literal to ErrNoteNotFound.
func notFoundOnBadID(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.InvalidTextRepresentation {
		return ErrNoteNotFound
	}
	return err
}

func scanNote(row pgx.Row) (*model.Note, error) {
	var note model.Note
	if err := row.Scan(
		&note.ID,
		&note.Title,
		&note.Content,
		&note.Tags,
		&note.Attachments,
		&note.CreatedAt,
		&note.UpdatedAt,
	); err != nil {
		return nil, err
	}
	note.Normalize()
	return &note, nil
}

func (r *PostgresNotesRepo) CreateNote(ctx context.Context, note *model.Note) error {
	timer := utils.TrackDBOperation("insert", notesCollection)
	defer timer.ObserveDuration()

	note.ID = uuid.NewString()
	note.Normalize()

	_, err := r.pool.Exec(ctx,
		`INSERT INTO notes (id, title, content, tags, attachments, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		note.ID, note.Title, note.Content, note.Tags, note.Attachments, note.CreatedAt, note.UpdatedAt,
	)
	if err != nil {
		utils.TrackError("database", "note_creation_failed")
		note.ID = ""
		return fmt.Errorf("insert note: %w", err)
	}
	return nil
}

func likePattern(query string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(query) + "%"
}

func (r *PostgresNotesRepo) ListNotes(ctx context.Context, opts ListOptions) ([]*model.Note, error) {
	timer := utils.TrackDBOperation("find", notesCollection)
	defer timer.ObserveDuration()

	query := `SELECT ` + noteColumns + ` FROM notes`
	var args []any
	if opts.Query != "" {
		query += ` WHERE title ILIKE $1 OR content ILIKE $1
		           OR EXISTS (SELECT 1 FROM unnest(tags) AS t WHERE t ILIKE $1)`
		args = append(args, likePattern(opts.Query))
	}
	query += ` ORDER BY created_at, seq`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		utils.TrackError("database", "note_fetch_failed")
		return nil, fmt.Errorf("query notes: %w", err)
	}
	defer rows.Close()

	notes := make([]*model.Note, 0)
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			utils.TrackError("database", "note_decode_failed")
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}
	return notes, nil
}

func (r *PostgresNotesRepo) GetNote(ctx context.Context, noteID string) (*model.Note, error) {
	if _, err := uuid.Parse(noteID); err != nil {
		return nil, ErrNoteNotFound
	}

	timer := utils.TrackDBOperation("find_one", notesCollection)
	defer timer.ObserveDuration()

	row := r.pool.QueryRow(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = $1`, noteID)
	note, err := scanNote(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoteNotFound
		}
		if err = notFoundOnBadID(err); errors.Is(err, ErrNoteNotFound) {
			return nil, err
		}
		utils.TrackError("database", "note_fetch_failed")
		return nil, fmt.Errorf("get note %s: %w", noteID, err)
	}
	return note, nil
}

func (r *PostgresNotesRepo) UpdateNote(ctx context.Context, note *model.Note) error {
	if _, err := uuid.Parse(note.ID); err != nil {
		return ErrNoteNotFound
	}

	timer := utils.TrackDBOperation("update", notesCollection)
	defer timer.ObserveDuration()

	note.Normalize()
	tag, err := r.pool.Exec(ctx,
		`UPDATE notes SET title = $2, content = $3, tags = $4, attachments = $5, updated_at = $6
		 WHERE id = $1`,
		note.ID, note.Title, note.Content, note.Tags, note.Attachments, note.UpdatedAt,
	)
	if err != nil {
		if err = notFoundOnBadID(err); errors.Is(err, ErrNoteNotFound) {
			return err
		}
		utils.TrackError("database", "note_update_failed")
		return fmt.Errorf("update note %s: %w", note.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoteNotFound
	}
	return nil
}

func (r *PostgresNotesRepo) DeleteNote(ctx context.Context, noteID string) error {
	if _, err := uuid.Parse(noteID); err != nil {
		return ErrNoteNotFound
	}

	timer := utils.TrackDBOperation("delete", notesCollection)
	defer timer.ObserveDuration()

	tag, err := r.pool.Exec(ctx, `DELETE FROM notes WHERE id = $1`, noteID)
	if err != nil {
		if err = notFoundOnBadID(err); errors.Is(err, ErrNoteNotFound) {
			return err
		}
		utils.TrackError("database", "note_delete_failed")
		return fmt.Errorf("delete note %s: %w", noteID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoteNotFound
	}
	return nil
}

func (r *PostgresNotesRepo) DeleteAllNotes(ctx context.Context) (int64, error) {
	timer := utils.TrackDBOperation("delete_many", notesCollection)
	defer timer.ObserveDuration()

	tag, err := r.pool.Exec(ctx, `DELETE FROM notes`)
	if err != nil {
		utils.TrackError("database", "note_reset_failed")
		return 0, fmt.Errorf("delete all notes: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *PostgresNotesRepo) CountNotes(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM notes`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count notes: %w", err)
	}
	return count, nil
}

func (r *PostgresNotesRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

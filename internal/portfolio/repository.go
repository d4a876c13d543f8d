package portfolio

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgtype"

	"skillnest/internal/apperr"
)

type Repository interface {
	CreateShowcase(ctx context.Context, s *Showcase) error
	GetShowcase(ctx context.Context, id string) (*Showcase, error)
	ListShowcases(ctx context.Context, userID string) ([]*Showcase, error)
	UpdateShowcase(ctx context.Context, s *Showcase) error
	DeleteShowcase(ctx context.Context, id string) error

	CreateDocument(ctx context.Context, d *Document) error
	GetDocument(ctx context.Context, id string) (*Document, error)
	ListDocuments(ctx context.Context, userID string) ([]*Document, error)
	UpdateDocument(ctx context.Context, d *Document) error
	DeleteDocument(ctx context.Context, id string) error
}

type PGRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *PGRepository {
	return &PGRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

const showcaseColumns = "id, user_id, title, description, skills, visibility, project_url, created_at, updated_at"

func (r *PGRepository) CreateShowcase(ctx context.Context, s *Showcase) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO showcases ("+showcaseColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)",
		s.ID, s.UserID, s.Title, s.Description, s.Skills, string(s.Visibility), s.ProjectURL, s.CreatedAt, s.UpdatedAt)
	return apperr.Store(err)
}

func (r *PGRepository) GetShowcase(ctx context.Context, id string) (*Showcase, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+showcaseColumns+" FROM showcases WHERE id = $1", id)
	s, err := scanShowcase(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("showcase %s", id)
	}
	if err != nil {
		return nil, apperr.Store(err)
	}
	return s, nil
}

func (r *PGRepository) ListShowcases(ctx context.Context, userID string) ([]*Showcase, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+showcaseColumns+" FROM showcases WHERE user_id = $1 ORDER BY created_at DESC, id DESC", userID)
	if err != nil {
		return nil, apperr.Store(err)
	}
	defer rows.Close()

	out := []*Showcase{}
	for rows.Next() {
		s, err := scanShowcase(rows)
		if err != nil {
			return nil, apperr.Store(err)
		}
		out = append(out, s)
	}
	return out, apperr.Store(rows.Err())
}

func (r *PGRepository) UpdateShowcase(ctx context.Context, s *Showcase) error {
	return r.execOne(ctx, "showcase", s.ID,
		`UPDATE showcases SET title = $2, description = $3, skills = $4, visibility = $5,
		project_url = $6, updated_at = $7 WHERE id = $1`,
		s.ID, s.Title, s.Description, s.Skills, string(s.Visibility), s.ProjectURL, s.UpdatedAt)
}

func (r *PGRepository) DeleteShowcase(ctx context.Context, id string) error {
	return r.execOne(ctx, "showcase", id, "DELETE FROM showcases WHERE id = $1", id)
}

// scanShowcase gets a fresh pgtype Map per call; a Map is not safe for concurrent use.
func scanShowcase(row scanner) (*Showcase, error) {
	var (
		s   Showcase
		vis string
	)
	m := pgtype.NewMap()
	err := row.Scan(&s.ID, &s.UserID, &s.Title, &s.Description, m.SQLScanner(&s.Skills), &vis,
		&s.ProjectURL, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.Visibility = Visibility(vis)
	s.CreatedAt, s.UpdatedAt = s.CreatedAt.UTC(), s.UpdatedAt.UTC()
	if s.Skills == nil {
		s.Skills = []string{}
	}
	return &s, nil
}

const documentColumns = "id, user_id, name, description, visibility, folder, tags, created_at, updated_at"

func (r *PGRepository) CreateDocument(ctx context.Context, d *Document) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO documents ("+documentColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)",
		d.ID, d.UserID, d.Name, d.Description, string(d.Visibility), d.Folder, d.Tags, d.CreatedAt, d.UpdatedAt)
	return apperr.Store(err)
}

func (r *PGRepository) GetDocument(ctx context.Context, id string) (*Document, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+documentColumns+" FROM documents WHERE id = $1", id)
	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("document %s", id)
	}
	if err != nil {
		return nil, apperr.Store(err)
	}
	return d, nil
}

func (r *PGRepository) ListDocuments(ctx context.Context, userID string) ([]*Document, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE user_id = $1 ORDER BY folder, created_at DESC, id DESC", userID)
	if err != nil {
		return nil, apperr.Store(err)
	}
	defer rows.Close()

	out := []*Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, apperr.Store(err)
		}
		out = append(out, d)
	}
	return out, apperr.Store(rows.Err())
}

func (r *PGRepository) UpdateDocument(ctx context.Context, d *Document) error {
	return r.execOne(ctx, "document", d.ID,
		`UPDATE documents SET name = $2, description = $3, visibility = $4, folder = $5,
		tags = $6, updated_at = $7 WHERE id = $1`,
		d.ID, d.Name, d.Description, string(d.Visibility), d.Folder, d.Tags, d.UpdatedAt)
}

func (r *PGRepository) DeleteDocument(ctx context.Context, id string) error {
	return r.execOne(ctx, "document", id, "DELETE FROM documents WHERE id = $1", id)
}

func scanDocument(row scanner) (*Document, error) {
	var (
		d   Document
		vis string
	)
	m := pgtype.NewMap()
	err := row.Scan(&d.ID, &d.UserID, &d.Name, &d.Description, &vis, &d.Folder,
		m.SQLScanner(&d.Tags), &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	d.Visibility = Visibility(vis)
	d.CreatedAt, d.UpdatedAt = d.CreatedAt.UTC(), d.UpdatedAt.UTC()
	if d.Tags == nil {
		d.Tags = []string{}
	}
	return &d, nil
}

func (r *PGRepository) execOne(ctx context.Context, kind, id, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return apperr.Store(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("%s %s", kind, id)
	}
	return nil
}

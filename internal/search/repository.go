package search

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"skillnest/internal/apperr"
)

type Repository interface {
	// SearchByName matches query against any name column; an empty query returns everyone.
	SearchByName(ctx context.Context, query string) ([]*Member, error)
	// Distinct returns lower-cased, sorted, non-null values of a field.
	Distinct(ctx context.Context, field Field) ([]string, error)
	Upsert(ctx context.Context, m *Member) error
}

type PGRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *PGRepository {
	return &PGRepository{db: db}
}

const memberColumns = "id, full_name, first_name, last_name, country, institution, field_of_study, skills, internship"

var distinctQueries = map[Field]string{
	FieldCountry:      "SELECT DISTINCT lower(country) FROM members WHERE country IS NOT NULL ORDER BY 1",
	FieldInstitution:  "SELECT DISTINCT lower(institution) FROM members WHERE institution IS NOT NULL ORDER BY 1",
	FieldFieldOfStudy: "SELECT DISTINCT lower(field_of_study) FROM members WHERE field_of_study IS NOT NULL ORDER BY 1",
	FieldSkill:        "SELECT DISTINCT lower(s) FROM members, unnest(skills) AS s WHERE s IS NOT NULL ORDER BY 1",
	FieldInternship:   "SELECT DISTINCT lower(internship) FROM members WHERE internship IS NOT NULL ORDER BY 1",
}

func (r *PGRepository) SearchByName(ctx context.Context, query string) ([]*Member, error) {
	q := "SELECT " + memberColumns + " FROM members"
	var args []any
	if query != "" {
		q += " WHERE full_name ILIKE $1 OR first_name ILIKE $1 OR last_name ILIKE $1"
		args = append(args, "%"+query+"%")
	}
	q += " ORDER BY full_name, id"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, apperr.Store(err)
	}
	defer rows.Close()

	out := []*Member{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, apperr.Store(err)
		}
		out = append(out, m)
	}
	return out, apperr.Store(rows.Err())
}

func (r *PGRepository) Distinct(ctx context.Context, field Field) ([]string, error) {
	q, ok := distinctQueries[field]
	if !ok {
		return nil, fmt.Errorf("unknown filter field %q", field)
	}
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, apperr.Store(err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, apperr.Store(err)
		}
		out = append(out, v)
	}
	return out, apperr.Store(rows.Err())
}

func (r *PGRepository) Upsert(ctx context.Context, m *Member) error {
	query := `INSERT INTO members (` + memberColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET full_name = EXCLUDED.full_name, first_name = EXCLUDED.first_name,
		last_name = EXCLUDED.last_name, country = EXCLUDED.country, institution = EXCLUDED.institution,
		field_of_study = EXCLUDED.field_of_study, skills = EXCLUDED.skills, internship = EXCLUDED.internship`
	_, err := r.db.ExecContext(ctx, query, m.ID, m.FullName, m.FirstName, m.LastName,
		nullable(m.Country), nullable(m.Institution), nullable(m.FieldOfStudy), m.Skills, nullable(m.Internship))
	return apperr.Store(err)
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMember(s scanner) (*Member, error) {
	var m Member
	var country, institution, field, internship sql.NullString
	err := s.Scan(&m.ID, &m.FullName, &m.FirstName, &m.LastName, &country, &institution, &field,
		pgtype.NewMap().SQLScanner(&m.Skills), &internship)
	if err != nil {
		return nil, err
	}
	m.Country, m.Institution, m.FieldOfStudy, m.Internship = country.String, institution.String, field.String, internship.String
	if m.Skills == nil {
		m.Skills = []string{}
	}
	return &m, nil
}

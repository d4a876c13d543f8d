package user

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"skillnest/internal/apperr"
)

// Store is the persistence contract the service needs.
type Store interface {
	CreateUser(ctx context.Context, u *User) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
	SearchUsers(ctx context.Context, query string) ([]User, error)
	AddFollow(ctx context.Context, followerID, followedID string) error
	RemoveFollow(ctx context.Context, followerID, followedID string) error
	UpdateProfile(ctx context.Context, u *User) error
	SetSkills(ctx context.Context, id string, skills []string) error
	Followers(ctx context.Context, userID string) ([]string, error)
	Following(ctx context.Context, userID string) ([]string, error)
	FollowCounts(ctx context.Context, userID string) (*FollowCounts, error)
}

var ErrEmailTaken = errors.New("email already registered")

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateUser(ctx context.Context, user *User) (*User, error) {
	query := "INSERT INTO users (id, name, email, password) VALUES ($1, $2, $3, $4) RETURNING created_at"

	err := r.db.QueryRowContext(ctx, query, user.ID, user.Name, user.Email, user.Password).Scan(&user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperr.Validation("%v", ErrEmailTaken)
		}
		return nil, apperr.Store(err)
	}
	return user, nil
}

const userColumns = `id, name, email, password, created_at, headline, bio, tagline, gender,
	country, state, city, role, institution, language, internship, field_of_study, skills`

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE email = $1", email)
}

func (r *Repository) GetUserByID(ctx context.Context, id string) (*User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
}

func (r *Repository) getOne(ctx context.Context, query, arg string) (*User, error) {
	u := &User{}
	p := &u.Profile
	m := pgtype.NewMap()
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.CreatedAt,
		&p.Headline, &p.Bio, &p.Tagline, &p.Gender, &p.Country, &p.State, &p.City, &p.Role,
		&p.Institution, &p.Language, &p.Internship, &p.FieldOfStudy, m.SQLScanner(&u.Skills))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Store(err)
	}
	return u, nil
}

func (r *Repository) SearchUsers(ctx context.Context, query string) ([]User, error) {
	// We limit to 10 to keep it fast
	q := `SELECT id, name, email, created_at FROM users WHERE name ILIKE $1 OR email ILIKE $1 ORDER BY name LIMIT 10`
	rows, err := r.db.QueryContext(ctx, q, "%"+query+"%")
	if err != nil {
		return nil, apperr.Store(err)
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt); err != nil {
			return nil, apperr.Store(err)
		}
		users = append(users, u)
	}
	return users, apperr.Store(rows.Err())
}

func (r *Repository) UpdateProfile(ctx context.Context, u *User) error {
	p := u.Profile
	query := `UPDATE users SET name = $2, headline = $3, bio = $4, tagline = $5, gender = $6, country = $7,
		state = $8, city = $9, role = $10, institution = $11, language = $12, internship = $13, field_of_study = $14
		WHERE id = $1`
	return r.execOne(ctx, u.ID, query, u.ID, u.Name, p.Headline, p.Bio, p.Tagline, p.Gender, p.Country,
		p.State, p.City, p.Role, p.Institution, p.Language, p.Internship, p.FieldOfStudy)
}

func (r *Repository) SetSkills(ctx context.Context, id string, skills []string) error {
	return r.execOne(ctx, id, "UPDATE users SET skills = $2 WHERE id = $1", id, skills)
}

func (r *Repository) execOne(ctx context.Context, id, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return apperr.Store(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("user %s", id)
	}
	return nil
}

// AddFollow writes the single edge both follower sets are derived from.
// Re-following refreshes the edge, so the latest write wins.
func (r *Repository) AddFollow(ctx context.Context, followerID, followedID string) error {
	query := `INSERT INTO follows (follower_id, followed_id) VALUES ($1, $2)
		ON CONFLICT (follower_id, followed_id) DO UPDATE SET created_at = now()`
	_, err := r.db.ExecContext(ctx, query, followerID, followedID)
	return apperr.Store(err)
}

func (r *Repository) RemoveFollow(ctx context.Context, followerID, followedID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM follows WHERE follower_id = $1 AND followed_id = $2", followerID, followedID)
	return apperr.Store(err)
}

func (r *Repository) Followers(ctx context.Context, userID string) ([]string, error) {
	return r.ids(ctx, "SELECT follower_id FROM follows WHERE followed_id = $1 ORDER BY created_at", userID)
}

func (r *Repository) Following(ctx context.Context, userID string) ([]string, error) {
	return r.ids(ctx, "SELECT followed_id FROM follows WHERE follower_id = $1 ORDER BY created_at", userID)
}

func (r *Repository) FollowCounts(ctx context.Context, userID string) (*FollowCounts, error) {
	query := `SELECT
		(SELECT count(*) FROM follows WHERE followed_id = $1),
		(SELECT count(*) FROM follows WHERE follower_id = $1)`
	c := &FollowCounts{}
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&c.Followers, &c.Following); err != nil {
		return nil, apperr.Store(err)
	}
	return c, nil
}

func (r *Repository) ids(ctx context.Context, query, arg string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, apperr.Store(err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperr.Store(err)
		}
		out = append(out, id)
	}
	return out, apperr.Store(rows.Err())
}

package user

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillnest/internal/apperr"
	myMiddleware "skillnest/internal/middleware"
)

type memStore struct {
	mu      sync.Mutex
	users   map[string]User
	follows map[[2]string]time.Time
	seq     int
}

func newMemStore() *memStore {
	return &memStore{users: map[string]User{}, follows: map[[2]string]time.Time{}}
}

func (s *memStore) CreateUser(_ context.Context, u *User) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return nil, apperr.Validation("%v", ErrEmailTaken)
		}
	}
	u.CreatedAt = time.Now().UTC()
	s.users[u.ID] = *u
	return u, nil
}

func (s *memStore) GetUserByEmail(_ context.Context, email string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, apperr.NotFound("user not found")
}

func (s *memStore) GetUserByID(_ context.Context, id string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperr.NotFound("user not found")
	}
	return &u, nil
}

func (s *memStore) SearchUsers(_ context.Context, query string) ([]User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []User{}
	q := strings.ToLower(query)
	for _, u := range s.users {
		if strings.Contains(strings.ToLower(u.Name), q) || strings.Contains(u.Email, q) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memStore) UpdateProfile(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.users[u.ID]
	if !ok {
		return apperr.NotFound("user %s", u.ID)
	}
	cur.Name, cur.Profile = u.Name, u.Profile
	s.users[u.ID] = cur
	return nil
}

func (s *memStore) SetSkills(_ context.Context, id string, skills []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.users[id]
	if !ok {
		return apperr.NotFound("user %s", id)
	}
	cur.Skills = append([]string{}, skills...)
	s.users[id] = cur
	return nil
}

func (s *memStore) FollowCounts(_ context.Context, userID string) (*FollowCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &FollowCounts{}
	for k := range s.follows {
		if k[1] == userID {
			c.Followers++
		}
		if k[0] == userID {
			c.Following++
		}
	}
	return c, nil
}

func (s *memStore) AddFollow(_ context.Context, follower, followed string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.follows[[2]string{follower, followed}] = time.Unix(int64(s.seq), 0)
	return nil
}

func (s *memStore) RemoveFollow(_ context.Context, follower, followed string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.follows, [2]string{follower, followed})
	return nil
}

func (s *memStore) Followers(_ context.Context, userID string) ([]string, error) {
	return s.edges(func(k [2]string) (string, bool) { return k[0], k[1] == userID }), nil
}

func (s *memStore) Following(_ context.Context, userID string) ([]string, error) {
	return s.edges(func(k [2]string) (string, bool) { return k[1], k[0] == userID }), nil
}

func (s *memStore) edges(pick func([2]string) (string, bool)) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	type edge struct {
		id string
		at time.Time
	}
	var es []edge
	for k, at := range s.follows {
		if id, ok := pick(k); ok {
			es = append(es, edge{id, at})
		}
	}
	sort.Slice(es, func(i, j int) bool { return es[i].at.Before(es[j].at) })
	out := []string{}
	for _, e := range es {
		out = append(out, e.id)
	}
	return out
}

func register(t *testing.T, svc *Service, name, email string) *User {
	t.Helper()
	u, err := svc.Register(context.Background(), &RegisterRequest{Name: name, Email: email, Password: "correct-horse"})
	require.NoError(t, err)
	return u
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemStore(), "test-secret")

	u := register(t, svc, "Ada Lovelace", " Ada@Example.com ")
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.NotEqual(t, "correct-horse", u.Password, "password stored hashed")

	res, err := svc.Login(ctx, &LoginRequest{Email: "ada@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, res.ID)

	id, email, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)
	assert.Equal(t, "ada@example.com", email)

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, &LoginRequest{Email: "ada@example.com", Password: "nope"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(ctx, &LoginRequest{Email: "ghost@example.com", Password: "correct-horse"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.Register(ctx, &RegisterRequest{Name: "Imposter", Email: "ada@example.com", Password: "12345678"})
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})

	t.Run("invalid input", func(t *testing.T) {
		for _, req := range []RegisterRequest{
			{Name: "", Email: "x@example.com", Password: "12345678"},
			{Name: "X", Email: "not-an-email", Password: "12345678"},
			{Name: "X", Email: "x@example.com", Password: "short"},
		} {
			req := req
			_, err := svc.Register(ctx, &req)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		}
	})
}

func TestValidateToken(t *testing.T) {
	svc := NewService(newMemStore(), "test-secret")

	t.Run("wrong secret", func(t *testing.T) {
		other := NewService(newMemStore(), "other-secret")
		register(t, other, "Bob", "bob@example.com")
		res, err := other.Login(context.Background(), &LoginRequest{Email: "bob@example.com", Password: "correct-horse"})
		require.NoError(t, err)

		_, _, err = svc.ValidateToken(res.AccessToken)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, MyJWTClaims{
			ID: "u1",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			},
		})
		ss, err := tok.SignedString([]byte("test-secret"))
		require.NoError(t, err)

		_, _, err = svc.ValidateToken(ss)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, _, err := svc.ValidateToken("not.a.token")
		assert.Error(t, err)
	})
}

func TestFollow(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemStore(), "test-secret")
	ada := register(t, svc, "Ada", "ada@example.com")
	bob := register(t, svc, "Bob", "bob@example.com")
	cy := register(t, svc, "Cy", "cy@example.com")

	require.NoError(t, svc.Follow(ctx, ada.ID, bob.ID))
	require.NoError(t, svc.Follow(ctx, cy.ID, bob.ID))
	require.NoError(t, svc.Follow(ctx, ada.ID, bob.ID), "re-follow is not an error")

	followers, err := svc.Followers(ctx, bob.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{ada.ID, cy.ID}, followers)

	following, err := svc.Following(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{bob.ID}, following)

	t.Run("self", func(t *testing.T) {
		assert.ErrorIs(t, svc.Follow(ctx, ada.ID, ada.ID), apperr.ErrValidation)
	})

	t.Run("unknown user", func(t *testing.T) {
		assert.ErrorIs(t, svc.Follow(ctx, ada.ID, "ghost"), apperr.ErrNotFound)
	})

	t.Run("counts", func(t *testing.T) {
		c, err := svc.FollowCounts(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, &FollowCounts{Followers: 2, Following: 0}, c)

		c, err = svc.FollowCounts(ctx, ada.ID)
		require.NoError(t, err)
		assert.Equal(t, &FollowCounts{Followers: 0, Following: 1}, c)

		_, err = svc.FollowCounts(ctx, "ghost")
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("unfollow updates both sides", func(t *testing.T) {
		require.NoError(t, svc.Unfollow(ctx, ada.ID, bob.ID))
		require.NoError(t, svc.Unfollow(ctx, ada.ID, bob.ID), "absent edge is a no-op")

		followers, err := svc.Followers(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{cy.ID}, followers)

		following, err := svc.Following(ctx, ada.ID)
		require.NoError(t, err)
		assert.Empty(t, following)
	})
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemStore(), "test-secret")
	ada := register(t, svc, "Ada", "ada@example.com")
	bob := register(t, svc, "Bob", "bob@example.com")

	var seen []*User
	svc.OnProfileChange(func(_ context.Context, u *User) { seen = append(seen, u) })

	req := &UpdateProfileRequest{Name: " Ada Lovelace ", Profile: Profile{Headline: "Analyst", Country: "UK", FieldOfStudy: "Mathematics"}}
	u, err := svc.UpdateProfile(ctx, ada.ID, ada.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", u.Name)
	assert.Equal(t, "Analyst", u.Headline)

	got, err := svc.GetByID(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, "UK", got.Country)
	assert.Equal(t, "ada@example.com", got.Email, "email is not editable")
	require.Len(t, seen, 1)
	assert.Equal(t, "Mathematics", seen[0].FieldOfStudy)

	t.Run("blank name keeps the current one", func(t *testing.T) {
		u, err := svc.UpdateProfile(ctx, ada.ID, ada.ID, &UpdateProfileRequest{Profile: Profile{Bio: "hi"}})
		require.NoError(t, err)
		assert.Equal(t, "Ada Lovelace", u.Name)
		assert.Empty(t, u.Headline, "the profile is replaced as a whole")
	})

	t.Run("someone else", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, bob.ID, ada.ID, req)
		assert.ErrorIs(t, err, apperr.ErrForbidden)
	})
}

func TestSkills(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemStore(), "test-secret")
	ada := register(t, svc, "Ada", "ada@example.com")

	skills, err := svc.GetSkills(ctx, ada.ID)
	require.NoError(t, err)
	assert.Empty(t, skills)

	skills, err = svc.SetSkills(ctx, ada.ID, ada.ID, []string{" Go ", "SQL", "go", ""})
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "SQL"}, skills)

	skills, err = svc.GetSkills(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "SQL"}, skills)

	_, err = svc.SetSkills(ctx, "someone", ada.ID, []string{"x"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	_, err = svc.GetSkills(ctx, "ghost")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestHandlerRoutes(t *testing.T) {
	svc := NewService(newMemStore(), "test-secret")
	h := NewHandler(svc)

	r := chi.NewRouter()
	h.PublicRoutes(r)
	r.Group(func(r chi.Router) {
		r.Use(myMiddleware.NewAuthMiddleware(svc).Handle)
		h.Routes(r)
	})

	do := func(method, path, token, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	rec := do(http.MethodPost, "/register", "", `{"name":"Ada","email":"ada@example.com","password":"correct-horse"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "password")

	bob := register(t, svc, "Bob", "bob@example.com")

	rec = do(http.MethodPost, "/login", "", `{"email":"ada@example.com","password":"bad"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	res, err := svc.Login(context.Background(), &LoginRequest{Email: "ada@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	rec = do(http.MethodPost, "/api/users/"+bob.ID+"/follow", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(http.MethodPost, "/api/users/"+bob.ID+"/follow", res.AccessToken, "")
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = do(http.MethodGet, "/api/users/"+bob.ID+"/followers", res.AccessToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `["`+res.ID+`"]`, rec.Body.String())

	rec = do(http.MethodPost, "/api/users/"+res.ID+"/follow", res.AccessToken, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(http.MethodGet, "/api/users/search?q=bo", res.AccessToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), bob.ID)

	rec = do(http.MethodGet, "/api/users/"+bob.ID+"/counts", res.AccessToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"followersCount":1,"followingCount":0}`, rec.Body.String())

	rec = do(http.MethodPut, "/api/users/"+res.ID, res.AccessToken, `{"headline":"Engineer","city":"London"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"headline":"Engineer"`)

	rec = do(http.MethodPut, "/api/users/"+bob.ID, res.AccessToken, `{"headline":"Hacked"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(http.MethodPut, "/api/users/"+res.ID+"/skills", res.AccessToken, `{"skills":["Go","Redis"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(http.MethodGet, "/api/users/"+res.ID+"/skills", res.AccessToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"skills":["Go","Redis"]}`, rec.Body.String())
}

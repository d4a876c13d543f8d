package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillnest/internal/apperr"
	myMiddleware "skillnest/internal/middleware"
)

type memRepo struct {
	mu      sync.Mutex
	members map[string]Member
}

func (r *memRepo) SearchByName(_ context.Context, query string) ([]*Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q := strings.ToLower(query)
	out := []*Member{}
	for _, m := range r.members {
		m := m
		if q == "" || strings.Contains(strings.ToLower(m.FullName), q) ||
			strings.Contains(strings.ToLower(m.FirstName), q) || strings.Contains(strings.ToLower(m.LastName), q) {
			out = append(out, &m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

func (r *memRepo) Distinct(_ context.Context, field Field) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[string]bool{}
	add := func(v string) {
		if v != "" {
			seen[strings.ToLower(v)] = true
		}
	}
	for _, m := range r.members {
		switch field {
		case FieldCountry:
			add(m.Country)
		case FieldInstitution:
			add(m.Institution)
		case FieldFieldOfStudy:
			add(m.FieldOfStudy)
		case FieldInternship:
			add(m.Internship)
		case FieldSkill:
			for _, s := range m.Skills {
				add(s)
			}
		}
	}
	out := []string{}
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out, nil
}

func (r *memRepo) Upsert(_ context.Context, m *Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[m.ID] = *m
	return nil
}

func seeded() (*Service, *memRepo) {
	repo := &memRepo{members: map[string]Member{
		"1": {ID: "1", FullName: "Ada Lovelace", FirstName: "Ada", LastName: "Lovelace", Country: "UK", Institution: "Cambridge", FieldOfStudy: "Mathematics", Skills: []string{"Go", "Analysis"}, Internship: "Remote"},
		"2": {ID: "2", FullName: "Alan Turing", FirstName: "Alan", LastName: "Turing", Country: "uk", Institution: "Manchester", FieldOfStudy: "Computing", Skills: []string{"go", "Crypto"}},
		"3": {ID: "3", FullName: "Grace Hopper", FirstName: "Grace", LastName: "Hopper", Country: "USA", Institution: "Yale", FieldOfStudy: "Mathematics", Skills: []string{"COBOL"}, Internship: "Onsite"},
	}}
	return NewService(repo), repo
}

func names(ms []*Member) []string {
	out := []string{}
	for _, m := range ms {
		out = append(out, m.FullName)
	}
	return out
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	svc, _ := seeded()

	tests := []struct {
		name  string
		query string
		f     Filters
		want  []string
	}{
		{"everyone", "", Filters{}, []string{"Ada Lovelace", "Alan Turing", "Grace Hopper"}},
		{"name substring", "  lo ", Filters{}, []string{"Ada Lovelace"}},
		{"last name", "hop", Filters{}, []string{"Grace Hopper"}},
		{"country ignores case", "", Filters{Country: "UK"}, []string{"Ada Lovelace", "Alan Turing"}},
		{"skill matches any element", "", Filters{Skill: "GO"}, []string{"Ada Lovelace", "Alan Turing"}},
		{"combined", "a", Filters{FieldOfStudy: "mathematics", Internship: "onsite"}, []string{"Grace Hopper"}},
		{"no match", "zed", Filters{}, []string{}},
		{"missing optional field never matches", "", Filters{Internship: "remote", Country: "uk"}, []string{"Ada Lovelace"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Search(ctx, tt.query, tt.f)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestFilterOptions(t *testing.T) {
	svc, _ := seeded()
	opts, err := svc.FilterOptions(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"uk", "usa"}, opts[FieldCountry])
	assert.Equal(t, []string{"analysis", "cobol", "crypto", "go"}, opts[FieldSkill])
	assert.Equal(t, []string{"computing", "mathematics"}, opts[FieldFieldOfStudy])
	assert.Equal(t, []string{"onsite", "remote"}, opts[FieldInternship])
	assert.Len(t, opts, 5)
}

func TestUpsert(t *testing.T) {
	ctx := context.Background()
	svc, repo := seeded()

	m, err := svc.Upsert(ctx, &Member{ID: "4", FullName: " Barbara Liskov "})
	require.NoError(t, err)
	assert.Equal(t, "Barbara", m.FirstName)
	assert.Equal(t, "Liskov", m.LastName)
	assert.NotNil(t, m.Skills)
	assert.Contains(t, repo.members, "4")

	_, err = svc.Upsert(ctx, &Member{ID: "5"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.Upsert(ctx, &Member{FullName: "No Id"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestHandler(t *testing.T) {
	svc, _ := seeded()
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if id := req.Header.Get("X-User"); id != "" {
				req = req.WithContext(myMiddleware.WithUser(req.Context(), id, ""))
			}
			next.ServeHTTP(w, req)
		})
	})
	NewHandler(svc).Routes(r)

	req := httptest.NewRequest(http.MethodGet, "/api/search/members?query=a&skills=go&country=uk", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var got []*Member
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, []string{"Ada Lovelace", "Alan Turing"}, names(got))

	req = httptest.NewRequest(http.MethodGet, "/api/search/filters", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"fieldsOfStudy"`)

	req = httptest.NewRequest(http.MethodPut, "/api/search/members", strings.NewReader(`{"id":"1","fullName":"Not Ada"}`))
	req.Header.Set("X-User", "2")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodPut, "/api/search/members", strings.NewReader(`{"fullName":"Alan M. Turing"}`))
	req.Header.Set("X-User", "2")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"2"`)
}

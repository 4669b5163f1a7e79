package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpupo63/portfolio-backend/auth"
	"github.com/rpupo63/portfolio-backend/database"
	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/models"
	"github.com/rpupo63/portfolio-backend/store"
)

var testSecret = []byte("api-test-secret")

var (
	adminID  = uuid.MustParse("8f1b7f0e-1d7c-4d3b-9a39-6c1f3f6c0a01")
	viewerID = uuid.MustParse("8f1b7f0e-1d7c-4d3b-9a39-6c1f3f6c0a02")
)

// memTable is an in-memory store.Table keeping insertion order.
type memTable[T any] struct {
	mu      sync.Mutex
	rows    []T
	id      func(*T) *uuid.UUID
	listErr error
}

func newMemTable[T any](id func(*T) *uuid.UUID, rows ...T) *memTable[T] {
	t := &memTable[T]{id: id}
	for i := range rows {
		if *id(&rows[i]) == uuid.Nil {
			*id(&rows[i]) = uuid.New()
		}
	}
	t.rows = rows
	return t
}

func (t *memTable[T]) List(ctx context.Context) ([]T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.listErr != nil {
		return nil, t.listErr
	}
	return slices.Clone(t.rows), nil
}

func (t *memTable[T]) Get(ctx context.Context, id uuid.UUID) (*T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.rows {
		if *t.id(&t.rows[i]) == id {
			row := t.rows[i]
			return &row, nil
		}
	}
	return nil, errs.NewNotFound("row")
}

func (t *memTable[T]) Create(ctx context.Context, row *T) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	*t.id(row) = uuid.New()
	t.rows = append(t.rows, *row)
	return nil
}

func (t *memTable[T]) Update(ctx context.Context, id uuid.UUID, row *T) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.rows {
		if *t.id(&t.rows[i]) == id {
			*t.id(row) = id
			t.rows[i] = *row
			return nil
		}
	}
	return errs.NewNotFound("row")
}

func (t *memTable[T]) Delete(ctx context.Context, id uuid.UUID) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.rows {
		if *t.id(&t.rows[i]) == id {
			t.rows = slices.Delete(t.rows, i, i+1)
			return nil
		}
	}
	return errs.NewNotFound("row")
}

func (t *memTable[T]) Stats(ctx context.Context) (database.TableStats, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	stats := database.TableStats{Count: int64(len(t.rows))}
	if len(t.rows) > 0 {
		now := time.Now()
		stats.LastUpdated = &now
	}
	return stats, nil
}

func (t *memTable[T]) MostRecent(ctx context.Context) (*T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.rows) == 0 {
		return nil, nil
	}
	row := t.rows[len(t.rows)-1]
	return &row, nil
}

// fakeProfiles is an in-memory ProfileReader.
type fakeProfiles struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]models.Profile
	claims   []database.Claims
	delay    time.Duration
}

func (f *fakeProfiles) FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	f.mu.Lock()
	delay := f.delay
	f.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := database.ClaimsFrom(ctx); ok {
		f.claims = append(f.claims, c)
	}
	p, ok := f.profiles[id]
	if !ok {
		return nil, errs.NewNotFound("profile")
	}
	return &p, nil
}

type fakeUploader struct {
	mu       sync.Mutex
	uploads  []string
	failWith error
}

func (f *fakeUploader) UploadImage(ctx context.Context, filename, contentType string, body io.Reader, size int64) (string, error) {
	if f.failWith != nil {
		return "", f.failWith
	}
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, filename+"|"+contentType)
	return "https://cdn.example/projects/" + filename, nil
}

// fakeGoTrue issues tokens for two known accounts and records logouts.
type fakeGoTrue struct {
	t             *testing.T
	logoutCode    atomic.Int32
	recovered     atomic.Int32
	passwords     atomic.Int32
	refreshes     atomic.Int32
	rejectRefresh atomic.Bool
	tokenTTL      atomic.Int64
}

func signToken(t *testing.T, sub uuid.UUID, email string, expiresAt time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   sub.String(),
		"email": email,
		"role":  "authenticated",
		"exp":   expiresAt.Unix(),
	})
	signed, err := tok.SignedString(testSecret)
	require.NoError(t, err)
	return signed
}

func (f *fakeGoTrue) handler() http.Handler {
	accounts := map[string]uuid.UUID{
		"admin@example.com":  adminID,
		"viewer@example.com": viewerID,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/v1/token", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))

		email := body["email"]
		if r.URL.Query().Get("grant_type") == "refresh_token" {
			email = ""
			for account, id := range accounts {
				if body["refresh_token"] == "refresh-"+id.String() {
					email = account
				}
			}
			if email == "" || f.rejectRefresh.Load() {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Refresh Token Not Found"}`))
				return
			}
			f.refreshes.Add(1)
		} else if body["password"] != "correct-horse" {
			email = ""
		}
		id, ok := accounts[email]
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))
			return
		}
		ttl := time.Duration(f.tokenTTL.Load())
		if ttl == 0 {
			ttl = time.Hour
		}
		expires := time.Now().Add(ttl)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  signToken(f.t, id, email, expires),
			"token_type":    "bearer",
			"expires_at":    expires.Unix(),
			"refresh_token": "refresh-" + id.String(),
			"user":          map[string]string{"id": id.String(), "email": email},
		})
	})
	mux.HandleFunc("POST /auth/v1/logout", func(w http.ResponseWriter, r *http.Request) {
		code := int(f.logoutCode.Load())
		if code == 0 {
			code = http.StatusNoContent
		}
		w.WriteHeader(code)
	})
	mux.HandleFunc("PUT /auth/v1/user", func(w http.ResponseWriter, r *http.Request) {
		f.passwords.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": adminID.String(), "email": "admin@example.com"})
	})
	mux.HandleFunc("POST /auth/v1/recover", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(f.t, "https://site.example/reset-password", r.URL.Query().Get("redirect_to"))
		f.recovered.Add(1)
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

type fixture struct {
	t        *testing.T
	server   *httptest.Server
	client   *http.Client
	gotrue   *fakeGoTrue
	registry *auth.Registry
	profiles *fakeProfiles
	uploader *fakeUploader

	categories     *memTable[models.Category]
	subcategories  *memTable[models.Subcategory]
	skills         *memTable[models.Skill]
	experiences    *memTable[models.Experience]
	education      *memTable[models.Education]
	certifications *memTable[models.Certification]
	projects       *memTable[models.Project]
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		t:        t,
		gotrue:   &fakeGoTrue{t: t},
		uploader: &fakeUploader{},
		profiles: &fakeProfiles{profiles: map[uuid.UUID]models.Profile{
			adminID:  {ID: adminID, IsAdmin: true},
			viewerID: {ID: viewerID},
		}},
		categories:     newMemTable(func(c *models.Category) *uuid.UUID { return &c.ID }),
		subcategories:  newMemTable(func(s *models.Subcategory) *uuid.UUID { return &s.ID }),
		skills:         newMemTable(func(s *models.Skill) *uuid.UUID { return &s.ID }),
		experiences:    newMemTable(func(e *models.Experience) *uuid.UUID { return &e.ID }),
		education:      newMemTable(func(e *models.Education) *uuid.UUID { return &e.ID }),
		certifications: newMemTable(func(c *models.Certification) *uuid.UUID { return &c.ID }),
		projects:       newMemTable(func(p *models.Project) *uuid.UUID { return &p.ID }),
	}

	gotrueServer := httptest.NewServer(f.gotrue.handler())
	t.Cleanup(gotrueServer.Close)

	gotrue := auth.NewGoTrue(gotrueServer.URL, "anon-key", gotrueServer.Client())
	factory := auth.NewFactory(gotrue, auth.StorageKey("test"), testSecret, NewProfileFetcher(f.profiles), auth.DefaultTimeouts())
	f.registry = auth.NewRegistry(factory, 30*time.Minute)
	t.Cleanup(f.registry.Shutdown)

	router := newRouter(Dependencies{
		Catalog:  f.catalog(),
		Registry: f.registry,
		Cookies:  NewCookieStore("cookie-secret", false),
		Images:   f.uploader,
	}, withConfig(map[string]string{
		"ACCEPTED_ORIGINS":   "https://site.example",
		"AUTH_GUARD_WAIT_MS": "1000",
		"SITE_URL":           "https://site.example",
	}), withStartupTime(time.Now()))

	f.server = httptest.NewServer(router)
	t.Cleanup(f.server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	f.client = &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return f
}

func (f *fixture) catalog() *store.Catalog {
	cache := store.NewCache(store.DefaultStaleAfter)
	subcategoriesOf := func(ctx context.Context, id uuid.UUID) (bool, error) {
		rows, _ := f.subcategories.List(ctx)
		return slices.ContainsFunc(rows, func(s models.Subcategory) bool { return s.CategoryID == id }), nil
	}
	skillsOf := func(ctx context.Context, id uuid.UUID) (bool, error) {
		rows, _ := f.skills.List(ctx)
		return slices.ContainsFunc(rows, func(s models.Skill) bool { return s.SubcategoryID == id }), nil
	}

	return &store.Catalog{
		Categories: store.NewResource[models.Category, *models.CategoryInput]("categories", "category", f.categories, cache,
			store.WithDependents(store.Dependent{Name: "subcategories", Exists: subcategoriesOf})),
		Subcategories: store.NewResource[models.Subcategory, *models.SubcategoryInput]("subcategories", "subcategory", f.subcategories, cache,
			store.WithDependents(store.Dependent{Name: "skills", Exists: skillsOf})),
		Skills:         store.NewResource[models.Skill, *models.SkillInput]("skills", "skill", f.skills, cache),
		Experiences:    store.NewResource[models.Experience, *models.ExperienceInput]("experiences", "experience", f.experiences, cache),
		Education:      store.NewResource[models.Education, *models.EducationInput]("education", "education", f.education, cache),
		Certifications: store.NewResource[models.Certification, *models.CertificationInput]("certifications", "certification", f.certifications, cache),
		Projects: store.NewResource[models.Project, *models.ProjectInput]("projects", "project", f.projects, cache,
			store.AlsoInvalidates("project-tags")),
		Tags: store.NewQuery("project-tags", func(ctx context.Context) ([]string, error) {
			rows, err := f.projects.List(ctx)
			if err != nil {
				return nil, err
			}
			var tags []string
			for _, p := range rows {
				for _, name := range p.TagNames() {
					if !slices.Contains(tags, name) {
						tags = append(tags, name)
					}
				}
			}
			slices.Sort(tags)
			return tags, nil
		}, cache),
		ProjectBySlug: store.NewLookup(func(ctx context.Context, slug string) (*models.Project, error) {
			rows, _ := f.projects.List(ctx)
			for _, p := range rows {
				if p.Slug == slug {
					return &p, nil
				}
			}
			return nil, errs.NewNotFound("project")
		}),
	}
}

func (f *fixture) do(method, path string, body any) *http.Response {
	f.t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(f.t, err)
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, f.server.URL+path, reader)
	require.NoError(f.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := f.client.Do(req)
	require.NoError(f.t, err)
	f.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (f *fixture) session() SessionResponse {
	f.t.Helper()
	return decode[SessionResponse](f.t, f.do(http.MethodGet, "/session", nil))
}

// login signs in; the session reflects the new identity as soon as the response arrives.
func (f *fixture) login(email string, wantAdmin bool) {
	f.t.Helper()
	resp := f.do(http.MethodPost, "/login", LoginRequest{Email: email, Password: "correct-horse"})
	require.Equal(f.t, http.StatusOK, resp.StatusCode)

	s := f.session()
	require.NotNil(f.t, s.Identity)
	require.Equal(f.t, email, s.Identity.Email)
	require.Equal(f.t, wantAdmin, s.IsAdmin)
}

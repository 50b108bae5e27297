package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/deppfellow/bookstore/internal/config"
	"github.com/deppfellow/bookstore/internal/middleware"
	"github.com/deppfellow/bookstore/internal/model"
	"github.com/deppfellow/bookstore/internal/repository"
	"github.com/deppfellow/bookstore/internal/server"
	"github.com/deppfellow/bookstore/internal/service"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore keeps records as decoded JSON rows, keyed by the JSON name of
// their identity.
type memStore[T any] struct {
	mu     sync.Mutex
	key    string
	rows   []map[string]any
	nextID int64
}

func newMemStore[T any](key string) *memStore[T] {
	return &memStore[T]{key: key}
}

func encode(v any) map[string]any {
	b, _ := json.Marshal(v)
	d := json.NewDecoder(bytes.NewReader(b))
	d.UseNumber()

	var row map[string]any
	_ = d.Decode(&row)
	return row
}

func decode[T any](row map[string]any) (T, error) {
	var rec T
	b, err := json.Marshal(row)
	if err != nil {
		return rec, err
	}
	err = json.Unmarshal(b, &rec)
	return rec, err
}

// text renders a value the way it appears in a query string.
func text(v any) string {
	b, _ := json.Marshal(v)
	var s string
	if json.Unmarshal(b, &s) == nil {
		return s
	}
	return string(b)
}

func (s *memStore[T]) find(id string) int {
	for i, row := range s.rows {
		if text(row[s.key]) == id {
			return i
		}
	}
	return -1
}

func (s *memStore[T]) Create(_ context.Context, rec *T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := encode(rec)
	if s.key == "id" {
		id, _ := strconv.ParseInt(text(row["id"]), 10, 64)
		if id == 0 {
			s.nextID++
			id = s.nextID
		}
		s.nextID = max(s.nextID, id)
		row["id"] = json.Number(strconv.FormatInt(id, 10))
	}
	if s.find(text(row[s.key])) >= 0 {
		return errors.New("duplicate identity")
	}

	stored, err := decode[T](row)
	if err != nil {
		return err
	}
	*rec = stored
	s.rows = append(s.rows, row)
	return nil
}

func (s *memStore[T]) Get(_ context.Context, id string) (*T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.find(id)
	if i < 0 {
		return nil, repository.ErrNotFound
	}
	rec, err := decode[T](s.rows[i])
	return &rec, err
}

func (s *memStore[T]) FindOne(ctx context.Context, match map[string]any) (*T, error) {
	filters := make(map[string]string, len(match))
	for name, value := range match {
		filters[name] = text(value)
	}

	recs, err := s.List(ctx, filters)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, repository.ErrNotFound
	}
	return &recs[0], nil
}

func (s *memStore[T]) List(_ context.Context, filters map[string]string) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []T{}
rows:
	for _, row := range s.rows {
		for name, value := range filters {
			if text(row[name]) != value {
				continue rows
			}
		}
		rec, err := decode[T](row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *memStore[T]) Replace(_ context.Context, id string, rec *T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.find(id)
	if i < 0 {
		return repository.ErrNotFound
	}
	row := encode(rec)
	row[s.key] = s.rows[i][s.key]
	s.rows[i] = row
	return nil
}

func (s *memStore[T]) Patch(_ context.Context, id string, fields map[string]any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.find(id)
	if i < 0 {
		return "", repository.ErrNotFound
	}

	merged := make(map[string]any, len(s.rows[i]))
	for name, value := range s.rows[i] {
		merged[name] = value
	}
	for name, value := range fields {
		for existing := range merged {
			if strings.EqualFold(existing, name) {
				merged[existing] = value
			}
		}
	}

	if _, err := decode[T](merged); err != nil {
		return "", repository.ErrInvalidValue
	}

	newID := text(merged[s.key])
	if newID != id && s.find(newID) >= 0 {
		return "", errors.New("duplicate identity")
	}
	s.rows[i] = merged
	return newID, nil
}

func (s *memStore[T]) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.find(id)
	if i < 0 {
		return repository.ErrNotFound
	}
	s.rows = append(s.rows[:i], s.rows[i+1:]...)
	return nil
}

func newTestAPI(t *testing.T) *echo.Echo {
	t.Helper()

	logger := zerolog.Nop()
	s := &server.Server{
		Config: &config.Config{Primary: config.Primary{Env: "test"}},
		Logger: &logger,
	}

	editors := newMemStore[model.Editor]("id")
	authors := newMemStore[model.Author]("id")
	awards := newMemStore[model.Award]("id")
	users := newMemStore[model.User]("username")
	links := newMemStore[model.AuthorAward]("id")
	events := newMemStore[model.Event]("id")

	e := echo.New()
	e.HTTPErrorHandler = middleware.NewGlobalMiddlewares(s).GlobalErrorHandler
	e.Pre(echoMiddleware.RemoveTrailingSlash())

	api := e.Group("/api/v1")
	for _, r := range []Registrar{
		NewResourceHandler(s, service.NewResource[model.Editor](model.Editors, editors)),
		NewResourceHandler(s, service.NewResource[model.Author](model.Authors, authors)),
		NewResourceHandler(s, service.NewResource[model.Award](model.Awards, awards)),
		NewResourceHandler(s, service.NewResource[model.User](model.Users, users)),
		NewResourceHandler(s, service.NewResource[model.Event](model.Events, events)),
		NewResourceHandler(s, service.NewResource[model.AuthorAward](model.AuthorsAwards, links,
			service.RefersTo[model.AuthorAward, model.Author](model.Authors, model.AuthorAward.AuthorRef, authors),
			service.RefersTo[model.AuthorAward, model.Award](model.Awards, model.AuthorAward.AwardRef, awards),
		)),
	} {
		r.Register(api)
	}
	return e
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestCreateAndConflict(t *testing.T) {
	e := newTestAPI(t)

	rec := do(e, http.MethodPost, "/api/v1/authors", `{"lastName":"Dostoevsky","firstName":"Fyodor"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, float64(1), body["id"])
	assert.Equal(t, "Dostoevsky", body["lastName"])
	assert.Nil(t, body["biography"])
	assert.NotContains(t, body, "createdAt")

	rec = do(e, http.MethodPost, "/api/v1/authors", `{"lastName":"Dostoevsky","firstName":"Fyodor"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "This author already exists", decodeBody(t, rec)["message"])
}

func TestCreateMissingData(t *testing.T) {
	e := newTestAPI(t)

	rec := do(e, http.MethodPost, "/api/v1/authors", `{"lastName":"Dostoevsky"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Missing data", body["message"])
	assert.Equal(t, "MISSING_DATA", body["code"])
	assert.NotContains(t, body, "detail", "detail is only attached in development")

	rec = do(e, http.MethodGet, "/api/v1/authors", "")
	assert.JSONEq(t, `[]`, rec.Body.String(), "nothing was written")
}

func TestCreateDropsUnknownFields(t *testing.T) {
	e := newTestAPI(t)

	rec := do(e, http.MethodPost, "/api/v1/editors", `{"name":"Gallimard","color":"red"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "color")
	assert.JSONEq(t, `{"id":1,"name":"Gallimard"}`, rec.Body.String())

	rec = do(e, http.MethodGet, "/api/v1/editors/1", "")
	assert.NotContains(t, rec.Body.String(), "color")
}

func TestMalformedBody(t *testing.T) {
	e := newTestAPI(t)

	rec := do(e, http.MethodPost, "/api/v1/editors", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetUnknownRecord(t *testing.T) {
	e := newTestAPI(t)

	rec := do(e, http.MethodGet, "/api/v1/authors/99", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Author 99 not found", decodeBody(t, rec)["message"])

	rec = do(e, http.MethodGet, "/api/v1/users/ghost", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User ghost not found", decodeBody(t, rec)["message"])
}

func TestListFilters(t *testing.T) {
	e := newTestAPI(t)

	for _, body := range []string{
		`{"lastName":"Dostoevsky","firstName":"Fyodor"}`,
		`{"lastName":"Tolstoy","firstName":"Leo"}`,
		`{"lastName":"Tolstoy","firstName":"Aleksey"}`,
	} {
		require.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/api/v1/authors", body).Code)
	}

	rec := do(e, http.MethodGet, "/api/v1/authors?LASTNAME=Tolstoy&color=red", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []model.Author
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 2)

	rec = do(e, http.MethodGet, "/api/v1/authors?lastName=Tolstoy&firstName=Leo", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, int64(2), list[0].ID)

	rec = do(e, http.MethodGet, "/api/v1/authors?lastName=Woolf", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestReplaceValidatesBeforeLookup(t *testing.T) {
	e := newTestAPI(t)

	rec := do(e, http.MethodPut, "/api/v1/editors/42", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "400 wins over 404")

	rec = do(e, http.MethodPut, "/api/v1/editors/42", `{"name":"Gallimard"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Editor 42 not found", decodeBody(t, rec)["message"])

	require.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/api/v1/editors", `{"name":"Actes Sud"}`).Code)

	rec = do(e, http.MethodPut, "/api/v1/editors/1", `{"id":7,"name":"Actes Sud Junior"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"id":1,"name":"Actes Sud Junior"}`, rec.Body.String())
}

func TestPatchMovesIdentity(t *testing.T) {
	e := newTestAPI(t)

	require.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/api/v1/authors", `{"lastName":"Dostoevsky","firstName":"Fyodor"}`).Code)

	rec := do(e, http.MethodPatch, "/api/v1/authors/1", `{"id":15,"Biography":"Russian novelist"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, float64(15), body["id"])
	assert.Equal(t, "Russian novelist", body["biography"])
	assert.Equal(t, "Fyodor", body["firstName"])

	assert.Equal(t, http.StatusNotFound, do(e, http.MethodGet, "/api/v1/authors/1", "").Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/api/v1/authors/15", "").Code)

	rec = do(e, http.MethodPatch, "/api/v1/authors/99", `{"biography":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPatchIgnoresUnknownFields(t *testing.T) {
	e := newTestAPI(t)

	require.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/api/v1/authors", `{"lastName":"Dostoevsky","firstName":"Fyodor"}`).Code)

	rec := do(e, http.MethodPatch, "/api/v1/authors/1", `{"color":"red","biography":"Russian novelist"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "color")
	assert.JSONEq(t, `{"id":1,"lastName":"Dostoevsky","firstName":"Fyodor","biography":"Russian novelist"}`, rec.Body.String())

	rec = do(e, http.MethodPatch, "/api/v1/authors/1", `{"color":"red"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"id":1,"lastName":"Dostoevsky","firstName":"Fyodor","biography":"Russian novelist"}`, rec.Body.String())
}

func TestPatchRejectsBlankRequiredFields(t *testing.T) {
	e := newTestAPI(t)

	require.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/api/v1/authors", `{"lastName":"Dostoevsky","firstName":"Fyodor"}`).Code)
	require.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/api/v1/events",
		`{"title":"Signing","description":"Book signing","date":"2019-02-22"}`).Code)

	for _, tt := range []struct {
		target string
		body   string
	}{
		{"/api/v1/authors/1", `{"lastName":""}`},
		{"/api/v1/authors/1", `{"FIRSTNAME":"","biography":"x"}`},
		{"/api/v1/events/1", `{"title":""}`},
		{"/api/v1/events/1", `{"date":null}`},
	} {
		rec := do(e, http.MethodPatch, tt.target, tt.body)
		require.Equal(t, http.StatusBadRequest, rec.Code, "%s %s: %s", tt.target, tt.body, rec.Body.String())
		body := decodeBody(t, rec)
		assert.Equal(t, "Missing data", body["message"])
		assert.Equal(t, "MISSING_DATA", body["code"])
	}

	rec := do(e, http.MethodGet, "/api/v1/authors/1", "")
	assert.JSONEq(t, `{"id":1,"lastName":"Dostoevsky","firstName":"Fyodor","biography":null}`, rec.Body.String(), "nothing was written")

	rec = do(e, http.MethodGet, "/api/v1/events/1", "")
	body := decodeBody(t, rec)
	assert.Equal(t, "Signing", body["title"])
	assert.Equal(t, "2019-02-22T00:00:00.000Z", body["date"])
}

func TestPatchRejectsDuplicateSpellings(t *testing.T) {
	e := newTestAPI(t)

	require.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/api/v1/authors", `{"lastName":"Dostoevsky","firstName":"Fyodor"}`).Code)

	rec := do(e, http.MethodPatch, "/api/v1/authors/1", `{"lastName":"Tolstoy","lastname":"Gogol"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Field lastName is given more than once", decodeBody(t, rec)["message"])

	rec = do(e, http.MethodGet, "/api/v1/authors/1", "")
	assert.Equal(t, "Dostoevsky", decodeBody(t, rec)["lastName"])
}

func TestPatchOnlyOnPatchableResources(t *testing.T) {
	e := newTestAPI(t)

	require.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/api/v1/editors", `{"name":"Gallimard"}`).Code)

	rec := do(e, http.MethodPatch, "/api/v1/editors/1", `{"name":"Folio"}`)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestDeleteTwice(t *testing.T) {
	e := newTestAPI(t)

	require.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/api/v1/awards", `{"name":"Booker Prize"}`).Code)

	rec := do(e, http.MethodDelete, "/api/v1/awards/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Award deleted"}`, rec.Body.String())

	rec = do(e, http.MethodDelete, "/api/v1/awards/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Award 1 not found", decodeBody(t, rec)["message"])
}

func TestAuthorAwardReferences(t *testing.T) {
	e := newTestAPI(t)

	require.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/api/v1/authors", `{"lastName":"Ishiguro","firstName":"Kazuo"}`).Code)

	rec := do(e, http.MethodPost, "/api/v1/authorsAwards", `{"AuthorId":1,"AwardId":1000}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Award 1000 not found", decodeBody(t, rec)["message"])

	require.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/api/v1/awards", `{"name":"Nobel Prize in Literature"}`).Code)

	rec = do(e, http.MethodPost, "/api/v1/authorsAwards", `{"AuthorId":1,"AwardId":1}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, float64(1), body["authorId"])
	assert.Equal(t, float64(1), body["awardId"])

	rec = do(e, http.MethodPost, "/api/v1/authorsAwards", `{"authorId":1,"awardId":1}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "This author award already exists", decodeBody(t, rec)["message"])
}

func TestUnknownRoute(t *testing.T) {
	e := newTestAPI(t)

	rec := do(e, http.MethodGet, "/api/v1/publishers", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Route not found", decodeBody(t, rec)["message"])

	rec = do(e, http.MethodGet, "/nowhere", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTrailingSlashIsIgnored(t *testing.T) {
	e := newTestAPI(t)

	rec := do(e, http.MethodGet, "/api/v1/authors/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestHandleAllocatesRequestPerCall(t *testing.T) {
	e := newTestAPI(t)

	require.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/api/v1/authors", `{"lastName":"Woolf","firstName":"Virginia","biography":"Novelist"}`).Code)

	rec := do(e, http.MethodPost, "/api/v1/authors", `{"lastName":"Joyce","firstName":"James"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Nil(t, decodeBody(t, rec)["biography"], "no state leaks from the previous body")
}

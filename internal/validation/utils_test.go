package validation

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/deppfellow/bookstore/internal/errs"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type genreRequest struct {
	Name  string   `json:"name" validate:"required"`
	Price *float64 `json:"price" validate:"omitempty,gte=0"`
}

var testValidator = New()

func (r *genreRequest) Validate() error {
	return testValidator.Struct(r)
}

type slugRequest struct {
	Slug string `json:"slug"`
}

func (r *slugRequest) Validate() error {
	if strings.Contains(r.Slug, " ") {
		return CustomValidationErrors{{Field: "slug", Message: "must not contain spaces"}}
	}
	return nil
}

func bind(t *testing.T, body string, payload any) error {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/genres?name=fromQuery", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := echo.New().NewContext(req, httptest.NewRecorder())
	return BindAndValidate(c, payload)
}

func requireHTTPError(t *testing.T, err error) *errs.HTTPError {
	t.Helper()

	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	return httpErr
}

func TestBindAndValidateMissingData(t *testing.T) {
	var req genreRequest
	httpErr := requireHTTPError(t, bind(t, `{}`, &req))

	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.Equal(t, errs.CodeMissingData, httpErr.Code)
	assert.Equal(t, errs.MissingDataMessage, httpErr.Message)
	assert.Equal(t, []errs.FieldError{{Field: "name", Error: "is required"}}, httpErr.Errors)
	assert.Empty(t, req.Name, "query parameters are never bound")
}

func TestBindAndValidateRuleViolation(t *testing.T) {
	var req genreRequest
	httpErr := requireHTTPError(t, bind(t, `{"name":"Poetry","price":-1}`, &req))

	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.Equal(t, "BAD_REQUEST", httpErr.Code)
	assert.Equal(t, []errs.FieldError{{Field: "price", Error: "must be greater than or equal to 0"}}, httpErr.Errors)
}

func TestBindAndValidateCustomErrors(t *testing.T) {
	var req slugRequest
	httpErr := requireHTTPError(t, bind(t, `{"slug":"two words"}`, &req))

	assert.Equal(t, "BAD_REQUEST", httpErr.Code)
	assert.Equal(t, "slug", httpErr.Errors[0].Field)
}

func TestBindAndValidateMalformedJSON(t *testing.T) {
	var req genreRequest
	httpErr := requireHTTPError(t, bind(t, `{"name":`, &req))

	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.Equal(t, "BAD_REQUEST", httpErr.Code)
}

func TestBindAndValidateAcceptsValidBody(t *testing.T) {
	var req genreRequest
	require.NoError(t, bind(t, `{"name":"Poetry","price":0}`, &req))
	assert.Equal(t, "Poetry", req.Name)
}

func TestBindBodyKeepsUnsupportedMediaType(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("name=Poetry"))
	req.Header.Set(echo.HeaderContentType, echo.MIMETextPlain)
	c := echo.New().NewContext(req, httptest.NewRecorder())

	var echoErr *echo.HTTPError
	require.ErrorAs(t, BindBody(c, &genreRequest{}), &echoErr)
	assert.Equal(t, http.StatusUnsupportedMediaType, echoErr.Code)
}

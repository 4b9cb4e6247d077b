package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/photocard-store/pkg/errors"
)

type loginBody struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func decodeString(t *testing.T, body string, strict bool) (loginBody, error) {
	t.Helper()
	var dest loginBody
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	if strict {
		return dest, DecodeJSONBody(httptest.NewRecorder(), req, &dest)
	}
	return dest, DecodeJSONBodyLenient(httptest.NewRecorder(), req, &dest)
}

func TestDecodeJSONBody(t *testing.T) {
	got, err := decodeString(t, `{"email":"a@b.co","password":"secret1"}`, true)
	require.NoError(t, err)
	assert.Equal(t, "a@b.co", got.Email)
}

func TestDecodeJSONBodyEmpty(t *testing.T) {
	_, err := decodeString(t, "", true)
	e := pkgerrors.As(err)
	require.NotNil(t, e)
	assert.Equal(t, pkgerrors.CodeValidation, e.Code())
	assert.Equal(t, "request body is required", e.Message())
}

func TestDecodeJSONBodyUnknownField(t *testing.T) {
	body := `{"email":"a@b.co","password":"secret1","role":"admin"}`

	_, err := decodeString(t, body, true)
	require.Error(t, err)
	assert.Equal(t, "invalid request body", pkgerrors.As(err).Message())

	_, err = decodeString(t, body, false)
	assert.NoError(t, err)
}

func TestDecodeJSONBodyValidationDetails(t *testing.T) {
	_, err := decodeString(t, `{"email":"nope","password":"abc"}`, true)
	e := pkgerrors.As(err)
	require.NotNil(t, e)
	assert.Equal(t, "validation failed", e.Message())
	details, ok := e.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "must be a valid email", details["email"])
	assert.Equal(t, "must be at least 6", details["password"])
}

func TestParseQueryDecimal(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?min=4.50&bad=x", nil)

	v, err := ParseQueryDecimal(req, "min")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "4.5", v.String())

	v, err = ParseQueryDecimal(req, "missing")
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = ParseQueryDecimal(req, "bad")
	assert.Error(t, err)
}

func TestParseIDParam(t *testing.T) {
	withID := func(id string) *http.Request {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", id)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	id, err := ParseIDParam(withID("42"), "id")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, raw := range []string{"", "0", "-1", "4x"} {
		_, err := ParseIDParam(withID(raw), "id")
		assert.Error(t, err, raw)
	}
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc.def", "abc.def", true},
		{"bearer   abc ", "abc", true},
		{"Basic abc", "", false},
		{"Bearer ", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		token, ok := BearerToken(tc.header)
		assert.Equal(t, tc.ok, ok, tc.header)
		assert.Equal(t, tc.token, token, tc.header)
	}
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "abc", SanitizeString("  abcdef ", 3))
	assert.Equal(t, "abc", SanitizeString(" abc ", 0))
}

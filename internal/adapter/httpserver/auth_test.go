package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	t.Parallel()
	salt := []byte("0123456789abcdef")
	encoded := HashPassword("s3cret", salt)

	assert.True(t, VerifyPassword("s3cret", encoded))
	assert.False(t, VerifyPassword("wrong", encoded))
	assert.False(t, VerifyPassword("s3cret", "not-an-encoded-hash"))
	assert.False(t, VerifyPassword("s3cret", "$argon2id$v=19$m=bad$x$y"))
}

func TestAdminBasicAuth(t *testing.T) {
	t.Parallel()
	encoded := HashPassword("hunter2", []byte("0123456789abcdef"))

	var gotAdmin bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAdmin = IdentityFrom(r).Admin
		w.WriteHeader(http.StatusOK)
	})
	h := AdminBasicAuth("ops", encoded)(next)

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/questions", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))

	req = httptest.NewRequest(http.MethodGet, "/v1/admin/questions", nil)
	req.SetBasicAuth("ops", "wrong")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/admin/questions", nil)
	req.SetBasicAuth("someone", "hunter2")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/admin/questions", nil)
	req.SetBasicAuth("ops", "hunter2")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, gotAdmin)
}

func TestAdminBasicAuthUnconfiguredRejectsAll(t *testing.T) {
	t.Parallel()
	h := AdminBasicAuth("", "")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/v1/admin/questions", nil)
	req.SetBasicAuth("anyone", "anything")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBearerToken(t *testing.T) {
	t.Parallel()
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"Bearer  abc ", "abc"},
		{"Basic abc", ""},
		{"", ""},
		{"Bearer", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		assert.Equal(t, tt.want, bearerToken(req), "header %q", tt.header)
	}
}

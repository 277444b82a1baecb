package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/table-bot/internal/internaltypes"
)

func TestChannelAuth(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	a := ChannelAuth{SecretHash: string(hash)}

	r := httptest.NewRequest(http.MethodPost, "/api/messages", nil)
	assert.ErrorIs(t, a.Verify(r), internaltypes.ErrUnauthorized)

	r.Header.Set("Authorization", "Bearer wrong")
	assert.ErrorIs(t, a.Verify(r), internaltypes.ErrUnauthorized)

	r.Header.Set("Authorization", "Bearer s3cret")
	assert.NoError(t, a.Verify(r))

	assert.NoError(t, ChannelAuth{}.Verify(httptest.NewRequest(http.MethodPost, "/", nil)))
}

func TestRequireRejects(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	h := ChannelAuth{SecretHash: string(hash)}.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionsRoundTrip(t *testing.T) {
	s := NewSessions([]byte(strings.Repeat("h", 32)), []byte(strings.Repeat("b", 32)))

	rec := httptest.NewRecorder()
	require.NoError(t, s.Start(rec, httptest.NewRequest(http.MethodGet, "/", nil), "conv-42"))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(cookies[0])
	cid, ok := s.ConversationID(r)
	assert.True(t, ok)
	assert.Equal(t, "conv-42", cid)

	tampered := httptest.NewRequest(http.MethodGet, "/", nil)
	tampered.AddCookie(&http.Cookie{Name: cookieName, Value: "garbage"})
	_, ok = s.ConversationID(tampered)
	assert.False(t, ok)
}

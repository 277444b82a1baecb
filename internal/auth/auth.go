package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/table-bot/internal/internaltypes"
)

func HashSecret(secret string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	return string(b), err
}

func CheckSecret(hash, secret string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret))
	return err == nil
}

// ChannelAuth guards the channel endpoint with a shared bearer secret. An
// empty hash disables the check.
type ChannelAuth struct {
	SecretHash string
}

func (a ChannelAuth) Verify(r *http.Request) error {
	if a.SecretHash == "" {
		return nil
	}
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" || !CheckSecret(a.SecretHash, token) {
		return internaltypes.ErrUnauthorized
	}
	return nil
}

func (a ChannelAuth) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := a.Verify(r); err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const (
	cookieName   = "tablebot_session"
	cookieMaxAge = 14 * 24 * time.Hour
)

// Sessions keeps the web chat conversation id in a signed, encrypted cookie.
type Sessions struct {
	sc *securecookie.SecureCookie
}

func NewSessions(hashKey, blockKey []byte) *Sessions {
	sc := securecookie.New(hashKey, blockKey)
	sc.MaxAge(int(cookieMaxAge.Seconds()))
	return &Sessions{sc: sc}
}

func (s *Sessions) Start(w http.ResponseWriter, r *http.Request, conversationID string) error {
	encoded, err := s.sc.Encode(cookieName, map[string]string{"cid": conversationID})
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
		MaxAge:   int(cookieMaxAge.Seconds()),
	})
	return nil
}

func (s *Sessions) ConversationID(r *http.Request) (string, bool) {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return "", false
	}
	val := map[string]string{}
	if err := s.sc.Decode(cookieName, c.Value, &val); err != nil {
		return "", false
	}
	cid := val["cid"]
	return cid, cid != ""
}

func (s *Sessions) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

var ErrNoCredentials = errors.New("admin credentials not configured")

// Credentials holds the single admin account. The password is only ever kept as
// a bcrypt hash.
type Credentials struct {
	User         string
	PasswordHash []byte
}

// NewCredentials prefers an already hashed password; a plain password is hashed
// once at startup.
func NewCredentials(user, plain, hash string) (Credentials, error) {
	if user == "" || (plain == "" && hash == "") {
		return Credentials{}, ErrNoCredentials
	}
	if hash != "" {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return Credentials{}, err
		}
		return Credentials{User: user, PasswordHash: []byte(hash)}, nil
	}
	h, err := HashPassword(plain)
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{User: user, PasswordHash: h}, nil
}

func HashPassword(raw string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
}

// Verify compares the user name in constant time and the password against the hash.
func (c Credentials) Verify(user, password string) bool {
	if len(c.PasswordHash) == 0 {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(c.User)) == 1
	passOK := bcrypt.CompareHashAndPassword(c.PasswordHash, []byte(password)) == nil
	return userOK && passOK
}

// RequireBasicAuth guards next with HTTP basic auth against creds.
func RequireBasicAuth(next http.Handler, creds Credentials, realm string) http.Handler {
	challenge := `Basic realm="` + realm + `", charset="UTF-8"`
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", challenge)
			http.Error(w, "missing or invalid Authorization header", http.StatusUnauthorized)
			return
		}
		if !creds.Verify(user, pass) {
			w.Header().Set("WWW-Authenticate", challenge)
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

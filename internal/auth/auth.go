package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// BcryptHasher hashes passwords with bcrypt
type BcryptHasher struct {
	Cost int
}

// Hash returns the bcrypt hash of password
func (h BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare checks password against hash
func (h BcryptHasher) Compare(hash, password string) error {
	if hash == "" {
		return errors.New("no password set")
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

type signedPayload struct {
	Exp int64  `json:"exp"`
	Sub string `json:"sub"` // user id
}

// Tokens issues and verifies signed session tokens
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokens creates a token signer
func NewTokens(secret []byte, ttl time.Duration) *Tokens {
	return &Tokens{secret: secret, ttl: ttl, now: time.Now}
}

// Issue returns a token identifying userID
func (t *Tokens) Issue(userID int64) (string, error) {
	b, err := json.Marshal(signedPayload{
		Exp: t.now().Add(t.ttl).Unix(),
		Sub: strconv.FormatInt(userID, 10),
	})
	if err != nil {
		return "", err
	}
	p := base64.RawURLEncoding.EncodeToString(b)
	return p + "." + t.sign(p), nil
}

// Verify returns the user id carried by a valid, unexpired token
func (t *Tokens) Verify(token string) (int64, error) {
	parts := strings.Split(strings.TrimSpace(token), ".")
	if len(parts) != 2 {
		return 0, errors.New("invalid token format")
	}
	p, sig := parts[0], parts[1]

	if !hmac.Equal([]byte(t.sign(p)), []byte(sig)) {
		return 0, errors.New("invalid token signature")
	}

	raw, err := base64.RawURLEncoding.DecodeString(p)
	if err != nil {
		return 0, errors.New("invalid token payload")
	}
	var sp signedPayload
	if err := json.Unmarshal(raw, &sp); err != nil {
		return 0, errors.New("invalid token payload")
	}
	if t.now().Unix() > sp.Exp {
		return 0, errors.New("token expired")
	}
	id, err := strconv.ParseInt(sp.Sub, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("token missing sub")
	}
	return id, nil
}

func (t *Tokens) sign(payload string) string {
	mac := hmac.New(sha256.New, t.secret)
	_, _ = mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// LoadOrInitSecret reads the signing key at path, creating a random one if absent
func LoadOrInitSecret(path string) ([]byte, error) {
	if b, err := os.ReadFile(path); err == nil && len(strings.TrimSpace(string(b))) > 0 {
		return []byte(strings.TrimSpace(string(b))), nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, err
	}
	enc := base64.RawURLEncoding.EncodeToString(raw)
	if err := os.WriteFile(path, []byte(enc+"\n"), 0o600); err != nil {
		return nil, err
	}
	return []byte(enc), nil
}

// Authenticated encryption of notification sessions handed to clients as opaque tokens.

package envelope

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/chacha20poly1305"
)

// Headers carrying a Token in both directions.
const (
	NonceHeader = "X-Instance-Nonce"
	DataHeader  = "X-Instance-Data"
)

var (
	ErrMalformedToken   = errors.New("malformed instance token")
	ErrTamperedToken    = errors.New("instance token failed authentication")
	ErrIdentityMismatch = errors.New("instance token belongs to another account")
)

// Token is a sealed session, both halves base64url encoded.
type Token struct {
	Nonce string
	Data  string
}

// Reads a Token from request headers, absent halves are left empty.
func FromHeader(h http.Header) Token {
	return Token{Nonce: h.Get(NonceHeader), Data: h.Get(DataHeader)}
}

// Writes the Token into response headers.
func (t Token) SetHeader(h http.Header) {
	h.Set(NonceHeader, t.Nonce)
	h.Set(DataHeader, t.Data)
}

// Sealed plaintext, the owning account travels with the session.
type payload struct {
	Username uuid.UUID       `json:"username"`
	Data     json.RawMessage `json:"data"`
}

// Envelope seals and opens sessions with one pre-shared 256-bit key.
type Envelope struct {
	key []byte
}

// Returns an Envelope over key, which must be exactly 32 bytes.
func New(key []byte) (*Envelope, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, errors.Errorf("envelope key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	k := make([]byte, len(key))
	copy(k, key)
	return &Envelope{key: k}, nil
}

// Seal serializes v for account and encrypts it under a fresh random nonce.
func (e *Envelope) Seal(account uuid.UUID, v any) (Token, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Token{}, errors.Wrap(err, "marshalling session")
	}
	plaintext, err := json.Marshal(payload{Username: account, Data: data})
	if err != nil {
		return Token{}, errors.Wrap(err, "marshalling envelope")
	}
	aead, err := chacha20poly1305.NewX(e.key)
	if err != nil {
		return Token{}, errors.Wrap(err, "creating cipher")
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return Token{}, errors.Wrap(err, "generating nonce")
	}
	ciphertext := aead.Seal(nil, nonce, plaintext, nil)
	return Token{
		Nonce: base64.URLEncoding.EncodeToString(nonce),
		Data:  base64.URLEncoding.EncodeToString(ciphertext),
	}, nil
}

// Open decrypts token into v, failing closed unless it was sealed for account.
func (e *Envelope) Open(token Token, account uuid.UUID, v any) error {
	if token.Nonce == "" || token.Data == "" {
		return ErrMalformedToken
	}
	nonce, err := base64.URLEncoding.DecodeString(token.Nonce)
	if err != nil || len(nonce) != chacha20poly1305.NonceSizeX {
		return ErrMalformedToken
	}
	ciphertext, err := base64.URLEncoding.DecodeString(token.Data)
	if err != nil || len(ciphertext) < chacha20poly1305.Overhead {
		return ErrMalformedToken
	}
	aead, err := chacha20poly1305.NewX(e.key)
	if err != nil {
		return errors.Wrap(err, "creating cipher")
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return ErrTamperedToken
	}
	var p payload
	if err := json.Unmarshal(plaintext, &p); err != nil {
		return ErrMalformedToken
	}
	if p.Username != account {
		return ErrIdentityMismatch
	}
	if err := json.Unmarshal(p.Data, v); err != nil {
		return ErrMalformedToken
	}
	return nil
}

// Returns true if err came from a token the client sent, not from the server.
func IsClientError(err error) bool {
	return errors.Is(err, ErrMalformedToken) || errors.Is(err, ErrTamperedToken) || errors.Is(err, ErrIdentityMismatch)
}

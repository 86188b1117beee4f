// Package signing computes and verifies the HMAC-SHA256 signatures that bind
// widget configuration responses and purchase reports to a tenant.
package signing

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

var ErrNotJSONObject = errors.New("payload is not a JSON object")

// KeyDeriver turns a shared secret into the HMAC keys for each signature type.
type KeyDeriver interface {
	ConfigKey(secret, publicKey string) []byte
	PurchaseKey(secret string) []byte
}

// ConcatDeriver keys config signatures with secret||publicKey and purchase
// signatures with the bare secret.
type ConcatDeriver struct{}

func (ConcatDeriver) ConfigKey(secret, publicKey string) []byte {
	return []byte(secret + publicKey)
}

func (ConcatDeriver) PurchaseKey(secret string) []byte {
	return []byte(secret)
}

// HKDFDeriver expands the secret with HKDF-SHA256, salted by the public key
// for config signatures.
type HKDFDeriver struct{}

func (HKDFDeriver) ConfigKey(secret, publicKey string) []byte {
	return expand(secret, publicKey, "cashwidget/widget-config")
}

func (HKDFDeriver) PurchaseKey(secret string) []byte {
	return expand(secret, "", "cashwidget/track-purchase")
}

func expand(secret, salt, info string) []byte {
	var saltBytes []byte
	if salt != "" {
		saltBytes = []byte(salt)
	}
	reader := hkdf.New(sha256.New, []byte(secret), saltBytes, []byte(info))
	key := make([]byte, sha256.Size)
	if _, err := io.ReadFull(reader, key); err != nil {
		// 32 bytes is far below the HKDF-SHA256 output limit.
		panic(fmt.Sprintf("hkdf expand: %v", err))
	}
	return key
}

// DeriverForScheme maps a configured scheme name to a deriver.
func DeriverForScheme(scheme string) (KeyDeriver, error) {
	switch strings.ToLower(strings.TrimSpace(scheme)) {
	case "", "concat":
		return ConcatDeriver{}, nil
	case "hkdf":
		return HKDFDeriver{}, nil
	default:
		return nil, fmt.Errorf("unknown signature scheme %q", scheme)
	}
}

// Sign returns the lowercase hex HMAC-SHA256 of payload under key.
func Sign(payload, key []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature is the hex HMAC-SHA256 of payload under key.
// Malformed signatures verify as false.
func Verify(payload, key []byte, signature string) bool {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return false
	}
	provided, err := hex.DecodeString(strings.ToLower(signature))
	if err != nil || len(provided) != sha256.Size {
		return false
	}
	mac := hmac.New(sha256.New, key)
	mac.Write(payload)
	return hmac.Equal(provided, mac.Sum(nil))
}

// Prefix returns a log-safe prefix of a signature.
func Prefix(signature string) string {
	if len(signature) <= 8 {
		return signature
	}
	return signature[:8]
}

// CanonicalPayload re-encodes a JSON object with sorted keys, with the named
// top-level keys removed. Numbers keep their original textual form.
func CanonicalPayload(body []byte, omit ...string) ([]byte, error) {
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	var object map[string]any
	if err := decoder.Decode(&object); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	if object == nil {
		return nil, ErrNotJSONObject
	}
	for _, key := range omit {
		delete(object, key)
	}
	var out bytes.Buffer
	encoder := json.NewEncoder(&out)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(object); err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return bytes.TrimRight(out.Bytes(), "\n"), nil
}

// Service signs config bodies and verifies purchase reports for one
// deployment-wide secret. Tenants may override the secret per call.
type Service struct {
	secret  string
	deriver KeyDeriver
}

func NewService(secret string, deriver KeyDeriver) *Service {
	if deriver == nil {
		deriver = ConcatDeriver{}
	}
	return &Service{secret: secret, deriver: deriver}
}

func (s *Service) secretFor(tenantSecret string) string {
	if strings.TrimSpace(tenantSecret) != "" {
		return tenantSecret
	}
	return s.secret
}

// SignConfig signs the exact config body bytes for a tenant.
func (s *Service) SignConfig(body []byte, publicKey, tenantSecret string) string {
	return Sign(body, s.deriver.ConfigKey(s.secretFor(tenantSecret), publicKey))
}

// VerifyConfig checks a config body signature, as a partner page would.
func (s *Service) VerifyConfig(body []byte, publicKey, tenantSecret, signature string) bool {
	return Verify(body, s.deriver.ConfigKey(s.secretFor(tenantSecret), publicKey), signature)
}

// SignPurchase signs a canonical purchase payload.
func (s *Service) SignPurchase(canonical []byte, tenantSecret string) string {
	return Sign(canonical, s.deriver.PurchaseKey(s.secretFor(tenantSecret)))
}

// VerifyPurchase checks a purchase signature over the canonical payload.
func (s *Service) VerifyPurchase(canonical []byte, tenantSecret, signature string) bool {
	return Verify(canonical, s.deriver.PurchaseKey(s.secretFor(tenantSecret)), signature)
}

// Package envelope implements the authenticated at-rest encryption for
// secrets records. A sealed envelope is a self-describing JSON object; the
// version field pins the full cipher scheme so future schemes can coexist
// with the ability to open everything previously written.
package envelope

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"

	kerrors "github.com/systmms/kometactl/internal/errors"
)

// Version 1 scheme: PBKDF2-SHA256 over the master key with a fresh per-seal
// salt, AES-256-GCM with a fresh 12-byte IV and 16-byte tag.
const (
	SchemeVersion = 1

	MasterKeyLength = 32

	saltLength = 32
	ivLength   = 12
	tagLength  = 16
	keyLength  = 32

	// kdfIterations is fixed per scheme version: Open must re-derive the
	// same key from the embedded salt.
	kdfIterations = 100_000
)

// Envelope is the persisted wire form. Binary fields are base64 encoded.
type Envelope struct {
	Version   int    `json:"version"`
	Salt      string `json:"salt"`
	IV        string `json:"iv"`
	AuthTag   string `json:"authTag"`
	Encrypted string `json:"encrypted"`
}

// Seal encrypts plaintext under the master key and returns the envelope as a
// JSON string. Salt and IV are freshly generated on every call, so sealing
// the same plaintext twice never produces comparable ciphertexts.
func Seal(plaintext []byte, masterKey []byte) (string, error) {
	if len(masterKey) != MasterKeyLength {
		return "", kerrors.UserError{
			Message:    "invalid master key length",
			Details:    fmt.Sprintf("expected %d bytes, got %d", MasterKeyLength, len(masterKey)),
			Suggestion: "Generate a key with 'kometactl keygen'",
		}
	}

	salt := make([]byte, saltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	iv := make([]byte, ivLength)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", fmt.Errorf("failed to generate iv: %w", err)
	}

	gcm, err := newGCM(masterKey, salt)
	if err != nil {
		return "", err
	}

	sealed := gcm.Seal(nil, iv, plaintext, nil)
	ciphertext := sealed[:len(sealed)-tagLength]
	tag := sealed[len(sealed)-tagLength:]

	env := Envelope{
		Version:   SchemeVersion,
		Salt:      base64.StdEncoding.EncodeToString(salt),
		IV:        base64.StdEncoding.EncodeToString(iv),
		AuthTag:   base64.StdEncoding.EncodeToString(tag),
		Encrypted: base64.StdEncoding.EncodeToString(ciphertext),
	}

	out, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("failed to encode envelope: %w", err)
	}
	return string(out), nil
}

// Open decrypts an envelope string sealed with Seal. Wrong key, corrupted
// payload, tampering, and unsupported versions all surface as DecryptionError;
// callers cannot and should not distinguish them.
func Open(envelopeText string, masterKey []byte) (string, error) {
	var env Envelope
	if err := json.Unmarshal([]byte(envelopeText), &env); err != nil {
		return "", kerrors.DecryptionError{Message: "envelope is not valid JSON", Err: err}
	}

	if env.Version != SchemeVersion {
		return "", kerrors.DecryptionError{
			Message: fmt.Sprintf("unsupported envelope version %d", env.Version),
		}
	}

	salt, err := base64.StdEncoding.DecodeString(env.Salt)
	if err != nil || len(salt) != saltLength {
		return "", kerrors.DecryptionError{Message: "malformed salt"}
	}
	iv, err := base64.StdEncoding.DecodeString(env.IV)
	if err != nil || len(iv) != ivLength {
		return "", kerrors.DecryptionError{Message: "malformed iv"}
	}
	tag, err := base64.StdEncoding.DecodeString(env.AuthTag)
	if err != nil || len(tag) != tagLength {
		return "", kerrors.DecryptionError{Message: "malformed auth tag"}
	}
	ciphertext, err := base64.StdEncoding.DecodeString(env.Encrypted)
	if err != nil {
		return "", kerrors.DecryptionError{Message: "malformed ciphertext"}
	}

	gcm, err := newGCM(masterKey, salt)
	if err != nil {
		return "", kerrors.DecryptionError{Message: "key setup failed", Err: err}
	}

	plaintext, err := gcm.Open(nil, iv, append(ciphertext, tag...), nil)
	if err != nil {
		// Tag verification failure and payload corruption are
		// indistinguishable here, and that is intentional.
		return "", kerrors.DecryptionError{Message: "authentication failed", Err: err}
	}

	return string(plaintext), nil
}

// newGCM derives the per-message key and builds the AEAD.
func newGCM(masterKey, salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key(masterKey, salt, kdfIterations, keyLength, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// GenerateMasterKey returns a fresh 32-byte master key, base64 encoded.
func GenerateMasterKey() (string, error) {
	key := make([]byte, MasterKeyLength)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("failed to generate master key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// ValidateMasterKey reports whether candidate is a base64 encoding of exactly
// 32 bytes. It never attempts decryption.
func ValidateMasterKey(candidate string) bool {
	key, err := base64.StdEncoding.DecodeString(candidate)
	return err == nil && len(key) == MasterKeyLength
}

// DecodeMasterKey decodes a base64 master key after validating its length.
func DecodeMasterKey(candidate string) ([]byte, error) {
	if !ValidateMasterKey(candidate) {
		return nil, kerrors.UserError{
			Message:    "master key is not a base64-encoded 32-byte value",
			Suggestion: "Generate a valid key with 'kometactl keygen'",
		}
	}
	return base64.StdEncoding.DecodeString(candidate)
}

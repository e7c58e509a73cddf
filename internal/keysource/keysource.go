// Package keysource resolves the master key used to seal and open secret
// envelopes. Resolution order is fixed: the KOMETACTL_MASTER_KEY environment
// variable wins, then the operating system keyring. The decoded key is handed
// out inside a secure.KeyBuffer so raw bytes never linger on the ordinary heap.
package keysource

import (
	"os"

	"github.com/zalando/go-keyring"

	"github.com/systmms/kometactl/internal/envelope"
	kerrors "github.com/systmms/kometactl/internal/errors"
	"github.com/systmms/kometactl/internal/secure"
)

// EnvVar is the environment variable consulted first.
const EnvVar = "KOMETACTL_MASTER_KEY"

const (
	keyringService = "kometactl"
	keyringUser    = "master-key"
)

// Origin names where a master key was found.
type Origin string

const (
	OriginEnvironment Origin = "environment"
	OriginKeyring     Origin = "keyring"
)

// Load resolves the master key and returns it in protected memory along with
// where it came from. A present-but-invalid key is an error, not a fallthrough:
// silently skipping a corrupted environment key would seal new secrets under a
// different key than the operator expects.
func Load() (*secure.KeyBuffer, Origin, error) {
	if encoded := os.Getenv(EnvVar); encoded != "" {
		buf, err := admit(encoded, OriginEnvironment)
		return buf, OriginEnvironment, err
	}

	encoded, err := keyring.Get(keyringService, keyringUser)
	if err == keyring.ErrNotFound {
		return nil, "", kerrors.UserError{
			Message:    "no master key configured",
			Suggestion: "run 'kometactl keygen --save' or export " + EnvVar,
		}
	}
	if err != nil {
		return nil, "", kerrors.UserError{
			Message:    "keyring access failed",
			Suggestion: "export " + EnvVar + " instead, or check your session keyring",
			Err:        err,
		}
	}

	buf, err := admit(encoded, OriginKeyring)
	return buf, OriginKeyring, err
}

func admit(encoded string, origin Origin) (*secure.KeyBuffer, error) {
	raw, err := envelope.DecodeMasterKey(encoded)
	if err != nil {
		return nil, kerrors.UserError{
			Message:    "master key from " + string(origin) + " is not valid",
			Details:    err.Error(),
			Suggestion: "generate a fresh key with 'kometactl keygen'",
		}
	}

	buf := secure.NewKeyBuffer(raw)
	for i := range raw {
		raw[i] = 0
	}
	return buf, nil
}

// Store saves an encoded master key to the OS keyring after validating it.
func Store(encoded string) error {
	if !envelope.ValidateMasterKey(encoded) {
		return kerrors.UserError{
			Message:    "refusing to save an invalid master key",
			Suggestion: "generate one with 'kometactl keygen'",
		}
	}
	if err := keyring.Set(keyringService, keyringUser, encoded); err != nil {
		return kerrors.UserError{
			Message:    "could not save master key to keyring",
			Suggestion: "export " + EnvVar + " instead",
			Err:        err,
		}
	}
	return nil
}

// SavedKey returns the encoded master key from the OS keyring without
// admitting it. Callers check validity themselves; keyring.ErrNotFound
// passes through.
func SavedKey() (string, error) {
	return keyring.Get(keyringService, keyringUser)
}

// Remove deletes the master key from the OS keyring. Removing a key that was
// never saved is not an error.
func Remove() error {
	err := keyring.Delete(keyringService, keyringUser)
	if err != nil && err != keyring.ErrNotFound {
		return kerrors.UserError{
			Message: "could not remove master key from keyring",
			Err:     err,
		}
	}
	return nil
}

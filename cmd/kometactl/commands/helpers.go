package commands

import (
	"github.com/systmms/kometactl/internal/config"
	"github.com/systmms/kometactl/internal/envelope"
	"github.com/systmms/kometactl/internal/keysource"
	"github.com/systmms/kometactl/internal/secrets"
)

// openStoredRecord loads and decrypts the secrets for a named entry. Entries
// without stored secrets return (nil, nil); the master key is only resolved
// when an envelope actually exists.
func openStoredRecord(cfg *config.Config, name string) (*secrets.Record, error) {
	st := cfg.Store()
	if !st.HasEnvelope(name) {
		return nil, nil
	}

	envelopeText, err := st.LoadEnvelope(name)
	if err != nil {
		return nil, err
	}

	key, origin, err := keysource.Load()
	if err != nil {
		return nil, err
	}
	defer key.Destroy()
	cfg.Logger.Debug("Using master key from %s", origin)

	locked, err := key.Open()
	if err != nil {
		return nil, err
	}
	defer locked.Destroy()

	plaintext, err := envelope.Open(envelopeText, locked.Bytes())
	if err != nil {
		return nil, err
	}

	return secrets.Unmarshal([]byte(plaintext))
}

// sealRecord encrypts a secrets record and stores it for a named entry.
func sealRecord(cfg *config.Config, name string, rec *secrets.Record) error {
	payload, err := rec.Marshal()
	if err != nil {
		return err
	}

	key, origin, err := keysource.Load()
	if err != nil {
		return err
	}
	defer key.Destroy()
	cfg.Logger.Debug("Using master key from %s", origin)

	locked, err := key.Open()
	if err != nil {
		return err
	}
	defer locked.Destroy()

	sealed, err := envelope.Seal(payload, locked.Bytes())
	if err != nil {
		return err
	}

	return cfg.Store().SaveEnvelope(name, sealed)
}

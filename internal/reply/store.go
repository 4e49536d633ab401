package reply

import (
	"bytes"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"

	"ard/internal/models"
	"ard/internal/providers"
	"ard/internal/reply/interfaces"
	"ard/internal/structures"
)

// AccountStore reads and writes one flat JSON record per account uin under
// the data directory. Reads never fail on bad content: a missing, unreadable
// or malformed file falls back to the default record, which is written back.
type AccountStore struct {
	dir    string
	logger providers.Logger
}

func NewAccountStore(conf *structures.Config, logger providers.Logger) interfaces.AccountStoreInterface {
	return &AccountStore{
		dir:    conf.Persistence.DataDir,
		logger: logger,
	}
}

func (s *AccountStore) path(uin string) string {
	return filepath.Join(s.dir, uin+".json")
}

func (s *AccountStore) Load(uin string) (*models.AccountConfig, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, err
	}

	file := s.path(uin)
	data, err := os.ReadFile(file)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		cfg := models.DefaultAccountConfig()
		if err := s.writeFile(file, cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	var raw models.RawAccountConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		s.logger.Warnf(providers.TypeApp, "account record %s unreadable, falling back to defaults: %s", file, err)
		cfg := models.DefaultAccountConfig()
		if err := s.writeFile(file, cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	cfg := raw.Normalized()

	// Write back when normalization changed the record, so the on-disk copy
	// stays canonical.
	normalized, err := marshalRecord(cfg)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(bytes.TrimSpace(data), bytes.TrimSpace(normalized)) {
		if err := s.writeFile(file, cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (s *AccountStore) Save(uin string, cfg *models.AccountConfig) (*models.AccountConfig, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, err
	}
	saved := cfg.Clone()
	saved.Normalize()
	if err := s.writeFile(s.path(uin), saved); err != nil {
		return nil, err
	}
	return saved, nil
}

func marshalRecord(cfg *models.AccountConfig) ([]byte, error) {
	return json.MarshalIndent(cfg, "", "  ")
}

// writeFile writes atomically: marshal, write to a temp file, fsync, rename.
func (s *AccountStore) writeFile(fileName string, cfg *models.AccountConfig) error {
	data, err := marshalRecord(cfg)
	if err != nil {
		return err
	}

	tmpFile := fileName + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	_, err = file.Write(data)
	if err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	return os.Rename(tmpFile, fileName)
}

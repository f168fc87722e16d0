package config

import (
	"errors"
	"fmt"

	"github.com/limaJavier/gradplan/internal/logger"
	"github.com/limaJavier/gradplan/pkg/catalog"
)

// LoadCatalog reads the configured catalog source, the SQLite database taking precedence over the JSON files, and
// normalizes it
func (config *Config) LoadCatalog() (*catalog.Catalog, error) {
	raw, err := config.loadRawCatalog()
	if err != nil {
		return nil, err
	}

	courses, dropped, err := catalog.Normalize(raw)
	if err != nil {
		return nil, err
	}
	if len(dropped) > 0 {
		logger.Warn().Strs("offerings", dropped).Msg("offerings of unknown courses were dropped")
	}
	logger.Info().Int("courses", courses.Len()).Msg("catalog loaded")
	return courses, nil
}

func (config *Config) loadRawCatalog() (catalog.RawCatalog, error) {
	if config.Catalog.SQLite != "" {
		db, err := catalog.OpenSQLite(config.Catalog.SQLite)
		if err != nil {
			return catalog.RawCatalog{}, err
		}
		defer db.Close()
		return catalog.FromSQLite(db)
	}

	if config.Catalog.Courses == "" || config.Catalog.Offerings == "" {
		return catalog.RawCatalog{}, errors.New("no catalog source: set either the sqlite path or both JSON files")
	}
	raw, err := catalog.FromJson(config.Catalog.Courses, config.Catalog.Offerings)
	if err != nil {
		return catalog.RawCatalog{}, fmt.Errorf("cannot read catalog files: %w", err)
	}
	return raw, nil
}

// ImportCatalog copies the configured JSON catalog into the SQLite database at path
func (config *Config) ImportCatalog(path string) error {
	raw, err := catalog.FromJson(config.Catalog.Courses, config.Catalog.Offerings)
	if err != nil {
		return fmt.Errorf("cannot read catalog files: %w", err)
	}
	db, err := catalog.OpenSQLite(path)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := catalog.SaveSQLite(db, raw); err != nil {
		return err
	}
	logger.Info().Str("path", path).Int("courses", len(raw.Courses)).Int("offerings", len(raw.Offerings)).Msg("catalog imported")
	return nil
}

package config

import (
	"os"
	"path/filepath"
	"sort"

	burnt "github.com/BurntSushi/toml"
	"github.com/pelletier/go-toml/v2"

	"github.com/teranos/mithras-link/errors"
)

// WriteFile writes cfg as TOML to path. An existing file is kept as
// path+".back" and only replaced when force is set.
func WriteFile(path string, cfg *Config, force bool) error {
	if _, err := os.Stat(path); err == nil {
		if !force {
			return errors.WithHint(
				errors.Newf("%s already exists", path),
				"pass --force to overwrite it (the old file is kept as .back)")
		}
		if err := createBackup(path); err != nil {
			return err
		}
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "failed to create %s", dir)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

// createBackup copies the current file to path+".back"
func createBackup(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "failed to read config for backup")
	}
	if err := os.WriteFile(path+".back", content, 0o644); err != nil {
		return errors.Wrap(err, "failed to create .back")
	}
	return nil
}

// UnknownKeys decodes path strictly and lists keys that do not map to a
// Config field. Viper ignores those silently, so a typo like
// "framework_polcy" would otherwise go unnoticed.
func UnknownKeys(path string) ([]string, error) {
	var cfg Config
	md, err := burnt.DecodeFile(path, &cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}

	var keys []string
	for _, k := range md.Undecoded() {
		keys = append(keys, k.String())
	}
	sort.Strings(keys)
	return keys, nil
}

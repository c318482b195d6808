package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/teranos/vigil/errors"
)

// WriteDefault writes a starter config.toml to the given path, refusing to
// overwrite an existing file. Sensitive values (API key, bot token) are left
// empty; they are normally supplied via VIGIL_* environment variables.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return errors.Newf("config file already exists: %s", path)
	}

	v := viper.New()
	SetDefaults(v)

	// Nest flat viper keys ("scheduler.tick_interval_seconds") back into
	// sections so the TOML file mirrors the documented config layout.
	sections := map[string]interface{}{}
	for _, key := range v.AllKeys() {
		section, field, ok := splitKey(key)
		if !ok {
			sections[key] = v.Get(key)
			continue
		}
		m, _ := sections[section].(map[string]interface{})
		if m == nil {
			m = map[string]interface{}{}
			sections[section] = m
		}
		m[field] = v.Get(key)
	}

	// Placeholders for the secrets the daemon needs at runtime
	if agent, ok := sections["agent"].(map[string]interface{}); ok {
		agent["api_key"] = ""
	}
	sections["telegram"] = map[string]interface{}{"token": ""}

	content, err := toml.Marshal(sections)
	if err != nil {
		return errors.Wrap(err, "failed to marshal default config")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}
	return nil
}

func splitKey(key string) (section, field string, ok bool) {
	for i := 0; i < len(key); i++ {
		if key[i] == '.' {
			return key[:i], key[i+1:], true
		}
	}
	return "", "", false
}

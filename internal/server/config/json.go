package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/minkvault/mink/internal/flagx"
	"github.com/minkvault/mink/internal/timex"
)

// JsonConfig is the intermediate DTO for reading JSON configuration files.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "168h" and integer nanoseconds. After unmarshalling,
// its fields are copied into the runtime Config struct.
type JsonConfig struct {
	Addr             string         `json:"addr"`
	DatabaseDSN      string         `json:"database_dsn"`
	SecretKey        string         `json:"secret_key"`
	EncryptionPepper string         `json:"encryption_pepper"`
	TokenValidity    timex.Duration `json:"token_validity"`
}

// parseJson loads configuration values from the JSON file named by the -c or
// -config flags. If neither flag is present, no file is loaded. An unreadable
// or invalid file panics: a half-applied config is worse than no start.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	config.Addr = c.Addr
	config.DatabaseDSN = c.DatabaseDSN
	config.SecretKey = c.SecretKey
	config.EncryptionPepper = c.EncryptionPepper
	config.TokenValidity = time.Duration(c.TokenValidity.Duration)
}

package config

import (
	"errors"
	"io/fs"
	"strconv"
	"time"

	"github.com/diwise/service-chassis/pkg/infrastructure/env"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// LoadDotEnv loads variables from the given files (".env" when none are given)
// without overriding anything already set in the environment. Missing files
// are ignored.
func LoadDotEnv(log zerolog.Logger, files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, f := range files {
		err := godotenv.Load(f)
		if err == nil {
			log.Debug().Str("file", f).Msg("loaded environment file")
			continue
		}
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn().Err(err).Str("file", f).Msg("failed to load environment file")
		}
	}
}

// FirstOf returns the value of the first of the named variables that is set
// and not empty.
func FirstOf(log zerolog.Logger, names ...string) (string, bool) {
	for _, name := range names {
		if v := env.GetVariableOrDefault(log, name, ""); v != "" {
			return v, true
		}
	}
	return "", false
}

func Int(log zerolog.Logger, name string, def int) int {
	value := env.GetVariableOrDefault(log, name, "")
	if value == "" {
		return def
	}

	i, err := strconv.Atoi(value)
	if err != nil {
		log.Warn().Str("name", name).Str("value", value).Int("default", def).Msg("invalid integer, using default")
		return def
	}

	return i
}

func Bool(log zerolog.Logger, name string, def bool) bool {
	value := env.GetVariableOrDefault(log, name, "")
	if value == "" {
		return def
	}

	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Warn().Str("name", name).Str("value", value).Bool("default", def).Msg("invalid boolean, using default")
		return def
	}

	return b
}

// Duration reads a duration such as "50ms" or "30s", falling back to def when
// the variable is unset or malformed.
func Duration(log zerolog.Logger, name string, def time.Duration) time.Duration {
	value := env.GetVariableOrDefault(log, name, "")
	if value == "" {
		return def
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		log.Warn().Str("name", name).Str("value", value).Dur("default", def).Msg("invalid duration, using default")
		return def
	}

	return d
}

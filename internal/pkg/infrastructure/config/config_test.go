package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
)

func TestThatMalformedValuesFallBackToDefaults(t *testing.T) {
	is := is.New(t)
	log := zerolog.Nop()

	t.Setenv("SIM_ITERATIONS", "ten")
	t.Setenv("SIM_DELAY", "soon")
	t.Setenv("TEARDOWN", "maybe")

	is.Equal(Int(log, "SIM_ITERATIONS", 2900), 2900)
	is.Equal(Duration(log, "SIM_DELAY", 50*time.Millisecond), 50*time.Millisecond)
	is.Equal(Bool(log, "TEARDOWN", true), true)
}

func TestThatValidValuesAreParsed(t *testing.T) {
	is := is.New(t)
	log := zerolog.Nop()

	t.Setenv("SIM_ITERATIONS", "12")
	t.Setenv("SIM_DELAY", "2s")
	t.Setenv("TEARDOWN", "true")

	is.Equal(Int(log, "SIM_ITERATIONS", 2900), 12)
	is.Equal(Duration(log, "SIM_DELAY", 0), 2*time.Second)
	is.Equal(Bool(log, "TEARDOWN", false), true)
	is.Equal(Int(log, "NOT_SET_ANYWHERE", 7), 7)
}

func TestThatFirstOfPicksFirstNonEmptyVariable(t *testing.T) {
	is := is.New(t)
	log := zerolog.Nop()

	t.Setenv("KEY", "")
	t.Setenv("SECRET_KEY", "from-secret-key")
	t.Setenv("OPENAI_API_KEY", "from-openai")

	v, ok := FirstOf(log, "KEY", "SECRET_KEY", "OPENAI_API_KEY")
	is.True(ok)
	is.Equal(v, "from-secret-key")

	_, ok = FirstOf(log, "NOT_SET_ANYWHERE")
	is.True(!ok)
}

func TestThatDotEnvDoesNotOverrideEnvironment(t *testing.T) {
	is := is.New(t)

	f := filepath.Join(t.TempDir(), "test.env")
	is.NoErr(os.WriteFile(f, []byte("MAJIUP_TEST_A=from-file\nMAJIUP_TEST_B=from-file\n"), 0600))

	t.Setenv("MAJIUP_TEST_A", "from-env")
	t.Cleanup(func() { os.Unsetenv("MAJIUP_TEST_B") })

	LoadDotEnv(zerolog.Nop(), f, filepath.Join(t.TempDir(), "missing.env"))

	is.Equal(os.Getenv("MAJIUP_TEST_A"), "from-env")
	is.Equal(os.Getenv("MAJIUP_TEST_B"), "from-file")
}

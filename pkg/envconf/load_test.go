package envconf

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestLoad_BasicTypes(t *testing.T) {
	t.Setenv("TEST_STR", "hello")
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_UINT8", "2")
	t.Setenv("TEST_BOOL", "true")
	t.Setenv("TEST_FLOAT", "1.5")
	t.Setenv("TEST_DUR", "90s")

	var cfg struct {
		Str   string        `env:"TEST_STR"`
		Int   int           `env:"TEST_INT"`
		U8    uint8         `env:"TEST_UINT8"`
		Bool  bool          `env:"TEST_BOOL"`
		Float float64       `env:"TEST_FLOAT"`
		Dur   time.Duration `env:"TEST_DUR"`
	}

	err := Load(&cfg)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Str != "hello" || cfg.Int != 42 || cfg.U8 != 2 || !cfg.Bool || cfg.Float != 1.5 {
		t.Fatalf("loaded values: %+v", cfg)
	}
	if cfg.Dur != 90*time.Second {
		t.Fatalf("duration: want 90s, got %s", cfg.Dur)
	}
}

func TestLoad_DefaultsApplyWhenUnset(t *testing.T) {
	t.Setenv("TEST_SET", "from-env")

	var cfg struct {
		Set     string        `env:"TEST_SET"     envDefault:"unused"`
		Port    string        `env:"TEST_PORT"    envDefault:"8255"`
		Timeout time.Duration `env:"TEST_TIMEOUT" envDefault:"10s"`
		Flag    bool          `env:"TEST_FLAG"    envDefault:"true"`
	}

	err := Load(&cfg)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Set != "from-env" {
		t.Fatalf("env value beats default: got %q", cfg.Set)
	}
	if cfg.Port != "8255" || cfg.Timeout != 10*time.Second || !cfg.Flag {
		t.Fatalf("defaults: %+v", cfg)
	}
}

func TestLoad_EmptyDefaultAllowed(t *testing.T) {
	var cfg struct {
		DSN string `env:"TEST_OPTIONAL_DSN" envDefault:""`
	}

	err := Load(&cfg)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.DSN != "" {
		t.Fatalf("want empty, got %q", cfg.DSN)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	var cfg struct {
		Secret string `env:"TEST_DEFINITELY_UNSET"`
	}

	err := Load(&cfg)
	if !errors.Is(err, ErrMissingRequired) {
		t.Fatalf("want ErrMissingRequired, got %v", err)
	}
}

func TestLoad_TextUnmarshalerFields(t *testing.T) {
	t.Setenv("TEST_LOG_LEVEL", "DEBUG")
	t.Setenv("TEST_GRANT", "50")

	var cfg struct {
		Level slog.Level      `env:"TEST_LOG_LEVEL"`
		Grant decimal.Decimal `env:"TEST_GRANT"`
	}

	err := Load(&cfg)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Level != slog.LevelDebug {
		t.Fatalf("level: got %v", cfg.Level)
	}
	if !cfg.Grant.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("grant: got %s", cfg.Grant)
	}
}

func TestLoad_NestedStruct(t *testing.T) {
	t.Setenv("TEST_OUTER", "a")
	t.Setenv("TEST_INNER", "b")

	type inner struct {
		Inner string `env:"TEST_INNER"`
	}

	var cfg struct {
		Outer  string `env:"TEST_OUTER"`
		Nested inner
	}

	err := Load(&cfg)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Outer != "a" || cfg.Nested.Inner != "b" {
		t.Fatalf("nested: %+v", cfg)
	}
}

func TestLoad_ParseFailure(t *testing.T) {
	t.Setenv("TEST_INT", "not-a-number")

	var cfg struct {
		Int int `env:"TEST_INT"`
	}

	err := Load(&cfg)
	if err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestLoad_RejectsNonStructPointer(t *testing.T) {
	t.Parallel()

	err := Load(nil)
	if err == nil {
		t.Fatal("expected error for nil destination")
	}

	var n int

	err = Load(&n)
	if err == nil {
		t.Fatal("expected error for non-struct destination")
	}
}

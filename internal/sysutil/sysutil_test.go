package sysutil

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestSetLogLevel_AllVariants(t *testing.T) {
	orig := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(orig) })

	cases := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"  DeBuG  ", zerolog.DebugLevel}, // case + trim
		{"info", zerolog.InfoLevel},
		{"", zerolog.InfoLevel}, // empty -> info
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel}, // alias
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"unknown", zerolog.InfoLevel}, // default
	}

	for _, tc := range cases {
		if applied := SetLogLevel(tc.in); applied != tc.want {
			t.Fatalf("SetLogLevel(%q) returned %v; want %v", tc.in, applied, tc.want)
		}
		if got := zerolog.GlobalLevel(); got != tc.want {
			t.Fatalf("SetLogLevel(%q) -> %v; want %v", tc.in, got, tc.want)
		}
	}
}

func TestSetupLogger_JSONAndPretty(t *testing.T) {
	origLvl := zerolog.GlobalLevel()
	origLog := log.Logger
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(origLvl)
		log.Logger = origLog
	})

	var buf bytes.Buffer
	SetupLogger(&buf, "info", false, "go-issue-tracker")
	log.Info().Msg("hello")
	log.Debug().Msg("hidden")

	out := buf.String()
	if !strings.Contains(out, `"service":"go-issue-tracker"`) || !strings.Contains(out, `"message":"hello"`) {
		t.Fatalf("unexpected JSON log: %s", out)
	}
	if !strings.Contains(out, `"time":"`) || !strings.Contains(out, `Z"`) {
		t.Fatalf("expected UTC timestamp: %s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line must be filtered at info level: %s", out)
	}

	buf.Reset()
	SetupLogger(&buf, "debug", true, "svc")
	log.Debug().Msg("pretty")
	if strings.Contains(buf.String(), `{"`) || !strings.Contains(buf.String(), "pretty") {
		t.Fatalf("expected console output, got: %s", buf.String())
	}
}

func TestFirstNonEmpty(t *testing.T) {
	// no args -> ""
	if got := FirstNonEmpty(); got != "" {
		t.Fatalf("FirstNonEmpty() = %q; want \"\"", got)
	}
	// only empties -> ""
	if got := FirstNonEmpty(" ", "\t", "\n"); got != "" {
		t.Fatalf("FirstNonEmpty(empties) = %q; want \"\"", got)
	}
	// picks first non-empty (preserves original spacing)
	if got := FirstNonEmpty("   ", "  hello  ", "world"); got != "  hello  " {
		t.Fatalf("FirstNonEmpty(...) = %q; want %q", got, "  hello  ")
	}
	// first already non-empty
	if got := FirstNonEmpty("alpha", "beta"); got != "alpha" {
		t.Fatalf("FirstNonEmpty(...) = %q; want %q", got, "alpha")
	}
}

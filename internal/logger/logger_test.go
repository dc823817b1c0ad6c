package logger

import (
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		format  Format
		debug   bool
		wantErr bool
	}{
		{name: "json default", format: ""},
		{name: "json debug", format: FormatJSON, debug: true},
		{name: "console", format: FormatConsole},
		{name: "unknown format", format: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			log, err := New("selfspeak", tt.format, tt.debug)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got := log.Core().Enabled(zapcore.DebugLevel); got != tt.debug {
				t.Errorf("debug enabled = %v, want %v", got, tt.debug)
			}
		})
	}
}

func TestSync_Nil(t *testing.T) {
	t.Parallel()

	if err := Sync(nil); err != nil {
		t.Errorf("Sync(nil) = %v", err)
	}
}

func TestSanitizeString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{name: "empty", in: "", max: 10, want: ""},
		{name: "control runes dropped", in: "a\x00b\x1bc", max: 10, want: "abc"},
		{name: "whitespace kept", in: "a\tb\nc", max: 10, want: "a\tb\nc"},
		{name: "truncated", in: "abcdefgh", max: 4, want: "abcd..."},
		{name: "truncation keeps utf8 valid", in: "héllo", max: 2, want: "h..."},
		{name: "invalid utf8 removed", in: "ok\xffok", max: 10, want: "okok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SanitizeString(tt.in, tt.max); got != tt.want {
				t.Errorf("SanitizeString(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}

func TestSanitizeHelpers(t *testing.T) {
	t.Parallel()

	if got := SanitizeError(nil); got != "" {
		t.Errorf("SanitizeError(nil) = %q", got)
	}
	if got := SanitizeError(errors.New("line1\x00")); got != "line1" {
		t.Errorf("SanitizeError() = %q", got)
	}
	if got := SanitizeUserID(strings.Repeat("u", 200)); len(got) != MaxUserIDLength+3 {
		t.Errorf("SanitizeUserID() length = %d", len(got))
	}
	if got := SanitizePath("/api/v1/journal/today"); got != "/api/v1/journal/today" {
		t.Errorf("SanitizePath() = %q", got)
	}
}

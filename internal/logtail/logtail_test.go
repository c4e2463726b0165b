package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestRead(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}

	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{name: "read all (0)", maxLines: 0, expected: expectedAll},
		{name: "read all (negative)", maxLines: -1, expected: expectedAll},
		{name: "read partial (5)", maxLines: 5, expected: expectedAll[5:]},
		{name: "read exactly all (10)", maxLines: 10, expected: expectedAll},
		{name: "read more than exists (20)", maxLines: 20, expected: expectedAll},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "nope.log"), 10)
	if err != nil || got != nil {
		t.Fatalf("Read() = %v, %v; want nil, nil", got, err)
	}
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Entry
		ok    bool
	}{
		{
			name:  "named with fields",
			input: "2025-10-08 21:01:05\tINFO\tsales\tmerged sales page\t{\"page\": 2}",
			want:  Entry{Time: "2025-10-08 21:01:05", Level: "INFO", Logger: "sales", Message: "merged sales page", Fields: "{\"page\": 2}"},
			ok:    true,
		},
		{
			name:  "unnamed with fields",
			input: "2025-10-08 21:01:05\tWARN\tpoll failed\t{\"error\": \"boom\"}",
			want:  Entry{Time: "2025-10-08 21:01:05", Level: "WARN", Message: "poll failed", Fields: "{\"error\": \"boom\"}"},
			ok:    true,
		},
		{
			name:  "message only",
			input: "2025-10-08 21:01:05\tDEBUG\tstarting",
			want:  Entry{Time: "2025-10-08 21:01:05", Level: "DEBUG", Message: "starting"},
			ok:    true,
		},
		{
			name:  "named without fields",
			input: "2025-10-08 21:01:05\tERROR\tapp\tshutdown",
			want:  Entry{Time: "2025-10-08 21:01:05", Level: "ERROR", Logger: "app", Message: "shutdown"},
			ok:    true,
		},
		{name: "plain text", input: "panic: something", ok: false},
		{name: "empty", input: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseLine(tt.input)
			if ok != tt.ok {
				t.Fatalf("ParseLine() ok = %v, want %v", ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("ParseLine() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestColorizeLine(t *testing.T) {
	if got := ColorizeLine("   "); got != "   " {
		t.Fatalf("ColorizeLine(whitespace) = %q, want unchanged", got)
	}

	line := "2025-10-08 21:01:05\tINFO\tsales\tmerged sales page\t{\"page\": 2}"
	got := ColorizeLine(line)
	for _, want := range []string{"2025-10-08 21:01:05", "INFO", "[sales]", "merged sales page", "{\"page\": 2}"} {
		if !strings.Contains(got, want) {
			t.Errorf("ColorizeLine() = %q, want it to contain %q", got, want)
		}
	}
	if strings.Contains(got, "\t") {
		t.Errorf("ColorizeLine() = %q, want tabs replaced", got)
	}
}

func TestColorizeLines(t *testing.T) {
	input := []string{
		"2025-10-08 21:01:05\tINFO\tstarting",
		"goroutine 1 [running]:",
	}
	got := ColorizeLines(input)
	if len(got) != len(input) {
		t.Fatalf("ColorizeLines() returned %d lines, want %d", len(got), len(input))
	}
	if got[1] != input[1] {
		t.Errorf("ColorizeLines()[1] = %q, want unchanged %q", got[1], input[1])
	}
}

func TestFilterLevel(t *testing.T) {
	lines := []string{
		"t\tDEBUG\tone",
		"t\tINFO\ttwo",
		"t\tWARN\tthree",
		"stack trace",
		"t\tERROR\tfour",
	}
	got := FilterLevel(lines, "warn")
	want := []string{"t\tWARN\tthree", "stack trace", "t\tERROR\tfour"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("FilterLevel(warn) = %v, want %v", got, want)
	}
	if got := FilterLevel(lines, "debug"); !reflect.DeepEqual(got, lines) {
		t.Fatalf("FilterLevel(debug) should keep everything")
	}
}

package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns every line.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Entry is one parsed console log line.
type Entry struct {
	Time    string
	Level   string
	Logger  string
	Message string
	Fields  string
}

// ParseLine splits a zap console line (tab separated: time, level, optional
// logger name, message, optional JSON fields). ok is false for lines that do
// not look like log entries.
func ParseLine(line string) (Entry, bool) {
	parts := strings.Split(line, "\t")
	if len(parts) < 3 || !isLevel(parts[1]) {
		return Entry{}, false
	}
	entry := Entry{Time: parts[0], Level: parts[1]}
	rest := parts[2:]
	if last := rest[len(rest)-1]; len(rest) > 1 && strings.HasPrefix(last, "{") {
		entry.Fields = last
		rest = rest[:len(rest)-1]
	}
	if len(rest) >= 2 {
		entry.Logger = rest[0]
		rest = rest[1:]
	}
	entry.Message = strings.Join(rest, "\t")
	return entry, true
}

func isLevel(s string) bool {
	switch s {
	case "DEBUG", "INFO", "WARN", "ERROR", "DPANIC", "PANIC", "FATAL":
		return true
	}
	return false
}

// Palette holds the styles used by ColorizeLine.
type Palette struct {
	Time    lipgloss.Style
	Logger  lipgloss.Style
	Fields  lipgloss.Style
	Message lipgloss.Style
	Levels  map[string]lipgloss.Style
}

// DefaultPalette is tuned for dark terminal backgrounds.
func DefaultPalette() Palette {
	return Palette{
		Time:    lipgloss.NewStyle().Foreground(lipgloss.Color("#808080")),
		Logger:  lipgloss.NewStyle().Foreground(lipgloss.Color("#87AFFF")),
		Fields:  lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")),
		Message: lipgloss.NewStyle(),
		Levels: map[string]lipgloss.Style{
			"DEBUG": lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB")).Bold(true),
			"INFO":  lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD75F")).Bold(true),
			"WARN":  lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700")).Bold(true),
			"ERROR": lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
		},
	}
}

// ColorizeLine renders a log line with p. Lines that do not parse are
// returned unchanged.
func (p Palette) ColorizeLine(line string) string {
	entry, ok := ParseLine(line)
	if !ok {
		return line
	}
	levelStyle, found := p.Levels[entry.Level]
	if !found {
		levelStyle = p.Levels["ERROR"]
	}
	parts := []string{p.Time.Render(entry.Time), levelStyle.Render(fmt.Sprintf("%-5s", entry.Level))}
	if entry.Logger != "" {
		parts = append(parts, p.Logger.Render("["+entry.Logger+"]"))
	}
	parts = append(parts, p.Message.Render(entry.Message))
	if entry.Fields != "" {
		parts = append(parts, p.Fields.Render(entry.Fields))
	}
	return strings.Join(parts, " ")
}

// ColorizeLine renders line with the default palette.
func ColorizeLine(line string) string {
	return DefaultPalette().ColorizeLine(line)
}

// ColorizeLines renders every line with the default palette.
func ColorizeLines(lines []string) []string {
	palette := DefaultPalette()
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = palette.ColorizeLine(line)
	}
	return out
}

// FilterLevel keeps lines at or above min. Unparsed lines are kept so
// multi-line output stays visible.
func FilterLevel(lines []string, min string) []string {
	rank := map[string]int{"DEBUG": 0, "INFO": 1, "WARN": 2, "ERROR": 3}
	threshold, ok := rank[strings.ToUpper(strings.TrimSpace(min))]
	if !ok || threshold == 0 {
		return lines
	}
	var out []string
	for _, line := range lines {
		entry, parsed := ParseLine(line)
		if !parsed {
			out = append(out, line)
			continue
		}
		if r, known := rank[entry.Level]; !known || r >= threshold {
			out = append(out, line)
		}
	}
	return out
}

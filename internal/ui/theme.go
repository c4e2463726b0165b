package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Stock levels used to color product rows.
const (
	stockOut = "out"
	stockLow = "low"
	stockOK  = "ok"
)

// Theme is a named color palette.
type Theme struct {
	Name string

	// Backgrounds
	Background string // Screen
	Surface    string // Header and command bar
	SurfaceAlt string // Unfocused panes
	FocusBg    string // Focused pane

	// Selection colors
	SelectionBg   string
	SelectionText string

	// Border colors
	Border      string
	BorderMuted string
	BorderFocus string

	// Text colors
	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string
	Info    string

	// Stock level colors keyed by stockOut, stockLow and stockOK
	StockColors map[string]string
}

// Styles returns the text styles for this theme. Text styles carry no
// background; use WithBackground inside colored panes.
func (t Theme) Styles() Styles {
	fg := func(color string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
	}
	return Styles{
		Text:        fg(t.Text),
		MutedText:   fg(t.Muted),
		FaintText:   fg(t.Faint),
		AccentText:  fg(t.Accent),
		SuccessText: fg(t.Success).Bold(true),
		WarningText: fg(t.Warning),
		DangerText:  fg(t.Danger).Bold(true),
		InfoText:    fg(t.Info),
		Header:      fg(t.Text).Background(lipgloss.Color(t.Surface)).Padding(0, 1),
		Logo:        fg(t.Accent).Bold(true),

		stockColors: t.StockColors,
		badgeText:   t.Background,
		fallback:    t.Muted,
	}
}

// Styles holds the lipgloss styles derived from a Theme.
type Styles struct {
	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style
	InfoText    lipgloss.Style

	Header lipgloss.Style
	Logo   lipgloss.Style

	stockColors map[string]string
	badgeText   string
	fallback    string
}

// StockStyle returns the badge style for a stock level ("out", "low", "ok").
func (s Styles) StockStyle(level string) lipgloss.Style {
	color, ok := s.stockColors[level]
	if !ok {
		color = s.fallback
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.badgeText)).
		Background(lipgloss.Color(color)).
		Padding(0, 1)
}

// WithBackground paints every style onto bgColor so rendered segments do not
// fall back to the terminal default between cells.
func (s Styles) WithBackground(bgColor string) Styles {
	bg := lipgloss.Color(bgColor)
	out := s
	for _, st := range []*lipgloss.Style{
		&out.Text, &out.MutedText, &out.FaintText, &out.AccentText,
		&out.SuccessText, &out.WarningText, &out.DangerText, &out.InfoText,
		&out.Header, &out.Logo,
	} {
		*st = st.Background(bg)
	}
	return out
}

// stockLevel classifies a stock count against the low-stock threshold.
func stockLevel(stock, threshold int) string {
	switch {
	case stock <= 0:
		return stockOut
	case stock <= threshold:
		return stockLow
	default:
		return stockOK
	}
}

// stockColor returns the foreground color for a stock count.
func (t Theme) stockColor(stock, threshold int) string {
	if color, ok := t.StockColors[stockLevel(stock, threshold)]; ok {
		return color
	}
	return t.Text
}

var themes = map[string]Theme{
	"Nightfox": nightfoxTheme(),
	"Kanagawa": kanagawaTheme(),
	"Slate":    slateTheme(),
}

var themeOrder = []string{"Nightfox", "Kanagawa", "Slate"}

// GetTheme returns the named theme, or Nightfox when the name is unknown.
func GetTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return nightfoxTheme()
}

// NextTheme returns the theme after current in the T cycle.
func NextTheme(current string) string {
	for i, name := range themeOrder {
		if name == current {
			return themeOrder[(i+1)%len(themeOrder)]
		}
	}
	return themeOrder[0]
}

// ThemeNames lists the themes in cycle order.
func ThemeNames() []string {
	return append([]string(nil), themeOrder...)
}

func nightfoxTheme() Theme {
	// Nightfox palette: https://github.com/EdenEast/nightfox.nvim
	return Theme{
		Name: "Nightfox",

		Background: "#131a24", // bg0
		Surface:    "#192330", // bg1
		SurfaceAlt: "#212e3f", // bg2
		FocusBg:    "#29394f", // bg3

		SelectionBg:   "#2b3b51", // sel0
		SelectionText: "#cdcecf", // fg1

		Border:      "#39506d", // bg4
		BorderMuted: "#212e3f", // bg2
		BorderFocus: "#719cd6", // blue

		Text:    "#cdcecf", // fg1
		Muted:   "#738091", // comment
		Faint:   "#71839b", // fg3
		Accent:  "#719cd6", // blue
		Success: "#81b29a", // green
		Warning: "#dbc074", // yellow
		Danger:  "#c94f6d", // red
		Info:    "#63cdcf", // cyan

		StockColors: map[string]string{
			stockOut: "#c94f6d", // red
			stockLow: "#f4a261", // orange
			stockOK:  "#81b29a", // green
		},
	}
}

func kanagawaTheme() Theme {
	// Kanagawa palette: https://github.com/rebelot/kanagawa.nvim
	return Theme{
		Name: "Kanagawa",

		Background: "#16161D", // sumiInk0
		Surface:    "#1F1F28", // sumiInk3
		SurfaceAlt: "#2A2A37", // sumiInk4
		FocusBg:    "#2A2A37", // sumiInk4

		SelectionBg:   "#2D4F67", // waveBlue1
		SelectionText: "#DCD7BA", // fujiWhite

		Border:      "#54546D", // sumiInk6
		BorderMuted: "#2A2A37", // sumiInk4
		BorderFocus: "#7E9CD8", // crystalBlue

		Text:    "#DCD7BA", // fujiWhite
		Muted:   "#C8C093", // oldWhite
		Faint:   "#727169", // fujiGray
		Accent:  "#7E9CD8", // crystalBlue
		Success: "#98BB6C", // springGreen
		Warning: "#E6C384", // carpYellow
		Danger:  "#E46876", // waveRed
		Info:    "#7FB4CA", // springBlue

		StockColors: map[string]string{
			stockOut: "#E46876", // waveRed
			stockLow: "#E6C384", // carpYellow
			stockOK:  "#98BB6C", // springGreen
		},
	}
}

func slateTheme() Theme {
	// Tailwind CSS Slate/Sky palette: https://tailwindcss.com/docs/colors
	return Theme{
		Name: "Slate",

		Background: "#020617", // slate-950
		Surface:    "#0f172a", // slate-900
		SurfaceAlt: "#1e293b", // slate-800
		FocusBg:    "#283548", // between slate-800 and slate-700

		SelectionBg:   "#0284c7", // sky-600
		SelectionText: "#f8fafc", // slate-50

		Border:      "#334155", // slate-700
		BorderMuted: "#1e293b", // slate-800
		BorderFocus: "#38bdf8", // sky-400

		Text:    "#f1f5f9", // slate-100
		Muted:   "#94a3b8", // slate-400
		Faint:   "#64748b", // slate-500
		Accent:  "#38bdf8", // sky-400
		Success: "#22c55e", // green-500
		Warning: "#f59e0b", // amber-500
		Danger:  "#ef4444", // red-500
		Info:    "#06b6d4", // cyan-500

		StockColors: map[string]string{
			stockOut: "#dc2626", // red-600
			stockLow: "#f59e0b", // amber-500
			stockOK:  "#16a34a", // green-600
		},
	}
}

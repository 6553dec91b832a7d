package theme

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	AppFrame            lipgloss.Style
	Tabs                lipgloss.Style
	TabActive           lipgloss.Style
	TabInactive         lipgloss.Style
	TabRunning          lipgloss.Style
	CommandBar          lipgloss.Style
	CommandBarKey       lipgloss.Style
	CommandBarHint      lipgloss.Style
	CommandDivider      lipgloss.Style
	StatusBar           lipgloss.Style
	StatusBarKey        lipgloss.Style
	StatusBarValue      lipgloss.Style
	EditorBorder        lipgloss.Style
	EditorBorderFocused lipgloss.Style
	ResponseBorder      lipgloss.Style
	PaneTitle           lipgloss.Style
	PaneTitleFocused    lipgloss.Style
	Placeholder         lipgloss.Style
	Error               lipgloss.Style
	Success             lipgloss.Style
	Notification        lipgloss.Style
	HelpKey             lipgloss.Style
	HelpText            lipgloss.Style
	MethodColors        MethodColors
	// Chroma style name used for response highlighting.
	SyntaxStyle string
}

type MethodColors struct {
	GET     lipgloss.Color
	POST    lipgloss.Color
	PUT     lipgloss.Color
	PATCH   lipgloss.Color
	DELETE  lipgloss.Color
	Default lipgloss.Color
}

func (m MethodColors) For(method string) lipgloss.Color {
	switch strings.ToUpper(method) {
	case "GET":
		return m.GET
	case "POST":
		return m.POST
	case "PUT":
		return m.PUT
	case "PATCH":
		return m.PATCH
	case "DELETE":
		return m.DELETE
	default:
		return m.Default
	}
}

func DefaultTheme() Theme {
	accent := lipgloss.Color("#7D56F4")
	base := lipgloss.NewStyle().Foreground(lipgloss.Color("#dcd7ff"))

	return Theme{
		AppFrame: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#403B59")),
		Tabs: lipgloss.NewStyle().Foreground(lipgloss.Color("#A6A1BB")).Padding(0, 1),
		TabActive: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FDFBFF")).
			Background(accent).
			Bold(true).
			Padding(0, 2),
		TabInactive: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5E5A72")).
			Padding(0, 1),
		TabRunning:     lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD46A")),
		CommandBar:     lipgloss.NewStyle().Foreground(lipgloss.Color("#C2C0D9")).Padding(0, 1),
		CommandBarKey:  lipgloss.NewStyle().Foreground(lipgloss.Color("#F6E3FF")).Bold(true),
		CommandBarHint: lipgloss.NewStyle().Foreground(accent).Bold(true),
		CommandDivider: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#403B59")).
			Bold(true),
		StatusBar:      lipgloss.NewStyle().Foreground(lipgloss.Color("#A6A1BB")).Padding(0, 1),
		StatusBarKey:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8B39")).Bold(true),
		StatusBarValue: lipgloss.NewStyle().Foreground(lipgloss.Color("#EAEAEA")),
		EditorBorder: base.BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#403B59")),
		EditorBorderFocused: base.BorderStyle(lipgloss.RoundedBorder()).BorderForeground(accent),
		ResponseBorder: base.BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#5FB3B3")),
		PaneTitle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A6A1BB")).
			Bold(true),
		PaneTitleFocused: lipgloss.NewStyle().
			Foreground(accent).
			Bold(true),
		Placeholder: lipgloss.NewStyle().Foreground(lipgloss.Color("#5E5A72")),
		Error:       lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6E6E")),
		Success:     lipgloss.NewStyle().Foreground(lipgloss.Color("#6EF17E")),
		Notification: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E0DEF4")).
			Background(lipgloss.Color("#433C59")).
			Padding(0, 1),
		HelpKey:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD46A")).Bold(true),
		HelpText: lipgloss.NewStyle().Foreground(lipgloss.Color("#D8D4F1")),
		MethodColors: MethodColors{
			GET:     lipgloss.Color("#34d399"),
			POST:    lipgloss.Color("#60a5fa"),
			PUT:     lipgloss.Color("#f59e0b"),
			PATCH:   lipgloss.Color("#14b8a6"),
			DELETE:  lipgloss.Color("#f87171"),
			Default: lipgloss.Color("#9ca3af"),
		},
		SyntaxStyle: "dracula",
	}
}

// Dusk is a lower-contrast variant of the default palette.
func Dusk() Theme {
	t := DefaultTheme()
	accent := lipgloss.Color("#15AABF")
	t.TabActive = t.TabActive.Background(accent).Foreground(lipgloss.Color("#0F111A"))
	t.CommandBarHint = t.CommandBarHint.Foreground(accent)
	t.EditorBorderFocused = t.EditorBorderFocused.BorderForeground(accent)
	t.PaneTitleFocused = t.PaneTitleFocused.Foreground(accent)
	t.SyntaxStyle = "nord"
	return t
}

var builtins = map[string]func() Theme{
	"default": DefaultTheme,
	"dusk":    Dusk,
}

// Lookup resolves a theme by key. Unknown or empty keys yield the
// default theme and false.
func Lookup(key string) (Theme, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	if fn, ok := builtins[key]; ok {
		return fn(), true
	}
	return DefaultTheme(), false
}

func Keys() []string {
	keys := make([]string, 0, len(builtins))
	for k := range builtins {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

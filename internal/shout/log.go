package shout

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// levelWidth pads level labels so log lines stay aligned.
const levelWidth = 5

var levelColors = map[log.Level]lipgloss.Color{
	log.DebugLevel: lipgloss.Color("245"),
	log.InfoLevel:  lipgloss.Color("36"),
	log.WarnLevel:  lipgloss.Color("214"),
	log.ErrorLevel: lipgloss.Color("196"),
	log.FatalLevel: lipgloss.Color("201"),
}

// defaultLogStyles tweaks the library defaults: a muted prefix and keys, and
// full-width uppercase level labels in our own palette.
func defaultLogStyles() *log.Styles {
	styles := log.DefaultStyles()

	styles.Prefix = lipgloss.NewStyle().Bold(true).Faint(true)
	styles.Key = lipgloss.NewStyle().Faint(true)
	styles.Separator = lipgloss.NewStyle().Faint(true)

	for level, color := range levelColors {
		styles.Levels[level] = lipgloss.NewStyle().
			SetString(strings.ToUpper(level.String())).
			Bold(true).
			MaxWidth(levelWidth).
			Foreground(color)
	}

	return styles
}

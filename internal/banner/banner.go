package banner

import (
	"github.com/charmbracelet/lipgloss"
)

func GetString() string {
	renderer := lipgloss.DefaultRenderer()

	style := renderer.NewStyle().
		Foreground(lipgloss.Color("205")).
		Bold(true)

	ascii := `
             _ __  __                __
   ____ ___ (_) /_/ /___  ____ _____/ /
  / __ '__ \/ / __/ / __ \/ __ '/ __  /
 / / / / / / / /_/ / /_/ / /_/ / /_/ /
/_/ /_/ /_/_/\__/_/\____/\__,_/\__,_/  `

	return "\n" + style.Render(ascii) + "\n\n"
}

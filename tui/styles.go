package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/edgeee/excuse-generator/client"
)

var (
	accent = lipgloss.Color("#F6DF55")
	muted  = lipgloss.Color("#8A8A8A")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			Padding(0, 1)

	toneStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted)

	selectedToneStyle = toneStyle.
				BorderForeground(accent).
				Foreground(accent).
				Bold(true)

	excuseStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(accent).
			Padding(1, 2)

	boardStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), true, false, false, false).
			BorderForeground(muted).
			PaddingTop(1)

	hintStyle = lipgloss.NewStyle().Foreground(muted)

	noticeStyles = map[client.NoticeLevel]lipgloss.Style{
		client.NoticeInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")),
		client.NoticeSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("#3FB950")),
		client.NoticeError:   lipgloss.NewStyle().Foreground(lipgloss.Color("#F85149")).Bold(true),
	}
)

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/edgeee/excuse-generator/client"
	"github.com/edgeee/excuse-generator/tui"
)

var (
	tuiServer    string
	tuiState     string
	tuiRefresh   time.Duration
	tuiBoardSize int
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Run the terminal client",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := client.OpenStore(tuiState)
		if err != nil {
			return fmt.Errorf("open state: %w", err)
		}
		c := client.New(tuiServer, nil)
		m := tui.New(client.NewSession(c, store), c, tui.Options{
			RefreshInterval: tuiRefresh,
			LeaderboardSize: tuiBoardSize,
		})

		p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("run tui: %w", err)
		}
		return nil
	},
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "excuses.json"
	}
	return filepath.Join(dir, "excuses", "state.json")
}

func init() {
	tuiCmd.Flags().StringVar(&tuiServer, "server", "http://localhost:8080", "base URL of the excuse API")
	tuiCmd.Flags().StringVar(&tuiState, "state", defaultStatePath(), "file holding liked excuses and the generation count")
	tuiCmd.Flags().DurationVar(&tuiRefresh, "refresh", tui.DefaultRefreshInterval, "leaderboard polling interval")
	tuiCmd.Flags().IntVar(&tuiBoardSize, "top", tui.DefaultLeaderboardSize, "number of leaderboard rows")
}

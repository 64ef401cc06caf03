// Package tui is the terminal front end for the excuse generator.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/edgeee/excuse-generator/api"
	"github.com/edgeee/excuse-generator/client"
)

// clipboardWriteAll is swapped out in tests.
var clipboardWriteAll = clipboard.WriteAll

const (
	DefaultRefreshInterval = 10 * time.Second
	DefaultLeaderboardSize = 10
	defaultRequestTimeout  = 90 * time.Second

	maxExcuseType = 64
)

// Leaderboard is the read side of the API polled by the model. *client.Client
// implements it.
type Leaderboard interface {
	TopExcuses(ctx context.Context, limit int) ([]api.Excuse, error)
	Count(ctx context.Context) (int, error)
}

// Options configure a Model.
type Options struct {
	RefreshInterval time.Duration
	LeaderboardSize int
	RequestTimeout  time.Duration
}

type (
	generatedMsg struct {
		res client.GenerateResult
		err error
	}
	reactedMsg struct {
		reaction client.Reaction
		count    int
		err      error
	}
	topMsg struct {
		excuses []api.Excuse
		err     error
	}
	countMsg struct {
		count int
		err   error
	}
	refreshMsg struct{}
)

// Model is the bubbletea model of the application.
type Model struct {
	session  *client.Session
	board    Leaderboard
	opts     Options
	spinner  spinner.Model
	input    textinput.Model
	editing  bool
	renderer *glamour.TermRenderer

	notice   client.Notice
	top      []api.Excuse
	total    int
	boardErr error
	showTips bool
	width    int
}

func New(session *client.Session, board Leaderboard, opts Options) *Model {
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = DefaultRefreshInterval
	}
	if opts.LeaderboardSize <= 0 {
		opts.LeaderboardSize = DefaultLeaderboardSize
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(accent)

	in := textinput.New()
	in.Placeholder = "work, school, family..."
	in.Prompt = "Excuse type: "
	in.CharLimit = maxExcuseType

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		renderer = nil
	}

	return &Model{
		session:  session,
		board:    board,
		opts:     opts,
		spinner:  sp,
		input:    in,
		renderer: renderer,
		showTips: true,
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetchLeaderboard(), m.scheduleRefresh())
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case generatedMsg:
		m.notify(m.session.Finish(msg.res, msg.err))
		return m, nil

	case reactedMsg:
		if msg.err != nil {
			m.notice = client.Notice{Level: client.NoticeError, Text: fmt.Sprintf("Could not save %s: %v", msg.reaction.Type, msg.err)}
			return m, nil
		}
		m.applyCount(msg.reaction, msg.count)
		return m, nil

	case topMsg:
		// A failed poll keeps the last leaderboard on screen.
		m.boardErr = msg.err
		if msg.err == nil {
			m.top = msg.excuses
		}
		return m, nil

	case countMsg:
		if msg.err == nil {
			m.total = msg.count
		}
		return m, nil

	case refreshMsg:
		return m, tea.Batch(m.fetchLeaderboard(), m.scheduleRefresh())
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.editing {
		return m.handleInputKey(msg)
	}
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "1", "2", "3":
		m.session.SelectTone(api.Tones[msg.String()[0]-'1'])
		return m, nil
	case "g", "enter":
		ok, notices := m.session.Begin()
		m.notify(notices)
		if !ok {
			return m, nil
		}
		return m, m.generate()
	case "l":
		r, ok, notices := m.session.ToggleLike()
		m.notify(notices)
		if !ok {
			return m, nil
		}
		return m, m.send(r)
	case "s":
		r, ok, notices := m.session.Share()
		m.notify(notices)
		if !ok {
			return m, nil
		}
		return m, m.send(r)
	case "c":
		cur, _ := m.session.Current()
		r, ok, notices := m.session.Copy()
		if !ok {
			return m, nil
		}
		if err := clipboardWriteAll(cur.Excuse); err != nil {
			m.notice = client.Notice{Level: client.NoticeError, Text: "Failed to copy excuse"}
			return m, nil
		}
		m.notify(notices)
		return m, m.send(r)
	case "e":
		m.editing = true
		m.input.SetValue(m.session.ExcuseType())
		m.input.CursorEnd()
		return m, m.input.Focus()
	case "t":
		m.showTips = !m.showTips
		return m, nil
	case "r":
		return m, m.fetchLeaderboard()
	}
	return m, nil
}

// handleInputKey edits the excuse type. Enter keeps the value, esc drops it.
func (m *Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "enter":
		typ := strings.TrimSpace(m.input.Value())
		m.session.SetExcuseType(typ)
		m.editing = false
		m.input.Blur()
		if typ == "" {
			m.notice = client.Notice{Level: client.NoticeInfo, Text: "Excuse type cleared"}
		} else {
			m.notice = client.Notice{Level: client.NoticeInfo, Text: fmt.Sprintf("Excuse type set to %q", typ)}
		}
		return m, nil
	case "esc":
		m.editing = false
		m.input.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) notify(notices []client.Notice) {
	if len(notices) > 0 {
		m.notice = notices[len(notices)-1]
	}
}

// applyCount updates the leaderboard row of the reacted excuse so the
// change shows before the next poll.
func (m *Model) applyCount(r client.Reaction, n int) {
	for i := range m.top {
		if m.top[i].ID != r.ExcuseID {
			continue
		}
		switch r.Type {
		case "like", "unlike":
			m.top[i].LikesCount = n
		case "share":
			m.top[i].SharesCount = n
		case "copy":
			m.top[i].CopiesCount = n
		}
	}
}

func (m *Model) generate() tea.Cmd {
	timeout := m.opts.RequestTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		res, err := m.session.Request(ctx)
		return generatedMsg{res: res, err: err}
	}
}

func (m *Model) send(r client.Reaction) tea.Cmd {
	timeout := m.opts.RequestTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		n, err := m.session.Send(ctx, r)
		return reactedMsg{reaction: r, count: n, err: err}
	}
}

// fetchLeaderboard issues the two independent leaderboard reads.
func (m *Model) fetchLeaderboard() tea.Cmd {
	board, limit, timeout := m.board, m.opts.LeaderboardSize, m.opts.RequestTimeout
	top := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		excuses, err := board.TopExcuses(ctx, limit)
		return topMsg{excuses: excuses, err: err}
	}
	count := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		n, err := board.Count(ctx)
		return countMsg{count: n, err: err}
	}
	return tea.Batch(top, count)
}

func (m *Model) scheduleRefresh() tea.Cmd {
	return tea.Tick(m.opts.RefreshInterval, func(time.Time) tea.Msg {
		return refreshMsg{}
	})
}

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Excuse Generator"))
	b.WriteString("\n\n")

	tones := make([]string, len(api.Tones))
	for i, t := range api.Tones {
		label := fmt.Sprintf("%d %s", i+1, t)
		if t == m.session.Tone() {
			tones[i] = selectedToneStyle.Render(label)
		} else {
			tones[i] = toneStyle.Render(label)
		}
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tones...))
	b.WriteString("\n")
	if m.editing {
		b.WriteString(m.input.View())
		b.WriteString("\n" + hintStyle.Render("enter save · esc cancel"))
	} else if typ := m.session.ExcuseType(); typ != "" {
		b.WriteString(hintStyle.Render("Excuse type: " + typ))
	}
	b.WriteString("\n\n")

	if m.session.State() == client.StateGenerating {
		b.WriteString(m.spinner.View() + " Generating your excuse...\n\n")
	}

	if cur, ok := m.session.Current(); ok {
		b.WriteString(excuseStyle.Render(cur.Excuse))
		b.WriteString("\n")
		if !cur.Demo() {
			heart := "♡"
			if m.session.Liked() {
				heart = "♥"
			}
			b.WriteString(hintStyle.Render(fmt.Sprintf("%s l like · s share · c copy", heart)))
			b.WriteString("\n")
		}
		if m.showTips && cur.Tips != "" {
			b.WriteString(m.renderTips(cur.Tips))
			b.WriteString("\n")
		}
	}

	if m.notice.Text != "" {
		b.WriteString(noticeStyles[m.notice.Level].Render(m.notice.Text))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(boardStyle.Render(m.leaderboardView()))
	b.WriteString("\n")
	b.WriteString(hintStyle.Render("1-3 tone · e type · g generate · t tips · r refresh · q quit"))
	b.WriteString("\n")
	return b.String()
}

func (m *Model) renderTips(tips string) string {
	if m.renderer == nil {
		return tips
	}
	out, err := m.renderer.Render(tips)
	if err != nil {
		return tips
	}
	return out
}

func (m *Model) leaderboardView() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Top excuses (%d generated, you made %d)\n", m.total, m.session.Generations())
	if m.boardErr != nil {
		b.WriteString(hintStyle.Render("Leaderboard unavailable"))
		b.WriteString("\n")
	}
	if len(m.top) == 0 {
		b.WriteString(hintStyle.Render("No excuses yet."))
		return b.String()
	}
	for i, e := range m.top {
		fmt.Fprintf(&b, "%2d. ♥ %-3d %-10s %s\n", i+1, e.LikesCount, e.Tone, truncate(e.Text, 60))
	}
	return strings.TrimRight(b.String(), "\n")
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

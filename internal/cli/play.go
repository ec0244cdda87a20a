package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/apresai/podcastr/internal/player"
	"github.com/apresai/podcastr/internal/progress"
)

var playCmd = &cobra.Command{
	Use:   "play <podcast-id | file.mp3>",
	Short: "Play a published podcast or a local MP3 in the terminal",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)
}

var (
	trackTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4"))

	trackAuthorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#626262"))

	clockStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5555")).
			Bold(true)

	playerErrorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FF5555")).
				Bold(true)

	playerHelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			MarginTop(1)
)

const syncInterval = 250 * time.Millisecond

type syncMsg time.Time

func syncTick() tea.Cmd {
	return tea.Tick(syncInterval, func(t time.Time) tea.Msg { return syncMsg(t) })
}

// playerModel is the Bubble Tea model for the transport controls.
type playerModel struct {
	ctrl  *player.Controller
	width int
	err   error
}

func newPlayerModel(ctrl *player.Controller) playerModel {
	return playerModel{ctrl: ctrl, width: 80}
}

func (m playerModel) Init() tea.Cmd {
	return syncTick()
}

func (m playerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case syncMsg:
		m.ctrl.Sync()
		if m.ctrl.State() == player.StateIdle {
			return m, tea.Quit
		}
		return m, syncTick()

	case tea.KeyMsg:
		var err error
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			err = m.ctrl.Close(context.Background())
			m.err = err
			return m, tea.Quit
		case " ", "space", "p":
			err = m.ctrl.TogglePlayPause()
		case "right", "l":
			err = m.ctrl.Forward()
		case "left", "h":
			err = m.ctrl.Rewind()
		case "m":
			err = m.ctrl.ToggleMute()
		case "0", "home":
			err = m.ctrl.Seek(0)
		default:
			return m, nil
		}
		m.err = err
	}
	return m, nil
}

func (m playerModel) View() string {
	s := m.ctrl.Snapshot()
	if !s.Visible || s.Track == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(trackTitleStyle.Render(s.Track.Title) + "\n")
	if s.Track.Author != "" {
		b.WriteString(trackAuthorStyle.Render(s.Track.Author) + "\n")
	}
	b.WriteString("\n")

	icon := "▶"
	if s.Playing {
		icon = "⏸"
	}
	if m.ctrl.State() == player.StateLoading {
		icon = "…"
	}

	barWidth := min(max(m.width-30, 10), 60)
	clock := player.FormatTime(s.Position) + " / " + player.FormatTime(s.Duration)
	line := fmt.Sprintf("  %s  %s  %s", icon, progress.RenderBar(m.ctrl.Progress()/100, barWidth), clockStyle.Render(clock))
	if s.Muted {
		line += "  " + mutedStyle.Render("muted")
	}
	b.WriteString(line + "\n")

	if m.err != nil {
		b.WriteString("\n" + playerErrorStyle.Render("  "+m.err.Error()) + "\n")
	}
	b.WriteString(playerHelpStyle.Render("  space play/pause | ←/→ 5s | m mute | 0 restart | q close"))
	b.WriteString("\n")
	return b.String()
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	target := args[0]

	var track *player.Track
	if strings.HasSuffix(strings.ToLower(target), ".mp3") {
		if _, err := os.Stat(target); err != nil {
			return fmt.Errorf("cannot access file: %w", err)
		}
		base := filepath.Base(target)
		track = &player.Track{
			Title:    strings.TrimSuffix(base, filepath.Ext(base)),
			AudioURL: target,
		}
	} else {
		a, err := setup(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.Store.GetPodcast(ctx, target)
		if err != nil {
			return err
		}
		if err := a.Store.IncrementViews(ctx, p.ID, 1); err != nil {
			a.Logger.Warn("Failed to count view", "podcast_id", p.ID, "error", err)
		}
		track = &player.Track{
			PodcastID: p.ID,
			Title:     p.Title,
			Author:    p.Author,
			AudioURL:  p.AudioURL,
			ImageURL:  p.ImageURL,
		}
	}

	media := player.NewOtoMedia(nil)
	defer media.Close()

	slot := player.NewTrackSlot()
	ctrl := player.NewController(media, slot, nil)

	fmt.Fprintf(cmd.ErrOrStderr(), "Loading %s...\n", track.Title)
	if err := slot.Set(ctx, track); err != nil {
		return err
	}

	if _, err := tea.NewProgram(newPlayerModel(ctrl)).Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Meshfoundry

package cmd

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/meshfoundry/brlink/pkg/beacon"
	"github.com/meshfoundry/brlink/pkg/brt"
	"github.com/meshfoundry/brlink/pkg/hdlc"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Live link monitor with statistics",
	Long: `Full-screen monitor showing decoded frames and link diagnostic counters,
updated live.

Keys:
  q, Ctrl+C  quit
  c          clear the frame log`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

// Styles
var (
	tuiTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	tuiStatsStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)

	tuiFrameTimeStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("241"))

	tuiFrameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	tuiHelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

type frameEntry struct {
	timestamp time.Time
	text      string
}

type tuiModel struct {
	link     *brt.Link
	connInfo string

	frames     []frameEntry
	maxEntries int
	stats      brt.Stats
	buf        []byte

	width    int
	height   int
	quitting bool
}

type tuiTickMsg time.Time

func tuiTick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tuiTickMsg(t)
	})
}

func newTUIModel(link *brt.Link, connInfo string) tuiModel {
	return tuiModel{
		link:       link,
		connInfo:   connInfo,
		maxEntries: 200,
		buf:        make([]byte, hdlc.MaxPayloadSize),
	}
}

func (m tuiModel) Init() tea.Cmd {
	return tuiTick()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "c":
			m.frames = nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tuiTickMsg:
		// Drain whatever the poll interval accumulated.
		for {
			n := m.link.Receive(m.buf)
			if n == 0 {
				break
			}
			m.frames = append(m.frames, frameEntry{
				timestamp: time.Now(),
				text:      summarizePayload(m.buf[:n]),
			})
			if len(m.frames) > m.maxEntries {
				m.frames = m.frames[len(m.frames)-m.maxEntries:]
			}
		}
		m.stats = m.link.Stats()
		return m, tuiTick()
	}

	return m, nil
}

func (m tuiModel) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(tuiTitleStyle.Render("brlink monitor - " + m.connInfo))
	sb.WriteByte('\n')

	stats := fmt.Sprintf(
		"frames %d↑ %d↓   crc errors %d   oversized %d   dropped rx %d tx %d   noise %d",
		m.stats.FramesSent, m.stats.FramesReceived,
		m.stats.Decoder.CRCErrors, m.stats.Decoder.Oversized,
		m.stats.RxDropped, m.stats.TxDropped,
		m.stats.Decoder.Discarded)
	sb.WriteString(tuiStatsStyle.Render(stats))
	sb.WriteByte('\n')

	// Fit the newest frames into the remaining rows.
	rows := m.height - 6
	if rows < 1 {
		rows = 10
	}
	frames := m.frames
	if len(frames) > rows {
		frames = frames[len(frames)-rows:]
	}
	for _, f := range frames {
		sb.WriteString(tuiFrameTimeStyle.Render(f.timestamp.Format("15:04:05.000")))
		sb.WriteByte(' ')
		sb.WriteString(tuiFrameStyle.Render(f.text))
		sb.WriteByte('\n')
	}

	sb.WriteByte('\n')
	sb.WriteString(tuiHelpStyle.Render("q: quit  c: clear"))
	return sb.String()
}

// summarizePayload renders a payload on one line: decoded beacon if it parses,
// shortened hex otherwise.
func summarizePayload(payload []byte) string {
	if b, err := beacon.Decode(payload); err == nil {
		return b.String()
	}
	const maxShown = 24
	if len(payload) <= maxShown {
		return fmt.Sprintf("% 02X", payload)
	}
	return fmt.Sprintf("% 02X … (%d bytes)", payload[:maxShown], len(payload))
}

func runTUI(cmd *cobra.Command, args []string) error {
	link, conn, connInfo, err := OpenLinkConnection()
	if err != nil {
		return err
	}
	defer conn.Close()
	defer link.Deinit()

	p := tea.NewProgram(newTUIModel(link, connInfo), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

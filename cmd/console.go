// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Meshfoundry

package cmd

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/meshfoundry/brlink/pkg/brt"
	"github.com/meshfoundry/brlink/pkg/hdlc"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Interactive frame console",
	Long: `Interactive console for exchanging frames with the peer.

Type a payload as hex bytes ("01 7e 7d 02") and press Enter to transmit it
framed; received frames appear in the log above the input line.

Keys:
  Enter      send the typed payload
  Esc/Ctrl+C quit`,
	RunE: runConsole,
}

func init() {
	rootCmd.AddCommand(consoleCmd)
}

var (
	consoleSentStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("36"))

	consoleRecvStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252"))

	consoleErrStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))
)

type consoleEntry struct {
	timestamp time.Time
	line      string
	style     lipgloss.Style
}

type consoleModel struct {
	link  *brt.Link
	input textinput.Model

	log        []consoleEntry
	maxEntries int
	buf        []byte

	width    int
	height   int
	quitting bool
}

type consoleTickMsg time.Time

func consoleTick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return consoleTickMsg(t)
	})
}

func newConsoleModel(link *brt.Link) consoleModel {
	ti := textinput.New()
	ti.Placeholder = "hex payload, e.g. 01 7e 7d 02"
	ti.Focus()
	ti.CharLimit = 3 * hdlc.MaxPayloadSize
	ti.Width = 60

	return consoleModel{
		link:       link,
		input:      ti,
		maxEntries: 200,
		buf:        make([]byte, hdlc.MaxPayloadSize),
	}
}

func (m consoleModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, consoleTick())
}

func (m *consoleModel) appendLog(line string, style lipgloss.Style) {
	m.log = append(m.log, consoleEntry{timestamp: time.Now(), line: line, style: style})
	if len(m.log) > m.maxEntries {
		m.log = m.log[len(m.log)-m.maxEntries:]
	}
}

func (m *consoleModel) submit() {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return
	}

	cleaned := strings.NewReplacer(" ", "", ":", "", ",", "").Replace(text)
	payload, err := hex.DecodeString(cleaned)
	if err != nil {
		m.appendLog(fmt.Sprintf("invalid hex: %v", err), consoleErrStyle)
		return
	}
	if len(payload) == 0 {
		return
	}

	m.link.Send(payload)
	m.appendLog(fmt.Sprintf("→ % 02X", payload), consoleSentStyle)
	m.input.Reset()
}

func (m consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			m.submit()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case consoleTickMsg:
		for {
			n := m.link.Receive(m.buf)
			if n == 0 {
				break
			}
			m.appendLog(fmt.Sprintf("← %s", summarizePayload(m.buf[:n])), consoleRecvStyle)
		}
		return m, consoleTick()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m consoleModel) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(tuiTitleStyle.Render("brlink console"))
	sb.WriteString("\n\n")

	rows := m.height - 5
	if rows < 1 {
		rows = 15
	}
	log := m.log
	if len(log) > rows {
		log = log[len(log)-rows:]
	}
	for _, e := range log {
		sb.WriteString(tuiFrameTimeStyle.Render(e.timestamp.Format("15:04:05.000")))
		sb.WriteByte(' ')
		sb.WriteString(e.style.Render(e.line))
		sb.WriteByte('\n')
	}

	sb.WriteByte('\n')
	sb.WriteString(m.input.View())
	sb.WriteByte('\n')
	sb.WriteString(tuiHelpStyle.Render("enter: send  esc: quit"))
	return sb.String()
}

func runConsole(cmd *cobra.Command, args []string) error {
	link, conn, _, err := OpenLinkConnection()
	if err != nil {
		return err
	}
	defer conn.Close()
	defer link.Deinit()

	p := tea.NewProgram(newConsoleModel(link), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

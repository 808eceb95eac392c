package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/adamgarcia4/goLearning/ndnagg/emu"
	"github.com/adamgarcia4/goLearning/ndnagg/logger"
	"github.com/adamgarcia4/goLearning/ndnagg/orchestrator"
	"github.com/adamgarcia4/goLearning/ndnagg/topology"
)

const logLines = 15

type hostRow struct {
	name  string
	role  topology.Role
	procs int
	alive int
}

type model struct {
	ctx      context.Context
	orch     *orchestrator.Orchestrator
	network  emu.Network
	manifest *orchestrator.Manifest

	hosts     []hostRow
	selected  int
	err       error
	logBuffer *logger.LogBuffer
	logScroll int  // for scrolling logs
	appLog    bool // show the selected host's application log instead of the event log
	width     int
	height    int

	commandMode bool
	command     string
	lastCommand string // Track last command for repeat (Enter key)
}

func newModel(ctx context.Context, o *orchestrator.Orchestrator, network emu.Network, m *orchestrator.Manifest, buf *logger.LogBuffer) model {
	md := model{
		ctx:       ctx,
		orch:      o,
		network:   network,
		manifest:  m,
		logBuffer: buf,
	}
	md.hosts = md.snapshot()
	return md
}

// runSession hands the terminal to the operator until they quit or ctx ends.
func runSession(ctx context.Context, o *orchestrator.Orchestrator, network emu.Network, m *orchestrator.Manifest) error {
	// Route logs to the buffer only while the session owns the terminal
	buf := logger.GetGlobalLogBuffer()
	writer := logger.NewLogBufferWriter(buf)
	if err := logger.AddOutput(writer); err != nil {
		return err
	}
	defer logger.RemoveOutput(writer)
	logger.SetConsole(false)
	defer logger.SetConsole(true)

	p := tea.NewProgram(newModel(ctx, o, network, m, buf), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("error running interactive session: %w", err)
	}
	return nil
}

func (m model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

type tickMsg struct{}

type commandDoneMsg struct {
	host    string
	command string
	output  string
	err     error
}

type shutdownCompleteMsg struct {
	err error
}

// shutdown stops all processes and the network and sends a message when complete
func shutdown(ctx context.Context, o *orchestrator.Orchestrator) tea.Cmd {
	return func() tea.Msg {
		return shutdownCompleteMsg{err: o.Shutdown(context.WithoutCancel(ctx))}
	}
}

func runOnHost(ctx context.Context, h emu.Host, command string) tea.Cmd {
	return func() tea.Msg {
		out, err := h.Run(ctx, command)
		return commandDoneMsg{host: h.Name(), command: command, output: out, err: err}
	}
}

func (m model) snapshot() []hostRow {
	rows := make([]hostRow, 0, len(m.manifest.Roles))
	for _, id := range m.manifest.Roles.All() {
		row := hostRow{name: string(id), role: m.manifest.Roles[id]}
		for _, p := range m.orch.Processes().ForHost(row.name) {
			row.procs++
			if p.Alive() {
				row.alive++
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func (m model) selectedHost() (emu.Host, error) {
	if len(m.hosts) == 0 {
		return nil, fmt.Errorf("no hosts")
	}
	name := m.hosts[m.selected].name
	h, ok := m.network.Host(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", emu.ErrHostNotFound, name)
	}
	return h, nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, shutdown(m.ctx, m.orch)
		}
		if m.commandMode {
			return m.handleCommandMode(msg)
		}

		switch msg.String() {
		case "q":
			// Stop everything gracefully and wait for completion
			return m, shutdown(m.ctx, m.orch)

		case "c", ":":
			m.commandMode = true
			m.command = ""
			m.err = nil
			return m, nil

		case "enter":
			// Repeat last command on the selected host
			if m.lastCommand == "" {
				return m, nil
			}
			h, err := m.selectedHost()
			if err != nil {
				m.err = err
				return m, nil
			}
			return m, runOnHost(m.ctx, h, m.lastCommand)

		case "l":
			m.appLog = !m.appLog
			m.logScroll = 0
			return m, nil

		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
			return m, nil

		case "down", "j":
			if m.selected < len(m.hosts)-1 {
				m.selected++
			}
			return m, nil

		case "pgup", "K":
			// Scroll logs up (show older logs)
			maxScroll := len(m.logEntries()) - logLines
			if maxScroll < 0 {
				maxScroll = 0
			}
			if m.logScroll < maxScroll {
				m.logScroll++
			}
			return m, nil

		case "pgdown", "J":
			if m.logScroll > 0 {
				m.logScroll--
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		m.hosts = m.snapshot()
		return m, tick()

	case commandDoneMsg:
		for _, line := range strings.Split(strings.TrimRight(msg.output, "\n"), "\n") {
			if line != "" {
				m.logBuffer.Add(msg.host, "info", line)
			}
		}
		if msg.err != nil {
			m.err = fmt.Errorf("%q on %s: %w", msg.command, msg.host, msg.err)
		} else {
			m.err = nil
		}
		return m, nil

	case shutdownCompleteMsg:
		if msg.err != nil {
			logger.Errorf("Error stopping experiment during shutdown: %v", msg.err)
		}
		return m, tea.Quit
	}

	return m, nil
}

func (m model) handleCommandMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.commandMode = false
		m.command = ""
		return m, nil

	case tea.KeyEnter:
		m.commandMode = false
		command := strings.TrimSpace(m.command)
		m.command = ""
		if command == "" {
			return m, nil
		}
		h, err := m.selectedHost()
		if err != nil {
			m.err = err
			return m, nil
		}
		m.lastCommand = command
		return m, runOnHost(m.ctx, h, command)

	case tea.KeyBackspace:
		if len(m.command) > 0 {
			runes := []rune(m.command)
			m.command = string(runes[:len(runes)-1])
		}
		return m, nil

	case tea.KeySpace:
		m.command += " "
		return m, nil

	case tea.KeyRunes:
		m.command += string(msg.Runes)
		return m, nil
	}
	return m, nil
}

// logEntries returns the lines of the log pane, oldest first.
func (m model) logEntries() []string {
	if m.appLog && len(m.hosts) > 0 {
		host := m.hosts[m.selected].name
		if m.hosts[m.selected].role == topology.RoleRelay {
			return []string{"(no application on " + host + ")"}
		}
		return tailFile(m.manifest.LogPath(host), 200)
	}

	entries := m.logBuffer.GetAll()
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = logger.FormatLogEntry(e)
	}
	return lines
}

func (m model) View() string {
	var s strings.Builder

	// Title
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("62")).
		Padding(1, 2)
	s.WriteString(titleStyle.Render(fmt.Sprintf("Experiment %s (%s)", m.manifest.Label, m.manifest.Variant)))
	s.WriteString("\n\n")

	// Status
	if m.err != nil {
		errorStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)
		s.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		s.WriteString("\n\n")
	}

	// Hosts list
	s.WriteString("Hosts:\n\n")
	for i, h := range m.hosts {
		line := fmt.Sprintf("%-8s %-10s %d/%d running", h.name, h.role, h.alive, h.procs)
		if i == m.selected {
			hostStyle := lipgloss.NewStyle().
				PaddingLeft(2).
				Foreground(lipgloss.Color("62")).
				Bold(true)
			s.WriteString(hostStyle.Render("> " + line))
		} else {
			s.WriteString("    " + line)
		}
		s.WriteString("\n")
	}
	s.WriteString("\n")

	// Logs section - single unified box
	lines := m.logEntries()
	end := len(lines) - m.logScroll
	if end < 0 {
		end = 0
	}
	start := end - logLines
	if start < 0 {
		start = 0
	}
	shown := lines[start:end]
	if len(shown) == 0 {
		shown = []string{"(no logs yet)"}
	}

	title := "Logs:"
	if m.appLog && len(m.hosts) > 0 {
		title = fmt.Sprintf("Application log of %s:", m.hosts[m.selected].name)
	}

	// Use terminal width if available, otherwise default
	boxWidth := 100
	if m.width > 0 {
		boxWidth = m.width - 4 // Leave some margin
	}
	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1).
		Height(logLines + 1).
		Width(boxWidth)
	s.WriteString(logStyle.Render(title + "\n" + strings.Join(shown, "\n")))
	s.WriteString("\n\n")

	// Instructions
	instructionsStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true).
		PaddingTop(1)

	if m.commandMode {
		host := ""
		if len(m.hosts) > 0 {
			host = m.hosts[m.selected].name
		}
		s.WriteString(fmt.Sprintf("%s$ %s█\n", host, m.command))
		s.WriteString(instructionsStyle.Render("Enter to run | Esc to cancel"))
	} else {
		instructionText := "↑/↓/j/k select host | C to run a command"
		if m.lastCommand != "" {
			instructionText += fmt.Sprintf(" | Enter to repeat (%s)", m.lastCommand)
		}
		instructionText += " | L to toggle application log | PgUp/PgDn to scroll logs | Q to stop and quit"
		s.WriteString(instructionsStyle.Render(instructionText))
	}

	return s.String()
}

// tailFile returns the last n lines of a file.
func tailFile(path string, n int) []string {
	f, err := os.Open(path)
	if err != nil {
		return []string{fmt.Sprintf("(%v)", err)}
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		if len(lines) > n {
			lines = lines[1:]
		}
	}
	return lines
}

package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const tuiPoll = time.Second

// TUI message types
type statusMsg struct {
	resp IPCResponse
	err  error
}
type setDoneMsg struct {
	resp IPCResponse
	err  error
}
type tickMsg time.Time

type tuiModel struct {
	status     IPCResponse
	connErr    error
	notice     string
	noticeWarn bool
	width      int
	fetch      func(IPCRequest) (IPCResponse, error)
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255"))
	activeStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	helpKeyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Bold(true)
)

func newTUIModel(sock string) tuiModel {
	return tuiModel{
		fetch: func(req IPCRequest) (IPCResponse, error) { return ipcCall(sock, req) },
	}
}

func NewTUIProgram(sock string) *tea.Program {
	return tea.NewProgram(newTUIModel(sock), tea.WithAltScreen())
}

func tuiTick() tea.Cmd {
	return tea.Tick(tuiPoll, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) fetchStatus() tea.Cmd {
	return func() tea.Msg {
		resp, err := m.fetch(IPCRequest{Command: "status"})
		return statusMsg{resp: resp, err: err}
	}
}

func (m tuiModel) setRoute(name string) tea.Cmd {
	return func() tea.Msg {
		resp, err := m.fetch(IPCRequest{Command: "set", Route: name})
		return setDoneMsg{resp: resp, err: err}
	}
}

func (m tuiModel) Init() tea.Cmd {
	return tea.Batch(m.fetchStatus(), tuiTick())
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "h":
			return m, m.setRoute("builtin")
		case "s":
			return m, m.setRoute("speaker")
		case "b":
			return m, m.setRoute("bluetooth")
		}

	case tickMsg:
		return m, tea.Batch(m.fetchStatus(), tuiTick())

	case statusMsg:
		m.connErr = msg.err
		if msg.err == nil {
			m.status = msg.resp
		}

	case setDoneMsg:
		var out strings.Builder
		err := msg.err
		if err == nil {
			err = setResult(msg.resp, &out)
		}
		if err != nil {
			m.notice = err.Error()
			m.noticeWarn = true
		} else {
			m.notice = strings.TrimSpace(out.String())
			m.noticeWarn = msg.resp.Fallback
		}
		return m, m.fetchStatus()
	}
	return m, nil
}

func (m tuiModel) View() string {
	var lines []string
	lines = append(lines, titleStyle.Render("audioroute"), "")

	if m.connErr != nil {
		lines = append(lines, errStyle.Render("● daemon unreachable"), dimStyle.Render("  "+m.connErr.Error()))
	} else {
		lines = append(lines, m.routeLines()...)
		lines = append(lines, "")
		lines = append(lines, m.deviceLines()...)
	}

	if m.notice != "" {
		style := dimStyle
		if m.noticeWarn {
			style = warnStyle
		}
		lines = append(lines, "", style.Render(m.notice))
	}

	lines = append(lines, "",
		helpKeyStyle.Render("h")+helpStyle.Render(" built-in  ")+
			helpKeyStyle.Render("s")+helpStyle.Render(" speaker  ")+
			helpKeyStyle.Render("b")+helpStyle.Render(" bluetooth  ")+
			helpKeyStyle.Render("q")+helpStyle.Render(" quit"),
		helpStyle.Render("audioroute "+version),
	)
	return strings.Join(lines, "\n")
}

func (m tuiModel) routeLines() []string {
	st := m.status
	if st.Active == "" {
		return []string{dimStyle.Render("○ no route applied yet")}
	}
	lines := []string{"route: " + activeStyle.Render(st.Active)}
	if st.Fallback {
		lines = append(lines, warnStyle.Render(fmt.Sprintf("  ⚠ %s requested but unavailable", st.Requested)))
	}
	bt := dimStyle.Render("no accessory")
	if st.Bluetooth {
		bt = activeStyle.Render("connected")
	}
	return append(lines, "bluetooth: "+bt)
}

func (m tuiModel) deviceLines() []string {
	var lines []string
	for _, d := range m.status.Devices {
		mark := "  "
		if d.Default {
			mark = "▶ "
		}
		line := fmt.Sprintf("%s%-6s %-9s %s", mark, d.Direction, d.Category, d.Name)
		if !d.Connected {
			line += " (not connected)"
		}
		if d.Default {
			lines = append(lines, line)
		} else {
			lines = append(lines, dimStyle.Render(line))
		}
	}
	return lines
}

func runWatch(sock string) error {
	if _, err := NewTUIProgram(sock).Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

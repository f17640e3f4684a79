// Command tui is a live dashboard consuming C1's event bus over
// /api/events/ws, in the teacher's bubbletea/bubbles/lipgloss idiom
// (cmd/alex/tui_chat) but rendering orchestrator task events instead of a
// chat transcript.
package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).Padding(0, 1)
	phaseStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	taskStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	timeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

type domainEvent struct {
	Type       string    `json:"type"`
	TaskID     string    `json:"task_id,omitempty"`
	AgentID    string    `json:"agent_id,omitempty"`
	Phase      string    `json:"phase,omitempty"`
	Message    string    `json:"message,omitempty"`
	CustomType string    `json:"custom_type,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

type wsConn struct {
	conn *websocket.Conn
}

type eventMsg domainEvent
type errMsg error

func (w *wsConn) readNext() tea.Cmd {
	return func() tea.Msg {
		_, data, err := w.conn.ReadMessage()
		if err != nil {
			return errMsg(err)
		}
		var ev domainEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return w.readNext()()
		}
		return eventMsg(ev)
	}
}

type model struct {
	vp     viewport.Model
	lines  []string
	ws     *wsConn
	md     *glamour.TermRenderer
	ready  bool
	closed bool
}

func (m model) Init() tea.Cmd {
	return m.ws.readNext()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.vp = viewport.New(msg.Width, msg.Height-2)
			m.ready = true
		} else {
			m.vp.Width = msg.Width
			m.vp.Height = msg.Height - 2
		}
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case eventMsg:
		line := renderEvent(m.md, domainEvent(msg))
		m.lines = append(m.lines, line)
		if len(m.lines) > 2000 {
			m.lines = m.lines[len(m.lines)-2000:]
		}
		if m.ready {
			m.vp.SetContent(joinLines(m.lines))
			m.vp.GotoBottom()
		}
		return m, m.ws.readNext()
	case errMsg:
		m.closed = true
		m.lines = append(m.lines, timeStyle.Render("--- connection closed: "+msg.Error()+" ---"))
		if m.ready {
			m.vp.SetContent(joinLines(m.lines))
			m.vp.GotoBottom()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	return m, cmd
}

func (m model) View() string {
	if !m.ready {
		return "initializing...\n"
	}
	header := headerStyle.Render("orchestrator event stream — q to quit")
	return header + "\n" + m.vp.View()
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}

// renderEvent formats a single event line, except task_error/merge_conflict
// custom events — those get their message run through glamour as a
// markdown block (bullet lists of conflicted files read far better
// rendered than jammed onto one lipgloss line).
func renderEvent(md *glamour.TermRenderer, ev domainEvent) string {
	ts := timeStyle.Render(ev.Timestamp.Format("15:04:05"))
	task := ""
	if ev.TaskID != "" {
		task = taskStyle.Render(ev.TaskID[:min(8, len(ev.TaskID))]) + " "
	}
	phase := ""
	if ev.Phase != "" {
		phase = phaseStyle.Render(string(ev.Phase)) + " "
	}
	detail := ev.Message
	if detail == "" {
		detail = ev.CustomType
	}
	header := fmt.Sprintf("%s %s%s%s", ts, task, phase, ev.Type)

	if md != nil && (ev.CustomType == "task_error" || ev.CustomType == "merge_conflict") {
		rendered, err := md.Render("**" + ev.CustomType + "**\n\n" + detail)
		if err == nil {
			return header + "\n" + rendered
		}
	}
	return fmt.Sprintf("%s %s", header, detail)
}

func main() {
	var addr, token string
	rootCmd := &cobra.Command{
		Use:   "tui",
		Short: "Live dashboard of orchestrator task/agent events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(addr, token)
		},
	}
	rootCmd.Flags().StringVar(&addr, "addr", "127.0.0.1:9876", "orchestrator daemon address")
	rootCmd.Flags().StringVar(&token, "token", "", "auth bearer token")
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(addr, token string) error {
	wsURL := url.URL{Scheme: "ws", Host: addr, Path: "/api/events/ws"}
	header := map[string][]string{}
	if token != "" {
		header["Authorization"] = []string{"Bearer " + token}
	}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL.String(), header)
	if err != nil {
		return fmt.Errorf("dial event stream: %w", err)
	}
	defer conn.Close()

	md, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		return fmt.Errorf("init markdown renderer: %w", err)
	}

	m := model{ws: &wsConn{conn: conn}, md: md}
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

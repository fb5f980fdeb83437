package cli

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/nerrad567/asset-registry/internal/console"
)

func newConsoleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "console",
		Aliases: []string{"ui"},
		Short:   "Open the interactive asset console",
		Long: `Open a full-screen console listing every asset.

Keyboard Shortcuts:
  List:
    ↑/k ↓/j     Move
    n           New asset
    e/Enter     Edit selected asset
    d           Delete selected asset
    r           Reload
    x           Dismiss notification
    q           Quit

  Form:
    Tab         Next field
    Shift+Tab   Previous field
    Ctrl+S      Save
    Esc         Cancel`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConsole(cmd.Context(), a)
		},
	}
}

func runConsole(parent context.Context, a *app) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	bridge := &programBridge{}
	ctrl := console.NewController(a.api, bridge, &tuiConfirmer{ctx: ctx, send: bridge.Send})

	p := tea.NewProgram(newConsoleModel(ctx, ctrl), tea.WithAltScreen(), tea.WithContext(ctx))
	bridge.attach(p)

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("running console: %w", err)
	}
	return nil
}

// stateMsg carries a controller state snapshot into the event loop.
type stateMsg struct {
	state console.State
}

// confirmRequestMsg asks the operator a yes/no question. The answer is
// sent on reply exactly once.
type confirmRequestMsg struct {
	prompt string
	reply  chan bool
}

// programBridge is the controller's View. Render forwards snapshots to the
// running program.
type programBridge struct {
	mu sync.RWMutex
	p  *tea.Program
}

func (b *programBridge) attach(p *tea.Program) {
	b.mu.Lock()
	b.p = p
	b.mu.Unlock()
}

// Send delivers msg to the program. It must not be called from Update.
func (b *programBridge) Send(msg tea.Msg) {
	b.mu.RLock()
	p := b.p
	b.mu.RUnlock()
	if p != nil {
		p.Send(msg)
	}
}

func (b *programBridge) Render(s console.State) {
	b.Send(stateMsg{state: s})
}

// tuiConfirmer shows the question in the console and blocks until it is
// answered or ctx ends.
type tuiConfirmer struct {
	ctx  context.Context
	send func(tea.Msg)
}

func (c *tuiConfirmer) Confirm(prompt string) bool {
	reply := make(chan bool, 1)
	c.send(confirmRequestMsg{prompt: prompt, reply: reply})
	select {
	case ok := <-reply:
		return ok
	case <-c.ctx.Done():
		return false
	}
}

type consoleKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	New     key.Binding
	Edit    key.Binding
	Delete  key.Binding
	Reload  key.Binding
	Dismiss key.Binding
	Quit    key.Binding
	Next    key.Binding
	Prev    key.Binding
	Save    key.Binding
	Cancel  key.Binding
	Yes     key.Binding
	No      key.Binding
}

func (k consoleKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.New, k.Edit, k.Delete, k.Reload, k.Dismiss, k.Quit}
}

func (k consoleKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.New, k.Edit, k.Delete, k.Reload, k.Dismiss},
		{k.Next, k.Prev, k.Save, k.Cancel, k.Quit},
	}
}

// formHelp lists the bindings active while the form is open.
type formHelp struct{ k consoleKeyMap }

func (f formHelp) ShortHelp() []key.Binding {
	return []key.Binding{f.k.Next, f.k.Prev, f.k.Save, f.k.Cancel}
}

func (f formHelp) FullHelp() [][]key.Binding { return [][]key.Binding{f.ShortHelp()} }

var consoleKeys = consoleKeyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	New:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
	Edit:    key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("e/enter", "edit")),
	Delete:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Reload:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	Dismiss: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "dismiss")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Next:    key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
	Prev:    key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "previous field")),
	Save:    key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
	Cancel:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	Yes:     key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "confirm")),
	No:      key.NewBinding(key.WithKeys("n", "N", "esc"), key.WithHelp("n/esc", "cancel")),
}

// Form field order.
const (
	fieldName = iota
	fieldSerial
	fieldStatus
	fieldDate
	fieldOEE
	fieldCount
)

var fieldLabels = [fieldCount]string{
	"Asset Name",
	"Serial Number",
	"Status",
	"Last Maintenance Date",
	"OEE Score",
}

// consoleModel renders the controller's state. Controller calls run as
// commands, never inside Update, because they render back into the
// program.
type consoleModel struct {
	ctx  context.Context
	ctrl *console.Controller

	state   console.State
	cursor  int
	inputs  [fieldCount]textinput.Model
	focus   int
	confirm *confirmRequestMsg

	help  help.Model
	keys  consoleKeyMap
	width int
}

func newConsoleModel(ctx context.Context, ctrl *console.Controller) consoleModel {
	placeholders := [fieldCount]string{
		"Hydraulic Press 4",
		"SN-1004",
		"RUNNING | MAINTENANCE | DOWN",
		"YYYY-MM-DD",
		"0-100",
	}

	m := consoleModel{
		ctx:  ctx,
		ctrl: ctrl,
		help: help.New(),
		keys: consoleKeys,
	}
	for i := range m.inputs {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.CharLimit = 255
		ti.Width = 40
		m.inputs[i] = ti
	}
	return m
}

func (m consoleModel) Init() tea.Cmd {
	return tea.Batch(
		m.run(func(ctx context.Context) { _ = m.ctrl.Load(ctx) }),
		func() tea.Msg {
			m.ctrl.RunClock(m.ctx)
			return nil
		},
	)
}

// run wraps a controller call as a command. Results arrive as stateMsg.
func (m consoleModel) run(fn func(ctx context.Context)) tea.Cmd {
	return func() tea.Msg {
		fn(m.ctx)
		return nil
	}
}

func (m consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case stateMsg:
		return m.applyState(msg.state)

	case confirmRequestMsg:
		if m.confirm != nil {
			// One question at a time.
			msg.reply <- false
			return m, nil
		}
		m.confirm = &msg
		return m, nil

	case tea.KeyMsg:
		switch {
		case m.confirm != nil:
			return m.updateConfirm(msg)
		case m.state.FormOpen:
			return m.updateForm(msg)
		default:
			return m.updateList(msg)
		}
	}
	return m, nil
}

func (m consoleModel) applyState(s console.State) (tea.Model, tea.Cmd) {
	prev := m.state
	m.state = s

	if m.cursor >= len(s.Assets) {
		m.cursor = max(len(s.Assets)-1, 0)
	}

	var cmd tea.Cmd
	formChanged := s.FormOpen != prev.FormOpen || s.EditingID != prev.EditingID || s.FormTitle != prev.FormTitle
	if s.FormOpen && formChanged {
		m.fillInputs(s.Form)
		cmd = m.focusField(fieldName)
	}
	if !s.FormOpen && prev.FormOpen {
		m.blurAll()
	}
	return m, cmd
}

func (m consoleModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.state.Assets)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.New):
		return m, m.run(func(context.Context) { m.ctrl.OpenCreate() })
	case key.Matches(msg, m.keys.Edit):
		if id, ok := m.selectedID(); ok {
			return m, m.run(func(ctx context.Context) { _ = m.ctrl.OpenEdit(ctx, id) })
		}
	case key.Matches(msg, m.keys.Delete):
		if id, ok := m.selectedID(); ok {
			return m, m.run(func(ctx context.Context) { _, _ = m.ctrl.Delete(ctx, id) })
		}
	case key.Matches(msg, m.keys.Reload):
		return m, m.run(func(ctx context.Context) { _ = m.ctrl.Load(ctx) })
	case key.Matches(msg, m.keys.Dismiss):
		return m, m.run(func(context.Context) { m.ctrl.Dismiss() })
	}
	return m, nil
}

func (m consoleModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit
	case key.Matches(msg, m.keys.Cancel):
		return m, m.run(func(context.Context) { m.ctrl.CloseForm() })
	case key.Matches(msg, m.keys.Save):
		form := m.formValues()
		return m, m.run(func(ctx context.Context) { _ = m.ctrl.Submit(ctx, form) })
	case key.Matches(msg, m.keys.Next):
		return m, m.focusField((m.focus + 1) % fieldCount)
	case key.Matches(msg, m.keys.Prev):
		return m, m.focusField((m.focus + fieldCount - 1) % fieldCount)
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m consoleModel) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Yes):
		m.confirm.reply <- true
		m.confirm = nil
	case key.Matches(msg, m.keys.No):
		m.confirm.reply <- false
		m.confirm = nil
	}
	return m, nil
}

func (m consoleModel) selectedID() (string, bool) {
	if m.cursor < 0 || m.cursor >= len(m.state.Assets) {
		return "", false
	}
	return m.state.Assets[m.cursor].ID, true
}

func (m *consoleModel) fillInputs(f console.Form) {
	values := [fieldCount]string{f.AssetName, f.SerialNumber, f.Status, f.LastMaintenanceDate, f.OEEScore}
	for i := range m.inputs {
		m.inputs[i].SetValue(values[i])
	}
}

func (m consoleModel) formValues() console.Form {
	return console.Form{
		AssetName:           m.inputs[fieldName].Value(),
		SerialNumber:        m.inputs[fieldSerial].Value(),
		Status:              strings.ToUpper(strings.TrimSpace(m.inputs[fieldStatus].Value())),
		LastMaintenanceDate: strings.TrimSpace(m.inputs[fieldDate].Value()),
		OEEScore:            m.inputs[fieldOEE].Value(),
	}
}

func (m *consoleModel) focusField(i int) tea.Cmd {
	m.blurAll()
	m.focus = i
	return m.inputs[i].Focus()
}

func (m *consoleModel) blurAll() {
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
}

func (m consoleModel) View() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	switch {
	case m.confirm != nil:
		b.WriteString(m.renderConfirm())
	case m.state.FormOpen:
		b.WriteString(m.renderForm())
	default:
		b.WriteString(m.renderList())
	}

	b.WriteString("\n\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m consoleModel) renderHeader() string {
	title := styleTitle.Render("Industrial Asset Registry")
	count := styleInfo.Render(console.CountLabel(len(m.state.Assets)))
	clock := styleMuted.Render(m.state.Clock)
	return lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", count, "  ", clock)
}

func (m consoleModel) renderList() string {
	if len(m.state.Assets) == 0 {
		return styleMuted.Render(console.MsgNoAssets)
	}
	return renderAssetTable(m.state.Assets, m.cursor)
}

func (m consoleModel) renderForm() string {
	var b strings.Builder
	b.WriteString(styleHeader.Render(m.state.FormTitle))
	b.WriteString("\n\n")
	for i := range m.inputs {
		label := fmt.Sprintf("%-22s", fieldLabels[i])
		if i == m.focus {
			label = styleHeader.Render(label)
		} else {
			label = styleMuted.Render(label)
		}
		b.WriteString(label + " " + m.inputs[i].View() + "\n")
	}
	return b.String()
}

func (m consoleModel) renderConfirm() string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorError).
		Padding(1, 2)
	return box.Render(formatWarning(m.confirm.prompt) + "\n\n" + styleMuted.Render("[y] delete  [n/esc] cancel"))
}

func (m consoleModel) renderFooter() string {
	var status string
	switch n := m.state.Notification; {
	case n == nil:
		status = styleMuted.Render("Ready")
	case n.Level == console.LevelError:
		status = formatError(n.Message)
	default:
		status = formatSuccess(n.Message)
	}

	var keys help.KeyMap = m.keys
	if m.state.FormOpen {
		keys = formHelp{k: m.keys}
	}

	footer := lipgloss.NewStyle().
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colorMuted).
		Padding(0, 1)
	return footer.Render(lipgloss.JoinVertical(lipgloss.Left, status, m.help.View(keys)))
}

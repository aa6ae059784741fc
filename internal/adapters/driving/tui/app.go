package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/notewise/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/notewise/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/notewise/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/notewise/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/notewise/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/notewise/internal/core/domain"
	"github.com/custodia-labs/notewise/internal/core/ports/driving"
)

// chromeHeight is the rows used by the title, input and status bar.
const chromeHeight = 6

// entry is one rendered line group of the transcript.
type entry struct {
	role     domain.Role
	text     string
	degraded bool
}

// App is the chat application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports   *Ports
	ctx     context.Context
	session domain.SessionKey

	styles *styles.Styles
	keymap *keymap.KeyMap
	input  *input.QuestionInput
	status *status.Bar

	// transcript scrolls the rendered entries.
	transcript viewport.Model
	entries    []entry

	// passages are the chunks retrieved for the last question.
	passages      []domain.QueryResult
	passagesQuery string

	currentView messages.ViewType
	pending     bool
	err         error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a chat app for one owner and document.
func NewApp(ports *Ports, session domain.SessionKey) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}
	if err := session.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	vp := viewport.New(80, 18)
	vp.KeyMap = viewport.KeyMap{PageUp: km.ScrollUp, PageDown: km.ScrollDown}

	bar := status.NewBar(s, km)
	bar.SetSession(session.String())

	return &App{
		ports:       ports,
		ctx:         context.Background(),
		session:     session,
		styles:      s,
		keymap:      km,
		input:       input.NewQuestionInput(s),
		status:      bar,
		transcript:  vp,
		currentView: messages.ViewChat,
	}, nil
}

// WithContext sets the context for service calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("notewise - "+a.session.DocumentID),
		a.input.Init(),
		a.loadHistory(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.HistoryLoaded:
		if msg.Err != nil {
			a.fail(msg.Err)
			return a, nil
		}
		a.entries = a.entries[:0]
		for _, t := range msg.Turns {
			a.entries = append(a.entries, entry{role: t.Role, text: t.Text})
		}
		a.status.SetTurnCount(len(a.entries))
		a.refresh()
		return a, nil

	case messages.ChatCompleted:
		a.pending = false
		if msg.Err != nil {
			a.fail(msg.Err)
			return a, nil
		}
		a.err = nil
		a.entries = append(a.entries, answerEntry(msg.Answer))
		a.status.SetTurnCount(len(a.entries))
		if msg.Answer != nil && msg.Answer.Degraded {
			a.status.SetState(status.StateDegraded)
		} else {
			a.status.SetState(status.StateReady)
		}
		a.refresh()
		return a, nil

	case messages.PassagesLoaded:
		// A failed lookup leaves the previous passages in place; the answer
		// itself reports retrieval problems.
		if msg.Err == nil {
			a.passages = msg.Results
			a.passagesQuery = msg.Query
		}
		return a, nil

	case messages.HistoryReset:
		if msg.Err != nil {
			a.fail(msg.Err)
			return a, nil
		}
		a.entries = nil
		a.passages = nil
		a.passagesQuery = ""
		a.err = nil
		a.status.Clear()
		a.refresh()
		return a, nil

	case messages.ViewChanged:
		a.currentView = msg.View
		return a, nil

	case messages.ErrorOccurred:
		a.fail(msg.Err)
		return a, nil

	case messages.Quit:
		return a, tea.Quit
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return a, tea.Quit
	}

	// Secondary views only know how to go back.
	if a.currentView != messages.ViewChat {
		if key.Matches(msg, a.keymap.Quit, a.keymap.Help, a.keymap.Passages) {
			a.currentView = messages.ViewChat
		}
		return a, nil
	}

	switch {
	case key.Matches(msg, a.keymap.Quit):
		return a, tea.Quit
	case key.Matches(msg, a.keymap.Help):
		a.currentView = messages.ViewHelp
		return a, nil
	case key.Matches(msg, a.keymap.Passages):
		a.currentView = messages.ViewPassages
		return a, nil
	case key.Matches(msg, a.keymap.Reset):
		if a.pending {
			return a, nil
		}
		return a, a.reset()
	case key.Matches(msg, a.keymap.ScrollUp, a.keymap.ScrollDown):
		var cmd tea.Cmd
		a.transcript, cmd = a.transcript.Update(msg)
		return a, cmd
	case key.Matches(msg, a.keymap.Send):
		return a, a.send()
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// send submits the typed question. Only one question is in flight at a time.
func (a *App) send() tea.Cmd {
	if a.pending {
		return nil
	}
	question := a.input.Take()
	if question == "" {
		return nil
	}

	a.pending = true
	a.entries = append(a.entries, entry{role: domain.RoleUser, text: question})
	a.status.SetTurnCount(len(a.entries))
	a.status.SetState(status.StateThinking)
	a.refresh()

	cmds := []tea.Cmd{a.ask(question)}
	if a.ports.Retrieval != nil {
		cmds = append(cmds, a.retrieve(question))
	}
	return tea.Batch(cmds...)
}

func (a *App) ask(question string) tea.Cmd {
	ctx, svc, session := a.ctx, a.ports.Notes, a.session
	return func() tea.Msg {
		answer, err := svc.Chat(ctx, driving.ChatRequest{
			DocumentID: session.DocumentID,
			OwnerID:    session.OwnerID,
			Question:   question,
		})
		return messages.ChatCompleted{Question: question, Answer: answer, Err: err}
	}
}

func (a *App) retrieve(question string) tea.Cmd {
	ctx, svc, session := a.ctx, a.ports.Retrieval, a.session
	return func() tea.Msg {
		results, err := svc.Retrieve(ctx, driving.RetrieveRequest{
			DocumentID: session.DocumentID,
			Query:      question,
			Collection: domain.CollectionNotes,
		})
		return messages.PassagesLoaded{Query: question, Results: results, Err: err}
	}
}

func (a *App) loadHistory() tea.Cmd {
	ctx, svc, session := a.ctx, a.ports.Conversation, a.session
	return func() tea.Msg {
		turns, err := svc.Turns(ctx, session)
		return messages.HistoryLoaded{Turns: turns, Err: err}
	}
}

func (a *App) reset() tea.Cmd {
	ctx, svc, session := a.ctx, a.ports.Conversation, a.session
	return func() tea.Msg {
		return messages.HistoryReset{Err: svc.Reset(ctx, session)}
	}
}

func (a *App) fail(err error) {
	a.err = err
	a.status.SetState(status.StateError)
	a.status.SetMessage(domain.PublicMessage(err))
}

// answerEntry renders a chat answer with its key points and reference.
func answerEntry(answer *domain.ChatAnswer) entry {
	if answer == nil {
		return entry{role: domain.RoleAssistant, degraded: true}
	}
	var b strings.Builder
	b.WriteString(answer.Answer)
	for _, p := range answer.KeyPoints {
		b.WriteString("\n  • ")
		b.WriteString(p)
	}
	if answer.Reference != "" {
		b.WriteString("\n  ref: ")
		b.WriteString(answer.Reference)
	}
	return entry{role: domain.RoleAssistant, text: strings.TrimSpace(b.String()), degraded: answer.Degraded}
}

// refresh re-renders the transcript and keeps it pinned to the latest turn.
func (a *App) refresh() {
	a.transcript.SetContent(a.renderEntries())
	a.transcript.GotoBottom()
}

func (a *App) renderEntries() string {
	if len(a.entries) == 0 {
		return a.styles.Muted.Render("No conversation yet. Ask a question about this note.")
	}

	wrap := lipgloss.NewStyle().Width(max(a.transcript.Width-2, 10))
	blocks := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		var label string
		if e.role == domain.RoleUser {
			label = a.styles.UserTurn.Render("you")
		} else {
			label = a.styles.AssistantTurn.Render("notewise")
		}
		text := e.text
		switch {
		case e.degraded && text == "":
			text = a.styles.Warning.Render("(the answer could not be parsed)")
		case e.degraded:
			text += "\n" + a.styles.Warning.Render("(partial answer)")
		}
		blocks = append(blocks, label+"\n"+wrap.Render(text))
	}
	return strings.Join(blocks, "\n\n")
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewPassages:
		return a.viewPassages()
	case messages.ViewHelp:
		return a.viewHelp()
	default:
		return a.viewChat()
	}
}

func (a *App) viewChat() string {
	title := a.styles.Title.Render("notewise") + a.styles.Muted.Render(" · "+a.session.DocumentID)
	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		a.styles.Border.Render(a.transcript.View()),
		a.input.View(),
		a.status.View(),
	)
}

func (a *App) viewPassages() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Passages"))
	b.WriteString("\n\n")
	if len(a.passages) == 0 {
		b.WriteString(a.styles.Muted.Render("Ask a question to see the passages behind the answer."))
	} else {
		b.WriteString(a.styles.Muted.Render(fmt.Sprintf("for %q", a.passagesQuery)))
		b.WriteString("\n\n")
		wrap := lipgloss.NewStyle().Width(max(a.width-4, 20))
		for i, p := range a.passages {
			fmt.Fprintf(&b, "%s %s\n", a.styles.Normal.Render(fmt.Sprintf("%d.", i+1)),
				a.styles.Muted.Render(fmt.Sprintf("score %.3f", p.Score)))
			b.WriteString(wrap.Render(p.Text))
			b.WriteString("\n\n")
		}
	}
	b.WriteString(a.styles.Muted.Render("[esc] back"))
	return b.String()
}

func (a *App) viewHelp() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n\n")
	for _, group := range a.keymap.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			fmt.Fprintf(&b, "  %-10s %s\n", h.Key, h.Desc)
		}
		b.WriteString("\n")
	}
	b.WriteString(a.styles.Muted.Render("[esc] back"))
	return b.String()
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// SetDimensions sets the terminal dimensions and resizes the panes.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true

	a.transcript.Width = max(width-2, 10)
	a.transcript.Height = max(height-chromeHeight, 3)
	a.input.SetWidth(width)
	a.status.SetWidth(width)
	a.refresh()
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been sized.
func (a *App) Ready() bool {
	return a.ready
}

// Pending reports whether a question is awaiting its answer.
func (a *App) Pending() bool {
	return a.pending
}

// Passages returns the passages retrieved for the last question.
func (a *App) Passages() []domain.QueryResult {
	return a.passages
}

// Transcript returns the rendered transcript text.
func (a *App) Transcript() string {
	return a.renderEntries()
}

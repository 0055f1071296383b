package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jwebster45206/timeline-engine/internal/config"
	"github.com/jwebster45206/timeline-engine/internal/services"
	"github.com/jwebster45206/timeline-engine/internal/storage"
	"github.com/jwebster45206/timeline-engine/pkg/chat"
	"github.com/jwebster45206/timeline-engine/pkg/engine"
	"github.com/jwebster45206/timeline-engine/pkg/timeline"
)

const (
	PlaceHolderText = "Type your message here..."
	NewGameLabel    = "New Game"
)

var titleCaser = cases.Title(language.English)

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	cfg     *config.Config
	llm     services.LLMService
	store   storage.Storage
	log     *slog.Logger
	session *engine.Session

	// currentConv is the conversation the player is typing into.
	currentConv uuid.UUID

	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error
	loading      bool

	// Game selection state
	showGameModal bool
	games         []storage.GameMeta
	selectedGame  int
	loadingGames  bool

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int
}

type turnResultMsg struct {
	result *engine.TurnResult
	err    error
}

type gamesLoadedMsg struct {
	games []storage.GameMeta
	err   error
}

type gameLoadedMsg struct {
	gs  *timeline.GameState
	err error
}

type progressTickMsg struct{}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	museStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	systemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")) // grey

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	frozenStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(cfg *config.Config, llm services.LLMService, store storage.Storage, log *slog.Logger) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 1000
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	ui := ConsoleUI{
		cfg:          cfg,
		llm:          llm,
		store:        store,
		log:          log,
		textarea:     ta,
		chatViewport: chatVp,
		metaViewport: metaVp,
	}

	if store != nil {
		ui.showGameModal = true
		ui.loadingGames = true
	} else {
		ui.startSession(nil)
	}
	return ui
}

// startSession builds the session around a loaded snapshot, or a fresh
// game when gs is nil, and lands the player in the table talk chat.
func (m *ConsoleUI) startSession(gs *timeline.GameState) {
	m.session = newSession(m.cfg, m.llm, m.store, m.log, gs)
	m.currentConv = m.session.Store().State().MetaConversationID
}

// setConversation moves the player to a conversation and tracks the
// owning entity as the current selection.
func (m *ConsoleUI) setConversation(convID uuid.UUID) {
	m.currentConv = convID
	st := m.session.Store()
	if ref, ok := st.OwnerOf(convID); ok {
		st.SetSelection(&ref)
	} else {
		st.SetSelection(nil)
	}
}

func (m *ConsoleUI) conversationTitle() string {
	gs := m.session.Store().State()
	if m.currentConv == gs.MetaConversationID {
		return "Table Talk"
	}
	ref, ok := m.session.Store().OwnerOf(m.currentConv)
	if !ok {
		return "Table Talk"
	}
	return fmt.Sprintf("%s: %s", titleCaser.String(string(ref.Kind)), m.entityTitle(ref))
}

func (m *ConsoleUI) entityTitle(ref timeline.EntityRef) string {
	st := m.session.Store()
	switch ref.Kind {
	case timeline.KindPeriod:
		if p, ok := st.Period(ref.ID); ok {
			return p.Title
		}
	case timeline.KindEvent:
		if e, ok := st.Event(ref.ID); ok {
			return e.Title
		}
	case timeline.KindScene:
		if sc, ok := st.Scene(ref.ID); ok {
			return sc.Question
		}
	}
	return "?"
}

// writeChatContent builds the chat content for the current
// conversation at the current viewport width.
func (m *ConsoleUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6

	var content strings.Builder
	content.WriteString(titleStyle.Render("TIMELINE ENGINE") + "\n")
	content.WriteString(speakerStyle.Render(m.conversationTitle()) + "\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", max(chatWidth-6, 1))) + "\n\n")

	conv, ok := m.session.Store().Conversation(m.currentConv)
	if ok {
		for _, msg := range conv.Messages {
			content.WriteString(formatMessage(msg, chatWidth) + "\n\n")
		}
	}

	if m.loading {
		content.WriteString(m.renderProgressBar())
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

func formatMessage(msg chat.Message, width int) string {
	speaker := msg.PlayerName
	if speaker == "" {
		speaker = titleCaser.String(msg.Role)
	}

	switch msg.Role {
	case chat.RoleUser:
		return userStyle.Render(speaker+": ") + wordwrap.String(msg.Content, max(width-6, 10))
	case chat.RoleAssistant:
		body := msg.Content
		if strings.TrimSpace(body) == "" {
			body = "(directives only)"
		}
		return museStyle.Render(speaker+": ") + wordwrap.String(body, max(width-6, 10))
	case chat.RoleError:
		return errorStyle.Render(wordwrap.String(msg.Content, max(width-2, 10)))
	default:
		return systemStyle.Render(wordwrap.String(msg.Content, max(width-2, 10)))
	}
}

// writeMetadata renders the side panel: phase, turn, and the timeline tree.
func (m *ConsoleUI) writeMetadata() {
	st := m.session.Store()
	gs := st.State()
	width := max(m.metaViewport.Width-2, 10)

	var content strings.Builder
	content.WriteString(titleStyle.Render("TIMELINE") + "\n\n")

	content.WriteString(fmt.Sprintf("Phase: %s\n", gs.Phase))
	if p := gs.CurrentPlayer(); p != nil {
		content.WriteString(fmt.Sprintf("Turn: %s\n", p.Name))
	}
	content.WriteString("\n")

	if gs.Setup.BigPicture != "" {
		content.WriteString(speakerStyle.Render("Big Picture") + "\n")
		content.WriteString(wordwrap.String(gs.Setup.BigPicture, width) + "\n\n")
	}

	for _, p := range st.PeriodsInOrder() {
		marker := ""
		if p.IsBookend {
			marker = " ◆"
		}
		line := fmt.Sprintf("%s (%s)%s", p.Title, p.Tone, marker)
		if p.Frozen {
			content.WriteString(frozenStyle.Render(line) + "\n")
		} else {
			content.WriteString(line + "\n")
		}
		for _, e := range st.EventsForPeriod(p.ID) {
			content.WriteString(fmt.Sprintf("  • %s (%s)\n", e.Title, e.Tone))
			for _, sc := range st.ScenesForEvent(e.ID) {
				content.WriteString(fmt.Sprintf("    ? %s\n", sc.Question))
			}
		}
	}

	content.WriteString("\n")
	content.WriteString("Commands:\n")
	content.WriteString("• /help: Help\n")
	content.WriteString("• /meta: Table talk\n")
	content.WriteString("• /go <title>: Switch chat\n")
	content.WriteString("• /end: End turn\n")
	content.WriteString("• /games: Switch game\n")
	content.WriteString("• Ctrl+C: Quit\n")

	m.metaViewport.SetContent(content.String())
}

func (m ConsoleUI) Init() tea.Cmd {
	if m.showGameModal {
		return m.loadGames()
	}
	return textarea.Blink
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showGameModal {
		return m.updateGameModal(msg)
	}

	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.textarea, tiCmd = m.textarea.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.ready = true
		m.writeChatContent()
		m.writeMetadata()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}

			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}

			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}

			m.textarea.Reset()
			m.loading = true
			m.progressTick = 0

			return m, tea.Batch(m.sendMessage(input), progressTick())
		}

	case turnResultMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
		}
		if msg.result != nil {
			// Narrative after a creation lands in the new entity's
			// chat; follow it there.
			if msg.result.NarrativeConversation != uuid.Nil {
				m.setConversation(msg.result.NarrativeConversation)
			}
			if msg.result.RestoreInput != "" {
				m.textarea.SetValue(msg.result.RestoreInput)
			}
		}
		m.writeChatContent()
		m.writeMetadata()
		m.chatViewport.GotoBottom()
		return m, nil

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeChatContent()
			return m, progressTick()
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

func (m *ConsoleUI) resize() {
	chatWidth := int(float64(m.width)*0.70) - 4
	metaWidth := m.width - chatWidth - 6

	m.chatViewport.Width = chatWidth - 2
	m.chatViewport.Height = m.height - 7
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
	m.textarea.SetWidth(chatWidth - 4)
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	m.textarea.Reset()

	cmd, arg, _ := strings.Cut(strings.TrimSpace(input), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "/help":
		m.appendNotice(`Commands:
• /help - Show this help
• /meta - Switch to the table talk chat
• /go <title> - Switch to an entity's chat
• /big <text> - Set the big picture
• /start - Start play (requires big picture and both bookends)
• /end - End your turn (freezes the open item)
• /games - Save this game and switch to another
• /reparse - Re-run directives from the last AI message here
• /rerun - Discard the last AI message here and ask again
• Ctrl+C - Quit

Talk to your co-player to build the timeline. Directives in its
replies (lines starting with #) create and edit periods, events,
and scenes.`)
		return m, nil

	case "/meta":
		m.setConversation(m.session.Store().State().MetaConversationID)
		m.writeChatContent()
		return m, nil

	case "/go":
		if arg == "" {
			m.appendNotice("Usage: /go <title>")
			return m, nil
		}
		if convID, ok := m.findConversationByTitle(arg); ok {
			m.setConversation(convID)
			m.writeChatContent()
		} else {
			m.appendNotice(fmt.Sprintf("No period, event, or scene titled %q.", arg))
		}
		return m, nil

	case "/big":
		if arg == "" {
			m.appendNotice("Usage: /big <text>")
			return m, nil
		}
		m.session.Store().UpdateBigPicture(arg)
		m.writeMetadata()
		m.appendNotice("Big picture updated.")
		return m, nil

	case "/start":
		if err := m.session.Store().StartGame(); err != nil {
			m.appendNotice(fmt.Sprintf("Cannot start: %v", err))
		} else {
			m.writeMetadata()
			m.appendNotice("The game begins.")
		}
		return m, nil

	case "/end":
		m.session.EndTurn(context.Background())
		m.writeMetadata()
		m.appendNotice("Turn ended.")
		return m, nil

	case "/games":
		if m.store == nil {
			m.appendNotice("No storage configured; game switching is unavailable.")
			return m, nil
		}
		// Save the current game before leaving it.
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := m.store.SaveGame(ctx, m.session.Store().State())
		cancel()
		if err != nil {
			m.appendNotice(fmt.Sprintf("Could not save current game: %v", err))
			return m, nil
		}
		m.showGameModal = true
		m.loadingGames = true
		m.selectedGame = 0
		return m, m.loadGames()

	case "/reparse":
		return m, m.reparseLast()

	case "/rerun":
		if m.loading {
			return m, nil
		}
		m.loading = true
		m.progressTick = 0
		return m, tea.Batch(m.rerunLast(), progressTick())

	default:
		m.appendNotice(fmt.Sprintf("Unknown command %s. Try /help.", cmd))
		return m, nil
	}
}

func (m *ConsoleUI) appendNotice(text string) {
	current := m.chatViewport.View()
	m.chatViewport.SetContent(current + "\n" + systemStyle.Render(text) + "\n")
	m.chatViewport.GotoBottom()
}

func (m *ConsoleUI) findConversationByTitle(title string) (uuid.UUID, bool) {
	st := m.session.Store()
	for _, p := range st.PeriodsInOrder() {
		if strings.EqualFold(p.Title, title) {
			return p.ConversationID, true
		}
		for _, e := range st.EventsForPeriod(p.ID) {
			if strings.EqualFold(e.Title, title) {
				return e.ConversationID, true
			}
			for _, sc := range st.ScenesForEvent(e.ID) {
				if strings.EqualFold(sc.Question, title) {
					return sc.ConversationID, true
				}
			}
		}
	}
	return uuid.Nil, false
}

func (m ConsoleUI) lastAssistantMessage() (chat.Message, bool) {
	conv, ok := m.session.Store().Conversation(m.currentConv)
	if !ok {
		return chat.Message{}, false
	}
	for i := len(conv.Messages) - 1; i >= 0; i-- {
		if conv.Messages[i].Role == chat.RoleAssistant {
			return conv.Messages[i], true
		}
	}
	return chat.Message{}, false
}

func (m ConsoleUI) sendMessage(message string) tea.Cmd {
	session := m.session
	convID := m.currentConv
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		result, err := session.HandleUserMessage(ctx, convID, message)
		return turnResultMsg{result, err}
	}
}

func (m ConsoleUI) reparseLast() tea.Cmd {
	session := m.session
	msg, ok := m.lastAssistantMessage()
	return func() tea.Msg {
		if !ok {
			return turnResultMsg{nil, fmt.Errorf("no AI message to reparse here")}
		}
		err := session.Reparse(context.Background(), msg.ID)
		return turnResultMsg{nil, err}
	}
}

func (m ConsoleUI) rerunLast() tea.Cmd {
	session := m.session
	msg, ok := m.lastAssistantMessage()
	return func() tea.Msg {
		if !ok {
			return turnResultMsg{nil, fmt.Errorf("no AI message to rerun here")}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		result, err := session.RerunFromMessage(ctx, msg.ID)
		return turnResultMsg{result, err}
	}
}

func (m ConsoleUI) loadGames() tea.Cmd {
	store := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		games, err := store.ListGames(ctx)
		return gamesLoadedMsg{games, err}
	}
}

func (m ConsoleUI) loadGame(id uuid.UUID) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		gs, err := store.LoadGame(ctx, id)
		return gameLoadedMsg{gs, err}
	}
}

func (m ConsoleUI) updateGameModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case gamesLoadedMsg:
		m.loadingGames = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.games = msg.games
		}

	case gameLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		// A nil snapshot means missing or unreadable; start fresh.
		m.startSession(msg.gs)
		m.showGameModal = false
		if m.width > 0 && m.height > 0 {
			m.resize()
			m.ready = true
		}
		m.writeChatContent()
		m.writeMetadata()
		m.textarea.Focus()
		return m, textarea.Blink

	case tea.KeyMsg:
		if m.loadingGames {
			if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
				return m, tea.Quit
			}
			return m, nil
		}

		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyUp:
			if m.selectedGame > 0 {
				m.selectedGame--
			}
		case tea.KeyDown:
			if m.selectedGame < len(m.games) {
				m.selectedGame++
			}
		case tea.KeyEnter:
			// Index 0 is always New Game; saved games follow.
			if m.selectedGame == 0 {
				m.startSession(nil)
				m.showGameModal = false
				if m.width > 0 && m.height > 0 {
					m.resize()
					m.ready = true
				}
				m.writeChatContent()
				m.writeMetadata()
				m.textarea.Focus()
				return m, textarea.Blink
			}
			m.loading = true
			return m, m.loadGame(m.games[m.selectedGame-1].ID)
		}
	}

	return m, nil
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				if !m.showGameModal {
					m.textarea.Focus()
					return m, textarea.Blink
				}
				return m, nil
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit Game?"))
	content.WriteString("\n\n")
	content.WriteString("Are you sure you want to leave the table?")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderGameModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder

	if m.loadingGames {
		content.WriteString(modalTitleStyle.Render("Loading Games..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Fetching saved games..."))
	} else if m.err != nil {
		content.WriteString(modalTitleStyle.Render("Error"))
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(fmt.Sprintf("Failed to load games: %v", m.err)))
		content.WriteString("\n\n")
		content.WriteString("Press Ctrl+C to exit")
	} else if m.loading {
		content.WriteString(modalTitleStyle.Render("Loading Game..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Picking up where you left off..."))
	} else {
		content.WriteString(modalTitleStyle.Render("Select a Game"))
		content.WriteString("\n\n")

		labels := make([]string, 0, len(m.games)+1)
		labels = append(labels, NewGameLabel)
		for _, g := range m.games {
			name := g.Name
			if name == "" {
				name = g.ID.String()[:8]
			}
			labels = append(labels, fmt.Sprintf("%s (%s)", name, g.LastPlayed.Format("Jan 2 15:04")))
		}

		for i, label := range labels {
			if i == m.selectedGame {
				content.WriteString(modalSelectedItemStyle.Render(fmt.Sprintf("▶ %s", label)))
			} else {
				content.WriteString(modalItemStyle.Render(fmt.Sprintf("  %s", label)))
			}
			content.WriteString("\n")
		}

		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Use ↑/↓ to navigate, Enter to select, Ctrl+C to exit"))
	}

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showGameModal {
		return m.renderGameModal()
	}

	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.70) - 4
	metaWidth := m.width - chatWidth - 6

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", max(chatWidth-4, 1))),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.chatViewport.Width - 6
	if usable <= 0 {
		usable = 30
	}
	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓")
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}

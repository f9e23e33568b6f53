package ui

import (
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"hookchat/config"
	"hookchat/model"
	"hookchat/storage"
)

type focusArea int

const (
	focusComposer focusArea = iota
	focusSidebar
)

const composerHeight = 3

type AppView struct {
	cfg    *config.Config
	chat   *model.Controller
	dialog *model.AudioDialog

	// UI Components
	viewport    viewport.Model
	textarea    textarea.Model
	spinner     spinner.Model
	filterInput textinput.Model
	renameInput textinput.Model

	// Window state
	width  int
	height int
	ready  bool

	focus    focusArea
	selected int

	filtering  bool
	renamingID string
	confirm    ConfirmationState

	status   string
	showHelp bool

	// Blocking notice (device errors, missing webhook)
	showNotice  bool
	noticeTitle string
	noticeMsg   string
	noticeType  ModalType

	// Rendered assistant markdown keyed by message and width
	rendered  map[renderKey]string
	rendering map[renderKey]bool

	reply       *replyView
	wasPlaying  bool
	ticking     bool
	copyToClip  func(string) error
	now         func() time.Time
	lastSession string
}

func NewAppView(cfg *config.Config, chat *model.Controller, dialog *model.AudioDialog) AppView {
	ta := textarea.New()
	ta.Placeholder = "Type a message..."
	ta.Prompt = "┃ "
	ta.CharLimit = 0
	ta.ShowLineNumbers = false
	ta.SetHeight(composerHeight)
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(accentColor)

	filter := textinput.New()
	filter.Placeholder = "filter"
	filter.Prompt = "/ "

	rename := textinput.New()
	rename.Prompt = "title: "
	rename.CharLimit = 120

	return AppView{
		cfg:         cfg,
		chat:        chat,
		dialog:      dialog,
		viewport:    viewport.New(0, 0),
		textarea:    ta,
		spinner:     sp,
		filterInput: filter,
		renameInput: rename,
		rendered:    make(map[renderKey]string),
		rendering:   make(map[renderKey]bool),
		copyToClip:  clipboard.WriteAll,
		now:         time.Now,
	}
}

func (a AppView) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, a.spinner.Tick)
}

func (a *AppView) layout() {
	side := sidebarWidth(a.width)
	main := a.width - side
	a.textarea.SetWidth(main - 2)
	a.viewport.Width = main
	// header, status and footer lines plus the composer
	h := a.height - composerHeight - 3
	if h < 1 {
		h = 1
	}
	a.viewport.Height = h
}

func (a AppView) mainWidth() int {
	return a.width - sidebarWidth(a.width)
}

// visibleSessions applies the sidebar filter.
func (a AppView) visibleSessions() []storage.Session {
	return storage.FilterSessions(a.chat.Sessions(), a.filterInput.Value())
}

func (a AppView) View() string {
	if !a.ready {
		return "Loading..."
	}
	if a.width < 40 || a.height < 12 {
		return "Terminal too small"
	}

	if a.showNotice {
		return RenderAcknowledgeModal(a.noticeTitle, a.noticeMsg, a.noticeType, a.width, a.height)
	}
	if a.showHelp {
		return renderHelpModal(a.width, a.height)
	}
	if a.confirm.Active {
		return RenderConfirmationModal(a.confirm, a.width, a.height)
	}

	if a.dialog != nil && a.dialog.IsOpen() {
		box := renderAudioDialog(snapshotDialog(a.dialog), a.reply, a.spinner.View(), a.width, a.now())
		return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, box)
	}

	side := renderSidebar(a.sidebarRows(), a.sidebarHeader(), sidebarWidth(a.width), a.height, a.focus == focusSidebar, a.spinner.View(), a.now())

	main := strings.Join([]string{
		a.renderHeader(),
		a.viewport.View(),
		a.textarea.View(),
		a.renderStatus(),
		a.renderFooter(),
	}, "\n")

	return lipgloss.JoinHorizontal(lipgloss.Top, side, main)
}

func (a AppView) sidebarRows() []sidebarRow {
	sessions := a.visibleSessions()
	current := a.chat.CurrentID()
	rows := make([]sidebarRow, len(sessions))
	for i, s := range sessions {
		rows[i] = sidebarRow{
			session:  s,
			current:  s.ID == current,
			selected: i == a.selected,
			pending:  a.chat.Pending(s.ID),
		}
	}
	return rows
}

func (a AppView) sidebarHeader() string {
	switch {
	case a.renamingID != "":
		return a.renameInput.View()
	case a.filtering || a.filterInput.Value() != "":
		return a.filterInput.View()
	}
	return ""
}

func (a AppView) renderHeader() string {
	title := storage.DefaultSessionTitle
	if s, ok := a.chat.Current(); ok {
		title = s.Title
	}
	line := TitleStyle.Render(truncate(title, a.mainWidth()-24))
	if !a.cfg.HasWebhook() {
		line += "  " + ErrorStyle.Render("webhook not configured")
	}
	return line
}

func (a AppView) renderStatus() string {
	if a.status == "" {
		return ""
	}
	return StatusStyle.Render(truncate(a.status, a.mainWidth()-1))
}

func (a AppView) renderFooter() string {
	if a.focus == focusSidebar {
		return HelpStyle.Render(FormatFooter("j/k", "Move", "Enter", "Open", "n", "New", "r", "Rename", "d", "Delete", "e", "Export", "/", "Filter", "Tab", "Chat"))
	}
	return HelpStyle.Render(FormatFooter("Enter", "Send", "Alt+Enter", "Newline", "Ctrl+R", "Voice", "Ctrl+N", "New", "Ctrl+Y", "Copy", "Tab", "Chats", "F1", "Help"))
}

// Package tui is an interactive terminal client for the todos API.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Tomlord1122/todos-api/internal/api"
)

// TodoAPI is the subset of the HTTP client the terminal UI needs.
type TodoAPI interface {
	GetTodos(ctx context.Context) ([]api.Todo, error)
	CreateTodo(ctx context.Context, title string) (*api.Todo, error)
	PatchTodo(ctx context.Context, id string, req api.UpdateTodoRequest) (*api.Todo, error)
	DeleteTodo(ctx context.Context, id string) error
}

const requestTimeout = 10 * time.Second

type (
	todosLoadedMsg struct{ todos []api.Todo }
	todoCreatedMsg struct{ todo api.Todo }
	todoUpdatedMsg struct{ todo api.Todo }
	todoDeletedMsg struct{ id string }
	errMsg         struct{ err error }
)

type inputMode int

const (
	modeBrowse inputMode = iota
	modeAdd
	modeEdit
)

// Model is the bubbletea model for the todo list.
type Model struct {
	api    TodoAPI
	list   list.Model
	input  textinput.Model
	mode   inputMode
	editID string

	loading bool
	status  string
	err     error
}

// New builds a Model backed by client.
func New(client TodoAPI) Model {
	l := list.New(nil, itemDelegate{}, 80, 20)
	l.Title = "Todos"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(false)
	l.SetStatusBarItemName("todo", "todos")
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle
	l.DisableQuitKeybindings()

	bindings := []key.Binding{
		key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
		key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
	}
	l.AdditionalShortHelpKeys = func() []key.Binding { return bindings }
	l.AdditionalFullHelpKeys = func() []key.Binding { return bindings }

	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 200

	return Model{api: client, list: l, input: ti, loading: true}
}

// Run starts the program in the alternate screen and blocks until quit.
func Run(client TodoAPI) error {
	_, err := tea.NewProgram(New(client), tea.WithAltScreen()).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return m.loadTodos()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case todosLoadedMsg:
		m.loading = false
		m.err = nil
		items := make([]list.Item, 0, len(msg.todos))
		for _, t := range msg.todos {
			items = append(items, todoItem{todo: t})
		}
		m.status = fmt.Sprintf("loaded %d todos", len(items))
		return m, m.list.SetItems(items)

	case todoCreatedMsg:
		m.err = nil
		m.status = "added " + msg.todo.Title
		cmd := m.list.InsertItem(0, todoItem{todo: msg.todo})
		m.list.Select(0)
		return m, cmd

	case todoUpdatedMsg:
		m.err = nil
		m.status = "updated " + msg.todo.Title
		if i := m.indexOf(msg.todo.ID); i >= 0 {
			return m, m.list.SetItem(i, todoItem{todo: msg.todo})
		}
		return m, nil

	case todoDeletedMsg:
		m.err = nil
		if i := m.indexOf(msg.id); i >= 0 {
			m.status = "deleted " + m.list.Items()[i].(todoItem).todo.Title
			m.list.RemoveItem(i)
		}
		return m, nil

	case errMsg:
		m.loading = false
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		if m.mode != modeBrowse {
			return m.updateInput(msg)
		}
		if model, cmd, handled := m.handleKey(msg); handled {
			return model, cmd
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit, true
	case "r":
		m.loading = true
		return m, m.loadTodos(), true
	case " ":
		if it, ok := m.selected(); ok {
			return m, m.patchTodo(it.todo.ID, api.UpdateTodoRequest{IsCompleted: api.Bool(!it.todo.IsCompleted)}), true
		}
		return m, nil, true
	case "d":
		if it, ok := m.selected(); ok {
			return m, m.deleteTodo(it.todo.ID), true
		}
		return m, nil, true
	case "a":
		m.mode = modeAdd
		m.err = nil
		m.input.SetValue("")
		m.input.Placeholder = "New todo title..."
		return m, m.input.Focus(), true
	case "e":
		it, ok := m.selected()
		if !ok {
			return m, nil, true
		}
		m.mode = modeEdit
		m.editID = it.todo.ID
		m.err = nil
		m.input.SetValue(it.todo.Title)
		m.input.CursorEnd()
		m.input.Placeholder = "Edit todo title..."
		return m, m.input.Focus(), true
	}
	return m, nil, false
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeInput()
		return m, nil
	case "enter":
		title := strings.TrimSpace(m.input.Value())
		if title == "" {
			m.err = fmt.Errorf("title cannot be empty")
			return m, nil
		}
		var cmd tea.Cmd
		if m.mode == modeAdd {
			cmd = m.createTodo(title)
		} else {
			cmd = m.patchTodo(m.editID, api.UpdateTodoRequest{Title: api.String(title)})
		}
		m.closeInput()
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) closeInput() {
	m.mode = modeBrowse
	m.editID = ""
	m.input.SetValue("")
	m.input.Blur()
}

func (m Model) View() string {
	m.list.Title = m.header()
	content := m.list.View()

	if m.mode != modeBrowse {
		label := "Add todo"
		if m.mode == modeEdit {
			label = "Edit todo"
		}
		content += "\n" + panelStyle.Render(label+"\n"+m.input.View())
	}

	switch {
	case m.err != nil:
		content += "\n" + errorStyle.Render("✖ "+m.err.Error())
	case m.loading:
		content += "\n" + mutedStyle.Render("loading...")
	case m.status != "":
		content += "\n" + successStyle.Render("✔ "+m.status)
	}
	return panelStyle.Render(content)
}

// header renders the title with live done/pending counts.
func (m Model) header() string {
	var done, pending int
	for _, it := range m.list.Items() {
		if ti, ok := it.(todoItem); ok && ti.todo.IsCompleted {
			done++
		} else {
			pending++
		}
	}
	return fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		"Todos",
		successStyle.Render("✔"), done,
		pendingStyle.Render("•"), pending,
		accentStyle.Render("Total"), done+pending,
	)
}

func (m Model) selected() (todoItem, bool) {
	it, ok := m.list.SelectedItem().(todoItem)
	return it, ok
}

func (m Model) indexOf(id string) int {
	for i, it := range m.list.Items() {
		if ti, ok := it.(todoItem); ok && ti.todo.ID == id {
			return i
		}
	}
	return -1
}

func (m Model) loadTodos() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		todos, err := m.api.GetTodos(ctx)
		if err != nil {
			return errMsg{err}
		}
		return todosLoadedMsg{todos}
	}
}

func (m Model) createTodo(title string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		todo, err := m.api.CreateTodo(ctx, title)
		if err != nil {
			return errMsg{err}
		}
		return todoCreatedMsg{*todo}
	}
}

func (m Model) patchTodo(id string, req api.UpdateTodoRequest) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		todo, err := m.api.PatchTodo(ctx, id, req)
		if err != nil {
			return errMsg{err}
		}
		return todoUpdatedMsg{*todo}
	}
}

func (m Model) deleteTodo(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := m.api.DeleteTodo(ctx, id); err != nil {
			return errMsg{err}
		}
		return todoDeletedMsg{id}
	}
}

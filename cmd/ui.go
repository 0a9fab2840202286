package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/amaliebjorgen/fabricops/pkg/fabric"
)

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Interactive workspace browser",
	Run: func(cmd *cobra.Command, args []string) {
		StartUI()
	},
}

func init() {
	rootCmd.AddCommand(uiCmd)
}

// StartUI launches the interactive workspace browser.
func StartUI() {
	m := initialModel()
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error starting UI: %v\n", err)
		os.Exit(1)
	}
}

// ----- Styles -----
var (
	quitStyle  = lipgloss.NewStyle().Margin(1, 0, 0, 2).Foreground(lipgloss.Color("241"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Padding(1, 2)
)

// ----- Model States -----
type sessionState int

const (
	stateInit sessionState = iota
	stateLoadingWorkspaces
	stateSelectWorkspace
	stateLoadingItems
	stateViewItems
	stateError
)

type model struct {
	state sessionState
	err   error

	fabricClient *fabric.Client

	spinner      spinner.Model
	workspaceLst list.Model
	itemLst      list.Model

	selectedWorkspace *fabric.Workspace
}

func initialModel() model {
	s := spinner.New()
	s.Spinner = spinner.Dot

	wsLst := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	wsLst.Title = "Select Workspace"
	wsLst.SetShowStatusBar(false)

	itemLst := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	itemLst.SetShowStatusBar(false)

	return model{
		state:        stateInit,
		spinner:      s,
		workspaceLst: wsLst,
		itemLst:      itemLst,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, initClientCmd)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.state != stateSelectWorkspace || msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
		case "esc":
			if m.state == stateViewItems {
				m.state = stateSelectWorkspace
				return m, nil
			}
		}
	case tea.WindowSizeMsg:
		h, v := lipgloss.NewStyle().Margin(1, 2).GetFrameSize()
		m.workspaceLst.SetSize(msg.Width-h, msg.Height-v)
		m.itemLst.SetSize(msg.Width-h, msg.Height-v)
	case errMsg:
		m.err = msg.err
		m.state = stateError
		return m, nil
	case clientReadyMsg:
		m.fabricClient = msg.client
		m.state = stateLoadingWorkspaces
		return m, m.fetchWorkspacesCmd
	case workspacesMsg:
		items := make([]list.Item, len(msg.workspaces))
		for i, w := range msg.workspaces {
			items[i] = workspaceItem{w}
		}
		m.workspaceLst.SetItems(items)
		m.state = stateSelectWorkspace
		return m, nil
	case itemsMsg:
		items := make([]list.Item, len(msg.items))
		for i, it := range msg.items {
			items[i] = fabricItem{it}
		}
		m.itemLst.SetItems(items)
		m.itemLst.Title = "Items in " + m.selectedWorkspace.DisplayName
		m.state = stateViewItems
		return m, nil
	}

	switch m.state {
	case stateInit, stateLoadingWorkspaces, stateLoadingItems:
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case stateSelectWorkspace:
		if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
			if i, ok := m.workspaceLst.SelectedItem().(workspaceItem); ok {
				m.selectedWorkspace = &i.workspace
				m.state = stateLoadingItems
				return m, m.fetchItemsCmd(i.workspace.Id)
			}
		}
		m.workspaceLst, cmd = m.workspaceLst.Update(msg)
		cmds = append(cmds, cmd)

	case stateViewItems:
		m.itemLst, cmd = m.itemLst.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m model) View() string {
	switch m.state {
	case stateError:
		return errorStyle.Render(fmt.Sprintf("\nError: %v\n\nPress ctrl+c to exit.", m.err))
	case stateInit:
		return fmt.Sprintf("\n %s Initializing client...\n", m.spinner.View())
	case stateLoadingWorkspaces:
		return fmt.Sprintf("\n %s Loading workspaces from Fabric...\n", m.spinner.View())
	case stateLoadingItems:
		return fmt.Sprintf("\n %s Loading items...\n", m.spinner.View())
	case stateSelectWorkspace:
		return "\n" + m.workspaceLst.View()
	case stateViewItems:
		return "\n" + m.itemLst.View() + "\n" + quitStyle.Render("esc: back  ctrl+c: quit")
	}
	return ""
}

// ----- Commands (Side Effects) -----

type errMsg struct{ err error }
type clientReadyMsg struct{ client *fabric.Client }
type workspacesMsg struct{ workspaces []fabric.Workspace }
type itemsMsg struct{ items []fabric.Item }

func initClientCmd() tea.Msg {
	client, err := newFabricClient()
	if err != nil {
		return errMsg{err}
	}
	return clientReadyMsg{client: client}
}

func (m model) fetchWorkspacesCmd() tea.Msg {
	ws, err := m.fabricClient.ListWorkspaces(context.Background())
	if err != nil {
		return errMsg{err}
	}
	return workspacesMsg{workspaces: ws}
}

func (m model) fetchItemsCmd(id string) tea.Cmd {
	return func() tea.Msg {
		items, err := m.fabricClient.ListItems(context.Background(), id, "")
		if err != nil {
			return errMsg{fmt.Errorf("failed to list items: %w", err)}
		}
		return itemsMsg{items: items}
	}
}

// ----- List items -----

type workspaceItem struct {
	workspace fabric.Workspace
}

func (i workspaceItem) Title() string       { return i.workspace.DisplayName }
func (i workspaceItem) Description() string { return i.workspace.Id }
func (i workspaceItem) FilterValue() string { return i.workspace.DisplayName }

type fabricItem struct {
	item fabric.Item
}

func (i fabricItem) Title() string       { return i.item.DisplayName }
func (i fabricItem) Description() string { return i.item.Type + "  " + i.item.Id }
func (i fabricItem) FilterValue() string { return i.item.DisplayName }

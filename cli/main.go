package main

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Styling
var (
	docStyle = lipgloss.NewStyle().Margin(1, 2)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#0a84ff")).
			Padding(0, 1)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#30d158")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#ff453a")).
			Padding(0, 1)
)

// Model defines the application state
type Model struct {
	mainMenu     list.Model
	runList      list.Model
	scenarioList list.Model
	logView      table.Model
	orderInput   textinput.Model
	spinner      spinner.Model
	client       *ApiClient
	currentView  string
	loading      bool
	lastSummary  *RunSummary
	lastEval     *EvaluationResult
	status       map[string]interface{}
	error        string
}

// item represents a list item
type item struct {
	title, desc string
	id          string
}

func (i item) FilterValue() string { return i.title }
func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }

// Initialize the model
func initialModel() Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	items := []list.Item{
		item{title: "Place Order", desc: "Run a free-text order through the kitchen"},
		item{title: "Run History", desc: "Browse finished runs and their action logs"},
		item{title: "Kitchen Status", desc: "View the live kitchen counters"},
		item{title: "Benchmarks", desc: "Run the built-in evaluation scenarios"},
		item{title: "Exit", desc: "Exit the application"},
	}

	mainMenu := list.New(items, list.NewDefaultDelegate(), 0, 0)
	mainMenu.Title = "Brigade CLI"

	runList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	runList.Title = "Recent Runs"

	scenarioList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	scenarioList.Title = "Benchmark Scenarios"

	ti := textinput.New()
	ti.Placeholder = "tomato and egg stir fry"
	ti.CharLimit = 156
	ti.Width = 40

	return Model{
		mainMenu:     mainMenu,
		runList:      runList,
		scenarioList: scenarioList,
		orderInput:   ti,
		spinner:      s,
		client:       NewApiClient(),
		currentView:  "main",
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tea.EnterAltScreen)
}

// Update handles UI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			if m.currentView == "main" {
				return m, tea.Quit
			}
		case "enter":
			switch m.currentView {
			case "main":
				if selected, ok := m.mainMenu.SelectedItem().(item); ok {
					switch selected.title {
					case "Exit":
						return m, tea.Quit
					case "Place Order":
						m.currentView = "order"
						m.error = ""
						m.lastSummary = nil
						m.orderInput.SetValue("")
						m.orderInput.Focus()
					case "Run History":
						m.currentView = "runs"
						return m, fetchRuns(m.client)
					case "Kitchen Status":
						m.currentView = "status"
						return m, fetchStatus(m.client)
					case "Benchmarks":
						m.currentView = "scenarios"
						m.lastEval = nil
						return m, fetchScenarios(m.client)
					}
				}
			case "order":
				order := m.orderInput.Value()
				if order == "" {
					m.error = "Please enter an order"
					return m, nil
				}
				m.loading = true
				m.error = ""
				return m, placeOrder(m.client, order)
			case "runs":
				if selected, ok := m.runList.SelectedItem().(item); ok {
					m.currentView = "run_log"
					return m, fetchActionLog(m.client, selected.id)
				}
			case "run_log":
				m.currentView = "runs"
				return m, fetchRuns(m.client)
			case "scenarios":
				if selected, ok := m.scenarioList.SelectedItem().(item); ok {
					m.loading = true
					return m, runEvaluation(m.client, selected.id)
				}
			}
		case "esc":
			switch m.currentView {
			case "run_log":
				m.currentView = "runs"
				return m, fetchRuns(m.client)
			case "main":
			default:
				m.currentView = "main"
				m.error = ""
			}
		}
	case summaryMsg:
		m.loading = false
		m.lastSummary = msg.summary
		return m, nil
	case runsMsg:
		m.runList.SetItems(convertRunsToItems(msg.runs))
		return m, nil
	case logMsg:
		m.logView = buildLogTable(msg.log)
		return m, nil
	case statusMsg:
		m.status = msg.status
		return m, nil
	case scenariosMsg:
		m.scenarioList.SetItems(convertScenariosToItems(msg.scenarios))
		return m, nil
	case evalMsg:
		m.loading = false
		m.lastEval = msg.result
		return m, nil
	case errorMsg:
		m.loading = false
		m.error = msg.err
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	switch m.currentView {
	case "main":
		m.mainMenu, cmd = m.mainMenu.Update(msg)
	case "order":
		m.orderInput, cmd = m.orderInput.Update(msg)
	case "runs":
		m.runList, cmd = m.runList.Update(msg)
	case "run_log":
		m.logView, cmd = m.logView.Update(msg)
	case "scenarios":
		m.scenarioList, cmd = m.scenarioList.Update(msg)
	}

	return m, cmd
}

// View renders the UI
func (m Model) View() string {
	switch m.currentView {
	case "main":
		return docStyle.Render(m.mainMenu.View())
	case "order":
		return docStyle.Render(orderView(m))
	case "runs":
		help := "\nPress 'enter' to view a run's action log, 'esc' to go back\n"
		if m.error != "" {
			help += errorStyle.Render(m.error) + "\n"
		}
		return docStyle.Render(titleStyle.Render("Run History") + "\n\n" + m.runList.View() + help)
	case "run_log":
		help := "\nPress 'enter' or 'esc' to go back\n"
		return docStyle.Render(titleStyle.Render("Action Log") + "\n\n" + m.logView.View() + help)
	case "status":
		return docStyle.Render(statusView(m))
	case "scenarios":
		return docStyle.Render(scenarioView(m))
	default:
		return "Loading..."
	}
}

func orderView(m Model) string {
	view := titleStyle.Render("Place Order") + "\n\n"
	view += "Describe the dish and the brigade cooks it step by step.\n\n"
	view += m.orderInput.View() + "\n"

	if m.loading {
		view += "\n" + m.spinner.View() + " Cooking...\n"
	}
	if m.lastSummary != nil {
		result := m.lastSummary.Result
		line := fmt.Sprintf("Run %s: %s in %d steps (%d/%d tasks)",
			m.lastSummary.RunID, result.Status, result.Steps, result.Completed, result.TotalTasks)
		if result.Status == "completed" {
			view += "\n" + successStyle.Render(line) + "\n"
		} else {
			view += "\n" + infoStyle.Render(line) + "\n"
		}
	}
	if m.error != "" {
		view += "\n" + errorStyle.Render(m.error) + "\n"
	}
	view += "\nPress 'enter' to cook, 'esc' to go back"
	return view
}

func statusView(m Model) string {
	view := titleStyle.Render("Kitchen Status") + "\n\n"
	if m.status == nil {
		view += m.spinner.View() + " Loading...\n"
	} else {
		keys := make([]string, 0, len(m.status))
		for k := range m.status {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			view += fmt.Sprintf("%-26s %v\n", k, m.status[k])
		}
	}
	if m.error != "" {
		view += "\n" + errorStyle.Render(m.error) + "\n"
	}
	view += "\nPress 'esc' to go back"
	return view
}

func scenarioView(m Model) string {
	view := titleStyle.Render("Benchmarks") + "\n\n" + m.scenarioList.View()
	if m.loading {
		view += "\n" + m.spinner.View() + " Evaluating...\n"
	}
	if m.lastEval != nil {
		view += "\n" + infoStyle.Render("Results: "+m.lastEval.Scenario) + "\n"
		keys := make([]string, 0, len(m.lastEval.Metrics))
		for k := range m.lastEval.Metrics {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			view += fmt.Sprintf("  %-18s %.2f\n", k, m.lastEval.Metrics[k])
		}
	}
	if m.error != "" {
		view += "\n" + errorStyle.Render(m.error) + "\n"
	}
	view += "\nPress 'enter' to run the selected scenario, 'esc' to go back"
	return view
}

// Custom message types for the tea.Model
type summaryMsg struct {
	summary *RunSummary
}

type runsMsg struct {
	runs []Run
}

type logMsg struct {
	log ActionLog
}

type statusMsg struct {
	status map[string]interface{}
}

type scenariosMsg struct {
	scenarios []Scenario
}

type evalMsg struct {
	result *EvaluationResult
}

type errorMsg struct {
	err string
}

// placeOrder sends an order and waits for its terminal state
func placeOrder(client *ApiClient, order string) tea.Cmd {
	return func() tea.Msg {
		summary, err := client.StartOrder(order)
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error placing order: %v", err)}
		}
		return summaryMsg{summary: summary}
	}
}

// fetchRuns retrieves recent runs from the API
func fetchRuns(client *ApiClient) tea.Cmd {
	return func() tea.Msg {
		runs, err := client.ListRuns()
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error fetching runs: %v", err)}
		}
		return runsMsg{runs: runs}
	}
}

// fetchActionLog retrieves the action log of one run
func fetchActionLog(client *ApiClient, runID string) tea.Cmd {
	return func() tea.Msg {
		log, err := client.GetActionLog(runID)
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error fetching action log: %v", err)}
		}
		return logMsg{log: log}
	}
}

// fetchStatus retrieves the live kitchen counters
func fetchStatus(client *ApiClient) tea.Cmd {
	return func() tea.Msg {
		status, err := client.KitchenStatus()
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error fetching status: %v", err)}
		}
		return statusMsg{status: status}
	}
}

// fetchScenarios retrieves the built-in benchmark scenarios
func fetchScenarios(client *ApiClient) tea.Cmd {
	return func() tea.Msg {
		scenarios, err := client.ListScenarios()
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error fetching scenarios: %v", err)}
		}
		return scenariosMsg{scenarios: scenarios}
	}
}

// runEvaluation runs one benchmark scenario
func runEvaluation(client *ApiClient, scenarioID string) tea.Cmd {
	return func() tea.Msg {
		result, err := client.RunEvaluation(scenarioID)
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error running evaluation: %v", err)}
		}
		return evalMsg{result: result}
	}
}

// convertRunsToItems converts API runs to list items
func convertRunsToItems(runs []Run) []list.Item {
	items := make([]list.Item, len(runs))
	for i, run := range runs {
		items[i] = item{
			id:    run.RunID,
			title: fmt.Sprintf("%s (%s)", run.OrderText, run.Status),
			desc: fmt.Sprintf("%d steps, %d tasks done - %s",
				run.Steps, run.Completed, run.StartedAt.Format(time.RFC822)),
		}
	}
	return items
}

// convertScenariosToItems converts API scenarios to list items
func convertScenariosToItems(scenarios []Scenario) []list.Item {
	items := make([]list.Item, len(scenarios))
	for i, scenario := range scenarios {
		items[i] = item{
			id:    scenario.ID,
			title: scenario.Name,
			desc:  scenario.Description,
		}
	}
	return items
}

// buildLogTable lays a run's action log out step by step
func buildLogTable(log ActionLog) table.Model {
	columns := []table.Column{
		{Title: "Step", Width: 6},
		{Title: "Agent", Width: 10},
		{Title: "Action", Width: 10},
		{Title: "Target", Width: 16},
		{Title: "Pos", Width: 8},
		{Title: "OK", Width: 4},
	}

	var records []ActionRecord
	for _, agentRecords := range log {
		records = append(records, agentRecords...)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Step != records[j].Step {
			return records[i].Step < records[j].Step
		}
		return records[i].AgentID < records[j].AgentID
	})

	rows := make([]table.Row, 0, len(records))
	for _, r := range records {
		ok := "yes"
		if !r.Success {
			ok = "no"
		}
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", r.Step),
			r.AgentID,
			r.ActionType,
			r.Target,
			fmt.Sprintf("(%d,%d)", r.Position.X, r.Position.Y),
			ok,
		})
	}

	return table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(16),
	)
}

func main() {
	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running program: %v", err)
		os.Exit(1)
	}
}

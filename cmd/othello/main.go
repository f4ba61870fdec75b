package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/playothello/othello-api"
)

var (
	serverFlag = flag.String("server", "http://localhost:8080", "Othello API server URL")

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginLeft(2)

	menuItemStyle = lipgloss.NewStyle().
			MarginLeft(2)

	selectedMenuItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("170")).
				Bold(true).
				MarginLeft(2)

	boardStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(1).
			MarginLeft(2)

	cellStyle = lipgloss.NewStyle().
			Width(3).
			Height(1).
			Align(lipgloss.Center)

	rankStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("178")).
			MarginLeft(2)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true).
			MarginLeft(2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginLeft(2)
)

func main() {
	flag.Parse()

	p := tea.NewProgram(
		initialModel(*serverFlag),
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		log.Fatal(err)
	}
}

type screen int

const (
	screenMenu screen = iota
	screenLeaderboard
	screenGameInput
	screenGame
)

type model struct {
	serverURL string
	screen    screen

	// Menu state
	menuCursor int

	// Data
	leaderboard []leaderboardEntry
	game        *gameView
	gameInput   string

	// UI state
	spinner spinner.Model
	loading bool
	width   int
	height  int
	error   string
}

type leaderboardEntry struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Wins       int    `json:"wins"`
	Rank       int    `json:"rank"`
}

type playerSummary struct {
	ID       string `json:"id"`
	UserName string `json:"userName"`
}

type gameView struct {
	GameID     int64          `json:"gameId"`
	GameStatus string         `json:"gameStatus"`
	Player1    *playerSummary `json:"player1"`
	Player2    *playerSummary `json:"player2"`
	Winner     *playerSummary `json:"winner"`

	moves []moveView
}

type moveView struct {
	PlayerID   string `json:"playerId"`
	Row        int    `json:"row"`
	Column     int    `json:"column"`
	MoveNumber int    `json:"moveNumber"`
}

func initialModel(serverURL string) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return model{
		serverURL:  serverURL,
		screen:     screenMenu,
		menuCursor: 0,
		spinner:    s,
	}
}

func (m model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case leaderboardLoaded:
		m.leaderboard = msg.entries
		m.loading = false
		m.error = ""
		return m, nil

	case gameLoaded:
		m.game = msg.game
		m.loading = false
		m.error = ""
		m.screen = screenGame
		return m, nil

	case fetchError:
		m.error = msg.error
		m.loading = false
		return m, nil

	case tea.KeyMsg:
		switch m.screen {
		case screenMenu:
			return m.updateMenu(msg)
		case screenLeaderboard:
			return m.updateLeaderboard(msg)
		case screenGameInput:
			return m.updateGameInput(msg)
		case screenGame:
			return m.updateGameScreen(msg)
		}
	}

	return m, nil
}

func (m model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "up", "k":
		if m.menuCursor > 0 {
			m.menuCursor--
		}

	case "down", "j":
		if m.menuCursor < 2 { // 3 menu items
			m.menuCursor++
		}

	case "enter", " ":
		switch m.menuCursor {
		case 0: // Leaderboard
			m.screen = screenLeaderboard
			m.loading = true
			m.error = ""
			return m, m.fetchLeaderboard()
		case 1: // View game
			m.screen = screenGameInput
			m.gameInput = ""
			m.error = ""
		case 2: // Quit
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m model) updateLeaderboard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		m.screen = screenMenu
	case "ctrl+c":
		return m, tea.Quit
	case "r":
		m.loading = true
		return m, m.fetchLeaderboard()
	}
	return m, nil
}

func (m model) updateGameInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.screen = screenMenu
		return m, nil
	case "ctrl+c":
		return m, tea.Quit
	case "enter":
		if m.gameInput != "" {
			m.loading = true
			return m, m.fetchGame(m.gameInput)
		}
		return m, nil
	case "backspace":
		if len(m.gameInput) > 0 {
			m.gameInput = m.gameInput[:len(m.gameInput)-1]
		}
		return m, nil
	default:
		if len(msg.String()) == 1 && msg.String() >= "0" && msg.String() <= "9" {
			m.gameInput += msg.String()
		}
		return m, nil
	}
}

func (m model) updateGameScreen(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		m.screen = screenMenu
		m.game = nil
	case "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	switch m.screen {
	case screenMenu:
		return m.viewMenu()
	case screenLeaderboard:
		return m.viewLeaderboard()
	case screenGameInput:
		return m.viewGameInput()
	case screenGame:
		return m.viewGame()
	}
	return ""
}

func (m model) viewMenu() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(titleStyle.Render("Othello"))
	b.WriteString("\n\n")

	items := []string{"Leaderboard", "View Game", "Quit"}
	for i, item := range items {
		if i == m.menuCursor {
			b.WriteString(selectedMenuItemStyle.Render("> " + item))
		} else {
			b.WriteString(menuItemStyle.Render("  " + item))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("j/k: move  enter: select  q: quit"))
	b.WriteString("\n")

	return b.String()
}

func (m model) viewLeaderboard() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(titleStyle.Render("Leaderboard"))
	b.WriteString("\n\n")

	if m.loading {
		b.WriteString(menuItemStyle.Render(m.spinner.View() + " loading..."))
		b.WriteString("\n")
	} else if m.error != "" {
		b.WriteString(errorStyle.Render(m.error))
		b.WriteString("\n")
	} else if len(m.leaderboard) == 0 {
		b.WriteString(menuItemStyle.Render("No games have been won yet."))
		b.WriteString("\n")
	} else {
		for _, e := range m.leaderboard {
			b.WriteString(rankStyle.Render(fmt.Sprintf("%2d. %-24s %d wins", e.Rank, e.PlayerName, e.Wins)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("r: refresh  q: back"))
	b.WriteString("\n")

	return b.String()
}

func (m model) viewGameInput() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(titleStyle.Render("View Game"))
	b.WriteString("\n\n")

	if m.loading {
		b.WriteString(menuItemStyle.Render(m.spinner.View() + " loading..."))
	} else {
		b.WriteString(menuItemStyle.Render("Game ID: " + m.gameInput + "_"))
	}
	b.WriteString("\n")

	if m.error != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(m.error))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter: load  esc: back"))
	b.WriteString("\n")

	return b.String()
}

func (m model) viewGame() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(titleStyle.Render(fmt.Sprintf("Game #%d (%s)", m.game.GameID, m.game.GameStatus)))
	b.WriteString("\n\n")

	p1 := "?"
	p2 := "?"
	if m.game.Player1 != nil {
		p1 = m.game.Player1.UserName
	}
	if m.game.Player2 != nil {
		p2 = m.game.Player2.UserName
	}
	b.WriteString(menuItemStyle.Render(fmt.Sprintf("● %s  vs  ○ %s", p1, p2)))
	b.WriteString("\n")
	if m.game.Winner != nil {
		b.WriteString(menuItemStyle.Render("Winner: " + m.game.Winner.UserName))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(boardStyle.Render(m.renderBoard()))
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render(fmt.Sprintf("%d moves recorded  q: back", len(m.game.moves))))
	b.WriteString("\n")

	return b.String()
}

// renderBoard replays the move log onto an empty board. The server does not
// store piece color, so marks follow which player recorded the move.
func (m model) renderBoard() string {
	board := othello.NewBoard()

	p1 := ""
	if m.game.Player1 != nil {
		p1 = m.game.Player1.ID
	}
	for _, mv := range m.game.moves {
		disc := othello.DiscLight
		if mv.PlayerID == p1 {
			disc = othello.DiscDark
		}
		if err := board.Place(mv.Row, mv.Column, disc); err != nil {
			continue
		}
	}

	var rows []string
	header := "   "
	for c := 0; c < othello.BoardSize; c++ {
		header += cellStyle.Render(strconv.Itoa(c))
	}
	rows = append(rows, header)

	for r := 0; r < othello.BoardSize; r++ {
		line := fmt.Sprintf("%2d ", r)
		for c := 0; c < othello.BoardSize; c++ {
			line += cellStyle.Render(board.At(r, c).Symbol())
		}
		rows = append(rows, line)
	}

	return strings.Join(rows, "\n")
}

// Messages
type leaderboardLoaded struct {
	entries []leaderboardEntry
}

type gameLoaded struct {
	game *gameView
}

type fetchError struct {
	error string
}

var httpClient = &http.Client{Timeout: 10 * time.Second}

func (m model) fetchLeaderboard() tea.Cmd {
	return func() tea.Msg {
		resp, err := httpClient.Get(m.serverURL + "/api/leaderboard")
		if err != nil {
			return fetchError{error: err.Error()}
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return leaderboardLoaded{entries: nil}
		}
		if resp.StatusCode != http.StatusOK {
			return fetchError{error: fmt.Sprintf("server returned %d", resp.StatusCode)}
		}

		var entries []leaderboardEntry
		if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
			return fetchError{error: err.Error()}
		}

		return leaderboardLoaded{entries: entries}
	}
}

func (m model) fetchGame(id string) tea.Cmd {
	return func() tea.Msg {
		resp, err := httpClient.Get(m.serverURL + "/api/game/" + id)
		if err != nil {
			return fetchError{error: err.Error()}
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fetchError{error: fmt.Sprintf("game not found (%d)", resp.StatusCode)}
		}

		var game gameView
		if err := json.NewDecoder(resp.Body).Decode(&game); err != nil {
			return fetchError{error: err.Error()}
		}

		mresp, err := httpClient.Get(m.serverURL + "/api/move/" + id + "/moves")
		if err != nil {
			return fetchError{error: err.Error()}
		}
		defer mresp.Body.Close()

		if mresp.StatusCode == http.StatusOK {
			if err := json.NewDecoder(mresp.Body).Decode(&game.moves); err != nil {
				return fetchError{error: err.Error()}
			}
		}

		return gameLoaded{game: &game}
	}
}

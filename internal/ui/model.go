package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nconklindev/sheetshift/internal/converter"
	"github.com/nconklindev/sheetshift/internal/types"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type state int

const (
	stateFilePicker state = iota
	statePreview
	stateProcessing
	stateComplete
	stateError
)

type mode int

const (
	modeJSONToSheet mode = iota
	modeSheetToJSON
)

func (m mode) String() string {
	if m == modeSheetToJSON {
		return "Excel to JSON"
	}
	return "JSON to Excel"
}

func (m mode) allowedTypes() []string {
	if m == modeSheetToJSON {
		return []string{".xlsx", ".xlsm", ".csv"}
	}
	return []string{".json"}
}

func (m mode) outputExt() string {
	if m == modeSheetToJSON {
		return ".json"
	}
	return ".xlsx"
}

// jsonPreviewLimit caps how much converted JSON is loaded into the viewport.
const jsonPreviewLimit = 64 * 1024

type Model struct {
	state        state
	mode         mode
	conv         *converter.Converter
	outputDir    string
	filepicker   filepicker.Model
	selectedFile string
	outputFile   string
	fileData     *types.FileData
	result       *types.ConversionResult
	jsonView     viewport.Model
	err          error
	width        int
	height       int
	spinner      spinner.Model
	progress     progress.Model
	progressChan chan float64
	resultChan   chan conversionResultMsg
}

type conversionResultMsg struct {
	result *types.ConversionResult
	err    error
}

type fileLoadedMsg struct {
	data *types.FileData
	err  error
}

type conversionCompleteMsg struct {
	result *types.ConversionResult
	err    error
}

type progressMsg float64

type waitForProgressMsg struct{}

func InitialModel(conv *converter.Converter, outputDir string) Model {
	fp := filepicker.New()
	fp.AllowedTypes = modeJSONToSheet.allowedTypes()
	fp.CurrentDirectory, _ = os.Getwd()

	fp.Styles.Cursor = lipgloss.NewStyle().Foreground(accent)
	fp.Styles.Symlink = lipgloss.NewStyle().Foreground(accentAlt)
	fp.Styles.Directory = lipgloss.NewStyle().Foreground(accentAlt)
	fp.Styles.File = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	fp.Styles.Permission = lipgloss.NewStyle().Foreground(muted)
	fp.Styles.Selected = lipgloss.NewStyle().Foreground(accent).Bold(true)
	fp.Styles.FileSize = lipgloss.NewStyle().Foreground(muted)

	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(lipgloss.NewStyle().Foreground(accent)))

	return Model{
		state:      stateFilePicker,
		mode:       modeJSONToSheet,
		conv:       conv,
		outputDir:  outputDir,
		filepicker: fp,
		jsonView:   viewport.New(80, 15),
		spinner:    sp,
		progress:   progress.New(progress.WithGradient("#4CAF50", "#81C784")),
	}
}

func (m Model) Init() tea.Cmd {
	return m.filepicker.Init()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// leave room for title, mode bar, help text and padding
		height := msg.Height - 16
		if height < 5 {
			height = 5
		}
		m.filepicker.SetHeight(height)

		m.jsonView.Width = max(msg.Width-8, 20)
		m.jsonView.Height = max(msg.Height-18, 5)
		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case stateFilePicker:
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "tab":
				m = m.toggleMode()
				return m, nil
			}

		case statePreview:
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "esc":
				m.state = stateFilePicker
				m.fileData = nil
				return m, nil
			case "enter":
				m.state = stateProcessing
				return m.convertFile()
			}

		case stateProcessing:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}

		case stateComplete:
			switch msg.String() {
			case "ctrl+c", "q", "enter", "esc":
				return m, tea.Quit
			case "n":
				return m.reset()
			default:
				var cmd tea.Cmd
				m.jsonView, cmd = m.jsonView.Update(msg)
				return m, cmd
			}

		case stateError:
			switch msg.String() {
			case "n":
				return m.reset()
			case "ctrl+c", "q", "enter", "esc":
				return m, tea.Quit
			}
		}

	case fileLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = stateError
			return m, nil
		}
		m.fileData = msg.data
		m.state = statePreview
		return m, nil

	case conversionCompleteMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = stateError
			return m, nil
		}
		m.result = msg.result
		m.state = stateComplete
		if m.mode == modeSheetToJSON {
			m.jsonView.SetContent(loadJSONPreview(msg.result.OutputFile))
			m.jsonView.GotoTop()
		}
		return m, nil

	case spinner.TickMsg:
		if m.state != stateProcessing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case progressMsg:
		if m.state == stateProcessing {
			cmd := m.progress.SetPercent(float64(msg))
			return m, tea.Batch(cmd, waitForProgress(m.progressChan, m.resultChan))
		}
		return m, nil

	case waitForProgressMsg:
		return m, waitForProgress(m.progressChan, m.resultChan)
	}

	if m.state == stateFilePicker {
		var cmd tea.Cmd
		m.filepicker, cmd = m.filepicker.Update(msg)

		if didSelect, path := m.filepicker.DidSelectFile(msg); didSelect {
			m.selectedFile = path
			return m, m.loadFile(path)
		}

		return m, cmd
	}

	return m, nil
}

func (m Model) toggleMode() Model {
	if m.mode == modeJSONToSheet {
		m.mode = modeSheetToJSON
	} else {
		m.mode = modeJSONToSheet
	}
	m.filepicker.AllowedTypes = m.mode.allowedTypes()
	return m
}

// reset returns to the file picker for another conversion in the same mode.
// The returned command animates the progress bar back to zero.
func (m Model) reset() (Model, tea.Cmd) {
	m.state = stateFilePicker
	m.selectedFile = ""
	m.outputFile = ""
	m.fileData = nil
	m.result = nil
	m.err = nil
	m.jsonView.SetContent("")
	cmd := m.progress.SetPercent(0)
	return m, cmd
}

func (m Model) loadFile(path string) tea.Cmd {
	return func() tea.Msg {
		data, err := converter.ReadFileData(path, converter.RowPreviewLimit)
		return fileLoadedMsg{data: data, err: err}
	}
}

func (m Model) convertFile() (Model, tea.Cmd) {
	m.progressChan = make(chan float64, 100)
	m.resultChan = make(chan conversionResultMsg, 1)
	m.outputFile = converter.OutputPath(m.selectedFile, m.outputDir, m.mode.outputExt())

	// Capture values for the goroutine
	conv := m.conv
	md := m.mode
	inputFile := m.selectedFile
	outputFile := m.outputFile
	progressChan := m.progressChan
	resultChan := m.resultChan

	cmd := tea.Batch(
		func() tea.Msg {
			go runConversion(conv, md, inputFile, outputFile, progressChan, resultChan)
			return waitForProgressMsg{}
		},
		m.spinner.Tick,
		m.progress.Init(),
	)

	return m, cmd
}

// runConversion performs the conversion and closes both channels when done.
func runConversion(conv *converter.Converter, md mode, inputFile, outputFile string, progressChan chan float64, resultChan chan conversionResultMsg) {
	var (
		result *types.ConversionResult
		err    error
	)

	switch md {
	case modeSheetToJSON:
		result, err = conv.SheetToJSON(inputFile, outputFile, progressChan)
	default:
		result, err = conv.JSONToSheet(inputFile, outputFile, progressChan)
	}

	resultChan <- conversionResultMsg{result: result, err: err}

	close(progressChan)
	close(resultChan)
}

func waitForProgress(progressChan chan float64, resultChan chan conversionResultMsg) tea.Cmd {
	return func() tea.Msg {
		if progressChan == nil {
			return nil
		}

		p, ok := <-progressChan
		if !ok {
			res, ok := <-resultChan
			if ok {
				return conversionCompleteMsg(res)
			}
			return nil
		}

		return progressMsg(p)
	}
}

func loadJSONPreview(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Sprintf("could not read %s: %v", path, err)
	}
	if len(data) > jsonPreviewLimit {
		return string(data[:jsonPreviewLimit]) + "\n…"
	}
	return string(data)
}

func (m Model) View() string {
	switch m.state {
	case stateFilePicker:
		return m.viewFilePicker()
	case statePreview:
		return m.viewPreview()
	case stateProcessing:
		return m.viewProcessing()
	case stateComplete:
		return m.viewComplete()
	case stateError:
		return m.viewError()
	}
	return ""
}

func (m Model) viewModeBar() string {
	modes := []mode{modeJSONToSheet, modeSheetToJSON}
	tabs := make([]string, len(modes))
	for i, md := range modes {
		if md == m.mode {
			tabs[i] = ModeActiveStyle.Render(md.String())
		} else {
			tabs[i] = ModeInactiveStyle.Render(md.String())
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs[0], " ", tabs[1])
}

func (m Model) viewFilePicker() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("sheetshift - File Converter"))
	s.WriteString("\n\n")
	s.WriteString(m.viewModeBar())
	s.WriteString("\n\n")
	s.WriteString(SubtitleStyle.Render(fmt.Sprintf("Select a %s file to convert", strings.Join(m.mode.allowedTypes(), " / "))))
	s.WriteString("\n")
	s.WriteString(m.filepicker.View())
	s.WriteString("\n\n")
	s.WriteString(HelpStyle.Render("tab: switch mode • enter: select • q: quit"))

	return s.String()
}

func (m Model) viewPreview() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render(m.mode.String()))
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render(fmt.Sprintf("File: %s", filepath.Base(m.selectedFile))))
	s.WriteString("\n\n")

	if m.fileData == nil || len(m.fileData.Headers) == 0 {
		s.WriteString("No fields found; the output will be empty.\n")
	} else {
		s.WriteString(SuccessStyle.Render(fmt.Sprintf("✓ %d field(s), %d row(s)", len(m.fileData.Headers), m.fileData.TotalRows)))
		s.WriteString("\n\n")
		s.WriteString(FieldStyle.Render(strings.Join(m.fileData.Headers, " │ ")))
		s.WriteString("\n")
		for _, row := range m.fileData.Rows {
			s.WriteString(CellStyle.Render(truncate(strings.Join(row, " │ "), m.lineWidth())))
			s.WriteString("\n")
		}
		if hidden := m.fileData.TotalRows - len(m.fileData.Rows); hidden > 0 {
			s.WriteString(SubtitleStyle.Render(fmt.Sprintf("… %d more row(s)", hidden)))
			s.WriteString("\n")
		}
	}

	s.WriteString("\n")
	s.WriteString(fmt.Sprintf("Output: %s\n", converter.OutputPath(m.selectedFile, m.outputDir, m.mode.outputExt())))
	s.WriteString(HelpStyle.Render("enter: convert • esc: back • q: quit"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewProcessing() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render(fmt.Sprintf("%s Converting...", m.spinner.View())))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("%s → %s", filepath.Base(m.selectedFile), filepath.Base(m.outputFile)))
	s.WriteString("\n\n")
	s.WriteString(m.progress.View())

	return BoxStyle.Render(s.String())
}

func (m Model) viewComplete() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("✓ Conversion Complete!"))
	s.WriteString("\n\n")

	maxPathLen := max(m.width-20, 30)

	s.WriteString(fmt.Sprintf("Input:  %s\n", shortenPath(m.result.InputFile, maxPathLen)))
	s.WriteString(SuccessStyle.Render(fmt.Sprintf("Output: %s", shortenPath(m.result.OutputFile, maxPathLen))))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("Fields: %s\n", strings.Join(m.result.Fields, ", ")))
	s.WriteString(fmt.Sprintf("Records: %d\n", m.result.RecordsProcessed))

	help := "n: convert another • q: quit"
	if m.mode == modeSheetToJSON {
		s.WriteString("\n")
		s.WriteString(m.jsonView.View())
		s.WriteString("\n")
		help = "↑/↓: scroll • " + help
	}
	s.WriteString(HelpStyle.Render(help))

	return BoxStyle.Render(s.String())
}

func (m Model) viewError() string {
	var s strings.Builder

	s.WriteString(ErrorStyle.Render("✗ Error"))
	s.WriteString("\n\n")
	s.WriteString(m.err.Error())
	s.WriteString("\n\n")
	s.WriteString(HelpStyle.Render("n: try another file • q: quit"))

	return BoxStyle.Render(s.String())
}

func (m Model) lineWidth() int {
	if m.width == 0 {
		return 100
	}
	return max(m.width-10, 20)
}

func shortenPath(path string, maxLen int) string {
	if len(path) > maxLen {
		return "..." + path[len(path)-maxLen+3:]
	}
	return path
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) > maxLen {
		return string(r[:maxLen-1]) + "…"
	}
	return s
}

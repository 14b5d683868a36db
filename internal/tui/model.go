// Package tui mounts the QuillDeck client workflows into a Bubble Tea
// program. The update loop is the single place state mutates; jobs run
// off-loop and report back through messages stamped with epoch and
// attempt tokens so results for torn-down state are dropped, never
// applied.
package tui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/k-tsurumaki/quilldeck-cli/internal/api"
	"github.com/k-tsurumaki/quilldeck-cli/internal/export"
	"github.com/k-tsurumaki/quilldeck-cli/internal/session"
	"github.com/k-tsurumaki/quilldeck-cli/internal/workflow"
)

// Config wires runtime options into the TUI program.
type Config struct {
	API       *api.Client
	ExportDir string
}

type stage int

const (
	stageAuth stage = iota
	stageDashboard
)

type authMode int

const (
	authModeLogin authMode = iota
	authModeRegister
)

// connectivityStatus is the monitor's state machine. Only unreachable
// re-probes automatically; ok and serverError are terminal per probe.
type connectivityStatus int

const (
	connectivityUnknown connectivityStatus = iota
	connectivityOK
	connectivityUnreachable
	connectivityServerError
)

func (s connectivityStatus) String() string {
	switch s {
	case connectivityOK:
		return "online"
	case connectivityUnreachable:
		return "unreachable"
	case connectivityServerError:
		return "server error"
	default:
		return "checking"
	}
}

const heroTagline = "Summarize your documents without leaving the terminal."

const (
	minViewportWidth          = 40
	viewportHorizontalPadding = 4
)

type model struct {
	config  Config
	bus     *jobBus
	session *session.Controller

	stage    stage
	authMode authMode

	emailInput    textinput.Model
	passwordInput textinput.Model
	nameInput     textinput.Model
	pathInput     textinput.Model
	authFocus     int
	pathEntry     bool

	spinner     spinner.Model
	viewport    viewport.Model
	progressBar progress.Model

	connectivity    connectivityStatus
	probeGeneration int
	probeInFlight   bool

	upload        workflow.Upload
	uploadAttempt string

	summaries       map[string]*workflow.Summary
	summaryAttempts map[string]string
	cursor          int

	viewportDirty bool
	infoMessage   string
	errorMessage  string
	helpVisible   bool
	width         int
}

type probeResultMsg struct {
	generation int
	status     connectivityStatus
}

type probeRetryMsg struct {
	generation int
}

type authResultMsg struct {
	token  uint64
	userID string
	err    *api.Error
}

type uploadProgressMsg struct {
	attempt string
	percent int
	updates <-chan int
}

type uploadResultMsg struct {
	attempt    string
	epoch      uint64
	fileName   string
	documentID string
	err        *api.Error
}

type summaryResultMsg struct {
	attempt    string
	epoch      uint64
	documentID string
	content    string
	keywords   []string
	err        *api.Error
}

type exportResultMsg struct {
	documentID string
	path       string
	err        error
}

// New returns a tea.Model ready to be mounted into a Program.
func New(config Config) tea.Model {
	emailInput := textinput.New()
	emailInput.Placeholder = "you@example.com"
	emailInput.CharLimit = 120
	emailInput.Width = 44
	emailInput.Focus()

	passwordInput := textinput.New()
	passwordInput.Placeholder = "password"
	passwordInput.EchoMode = textinput.EchoPassword
	passwordInput.CharLimit = 120
	passwordInput.Width = 44

	nameInput := textinput.New()
	nameInput.Placeholder = "display name"
	nameInput.CharLimit = 80
	nameInput.Width = 44

	pathInput := textinput.New()
	pathInput.Placeholder = "path/to/document.txt"
	pathInput.CharLimit = 240
	pathInput.Width = 60

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	vp := viewport.New(80, 20)
	vp.MouseWheelEnabled = true

	return &model{
		config:          config,
		bus:             newJobBus(),
		session:         session.NewController(config.API),
		stage:           stageAuth,
		authMode:        authModeLogin,
		emailInput:      emailInput,
		passwordInput:   passwordInput,
		nameInput:       nameInput,
		pathInput:       pathInput,
		spinner:         spin,
		viewport:        vp,
		progressBar:     progress.New(progress.WithDefaultGradient()),
		summaries:       map[string]*workflow.Summary{},
		summaryAttempts: map[string]string{},
		viewportDirty:   true,
		infoMessage:     "Sign in to get started.",
	}
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.startProbe())
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.busy() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEsc:
			if m.stage == stageDashboard && m.pathEntry {
				m.pathEntry = false
				m.pathInput.Blur()
				m.infoMessage = "File selection canceled."
				return m, nil
			}
			return m, tea.Quit
		}
		return m.handleKey(msg)
	case tea.MouseMsg:
		if m.stage == stageDashboard {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		newWidth := msg.Width - viewportHorizontalPadding
		if newWidth < minViewportWidth {
			newWidth = minViewportWidth
		}
		m.viewport.Width = newWidth
		height := msg.Height - 12
		if height < 5 {
			height = 5
		}
		m.viewport.Height = height
		m.progressBar.Width = newWidth / 2
		m.markViewportDirty()
		return m, nil
	case jobSignalMsg:
		return m, nil
	case jobResultEnvelope:
		if msg.Payload == nil {
			return m, nil
		}
		return m.Update(msg.Payload)
	case probeResultMsg:
		return m.handleProbeResult(msg)
	case probeRetryMsg:
		if msg.generation != m.probeGeneration {
			return m, nil // superseded retry, the timer is dead
		}
		return m, m.startProbe()
	case authResultMsg:
		return m.handleAuthResult(msg)
	case uploadProgressMsg:
		return m.handleUploadProgress(msg)
	case uploadResultMsg:
		return m.handleUploadResult(msg)
	case summaryResultMsg:
		return m.handleSummaryResult(msg)
	case exportResultMsg:
		if msg.err != nil {
			m.errorMessage = fmt.Sprintf("export failed: %v", msg.err)
			return m, nil
		}
		m.errorMessage = ""
		m.infoMessage = fmt.Sprintf("Summary exported to %s", msg.path)
		return m, nil
	}
	return m, nil
}

func (m *model) busy() bool {
	if m.session.AuthPending() || m.probeInFlight {
		return true
	}
	if m.upload.Phase == workflow.UploadTransferring {
		return true
	}
	for _, s := range m.summaries {
		if s.Phase == workflow.SummaryGenerating {
			return true
		}
	}
	return false
}

func (m *model) markViewportDirty() {
	m.viewportDirty = true
}

// startProbe bumps the generation so any pending retry timer or
// in-flight probe from an earlier generation is discarded on arrival.
func (m *model) startProbe() tea.Cmd {
	m.probeGeneration++
	m.probeInFlight = true
	return tea.Batch(
		m.spinner.Tick,
		m.bus.Start(jobKindProbe, probeJob(m.config.API, m.probeGeneration)),
	)
}

func (m *model) handleProbeResult(msg probeResultMsg) (tea.Model, tea.Cmd) {
	if msg.generation != m.probeGeneration {
		return m, nil
	}
	m.probeInFlight = false
	m.connectivity = msg.status
	if msg.status == connectivityUnreachable {
		return m, probeRetryCmd(msg.generation)
	}
	return m, nil
}

func (m *model) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.stage {
	case stageAuth:
		return m.handleAuthKey(key)
	case stageDashboard:
		if m.pathEntry {
			return m.handlePathEntryKey(key)
		}
		return m.handleDashboardKey(key)
	default:
		return m, nil
	}
}

func (m *model) handleAuthKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.Type {
	case tea.KeyTab:
		m.cycleAuthFocus(1)
		return m, nil
	case tea.KeyShiftTab:
		m.cycleAuthFocus(-1)
		return m, nil
	case tea.KeyCtrlR:
		if m.authMode == authModeLogin {
			m.authMode = authModeRegister
			m.infoMessage = "Create a new account. Ctrl+R to switch back to sign-in."
		} else {
			m.authMode = authModeLogin
			m.infoMessage = "Sign in with your account. Ctrl+R to register instead."
		}
		if m.authMode == authModeLogin && m.authFocus >= 2 {
			m.cycleAuthFocus(-1)
		}
		return m, nil
	case tea.KeyEnter:
		return m, m.submitAuth()
	}
	return m, m.updateFocusedAuthInput(key)
}

func (m *model) authFieldCount() int {
	if m.authMode == authModeRegister {
		return 3
	}
	return 2
}

func (m *model) cycleAuthFocus(delta int) {
	count := m.authFieldCount()
	m.authFocus = (m.authFocus + delta + count) % count
	inputs := []*textinput.Model{&m.emailInput, &m.passwordInput, &m.nameInput}
	for idx, input := range inputs {
		if idx == m.authFocus {
			input.Focus()
		} else {
			input.Blur()
		}
	}
}

func (m *model) updateFocusedAuthInput(key tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	switch m.authFocus {
	case 0:
		m.emailInput, cmd = m.emailInput.Update(key)
	case 1:
		m.passwordInput, cmd = m.passwordInput.Update(key)
	case 2:
		m.nameInput, cmd = m.nameInput.Update(key)
	}
	return cmd
}

// submitAuth enforces the single-flight contract: while one auth
// request is outstanding the submit key is inert.
func (m *model) submitAuth() tea.Cmd {
	if m.session.AuthPending() {
		return nil
	}
	email := strings.TrimSpace(m.emailInput.Value())
	password := m.passwordInput.Value()
	if cerr := session.ValidateCredentials(email, password); cerr != nil {
		m.errorMessage = cerr.Message
		return nil
	}
	name := strings.TrimSpace(m.nameInput.Value())
	register := m.authMode == authModeRegister
	if register && name == "" {
		m.errorMessage = "display name is required to register"
		return nil
	}

	token, cerr := m.session.BeginAuth()
	if cerr != nil {
		m.infoMessage = cerr.Message
		return nil
	}
	m.errorMessage = ""
	if register {
		m.infoMessage = "Creating your account…"
	} else {
		m.infoMessage = "Signing in…"
	}
	return tea.Batch(
		m.spinner.Tick,
		m.bus.Start(jobKindAuth, authJob(m.config.API, register, email, password, name, token)),
	)
}

func (m *model) handleAuthResult(msg authResultMsg) (tea.Model, tea.Cmd) {
	if msg.token != m.session.Epoch() {
		return m, nil // the session this attempt belonged to is gone
	}
	m.session.FinishAuth(msg.token, msg.userID, msg.err)
	if msg.err != nil {
		m.errorMessage = msg.err.Message
		m.infoMessage = "Check your credentials and try again."
		return m, nil
	}
	m.stage = stageDashboard
	m.errorMessage = ""
	m.infoMessage = fmt.Sprintf("Signed in as %s. Press u to choose a document.", msg.userID)
	m.passwordInput.SetValue("")
	m.markViewportDirty()
	return m, nil
}

func (m *model) handlePathEntryKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.pathInput, cmd = m.pathInput.Update(key)
	if key.Type != tea.KeyEnter {
		return m, cmd
	}

	path := strings.TrimSpace(m.pathInput.Value())
	m.pathEntry = false
	m.pathInput.Blur()
	if path == "" {
		m.infoMessage = "No file chosen."
		return m, cmd
	}

	info, err := os.Stat(path)
	if err != nil {
		m.upload.Reset()
		m.errorMessage = fmt.Sprintf("cannot read %s: %v", path, err)
		return m, cmd
	}
	if info.IsDir() {
		m.upload.Reset()
		m.errorMessage = fmt.Sprintf("%s is a directory", path)
		return m, cmd
	}
	if cerr := m.upload.Select(path, info.Size()); cerr != nil {
		m.errorMessage = cerr.Message
		return m, cmd
	}
	m.errorMessage = ""
	m.infoMessage = fmt.Sprintf("Selected %s (%.1f KB). Press Enter to upload.", m.upload.File.Name, float64(info.Size())/1024)
	return m, cmd
}

func (m *model) handleDashboardKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	handled := true
	switch key.String() {
	case "u":
		m.pathEntry = true
		m.pathInput.SetValue("")
		m.pathInput.Focus()
		m.infoMessage = "Enter the path of a .txt or .md file."
		return m, nil
	case "enter":
		return m, m.startUpload()
	case "up", "k":
		m.moveCursor(-1)
	case "down", "j":
		m.moveCursor(1)
	case "l":
		m.cycleLength()
	case "g":
		return m, m.startGenerate()
	case "e":
		return m, m.startExport()
	case "c":
		m.infoMessage = "Checking the server…"
		return m, m.startProbe()
	case "q":
		m.logout()
		return m, nil
	case "?":
		m.helpVisible = !m.helpVisible
		m.markViewportDirty()
	default:
		handled = false
	}
	if handled {
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(key)
	return m, cmd
}

func (m *model) moveCursor(delta int) {
	count := len(m.session.Documents())
	if count == 0 {
		return
	}
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= count {
		m.cursor = count - 1
	}
	m.markViewportDirty()
}

func (m *model) selectedDocument() (session.Document, bool) {
	docs := m.session.Documents()
	if len(docs) == 0 || m.cursor < 0 || m.cursor >= len(docs) {
		return session.Document{}, false
	}
	return docs[m.cursor], true
}

func (m *model) summaryFor(documentID string) *workflow.Summary {
	if s, ok := m.summaries[documentID]; ok {
		return s
	}
	s := workflow.NewSummary()
	m.summaries[documentID] = s
	return s
}

func (m *model) cycleLength() {
	doc, ok := m.selectedDocument()
	if !ok {
		m.infoMessage = "Upload a document first."
		return
	}
	s := m.summaryFor(doc.ID)
	if s.Phase == workflow.SummaryGenerating {
		m.infoMessage = "Wait for the current generation to finish."
		return
	}
	s.SetLength(s.Length.Next())
	m.infoMessage = fmt.Sprintf("Summary length for %s: %s", doc.FileName, s.Length)
	m.markViewportDirty()
}

func (m *model) startUpload() tea.Cmd {
	if m.upload.File == nil {
		m.infoMessage = "Press u to choose a file first."
		return nil
	}
	if cerr := m.upload.Begin(); cerr != nil {
		m.infoMessage = cerr.Message
		return nil
	}
	attempt := newAttemptID(jobKindUpload)
	m.uploadAttempt = attempt
	m.errorMessage = ""
	m.infoMessage = fmt.Sprintf("Uploading %s…", m.upload.File.Name)
	updates := make(chan int, 8)
	file := *m.upload.File
	return tea.Batch(
		m.spinner.Tick,
		m.bus.Start(jobKindUpload, uploadJob(m.config.API, file, attempt, m.session.Epoch(), updates)),
		waitForUploadProgress(attempt, updates),
	)
}

func (m *model) handleUploadProgress(msg uploadProgressMsg) (tea.Model, tea.Cmd) {
	if msg.attempt != m.uploadAttempt {
		return m, nil
	}
	m.upload.SetProgress(msg.percent)
	return m, waitForUploadProgress(msg.attempt, msg.updates)
}

func (m *model) handleUploadResult(msg uploadResultMsg) (tea.Model, tea.Cmd) {
	if msg.epoch != m.session.Epoch() || msg.attempt != m.uploadAttempt {
		return m, nil // logout or a newer attempt made this result irrelevant
	}
	m.uploadAttempt = ""
	if msg.err != nil {
		m.upload.Fail(msg.err)
		m.errorMessage = msg.err.Message
		m.infoMessage = "Upload failed. Press Enter to retry."
		return m, nil
	}
	m.upload.Complete()
	doc, cerr := m.session.AddDocument(msg.documentID, msg.fileName)
	if cerr != nil {
		m.errorMessage = cerr.Message
		return m, nil
	}
	m.summaries[doc.ID] = workflow.NewSummary()
	m.cursor = len(m.session.Documents()) - 1
	m.upload.Reset()
	m.errorMessage = ""
	m.infoMessage = fmt.Sprintf("Uploaded %s. Press g to generate a summary.", doc.FileName)
	m.markViewportDirty()
	return m, nil
}

func (m *model) startGenerate() tea.Cmd {
	doc, ok := m.selectedDocument()
	if !ok {
		m.infoMessage = "Upload a document first."
		return nil
	}
	s := m.summaryFor(doc.ID)
	if cerr := s.Begin(); cerr != nil {
		m.infoMessage = cerr.Message
		return nil
	}
	attempt := newAttemptID(jobKindSummary)
	m.summaryAttempts[doc.ID] = attempt
	m.errorMessage = ""
	m.infoMessage = fmt.Sprintf("Generating a %s summary of %s…", s.Length, doc.FileName)
	m.markViewportDirty()
	return tea.Batch(
		m.spinner.Tick,
		m.bus.Start(jobKindSummary, summaryJob(m.config.API, doc, s.Length, attempt, m.session.Epoch())),
	)
}

func (m *model) handleSummaryResult(msg summaryResultMsg) (tea.Model, tea.Cmd) {
	if msg.epoch != m.session.Epoch() {
		return m, nil
	}
	s, ok := m.summaries[msg.documentID]
	if !ok {
		return m, nil // the handle was destroyed while the request ran
	}
	if m.summaryAttempts[msg.documentID] != msg.attempt {
		return m, nil
	}
	delete(m.summaryAttempts, msg.documentID)
	if msg.err != nil {
		s.Fail(msg.err)
		m.errorMessage = msg.err.Message
		m.infoMessage = "Summary failed. Press g to retry."
	} else {
		s.Complete(msg.content, msg.keywords)
		m.errorMessage = ""
		m.infoMessage = "Summary ready. Press e to export it."
	}
	m.markViewportDirty()
	return m, nil
}

func (m *model) startExport() tea.Cmd {
	doc, ok := m.selectedDocument()
	if !ok {
		m.infoMessage = "Upload a document first."
		return nil
	}
	s := m.summaryFor(doc.ID)
	if s.Phase != workflow.SummaryDone {
		m.infoMessage = "Generate a summary before exporting."
		return nil
	}
	rec := export.Record{
		FileName:    doc.FileName,
		DocumentID:  doc.ID,
		Length:      string(s.Length),
		Content:     s.Content,
		Keywords:    append([]string(nil), s.Keywords...),
		GeneratedAt: time.Now(),
	}
	m.infoMessage = fmt.Sprintf("Exporting summary of %s…", doc.FileName)
	return tea.Batch(
		m.spinner.Tick,
		m.bus.Start(jobKindExport, exportJob(m.config.ExportDir, rec)),
	)
}

// logout tears down everything the session owns in one transition.
// The epoch bump inside Logout also invalidates every in-flight
// completion.
func (m *model) logout() {
	m.session.Logout()
	m.summaries = map[string]*workflow.Summary{}
	m.summaryAttempts = map[string]string{}
	m.upload.Reset()
	m.uploadAttempt = ""
	m.cursor = 0
	m.stage = stageAuth
	m.authMode = authModeLogin
	m.authFocus = 0
	m.emailInput.Focus()
	m.passwordInput.Blur()
	m.passwordInput.SetValue("")
	m.nameInput.Blur()
	m.pathEntry = false
	m.pathInput.Blur()
	m.helpVisible = false
	m.errorMessage = ""
	m.infoMessage = "Signed out."
	m.markViewportDirty()
}

package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/five82/tally/internal/config"
	"github.com/five82/tally/internal/inventory"
	"github.com/five82/tally/internal/metrics"
	"github.com/five82/tally/internal/prefs"
	"github.com/five82/tally/internal/sales"
	"github.com/five82/tally/internal/state"
)

// View represents the current active view.
type View int

const (
	ViewProducts View = iota
	ViewSales
	ViewAddProduct
	ViewLogs
)

// Options configures the UI.
type Options struct {
	Context   context.Context
	API       inventory.API
	Store     *state.Store
	Config    *config.Config
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
	PollTick  time.Duration
	ThemeName string
	SalesSort string
	PrefsPath string
}

// alert is the single dismissable banner shown under the command bar.
type alert struct {
	text   string
	danger bool
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	api       inventory.API
	store     *state.Store
	config    *config.Config
	logger    *zap.Logger
	metrics   *metrics.Metrics
	prefsPath string
	pollTick  time.Duration
	keys      keyMap
	now       func() time.Time

	// UI state
	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool
	showHelp    bool
	modal       Modal
	alert       *alert
	spinner     spinner.Model

	// Search input shared by the products and sales lists
	search    textinput.Model
	searching bool

	// Products
	snapshot        state.Snapshot
	lastUpdated     time.Time
	productQuery    string
	selectedProduct int
	detail          *inventory.Product

	// Sales
	sales        *sales.View
	salesMounted bool
	selectedSale int

	// Add product form
	addForm form

	// Logs
	logViewport viewport.Model
	logLines    []string
	logFollow   bool
	logLevel    string
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick == 0 {
		pollTick = DefaultUIInterval
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	pageSize := config.Default().PageSize
	if opts.Config != nil && opts.Config.PageSize > 0 {
		pageSize = opts.Config.PageSize
	}

	search := newInput("Search by product name...", "/", 100)

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return Model{
		ctx:         ctx,
		api:         opts.API,
		store:       opts.Store,
		config:      opts.Config,
		logger:      logger,
		metrics:     opts.Metrics,
		prefsPath:   prefsPath,
		pollTick:    pollTick,
		keys:        DefaultKeyMap(),
		now:         time.Now,
		theme:       GetTheme(opts.ThemeName),
		currentView: ViewProducts,
		spinner:     spin,
		search:      search,
		sales:       sales.NewView(pageSize, sales.ParseSortKey(opts.SalesSort), logger.Named("sales")),
		logFollow:   true,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		tickCmd(m.pollTick),
		m.spinner.Tick,
	}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.initLogViewport()
		}
		m.ready = true
		m.updateLogViewport()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		m.lastUpdated = time.Now()
		m.clampProductSelection()
		return m, nil

	case productsRefreshedMsg:
		if msg.err != nil {
			m.setError("Failed to refresh products", msg.err)
		}
		return m, fetchSnapshotCmd(m.store)

	case productDetailMsg:
		return m.handleProductDetail(msg)

	case salesPageMsg:
		return m.handleSalesPage(msg)

	case createProductMsg, updateStockMsg, recordSaleMsg, deleteProductMsg:
		return m, m.mutationCmd(msg)

	case mutationDoneMsg:
		return m.handleMutationDone(msg)

	case logsMsg:
		m.handleLogs(msg)
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}
	return m.renderMain()
}

// handleKey processes keyboard input. Overlays take every key first, then
// global bindings, then the current view.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.logSalesState()
		m.sales.Dispose()
		return m, tea.Quit
	}

	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.modal != nil {
		modal, cmd, done := m.modal.Update(msg, m.keys)
		m.modal = modal
		if done {
			m.modal = nil
		}
		return m, cmd
	}

	if m.searching {
		return m.handleSearchKey(msg)
	}

	if m.currentView == ViewAddProduct {
		return m.handleAddProductKey(msg)
	}

	switch msg.String() {
	case "?":
		m.showHelp = true
		return m, nil

	case "T":
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()
		m.updateLogViewport()
		return m, nil

	case "1":
		m.currentView = ViewProducts
		return m, nil

	case "s":
		return m.enterSales()

	case "L":
		m.currentView = ViewLogs
		return m, m.loadLogsCmd()

	case "esc":
		if m.alert != nil {
			m.alert = nil
			return m, nil
		}
		m.currentView = ViewProducts
		return m, nil
	}

	switch m.currentView {
	case ViewProducts:
		return m.handleProductsKey(msg)
	case ViewSales:
		return m.handleSalesKey(msg)
	case ViewLogs:
		return m.handleLogsKey(msg)
	}

	return m, nil
}

// handleSearchKey edits the search text of the current list.
func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searching = false
		m.search.Blur()
		return m, nil
	case "esc":
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.applySearch("")
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	more := m.applySearch(m.search.Value())
	return m, tea.Batch(cmd, more)
}

// startSearch focuses the search input preloaded with the view's query.
func (m *Model) startSearch() tea.Cmd {
	switch m.currentView {
	case ViewSales:
		m.search.SetValue(m.sales.Params().Search)
	default:
		m.search.SetValue(m.productQuery)
	}
	m.search.CursorEnd()
	m.searching = true
	return m.search.Focus()
}

// applySearch pushes text to the list being searched and resets its
// selection.
func (m *Model) applySearch(text string) tea.Cmd {
	switch m.currentView {
	case ViewSales:
		m.sales.OnSearchChange(text)
		m.selectedSale = 0
		return m.checkNearEnd()
	default:
		m.productQuery = text
		m.selectedProduct = 0
		return nil
	}
}

// handleTick processes the polling tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.currentView == ViewLogs && m.logFollow {
		cmds = append(cmds, m.loadLogsCmd())
	}

	cmds = append(cmds, tickCmd(m.pollTick))
	return m, tea.Batch(cmds...)
}

// setError raises a danger alert; the error is also logged.
func (m *Model) setError(prefix string, err error) {
	m.logger.Warn(strings.ToLower(prefix), zap.String("kind", inventory.Kind(err)), zap.Error(err))
	m.alert = &alert{text: prefix + ": " + inventory.Describe(err), danger: true}
}

// setNotice raises an informational alert.
func (m *Model) setNotice(text string) {
	m.alert = &alert{text: text}
}

// savePrefs persists the theme and sales sort. Failures are logged only.
func (m Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	p := prefs.Prefs{Theme: m.theme.Name, SalesSort: string(m.sales.Params().Sort)}
	if err := prefs.Save(m.prefsPath, p); err != nil {
		m.logger.Warn("save preferences failed", zap.Error(err))
	}
}

// contentHeight is the space left for the current view.
func (m Model) contentHeight() int {
	h := m.height - 2 // header + command bar
	if m.alert != nil {
		h--
	}
	return max(h, 3)
}

// renderMain renders header, command bar, optional alert and the content.
func (m Model) renderMain() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	if m.alert != nil {
		b.WriteString(m.renderAlert())
		b.WriteString("\n")
	}
	b.WriteString(m.renderContent())

	return b.String()
}

// renderContent renders the main content area based on current view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewProducts:
		return m.renderProducts()
	case ViewSales:
		return m.renderSales()
	case ViewAddProduct:
		return m.renderAddProduct()
	case ViewLogs:
		return m.renderLogs()
	default:
		return ""
	}
}

// requestContext bounds a UI-initiated backend call.
func requestContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, RequestTimeout)
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type productsRefreshedMsg struct{ err error }

type productDetailMsg struct {
	id      string
	product *inventory.Product
	err     error
}

// salesPageMsg carries a page response together with the ticket that asked
// for it, so the pager can discard stale answers.
type salesPageMsg struct {
	req     sales.Request
	records []inventory.SaleRecord
	err     error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

func (m Model) refreshProductsCmd() tea.Cmd {
	if m.api == nil || m.store == nil {
		return nil
	}
	api, store, met := m.api, m.store, m.metrics
	parent := m.ctx
	return func() tea.Msg {
		ctx, cancel := requestContext(parent)
		defer cancel()
		products, err := api.FetchProducts(ctx)
		store.Update(products, err)
		if err == nil {
			met.SetProducts(len(products))
		}
		return productsRefreshedMsg{err: err}
	}
}

func (m Model) fetchProductCmd(id string) tea.Cmd {
	if m.api == nil {
		return nil
	}
	api := m.api
	parent := m.ctx
	return func() tea.Msg {
		ctx, cancel := requestContext(parent)
		defer cancel()
		p, err := api.FetchProduct(ctx, id)
		return productDetailMsg{id: id, product: p, err: err}
	}
}

func (m Model) fetchSalesCmd(req sales.Request) tea.Cmd {
	api := m.api
	parent := m.ctx
	return func() tea.Msg {
		ctx, cancel := requestContext(parent)
		defer cancel()
		var fetcher sales.Fetcher
		if api != nil {
			fetcher = api
		}
		records, err := sales.Fetch(ctx, fetcher, req)
		return salesPageMsg{req: req, records: records, err: err}
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Package tui 终端客户端：浏览房源、维护收藏、看个人统计
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"property-listing/internal/client"
	"property-listing/internal/domain"
	"property-listing/internal/favorites"
	"property-listing/internal/listing"
)

// Backend 远端只读接口，*client.Client 实现
type Backend interface {
	Browse(ctx context.Context, spec listing.FilterSpec) (*client.Page, error)
	Dashboard(ctx context.Context) (*client.DashboardStats, error)
}

// Favorites *favorites.Reconciler 实现
type Favorites interface {
	Add(ctx context.Context, userID, propertyID string) error
	Remove(ctx context.Context, userID, propertyID string) error
	Refresh(ctx context.Context) error
	IsFavorite(propertyID string) bool
	Snapshot() favorites.Snapshot
	Subscribe() (<-chan favorites.Snapshot, func())
}

type tab int

const (
	tabBrowse tab = iota
	tabFavorites
	tabDashboard
)

var tabNames = []string{"Browse", "Favorites", "Dashboard"}

// 筛选类型按 t 循环
var kindCycle = []domain.TransactionKind{
	domain.TransactionAll, domain.TransactionSale, domain.TransactionRent, domain.TransactionRentToOwn,
}

const callTimeout = 10 * time.Second

type (
	catalogMsg struct {
		page *client.Page
		err  error
	}
	statsMsg struct {
		stats *client.DashboardStats
		err   error
	}
	snapshotMsg favorites.Snapshot
	noticeMsg   struct {
		text string
		err  error
	}
)

type Model struct {
	api  Backend
	favs Favorites
	user string

	updates <-chan favorites.Snapshot

	active        tab
	width, height int

	spec      listing.FilterSpec
	kindIdx   int
	searching bool
	search    string

	catalog *client.Page
	snap    favorites.Snapshot
	stats   *client.DashboardStats
	cursor  [3]int

	notice      string
	noticeErr   bool
	noticeUntil time.Time
	now         func() time.Time
}

// New updates 来自 favs.Subscribe，调用方负责退订
func New(api Backend, favs Favorites, userID string, updates <-chan favorites.Snapshot) Model {
	return Model{
		api:     api,
		favs:    favs,
		user:    userID,
		updates: updates,
		spec:    listing.DefaultFilterSpec(),
		snap:    favs.Snapshot(),
		now:     time.Now,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadCatalog(), m.loadStats(), m.waitSnapshot())
}

func (m Model) loadCatalog() tea.Cmd {
	api, spec := m.api, m.spec
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		page, err := api.Browse(ctx, spec)
		return catalogMsg{page: page, err: err}
	}
}

func (m Model) loadStats() tea.Cmd {
	api := m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		st, err := api.Dashboard(ctx)
		return statsMsg{stats: st, err: err}
	}
}

// waitSnapshot 每收到一次快照就重新挂上
func (m Model) waitSnapshot() tea.Cmd {
	ch := m.updates
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return snapshotMsg(s)
	}
}

func (m Model) favoriteCmd(id string, add bool) tea.Cmd {
	favs, user := m.favs, m.user
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		if add {
			if err := favs.Add(ctx, user, id); err != nil {
				return noticeMsg{text: "add failed", err: err}
			}
			return noticeMsg{text: "added to favorites"}
		}
		if err := favs.Remove(ctx, user, id); err != nil {
			return noticeMsg{text: "remove failed", err: err}
		}
		return noticeMsg{text: "removed from favorites"}
	}
}

func (m Model) refreshFavorites() tea.Cmd {
	favs := m.favs
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		if err := favs.Refresh(ctx); err != nil {
			return noticeMsg{text: "refresh failed", err: err}
		}
		return nil
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case catalogMsg:
		if msg.err != nil {
			m = m.notify("catalog unavailable: "+msg.err.Error(), true)
			break
		}
		m.catalog = msg.page
		m.cursor[tabBrowse] = clamp(m.cursor[tabBrowse], len(m.catalog.Items))

	case statsMsg:
		if msg.err == nil {
			m.stats = msg.stats
		}

	case snapshotMsg:
		m.snap = favorites.Snapshot(msg)
		m.cursor[tabFavorites] = clamp(m.cursor[tabFavorites], len(m.snap.Properties))
		return m, m.waitSnapshot()

	case noticeMsg:
		m = m.notify(noticeText(msg), msg.err != nil)
		if msg.err == nil {
			return m, m.loadStats()
		}

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateKey(msg)
	}
	return m, nil
}

func noticeText(n noticeMsg) string {
	if n.err != nil {
		return n.text + ": " + n.err.Error()
	}
	return n.text
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.searching = false
		m.spec.Search = strings.TrimSpace(m.search)
		return m, m.loadCatalog()
	case tea.KeyEsc:
		m.searching = false
		m.search = m.spec.Search
	case tea.KeyBackspace:
		if r := []rune(m.search); len(r) > 0 {
			m.search = string(r[:len(r)-1])
		}
	case tea.KeyRunes, tea.KeySpace:
		m.search += string(msg.Runes)
	}
	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "tab":
		m.active = (m.active + 1) % tab(len(tabNames))
	case "b":
		m.active = tabBrowse
	case "v":
		m.active = tabFavorites
	case "d":
		m.active = tabDashboard
	case "up", "k":
		if m.cursor[m.active] > 0 {
			m.cursor[m.active]--
		}
	case "down", "j":
		if m.cursor[m.active] < m.rows()-1 {
			m.cursor[m.active]++
		}
	case "r":
		return m, tea.Batch(m.loadCatalog(), m.loadStats(), m.refreshFavorites())
	case "/":
		if m.active == tabBrowse {
			m.searching = true
			m.search = m.spec.Search
		}
	case "t":
		if m.active == tabBrowse {
			m.kindIdx = (m.kindIdx + 1) % len(kindCycle)
			m.spec.Kind = kindCycle[m.kindIdx]
			m.cursor[tabBrowse] = 0
			return m, m.loadCatalog()
		}
	case "f", "enter":
		if p, ok := m.selected(); ok && m.active == tabBrowse {
			return m, m.favoriteCmd(p.ID, !m.favs.IsFavorite(p.ID))
		}
	case "x", "delete":
		if p, ok := m.selected(); ok && m.active == tabFavorites {
			return m, m.favoriteCmd(p.ID, false)
		}
	}
	return m, nil
}

func (m Model) notify(text string, isErr bool) Model {
	m.notice, m.noticeErr = text, isErr
	m.noticeUntil = m.now().Add(3 * time.Second)
	return m
}

func (m Model) rows() int {
	switch m.active {
	case tabBrowse:
		if m.catalog != nil {
			return len(m.catalog.Items)
		}
	case tabFavorites:
		return len(m.snap.Properties)
	}
	return 0
}

func (m Model) selected() (domain.Property, bool) {
	i := m.cursor[m.active]
	switch m.active {
	case tabBrowse:
		if m.catalog != nil && i < len(m.catalog.Items) {
			return m.catalog.Items[i], true
		}
	case tabFavorites:
		if i < len(m.snap.Properties) {
			return m.snap.Properties[i], true
		}
	}
	return domain.Property{}, false
}

func clamp(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func (m Model) View() string {
	return lipgloss.JoinVertical(lipgloss.Left, m.renderTabs(), m.renderContent(), m.renderStatus())
}

func (m Model) renderTabs() string {
	out := make([]string, 0, len(tabNames))
	for i, name := range tabNames {
		if tab(i) == m.active {
			out = append(out, tabActive.Render(name))
		} else {
			out = append(out, tabInactive.Render(name))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, out...)
}

func (m Model) renderContent() string {
	switch m.active {
	case tabFavorites:
		return m.renderFavorites()
	case tabDashboard:
		return m.renderDashboard()
	}
	return m.renderBrowse()
}

func (m Model) renderBrowse() string {
	var b strings.Builder
	kind := string(m.spec.Kind)
	header := fmt.Sprintf("kind: %s   search: %q", kind, m.spec.Search)
	if m.searching {
		header = "search: " + m.search + "▏"
	}
	b.WriteString(muted.Render(header) + "\n")
	if m.catalog == nil {
		b.WriteString(muted.Render("loading..."))
		return b.String()
	}
	s := m.catalog.Summary
	b.WriteString(muted.Render(fmt.Sprintf("venta %d · alquiler %d · alquiler-venta %d · total %d",
		s.Sale, s.Rent, s.RentToOwn, s.Total)) + "\n\n")
	if len(m.catalog.Items) == 0 {
		b.WriteString(muted.Render("no properties match"))
		return b.String()
	}
	for i, p := range m.catalog.Items {
		mark := "  "
		if m.favs.IsFavorite(p.ID) {
			mark = favMark.Render("★ ")
		}
		b.WriteString(m.row(i == m.cursor[tabBrowse], mark+propertyLine(p)) + "\n")
	}
	return b.String()
}

func (m Model) renderFavorites() string {
	var b strings.Builder
	switch m.snap.State {
	case favorites.StateUnauthenticated:
		return muted.Render("sign in to see favorites")
	case favorites.StateLoading:
		b.WriteString(muted.Render("loading favorites...") + "\n")
	case favorites.StateError:
		b.WriteString(errText.Render("favorites unavailable: "+errString(m.snap.Err)) + "\n")
	}
	if len(m.snap.Properties) == 0 && m.snap.State == favorites.StateReady {
		return muted.Render("no favorites yet, press f on a property in Browse")
	}
	for i, p := range m.snap.Properties {
		b.WriteString(m.row(i == m.cursor[tabFavorites], propertyLine(p)) + "\n")
	}
	return b.String()
}

func (m Model) renderDashboard() string {
	if m.stats == nil {
		return muted.Render("loading...")
	}
	card := func(label, value string) string {
		return cardBorder.Render(statValue.Render(value) + "\n" + statLabel.Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		card("my listings", fmt.Sprint(m.stats.TotalProperties)),
		card("active", fmt.Sprint(m.stats.ActiveListings)),
		card("favorites", fmt.Sprint(m.stats.FavoriteProperties)),
		card("avg price", formatPrice(m.stats.AveragePrice)),
	)
}

func (m Model) row(selected bool, text string) string {
	if selected {
		return selectedRow.Render("> " + text)
	}
	return "  " + text
}

func (m Model) renderStatus() string {
	if m.notice != "" && m.now().Before(m.noticeUntil) {
		if m.noticeErr {
			return statusBar.Render(errText.Render(m.notice))
		}
		return statusBar.Render(m.notice)
	}
	return statusBar.Render("tab switch · ↑/↓ move · / search · t kind · f favorite · x remove · r refresh · q quit")
}

func propertyLine(p domain.Property) string {
	title := p.Title
	if title == "" {
		title = p.Address
	}
	return fmt.Sprintf("%-28s %-14s %s, %s  %s  %dhab %dbaño %.0fm²",
		truncate(title, 28), p.TransactionType, p.Neighborhood, p.City,
		formatPrice(p.Price), p.Bedrooms, p.Bathrooms, p.TotalArea)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// formatPrice 千分位用点，和当地习惯一致
func formatPrice(v float64) string {
	s := fmt.Sprintf("%.0f", v)
	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(c)
	}
	return "$" + b.String()
}

func errString(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

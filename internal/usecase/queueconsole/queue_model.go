package queueconsole

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"modqueue/internal/bootstrap/logging"
	domainmoderation "modqueue/internal/domain/moderation"
	"modqueue/internal/errs"
	"modqueue/internal/usecase/moderation"
)

const (
	maxShownHistory = 5
	maxAuditLines   = 8
)

// QueueService is the part of the moderation service the console drives.
type QueueService interface {
	ListQueue(context.Context, moderation.QueueFilter) ([]moderation.QueueItem, error)
	GetRecord(context.Context, string) (domainmoderation.ContentRecord, error)
	QueueStats(context.Context) (moderation.QueueStats, error)
	ApplyTransition(context.Context, moderation.TransitionInput) (domainmoderation.ContentRecord, error)
}

type Options struct {
	Actor           string
	Kind            domainmoderation.Kind
	RefreshInterval time.Duration
}

// statusViews is the cycle the "f" key walks through. Empty means the actionable queue.
var statusViews = []domainmoderation.Status{
	"",
	domainmoderation.StatusPending,
	domainmoderation.StatusAppealed,
	domainmoderation.StatusRejected,
	domainmoderation.StatusApproved,
}

type queueModel struct {
	ctx             context.Context
	service         QueueService
	actor           string
	kind            domainmoderation.Kind
	refreshInterval time.Duration

	viewIndex     int
	items         []moderation.QueueItem
	stats         moderation.QueueStats
	selectedIndex int
	detail        domainmoderation.ContentRecord
	hasDetail     bool
	status        string
	auditLogs     []string
}

type queueLoadedMsg struct {
	items []moderation.QueueItem
	stats moderation.QueueStats
	err   error
}

type detailLoadedMsg struct {
	recordID string
	record   domainmoderation.ContentRecord
	err      error
}

type tickMsg struct{}

type actionDoneMsg struct {
	action   domainmoderation.Action
	recordID string
	status   domainmoderation.Status
	err      error
}

func NewQueueModel(ctx context.Context, service QueueService, options Options) tea.Model {
	interval := options.RefreshInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &queueModel{
		ctx:             ctx,
		service:         service,
		actor:           strings.TrimSpace(options.Actor),
		kind:            options.Kind,
		refreshInterval: interval,
		status:          "loading",
	}
}

func (m *queueModel) Init() tea.Cmd {
	return tea.Batch(m.loadQueueCmd(), m.tickCmd())
}

func (m *queueModel) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := message.(type) {
	case tickMsg:
		return m, tea.Batch(m.loadQueueCmd(), m.tickCmd())
	case queueLoadedMsg:
		if msg.err != nil {
			m.status = "refresh failed: " + msg.err.Error()
			return m, nil
		}
		m.items = msg.items
		m.stats = msg.stats
		if len(m.items) == 0 {
			m.selectedIndex = 0
			m.hasDetail = false
			m.status = "queue is empty"
			return m, nil
		}
		if m.selectedIndex >= len(m.items) {
			m.selectedIndex = len(m.items) - 1
		}
		if m.selectedIndex < 0 {
			m.selectedIndex = 0
		}
		m.status = fmt.Sprintf("refreshed, %d records", len(m.items))
		return m, m.loadDetailCmd()
	case detailLoadedMsg:
		selected, ok := m.selectedItem()
		if !ok || selected.Record.ID != msg.recordID {
			return m, nil
		}
		if msg.err != nil {
			m.hasDetail = false
			m.status = "detail failed: " + msg.err.Error()
			return m, nil
		}
		m.detail = msg.record
		m.hasDetail = true
		return m, nil
	case actionDoneMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("%s failed: %v", msg.action, msg.err)
		} else {
			m.status = fmt.Sprintf("%s done: %s is %s", msg.action, msg.recordID, msg.status)
		}
		m.appendAuditLog(msg)
		return m, m.loadQueueCmd()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "g":
			m.status = "refreshing"
			return m, m.loadQueueCmd()
		case "f":
			m.viewIndex = (m.viewIndex + 1) % len(statusViews)
			m.selectedIndex = 0
			m.hasDetail = false
			return m, m.loadQueueCmd()
		case "up", "k":
			if m.selectedIndex > 0 {
				m.selectedIndex--
				return m, m.loadDetailCmd()
			}
			return m, nil
		case "down", "j":
			if m.selectedIndex < len(m.items)-1 {
				m.selectedIndex++
				return m, m.loadDetailCmd()
			}
			return m, nil
		case "a":
			return m, m.transitionCmd(domainmoderation.ActionApprove)
		case "x":
			return m, m.transitionCmd(domainmoderation.ActionReject)
		}
	}
	return m, nil
}

func (m *queueModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true)
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("62"))
	riskStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	var builder strings.Builder
	builder.WriteString(titleStyle.Render("Moderation Queue"))
	builder.WriteString("\n")
	builder.WriteString(dimStyle.Render(fmt.Sprintf(
		"view=%s kind=%s actor=%s refresh=%s",
		viewLabel(statusViews[m.viewIndex]),
		firstNonEmpty(string(m.kind), "all"),
		firstNonEmpty(m.actor, "-"),
		m.refreshInterval,
	)))
	builder.WriteString("\n")
	builder.WriteString(dimStyle.Render(statsLine(m.stats)))
	builder.WriteString("\n\n")

	builder.WriteString(sectionStyle.Render("Queue"))
	builder.WriteString("\n")
	if len(m.items) == 0 {
		builder.WriteString(dimStyle.Render("- no records"))
		builder.WriteString("\n\n")
	} else {
		for index, item := range m.items {
			line := fmt.Sprintf(
				"%s [%s] %s spam=%s quality=%s author=%s",
				item.Record.ID,
				item.Record.Status,
				item.Record.Kind,
				item.SpamBand,
				item.QualityBand,
				item.Record.Author.ID,
			)
			switch {
			case index == m.selectedIndex:
				builder.WriteString(selectedStyle.Render("> " + line))
			case item.SpamBand == domainmoderation.BandHigh:
				builder.WriteString("  " + riskStyle.Render(line))
			default:
				builder.WriteString("  " + line)
			}
			builder.WriteString("\n")
		}
		builder.WriteString("\n")
	}

	builder.WriteString(sectionStyle.Render("Detail"))
	builder.WriteString("\n")
	if !m.hasDetail {
		builder.WriteString(dimStyle.Render("- no detail"))
		builder.WriteString("\n\n")
	} else {
		r := m.detail
		builder.WriteString(fmt.Sprintf("Record: %s (%s)\n", r.ID, r.Kind))
		builder.WriteString(fmt.Sprintf("Author: %s %s\n", r.Author.ID, r.Author.DisplayName))
		builder.WriteString(fmt.Sprintf("Status: %s\n", r.Status))
		builder.WriteString(fmt.Sprintf("Scores: quality=%d spam=%d\n", r.QualityScore, r.SpamScore))
		builder.WriteString(fmt.Sprintf("Flags: %s\n", firstNonEmpty(strings.Join(r.Flags, ","), "-")))
		builder.WriteString(fmt.Sprintf("Body: %s\n", firstLine(r.Body)))
		builder.WriteString("\nHistory:\n")
		if len(r.History) == 0 {
			builder.WriteString("- none\n")
		} else {
			start := len(r.History) - maxShownHistory
			if start < 0 {
				start = 0
			}
			for _, entry := range r.History[start:] {
				builder.WriteString(fmt.Sprintf("- #%d %s by %s: %s\n", entry.Seq, entry.Action, entry.ModeratorID, entry.Reason))
			}
		}
		builder.WriteString("\n")
	}

	builder.WriteString(sectionStyle.Render("Status"))
	builder.WriteString("\n")
	builder.WriteString("- " + firstNonEmpty(m.status, "ready"))
	builder.WriteString("\n\n")

	builder.WriteString(sectionStyle.Render("Audit Log"))
	builder.WriteString("\n")
	if len(m.auditLogs) == 0 {
		builder.WriteString(dimStyle.Render("- no actions"))
		builder.WriteString("\n\n")
	} else {
		for _, line := range m.auditLogs {
			builder.WriteString("- " + line)
			builder.WriteString("\n")
		}
		builder.WriteString("\n")
	}

	builder.WriteString(dimStyle.Render("Keys: up/k down/j move  g refresh  f cycle view  a quick approve  x quick reject  q quit"))
	return builder.String()
}

func (m *queueModel) tickCmd() tea.Cmd {
	return tea.Tick(m.refreshInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m *queueModel) loadQueueCmd() tea.Cmd {
	filter := moderation.QueueFilter{Status: statusViews[m.viewIndex], Kind: m.kind}
	return func() tea.Msg {
		items, err := m.service.ListQueue(m.ctx, filter)
		if err != nil {
			return queueLoadedMsg{err: err}
		}
		stats, err := m.service.QueueStats(m.ctx)
		if err != nil {
			return queueLoadedMsg{err: err}
		}
		return queueLoadedMsg{items: items, stats: stats}
	}
}

func (m *queueModel) loadDetailCmd() tea.Cmd {
	selected, ok := m.selectedItem()
	if !ok {
		return nil
	}
	recordID := selected.Record.ID
	return func() tea.Msg {
		record, err := m.service.GetRecord(m.ctx, recordID)
		return detailLoadedMsg{recordID: recordID, record: record, err: err}
	}
}

func (m *queueModel) transitionCmd(action domainmoderation.Action) tea.Cmd {
	selected, ok := m.selectedItem()
	if !ok {
		m.status = "no record selected"
		return nil
	}
	if m.actor == "" {
		m.status = "set --actor to moderate from the console"
		return nil
	}

	recordID := selected.Record.ID
	actor := m.actor
	return func() tea.Msg {
		record, err := m.service.ApplyTransition(m.ctx, moderation.TransitionInput{
			RecordID: recordID,
			Action:   action,
			ActorID:  actor,
			Quick:    true,
		})
		if err != nil {
			logging.Warn(
				logging.WithAttrs(m.ctx, slog.String("component", "usecase.queueconsole")),
				"console transition failed",
				slog.String("record_id", recordID),
				slog.String("action", string(action)),
				slog.Any("err", errs.Loggable(err)),
			)
		}
		return actionDoneMsg{action: action, recordID: recordID, status: record.Status, err: err}
	}
}

func (m *queueModel) selectedItem() (moderation.QueueItem, bool) {
	if m.selectedIndex < 0 || m.selectedIndex >= len(m.items) {
		return moderation.QueueItem{}, false
	}
	return m.items[m.selectedIndex], true
}

func (m *queueModel) appendAuditLog(msg actionDoneMsg) {
	outcome := string(msg.status)
	if msg.err != nil {
		outcome = "error: " + string(domainmoderation.KindOf(msg.err))
	}
	line := fmt.Sprintf("%s %s %s -> %s", time.Now().UTC().Format(time.RFC3339), msg.action, msg.recordID, outcome)
	m.auditLogs = append(m.auditLogs, line)
	if len(m.auditLogs) > maxAuditLines {
		m.auditLogs = m.auditLogs[len(m.auditLogs)-maxAuditLines:]
	}
}

func viewLabel(status domainmoderation.Status) string {
	if status == "" {
		return "actionable"
	}
	return string(status)
}

func statsLine(stats moderation.QueueStats) string {
	parts := make([]string, 0, len(stats.ByStatus)+1)
	for _, status := range domainmoderation.AllStatuses() {
		parts = append(parts, fmt.Sprintf("%s=%d", status, stats.ByStatus[status]))
	}
	parts = append(parts, fmt.Sprintf("total=%d", stats.Total))
	return strings.Join(parts, " ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func firstLine(body string) string {
	trimmed := strings.TrimSpace(body)
	if idx := strings.IndexByte(trimmed, '\n'); idx >= 0 {
		return trimmed[:idx] + " ..."
	}
	return trimmed
}

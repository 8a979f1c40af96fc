package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	domainmoderation "modqueue/internal/domain/moderation"
	"modqueue/internal/usecase/moderation"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle = map[domainmoderation.Status]lipgloss.Style{
		domainmoderation.StatusPending:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		domainmoderation.StatusApproved: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		domainmoderation.StatusRejected: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		domainmoderation.StatusAppealed: lipgloss.NewStyle().Foreground(lipgloss.Color("63")),
	}
	bandStyle = map[domainmoderation.Band]lipgloss.Style{
		domainmoderation.BandLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		domainmoderation.BandMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		domainmoderation.BandHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

func renderStatus(status domainmoderation.Status) string {
	if style, ok := statusStyle[status]; ok {
		return style.Render(string(status))
	}
	return string(status)
}

// renderSpamBand colors high spam red; renderQualityBand colors low quality red.
func renderSpamBand(band domainmoderation.Band) string {
	return bandStyle[band].Render(string(band))
}

func renderQualityBand(band domainmoderation.Band) string {
	switch band {
	case domainmoderation.BandLow:
		return bandStyle[domainmoderation.BandHigh].Render(string(band))
	case domainmoderation.BandHigh:
		return bandStyle[domainmoderation.BandLow].Render(string(band))
	default:
		return bandStyle[band].Render(string(band))
	}
}

func writeQueue(w io.Writer, items []moderation.QueueItem) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "queue is empty")
		return err
	}

	rows := make([]string, 0, len(items)+1)
	rows = append(rows, headerStyle.Render(fmt.Sprintf("%-36s  %-8s  %-9s  %-14s  %-14s  %s", "ID", "KIND", "STATUS", "SPAM", "QUALITY", "AUTHOR")))
	for _, item := range items {
		r := item.Record
		rows = append(rows, fmt.Sprintf(
			"%-36s  %-8s  %s  %s  %s  %s",
			r.ID,
			r.Kind,
			padStyled(renderStatus(r.Status), string(r.Status), 9),
			padStyled(renderSpamBand(item.SpamBand), fmt.Sprintf("%s(%d)", item.SpamBand, r.SpamScore), 14, fmt.Sprintf("(%d)", r.SpamScore)),
			padStyled(renderQualityBand(item.QualityBand), fmt.Sprintf("%s(%d)", item.QualityBand, r.QualityScore), 14, fmt.Sprintf("(%d)", r.QualityScore)),
			authorLabel(r.Author),
		))
	}
	_, err := fmt.Fprintln(w, strings.Join(rows, "\n"))
	return err
}

// padStyled pads a styled cell by the width of its plain text.
func padStyled(styled string, plain string, width int, suffix ...string) string {
	out := styled + strings.Join(suffix, "")
	if pad := width - len(plain); pad > 0 {
		out += strings.Repeat(" ", pad)
	}
	return out
}

func writeStats(w io.Writer, stats moderation.QueueStats) error {
	parts := make([]string, 0, len(stats.ByStatus))
	for _, status := range domainmoderation.AllStatuses() {
		parts = append(parts, fmt.Sprintf("%s=%d", renderStatus(status), stats.ByStatus[status]))
	}
	_, err := fmt.Fprintf(w, "%s %s total=%d\n", headerStyle.Render("Stats:"), strings.Join(parts, " "), stats.Total)
	return err
}

func writeRecord(w io.Writer, record domainmoderation.ContentRecord) error {
	lines := []string{
		headerStyle.Render("Record: ") + record.ID,
		"Kind: " + string(record.Kind),
		"Author: " + authorLabel(record.Author),
		"Status: " + renderStatus(record.Status),
		fmt.Sprintf("Scores: quality=%d (%s) spam=%d (%s)",
			record.QualityScore, domainmoderation.QualityBand(record.QualityScore),
			record.SpamScore, domainmoderation.SpamBand(record.SpamScore)),
		"Flags: " + joinOrDash(record.Flags),
		"SubmittedAt: " + record.SubmittedAt.Format(time.RFC3339),
		"Notes: " + dashIfEmpty(record.ModeratorNotes),
		fmt.Sprintf("Allowed: %s", joinActions(domainmoderation.AllowedActions(record.Status))),
		"",
		headerStyle.Render("Body:"),
		record.Body,
		"",
	}
	if len(record.History) == 0 {
		lines = append(lines, headerStyle.Render("History:")+" none")
	} else {
		lines = append(lines, headerStyle.Render("History:"))
		for _, entry := range record.History {
			lines = append(lines, fmt.Sprintf(
				"  #%d %s %s -> %s by %s at %s\n     %s",
				entry.Seq,
				entry.Action,
				entry.FromStatus,
				renderStatus(entry.ToStatus),
				entry.ModeratorID,
				entry.Timestamp.Format(time.RFC3339),
				dimStyle.Render(entry.Reason),
			))
		}
	}
	_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))
	return err
}

func writeBulkResult(w io.Writer, result moderation.BulkResult) error {
	for _, item := range result.Items {
		line := fmt.Sprintf("%-36s  %-8s", item.RecordID, item.Outcome)
		if item.Status != "" {
			line += "  " + renderStatus(item.Status)
		}
		if item.Error != "" {
			line += "  " + dimStyle.Render(string(item.ErrorKind)+": "+item.Error)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	summary := fmt.Sprintf("succeeded=%d failed=%d skipped=%d", result.Succeeded, result.Failed, result.Skipped)
	if result.Cancelled {
		summary += " (cancelled)"
	}
	_, err := fmt.Fprintln(w, headerStyle.Render("Bulk: ")+summary)
	return err
}

func authorLabel(author domainmoderation.Author) string {
	if author.DisplayName == "" {
		return author.ID
	}
	return author.DisplayName + " <" + author.ID + ">"
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ",")
}

func joinActions(actions []domainmoderation.Action) string {
	if len(actions) == 0 {
		return "none (final)"
	}
	out := make([]string, 0, len(actions))
	for _, a := range actions {
		out = append(out, string(a))
	}
	return strings.Join(out, ",")
}

func dashIfEmpty(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

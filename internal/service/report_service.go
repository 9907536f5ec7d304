package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"daily-timegrid/internal/timegrid"
)

// ReportService builds human-readable summaries of logged time.
type ReportService struct {
	stats *StatsService
}

func NewReportService(stats *StatsService) *ReportService {
	return &ReportService{stats: stats}
}

// Summary renders the period of the given mode containing date.
func (s *ReportService) Summary(ctx context.Context, date time.Time, mode timegrid.ViewMode) (string, error) {
	summary, err := s.stats.Aggregate(ctx, date, mode)
	if err != nil {
		return "", err
	}
	return FormatSummary(summary), nil
}

// FormatSummary renders a stats summary as Telegram HTML.
func FormatSummary(summary Summary) string {
	var builder strings.Builder
	builder.WriteString("📊 <b>Распределение времени</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", periodLabel(summary)))

	if len(summary.Categories) == 0 {
		builder.WriteString("— ничего не отмечено\n")
	}
	for _, c := range summary.Categories {
		builder.WriteString(fmt.Sprintf("%s %s — %s ч (%s)\n",
			ColorIcon(c.Color), html.EscapeString(c.Name), formatHours(c.Hours), percent(c.Hours, summary.TotalHours)))
	}

	builder.WriteString(fmt.Sprintf("\n⬜ Не отмечено — %s ч (%s)\n",
		formatHours(summary.UnloggedHours), percent(summary.UnloggedHours, summary.TotalHours)))
	builder.WriteString(fmt.Sprintf("⏱ Всего — %s ч", formatHours(summary.TotalHours)))

	return strings.TrimSpace(builder.String())
}

func periodLabel(summary Summary) string {
	start := summary.Start.Format("02.01.2006")
	switch summary.Mode {
	case timegrid.ViewWeek:
		return fmt.Sprintf("неделя %s – %s", start, summary.End.Format("02.01.2006"))
	case timegrid.ViewMonth:
		return "месяц " + summary.Start.Format("01.2006")
	default:
		if summary.Start.Equal(summary.End) {
			return start
		}
		return fmt.Sprintf("%s – %s", start, summary.End.Format("02.01.2006"))
	}
}

func formatHours(h float64) string {
	return fmt.Sprintf("%.1f", h)
}

func percent(part, total float64) string {
	if total <= 0 {
		return "0%"
	}
	return fmt.Sprintf("%.0f%%", part/total*100)
}

// ColorIcon maps a category color to the nearest colored square emoji.
func ColorIcon(color string) string {
	var r, g, b int
	if _, err := fmt.Sscanf(strings.TrimPrefix(color, "#"), "%02x%02x%02x", &r, &g, &b); err != nil {
		return "⬛"
	}
	type swatch struct {
		icon    string
		r, g, b int
	}
	swatches := []swatch{
		{"🟥", 239, 68, 68},
		{"🟧", 249, 115, 22},
		{"🟨", 245, 158, 11},
		{"🟩", 16, 185, 129},
		{"🟦", 59, 130, 246},
		{"🟪", 139, 92, 246},
		{"🟫", 146, 64, 14},
		{"⬛", 31, 41, 55},
		{"⬜", 229, 231, 235},
	}
	best, bestDist := "⬛", -1
	for _, s := range swatches {
		dr, dg, db := r-s.r, g-s.g, b-s.b
		dist := dr*dr + dg*dg + db*db
		if bestDist < 0 || dist < bestDist {
			best, bestDist = s.icon, dist
		}
	}
	return best
}

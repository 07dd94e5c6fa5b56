package render

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/godilite/campaign-analyzer/internal/campaign"
)

var (
	colorCyan  = lipgloss.Color("#00FFFF")
	colorGray  = lipgloss.Color("#666666")
	colorWhite = lipgloss.Color("#FFFFFF")
)

// Terminal writes reports as bordered tables. Styles follow the color profile
// of the destination writer, so piping to a file yields plain text.
type Terminal struct {
	w      io.Writer
	title  lipgloss.Style
	header lipgloss.Style
	cell   lipgloss.Style
	number lipgloss.Style
	dim    lipgloss.Style
	border lipgloss.Style
}

func NewTerminal(w io.Writer) *Terminal {
	r := lipgloss.NewRenderer(w)
	return &Terminal{
		w:      w,
		title:  r.NewStyle().Bold(true).Foreground(colorCyan),
		header: r.NewStyle().Bold(true).Foreground(colorWhite).Padding(0, 1),
		cell:   r.NewStyle().Padding(0, 1),
		number: r.NewStyle().Padding(0, 1).Align(lipgloss.Right),
		dim:    r.NewStyle().Foreground(colorGray),
		border: r.NewStyle().Foreground(colorGray),
	}
}

// WriteReport prints the summary table followed by one table per leaderboard.
// An empty report prints a single notice instead of empty tables.
func (t *Terminal) WriteReport(report campaign.Report) error {
	if report.Empty() {
		_, err := fmt.Fprintln(t.w, t.dim.Render(EmptyMessage(report.Stats)))
		return err
	}

	if _, err := fmt.Fprintln(t.w, t.title.Render("Campaign Performance Summary")); err != nil {
		return err
	}
	rows := make([][]string, 0, len(report.Summary))
	for _, a := range report.Summary {
		rows = append(rows, SummaryRow(a))
	}
	if _, err := fmt.Fprintln(t.w, t.table(SummaryHeaders, rows, 0)); err != nil {
		return err
	}

	for _, lb := range report.Leaderboards {
		if err := t.writeLeaderboard(lb, report.Stats.LeaderboardSize); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintln(t.w, t.dim.Render(StatsLine(report.Stats)))
	return err
}

func (t *Terminal) writeLeaderboard(lb campaign.Leaderboard, size int) error {
	if _, err := fmt.Fprintln(t.w, t.title.Render(LeaderboardTitle(lb, size))); err != nil {
		return err
	}
	rows := make([][]string, 0, len(lb.Entries))
	for _, e := range lb.Entries {
		rows = append(rows, []string{
			strconv.Itoa(e.Rank),
			e.Campaign,
			FormatCount(e.Sessions),
			FormatValue(lb.Metric, e.Value),
		})
	}
	_, err := fmt.Fprintln(t.w, t.table([]string{"#", "Campaign", "Sessions", lb.Label}, rows, 1))
	return err
}

// table left-aligns the labelCol column and right-aligns the rest.
func (t *Terminal) table(headers []string, rows [][]string, labelCol int) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(t.border).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return t.header
			case col == labelCol:
				return t.cell
			default:
				return t.number
			}
		}).
		Render()
}

// LeaderboardTitle reads like "Top 10 Campaigns by Conversion Rate (%)".
func LeaderboardTitle(lb campaign.Leaderboard, size int) string {
	if size <= 0 {
		size = campaign.DefaultLeaderboardSize
	}
	return fmt.Sprintf("Top %d Campaigns by %s", size, lb.Label)
}

// EmptyMessage explains why a report has no rows.
func EmptyMessage(s campaign.RunStats) string {
	if s.CampaignsExcluded > 0 {
		return fmt.Sprintf("No campaign has at least %d sessions (%d excluded).", s.MinSessions, s.CampaignsExcluded)
	}
	return "No campaign data found in the upload."
}

// StatsLine summarizes how the input was reduced.
func StatsLine(s campaign.RunStats) string {
	line := fmt.Sprintf("%d rows read, %d without a campaign, %d campaigns", s.RowsRead, s.RowsDropped, s.Campaigns)
	if s.MinSessions > 0 {
		line += fmt.Sprintf(", %d below %d sessions", s.CampaignsExcluded, s.MinSessions)
	}
	return line
}

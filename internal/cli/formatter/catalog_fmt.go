package formatter

import (
	"github.com/alexanderramin/timetree/internal/domain"
)

func FormatDurations(durations []*domain.Duration) string {
	if len(durations) == 0 {
		return RenderBox("Durations", Dim("No durations"))
	}
	headers := []string{"VALUE", "STATE"}
	rows := make([][]string, len(durations))
	for i, d := range durations {
		rows[i] = []string{Bold(domain.FormatAmount(d.ID)), ActivePill(d.IsActive)}
	}
	return RenderBox("Durations", RenderTable(headers, rows, 0))
}

func FormatCollaborators(collaborators []*domain.Collaborator) string {
	if len(collaborators) == 0 {
		return RenderBox("Collaborators", Dim("No collaborators"))
	}
	headers := []string{"LOGIN", "NAME", "STATE", "ID"}
	rows := make([][]string, len(collaborators))
	for i, c := range collaborators {
		rows[i] = []string{Bold(c.Login), c.DisplayName(), ActivePill(c.IsActive), TruncID(c.ID)}
	}
	return RenderBox("Collaborators", RenderTable(headers, rows))
}

// ContributionLabels maps ids to display text; unknown ids fall back to a
// truncated id.
type ContributionLabels struct {
	Tasks         map[string]string
	Collaborators map[string]string
}

func (l ContributionLabels) label(m map[string]string, id string) string {
	if s, ok := m[id]; ok {
		return s
	}
	return TruncID(id)
}

// FormatContributions renders ledger entries with a total line.
func FormatContributions(contribs []*domain.Contribution, labels ContributionLabels) string {
	if len(contribs) == 0 {
		return RenderBox("Contributions", Dim("No contributions"))
	}
	headers := []string{"DATE", "COLLABORATOR", "TASK", "DURATION"}
	rows := make([][]string, 0, len(contribs)+1)
	var total int64
	for _, c := range contribs {
		rows = append(rows, []string{
			Day(c.Date),
			labels.label(labels.Collaborators, c.ContributorID),
			labels.label(labels.Tasks, c.TaskID),
			Amount(c.DurationID),
		})
		total += c.DurationID
	}
	rows = append(rows, []string{StyleHeader.Render("TOTAL"), "", "", StyleBold.Render(domain.FormatAmount(total))})
	return RenderBox("Contributions", RenderTable(headers, rows, 3))
}

package view

import (
	"EarnView/internal/domain/models"
	"EarnView/internal/query"
)

// PageInput is everything a dashboard page is rendered from.
type PageInput struct {
	SessionID string
	Upcoming  query.State[[]models.UpcomingEarnings]
	Model     query.State[models.ModelStatus]
	// Selected is empty until the first selection.
	Selected string
	History  query.State[models.EarningsHistoryResponse]
}

// Page is the full dashboard view model.
type Page struct {
	SessionID string          `json:"session_id"`
	Selected  string          `json:"selected,omitempty"`
	Model     ModelPanel      `json:"model"`
	Upcoming  UpcomingSection `json:"upcoming"`
	Chart     Chart           `json:"chart"`
}

// BuildPage composes the page. The history state is ignored while nothing
// is selected.
func BuildPage(in PageInput) Page {
	chart := NoSelection()
	if in.Selected != "" {
		chart = BuildChart(in.Selected, in.History)
	}
	return Page{
		SessionID: in.SessionID,
		Selected:  in.Selected,
		Model:     BuildModelPanel(in.Model),
		Upcoming:  BuildUpcoming(in.Upcoming),
		Chart:     chart,
	}
}

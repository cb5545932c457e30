package view

import (
	"EarnView/internal/domain/models"
	"EarnView/internal/query"
	"EarnView/pkg/util"
)

// Badge is the opportunity category of a row. BadgeNone means no badge is
// drawn, which differs from BadgeNeutral.
type Badge string

const (
	BadgeNone        Badge = ""
	BadgeOverpriced  Badge = "Overpriced"
	BadgeUnderpriced Badge = "Underpriced"
	BadgeNeutral     Badge = "Neutral"
)

// Scores strictly beyond these bounds leave the neutral band.
const (
	OverpricedAbove  = 5.0
	UnderpricedBelow = -5.0
)

// Classify maps an opportunity score to its badge.
func Classify(score *float64) Badge {
	switch {
	case score == nil:
		return BadgeNone
	case *score > OverpricedAbove:
		return BadgeOverpriced
	case *score < UnderpricedBelow:
		return BadgeUnderpriced
	default:
		return BadgeNeutral
	}
}

// Class is the CSS modifier of the badge.
func (b Badge) Class() string {
	switch b {
	case BadgeOverpriced:
		return "badge-red"
	case BadgeUnderpriced:
		return "badge-green"
	case BadgeNeutral:
		return "badge-yellow"
	default:
		return ""
	}
}

const (
	tableDateLayout     = "Jan 02, 2006"
	NoUpcomingMessage   = "No upcoming earnings data available"
	UpcomingFailMessage = "Failed to load earnings data. Please try again later."
)

// Row is one formatted table row.
type Row struct {
	Symbol        string `json:"symbol"`
	EarningsDate  string `json:"earnings_date"`
	CurrentPrice  string `json:"current_price"`
	IVProxy       string `json:"iv_proxy"`
	PredictedMove string `json:"predicted_move"`
	Badge         Badge  `json:"badge,omitempty"`
	Score         string `json:"score"`
}

// Table is the upcoming-earnings table. Empty tables carry a message
// instead of an empty body.
type Table struct {
	Rows         []Row  `json:"rows"`
	EmptyMessage string `json:"empty_message,omitempty"`
}

// BuildTable formats records in input order.
func BuildTable(records []models.UpcomingEarnings) Table {
	if len(records) == 0 {
		return Table{Rows: []Row{}, EmptyMessage: NoUpcomingMessage}
	}
	rows := make([]Row, 0, len(records))
	for _, r := range records {
		iv := r.IVProxy
		rows = append(rows, Row{
			Symbol:        r.Symbol,
			EarningsDate:  util.FormatDateDefault(r.EarningsDate, tableDateLayout),
			CurrentPrice:  FormatCurrency(r.CurrentPrice),
			IVProxy:       FormatPercent(&iv),
			PredictedMove: FormatPercent(r.PredictedGapPct),
			Badge:         Classify(r.OpportunityScore),
			Score:         FormatPercent(r.OpportunityScore),
		})
	}
	return Table{Rows: rows}
}

// Status names the rendering branch of a section.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusFailed  Status = "failed"
	StatusEmpty   Status = "empty"
	StatusReady   Status = "ready"
)

// UpcomingSection is the table section of the page.
type UpcomingSection struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Table   *Table `json:"table,omitempty"`
}

// BuildUpcoming renders the section for the current query state.
func BuildUpcoming(st query.State[[]models.UpcomingEarnings]) UpcomingSection {
	return query.Match(st,
		func() UpcomingSection { return UpcomingSection{Status: StatusLoading} },
		func(error) UpcomingSection {
			return UpcomingSection{Status: StatusFailed, Message: UpcomingFailMessage}
		},
		func(records []models.UpcomingEarnings) UpcomingSection {
			t := BuildTable(records)
			s := StatusReady
			if len(t.Rows) == 0 {
				s = StatusEmpty
			}
			return UpcomingSection{Status: s, Message: t.EmptyMessage, Table: &t}
		},
	)
}

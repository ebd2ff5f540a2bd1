package models

import "fmt"

// Satisfaction is the developer's self-reported satisfaction on a fixed 1-5 scale.
type Satisfaction int

const (
	SatisfactionVeryUnsatisfied Satisfaction = 1
	SatisfactionUnsatisfied     Satisfaction = 2
	SatisfactionNeutral         Satisfaction = 3
	SatisfactionSatisfied       Satisfaction = 4
	SatisfactionVerySatisfied   Satisfaction = 5
)

// SatisfactionLevel describes one point of the satisfaction scale.
type SatisfactionLevel struct {
	Level Satisfaction
	Emoji string
	Label string
}

// SatisfactionLevels is the scale in ascending order.
var SatisfactionLevels = []SatisfactionLevel{
	{Level: SatisfactionVeryUnsatisfied, Emoji: "😫", Label: "Muy Insatisfecho"},
	{Level: SatisfactionUnsatisfied, Emoji: "😕", Label: "Insatisfecho"},
	{Level: SatisfactionNeutral, Emoji: "😐", Label: "Neutral"},
	{Level: SatisfactionSatisfied, Emoji: "🙂", Label: "Satisfecho"},
	{Level: SatisfactionVerySatisfied, Emoji: "🤩", Label: "Muy Satisfecho"},
}

// Valid reports whether s is on the scale.
func (s Satisfaction) Valid() bool {
	return s >= SatisfactionVeryUnsatisfied && s <= SatisfactionVerySatisfied
}

// Label returns the human label, or the bare number for off-scale values.
func (s Satisfaction) Label() string {
	if !s.Valid() {
		return fmt.Sprintf("%d", int(s))
	}
	return SatisfactionLevels[s-1].Label
}

// Emoji returns the emoji for s, or "" for off-scale values.
func (s Satisfaction) Emoji() string {
	if !s.Valid() {
		return ""
	}
	return SatisfactionLevels[s-1].Emoji
}

// Review is one submitted monthly check-in.
//
// JSON names match the shape persisted by the local store and exchanged with
// earlier versions of the application.
type Review struct {
	ID                string       `json:"id"`
	Identity          string       `json:"developerEmail" validate:"required,contains=@"`
	Period            string       `json:"monthId" validate:"required,datetime=2006-01"`
	PeriodLabel       string       `json:"monthName"`
	CompletionPercent int          `json:"completionPercentage" validate:"min=0,max=100,step5"`
	BugCount          int          `json:"bugCount" validate:"min=0"`
	Satisfaction      Satisfaction `json:"satisfaction" validate:"min=1,max=5"`
	Comments          string       `json:"comments,omitempty"`
	CreatedAt         string       `json:"timestamp"`
}

// HasComments reports whether the review carries a comment.
func (r *Review) HasComments() bool {
	return r.Comments != ""
}

// SheetRow is one row of the remote check-in sheet.
type SheetRow struct {
	Row          int64  `json:"row,omitempty"`
	Email        string `json:"email"`
	Completion   int    `json:"completion"`
	Bugs         int    `json:"bugs"`
	Satisfaction int    `json:"satisfaction"`
	Comments     string `json:"comments"`
	Timestamp    string `json:"timestamp"`
	MonthID      string `json:"monthId"`
	MonthName    string `json:"monthName"`
}

// SheetRowFromReview maps a review onto the sheet's column layout.
func SheetRowFromReview(r *Review) *SheetRow {
	return &SheetRow{
		Email:        r.Identity,
		Completion:   r.CompletionPercent,
		Bugs:         r.BugCount,
		Satisfaction: int(r.Satisfaction),
		Comments:     r.Comments,
		Timestamp:    r.CreatedAt,
		MonthID:      r.Period,
		MonthName:    r.PeriodLabel,
	}
}

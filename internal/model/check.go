package model

import "time"

// Check is a completed verification as recorded in history.
type Check struct {
	CheckedAt  time.Time
	Confidence *Confidence
	ID         string
	Channel    Channel
	Subject    string
	Label      Label
	Display    string
	Raw        string
}

// CheckFromVerdict builds a history record for a verdict.
func CheckFromVerdict(id string, v Verdict, at time.Time) Check {
	return Check{
		ID:         id,
		Channel:    v.Channel,
		Subject:    v.SubjectEcho,
		Label:      v.Label,
		Display:    v.Display,
		Confidence: v.Confidence,
		Raw:        string(v.Raw),
		CheckedAt:  at,
	}
}

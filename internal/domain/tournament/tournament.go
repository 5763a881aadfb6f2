package tournament

import (
	"context"
	"sort"
)

type Status string

const (
	StatusRegistration Status = "registration"
	StatusPhase1       Status = "phase1"
	StatusPhase2       Status = "phase2"
	StatusKnockout     Status = "knockout"
	StatusCompleted    Status = "completed"
)

// ActiveStatuses are the statuses during which matches are played.
var ActiveStatuses = []Status{StatusPhase1, StatusPhase2, StatusKnockout}

// Schedule is the civil slot of a match. Date is optional.
type Schedule struct {
	Date      string `json:"date,omitempty"`
	StartTime string `json:"startTime"`
	Court     string `json:"court,omitempty"`
}

type Group struct {
	Schedule *Schedule `json:"schedule,omitempty"`
}

type Phase struct {
	Groups map[string]Group `json:"groups,omitempty"`
}

type KnockoutMatch struct {
	ID       string    `json:"id"`
	Schedule *Schedule `json:"schedule,omitempty"`
}

type Knockout struct {
	QuarterFinals []KnockoutMatch `json:"quarterFinals,omitempty"`
	SemiFinals    []KnockoutMatch `json:"semiFinals,omitempty"`
	Final         *KnockoutMatch  `json:"final,omitempty"`
}

// Bracket is the JSON document stored alongside a tournament.
type Bracket struct {
	Phase1   *Phase    `json:"phase1,omitempty"`
	Phase2   *Phase    `json:"phase2,omitempty"`
	Knockout *Knockout `json:"knockout,omitempty"`
}

type Tournament struct {
	ID      string
	Name    string
	Status  Status
	Bracket Bracket
}

// Match is a scheduled match flattened out of the bracket.
type Match struct {
	Type     string
	Name     string
	Schedule Schedule
}

// ScheduledMatches lists the matches of the tournament's current stage that carry a schedule.
func (t *Tournament) ScheduledMatches() []Match {
	var out []Match
	switch t.Status {
	case StatusPhase1:
		out = groupMatches(t.Bracket.Phase1, "Phase 1 Group")
	case StatusPhase2:
		out = groupMatches(t.Bracket.Phase2, "Phase 2 Group")
	case StatusKnockout:
		ko := t.Bracket.Knockout
		if ko == nil {
			return nil
		}
		out = append(out, knockoutMatches(ko.QuarterFinals, "Quarter Final")...)
		out = append(out, knockoutMatches(ko.SemiFinals, "Semi Final")...)
		if ko.Final != nil && ko.Final.Schedule != nil {
			out = append(out, Match{Type: "Final", Name: "final", Schedule: *ko.Final.Schedule})
		}
	}
	return out
}

func groupMatches(p *Phase, typ string) []Match {
	if p == nil {
		return nil
	}
	names := make([]string, 0, len(p.Groups))
	for name := range p.Groups {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []Match
	for _, name := range names {
		if s := p.Groups[name].Schedule; s != nil {
			out = append(out, Match{Type: typ, Name: name, Schedule: *s})
		}
	}
	return out
}

func knockoutMatches(ms []KnockoutMatch, typ string) []Match {
	var out []Match
	for _, m := range ms {
		if m.Schedule != nil {
			out = append(out, Match{Type: typ, Name: m.ID, Schedule: *m.Schedule})
		}
	}
	return out
}

// Repository defines the reads the reminder engine needs from tournaments.
type Repository interface {
	ListByStatuses(ctx context.Context, statuses []Status) ([]*Tournament, error)
	ListApprovedParticipants(ctx context.Context, tournamentID string) ([]string, error)
}

package entity

import (
	"math"
	"time"
)

type TaskKind string

const (
	TaskBinary       TaskKind = "binary"
	TaskQuantitative TaskKind = "quantitative"
)

type Task struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	Description string   `json:"desc,omitempty"`
	Kind        TaskKind `json:"kind"`
	Unit        string   `json:"unit,omitempty"`
}

type Goal struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Tasks     []Task    `json:"tasks"`
}

// Result is the value recorded for one task on one day. Kind discriminates
// which side of the union is meaningful: Success/Reason for binary tasks,
// Value for quantitative ones.
type Result struct {
	Kind    TaskKind `json:"kind"`
	Success bool     `json:"success,omitempty"`
	Reason  *string  `json:"reason,omitempty"`
	Value   float64  `json:"value,omitempty"`
}

// BinarySuccess records a successful binary result. A success never carries
// a reason, so any previously stored one is dropped.
func BinarySuccess() Result {
	return Result{Kind: TaskBinary, Success: true}
}

// BinaryFailure records a failed binary result with the given reason.
// An empty reason is kept as "" rather than absent.
func BinaryFailure(reason string) Result {
	return Result{Kind: TaskBinary, Success: false, Reason: &reason}
}

func Quantity(value float64) Result {
	return Result{Kind: TaskQuantitative, Value: value}
}

type DailyEntry struct {
	Date    string            `json:"date"`
	Results map[string]Result `json:"results"`
}

type AppState struct {
	CurrentGoal *Goal        `json:"current_goal"`
	History     []DailyEntry `json:"history"`
}

// DefaultState is the first-run state: no goal, empty history.
func DefaultState() *AppState {
	return &AppState{History: []DailyEntry{}}
}

const dateKeyLayout = "2006-01-02"

// DateKey reduces an instant to the calendar-day key used throughout
// history. Local wall clock, not UTC, so entries roll over at the user's
// midnight.
func DateKey(t time.Time) string {
	return t.Format(dateKeyLayout)
}

// DaysRemaining counts whole days from now until the goal's end date,
// clamped at zero once the window has passed.
func (g *Goal) DaysRemaining(now time.Time) int {
	days := int(math.Ceil(g.EndDate.Sub(now).Hours() / 24))
	if days < 0 {
		return 0
	}
	return days
}

// ProgressPercent reports how far through the goal window now is, in [0, 100].
func (g *Goal) ProgressPercent(now time.Time) float64 {
	total := g.EndDate.Sub(g.StartDate).Hours()
	if total <= 0 {
		return 100
	}
	percent := now.Sub(g.StartDate).Hours() / total * 100
	return math.Min(100, math.Max(0, percent))
}

// TaskByID looks a task up in the goal's ordered task list.
func (g *Goal) TaskByID(id string) (Task, bool) {
	for _, t := range g.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}

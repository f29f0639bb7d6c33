package models

import (
	"time"
)

// LifecycleState is the archival state of a content item. It is never stored
// locally; the platform's trash timestamps are the source of truth.
type LifecycleState string

const (
	StateActive      LifecycleState = "active"
	StateSoftDeleted LifecycleState = "soft_deleted"
	StateHardDeleted LifecycleState = "hard_deleted"
)

// Transition is an edge of the lifecycle state machine.
type Transition string

const (
	TransitionSoftDelete Transition = "soft_delete"
	TransitionHardDelete Transition = "hard_delete"
	TransitionRestore    Transition = "restore"
)

// From returns the only state the transition may start from.
func (t Transition) From() LifecycleState {
	switch t {
	case TransitionSoftDelete:
		return StateActive
	case TransitionHardDelete, TransitionRestore:
		return StateSoftDeleted
	}
	return ""
}

// To returns the resulting state.
func (t Transition) To() LifecycleState {
	switch t {
	case TransitionSoftDelete:
		return StateSoftDeleted
	case TransitionHardDelete:
		return StateHardDeleted
	case TransitionRestore:
		return StateActive
	}
	return ""
}

// Allowed reports whether t can be applied to an item in state s.
// HardDeleted is terminal.
func (t Transition) Allowed(s LifecycleState) bool {
	if s == StateHardDeleted {
		return false
	}
	return t.From() == s
}

// Verb is the past tense used in notifications ("soft deleted").
func (t Transition) Verb() string {
	switch t {
	case TransitionSoftDelete:
		return "soft deleted"
	case TransitionHardDelete:
		return "permanently deleted"
	case TransitionRestore:
		return "restored"
	}
	return string(t)
}

// OutcomeStatus is the per item result of applying a transition.
type OutcomeStatus string

const (
	StatusApplied OutcomeStatus = "applied"
	StatusDryRun  OutcomeStatus = "dry_run"
	StatusSkipped OutcomeStatus = "skipped"
	StatusFailed  OutcomeStatus = "failed"
)

// Outcome records what happened to one item.
type Outcome struct {
	Item       ContentItem   `json:"item"`
	Transition Transition    `json:"transition"`
	Status     OutcomeStatus `json:"status"`
	Err        error         `json:"-"`
	Reason     string        `json:"reason,omitempty"`
}

// RunResult is built once per run and discarded after notification.
type RunResult struct {
	RunID       string    `json:"run_id"`
	DryRun      bool      `json:"dry_run"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	SoftDeleted []Outcome `json:"soft_deleted"`
	HardDeleted []Outcome `json:"hard_deleted"`
}

// Outcomes returns the outcome list for a transition.
func (r *RunResult) Outcomes(t Transition) []Outcome {
	switch t {
	case TransitionSoftDelete:
		return r.SoftDeleted
	case TransitionHardDelete:
		return r.HardDeleted
	}
	return nil
}

// Succeeded returns the items that were (or in dry-run would have been) transitioned.
func (r *RunResult) Succeeded(t Transition) []ContentItem {
	return r.filter(t, StatusApplied, StatusDryRun)
}

// Failed returns the items whose mutation call failed.
func (r *RunResult) Failed(t Transition) []ContentItem {
	return r.filter(t, StatusFailed)
}

func (r *RunResult) filter(t Transition, statuses ...OutcomeStatus) []ContentItem {
	var items []ContentItem
	for _, o := range r.Outcomes(t) {
		for _, s := range statuses {
			if o.Status == s {
				items = append(items, o.Item)
				break
			}
		}
	}
	return items
}

// Count returns how many outcomes of t have the given status.
func (r *RunResult) Count(t Transition, status OutcomeStatus) int {
	n := 0
	for _, o := range r.Outcomes(t) {
		if o.Status == status {
			n++
		}
	}
	return n
}

// Duration of the run.
func (r *RunResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

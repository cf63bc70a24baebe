package reconcile

import (
	"fmt"
	"strings"
	"time"

	"conduit-sync/core/dataprovider"
	"conduit-sync/core/mapping"
)

// Policy decides how conflicts and deletions are resolved.
type Policy string

const (
	// PolicySkip leaves both sides untouched.
	PolicySkip Policy = "skip"
	// PolicyAsk leaves both sides untouched and reports the item.
	PolicyAsk Policy = "ask"
	// PolicyReplace forces the change, the source side winning ties.
	PolicyReplace Policy = "replace"
)

// ParsePolicy parses a policy name. The empty string yields PolicySkip.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicySkip, nil
	case PolicySkip, PolicyAsk, PolicyReplace:
		return p, nil
	default:
		return "", fmt.Errorf("unknown policy %q (want skip, ask or replace)", s)
	}
}

// Options controls one pass.
type Options struct {
	// Conflict resolves items changed on both sides or with unknown ordering.
	Conflict Policy `json:"conflict"`
	// Deleted resolves items deleted on one side.
	Deleted Policy `json:"deleted"`
	// TwoWay also propagates changes from the sink back to the source.
	TwoWay bool `json:"two_way"`
	// SlowSync ignores native change logs and diffs full listings.
	SlowSync bool `json:"slow_sync"`
	// DryRun plans actions without applying them.
	DryRun bool `json:"dry_run"`
}

// Pair is a configured source and sink.
type Pair struct {
	Name    string
	Source  dataprovider.Source
	Sink    dataprovider.Sink
	Options Options
}

// Direction names the flow of one half of a pass.
type Direction string

const (
	// Forward flows from source to sink.
	Forward Direction = "forward"
	// Reverse flows from sink to source.
	Reverse Direction = "reverse"
)

// ActionType is the kind of planned change.
type ActionType string

const (
	ActionAdd    ActionType = "add"
	ActionModify ActionType = "modify"
	ActionDelete ActionType = "delete"
)

// Action is one planned change.
type Action struct {
	// Type specifies the change.
	Type ActionType `json:"type"`

	// Direction is the flow the change was planned for.
	Direction Direction `json:"direction"`

	// UID identifies the changed record on the originating side.
	UID string `json:"uid"`

	// Counterpart identifies the correlated record on the other side, if any.
	Counterpart string `json:"counterpart,omitempty"`

	// Reason explains why the action was planned.
	Reason string `json:"reason"`

	counterpartModified bool
	counterpartDeleted  bool
	mapping             *mapping.Mapping
}

// Counts are the changes applied to one provider.
type Counts struct {
	Added    int `json:"added"`
	Modified int `json:"modified"`
	Deleted  int `json:"deleted"`
}

// Total returns the number of applied changes.
func (c Counts) Total() int {
	return c.Added + c.Modified + c.Deleted
}

// ItemError records a per-item failure.
type ItemError struct {
	UID       string    `json:"uid"`
	Direction Direction `json:"direction"`
	Message   string    `json:"message"`
}

// ConflictReport is an unresolved conflict surfaced under PolicyAsk.
type ConflictReport struct {
	Direction   Direction `json:"direction"`
	Kind        string    `json:"kind"`
	UID         string    `json:"uid"`
	Counterpart string    `json:"counterpart,omitempty"`
	Comparison  string    `json:"comparison,omitempty"`
}

// Result summarizes one pass.
type Result struct {
	Conduit string `json:"conduit"`

	// Aborted is set when the pass stopped early.
	Aborted bool `json:"aborted"`
	// Skipped is set when a provider was not configured.
	Skipped bool `json:"skipped"`
	// Errored counts per-item failures.
	Errored int `json:"errored"`
	// Conflicted counts conflicts, whatever the policy did with them.
	Conflicted int `json:"conflicted"`

	// Forward counts changes applied to the sink.
	Forward Counts `json:"forward"`
	// Reverse counts changes applied to the source.
	Reverse Counts `json:"reverse"`

	Conflicts []ConflictReport `json:"conflicts,omitempty"`
	Errors    []ItemError      `json:"errors,omitempty"`
	Plan      []Action         `json:"plan,omitempty"`

	DryRun     bool          `json:"dry_run"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Duration   time.Duration `json:"duration"`
	AbortCause string        `json:"abort_cause,omitempty"`
}

// Status maps the result onto the terminal provider status it produced.
func (r *Result) Status() dataprovider.Status {
	if r.Skipped {
		return dataprovider.StatusDoneSkipped
	}
	return dataprovider.FinishStatus(r.Aborted, r.Errored > 0, r.Conflicted > 0)
}

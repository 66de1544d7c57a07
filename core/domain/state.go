package domain

// InvocationState is a step of the container lifecycle driven by one invocation
type InvocationState int

const (
	Pending InvocationState = iota
	Created
	Started
	StdinWritten
	Waited
	LogsFetched
	Deleted
	Failed
)

func (s InvocationState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Created:
		return "created"
	case Started:
		return "started"
	case StdinWritten:
		return "stdin-written"
	case Waited:
		return "waited"
	case LogsFetched:
		return "logs-fetched"
	case Deleted:
		return "deleted"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Terminal reports whether no transition can leave s
func (s InvocationState) Terminal() bool {
	return s == Deleted || s == Failed
}

// CanTransition reports whether the lifecycle may move from s to next.
// States only move forward, StdinWritten may be skipped and any
// non-terminal state may fail.
func (s InvocationState) CanTransition(next InvocationState) bool {
	if s.Terminal() {
		return false
	}
	if next == Failed {
		return true
	}
	if s == Started && next == Waited {
		return true
	}
	return next == s+1
}

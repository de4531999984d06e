package core

// Outcome is the result of reconciling one record.
type Outcome int

const (
	Applied Outcome = iota + 1
	Skipped
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	}
	return "unknown"
}

type Result struct {
	Outcome Outcome
	Key     string
	Err     error
}

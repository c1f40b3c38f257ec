package fraud

// Action is the decision of the pipeline. The integer values match the
// output-class order of the policy model, so the argmax index converts
// directly.
type Action int

const (
	ActionAllow Action = iota
	ActionChallenge
	ActionBlock
)

// String returns the audit-trail name of the action.
func (a Action) String() string {
	switch a {
	case ActionAllow:
		return "ALLOW"
	case ActionChallenge:
		return "CHALLENGE"
	case ActionBlock:
		return "BLOCK"
	}
	return "UNKNOWN"
}

// Pipeline stages, recorded on the verdict for audit.
const (
	StageRules  = "RULES"
	StageGraph  = "GRAPH"
	StagePolicy = "POLICY"
)

// Verdict is the pipeline result embedded into the transaction record.
type Verdict struct {
	Score  float64
	Action Action
	Stage  string
}

// Scores attached to each final action. ALLOW surfaces the raw graph score
// instead when it is materially high, for observability.
const (
	blockScore     = 1.0
	challengeScore = 0.65
	allowScore     = 0.0

	highGraphRisk = 0.90
)

// Amount ceiling used to normalize the policy state vector.
const maxTxnAmount = 100000.0

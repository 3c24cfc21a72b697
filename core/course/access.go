package course

// Well-known module slugs with special access rules.
const (
	SlugGitHub = "github"
	SlugShell  = "shell"
)

// betaPrereqMinScore is the github score a beta tester needs before the
// shell module unlocks.
const betaPrereqMinScore = 60

// Access decisions.
type Access string

const (
	AccessGranted              Access = "granted"
	AccessRequiresPrerequisite Access = "requires-prerequisite"
	AccessRequiresPayment      Access = "requires-payment"
	AccessLocked               Access = "locked"
)

func (a Access) Granted() bool { return a == AccessGranted }

// AccessInput carries everything the access decision needs; assembling it is
// the service's job so that the decision itself stays a pure function.
type AccessInput struct {
	IsAdmin       bool
	IsBeta        bool
	HasPaidAccess bool

	ModuleSlug string
	IsPaid     bool

	// prerequisite module, if any
	PrereqSlug     string
	PrereqMinScore int

	// best test score percentage per module slug
	BestScores map[string]int
}

func (in AccessInput) bestScore(slug string) int {
	return in.BestScores[slug]
}

func (in AccessInput) prereqMet() bool {
	if in.PrereqSlug == "" {
		return true
	}
	return in.bestScore(in.PrereqSlug) >= in.PrereqMinScore
}

// Evaluate applies the module access rules:
// admins see everything; the github module is the open entry point; beta
// testers unlock shell by passing the github test; paid modules additionally
// require paid access; everything else is gated by its prerequisite score.
func Evaluate(in AccessInput) Access {
	if in.IsAdmin {
		return AccessGranted
	}
	if in.ModuleSlug == SlugGitHub {
		return AccessGranted
	}

	if in.IsBeta && in.ModuleSlug == SlugShell {
		if in.bestScore(SlugGitHub) >= betaPrereqMinScore {
			return AccessGranted
		}
		return AccessRequiresPrerequisite
	}

	if in.IsPaid {
		if !in.HasPaidAccess {
			return AccessRequiresPayment
		}
		if !in.prereqMet() {
			return AccessRequiresPrerequisite
		}
		return AccessGranted
	}

	if in.prereqMet() {
		return AccessGranted
	}
	return AccessLocked
}

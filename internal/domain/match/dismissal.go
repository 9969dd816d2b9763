package match

const (
	DismissalBowled          = "bowled"
	DismissalCaught          = "caught"
	DismissalCaughtAndBowled = "caught and bowled"
	DismissalLBW             = "lbw"
	DismissalStumped         = "stumped"
	DismissalRunOut          = "run out"
	DismissalHitWicket       = "hit wicket"
	DismissalObstructing     = "obstructing the field"
	DismissalHitBallTwice    = "hit the ball twice"
	DismissalHandledBall     = "handled the ball"
	DismissalTimedOut        = "timed out"
	DismissalRetiredHurt     = "retired hurt"
	DismissalRetiredOut      = "retired out"
	DismissalRetiredNotOut   = "retired not out"
)

var dismissalKinds = map[string]struct{}{
	DismissalBowled:          {},
	DismissalCaught:          {},
	DismissalCaughtAndBowled: {},
	DismissalLBW:             {},
	DismissalStumped:         {},
	DismissalRunOut:          {},
	DismissalHitWicket:       {},
	DismissalObstructing:     {},
	DismissalHitBallTwice:    {},
	DismissalHandledBall:     {},
	DismissalTimedOut:        {},
	DismissalRetiredHurt:     {},
	DismissalRetiredOut:      {},
	DismissalRetiredNotOut:   {},
}

func IsDismissalKind(kind string) bool {
	_, ok := dismissalKinds[kind]
	return ok
}

package charsim

const (
	// DefaultMaxIterations is the per-phase sweep iteration cap. Fewer than
	// ten causes permanent wedging in corner geometry.
	DefaultMaxIterations = 10

	// SafetyIterationCeiling bounds the total sweep iterations of one phase
	// sequence, beyond the per-phase caps; the walk-experiment retry runs
	// with a fresh budget. It exists purely to bound worst-case pathological
	// geometry.
	SafetyIterationCeiling = 20

	DefaultMinMoveDistance      = 1e-3
	DefaultContactOffset        = 0.01
	DefaultStepOffset           = 0.5
	DefaultSnapDistance         = 0.5
	DefaultMaxSlopeDegrees      = 46.0
	DefaultCacheGrowth          = 1.5
	DefaultMaxOverlapCorrection = 0.5

	// slopeEpsilon separates actual slopes from vertical walls when deciding
	// whether a non-walkable contact should trigger the walk experiment.
	slopeEpsilon = 1e-3

	// overlapPasses bounds the inner push-out iterations of a single
	// recovery call; deeper wedges resolve across consecutive steps.
	overlapPasses = 4
)

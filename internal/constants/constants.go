// Package constants provides named constants used throughout the vote analysis codebase.
package constants

// Similarity band limits over the normalized distance of a version pair.
// Clone is [0, CloneMaxDistance], Similar is (CloneMaxDistance, SimilarMaxDistance),
// PartlySimilar is [SimilarMaxDistance, PartlySimilarMaxDistance] and Different
// is everything above.
const (
	CloneMaxDistance         = 0.05
	SimilarMaxDistance       = 0.4
	PartlySimilarMaxDistance = 0.6
)

// Similar-band diversity coefficient interval. The coefficient scales the
// standard deviation of a failing similar version's answer around the shared
// base error value.
const (
	SimilarCoefficientMin = 0.06
	SimilarCoefficientMax = 0.39
)

// Generation defaults used when a module or the config does not set them.
const (
	// DefaultMinOutVal is the lower bound of generated reference values.
	DefaultMinOutVal = 100.0

	// DefaultMaxOutVal is the upper bound of generated reference values.
	DefaultMaxOutVal = 1000.0

	// DefaultRoundTo is the number of digits kept after the decimal point.
	DefaultRoundTo = 2

	// DefaultIterations is the iteration count for a generate run.
	DefaultIterations = 1000

	// MaxIterations bounds the iteration count of a single generate run.
	MaxIterations = 1_000_000
)

// Built-in vote algorithm names.
const (
	AlgorithmAverage  = "average"
	AlgorithmMedian   = "median"
	AlgorithmClassic  = "classic"
	AlgorithmModified = "modified"
)

// Trace and leaderboard limits.
const (
	// MaxTraceAnswers caps the number of answers echoed into one vote trace line.
	MaxTraceAnswers = 32

	// LeaderboardKeyPrefix prefixes the Redis sorted set of algorithm accuracy
	// per experiment.
	LeaderboardKeyPrefix = "nvote:leaderboard:"
)

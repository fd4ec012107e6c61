package models

// ============================================================================
// TREE LIMITS
// ============================================================================

// MaxTreeDepth bounds traversal depth. Real trees are a handful of levels
// deep; anything past this is treated as corrupt input.
const MaxTreeDepth = 1024

// ============================================================================
// TASK LIMITS
// ============================================================================

// MaxTitleLength is the longest title accepted at the edit boundary
const MaxTitleLength = 255

// ============================================================================
// PERCENTAGES
// ============================================================================

const (
	MinPercentage = 0.0
	MaxPercentage = 100.0
)

package core

import "fmt"

// StageKind identifies a stage in the analysis pipeline.
type StageKind string

const (
	// StageExtractor fetches the PR diff and metadata.
	StageExtractor StageKind = "extractor"

	// StageDiscovery infers documentation-relevant signals from the change.
	StageDiscovery StageKind = "discovery"

	// StageScanner enumerates and loads candidate documentation files.
	StageScanner StageKind = "scanner"

	// StageAuditor produces candidate findings from the change and docs.
	StageAuditor StageKind = "auditor"

	// StageCritic judges findings for fabricated or unsupported claims.
	StageCritic StageKind = "critic"

	// StageAggregator assembles the terminal report. Terminal.
	StageAggregator StageKind = "aggregator"

	// StageDone is the terminal marker after the aggregator has run.
	// It is NOT an executable stage.
	StageDone StageKind = "done"
)

// AllStages returns the executable stages in nominal execution order.
func AllStages() []StageKind {
	return []StageKind{
		StageExtractor, StageDiscovery, StageScanner,
		StageAuditor, StageCritic, StageAggregator,
	}
}

// ValidStage checks if a stage kind is a known executable stage.
func ValidStage(s StageKind) bool {
	switch s {
	case StageExtractor, StageDiscovery, StageScanner, StageAuditor, StageCritic, StageAggregator:
		return true
	default:
		return false
	}
}

// ParseStage converts a string to a StageKind with validation.
func ParseStage(s string) (StageKind, error) {
	k := StageKind(s)
	if !ValidStage(k) && k != StageDone {
		return "", fmt.Errorf("invalid stage: %s", s)
	}
	return k, nil
}

// String returns the string representation of the stage.
func (s StageKind) String() string {
	return string(s)
}

// Description returns a human-readable description of the stage.
func (s StageKind) Description() string {
	switch s {
	case StageExtractor:
		return "Fetch pull request diff and metadata"
	case StageDiscovery:
		return "Infer documentation context hints from the change"
	case StageScanner:
		return "Load candidate documentation files from the repository"
	case StageAuditor:
		return "Analyze documentation gaps against the change"
	case StageCritic:
		return "Validate findings against the source material"
	case StageAggregator:
		return "Assemble the terminal report"
	case StageDone:
		return "Analysis complete"
	default:
		return "Unknown stage"
	}
}

package core

import (
	"regexp"
	"sort"
	"strings"
)

// FindingKind classifies a documentation defect.
type FindingKind string

const (
	FindingDiscrepancy   FindingKind = "discrepancy"
	FindingMissingDoc    FindingKind = "missing_doc"
	FindingOutdated      FindingKind = "outdated"
	FindingDiagramNeeded FindingKind = "diagram_needed"
	FindingImprovement   FindingKind = "improvement"
)

// ValidFindingKind checks if a kind string is known.
func ValidFindingKind(k FindingKind) bool {
	switch k {
	case FindingDiscrepancy, FindingMissingDoc, FindingOutdated, FindingDiagramNeeded, FindingImprovement:
		return true
	default:
		return false
	}
}

// Severity orders findings from most to least urgent.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// SeverityOrder returns the numeric rank of a severity (0 = most severe).
// Unknown severities rank below info.
func SeverityOrder(s Severity) int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	case SeverityInfo:
		return 4
	default:
		return 5
	}
}

// AllSeverities returns severities in rank order, most severe first.
func AllSeverities() []Severity {
	return []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo}
}

// MoreSevere reports whether a outranks b.
func MoreSevere(a, b Severity) bool {
	return SeverityOrder(a) < SeverityOrder(b)
}

// Provenance records which stage pass produced a finding.
type Provenance struct {
	Stage   StageKind `json:"stage"`
	Attempt int       `json:"attempt"`
}

// Finding is a single reported documentation defect.
type Finding struct {
	ID              string      `json:"id"`
	Kind            FindingKind `json:"kind"`
	Severity        Severity    `json:"severity"`
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	// TargetLocation is "path#section", e.g. "README.md#Setup".
	// Findings at different locations are never duplicates of one another.
	TargetLocation string   `json:"target_location"`
	ExtraLocations []string `json:"extra_locations,omitempty"`
	// RecommendedUpdate is copy-paste ready text insertable at
	// TargetLocation without further editing. May be empty.
	RecommendedUpdate string     `json:"recommended_update,omitempty"`
	Provenance        Provenance `json:"provenance"`
	// SemanticSignature is derived from kind, location and concept
	// extraction; two findings with equal signatures are duplicates
	// without consulting the similarity capability.
	SemanticSignature string  `json:"semantic_signature"`
	Confidence        float64 `json:"confidence"`
	// Diagram holds rendered Mermaid source once the aggregator has
	// obtained an artifact for a diagram_needed finding.
	Diagram string `json:"diagram,omitempty"`
	// Unvalidated marks findings the last critic pass flagged as
	// unsupported when the retry budget forced aggregation anyway.
	Unvalidated bool `json:"unvalidated,omitempty"`
}

// Location builds a canonical target location from a path and section.
func Location(path, section string) string {
	if section == "" {
		return path
	}
	return path + "#" + section
}

// SplitLocation splits a canonical location into path and section.
func SplitLocation(loc string) (path, section string) {
	if i := strings.Index(loc, "#"); i >= 0 {
		return loc[:i], loc[i+1:]
	}
	return loc, ""
}

// Stopwords excluded from concept extraction. Mirrors the terms that
// carry no signal when comparing finding titles.
var signatureStopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "is": {}, "are": {}, "for": {}, "to": {},
	"in": {}, "of": {}, "and": {}, "or": {}, "with": {}, "this": {}, "that": {},
	"new": {}, "add": {}, "update": {}, "missing": {}, "outdated": {},
	"needed": {}, "needs": {}, "document": {}, "documentation": {}, "section": {},
}

// conceptSynonyms maps a canonical topic to the words that identify it.
var conceptSynonyms = map[string][]string{
	"diagram": {"diagram", "architecture", "flowchart", "visual", "mermaid"},
	"config":  {"config", "configuration", "parameter", "setting", "variable"},
	"feature": {"feature", "functionality", "capability"},
	"api":     {"api", "endpoint", "route", "interface"},
	"readme":  {"readme", "overview", "introduction"},
	"install": {"install", "installation", "setup", "getting started"},
	"usage":   {"usage", "example", "how to", "tutorial"},
}

var nonWordRe = regexp.MustCompile(`[^\w\s]`)

// ComputeSignature derives the semantic signature of a finding from its
// kind, target location, and the concepts mentioned in its title and
// description. Deterministic: equal inputs yield equal signatures.
func ComputeSignature(kind FindingKind, targetLocation, title, description string) string {
	text := strings.ToLower(title + " " + description)

	var concepts []string
	for canonical, synonyms := range conceptSynonyms {
		for _, syn := range synonyms {
			if strings.Contains(text, syn) {
				concepts = append(concepts, canonical)
				break
			}
		}
	}
	sort.Strings(concepts)

	key := strings.Join(concepts, "|")
	if key == "" {
		key = normalizeTitle(title)
	}

	path, _ := SplitLocation(targetLocation)
	return string(kind) + "|" + path + "|" + key
}

func normalizeTitle(title string) string {
	normalized := nonWordRe.ReplaceAllString(strings.ToLower(title), "")
	words := strings.Fields(normalized)
	kept := words[:0]
	for _, w := range words {
		if _, stop := signatureStopwords[w]; !stop {
			kept = append(kept, w)
		}
	}
	sort.Strings(kept)
	return strings.Join(kept, " ")
}

// Validate checks finding invariants.
func (f *Finding) Validate() error {
	if f.ID == "" {
		return ErrValidation("FINDING_ID_REQUIRED", "finding ID cannot be empty")
	}
	if !ValidFindingKind(f.Kind) {
		return ErrValidation("FINDING_KIND_INVALID", "unknown finding kind: "+string(f.Kind))
	}
	if SeverityOrder(f.Severity) > 4 {
		return ErrValidation("FINDING_SEVERITY_INVALID", "unknown severity: "+string(f.Severity))
	}
	if f.Title == "" {
		return ErrValidation("FINDING_TITLE_REQUIRED", "finding title cannot be empty")
	}
	return nil
}

// SortFindings orders findings by severity rank, then target location,
// then title. Stable across runs given the same inputs.
func SortFindings(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		si, sj := SeverityOrder(findings[i].Severity), SeverityOrder(findings[j].Severity)
		if si != sj {
			return si < sj
		}
		if findings[i].TargetLocation != findings[j].TargetLocation {
			return findings[i].TargetLocation < findings[j].TargetLocation
		}
		return findings[i].Title < findings[j].Title
	})
}

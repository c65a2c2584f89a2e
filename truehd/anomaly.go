/*
NAME
  anomaly.go

DESCRIPTION
  anomaly.go implements the anomaly taxonomy and fail-level policy of
  spec §7 and §4.10: every parsing or decode irregularity is classified
  by Kind and Severity, carries AU/substream/block context, and is either
  surfaced as a diagnostic or, at or above the configured fail level,
  aborts the pull.

AUTHOR
  Modelled on the teacher's preference for typed sentinel domain errors
  (codec/h264/h264dec's errInvalidCAT, errReadTeBadX, etc.) generalized
  into a single structured type, since spec §7 requires anomalies carry
  machine-readable severity and context rather than being opaque errors.

LICENSE
  No upstream license header: anomaly.go is original to this module.
*/

package truehd

import "fmt"

// Kind identifies the specific condition an Anomaly reports.
type Kind int

const (
	// Structural anomalies (default severity Error).
	KindAULengthUnderflow Kind = iota
	KindMissingMajorSync
	KindSubstreamDirectoryOverflow
	KindUnknownSampleRate

	// Integrity anomalies.
	KindAUHeaderCRCMismatch    // Error
	KindSubstreamCRCMismatch   // Warning
	KindRestartParityMismatch  // Warning
	KindLosslessCheckMismatch  // Warning, demoted to Info at a valid branch

	// Semantic anomalies (usually Error).
	KindFilterOrderExceeded
	KindMatrixRowCountExceeded
	KindQuantStepOutOfRange
	KindOAMDLengthMismatch
	KindPresentationUnavailable

	// Advisory anomalies (Info).
	KindPeakDataRateJump
	KindSubstreamInfoChange
	KindDuplicateAUAtSplice
	KindTimestampDiscontinuity
)

// defaultSeverity is the severity a Kind carries absent any demotion
// (e.g. the valid-branch demotion applied by the branch/restart FSM).
func (k Kind) defaultSeverity() Severity {
	switch k {
	case KindAULengthUnderflow, KindMissingMajorSync, KindSubstreamDirectoryOverflow, KindUnknownSampleRate:
		return SeverityError
	case KindAUHeaderCRCMismatch:
		return SeverityError
	case KindSubstreamCRCMismatch, KindRestartParityMismatch, KindLosslessCheckMismatch:
		return SeverityWarning
	case KindFilterOrderExceeded, KindMatrixRowCountExceeded, KindQuantStepOutOfRange, KindOAMDLengthMismatch, KindPresentationUnavailable:
		return SeverityError
	case KindPeakDataRateJump, KindSubstreamInfoChange, KindDuplicateAUAtSplice, KindTimestampDiscontinuity:
		return SeverityInfo
	default:
		return SeverityError
	}
}

func (k Kind) String() string {
	switch k {
	case KindAULengthUnderflow:
		return "AULengthUnderflow"
	case KindMissingMajorSync:
		return "MissingMajorSync"
	case KindSubstreamDirectoryOverflow:
		return "SubstreamDirectoryOverflow"
	case KindUnknownSampleRate:
		return "UnknownSampleRate"
	case KindAUHeaderCRCMismatch:
		return "AUHeaderCRCMismatch"
	case KindSubstreamCRCMismatch:
		return "SubstreamCRCMismatch"
	case KindRestartParityMismatch:
		return "RestartParityMismatch"
	case KindLosslessCheckMismatch:
		return "LosslessCheckMismatch"
	case KindFilterOrderExceeded:
		return "FilterOrderExceeded"
	case KindMatrixRowCountExceeded:
		return "MatrixRowCountExceeded"
	case KindQuantStepOutOfRange:
		return "QuantStepOutOfRange"
	case KindOAMDLengthMismatch:
		return "OAMDLengthMismatch"
	case KindPresentationUnavailable:
		return "PresentationUnavailable"
	case KindPeakDataRateJump:
		return "PeakDataRateJump"
	case KindSubstreamInfoChange:
		return "SubstreamInfoChange"
	case KindDuplicateAUAtSplice:
		return "DuplicateAUAtSplice"
	case KindTimestampDiscontinuity:
		return "TimestampDiscontinuity"
	default:
		return "Unknown"
	}
}

// Anomaly is a single classified irregularity encountered while parsing
// or decoding, carrying the context spec §7 requires: AU byte offset,
// substream index (-1 if not applicable), and block index (-1 if not
// applicable).
type Anomaly struct {
	Kind       Kind
	Severity   Severity
	AUOffset   int
	Substream  int
	Block      int
	Message    string
}

// Error implements the error interface so callers that don't care about
// severity can treat an Anomaly as a plain error.
func (a *Anomaly) Error() string {
	loc := fmt.Sprintf("au_offset=%d", a.AUOffset)
	if a.Substream >= 0 {
		loc += fmt.Sprintf(" substream=%d", a.Substream)
	}
	if a.Block >= 0 {
		loc += fmt.Sprintf(" block=%d", a.Block)
	}
	if a.Message != "" {
		return fmt.Sprintf("truehd: %s [%s] (%s): %s", a.Kind, a.Severity, loc, a.Message)
	}
	return fmt.Sprintf("truehd: %s [%s] (%s)", a.Kind, a.Severity, loc)
}

// newAnomaly constructs an Anomaly with default severity for its Kind.
func newAnomaly(kind Kind, auOffset, substream, block int, msg string) *Anomaly {
	return &Anomaly{
		Kind:      kind,
		Severity:  kind.defaultSeverity(),
		AUOffset:  auOffset,
		Substream: substream,
		Block:     block,
		Message:   msg,
	}
}

// demote lowers the anomaly's severity by one level (spec §3, §4.8: "at a
// valid branch point, CRC, lossless-check, and parity anomalies are
// demoted one severity level"). Demoting below Info is a no-op.
func (a *Anomaly) demote() {
	switch a.Severity {
	case SeverityError:
		a.Severity = SeverityWarning
	case SeverityWarning:
		a.Severity = SeverityInfo
	}
}

// policy evaluates anomalies against a configured fail level (spec §4.10).
type policy struct {
	failLevel Severity
}

func newPolicy(cfg Config) *policy {
	return &policy{failLevel: cfg.effectiveFailLevel()}
}

// aborts reports whether an anomaly of this severity should stop the
// pull, per the configured fail level. Severity is ordered
// Trace < Debug < Info < Warning < Error; an anomaly aborts when its
// severity is at or above the fail level, unless the fail level is Off
// (never aborts).
func (p *policy) aborts(sev Severity) bool {
	if p.failLevel == SeverityOff {
		return false
	}
	return sev >= p.failLevel
}

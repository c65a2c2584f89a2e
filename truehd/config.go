/*
NAME
  config.go

DESCRIPTION
  config.go defines the closed configuration surface accepted by the
  public façade, modelled on revid/config.Config: a single plain struct
  of typed fields with documented defaults, constructed once and passed
  to the decoder constructor. No package-level state, no environment
  reads.

AUTHOR
  Modelled on revid/config.Config (AusOcean).

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package truehd

// Severity classifies how serious a decode Anomaly is (spec §7).
type Severity int

const (
	SeverityOff Severity = iota
	SeverityTrace
	SeverityDebug
	SeverityInfo
	SeverityWarning
	SeverityError
)

// String renders the severity the way the teacher's logging levels read
// in diagnostics ("Error", "Warning", ...).
func (s Severity) String() string {
	switch s {
	case SeverityOff:
		return "Off"
	case SeverityTrace:
		return "Trace"
	case SeverityDebug:
		return "Debug"
	case SeverityInfo:
		return "Info"
	case SeverityWarning:
		return "Warning"
	case SeverityError:
		return "Error"
	default:
		return "Unknown"
	}
}

// WarpMode is the default object-audio warp mode substituted when OAMD
// omits one (spec §4.9, §6.3).
type WarpMode int

const (
	WarpNormal WarpMode = iota
	WarpWarping
	WarpProLogicIIx
	WarpLoRo
)

// Presentation identifies one of TrueHD's four channel presentations.
type Presentation int

const (
	Presentation2ch    Presentation = 0
	Presentation6ch    Presentation = 1
	Presentation8ch    Presentation = 2
	PresentationObject Presentation = 3
)

// Config is the closed set of options accepted by NewDecoder (spec §6.3).
// A zero-value Config is usable and selects sensible defaults: fail on
// Error, auto presentation (highest available), no bed conforming,
// Normal warp mode.
type Config struct {
	// FailLevel is the minimum anomaly severity that aborts decoding.
	// The zero value SeverityOff is treated as the documented default,
	// SeverityError, by effectiveFailLevel.
	FailLevel Severity

	// Strict, if true, treats SeverityWarning as the fail level
	// regardless of FailLevel (spec §6.3, §4.10).
	Strict bool

	// Presentation selects which of the four channel presentations to
	// decode. nil (the zero Config's default) selects the highest
	// available presentation, per Selector.MaxIndependentPresentation.
	Presentation *Presentation

	// BedConform remaps the object presentation's bed to 7.1.2 when true
	// (spec §4.9, §6.3).
	BedConform bool

	// WarpMode is substituted for a block's warp mode when OAMD omits
	// one; ignored when OAMD supplies a mode (spec §4.9, §6.3).
	WarpMode WarpMode
}

// effectiveFailLevel returns the fail level after applying Strict and the
// documented SeverityError default.
func (c Config) effectiveFailLevel() Severity {
	if c.Strict {
		return SeverityWarning
	}
	if c.FailLevel == SeverityOff {
		return SeverityError
	}
	return c.FailLevel
}

// PresentationPtr is a convenience constructor for populating
// Config.Presentation, since Go does not allow taking the address of a
// constant directly.
func PresentationPtr(p Presentation) *Presentation {
	return &p
}

/*
NAME
  branch.go

DESCRIPTION
  branch.go implements the branch/restart finite state machine of spec
  §4.8: per-substream AwaitingRestart -> Running transitions, valid
  branch-point detection, peak-data-rate jump flagging, duplicate-AU
  detection at splice points, and substream-info-change segment
  rollover.

LICENSE
  No upstream license header: branch.go is original to this module.
*/

package truehd

// substreamFSMState is one substream's branch/restart state (spec §4.8).
type substreamFSMState int

const (
	fsmAwaitingRestart substreamFSMState = iota
	fsmRunning
)

// branchFSM tracks branch/restart state per substream across AUs, plus
// the latched peak data rate and channel geometry needed to detect
// advisory transitions.
type branchFSM struct {
	state            [4]substreamFSMState
	lastPeakRate     uint16
	havePeakRate     bool
	lastChannelCount int
	haveChannelCount bool
	segmentIndex     int
}

func newBranchFSM() *branchFSM {
	return &branchFSM{}
}

// observeRestart transitions substream idx to Running when a restart
// header with a valid signature/parity has been seen, resetting nothing
// itself (DSP state reset is the caller's responsibility via
// substreamState.reset, invoked from ParseAndDecodeSubstream).
func (f *branchFSM) observeRestart(idx int, headerValid bool) {
	if headerValid {
		f.state[idx] = fsmRunning
	}
}

// isValidBranch reports whether this AU's block-header resync flag and
// restart-header content-valid bit together mark a valid branch point
// for the substream (spec §4.8).
func isValidBranch(blockResync bool, rh *RestartHeader) bool {
	return blockResync && rh != nil && rh.ContentValid
}

// observePeakRateJump compares the latched major sync's peak data rate
// against the previous value and reports whether this is a rise (spec
// §4.8: "an instantaneous rise in peak data-rate metadata"). The first
// major sync observed never counts as a jump.
func (f *branchFSM) observePeakRateJump(ms *MajorSync) bool {
	if ms == nil {
		return false
	}
	jump := f.havePeakRate && ms.PeakDataRate > f.lastPeakRate
	f.lastPeakRate = ms.PeakDataRate
	f.havePeakRate = true
	return jump
}

// observeChannelCountChange compares the current presentation's channel
// count against the previous AU's and, on change, bumps segmentIndex and
// reports true so the façade can signal presentationChanged (spec §4.8:
// "Substream info change ... start a new segment").
func (f *branchFSM) observeChannelCountChange(count int) bool {
	changed := f.haveChannelCount && count != f.lastChannelCount
	f.lastChannelCount = count
	f.haveChannelCount = true
	if changed {
		f.segmentIndex++
	}
	return changed
}

// isDuplicateBlock reports whether cur matches prev bitwise across every
// active channel, the splice-duplicate test of spec §4.8. An empty prev
// (substream just reset) never counts as a match.
func isDuplicateBlock(prev, cur [][]int32) bool {
	if len(prev) == 0 || len(prev) != len(cur) {
		return false
	}
	for c := range cur {
		if len(prev[c]) != len(cur[c]) || len(cur[c]) == 0 {
			return false
		}
		for n := range cur[c] {
			if prev[c][n] != cur[c][n] {
				return false
			}
		}
	}
	return true
}

package scarf

import (
	"errors"
)

type ScanFunc func(id uint8, err error)

// Scan sends an identify request to each ID in [idMin, idMax] and
// returns the IDs of the slaves that reported their own ID. Absent or
// misbehaving slaves are skipped; other errors, like transport
// failures, abort the scan. If report is not nil, it is called with
// the result of each probe.
func Scan(bus *Bus, idMin, idMax uint8, report ScanFunc) (found []uint8, err error) {
	if idMax > MaxID {
		idMax = MaxID
	}
	for id := int(idMin); id <= int(idMax); id++ {
		var have uint8
		have, err = bus.identify(uint8(id))
		if err == nil && have != uint8(id) {
			err = &IdentityMismatchError{Want: uint8(id), Have: have}
		}
		if report != nil {
			report(uint8(id), err)
		}
		if err != nil {
			var mismatch *IdentityMismatchError
			if errors.Is(err, ErrTimeout) || MsgInvalid(err) || errors.As(err, &mismatch) {
				err = nil
				continue
			}
			return
		}
		found = append(found, uint8(id))
	}
	return
}

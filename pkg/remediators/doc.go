// Package remediators provides the recovery actions displaywatcher can take
// when the display arrangement is wrong.
//
// The package defines common infrastructure that concrete remediators use by
// embedding BaseRemediator:
//   - Optional logging
//   - Panic recovery
//   - Context cancellation support
//
// Usage Example:
//
//	type SessionRemediator struct {
//	    *remediators.BaseRemediator
//	    unit string
//	}
//
//	func NewSessionRemediator(unit string) (*SessionRemediator, error) {
//	    base, err := remediators.NewBaseRemediator("session-restart")
//	    if err != nil {
//	        return nil, err
//	    }
//
//	    sr := &SessionRemediator{BaseRemediator: base, unit: unit}
//	    if err := base.SetRecoverFunc(sr.restart); err != nil {
//	        return nil, err
//	    }
//	    return sr, nil
//	}
//
// RebootRemediator is the only action shipped. Its exit status is not
// inspected: a reboot that succeeds usually kills the process before the
// command returns, so the only reportable failure is a shell that could not
// be started.
package remediators

package tcpstack

import (
	"errors"
	"fmt"
)

// Validator accumulates validation errors across a sequence of checks on a
// single frame, so a caller can run every check and inspect one aggregate
// error rather than bailing out at the first failure.
type Validator struct {
	allowMultiErrs bool
	accum          []error
}

// ResetErr discards any accumulated errors, readying the Validator for reuse.
func (v *Validator) ResetErr() {
	v.accum = v.accum[:0]
}

// Err returns the accumulated validation error, or nil if no check failed.
func (v *Validator) Err() error {
	if len(v.accum) == 1 {
		return v.accum[0]
	} else if len(v.accum) == 0 {
		return nil
	}
	return errors.Join(v.accum...)
}

func (v *Validator) gotErr(err error) {
	if len(v.accum) != 0 && !v.allowMultiErrs {
		return
	}
	v.accum = append(v.accum, err)
}

// AddBitPosErr records err, annotated with the bit offset and width of the
// header field that failed validation, so the message names the field
// without the caller having to pre-format it.
func (v *Validator) AddBitPosErr(bitOffset, bitWidth int, err error) {
	v.gotErr(fmt.Errorf("bitoffset=%d bitwidth=%d: %w", bitOffset, bitWidth, err))
}

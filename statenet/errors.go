package statenet

import (
	"errors"
	"fmt"
)

// Sentinel error values wrapped into *mferrors.Error by the methods in
// methods.go, mirroring lvlath/builder's "sentinels never hand-formatted at
// definition site, context attached at the call site" policy.
var (
	errFinalized = errors.New("statenet: network already finalized")
)

func errNegativeWeight(w float64) error {
	return fmt.Errorf("statenet: negative weight %g", w)
}

func errConflictingPhysicalID(id StateID) error {
	return fmt.Errorf("statenet: state id %d re-added with a different physical id", id)
}

func errUnknownEndpoint(source, target StateID) error {
	return fmt.Errorf("statenet: link (%d -> %d) references an unknown state id", source, target)
}

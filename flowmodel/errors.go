package flowmodel

import "errors"

// Sentinel causes wrapped into *mferrors.Error by Calculate.
var (
	errNotFinalized = errors.New("flowmodel: state network is not finalized")
	errEmptyNetwork = errors.New("flowmodel: state network has no state nodes")
	errUnknownModel = errors.New("flowmodel: unrecognized flow model")
)

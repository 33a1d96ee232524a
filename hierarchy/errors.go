package hierarchy

import "errors"

var (
	errNotFinalized = errors.New("hierarchy: state network is not finalized")
	errEmptyNetwork = errors.New("hierarchy: state network has no nodes")
)

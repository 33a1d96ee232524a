package partition

import "errors"

var errEmptyNetwork = errors.New("partition: network has no nodes")

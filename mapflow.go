package mapflow

import (
	"github.com/katalvlaran/mapflow/flowmodel"
	"github.com/katalvlaran/mapflow/hierarchy"
	"github.com/katalvlaran/mapflow/mfconfig"
	"github.com/katalvlaran/mapflow/result"
	"github.com/katalvlaran/mapflow/statenet"
)

// Cluster runs the full pipeline over net: computes flow under cfg, then
// searches for the module hierarchy that minimizes the map equation
// codelength, and returns a queryable Result. net must already be
// Finalized; its flow fields are overwritten by this call.
func Cluster(net *statenet.StateNetwork, cfg *mfconfig.Config) (*result.Result, error) {
	if _, err := flowmodel.Calculate(net, cfg); err != nil {
		return nil, err
	}

	run, err := hierarchy.NewDriver(cfg).Run(net)
	if err != nil {
		return nil, err
	}

	return result.New(run.Store, net, run.RunID, run.Codelength, run.OneLevelCodelength, run.Trials), nil
}

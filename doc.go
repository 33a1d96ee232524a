// Package mapflow clusters a weighted, possibly directed graph into a
// hierarchy of modules that compresses a description of a random walker's
// movement on it, following the map equation (Rosvall & Bergstrom).
//
// A minimal run looks like:
//
//	cfg, err := mfconfig.New(mfconfig.WithNumTrials(10))
//	net := statenet.New(cfg)
//	net.AddStateNode(1, 1, 1)
//	net.AddStateNode(2, 2, 1)
//	net.AddLink(1, 2, 1)
//	net.Finalize()
//	res, err := mapflow.Cluster(net, cfg)
//	res.EachLeaf(func(l result.LeafInfo) bool {
//		fmt.Println(l.PhysicalID, l.ModulePath)
//		return true
//	})
//
// Under the hood, everything is organized into focused subpackages:
//
//	statenet/   — the graph representation (state and physical nodes, links)
//	flowmodel/  — computes each node and link's share of the walker's time
//	mapeq/      — the incremental map equation used to score a partition
//	partition/  — the greedy core loop that moves nodes between modules
//	hierarchy/  — runs multiple trials and recurses into modules for depth
//	treestore/  — the arena-backed module tree shared by the above
//	result/     — read-only queries over a finished run
//	mfconfig/   — configuration, logging, and metrics
//	mferrors/   — the package's wrapped error type
package mapflow

// Package flowmodel implements the Flow Calculator (C2): it computes the
// stationary node-flow distribution and the per-link flow under one of five
// flow models (spec §4.2), and writes Flow/EnterFlow/ExitFlow/DanglingFlow
// back onto the statenet.StateNetwork in place.
//
// Calculate is the single entry point: it picks one routine per flow model
// with one switch on cfg.FlowModel per call, mirroring the teacher's flow
// package (one of Ford-Fulkerson/Edmonds-Karp/Dinic picked once per call).
// There is no per-model Calculator type.
package flowmodel

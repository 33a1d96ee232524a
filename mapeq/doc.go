// Package mapeq implements the Map-Equation Engine (C4): it maintains the
// six running sums behind the two-level map equation incrementally and
// evaluates/applies single-node moves in O(1) (spec §4.4).
//
// The reference implementation specializes at compile time via CRTP
// (InfomapGreedySpecialized<FlowType>) into three move-formula variants —
// undirected, directed-with-detailed-balance, and directed-without — plus
// an optional physical/memory correction term. Here that becomes a small
// balanceKind enum selected once at NewEngine and dispatched per move (spec
// §9 Design Note: "replace CRTP template specialization... with a tagged
// variant plus a small strategy object").
package mapeq

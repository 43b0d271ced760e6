package synchronizer

import (
	"fmt"
	"sort"
)

// NodeSpec declares one stage of a run. After lists the stages that must
// finish (or fail) first. With names the stage a per-type sync of this node
// is bundled with: Slot runs with Schedule, cross-links run with their
// owning type.
type NodeSpec struct {
	Kind  Kind
	After []Kind
	With  Kind
}

// Graph is an immutable dependency graph with precomputed tiers. Stages in
// one tier do not depend on each other.
type Graph struct {
	nodes map[Kind]NodeSpec
	tiers [][]Kind
}

var defaultNodes = []NodeSpec{
	{Kind: KindOrganization},
	{Kind: KindPatient, After: []Kind{KindOrganization}},
	{Kind: KindMedication, After: []Kind{KindOrganization}},
	{Kind: KindEncounter, After: []Kind{KindPatient}},
	{Kind: KindCondition, After: []Kind{KindEncounter}},
	{Kind: KindMedicationRequest, After: []Kind{KindEncounter, KindMedication}},
	{Kind: KindAppointment, After: []Kind{KindEncounter}},
	{Kind: KindSchedule, After: []Kind{KindEncounter}},
	{Kind: KindSlot, After: []Kind{KindSchedule}, With: KindSchedule},
	{Kind: KindObservation, After: []Kind{KindEncounter}},
	{Kind: KindDiagnosticReport, After: []Kind{KindEncounter}},
	{Kind: KindProcedure, After: []Kind{KindEncounter}},
	{Kind: KindReportResults, After: []Kind{KindDiagnosticReport, KindObservation}, With: KindDiagnosticReport},
	{Kind: KindProcedureReasons, After: []Kind{KindProcedure, KindCondition}, With: KindProcedure},
}

// DefaultGraph returns the dependency graph of the clinical resource types.
func DefaultGraph() *Graph {
	g, err := NewGraph(defaultNodes)
	if err != nil {
		panic(err)
	}
	return g
}

// NewGraph validates specs and sorts them into tiers. Unknown prerequisites
// and cycles are reported here.
func NewGraph(specs []NodeSpec) (*Graph, error) {
	nodes := make(map[Kind]NodeSpec, len(specs))
	for _, n := range specs {
		if _, dup := nodes[n.Kind]; dup {
			return nil, fmt.Errorf("graph: %s declared twice", n.Kind)
		}
		nodes[n.Kind] = n
	}

	indegree := make(map[Kind]int, len(nodes))
	dependents := make(map[Kind][]Kind, len(nodes))
	for k := range nodes {
		indegree[k] = 0
	}
	for _, n := range nodes {
		for _, p := range n.After {
			if _, ok := nodes[p]; !ok {
				return nil, fmt.Errorf("graph: %s depends on unknown %s", n.Kind, p)
			}
			indegree[n.Kind]++
			dependents[p] = append(dependents[p], n.Kind)
		}
		if n.With != "" {
			if _, ok := nodes[n.With]; !ok {
				return nil, fmt.Errorf("graph: %s runs with unknown %s", n.Kind, n.With)
			}
		}
	}

	var ready []Kind
	for k, d := range indegree {
		if d == 0 {
			ready = append(ready, k)
		}
	}

	g := &Graph{nodes: nodes}
	done := 0
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return ready[i] < ready[j] })
		g.tiers = append(g.tiers, ready)
		done += len(ready)

		var next []Kind
		for _, k := range ready {
			for _, dep := range dependents[k] {
				indegree[dep]--
				if indegree[dep] == 0 {
					next = append(next, dep)
				}
			}
		}
		ready = next
	}
	if done != len(nodes) {
		var stuck []Kind
		for k, d := range indegree {
			if d > 0 {
				stuck = append(stuck, k)
			}
		}
		sort.Slice(stuck, func(i, j int) bool { return stuck[i] < stuck[j] })
		return nil, fmt.Errorf("graph: dependency cycle among %v", stuck)
	}
	return g, nil
}

func (g *Graph) Has(k Kind) bool {
	_, ok := g.nodes[k]
	return ok
}

// Bundle returns k together with every node that runs with it.
func (g *Graph) Bundle(k Kind) []Kind {
	out := []Kind{k}
	for i := 0; i < len(out); i++ {
		for _, n := range g.nodes {
			if n.With == out[i] {
				out = append(out, n.Kind)
			}
		}
	}
	sort.Slice(out[1:], func(i, j int) bool { return out[1+i] < out[1+j] })
	return out
}

// Plan keeps the tiers' order but only the nodes include accepts. Empty
// tiers are dropped.
func (g *Graph) Plan(include func(Kind) bool) [][]Kind {
	var out [][]Kind
	for _, t := range g.tiers {
		var tier []Kind
		for _, k := range t {
			if include(k) {
				tier = append(tier, k)
			}
		}
		if len(tier) > 0 {
			out = append(out, tier)
		}
	}
	return out
}

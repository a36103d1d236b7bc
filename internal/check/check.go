// Package check inspects a flat item list for structural problems the store
// itself tolerates: parents that do not resolve, parent cycles and labels
// carried by more than one item.
package check

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/javanhut/arbor/internal/tree"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Dangling is an item whose parent id is not stored.
type Dangling struct {
	Item   tree.ID
	Parent tree.ID
}

// DuplicateLabel is a label shared by several items, listed in item order.
type DuplicateLabel struct {
	Label string
	IDs   []tree.ID
}

// Report is the result of Forest.
type Report struct {
	Items      int
	Roots      int
	Dangling   []Dangling
	Cycles     [][]tree.ID // each cycle listed once, ids sorted
	Duplicates []DuplicateLabel
}

// Err returns a non-nil error when the items contain a parent cycle or a
// duplicate label. Dangling parents are reported but tolerated.
func (r Report) Err() error {
	var errs []error
	if len(r.Cycles) > 0 {
		parts := make([]string, len(r.Cycles))
		for i, c := range r.Cycles {
			parts[i] = "[" + joinIDs(c) + "]"
		}
		errs = append(errs, fmt.Errorf("%w: %s", ErrCycle, strings.Join(parts, ", ")))
	}
	for _, d := range r.Duplicates {
		errs = append(errs, fmt.Errorf("%w: %q is used by items %s", tree.ErrDuplicateLabel, d.Label, joinIDs(d.IDs)))
	}
	return errors.Join(errs...)
}

func joinIDs(ids []tree.ID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, " ")
}

// ErrCycle is matched by the error of a report that found cycles.
var ErrCycle = errors.New("parent cycle")

// Forest checks items. Edges run parent -> child.
func Forest(items []tree.Item) Report {
	rep := Report{Items: len(items)}

	index := make(map[tree.ID]int64, len(items))
	holders := make(map[string][]tree.ID)
	var labels []string
	for i, item := range items {
		index[item.ID] = int64(i)
		if _, seen := holders[item.Label]; !seen {
			labels = append(labels, item.Label)
		}
		holders[item.Label] = append(holders[item.Label], item.ID)
	}
	for _, label := range labels {
		if ids := holders[label]; len(ids) > 1 {
			rep.Duplicates = append(rep.Duplicates, DuplicateLabel{Label: label, IDs: ids})
		}
	}

	g := simple.NewDirectedGraph()
	for i := range items {
		g.AddNode(simple.Node(int64(i)))
	}

	for _, item := range items {
		switch {
		case item.IsRoot():
			rep.Roots++
		case item.Parent == item.ID:
			// simple graphs reject self edges
			rep.Cycles = append(rep.Cycles, []tree.ID{item.ID})
		default:
			p, ok := index[item.Parent]
			if !ok {
				rep.Dangling = append(rep.Dangling, Dangling{Item: item.ID, Parent: item.Parent})
				continue
			}
			g.SetEdge(g.NewEdge(g.Node(p), g.Node(index[item.ID])))
		}
	}

	if _, err := topo.Sort(g); err != nil {
		var unorderable topo.Unorderable
		if errors.As(err, &unorderable) {
			for _, component := range unorderable {
				rep.Cycles = append(rep.Cycles, componentIDs(items, component))
			}
		}
	}

	sort.Slice(rep.Cycles, func(a, b int) bool { return rep.Cycles[a][0] < rep.Cycles[b][0] })
	return rep
}

func componentIDs(items []tree.Item, nodes []graph.Node) []tree.ID {
	ids := make([]tree.ID, len(nodes))
	for i, n := range nodes {
		ids[i] = items[n.ID()].ID
	}
	sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })
	return ids
}

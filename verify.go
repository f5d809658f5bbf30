// Copyright (C) 2022-2025, VigilantDoomer
//
// This file is part of VigilantPRT program.
//
// VigilantPRT is free software: you can redistribute it
// and/or modify it under the terms of GNU General Public License
// as published by the Free Software Foundation, either version 2 of
// the License, or (at your option) any later version.
//
// VigilantPRT is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with VigilantPRT.  If not, see <https://www.gnu.org/licenses/>.

// Checks of the finished portal graph
package main

import (
	"runtime"
	"sync"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

type leafVerdict struct {
	err  error
	mlog *MiniLogger
}

// VerifyPortals checks that the graph is consistent: every portal is listed
// exactly once by both of its sides and both are graph leaves, every
// non-solid leaf has portals, leaves are closed. The first fatal problem is
// returned, the rest are warnings
func VerifyPortals(ctx *PassContext, tree *Tree, graph *PortalGraph, stopAtDetail bool) error {
	if err := verifySymmetry(ctx, tree, graph, stopAtDetail); err != nil {
		return err
	}

	leaves := tree.GraphLeaves(stopAtDetail)
	verdicts := make([]leafVerdict, len(leaves))

	threads := ctx.Options.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	if threads > len(leaves) {
		threads = len(leaves)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < threads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				verdicts[idx] = verifyLeaf(ctx, tree, graph, leaves[idx])
			}
		}()
	}
	for idx := range leaves {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	// merge in leaf order, so output does not depend on scheduling
	var firstErr error
	for _, v := range verdicts {
		ctx.Log.Merge(v.mlog, "")
		if v.err != nil && firstErr == nil {
			firstErr = v.err
		}
	}
	return firstErr
}

func verifySymmetry(ctx *PassContext, tree *Tree, graph *PortalGraph, stopAtDetail bool) error {
	listed := make(map[PortalID][2]int, graph.NumPortals())
	for i := range tree.Nodes {
		id := NodeID(i)
		for _, pid := range graph.PortalsOf(id) {
			if int(pid) >= graph.NumPortals() {
				return errors.New("node lists unknown portal").
					WithType(ErrTypeMislinkedPortal).
					WithTag("node", id).
					WithTag("portal", pid)
			}
			side, err := graph.sideOf(pid, id)
			if err != nil {
				return err
			}
			c := listed[pid]
			c[side]++
			listed[pid] = c
		}
	}

	for _, pid := range graph.LivePortals() {
		p := graph.Portal(pid)
		for side, node := range p.Nodes {
			if node != tree.Outside && !tree.IsGraphLeaf(node, stopAtDetail) {
				return errors.New("portal bounds a node that is not a leaf").
					WithType(ErrTypeMislinkedPortal).
					WithTag("portal", pid).
					WithTag("node", node)
			}
			if n := listed[pid][side]; n != 1 {
				return errors.New("portal not listed once by its side").
					WithType(ErrTypeAsymmetricPortal).
					WithTag("portal", pid).
					WithTag("node", node).
					WithTag("count", n)
			}
		}
		if err := p.Winding.Check(ctx.Options.Epsilon*10, ctx.Options.BogusRange); err != nil {
			if errors.IsType(err, ErrTypeWindingOverflow) {
				return errors.New("portal winding overflow").
					WithType(ErrTypeWindingOverflow).
					WithTag("portal", pid).
					Wrap(err)
			}
			ctx.Log.Warn("Portal %d between %d and %d has bad winding: %s", pid,
				p.Nodes[0], p.Nodes[1], err.Error())
		}
	}

	solidSolid := 0
	for _, pid := range graph.LivePortals() {
		p := graph.Portal(pid)
		if p.Nodes[0] == tree.Outside || p.Nodes[1] == tree.Outside {
			continue
		}
		if graphLeafContents(tree, p.Nodes[0]).IsSolid() &&
			graphLeafContents(tree, p.Nodes[1]).IsSolid() {
			solidSolid++
		}
	}
	ctx.Stats.SolidSolidPortals.Store(int64(solidSolid))
	return nil
}

func verifyLeaf(ctx *PassContext, tree *Tree, graph *PortalGraph, id NodeID) leafVerdict {
	mlog := CreateMiniLogger()
	portals := graph.PortalsOf(id)
	contents := graphLeafContents(tree, id)

	if len(portals) == 0 {
		if contents.IsSolid() {
			mlog.Verbose(2, "Solid leaf %d has no portals", id)
			return leafVerdict{mlog: mlog}
		}
		return leafVerdict{
			err: errors.New("leaf without portals").
				WithType(ErrTypeLeafWithoutPortals).
				WithTag("node", id).
				WithTag("contents", contents.String()),
			mlog: mlog,
		}
	}

	// two portals of one leaf covering the same window mean that some
	// split was done twice
	for i, a := range portals {
		for _, b := range portals[i+1:] {
			if graph.Portal(a).Winding.UndirectionalEqual(graph.Portal(b).Winding,
				ctx.Options.Epsilon) {
				mlog.Warn("Leaf %d has coincident portals %d and %d", id, a, b)
			}
		}
	}

	sum, total := LeafClosure(tree, graph, id)
	if !closureOK(sum, total, ctx.Options.ClosureTolerance) {
		mlog.Warn("Leaf %d (%s) is not closed: portal area vectors sum to (%v %v %v) over area %v",
			id, contents.String(), sum[0], sum[1], sum[2], total)
	}
	return leafVerdict{mlog: mlog}
}

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

// Pass statistics as Prometheus metrics, for node_exporter textfile collector
package main

import (
	"sync/atomic"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type PassMetrics struct {
	Registry     *prometheus.Registry
	passDuration prometheus.Gauge
	leaked       prometheus.Gauge
}

func counterFunc(reg prometheus.Registerer, name, help string, v *atomic.Int64) {
	promauto.With(reg).NewCounterFunc(prometheus.CounterOpts{
		Name: name,
		Help: help,
	}, func() float64 {
		return float64(v.Load())
	})
}

// NewPassMetrics registers metrics reading counters and state of ctx
func NewPassMetrics(ctx *PassContext) *PassMetrics {
	reg := prometheus.NewRegistry()
	labels := prometheus.Labels{"version": VERSION}

	promauto.With(reg).NewGauge(prometheus.GaugeOpts{
		Name:        "vigilantprt_info",
		Help:        "VigilantPRT information.",
		ConstLabels: labels,
	}).Set(1)

	counterFunc(reg, "vigilantprt_tiny_portals_total",
		"Portals dropped for being tiny.", &ctx.Stats.TinyPortals)
	counterFunc(reg, "vigilantprt_on_plane_portals_total",
		"Portals lying on the plane of the node splitting them.", &ctx.Stats.OnPlanePortals)
	counterFunc(reg, "vigilantprt_node_portals_total",
		"Portals created on node planes.", &ctx.Stats.NodePortals)
	counterFunc(reg, "vigilantprt_portal_splits_total",
		"Portals cut in two by node planes.", &ctx.Stats.PortalSplits)
	counterFunc(reg, "vigilantprt_solid_solid_portals_total",
		"Portals between two solid leaves.", &ctx.Stats.SolidSolidPortals)
	counterFunc(reg, "vigilantprt_content_conflicts_total",
		"Clusters mixing different liquids.", &ctx.Stats.ContentConflicts)

	gauges := []struct {
		name string
		help string
		get  func() float64
	}{
		{"vigilantprt_vis_portals", "Portals written for vis.",
			func() float64 { return float64(ctx.State.NumVisPortals) }},
		{"vigilantprt_vis_leafs", "Leaves seen by vis.",
			func() float64 { return float64(ctx.State.NumVisLeafs) }},
		{"vigilantprt_vis_clusters", "Clusters seen by vis.",
			func() float64 { return float64(ctx.State.NumVisClusters) }},
		{"vigilantprt_nodes_done", "Nodes processed by the last portal build.",
			func() float64 { return float64(ctx.State.NodesDone) }},
		{"vigilantprt_planes", "Planes in plane table.",
			func() float64 { return float64(ctx.Planes.Len()) }},
	}
	for _, g := range gauges {
		promauto.With(reg).NewGaugeFunc(prometheus.GaugeOpts{
			Name: g.name,
			Help: g.help,
		}, g.get)
	}

	return &PassMetrics{
		Registry: reg,
		passDuration: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "vigilantprt_pass_duration_seconds",
			Help: "Time taken by the compilation pass.",
		}),
		leaked: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "vigilantprt_leaked",
			Help: "1 if the level leaks.",
		}),
	}
}

func (m *PassMetrics) Observe(duration time.Duration, leaked bool) {
	m.passDuration.Set(duration.Seconds())
	if leaked {
		m.leaked.Set(1)
	} else {
		m.leaked.Set(0)
	}
}

// WriteTextfile writes metrics atomically (prometheus renames a temporary
// file into place)
func (m *PassMetrics) WriteTextfile(filename string) error {
	if err := prometheus.WriteToTextfile(filename, m.Registry); err != nil {
		return errors.New("writing metrics failed").
			WithType(ErrTypeOutput).
			WithTag("file", filename).
			Wrap(err)
	}
	return nil
}

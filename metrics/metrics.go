package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Rebuilds = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "iconanim_rebuilds_total",
			Help: "Total animation group rebuilds",
		},
	)

	AnimationHandles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "iconanim_animation_handles",
			Help: "Animation handles in the current group",
		},
	)

	DecodeErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "iconanim_decode_errors_total",
			Help: "Tagged groups dropped because their id could not be decoded",
		},
	)

	TransportCommands = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "iconanim_transport_commands_total",
			Help: "Transport commands received by source, op and status",
		},
		[]string{"source", "op", "status"},
	)

	FramesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "iconanim_frames_published_total",
			Help: "Pose frames published per sink",
		},
		[]string{"sink"},
	)
)

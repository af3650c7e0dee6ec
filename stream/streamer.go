package stream

import (
	"context"
	"errors"
	"time"

	"github.com/eclipse/paho.mqtt.golang"

	"github.com/matt-g-everett/iconanim/logger"
	"github.com/matt-g-everett/iconanim/metrics"
)

// A FrameSink delivers frames to renderers.
type FrameSink interface {
	Name() string
	Publish(f *Frame) error
}

// ErrPublishTimeout is returned when the broker does not acknowledge a frame in time.
var ErrPublishTimeout = errors.New("mqtt publish timed out")

// MQTTSink publishes frames on an MQTT topic.
type MQTTSink struct {
	client  mqtt.Client
	topic   string
	timeout time.Duration
}

// NewMQTTSink creates an MQTTSink publishing to topic.
func NewMQTTSink(client mqtt.Client, topic string) *MQTTSink {
	s := new(MQTTSink)
	s.client = client
	s.topic = topic
	s.timeout = 2 * time.Second
	return s
}

func (s *MQTTSink) Name() string {
	return "mqtt"
}

// Publish sends the frame as JSON.
func (s *MQTTSink) Publish(f *Frame) error {
	b, err := f.MarshalBinary()
	if err != nil {
		return err
	}
	token := s.client.Publish(s.topic, 0, false, b)
	if !token.WaitTimeout(s.timeout) {
		return ErrPublishTimeout
	}
	return token.Error()
}

// Streamer sends frames of an Animation to its sinks: continuously while it
// runs, and once after every refresh so held poses reach renderers too.
type Streamer struct {
	animation  Animation
	sinks      []FrameSink
	interval   time.Duration
	log        *logger.Logger
	refresh    chan struct{}
	wasRunning bool
}

// NewStreamer creates an instance of a Streamer.
func NewStreamer(animation Animation, frameRate float64, log *logger.Logger, sinks ...FrameSink) *Streamer {
	s := new(Streamer)
	s.animation = animation
	s.sinks = sinks
	s.interval = time.Duration(float64(time.Second) / frameRate)
	s.log = log
	s.refresh = make(chan struct{}, 1)
	return s
}

// AddSink adds a sink. It must be called before Run.
func (s *Streamer) AddSink(sink FrameSink) {
	s.sinks = append(s.sinks, sink)
}

// Refresh asks the streamer to send a frame soon. It never blocks.
func (s *Streamer) Refresh() {
	select {
	case s.refresh <- struct{}{}:
	default:
	}
}

// SendFrame calculates a frame and publishes it to every sink.
func (s *Streamer) SendFrame() *Frame {
	f := s.animation.CalculateFrame()
	s.publish(f)
	return f
}

func (s *Streamer) publish(f *Frame) {
	for _, sink := range s.sinks {
		if err := sink.Publish(f); err != nil {
			s.log.WithFields(map[string]any{"sink": sink.Name()}).Warn(err, "frame not published")
			continue
		}
		metrics.FramesPublished.WithLabelValues(sink.Name()).Inc()
	}
}

func (s *Streamer) tick() {
	f := s.animation.CalculateFrame()
	if !f.Running && !s.wasRunning {
		return
	}
	// The frame after the last running one carries the final pose.
	s.publish(f)
	s.wasRunning = f.Running
}

// Run causes the Streamer to send Frames until ctx is done.
func (s *Streamer) Run(ctx context.Context) {
	publishTimer := time.NewTicker(s.interval)
	defer publishTimer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-publishTimer.C:
			s.tick()
		case <-s.refresh:
			s.wasRunning = s.SendFrame().Running
		}
	}
}

package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/eclipse/paho.mqtt.golang"

	"github.com/matt-g-everett/iconanim/logger"
	"github.com/matt-g-everett/iconanim/metrics"
)

// Command is a transport or configuration request from a dashboard or
// automation backend.
type Command struct {
	Op         string   `json:"op"`
	Position   *float64 `json:"position,omitempty"`
	Value      *bool    `json:"value,omitempty"`
	Duration   *float64 `json:"duration,omitempty"`
	Iterations *int     `json:"iterations,omitempty"`
	Direction  *string  `json:"direction,omitempty"`
	Easing     *string  `json:"easing,omitempty"`
	Name       string   `json:"name,omitempty"`
}

var (
	ErrUnknownOp    = errors.New("unknown command")
	ErrMissingField = errors.New("missing command field")
)

// IconLoader replaces the current icon by name.
type IconLoader interface {
	Load(name string) error
}

// Bridge applies commands and level readings to a Synthesizer.
type Bridge struct {
	synth  *Synthesizer
	icons  IconLoader
	level  LevelConfig
	log    *logger.Logger
	source string
}

// NewBridge creates a Bridge. icons may be nil when icons cannot be switched.
func NewBridge(synth *Synthesizer, icons IconLoader, level LevelConfig, log *logger.Logger) *Bridge {
	b := new(Bridge)
	b.synth = synth
	b.icons = icons
	b.level = level
	b.log = log
	b.source = "api"
	return b
}

// Handle applies one command.
func (b *Bridge) Handle(cmd Command) error {
	return b.handle(b.source, cmd)
}

func (b *Bridge) handle(source string, cmd Command) error {
	err := b.apply(cmd)
	op, status := strings.ToLower(cmd.Op), "ok"
	if err != nil {
		status = "error"
		if errors.Is(err, ErrUnknownOp) {
			op = "unknown"
		}
	}
	metrics.TransportCommands.WithLabelValues(source, op, status).Inc()
	b.log.WithFields(map[string]any{"op": op, "source": source, "status": status}).Debug("command")
	return err
}

func (b *Bridge) apply(cmd Command) error {
	switch strings.ToLower(cmd.Op) {
	case "play", "animate":
		b.synth.Animate()
	case "pause":
		b.synth.Pause()
	case "seek", "position", "progress":
		if cmd.Position == nil {
			return fmt.Errorf("%w: position", ErrMissingField)
		}
		b.synth.SetProgress(*cmd.Position)
	case "trigger":
		on := true
		if cmd.Value != nil {
			on = *cmd.Value
		}
		b.synth.SetTrigger(on)
	case "autoplay":
		if cmd.Value == nil {
			return fmt.Errorf("%w: value", ErrMissingField)
		}
		b.synth.SetAutoplay(*cmd.Value)
	case "rebuild":
		return b.synth.PrepareAnimations()
	case "options":
		return b.synth.SetOptions(cmd.options(b.synth.Options()))
	case "open", "close":
		// Opening a blind runs its close animation backwards.
		direction := DirectionNormal
		if strings.EqualFold(cmd.Op, "open") {
			direction = DirectionReverse
		}
		if err := b.synth.SetDirection(direction); err != nil {
			return err
		}
		b.synth.Animate()
	case "icon":
		if b.icons == nil {
			return fmt.Errorf("%w: icon switching is not available", ErrUnknownOp)
		}
		if cmd.Name == "" {
			return fmt.Errorf("%w: name", ErrMissingField)
		}
		return b.icons.Load(cmd.Name)
	default:
		return fmt.Errorf("%w %q", ErrUnknownOp, cmd.Op)
	}
	return nil
}

func (cmd Command) options(opts Options) Options {
	if cmd.Duration != nil {
		opts.Duration = *cmd.Duration
	}
	if cmd.Iterations != nil {
		opts.Iterations = *cmd.Iterations
	}
	if cmd.Direction != nil {
		opts.Direction = Direction(*cmd.Direction)
	}
	if cmd.Easing != nil {
		opts.Easing = *cmd.Easing
	}
	return opts
}

// HandleLevel maps a numeric reading onto the animation position. Levels
// always pose the icon in the normal direction, whatever an earlier open or
// close left behind.
func (b *Bridge) HandleLevel(value float64) {
	if err := b.synth.SetDirection(DirectionNormal); err != nil {
		metrics.TransportCommands.WithLabelValues("level", "seek", "error").Inc()
		b.log.Warn(err, "level reading rejected")
		return
	}
	b.synth.SetAnimationPosition(b.level.Position(value))
	metrics.TransportCommands.WithLabelValues("level", "seek", "ok").Inc()
}

// ParseCommand decodes a JSON command payload. A bare word such as "play"
// is accepted as the op.
func ParseCommand(payload []byte) (Command, error) {
	var cmd Command
	text := strings.TrimSpace(string(payload))
	if !strings.HasPrefix(text, "{") {
		cmd.Op = text
		return cmd, nil
	}
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return cmd, fmt.Errorf("parse command: %w", err)
	}
	return cmd, nil
}

func (b *Bridge) handleCommandMessage(client mqtt.Client, msg mqtt.Message) {
	cmd, err := ParseCommand(msg.Payload())
	if err == nil {
		err = b.handle("mqtt", cmd)
	}
	if err != nil {
		b.log.WithFields(map[string]any{"topic": msg.Topic()}).Warn(err, "command rejected")
	}
}

func (b *Bridge) handleLevelMessage(client mqtt.Client, msg mqtt.Message) {
	value, err := strconv.ParseFloat(strings.TrimSpace(string(msg.Payload())), 64)
	if err != nil {
		b.log.WithFields(map[string]any{"topic": msg.Topic()}).Warn(err, "level reading rejected")
		return
	}
	b.HandleLevel(value)
}

// Subscribe listens for commands and level readings. Empty topics are skipped.
func (b *Bridge) Subscribe(client mqtt.Client, commandTopic, levelTopic string) error {
	if commandTopic != "" {
		if token := client.Subscribe(commandTopic, 0, b.handleCommandMessage); token.Wait() && token.Error() != nil {
			return fmt.Errorf("subscribe %s: %w", commandTopic, token.Error())
		}
	}
	if levelTopic != "" {
		if token := client.Subscribe(levelTopic, 0, b.handleLevelMessage); token.Wait() && token.Error() != nil {
			return fmt.Errorf("subscribe %s: %w", levelTopic, token.Error())
		}
	}
	return nil
}

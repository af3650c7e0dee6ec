package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eclipse/paho.mqtt.golang"
	"github.com/spf13/cobra"

	"github.com/matt-g-everett/iconanim/api"
	"github.com/matt-g-everett/iconanim/logger"
	"github.com/matt-g-everett/iconanim/stream"
	"github.com/matt-g-everett/iconanim/svg"
	"github.com/matt-g-everett/iconanim/theme"
)

type app struct {
	Config   *stream.Config
	Log      *logger.Logger
	Client   mqtt.Client
	Loader   *svg.Loader
	Synth    *stream.Synthesizer
	Bridge   *stream.Bridge
	Streamer *stream.Streamer
	Api      *api.Api
}

func newServeCmd(root *rootFlags) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Stream icon animations over MQTT and HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := stream.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if root.logLevel != "" {
				cfg.Log.Level = root.logLevel
			}
			if root.human {
				cfg.Log.Human = true
			}

			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.run(ctx)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "YAML or TOML config file")
	return cmd
}

func newApp(cfg *stream.Config) (*app, error) {
	lg, err := logger.New(logger.Options{Level: cfg.Log.Level, HumanReadable: cfg.Log.Human})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	palette, err := theme.NewPalette(cfg.Theme.Colors)
	if err != nil {
		return nil, &stream.ConfigError{Field: "Config.Theme.Colors", Message: err.Error(), Err: err}
	}
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}

	a := new(app)
	a.Config = cfg
	a.Log = lg
	a.Synth, err = stream.NewSynthesizer(opts, cfg.Animation.Autoplay, time.Now, lg)
	if err != nil {
		return nil, err
	}
	a.Loader = svg.NewLoader(cfg.Icon.Path)
	a.Loader.OnChange(a.Synth.OnGraphicChanged)
	a.Bridge = stream.NewBridge(a.Synth, a.Loader, cfg.Level, lg)
	a.Api = api.NewApi(cfg.HTTP.Addr, a.Synth, a.Bridge, palette, lg)
	a.Streamer = stream.NewStreamer(a.Synth, cfg.Animation.FrameRate, lg, a.Api)
	a.Synth.OnUpdate(a.Streamer.Refresh)

	if cfg.Mqtt.URL != "" {
		mqtt.ERROR = log.New(os.Stderr, "mqtt: ", 0)
		options := mqtt.NewClientOptions().
			AddBroker(cfg.Mqtt.URL).
			SetClientID(cfg.Mqtt.ClientID).
			SetUsername(cfg.Mqtt.Username).
			SetPassword(cfg.Mqtt.Password).
			SetKeepAlive(30 * time.Second).
			SetPingTimeout(5 * time.Second).
			SetAutoReconnect(true).
			SetOnConnectHandler(a.handleOnConnect).
			SetConnectionLostHandler(a.handleConnectionLost)
		a.Client = mqtt.NewClient(options)
		if cfg.Mqtt.Topics.Stream != "" {
			a.Streamer.AddSink(stream.NewMQTTSink(a.Client, cfg.Mqtt.Topics.Stream))
		}
	}
	return a, nil
}

func (a *app) handleOnConnect(client mqtt.Client) {
	a.Log.WithFields(map[string]any{"broker": a.Config.Mqtt.URL}).Info("connected")
	topics := a.Config.Mqtt.Topics
	if err := a.Bridge.Subscribe(client, topics.Command, topics.Level); err != nil {
		a.Log.Error(err, "subscribe failed")
	}
}

func (a *app) handleConnectionLost(client mqtt.Client, err error) {
	a.Log.Warn(err, "connection lost")
}

func (a *app) run(ctx context.Context) error {
	a.Log.WithFields(map[string]any{
		"icon":      a.Config.Icon.Name,
		"path":      a.Config.Icon.Path,
		"addr":      a.Config.HTTP.Addr,
		"broker":    a.Config.Mqtt.URL,
		"frameRate": a.Config.Animation.FrameRate,
	}).Info("starting")

	if err := a.Loader.Load(a.Config.Icon.Name); err != nil {
		return err
	}

	if a.Client != nil {
		if token := a.Client.Connect(); token.Wait() && token.Error() != nil {
			return fmt.Errorf("connect %s: %w", a.Config.Mqtt.URL, token.Error())
		}
		defer a.Client.Disconnect(250)
	}

	go a.Streamer.Run(ctx)

	err := a.Api.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	a.Log.Info("stopped")
	return nil
}

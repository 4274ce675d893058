// Package mqtt publishes the price sensors to Home Assistant using MQTT
// discovery. Config messages are retained and re-sent after every reconnect.
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/angas/elpris-go/config"
	"github.com/angas/elpris-go/sensor"
	"github.com/angas/elpris-go/types"
	paho "github.com/eclipse/paho.mqtt.golang"
)

const publishTimeout = 5 * time.Second

var ErrPublishTimeout = errors.New("mqtt publish timed out")

// Client is the part of paho.Client used here.
type Client interface {
	Connect() paho.Token
	Publish(topic string, qos byte, retained bool, payload any) paho.Token
	Disconnect(quiesce uint)
}

type Publisher struct {
	client     Client
	logger     *slog.Logger
	area       types.PriceArea
	topics     topics
	discovered atomic.Bool
}

func New(cnfg config.AppConfigMqtt, area types.PriceArea) *Publisher {
	p := &Publisher{
		logger: slog.Default().With("module", "mqtt"),
		area:   area,
		topics: newTopics(cnfg.TopicPrefix, area),
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cnfg.Host, cnfg.Port))
	opts.SetClientID(sensor.DeviceIdentifier + "_" + area.String())
	opts.SetUsername(cnfg.Username)
	opts.SetPassword(cnfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetWill(p.topics.availability(), payloadOffline, 0, true)
	opts.OnConnect = func(client paho.Client) {
		p.logger.Info("MQTT connected")
		p.discovered.Store(false)
	}
	opts.OnConnectionLost = func(client paho.Client, err error) {
		p.logger.Warn("MQTT connection lost", slog.Any("error", err))
	}

	pahoLog := slog.Default().With("module", "paho")
	paho.CRITICAL = newPahoLogger(pahoLog, slog.LevelError)
	paho.ERROR = newPahoLogger(pahoLog, slog.LevelError)
	paho.WARN = newPahoLogger(pahoLog, slog.LevelWarn)

	p.client = paho.NewClient(opts)
	return p
}

// NewWithClient uses an already configured client.
func NewWithClient(client Client, topicPrefix string, area types.PriceArea) *Publisher {
	return &Publisher{
		client: client,
		logger: slog.Default().With("module", "mqtt"),
		area:   area,
		topics: newTopics(topicPrefix, area),
	}
}

func (p *Publisher) Connect() error {
	p.logger.Debug("connecting MQTT client")
	if token := p.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("connecting to MQTT broker: %w", token.Error())
	}
	return nil
}

func (p *Publisher) Disconnect() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := p.publish(ctx, p.topics.availability(), true, payloadOffline); err != nil {
		p.logger.Warn("failed to publish offline status", slog.Any("error", err))
	}
	p.client.Disconnect(250)
}

// Publish sends the state of every sensor, preceded by the discovery
// config the first time after a connect.
func (p *Publisher) Publish(ctx context.Context, readings []sensor.Reading) error {
	if !p.discovered.Load() {
		if err := p.publishDiscovery(ctx); err != nil {
			return err
		}
		p.discovered.Store(true)
	}

	for _, r := range readings {
		if err := p.publish(ctx, p.topics.state(r.Metric), true, r.Value.String()); err != nil {
			return fmt.Errorf("publishing %s: %w", r.Metric.Key(), err)
		}
	}
	p.logger.Debug("sensor states published", slog.Int("count", len(readings)))
	return nil
}

func (p *Publisher) publishDiscovery(ctx context.Context) error {
	for _, m := range sensor.AllMetrics() {
		payload, err := json.Marshal(newDiscoveryConfig(p.topics, m, p.area))
		if err != nil {
			return fmt.Errorf("encoding discovery config: %w", err)
		}
		if err := p.publish(ctx, p.topics.config(m, p.area), true, payload); err != nil {
			return fmt.Errorf("publishing discovery config for %s: %w", m.Key(), err)
		}
	}
	if err := p.publish(ctx, p.topics.availability(), true, payloadOnline); err != nil {
		return fmt.Errorf("publishing availability: %w", err)
	}
	p.logger.Info("home assistant discovery published", slog.String("area", p.area.String()))
	return nil
}

func (p *Publisher) publish(ctx context.Context, topic string, retained bool, payload any) error {
	token := p.client.Publish(topic, 0, retained, payload)
	timer := time.NewTimer(publishTimeout)
	defer timer.Stop()

	select {
	case <-token.Done():
		return token.Error()
	case <-timer.C:
		return ErrPublishTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

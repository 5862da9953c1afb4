package mqtt

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"boilermon/internal/logger"
	"boilermon/internal/service"
)

const (
	defaultTopic   = "boilers/+/telemetry"
	connectTimeout = 10 * time.Second
	handleTimeout  = 5 * time.Second
	subscribeQoS   = 1
)

// Config holds the broker connection settings for the telemetry ingestor.
type Config struct {
	BrokerURL string
	ClientID  string
	Topic     string
	Username  string
	Password  string
}

// Ingestor subscribes to telemetry topics and feeds each message through
// the same validate-then-ingest path as the HTTP endpoint. Payloads are
// the same JSON batches devices would POST to /api/v1/ingest.
type Ingestor struct {
	client    mqtt.Client
	topic     string
	validator service.Validator
	ingestor  service.Ingestor
	log       *logger.Logger
}

func NewIngestor(cfg Config, validator service.Validator, ingestor service.Ingestor, log *logger.Logger) *Ingestor {
	topic := cfg.Topic
	if topic == "" {
		topic = defaultTopic
	}

	ing := &Ingestor{
		topic:     topic,
		validator: validator,
		ingestor:  ingestor,
		log:       log,
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(cfg.ClientID).
		SetOrderMatters(false).
		SetCleanSession(false).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(10 * time.Second).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(ing.onConnect).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.Warnw("mqtt_connection_lost", "error", err)
		})
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	ing.client = mqtt.NewClient(opts)
	return ing
}

// Start connects to the broker. Subscriptions happen in onConnect so they
// are re-established after every reconnect.
func (i *Ingestor) Start() error {
	token := i.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("mqtt connect: timeout after %s", connectTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	return nil
}

// Stop disconnects gracefully, allowing in-flight handlers to finish.
func (i *Ingestor) Stop() {
	i.client.Disconnect(250)
}

func (i *Ingestor) onConnect(client mqtt.Client) {
	i.log.Infow("mqtt_connected", "topic", i.topic)
	token := client.Subscribe(i.topic, subscribeQoS, i.handleMessage)
	if token.Wait() && token.Error() != nil {
		i.log.Errorw("mqtt_subscribe_failed", "topic", i.topic, "error", token.Error())
	}
}

// handleMessage runs one telemetry payload through the ingestion pipeline.
// There is no client to answer here, so rejected payloads are only logged.
func (i *Ingestor) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	batch, err := i.validator.Validate(ctx, msg.Payload())
	if err != nil {
		i.log.Warnw("mqtt_payload_rejected", "topic", msg.Topic(), "error", err)
		return
	}

	result, err := i.ingestor.Ingest(ctx, batch)
	if err != nil {
		i.log.Errorw("mqtt_ingest_failed", "site_id", batch.SiteID, "error", err)
		return
	}
	i.log.Infow("mqtt_batch_ingested",
		"site_id", result.SiteID,
		"processed", result.Processed,
		"cached", result.Cached,
		"status", result.Status,
	)
}

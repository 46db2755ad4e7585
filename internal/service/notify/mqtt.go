// Package notify publishes verification events to caregivers over MQTT.
package notify

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"medaware/internal/config"
	"medaware/internal/dto"
	"medaware/internal/logger"
)

const (
	verifiedQoS    = 1
	connectTimeout = 5 * time.Second
	publishTimeout = 2 * time.Second
)

// MQTTNotifier publishes every verification to <topic>/<uid>.
type MQTTNotifier struct {
	client mqtt.Client
	topic  string
	logger *logger.Logger

	mu        sync.RWMutex
	connected bool
	published uint64
	errors    uint64
}

// NewMQTTNotifier connects to cfg.MQTTBroker. The client keeps reconnecting
// in the background after a lost connection.
func NewMQTTNotifier(cfg *config.Config, logger *logger.Logger) (*MQTTNotifier, error) {
	n := &MQTTNotifier{
		topic:  cfg.MQTTTopic,
		logger: logger,
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL(cfg.MQTTBroker))
	opts.SetClientID(cfg.MQTTClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = func(c mqtt.Client) {
		n.setConnected(true)
		n.logger.Info("📡 MQTT connection established (%s)", cfg.MQTTBroker)
	}
	opts.OnConnectionLost = func(c mqtt.Client, err error) {
		n.setConnected(false)
		n.logger.Warning("MQTT connection lost, will auto-reconnect: %v", err)
	}

	n.client = mqtt.NewClient(opts)

	token := n.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("mqtt connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connection failed: %w", err)
	}
	n.setConnected(true)

	return n, nil
}

// brokerURL adds the tcp scheme to bare host:port addresses.
func brokerURL(broker string) string {
	if strings.Contains(broker, "://") {
		return broker
	}
	return "tcp://" + broker
}

// Topic returns the topic a user's verifications are published on.
func (n *MQTTNotifier) Topic(userID int64) string {
	return fmt.Sprintf("%s/%d", n.topic, userID)
}

// NotifyVerified publishes event as JSON.
func (n *MQTTNotifier) NotifyVerified(event dto.Verified) error {
	if !n.isConnected() {
		n.countError()
		return fmt.Errorf("mqtt not connected")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		n.countError()
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	token := n.client.Publish(n.Topic(event.UserID), verifiedQoS, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		n.countError()
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		n.countError()
		return fmt.Errorf("publish failed: %w", err)
	}

	n.mu.Lock()
	n.published++
	n.mu.Unlock()
	return nil
}

// Stats returns the number of published events and failures.
func (n *MQTTNotifier) Stats() (published, errors uint64) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.published, n.errors
}

// Close disconnects from the broker.
func (n *MQTTNotifier) Close() {
	if n.client != nil && n.client.IsConnected() {
		n.client.Disconnect(250)
		n.logger.Info("MQTT disconnected")
	}
	n.setConnected(false)
}

func (n *MQTTNotifier) setConnected(v bool) {
	n.mu.Lock()
	n.connected = v
	n.mu.Unlock()
}

func (n *MQTTNotifier) isConnected() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.connected
}

func (n *MQTTNotifier) countError() {
	n.mu.Lock()
	n.errors++
	n.mu.Unlock()
}

package mission

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"droneops-scout/internal/telemetry"
)

// publisher is the part of mqtt.Client the writer uses.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTWriter publishes mission rows as JSON on <prefix>/<mission>/<kind>.
type MQTTWriter struct {
	client  publisher
	closer  func()
	prefix  string
	qos     byte
	timeout time.Duration
}

// NewMQTTWriter connects to broker and returns a writer publishing under prefix.
func NewMQTTWriter(broker, clientID, prefix string) (*MQTTWriter, error) {
	if clientID == "" {
		clientID = "droneops-scout"
	}
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetKeepAlive(60 * time.Second)
	c := mqtt.NewClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt connect %s: timeout", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", broker, err)
	}
	w := newMQTTWriter(c, prefix)
	w.closer = func() { c.Disconnect(250) }
	return w, nil
}

func newMQTTWriter(p publisher, prefix string) *MQTTWriter {
	if prefix == "" {
		prefix = "scout"
	}
	return &MQTTWriter{client: p, prefix: prefix, qos: 0, timeout: 2 * time.Second}
}

func (w *MQTTWriter) publish(missionID, kind string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", kind, err)
	}
	topic := fmt.Sprintf("%s/%s/%s", w.prefix, missionID, kind)
	token := w.client.Publish(topic, w.qos, false, payload)
	if token.WaitTimeout(w.timeout) && token.Error() != nil {
		return fmt.Errorf("publishing to %s: %w", topic, token.Error())
	}
	return nil
}

// WritePose publishes a pose row.
func (w *MQTTWriter) WritePose(r telemetry.PoseRow) error {
	return w.publish(r.MissionID, "pose", r)
}

// WriteObservation publishes an observation row.
func (w *MQTTWriter) WriteObservation(r telemetry.ObservationRow) error {
	return w.publish(r.MissionID, "observation", r)
}

// WriteTargets publishes all targets as one message.
func (w *MQTTWriter) WriteTargets(rows []telemetry.TargetRow) error {
	if len(rows) == 0 {
		return nil
	}
	return w.publish(rows[0].MissionID, "targets", rows)
}

// WriteState publishes a state row.
func (w *MQTTWriter) WriteState(r telemetry.MissionStateRow) error {
	return w.publish(r.MissionID, "state", r)
}

// Close disconnects from the broker.
func (w *MQTTWriter) Close() error {
	if w.closer != nil {
		w.closer()
	}
	return nil
}

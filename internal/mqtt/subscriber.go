package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"home_energy_dashboard/internal/logger"
	"home_energy_dashboard/internal/models"

	paho "github.com/eclipse/paho.mqtt.golang"
)

const (
	connectTimeout  = 10 * time.Second
	disconnectQuiet = 250 // ms
	subscribeQoS    = 1
	eventBuffer     = 32
)

var errTimeout = errors.New("mqtt: timed out")

// Subscriber turns switch state topics into SwitchEvents.
// Topics look like viki/switch/<id>/state; payloads are either
// {"id":1,"new_state":true} or a bare boolean.
type Subscriber struct {
	broker   string
	clientID string
	topic    string
	log      *logger.Logger

	newClient func(o *paho.ClientOptions) paho.Client
}

func NewSubscriber(broker, clientID, topic string, log *logger.Logger) *Subscriber {
	if log == nil {
		log = logger.NewNop()
	}
	return &Subscriber{
		broker:    broker,
		clientID:  clientID,
		topic:     topic,
		log:       log.Named("mqtt"),
		newClient: paho.NewClient,
	}
}

// Events connects, subscribes and streams events until ctx is done.
func (s *Subscriber) Events(ctx context.Context) (<-chan models.SwitchEvent, error) {
	opts := paho.NewClientOptions().
		AddBroker(s.broker).
		SetClientID(s.clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			s.log.Warnw("mqtt_connection_lost", "err", err)
		})

	client := s.newClient(opts)
	if err := wait(client.Connect()); err != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", s.broker, err)
	}

	var (
		mu     sync.Mutex
		closed bool
		out    = make(chan models.SwitchEvent, eventBuffer)
	)

	handler := func(_ paho.Client, msg paho.Message) {
		ev, err := parseSwitchMessage(msg.Topic(), msg.Payload())
		if err != nil {
			s.log.Debugw("mqtt_bad_message", "topic", msg.Topic(), "err", err)
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case out <- ev:
		case <-ctx.Done():
		}
	}

	if err := wait(client.Subscribe(s.topic, subscribeQoS, handler)); err != nil {
		client.Disconnect(disconnectQuiet)
		return nil, fmt.Errorf("mqtt subscribe %s: %w", s.topic, err)
	}
	s.log.Infow("mqtt_subscribed", "broker", s.broker, "topic", s.topic)

	go func() {
		<-ctx.Done()
		client.Unsubscribe(s.topic)
		client.Disconnect(disconnectQuiet)
		mu.Lock()
		closed = true
		close(out)
		mu.Unlock()
	}()
	return out, nil
}

func wait(tok paho.Token) error {
	if !tok.WaitTimeout(connectTimeout) {
		return errTimeout
	}
	return tok.Error()
}

// parseSwitchMessage prefers the id embedded in the topic and falls back to the payload id.
func parseSwitchMessage(topic string, payload []byte) (models.SwitchEvent, error) {
	ev := models.SwitchEvent{Source: models.SourceMQTT, ReceivedAt: time.Now().UTC()}

	topicID, topicErr := idFromTopic(topic)

	raw := strings.TrimSpace(string(payload))
	if strings.HasPrefix(raw, "{") {
		var body struct {
			ID       *int  `json:"id"`
			NewState *bool `json:"new_state"`
		}
		if err := json.Unmarshal([]byte(raw), &body); err != nil {
			return models.SwitchEvent{}, fmt.Errorf("decode payload: %w", err)
		}
		if body.NewState == nil {
			return models.SwitchEvent{}, errors.New("payload has no new_state")
		}
		ev.NewState = *body.NewState
		switch {
		case topicErr == nil:
			ev.ID = topicID
		case body.ID != nil:
			ev.ID = *body.ID
		default:
			return models.SwitchEvent{}, topicErr
		}
		return ev, nil
	}

	if topicErr != nil {
		return models.SwitchEvent{}, topicErr
	}
	state, err := parseBool(raw)
	if err != nil {
		return models.SwitchEvent{}, err
	}
	ev.ID = topicID
	ev.NewState = state
	return ev, nil
}

// idFromTopic takes the segment following "switch".
func idFromTopic(topic string) (int, error) {
	parts := strings.Split(topic, "/")
	for i := 0; i < len(parts)-1; i++ {
		if parts[i] == "switch" {
			id, err := strconv.Atoi(parts[i+1])
			if err != nil {
				return 0, fmt.Errorf("topic %q: bad switch id: %w", topic, err)
			}
			return id, nil
		}
	}
	return 0, fmt.Errorf("topic %q has no switch id", topic)
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "1", "true", "on":
		return true, nil
	case "0", "false", "off":
		return false, nil
	}
	return false, fmt.Errorf("unrecognised state %q", s)
}

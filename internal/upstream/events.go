package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"home_energy_dashboard/internal/logger"
	"home_energy_dashboard/internal/models"

	"github.com/gorilla/websocket"
)

const (
	switchUpdatedEvent = "switch_updated"

	defaultRedialDelay = 3 * time.Second
	eventBuffer        = 32
)

// eventEnvelope is one push frame: {"type":"switch_updated","data":{"id":1,"new_state":true}}.
type eventEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// EventStream subscribes to the backend push endpoint over a websocket.
//
// Frames are plain JSON envelopes, one per text message. A backend that emits
// through Socket.IO needs a bridge in front of events_path that strips the
// Engine.IO framing ("42[...]" packets, ping/pong probes); this stream does not
// speak that protocol, and the poller keeps devices current without it.
type EventStream struct {
	client      *Client
	path        string
	dialer      *websocket.Dialer
	redialDelay time.Duration
	log         *logger.Logger
}

func NewEventStream(c *Client, path string, log *logger.Logger) *EventStream {
	if log == nil {
		log = logger.NewNop()
	}
	return &EventStream{
		client:      c,
		path:        path,
		dialer:      &websocket.Dialer{HandshakeTimeout: 5 * time.Second},
		redialDelay: defaultRedialDelay,
		log:         log.Named("push"),
	}
}

// URL is the websocket address derived from the client base URL.
func (s *EventStream) URL() string {
	u := s.client.BaseURL()
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	return strings.TrimRight(u.String(), "/") + s.path
}

func (s *EventStream) dial(ctx context.Context) (*websocket.Conn, error) {
	h := http.Header{}
	cookies := s.client.Cookies()
	if len(cookies) > 0 {
		parts := make([]string, 0, len(cookies))
		for _, ck := range cookies {
			parts = append(parts, ck.Name+"="+ck.Value)
		}
		h.Set("Cookie", strings.Join(parts, "; "))
	}
	conn, _, err := s.dialer.DialContext(ctx, s.URL(), h)
	if err != nil {
		return nil, &transportError{method: http.MethodGet, path: s.path, err: err}
	}
	return conn, nil
}

// Events opens the subscription. The first dial must succeed; later drops are redialed
// until ctx is done, at which point the channel is closed.
func (s *EventStream) Events(ctx context.Context) (<-chan models.SwitchEvent, error) {
	conn, err := s.dial(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan models.SwitchEvent, eventBuffer)
	go func() {
		defer close(out)
		for {
			s.pump(ctx, conn, out)
			if ctx.Err() != nil {
				return
			}
			conn = s.redial(ctx)
			if conn == nil {
				return
			}
		}
	}()
	return out, nil
}

func (s *EventStream) redial(ctx context.Context) *websocket.Conn {
	t := time.NewTicker(s.redialDelay)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			conn, err := s.dial(ctx)
			if err != nil {
				s.log.Warnw("push_redial_failed", "err", err)
				continue
			}
			s.log.Infow("push_reconnected", "url", s.URL())
			return conn
		}
	}
}

// pump reads frames until the connection drops or ctx is cancelled.
func (s *EventStream) pump(ctx context.Context, conn *websocket.Conn, out chan<- models.SwitchEvent) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			_ = conn.Close()
		case <-done:
			_ = conn.Close()
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				s.log.Warnw("push_read_failed", "err", err)
			}
			return
		}
		ev, ok, err := decodeSwitchEvent(data)
		if err != nil {
			s.log.Debugw("push_bad_frame", "err", err)
			continue
		}
		if !ok {
			continue
		}
		ev.ReceivedAt = time.Now().UTC()
		select {
		case out <- ev:
		case <-ctx.Done():
			return
		}
	}
}

// decodeSwitchEvent returns ok=false for well formed frames of other event types.
func decodeSwitchEvent(data []byte) (models.SwitchEvent, bool, error) {
	var env eventEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return models.SwitchEvent{}, false, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Type != switchUpdatedEvent {
		return models.SwitchEvent{}, false, nil
	}
	var ev models.SwitchEvent
	if err := json.Unmarshal(env.Data, &ev); err != nil {
		return models.SwitchEvent{}, false, fmt.Errorf("decode %s: %w", env.Type, err)
	}
	ev.Source = models.SourcePush
	return ev, true, nil
}

package feed

import (
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/brynbeaudry/loserbot9000-sub002/market"
)

const wsHandshakeTimeout = 10 * time.Second

// WSFeed streams bars from a websocket server. After dialing it sends a
// single subscribe request and then reads bar events until the server
// closes the connection. Forming bars arrive as repeated events with
// the same bar time; consumers fold them by timestamp.
type WSFeed struct {
	conn       *websocket.Conn
	instrument string
}

type subscribeRequest struct {
	Op         string `json:"op"`
	Channel    string `json:"channel"`
	Instrument string `json:"instrument"`
	Timeframe  string `json:"timeframe"`
}

type barEvent struct {
	Instrument string    `json:"instrument"`
	Time       time.Time `json:"time"`
	Open       float64   `json:"open"`
	High       float64   `json:"high"`
	Low        float64   `json:"low"`
	Close      float64   `json:"close"`
	Volume     float64   `json:"volume"`
}

// NewWS dials url and subscribes to the bars channel for instrument and
// timeframe.
func NewWS(url, instrument, timeframe string) (*WSFeed, error) {
	dialer := websocket.Dialer{HandshakeTimeout: wsHandshakeTimeout}
	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	sub := subscribeRequest{
		Op:         "subscribe",
		Channel:    "bars",
		Instrument: instrument,
		Timeframe:  timeframe,
	}
	if err := conn.WriteJSON(sub); err != nil {
		conn.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	return &WSFeed{conn: conn, instrument: instrument}, nil
}

// Next blocks for the next bar event. Events for other instruments and
// events that do not form a valid bar are dropped.
func (w *WSFeed) Next() (market.Candle, bool, error) {
	for {
		var ev barEvent
		if err := w.conn.ReadJSON(&ev); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return market.Candle{}, false, nil
			}
			return market.Candle{}, false, fmt.Errorf("read bar event: %w", err)
		}
		if w.instrument != "" && ev.Instrument != "" && ev.Instrument != w.instrument {
			continue
		}
		candle := market.Candle{
			Open:   ev.Open,
			High:   ev.High,
			Low:    ev.Low,
			Close:  ev.Close,
			Time:   ev.Time,
			Volume: ev.Volume,
		}
		if err := candle.Validate(); err != nil {
			continue
		}
		return candle, true, nil
	}
}

// Close sends a close frame and tears down the connection.
func (w *WSFeed) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = w.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return w.conn.Close()
}

// Package tradingview implements feed.Dialer over the TradingView chart websocket.
package tradingview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"market-alert-service/internal/feed"
	"market-alert-service/internal/logging"
)

const (
	writeTimeout     = 5 * time.Second
	defaultAuthToken = "unauthorized_user_token"
	seriesID         = "sds_1"
	symbolID         = "sds_sym_1"
	updateBuffer     = 8
)

var errSessionClosed = errors.New("feed session closed")

type Dialer struct {
	url       string
	origin    string
	authToken string
	dialer    *websocket.Dialer
	logger    *logging.Logger
}

func NewDialer(url, origin string, logger *logging.Logger) *Dialer {
	return &Dialer{
		url:       url,
		origin:    origin,
		authToken: defaultAuthToken,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Dial opens a websocket and authenticates. The session reads until Close.
func (d *Dialer) Dial(ctx context.Context) (feed.Session, error) {
	header := http.Header{}
	if d.origin != "" {
		header.Set("Origin", d.origin)
	}
	conn, _, err := d.dialer.DialContext(ctx, d.url, header)
	if err != nil {
		return nil, fmt.Errorf("failed to dial feed %s: %w", d.url, err)
	}
	s := &Session{
		conn:   conn,
		logger: d.logger,
		charts: make(map[string]*Chart),
		done:   make(chan struct{}),
	}
	if err := s.send("set_auth_token", d.authToken); err != nil {
		_ = conn.Close()
		return nil, err
	}
	go s.readLoop()
	return s, nil
}

type Session struct {
	conn   *websocket.Conn
	logger *logging.Logger

	writeMu sync.Mutex

	mu     sync.Mutex
	charts map[string]*Chart

	done      chan struct{}
	closeOnce sync.Once
}

func (s *Session) OpenChart(ctx context.Context, req feed.ChartRequest) (feed.Chart, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	select {
	case <-s.done:
		return nil, errSessionClosed
	default:
	}

	c := &Chart{
		id:      "cs_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12],
		session: s,
		periods: make(map[int64]feed.Bar),
		updates: make(chan []feed.Bar, updateBuffer),
		errs:    make(chan error, 1),
		done:    make(chan struct{}),
	}
	s.mu.Lock()
	s.charts[c.id] = c
	s.mu.Unlock()

	symbol, err := json.Marshal(map[string]string{
		"symbol":     req.Symbol,
		"adjustment": "splits",
		"session":    req.Session,
	})
	if err != nil {
		s.forget(c.id)
		return nil, fmt.Errorf("failed to encode symbol %s: %w", req.Symbol, err)
	}
	steps := []struct {
		method string
		params []interface{}
	}{
		{"chart_create_session", []interface{}{c.id, ""}},
		{"resolve_symbol", []interface{}{c.id, symbolID, "=" + string(symbol)}},
		{"create_series", []interface{}{c.id, seriesID, "s1", symbolID, req.Timeframe, req.Range, ""}},
	}
	for _, step := range steps {
		if err := s.send(step.method, step.params...); err != nil {
			s.forget(c.id)
			return nil, err
		}
	}
	return c, nil
}

// Close closes the websocket. The read loop exits on the resulting read error.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.conn.Close()
	})
	return err
}

func (s *Session) send(method string, params ...interface{}) error {
	frame, err := encodePacket(method, params...)
	if err != nil {
		return err
	}
	return s.write(frame, method)
}

func (s *Session) write(frame, what string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := s.conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		return fmt.Errorf("failed to send %s: %w", what, err)
	}
	return nil
}

func (s *Session) forget(id string) {
	s.mu.Lock()
	delete(s.charts, id)
	s.mu.Unlock()
}

func (s *Session) chart(id string) *Chart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.charts[id]
}

func (s *Session) readLoop() {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
			default:
				s.failAll(fmt.Errorf("feed connection lost: %w", err))
			}
			return
		}
		payloads, err := parseFrames(string(data))
		if err != nil {
			s.logger.WithError(err).Debugf("Feed frame ignored")
		}
		for _, p := range payloads {
			if isHeartbeat(p) {
				if err := s.write(encodeFrame(p), "heartbeat"); err != nil {
					s.logger.WithError(err).Debugf("Feed heartbeat reply failed")
				}
				continue
			}
			s.dispatch(p)
		}
	}
}

func (s *Session) dispatch(payload string) {
	if !strings.HasPrefix(payload, "{") {
		// server hello
		return
	}
	var pkt inbound
	if err := json.Unmarshal([]byte(payload), &pkt); err != nil {
		s.logger.WithError(err).Debugf("Feed packet ignored")
		return
	}
	if pkt.Method == "protocol_error" {
		s.failAll(errors.New(errorText(pkt.Method, pkt.Params)))
		return
	}
	if len(pkt.Params) == 0 {
		return
	}
	var id string
	if err := json.Unmarshal(pkt.Params[0], &id); err != nil {
		return
	}
	c := s.chart(id)
	if c == nil {
		return
	}
	switch pkt.Method {
	case "timescale_update", "du":
		if len(pkt.Params) < 2 {
			return
		}
		if err := c.apply(pkt.Params[1]); err != nil {
			s.logger.WithError(err).Debugf("Feed series update ignored")
		}
	case "critical_error", "symbol_error", "series_error":
		c.fail(errors.New(errorText(pkt.Method, pkt.Params)))
	}
}

func (s *Session) failAll(err error) {
	s.mu.Lock()
	charts := make([]*Chart, 0, len(s.charts))
	for _, c := range s.charts {
		charts = append(charts, c)
	}
	s.mu.Unlock()
	for _, c := range charts {
		c.fail(err)
	}
}

// Chart holds the merged series of one chart session. periods is owned by the read loop.
type Chart struct {
	id      string
	session *Session
	periods map[int64]feed.Bar

	updates chan []feed.Bar
	errs    chan error

	done      chan struct{}
	closeOnce sync.Once
}

func (c *Chart) Updates() <-chan []feed.Bar { return c.updates }
func (c *Chart) Errors() <-chan error       { return c.errs }

// Close deletes the chart session upstream.
func (c *Chart) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.session.forget(c.id)
		err = c.session.send("chart_delete_session", c.id)
	})
	return err
}

type seriesPayload struct {
	S []struct {
		I int                   `json:"i"`
		V []decimal.NullDecimal `json:"v"`
	} `json:"s"`
}

func (c *Chart) apply(raw json.RawMessage) error {
	var byID map[string]json.RawMessage
	if err := json.Unmarshal(raw, &byID); err != nil {
		return fmt.Errorf("decode series update: %w", err)
	}
	seriesRaw, ok := byID[seriesID]
	if !ok {
		return nil
	}
	var series seriesPayload
	if err := json.Unmarshal(seriesRaw, &series); err != nil {
		return fmt.Errorf("decode series %s: %w", seriesID, err)
	}
	if len(series.S) == 0 {
		return nil
	}
	for _, p := range series.S {
		if len(p.V) == 0 || !p.V[0].Valid {
			continue
		}
		b := feed.Bar{Time: p.V[0].Decimal.IntPart()}
		values := []*decimal.NullDecimal{&b.Open, &b.High, &b.Low, &b.Close, &b.Volume}
		for i, dst := range values {
			if i+1 < len(p.V) {
				*dst = p.V[i+1]
			}
		}
		c.periods[b.Time] = b
	}

	snapshot := make([]feed.Bar, 0, len(c.periods))
	for _, b := range c.periods {
		snapshot = append(snapshot, b)
	}
	sort.Slice(snapshot, func(i, j int) bool { return snapshot[i].Time < snapshot[j].Time })

	select {
	case c.updates <- snapshot:
	case <-c.done:
	case <-c.session.done:
	}
	return nil
}

func (c *Chart) fail(err error) {
	select {
	case c.errs <- err:
	default:
	}
}

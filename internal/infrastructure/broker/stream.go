package broker

import (
	"encoding/json"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const GMOPublicWSURL = "wss://forex-api.coin.z.com/ws/public/v1"

// RateStream subscribes to the broker's public ticker channel and fans
// quotes out to registered callbacks. Read-only; no authentication and
// no ordering guarantees beyond what the socket delivers.
type RateStream struct {
	wsURL     string
	log       *zap.Logger
	mu        sync.Mutex
	conn      *websocket.Conn
	callbacks []func(symbol string, bid, ask float64)
	done      chan struct{}
}

func NewRateStream(wsURL string, log *zap.Logger) *RateStream {
	if wsURL == "" {
		wsURL = GMOPublicWSURL
	}
	return &RateStream{
		wsURL: wsURL,
		log:   log,
		done:  make(chan struct{}),
	}
}

func (s *RateStream) OnQuote(callback func(symbol string, bid, ask float64)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks = append(s.callbacks, callback)
}

// Connect dials the socket and subscribes to the ticker channel for
// each symbol.
func (s *RateStream) Connect(symbols []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		c, _, err := websocket.DefaultDialer.Dial(s.wsURL, nil)
		if err != nil {
			return err
		}
		s.conn = c
		go s.readLoop()
	}

	for _, symbol := range symbols {
		sub := map[string]string{
			"command": "subscribe",
			"channel": "ticker",
			"symbol":  symbol,
		}
		if err := s.conn.WriteJSON(sub); err != nil {
			return err
		}
	}
	return nil
}

func (s *RateStream) Done() <-chan struct{} { return s.done }

func (s *RateStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

func (s *RateStream) readLoop() {
	defer func() {
		s.mu.Lock()
		if s.conn != nil {
			s.conn.Close()
			s.conn = nil
		}
		s.mu.Unlock()
		close(s.done)
	}()

	for {
		s.mu.Lock()
		conn := s.conn
		s.mu.Unlock()
		if conn == nil {
			return
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			s.log.Warn("ws read error", zap.Error(err))
			return
		}

		var tick struct {
			Symbol string `json:"symbol"`
			Bid    string `json:"bid"`
			Ask    string `json:"ask"`
			Status string `json:"status"`
		}
		if err := json.Unmarshal(message, &tick); err != nil || tick.Symbol == "" {
			continue
		}

		bid, _ := strconv.ParseFloat(tick.Bid, 64)
		ask, _ := strconv.ParseFloat(tick.Ask, 64)

		s.mu.Lock()
		callbacks := make([]func(string, float64, float64), len(s.callbacks))
		copy(callbacks, s.callbacks)
		s.mu.Unlock()

		for _, cb := range callbacks {
			cb(tick.Symbol, bid, ask)
		}
	}
}

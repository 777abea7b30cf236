package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"

	"github.com/ebi-biostudies/biostudies-index/internal/common"
	"github.com/ebi-biostudies/biostudies-index/internal/indexsvc"
)

// maxReconnectAttempts bounds the exponential-backoff reconnect loop
// before the client gives up and Run returns an error.
const maxReconnectAttempts = 10

// backoffCap is the ceiling applied to the exponential backoff delay,
// after jitter has been added.
const backoffCap = 5 * time.Minute

// updateMessage is the payload published to the submission update
// exchange: accNo plus the two resource URLs the original system uses
// to fetch submission content. This core ignores the URLs and lets
// IndexingService's own configured fetcher resolve accNo.
type updateMessage struct {
	AccNo      string `json:"accNo"`
	PagetabURL string `json:"pagetabUrl"`
	ExtTabURL  string `json:"extTabUrl"`
}

// Client subscribes to the biostudies update exchange over STOMP and
// queues each published accession with the indexing service.
type Client struct {
	cfg      common.RabbitMQConfig
	indexSvc *indexsvc.Service
	logger   arbor.ILogger
	dialer   *websocket.Dialer
}

// New builds a broker Client. indexSvc receives queue_submission calls
// for every accession the broker delivers.
func New(cfg common.RabbitMQConfig, indexSvc *indexsvc.Service, logger arbor.ILogger) *Client {
	return &Client{
		cfg:      cfg,
		indexSvc: indexSvc,
		logger:   logger,
		dialer:   websocket.DefaultDialer,
	}
}

// Run connects and processes messages until ctx is cancelled or the
// reconnect attempt budget is exhausted. Each dropped connection is
// retried with exponential backoff plus jitter:
// min(1s * 2^n + rand[0,1000]ms, 5m), capped at maxReconnectAttempts.
// The indexing service's transport-health flag tracks connection state
// throughout: healthy only between a successful CONNECTED handshake and
// the next disconnect.
func (c *Client) Run(ctx context.Context) error {
	c.indexSvc.SetTransportHealthy(false)
	attempt := 0
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := c.runOnce(ctx)
		c.indexSvc.SetTransportHealthy(false)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		attempt++
		if attempt > maxReconnectAttempts {
			return fmt.Errorf("broker: giving up after %d reconnect attempts: %w", maxReconnectAttempts, err)
		}

		delay := backoffDelay(attempt)
		c.logger.Warn().Err(err).Int("attempt", attempt).Dur("delay", delay).Msg("broker: connection lost, reconnecting")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// backoffDelay computes the capped, jittered exponential backoff for
// reconnect attempt n (n >= 1).
func backoffDelay(n int) time.Duration {
	base := time.Second * time.Duration(1<<uint(n-1))
	jitter := time.Duration(rand.Intn(1000)) * time.Millisecond
	delay := base + jitter
	if delay > backoffCap {
		delay = backoffCap
	}
	return delay
}

// runOnce establishes one connection, subscribes to both routing keys,
// and processes messages until the connection drops or ctx is done.
func (c *Client) runOnce(ctx context.Context) error {
	wsURL := url.URL{Scheme: "ws", Host: fmt.Sprintf("%s:%d", c.cfg.Host, c.cfg.Port), Path: "/ws"}

	conn, _, err := c.dialer.DialContext(ctx, wsURL.String(), nil)
	if err != nil {
		return fmt.Errorf("broker: dial failed: %w", err)
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, connectFrame(c.cfg.Host, c.cfg.Login, c.cfg.Passcode)); err != nil {
		return fmt.Errorf("broker: CONNECT failed: %w", err)
	}
	if _, _, err := conn.ReadMessage(); err != nil {
		return fmt.Errorf("broker: waiting for CONNECTED failed: %w", err)
	}
	c.indexSvc.SetTransportHealthy(true)

	// Per-host queue naming ({base}-{hostname}) is a broker-side durable
	// queue binding concern; this client only declares the destination
	// each routing key maps to.
	for i, routingKey := range c.cfg.RoutingKeys {
		destination := fmt.Sprintf("/exchange/%s/%s", c.cfg.Exchange, routingKey)
		if err := conn.WriteMessage(websocket.TextMessage, subscribeFrame(i, destination)); err != nil {
			return fmt.Errorf("broker: SUBSCRIBE to %s failed: %w", destination, err)
		}
	}

	go c.watchContext(ctx, conn)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("broker: read failed: %w", err)
		}

		f, err := decodeFrame(raw)
		if err != nil {
			c.logger.Warn().Err(err).Msg("broker: dropping malformed frame")
			continue
		}

		switch f.command {
		case "MESSAGE":
			c.handleMessage(f)
		case "ERROR":
			return fmt.Errorf("broker: server sent ERROR frame: %s", strings.TrimSpace(string(f.body)))
		}
	}
}

// watchContext closes conn when ctx is cancelled, unblocking the
// read loop in runOnce.
func (c *Client) watchContext(ctx context.Context, conn *websocket.Conn) {
	<-ctx.Done()
	_ = conn.Close()
}

// handleMessage parses a MESSAGE frame body and queues its accession
// with the indexing service. Malformed payloads are logged and
// skipped; this matches the spec's InvalidInput handling at the
// boundary (parser-level failures are logged, not propagated).
func (c *Client) handleMessage(f frame) {
	var msg updateMessage
	if err := json.Unmarshal(f.body, &msg); err != nil {
		c.logger.Warn().Err(err).Msg("broker: malformed update message")
		return
	}
	if msg.AccNo == "" {
		c.logger.Warn().Msg("broker: update message missing accNo")
		return
	}

	if _, err := c.indexSvc.QueueSubmission(msg.AccNo); err != nil {
		c.logger.Error().Err(err).Str("accession", msg.AccNo).Msg("broker: queue_submission failed")
	}
}

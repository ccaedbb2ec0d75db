package api

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/openalpha/crowdchain/api/types"
	ws "github.com/openalpha/crowdchain/api/websocket"
	"github.com/openalpha/crowdchain/metrics"
)

// Subscriber keeps a websocket subscription to a CometBFT node and folds
// crowdfund events into the indexer and the fan-out hub. It reconnects with
// backoff; the indexer is a projection, so missed history only degrades the
// view until the next restart from a fresh node.
type Subscriber struct {
	nodeURL   string
	indexer   *Indexer
	hub       *ws.Hub
	collector *metrics.Collector
}

// NewSubscriber creates a subscriber against a CometBFT websocket endpoint,
// e.g. ws://localhost:26657/websocket.
func NewSubscriber(nodeURL string, indexer *Indexer, hub *ws.Hub) *Subscriber {
	return &Subscriber{
		nodeURL:   nodeURL,
		indexer:   indexer,
		hub:       hub,
		collector: metrics.GetCollector(),
	}
}

// rpcRequest is a CometBFT JSON-RPC subscribe call
type rpcRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	ID      int               `json:"id"`
	Params  map[string]string `json:"params"`
}

// rpcEvent is the envelope CometBFT pushes for matched subscriptions
type rpcEvent struct {
	Result struct {
		Data struct {
			Type  string          `json:"type"`
			Value json.RawMessage `json:"value"`
		} `json:"data"`
		Events map[string][]string `json:"events"`
	} `json:"result"`
}

// Run connects and processes events until the context is cancelled
func (s *Subscriber) Run(ctx context.Context) {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}
		if err := s.consume(ctx); err != nil {
			log.Printf("chain subscription dropped: %v (reconnecting in %s)", err, backoff)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (s *Subscriber) consume(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.nodeURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	subscriptions := []string{
		"tm.event='Tx'",
		"tm.event='NewBlock'",
	}
	for i, query := range subscriptions {
		req := rpcRequest{
			JSONRPC: "2.0",
			Method:  "subscribe",
			ID:      i + 1,
			Params:  map[string]string{"query": query},
		}
		if err := conn.WriteJSON(req); err != nil {
			return err
		}
	}

	for {
		if ctx.Err() != nil {
			return nil
		}
		var event rpcEvent
		if err := conn.ReadJSON(&event); err != nil {
			return err
		}
		s.handle(&event)
	}
}

func (s *Subscriber) handle(event *rpcEvent) {
	events := event.Result.Events
	if events == nil {
		return
	}

	if heights, ok := events["block.height"]; ok && len(heights) > 0 {
		if height, err := strconv.ParseInt(heights[0], 10, 64); err == nil {
			s.indexer.SetBlockHeight(height)
			s.collector.UpdateBlockHeight(height)
		}
	}

	s.handlePoolCreated(events)
	s.handleContribution(events)
	s.handlePoolStatus(events)
	s.handleCloseApproval(events)
	s.updatePoolGauges()
}

// Event attribute lookups. CometBFT flattens attributes to
// "<event_type>.<key>" -> values, index-aligned across keys of one type.

func attr(events map[string][]string, eventType, key string, i int) string {
	values := events[eventType+"."+key]
	if i >= len(values) {
		return ""
	}
	return values[i]
}

func attrCount(events map[string][]string, eventType, key string) int {
	return len(events[eventType+"."+key])
}

func (s *Subscriber) handlePoolCreated(events map[string][]string) {
	const t = "crowdfund_create_pool"
	for i := 0; i < attrCount(events, t, "pool_id"); i++ {
		poolID, err := strconv.ParseUint(attr(events, t, "pool_id", i), 10, 64)
		if err != nil {
			continue
		}
		deadline, _ := strconv.ParseInt(attr(events, t, "deadline", i), 10, 64)
		createdAt, _ := strconv.ParseInt(attr(events, t, "timestamp", i), 10, 64)

		s.indexer.ApplyPoolCreated(
			poolID,
			attr(events, t, "name", i),
			attr(events, t, "creator", i),
			attr(events, t, "amount", i),
			deadline,
			createdAt,
		)
		s.collector.RecordPoolCreated()

		if summary, ok := s.indexer.Pool(poolID); ok {
			s.hub.BroadcastPoolSummary(&summary)
		}
	}
}

func (s *Subscriber) handleContribution(events map[string][]string) {
	const t = "crowdfund_contribute"
	for i := 0; i < attrCount(events, t, "pool_id"); i++ {
		poolID, err := strconv.ParseUint(attr(events, t, "pool_id", i), 10, 64)
		if err != nil {
			continue
		}
		timestamp, _ := strconv.ParseInt(attr(events, t, "timestamp", i), 10, 64)
		isPrivate := attr(events, t, "is_private", i) == "true"

		contribution := types.ContributionEvent{
			PoolID:      poolID,
			Contributor: attr(events, t, "contributor", i),
			Asset:       attr(events, t, "asset", i),
			NetAmount:   attr(events, t, "net_amount", i),
			FeeAmount:   attr(events, t, "fee_amount", i),
			IsPrivate:   isPrivate,
			Timestamp:   timestamp,
		}
		if hashes, ok := events["tx.hash"]; ok && len(hashes) > 0 {
			contribution.TxHash = hashes[0]
		}

		s.indexer.ApplyContribution(contribution)

		net, _ := strconv.ParseFloat(contribution.NetAmount, 64)
		fee, _ := strconv.ParseFloat(contribution.FeeAmount, 64)
		s.collector.RecordContribution(
			strconv.FormatUint(poolID, 10), contribution.Asset, net, fee)
		if summary, ok := s.indexer.Pool(poolID); ok {
			if raised, err := strconv.ParseFloat(summary.TotalRaised, 64); err == nil {
				s.collector.RecordPoolRaised(strconv.FormatUint(poolID, 10), raised)
			}
		}
		if timestamp > 0 {
			lag := time.Since(time.Unix(timestamp, 0))
			s.collector.RecordEventLag("contribution", float64(lag.Milliseconds()))
		}

		// Private donations fan out without the contributor address
		public := contribution
		if isPrivate {
			public.Contributor = ""
		}
		s.hub.BroadcastContribution(&public)
	}
}

func (s *Subscriber) handlePoolStatus(events map[string][]string) {
	const t = "crowdfund_pool_status"
	for i := 0; i < attrCount(events, t, "pool_id"); i++ {
		poolID, err := strconv.ParseUint(attr(events, t, "pool_id", i), 10, 64)
		if err != nil {
			continue
		}
		status := attr(events, t, "status", i)

		s.indexer.ApplyPoolStatus(poolID, status)
		s.hub.BroadcastPoolStatus(&types.PoolStatusEvent{PoolID: poolID, Status: status})

		if status == "closed" {
			s.collector.RecordPoolClosed("closed", "", 0)
		}
	}
}

func (s *Subscriber) handleCloseApproval(events map[string][]string) {
	const t = "crowdfund_approve_close"
	for i := 0; i < attrCount(events, t, "pool_id"); i++ {
		poolID, err := strconv.ParseUint(attr(events, t, "pool_id", i), 10, 64)
		if err != nil {
			continue
		}
		approvals, _ := strconv.Atoi(attr(events, t, "approvals", i))
		s.indexer.ApplyCloseApproval(poolID, approvals)
		s.collector.RecordCloseApproval(strconv.FormatUint(poolID, 10))
	}
}

func (s *Subscriber) updatePoolGauges() {
	for status, count := range s.indexer.StatusCounts() {
		s.collector.RecordPoolStatus(status, count)
	}
}

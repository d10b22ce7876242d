// Package ingest consumes point events from Kafka, folds them into per-cell
// summaries and publishes the summaries to an output topic.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IBM/sarama"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mohammed-shakir/h3-frame/internal/cache/keys"
	"github.com/mohammed-shakir/h3-frame/internal/config"
	"github.com/mohammed-shakir/h3-frame/internal/mapper"
	"github.com/mohammed-shakir/h3-frame/internal/observability"
	"github.com/mohammed-shakir/h3-frame/pkg/frame"
)

type Runner struct {
	log      *slog.Logger
	cfg      config.IngestCfg
	reducer  frame.Reducer
	mapper   mapper.Interface
	producer sarama.SyncProducer
	ownProd  bool
	sums     SummaryStore
	ms       *metricSet
	seen     *dedupe
	assigned atomic.Bool
	assignMu sync.RWMutex
	assign   map[int32]struct{}
	wg       sync.WaitGroup
	cancel   context.CancelFunc
}

type Options struct {
	Logger   *slog.Logger
	Register prometheus.Registerer
	// Producer overrides the sync producer built from the broker list.
	Producer sarama.SyncProducer
	// Summaries, when set, receives the latest summary of every published cell.
	Summaries SummaryStore
}

// SummaryStore keeps the most recent summary per cell.
type SummaryStore interface {
	SetMany(ctx context.Context, kv map[string][]byte, ttl time.Duration) error
}

func New(cfg config.IngestCfg, m mapper.Interface, opts Options) (*Runner, error) {
	if m == nil {
		return nil, errors.New("ingest runner: mapper is required")
	}
	red, err := frame.ReducerByName(cfg.Reducer)
	if err != nil {
		return nil, fmt.Errorf("ingest runner: %w", err)
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 2 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Runner{
		log:      opts.Logger,
		cfg:      cfg,
		reducer:  red,
		mapper:   m,
		producer: opts.Producer,
		sums:     opts.Summaries,
		ms:       newMetricSet(opts.Register),
		seen:     newDedupe(cfg.DedupeSize),
		assign:   map[int32]struct{}{},
	}, nil
}

func saramaConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.Consumer.Group.Session.Timeout = 30 * time.Second
	cfg.Consumer.Group.Heartbeat.Interval = 3 * time.Second
	cfg.Consumer.Group.Rebalance.Timeout = 30 * time.Second
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	cfg.Consumer.Return.Errors = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Return.Successes = true
	cfg.Producer.Retry.Max = 3
	return cfg
}

func (r *Runner) Start(ctx context.Context) error {
	if !r.cfg.Enabled {
		r.log.Info("ingest runner disabled")
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	cfg := saramaConfig()
	if r.producer == nil {
		p, err := sarama.NewSyncProducer(r.cfg.Brokers, cfg)
		if err != nil {
			cancel()
			return fmt.Errorf("sync producer: %w", err)
		}
		r.producer, r.ownProd = p, true
	}

	group, err := sarama.NewConsumerGroup(r.cfg.Brokers, r.cfg.GroupID, cfg)
	if err != nil {
		cancel()
		return fmt.Errorf("consumer group: %w", err)
	}

	h := r.handler()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if err := group.Close(); err != nil {
				r.log.Error("kafka consumer group close", "err", err)
			}
		}()

		for {
			if err := group.Consume(ctx, []string{r.cfg.InputTopic}, h); err != nil {
				r.log.Error("kafka consume error", "err", err)
				select {
				case <-time.After(2 * time.Second):
				case <-ctx.Done():
					return
				}
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for err := range group.Errors() {
			r.log.Error("kafka group error", "err", err)
		}
	}()

	r.log.Info("ingest runner started",
		"input", r.cfg.InputTopic, "output", r.cfg.OutputTopic,
		"group", r.cfg.GroupID, "brokers", r.cfg.Brokers, "res", r.cfg.Res)
	return nil
}

func (r *Runner) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
	if r.ownProd && r.producer != nil {
		if err := r.producer.Close(); err != nil {
			r.log.Error("kafka producer close", "err", err)
		}
	}
	r.log.Info("ingest runner stopped")
}

func (r *Runner) Readiness() (ready bool, partitions []int32) {
	if !r.assigned.Load() {
		return false, nil
	}
	r.assignMu.RLock()
	defer r.assignMu.RUnlock()
	for p := range r.assign {
		partitions = append(partitions, p)
	}
	return true, partitions
}

// Ready reports an error until the consumer group has assigned partitions.
func (r *Runner) Ready(_ context.Context) error {
	if !r.cfg.Enabled {
		return nil
	}
	if ok, _ := r.Readiness(); !ok {
		return errors.New("no partitions assigned")
	}
	return nil
}

func (r *Runner) handler() *groupHandler {
	return &groupHandler{
		setup: func(sess sarama.ConsumerGroupSession) {
			claims := sess.Claims()
			r.assignMu.Lock()
			r.assigned.Store(true)
			r.assign = map[int32]struct{}{}
			for _, parts := range claims {
				for _, p := range parts {
					r.assign[p] = struct{}{}
				}
			}
			r.assignMu.Unlock()
		},
		cleanup: func(sarama.ConsumerGroupSession) {
			r.assignMu.Lock()
			r.assigned.Store(false)
			r.assign = map[int32]struct{}{}
			r.assignMu.Unlock()
		},
		batchSize:  r.cfg.BatchSize,
		flushEvery: r.cfg.FlushInterval,
		process:    r.handleMessage,
		flush:      r.flush,
	}
}

// batch collects the accepted events of one claim. last is the newest
// message consumed, accepted or not, and is marked once the batch is
// published.
type batch struct {
	events []PointEvent
	ids    map[string]struct{}
	last   *sarama.ConsumerMessage
}

func newBatch() *batch { return &batch{ids: map[string]struct{}{}} }

func (b *batch) reset() {
	b.events = b.events[:0]
	clear(b.ids)
	b.last = nil
}

func (r *Runner) handleMessage(_ context.Context, b *batch, msg *sarama.ConsumerMessage) {
	b.last = msg
	if !msg.Timestamp.IsZero() {
		r.ms.lagGauge.Set(time.Since(msg.Timestamp).Seconds())
	}

	ev, err := decodeEvent(msg.Value)
	if err != nil {
		r.count("decode_error")
		r.log.Warn("drop undecodable point event",
			"partition", msg.Partition, "offset", msg.Offset, "err", err)
		return
	}
	if _, err := r.mapper.CellForLatLng(*ev.Lat, *ev.Lng, r.cfg.Res); err != nil {
		r.count("invalid")
		r.log.Warn("drop point event outside the grid",
			"id", ev.ID, "lat", *ev.Lat, "lng", *ev.Lng, "err", err)
		return
	}
	if ev.ID != "" {
		if _, dup := b.ids[ev.ID]; dup || r.seen.seen(ev.ID) {
			r.count("duplicate")
			return
		}
		b.ids[ev.ID] = struct{}{}
	}
	b.events = append(b.events, ev)
	r.count("ok")
}

func (r *Runner) count(result string) {
	r.ms.msgs.WithLabelValues(result).Inc()
	observability.IncIngestMessage(result)
}

// flush publishes the batch and then marks its newest message. A publish
// failure leaves the offsets unmarked so the batch is consumed again.
func (r *Runner) flush(ctx context.Context, sess sarama.ConsumerGroupSession, b *batch) error {
	if b.last == nil {
		return nil
	}
	if len(b.events) > 0 {
		start := time.Now()
		sums, err := r.publish(b.events)
		r.ms.flush.Observe(time.Since(start).Seconds())
		observability.ObserveIngestFlush(len(b.events), err)
		if err != nil {
			return err
		}
		r.ms.cells.Add(float64(len(sums)))
		r.storeSummaries(ctx, sums)
		ids := make([]string, 0, len(b.ids))
		for id := range b.ids {
			ids = append(ids, id)
		}
		r.seen.remember(ids...)
	}
	sess.MarkMessage(b.last, "")
	b.reset()
	return nil
}

// publish sends one message per cell and returns the encoded summaries keyed
// by their summary store key.
func (r *Runner) publish(events []PointEvent) (map[string][]byte, error) {
	cells, err := Aggregate(events, r.cfg.Res, r.reducer)
	if err != nil {
		return nil, fmt.Errorf("aggregate batch: %w", err)
	}
	msgs := make([]*sarama.ProducerMessage, 0, len(cells))
	sums := make(map[string][]byte, len(cells))
	for _, c := range cells {
		v, err := json.Marshal(c)
		if err != nil {
			return nil, fmt.Errorf("encode cell %s: %w", c.Cell, err)
		}
		msgs = append(msgs, &sarama.ProducerMessage{
			Topic: r.cfg.OutputTopic,
			Key:   sarama.StringEncoder(c.Cell),
			Value: sarama.ByteEncoder(v),
		})
		sums[keys.CellSummary(c.Cell)] = v
	}
	if err := r.producer.SendMessages(msgs); err != nil {
		return nil, fmt.Errorf("publish %d cells: %w", len(msgs), err)
	}
	return sums, nil
}

// storeSummaries is best effort: the output topic stays the source of truth.
func (r *Runner) storeSummaries(ctx context.Context, sums map[string][]byte) {
	if r.sums == nil || len(sums) == 0 {
		return
	}
	if err := r.sums.SetMany(ctx, sums, r.cfg.SummaryTTL); err != nil {
		r.log.Warn("store cell summaries", "cells", len(sums), "err", err)
	}
}

type groupHandler struct {
	setup      func(sarama.ConsumerGroupSession)
	cleanup    func(sarama.ConsumerGroupSession)
	batchSize  int
	flushEvery time.Duration
	process    func(context.Context, *batch, *sarama.ConsumerMessage)
	flush      func(context.Context, sarama.ConsumerGroupSession, *batch) error
}

func (h *groupHandler) Setup(sess sarama.ConsumerGroupSession) error {
	if h.setup != nil {
		h.setup(sess)
	}
	return nil
}

func (h *groupHandler) Cleanup(sess sarama.ConsumerGroupSession) error {
	if h.cleanup != nil {
		h.cleanup(sess)
	}
	return nil
}

func (h *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	ctx := sess.Context()
	b := newBatch()
	tick := time.NewTicker(h.flushEvery)
	defer tick.Stop()

	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return h.flush(ctx, sess, b)
			}
			h.process(ctx, b, msg)
			if len(b.events) >= h.batchSize {
				if err := h.flush(ctx, sess, b); err != nil {
					return err
				}
			}
		case <-tick.C:
			if err := h.flush(ctx, sess, b); err != nil {
				return err
			}
		case <-ctx.Done():
			// unmarked messages are redelivered to the next owner
			return nil
		}
	}
}

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"github.com/IBM/sarama"
)

type point struct {
	ID     string             `json:"id"`
	Lat    float64            `json:"lat"`
	Lng    float64            `json:"lng"`
	Values map[string]float64 `json:"values"`
	TS     time.Time          `json:"ts"`
}

type genCfg struct {
	N      int
	Lat    float64
	Lng    float64
	Spread float64
	Seed   uint64
	Prefix string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// generate scatters points uniformly in a square of side 2*spread degrees
// around the center, clamped to valid coordinates.
func generate(c genCfg, now time.Time) []point {
	rng := rand.New(rand.NewPCG(c.Seed, c.Seed^0x9e3779b97f4a7c15))
	out := make([]point, c.N)
	for i := range out {
		lat := c.Lat + (rng.Float64()*2-1)*c.Spread
		lng := c.Lng + (rng.Float64()*2-1)*c.Spread
		out[i] = point{
			ID:     fmt.Sprintf("%s-%d", c.Prefix, i),
			Lat:    min(90, max(-90, lat)),
			Lng:    min(180, max(-180, lng)),
			Values: map[string]float64{"value": float64(rng.IntN(100))},
			TS:     now,
		}
	}
	return out
}

func publish(p sarama.SyncProducer, topic string, pts []point, batch int) error {
	if batch <= 0 {
		batch = 100
	}
	msgs := make([]*sarama.ProducerMessage, 0, batch)
	flush := func() error {
		if len(msgs) == 0 {
			return nil
		}
		if err := p.SendMessages(msgs); err != nil {
			return fmt.Errorf("send %d messages: %w", len(msgs), err)
		}
		msgs = msgs[:0]
		return nil
	}
	for _, pt := range pts {
		b, err := json.Marshal(pt)
		if err != nil {
			return err
		}
		msgs = append(msgs, &sarama.ProducerMessage{
			Topic: topic,
			Key:   sarama.StringEncoder(pt.ID),
			Value: sarama.ByteEncoder(b),
		})
		if len(msgs) == batch {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("h3frame-pointgen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var c genCfg
	fs.IntVar(&c.N, "n", 1000, "number of points")
	fs.Float64Var(&c.Lat, "lat", 59.3293, "center latitude")
	fs.Float64Var(&c.Lng, "lng", 18.0686, "center longitude")
	fs.Float64Var(&c.Spread, "spread", 0.05, "half width of the sampling square in degrees")
	fs.Uint64Var(&c.Seed, "seed", uint64(time.Now().UnixNano()), "random seed")
	fs.StringVar(&c.Prefix, "prefix", "pt", "event id prefix")
	brokers := fs.String("brokers", getenv("KAFKA_BROKERS", "localhost:9092"), "comma separated brokers")
	topic := fs.String("topic", getenv("INGEST_INPUT_TOPIC", "h3frame-points"), "input topic")
	batch := fs.Int("batch", 100, "messages per produce call")
	dry := fs.Bool("dry-run", false, "print events as JSON lines instead of producing")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	pts := generate(c, time.Now().UTC())
	if *dry {
		enc := json.NewEncoder(stdout)
		for _, p := range pts {
			if err := enc.Encode(p); err != nil {
				_, _ = fmt.Fprintln(stderr, "encode:", err)
				return 1
			}
		}
		return 0
	}

	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Version = sarama.V2_5_0_0
	prod, err := sarama.NewSyncProducer(strings.Split(*brokers, ","), cfg)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, "producer create:", err)
		return 1
	}
	defer func() { _ = prod.Close() }()

	start := time.Now()
	if err := publish(prod, *topic, pts, *batch); err != nil {
		_, _ = fmt.Fprintln(stderr, "publish:", err)
		return 1
	}
	_, _ = fmt.Fprintf(stdout, "produced %d points to %s in %s\n", len(pts), *topic, time.Since(start).Round(time.Millisecond))
	return 0
}

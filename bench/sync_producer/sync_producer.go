package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"time"

	appkafka "github.com/ChadIImus/Devoops/internal/broker"
	"github.com/ChadIImus/Devoops/internal/models"
	"github.com/segmentio/kafka-go"
)

// Publishes a synthetic command stream to the sync topic: a block of
// registrations, a follow between each neighbouring pair, then posts.
// Sequence ids continue after -start so a partially replayed stream can
// be resumed without gaps.
func main() {
	var (
		broker   string
		topic    string
		users    int
		posts    int
		startSeq int64
	)

	flag.StringVar(&broker, "broker", "localhost:9092", "Kafka broker address")
	flag.StringVar(&topic, "topic", "sync-commands", "sync topic name")
	flag.IntVar(&users, "users", 100, "number of users to register")
	flag.IntVar(&posts, "posts", 10000, "number of posts to publish")
	flag.Int64Var(&startSeq, "start", 0, "sequence id to start after")
	flag.Parse()

	// Single-partition writer so the worker sees commands in order.
	w, err := appkafka.NewKafkaWriter(appkafka.KafkaConfig{
		Brokers: []string{broker},
		Topic:   topic,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to connect Kafka writer: %v", err))
	}
	defer w.Close()

	seq := startSeq
	next := func() int64 {
		seq++
		return seq
	}

	run := time.Now().UnixNano()
	username := func(i int) string {
		return fmt.Sprintf("sync-user-%d-%d", run, i)
	}

	var cmds []models.SyncCommand
	for i := 0; i < users; i++ {
		cmds = append(cmds, models.SyncCommand{
			Seq:      next(),
			Action:   models.ActionRegister,
			Username: username(i),
		})
	}
	for i := 0; i < users; i++ {
		cmds = append(cmds, models.SyncCommand{
			Seq:    next(),
			Action: models.ActionFollow,
			Who:    username(i),
			Whom:   username((i + 1) % users),
		})
	}
	for i := 0; i < posts; i++ {
		cmds = append(cmds, models.SyncCommand{
			Seq:    next(),
			Action: models.ActionPost,
			Author: username(i % users),
			Text:   fmt.Sprintf("sync bench post %d", i),
		})
	}

	start := time.Now()
	const batchSize = 100
	var sent int

	batch := make([]kafka.Message, 0, batchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := w.WriteMessages(batch...); err != nil {
			fmt.Printf("write error: %v\n", err)
		} else {
			sent += len(batch)
		}
		batch = batch[:0]
	}

	for _, cmd := range cmds {
		v, err := json.Marshal(cmd)
		if err != nil {
			fmt.Printf("marshal error: %v\n", err)
			continue
		}
		batch = append(batch, kafka.Message{
			Key:   []byte("sync"),
			Value: v,
		})
		if len(batch) >= batchSize {
			flush()
		}
	}
	flush()

	elapsed := time.Since(start)
	fmt.Printf("Commands published: %d (last seq %d)\n", sent, seq)
	fmt.Printf("Elapsed time: %s\n", elapsed)
	fmt.Printf("Throughput: %.2f cmd/s\n", float64(sent)/elapsed.Seconds())
}

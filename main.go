package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/ChadIImus/Devoops/cmd/server"
	"github.com/ChadIImus/Devoops/cmd/syncworker"
	appkafka "github.com/ChadIImus/Devoops/internal/broker"
	config "github.com/ChadIImus/Devoops/internal/init"
	"github.com/ChadIImus/Devoops/internal/store"
	"github.com/ChadIImus/Devoops/internal/timeline"
)

func main() {
	// Initialize application configuration
	cfg := config.Init()
	mode := cfg.Mode

	// Initialize Cassandra store connection
	st, err := store.New()
	if err != nil {
		log.Fatalf("Cassandra connection failed: %v", err)
	}
	defer st.Close()

	svc := timeline.New(st)

	// Setup OS signal handling for graceful shutdown (SIGINT, SIGTERM)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Run application depending on selected mode
	switch mode {
	case "server":
		// Serve the HTTP API
		server.Run(ctx, svc, cfg.ServerAddr)
	case "syncworker":
		// Replay externally-published commands from the sync topic
		kafkaReader := appkafka.NewKafkaReader(appkafka.KafkaConfig{
			Brokers:      []string{cfg.KafkaBroker},
			Topic:        cfg.KafkaTopic,
			Partition:    cfg.KafkaPartition,
			GroupID:      cfg.KafkaGroupID,
			WriteTimeout: cfg.KafkaWriteTO,
			ReadTimeout:  cfg.KafkaReadTO,
		})
		defer kafkaReader.Close()

		w := syncworker.New(svc, kafkaReader, 0)
		w.Run(ctx)
	default:
		log.Fatalf("unknown mode: %s", mode)
	}

	log.Println("Shutdown completed")
}

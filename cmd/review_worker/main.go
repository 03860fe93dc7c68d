package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/movemate/movesync/config"
	"github.com/movemate/movesync/pkg/helpers"
)

// review_worker consumes review-created events and indexes them into
// Elasticsearch for back-office search. The write path never depends on it;
// a stopped worker only delays indexing.

type reviewCreated struct {
	ReviewID   string    `json:"review_id"`
	SubjectID  string    `json:"subject_id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Rating     float64   `json:"rating"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	if cfg.RabbitMQURL == "" || cfg.RabbitMQReviewsQueue == "" {
		log.Fatal("RabbitMQ not configured")
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("amqp dial: %v", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("amqp channel: %v", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(16, 0, false); err != nil {
		log.Fatalf("qos: %v", err)
	}
	if _, err := ch.QueueDeclare(cfg.RabbitMQReviewsQueue, true, false, false, false, nil); err != nil {
		log.Fatalf("queue declare: %v", err)
	}
	msgs, err := ch.Consume(cfg.RabbitMQReviewsQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	es, err := helpers.NewESClient(cfg.ESAddrs(), cfg.ElasticsearchUser, cfg.ElasticsearchPass)
	if err != nil {
		log.Fatalf("elasticsearch: %v", err)
	}

	ctx := context.Background()
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		for msg := range msgs {
			var ev reviewCreated
			if err := json.Unmarshal(msg.Body, &ev); err != nil {
				log.Printf("bad message: %v", err)
				_ = msg.Nack(false, false)
				continue
			}

			doc := map[string]any{
				"review_id":   ev.ReviewID,
				"subject_id":  ev.SubjectID,
				"author_id":   ev.AuthorID,
				"author_name": ev.AuthorName,
				"rating":      ev.Rating,
				"comment":     ev.Comment,
				"created_at":  ev.CreatedAt.Format(time.RFC3339Nano),
			}
			b, _ := json.Marshal(doc)

			c, cancel := context.WithTimeout(ctx, 10*time.Second)
			req := esapi.IndexRequest{Index: cfg.ESReviewsIndex, DocumentID: ev.ReviewID, Body: strings.NewReader(string(b))}
			res, err := req.Do(c, es)
			cancel()
			if err != nil {
				log.Printf("index failed: %v", err)
				_ = msg.Nack(false, true)
				continue
			}
			_ = res.Body.Close()
			if res.IsError() {
				log.Printf("index response error: %s", res.Status())
				_ = msg.Nack(false, true)
				continue
			}
			_ = msg.Ack(false)
		}
		close(done)
	}()

	log.Printf("review worker listening on queue=%s", cfg.RabbitMQReviewsQueue)
	<-stop
	log.Printf("shutting down...")
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}

package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/event-attendance/internal/service"
)

// StartOfferConsumer connects to RabbitMQ, declares the waitlist.offer
// queue (durable), and starts consuming offer messages.  Each message is
// appended to logs/offers.log in a single-line, human-friendly format;
// a real deployment would hand the queue to the delivery subsystem
// instead.  The function runs a reconnect loop and keeps running,
// logging processing errors and rejecting the offending message so the
// server continues operating.
func StartOfferConsumer() error {
	return runConsumer("offer-consumer", OfferQueueName, handleOfferMessage)
}

// StartVacancyConsumer consumes attendance.vacated messages and runs the
// promotion engine for the affected event.  This is the explicit trigger
// path between the RSVP subsystem and the waitlist: every vacated
// confirmed slot arrives here as a message.
func StartVacancyConsumer(promotions *service.PromotionService) error {
	return runConsumer("vacancy-consumer", VacancyQueueName, func(body []byte) error {
		var msg AttendanceVacatedMessage
		if err := json.Unmarshal(body, &msg); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		offered, err := promotions.PromoteNext(ctx, msg.EventID)
		if err != nil {
			return fmt.Errorf("promote event %d: %w", msg.EventID, err)
		}
		if offered != nil {
			log.Printf("vacancy-consumer: event %d slot offered to user %d", msg.EventID, offered.UserID)
		}
		return nil
	})
}

// runConsumer dials the broker with exponential backoff and consumes the
// named queue until the process exits.
func runConsumer(name, queueName string, handle func(body []byte) error) error {
	url := brokerURL()

	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("%s: failed to dial broker: %v; retrying in %s", name, err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn, name, queueName, handle); err != nil {
			log.Printf("%s: consume loop ended: %v; reconnecting", name, err)
			// Sleep briefly before reconnect
			time.Sleep(2 * time.Second)
			continue
		}
	}
}

func consumeLoop(conn *amqp.Connection, name, queueName string, handle func(body []byte) error) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("%s: set QoS failed: %v", name, err)
	}

	_, err = ch.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handle(d.Body); err != nil {
			log.Printf("%s: handle message failed: %v", name, err)
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleOfferMessage(body []byte) error {
	var msg WaitlistOfferMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	// Ensure logs directory exists
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	fpath := filepath.Join("logs", "offers.log")
	f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("[%s] Waitlist offer | event_id=%d | user_id=%d | expires_at=%s\n",
		msg.OfferedAt, msg.EventID, msg.UserID, msg.ExpiresAt)

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

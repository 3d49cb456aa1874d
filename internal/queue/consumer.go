package queue

import (
    "context"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "time"

    "github.com/goccy/go-json"
    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/film-catalog/internal/config"
    "github.com/iliyamo/film-catalog/internal/logging"
)

// EventLogFile is the file, inside EventsConfig.LogDir, that receives one
// line per consumed event.
const EventLogFile = "film_events.log"

// StartFilmEventConsumer connects to RabbitMQ, declares the film events
// queue (durable) and appends every message to the event log.  It runs a
// reconnect loop with exponential backoff and returns only when ctx is done.
// Malformed messages are rejected without requeue so the loop keeps going.
func StartFilmEventConsumer(ctx context.Context, cfg config.EventsConfig) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(cfg.URL)
        if err != nil {
            logging.Warn().Err(err).Dur("retry_in", backoff).Msg("film-event consumer: dial failed")
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = consumeLoop(ctx, conn, cfg)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        logging.Warn().Err(err).Msg("film-event consumer: loop ended; reconnecting")
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, cfg config.EventsConfig) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        logging.Warn().Err(err).Msg("film-event consumer: set QoS failed")
    }
    if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.ConsumeWithContext(ctx, cfg.Queue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    logging.Info().Str("queue", cfg.Queue).Msg("film-event consumer started")
    for d := range msgs {
        if err := handleMessage(cfg.LogDir, d.Body); err != nil {
            logging.Error().Err(err).Msg("film-event consumer: handle message failed")
            _ = d.Nack(false, false)
            continue
        }
        _ = d.Ack(false)
    }
    return errors.New("deliveries channel closed")
}

func handleMessage(dir string, body []byte) error {
    var ev FilmEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Type == "" || ev.FilmID == 0 {
        return fmt.Errorf("incomplete event %q", body)
    }
    if err := os.MkdirAll(dir, 0o755); err != nil {
        return fmt.Errorf("mkdir %s: %w", dir, err)
    }
    f, err := os.OpenFile(filepath.Join(dir, EventLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(ev.Line()); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

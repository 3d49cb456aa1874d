// Package service provides the RabbitMQ publisher for film change events.
// Publishing never blocks or fails the HTTP request that triggered it:
// errors are logged and counted.
package service

import (
    "context"
    "sync"
    "time"

    "github.com/goccy/go-json"
    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/film-catalog/internal/config"
    "github.com/iliyamo/film-catalog/internal/logging"
    "github.com/iliyamo/film-catalog/internal/metrics"
    "github.com/iliyamo/film-catalog/internal/queue"
)

// Publisher sends FilmEvents to a durable queue over one shared AMQP
// channel, dialed on first use and again after any failure.  Each Publish
// runs in its own goroutine; Wait blocks until all of them are done.
type Publisher struct {
    url     string
    queue   string
    timeout time.Duration
    wg      sync.WaitGroup

    mu   sync.Mutex // guards conn and ch, and serialises publishes
    conn *amqp.Connection
    ch   *amqp.Channel
}

// NewPublisher returns a Publisher for cfg.  It does not connect until the
// first event is published.
func NewPublisher(cfg config.EventsConfig) *Publisher {
    return &Publisher{url: cfg.URL, queue: cfg.Queue, timeout: 5 * time.Second}
}

// Publish sends ev in the background.  The request context only contributes
// its values; cancellation after the response is written does not abort the
// publish.
func (p *Publisher) Publish(ctx context.Context, ev queue.FilmEvent) {
    p.wg.Add(1)
    go func() {
        defer p.wg.Done()
        err := p.publish(context.WithoutCancel(ctx), ev)
        metrics.RecordEventPublish(ev.Type, err)
        if err != nil {
            logging.Warn().Err(err).Str("type", ev.Type).Uint64("film_id", ev.FilmID).Msg("film event not published")
        }
    }()
}

// Wait blocks until every in-flight Publish has finished.
func (p *Publisher) Wait() { p.wg.Wait() }

// Close releases the broker connection.  Call it after Wait.
func (p *Publisher) Close() error {
    p.mu.Lock()
    defer p.mu.Unlock()
    return p.reset()
}

func (p *Publisher) publish(ctx context.Context, ev queue.FilmEvent) error {
    ctx, cancel := context.WithTimeout(ctx, p.timeout)
    defer cancel()

    body, err := json.Marshal(ev)
    if err != nil {
        return err
    }

    p.mu.Lock()
    defer p.mu.Unlock()
    ch, err := p.channel()
    if err != nil {
        return err
    }
    err = ch.PublishWithContext(ctx,
        "",      // default exchange
        p.queue, // routing key = queue name
        false,   // mandatory
        false,   // immediate
        amqp.Publishing{
            ContentType:  "application/json",
            DeliveryMode: amqp.Persistent,
            Type:         ev.Type,
            Timestamp:    time.Now().UTC(),
            Body:         body,
        },
    )
    if err != nil {
        _ = p.reset()
    }
    return err
}

// channel returns the open channel, dialing and declaring the queue when
// there is none.  p.mu must be held.
func (p *Publisher) channel() (*amqp.Channel, error) {
    if p.ch != nil && !p.ch.IsClosed() {
        return p.ch, nil
    }
    _ = p.reset()

    conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(p.timeout)})
    if err != nil {
        return nil, err
    }
    ch, err := conn.Channel()
    if err != nil {
        _ = conn.Close()
        return nil, err
    }
    // Idempotent; durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(
        p.queue, // name
        true,    // durable
        false,   // autoDelete
        false,   // exclusive
        false,   // noWait
        nil,     // args
    ); err != nil {
        _ = conn.Close()
        return nil, err
    }
    p.conn, p.ch = conn, ch
    return ch, nil
}

// reset drops the current connection.  p.mu must be held.
func (p *Publisher) reset() error {
    var err error
    if p.conn != nil && !p.conn.IsClosed() {
        err = p.conn.Close()
    }
    p.conn, p.ch = nil, nil
    return err
}

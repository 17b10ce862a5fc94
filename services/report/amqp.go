//go:build !(rp2040 || rp2350)

package report

import (
	"context"
	"net"
	"sync"
	"time"

	"parkmeter-go/errcode"
	"parkmeter-go/services/meter"
	"parkmeter-go/types"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

func init() {
	RegisterBuilder(types.SinkAMQP, BuilderFunc(func(cfg types.SinkConfig) (meter.Sink, error) {
		if cfg.AMQP == nil || cfg.AMQP.URL == "" {
			return nil, &errcode.E{C: errcode.InvalidConfig, Op: "report.amqp", Msg: "amqp.url is required"}
		}
		return NewAMQPSink(*cfg.AMQP, nil), nil
	}))
}

// Publisher is the part of *amqp.Channel the sink uses.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Dialer opens a publisher for url. The dial and the broker handshake must
// give up when ctx is done.
type Dialer func(ctx context.Context, url string) (Publisher, error)

// AMQPSink publishes each record to an exchange. The connection is opened on
// first use and dropped after a failed publish, so the next session dials
// again.
type AMQPSink struct {
	cfg  types.AMQPSinkConfig
	dial Dialer

	mu  sync.Mutex
	pub Publisher
}

// NewAMQPSink returns a sink for cfg. dial nil uses amqp.DialConfig.
func NewAMQPSink(cfg types.AMQPSinkConfig, dial Dialer) *AMQPSink {
	if dial == nil {
		dial = dialAMQP
	}
	return &AMQPSink{cfg: cfg, dial: dial}
}

func (s *AMQPSink) Send(ctx context.Context, rec types.SessionRecord) error {
	const op = "report.amqp"
	body, err := encode(rec)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pub == nil {
		p, err := s.dial(ctx, s.cfg.URL)
		if err != nil {
			return errcode.Wrap(errcode.NotReady, op, err)
		}
		s.pub = p
	}

	err = s.pub.PublishWithContext(ctx,
		s.cfg.Exchange,
		s.cfg.RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			MessageId:   uuid.NewString(),
			Timestamp:   time.Now(),
			Body:        body,
		},
	)
	if err != nil {
		_ = s.pub.Close()
		s.pub = nil
		return errcode.Wrap(errcode.SendFailed, op, err)
	}
	return nil
}

// Close releases the connection, if open.
func (s *AMQPSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pub == nil {
		return nil
	}
	err := s.pub.Close()
	s.pub = nil
	return err
}

// amqpChannel closes the connection together with its channel.
type amqpChannel struct {
	*amqp.Channel
	conn *amqp.Connection
}

func (c amqpChannel) Close() error {
	_ = c.Channel.Close()
	return c.conn.Close()
}

func dialAMQP(ctx context.Context, url string) (Publisher, error) {
	conn, err := amqp.DialConfig(url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Dial: func(network, addr string) (net.Conn, error) {
			var d net.Dialer
			c, err := d.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			// Bounds the handshake; amqp091 clears it once the connection is open.
			if dl, ok := ctx.Deadline(); ok {
				if err := c.SetDeadline(dl); err != nil {
					c.Close()
					return nil, err
				}
			}
			return c, nil
		},
	})
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	return amqpChannel{Channel: ch, conn: conn}, nil
}

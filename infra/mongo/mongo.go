package mongo

import (
	"context"
	"time"

	"github.com/go-slark/svcindex/logger"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
)

type Config struct {
	URI         string        `json:"uri"`
	Database    string        `json:"database"`
	Timeout     time.Duration `json:"timeout"`
	MaxPoolSize uint64        `json:"max_pool_size"`
	MinPoolSize uint64        `json:"min_pool_size"`
	Monitor     bool          `json:"monitor"` // log every command
	Tracing     bool          `json:"tracing"`
}

type Client struct {
	*mongo.Client
	db *mongo.Database
}

func NewClient(ctx context.Context, c *Config, l logger.Logger) (*Client, error) {
	opts := options.Client().ApplyURI(c.URI)
	if c.MaxPoolSize != 0 {
		opts.SetMaxPoolSize(c.MaxPoolSize)
	}
	if c.MinPoolSize != 0 {
		opts.SetMinPoolSize(c.MinPoolSize)
	}
	if monitor := newMonitor(c, l); monitor != nil {
		opts.SetMonitor(monitor)
	}
	if c.Timeout != 0 {
		opts.SetConnectTimeout(c.Timeout).SetServerSelectionTimeout(c.Timeout)
	}

	cli, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if err = cli.Ping(ctx, nil); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, errors.WithStack(err)
	}
	return &Client{Client: cli, db: cli.Database(c.Database)}, nil
}

// newMonitor chains command logging and tracing; nil when both are off.
func newMonitor(c *Config, l logger.Logger) *event.CommandMonitor {
	var monitors []*event.CommandMonitor
	if c.Tracing {
		monitors = append(monitors, otelmongo.NewMonitor())
	}
	if c.Monitor && l != nil {
		monitors = append(monitors, &event.CommandMonitor{
			Started: func(ctx context.Context, e *event.CommandStartedEvent) {
				l.Log(ctx, logger.DebugLevel, map[string]interface{}{"command": e.CommandName, "request_id": e.RequestID, "body": e.Command.String()}, "mongo command started")
			},
			Succeeded: func(ctx context.Context, e *event.CommandSucceededEvent) {
				l.Log(ctx, logger.DebugLevel, map[string]interface{}{"command": e.CommandName, "request_id": e.RequestID, "duration": e.Duration.String()}, "mongo command succeeded")
			},
			Failed: func(ctx context.Context, e *event.CommandFailedEvent) {
				l.Log(ctx, logger.WarnLevel, map[string]interface{}{"command": e.CommandName, "request_id": e.RequestID, "error": e.Failure}, "mongo command failed")
			},
		})
	}
	switch len(monitors) {
	case 0:
		return nil
	case 1:
		return monitors[0]
	}
	return &event.CommandMonitor{
		Started: func(ctx context.Context, e *event.CommandStartedEvent) {
			for _, m := range monitors {
				m.Started(ctx, e)
			}
		},
		Succeeded: func(ctx context.Context, e *event.CommandSucceededEvent) {
			for _, m := range monitors {
				m.Succeeded(ctx, e)
			}
		},
		Failed: func(ctx context.Context, e *event.CommandFailedEvent) {
			for _, m := range monitors {
				m.Failed(ctx, e)
			}
		},
	}
}

func (c *Client) Database() *mongo.Database {
	return c.db
}

func (c *Client) Collection(name string) *mongo.Collection {
	return c.db.Collection(name)
}

func (c *Client) Close(ctx context.Context) error {
	return c.Disconnect(ctx)
}

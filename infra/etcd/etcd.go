package etcd

import (
	"context"
	"time"

	"github.com/pkg/errors"
	clientv3 "go.etcd.io/etcd/client/v3"
)

type Config struct {
	Endpoints   []string      `json:"endpoints"`
	Username    string        `json:"username"`
	Password    string        `json:"password"`
	DialTimeout time.Duration `json:"dial_timeout"`
}

// NewClient connects and checks that the first endpoint answers.
func NewClient(ctx context.Context, c *Config) (*clientv3.Client, error) {
	timeout := c.DialTimeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	if len(c.Endpoints) == 0 {
		return nil, errors.New("etcd: no endpoints")
	}
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   c.Endpoints,
		Username:    c.Username,
		Password:    c.Password,
		DialTimeout: timeout,
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	cx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if _, err = cli.Status(cx, c.Endpoints[0]); err != nil {
		_ = cli.Close()
		return nil, errors.WithStack(err)
	}
	return cli, nil
}

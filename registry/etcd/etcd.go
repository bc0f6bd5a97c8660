package etcd

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"
	"sync"
	"time"

	"github.com/go-slark/svcindex/logger"
	"github.com/go-slark/svcindex/pkg/retry"
	"github.com/go-slark/svcindex/pkg/routine"
	"github.com/go-slark/svcindex/registry"
	clientv3 "go.etcd.io/etcd/client/v3"
)

var errTaken = stderrors.New("etcd: key taken over")

// Store keeps one key per identity. Snapshot is a single prefix read, so it
// always reflects one revision.
type Store struct {
	client *clientv3.Client
	opt    *option

	mu     sync.Mutex
	leases map[registry.Identity]context.CancelFunc
}

func New(client *clientv3.Client, opts ...Option) *Store {
	opt := &option{
		ns:     "/svcindex",
		retry:  5,
		logger: logger.Default(),
	}
	for _, o := range opts {
		o(opt)
	}
	opt.ns = strings.TrimSuffix(opt.ns, "/")
	return &Store{
		client: client,
		opt:    opt,
		leases: make(map[registry.Identity]context.CancelFunc),
	}
}

func (s *Store) prefix() string {
	return s.opt.ns + "/"
}

func (s *Store) key(id registry.Identity) string {
	return s.prefix() + id.Name + "/" + id.Version.String()
}

func unavailable(err error) error {
	return registry.ErrStoreUnavailable.WithError(err)
}

func (s *Store) Snapshot(ctx context.Context) ([]registry.Descriptor, error) {
	rsp, err := s.client.Get(ctx, s.prefix(), clientv3.WithPrefix())
	if err != nil {
		return nil, unavailable(err)
	}
	out := make([]registry.Descriptor, 0, len(rsp.Kvs))
	for _, kv := range rsp.Kvs {
		d := registry.Descriptor{}
		if err = json.Unmarshal(kv.Value, &d); err != nil {
			return nil, unavailable(err)
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *Store) Lookup(ctx context.Context, id registry.Identity) (registry.Descriptor, error) {
	rsp, err := s.client.Get(ctx, s.key(id))
	if err != nil {
		return registry.Descriptor{}, unavailable(err)
	}
	if len(rsp.Kvs) == 0 {
		return registry.Descriptor{}, registry.ErrNotFound
	}
	d := registry.Descriptor{}
	if err = json.Unmarshal(rsp.Kvs[0].Value, &d); err != nil {
		return registry.Descriptor{}, unavailable(err)
	}
	return d, nil
}

func (s *Store) Insert(ctx context.Context, d registry.Descriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}
	value, err := json.Marshal(d)
	if err != nil {
		return unavailable(err)
	}
	key := s.key(d.Identity)
	leaseID, err := s.put(ctx, key, string(value))
	if err != nil {
		return err
	}
	if leaseID != clientv3.NoLease {
		s.keep(d.Identity, key, string(value), leaseID)
	}
	return nil
}

// put creates key only when it does not exist yet.
func (s *Store) put(ctx context.Context, key, value string) (clientv3.LeaseID, error) {
	leaseID := clientv3.NoLease
	var opts []clientv3.OpOption
	if s.opt.ttl > 0 {
		grant, err := s.client.Grant(ctx, s.opt.ttl)
		if err != nil {
			return clientv3.NoLease, unavailable(err)
		}
		leaseID = grant.ID
		opts = append(opts, clientv3.WithLease(leaseID))
	}
	rsp, err := s.client.Txn(ctx).
		If(clientv3.Compare(clientv3.CreateRevision(key), "=", 0)).
		Then(clientv3.OpPut(key, value, opts...)).
		Commit()
	if err == nil && rsp.Succeeded {
		return leaseID, nil
	}
	if leaseID != clientv3.NoLease {
		_, _ = s.client.Revoke(context.Background(), leaseID)
	}
	if err != nil {
		return clientv3.NoLease, unavailable(err)
	}
	return clientv3.NoLease, registry.ErrDuplicate
}

func (s *Store) keep(id registry.Identity, key, value string, leaseID clientv3.LeaseID) {
	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	if old, ok := s.leases[id]; ok {
		old()
	}
	s.leases[id] = cancel
	s.mu.Unlock()
	routine.GoSafe(ctx, func() { s.keepAlive(ctx, key, value, leaseID) })
}

func (s *Store) keepAlive(ctx context.Context, key, value string, leaseID clientv3.LeaseID) {
	fields := map[string]interface{}{"key": key}
	for {
		ch, err := s.client.KeepAlive(ctx, leaseID)
		if err == nil {
			for range ch {
			}
		}
		if ctx.Err() != nil {
			return
		}
		s.opt.logger.Log(ctx, logger.WarnLevel, fields, "etcd lease lost")

		err = retry.NewOption(
			retry.Retry(s.opt.retry),
			retry.Delay(500*time.Millisecond),
			retry.MaxJitter(500*time.Millisecond),
			retry.Retryable(func(err error) bool { return !stderrors.Is(err, errTaken) }),
		).Retry(ctx, func(ctx context.Context) error {
			id, err := s.put(ctx, key, value)
			if stderrors.Is(err, registry.ErrDuplicate) {
				return errTaken
			}
			leaseID = id
			return err
		})
		if err != nil {
			s.opt.logger.Log(ctx, logger.ErrorLevel, map[string]interface{}{"key": key, "error": err}, "etcd lease not reinstated")
			return
		}
	}
}

func (s *Store) Remove(ctx context.Context, id registry.Identity) error {
	s.mu.Lock()
	if cancel, ok := s.leases[id]; ok {
		cancel()
		delete(s.leases, id)
	}
	s.mu.Unlock()

	rsp, err := s.client.Delete(ctx, s.key(id))
	if err != nil {
		return unavailable(err)
	}
	if rsp.Deleted == 0 {
		return registry.ErrNotFound
	}
	return nil
}

// Close stops every keep-alive. Leased keys expire after their TTL; the
// client itself stays open.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, cancel := range s.leases {
		cancel()
		delete(s.leases, id)
	}
	return nil
}

package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/appforge/canvasflow/model"
	"github.com/appforge/canvasflow/util"
	rd "github.com/go-redis/redis/v9"
)

const workflowDefPrefix = "WF_DEF"

// RedisConfig selects the redis deployment backing the store.
type RedisConfig struct {
	Addrs     []string
	Namespace string
}

// RedisStore persists workflow definitions in redis under namespaced
// keys. GetAll returns entries sorted by storage key so index builds
// stay deterministic across processes.
type RedisStore struct {
	client    rd.UniversalClient
	namespace string
	codec     util.Codec[model.Workflow]
}

var _ Store = new(RedisStore)

func NewRedisStore(conf RedisConfig) *RedisStore {
	client := rd.NewUniversalClient(&rd.UniversalOptions{
		Addrs: conf.Addrs,
	})
	return &RedisStore{
		client:    client,
		namespace: conf.Namespace,
		codec:     util.NewJSONCodec[model.Workflow](),
	}
}

func (r *RedisStore) namespaceKey(args ...string) string {
	return fmt.Sprintf("%s:%s", r.namespace, strings.Join(args, ":"))
}

func (r *RedisStore) storageKeyOf(redisKey string) string {
	prefix := r.namespaceKey(workflowDefPrefix) + ":"
	return strings.TrimPrefix(redisKey, prefix)
}

func (r *RedisStore) GetAll() ([]model.StoredWorkflow, error) {
	ctx := context.Background()
	pattern := r.namespaceKey(workflowDefPrefix, "*")
	keys, err := r.client.Keys(ctx, pattern).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	out := make([]model.StoredWorkflow, 0, len(keys))
	for _, key := range keys {
		val, err := r.client.Get(ctx, key).Result()
		if err == rd.Nil {
			continue
		}
		if err != nil {
			return nil, err
		}
		wf, err := r.codec.Decode([]byte(val))
		if err != nil {
			return nil, err
		}
		out = append(out, model.StoredWorkflow{StorageKey: r.storageKeyOf(key), Workflow: wf})
	}
	return out, nil
}

func (r *RedisStore) Get(key string) (*model.Workflow, error) {
	ctx := context.Background()
	val, err := r.client.Get(ctx, r.namespaceKey(workflowDefPrefix, key)).Result()
	if err != nil {
		return nil, err
	}
	return r.codec.Decode([]byte(val))
}

func (r *RedisStore) Put(key string, wf *model.Workflow) error {
	ctx := context.Background()
	data, err := r.codec.Encode(*wf)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.namespaceKey(workflowDefPrefix, key), data, 0).Err()
}

func (r *RedisStore) Delete(key string) error {
	ctx := context.Background()
	return r.client.Del(ctx, r.namespaceKey(workflowDefPrefix, key)).Err()
}

func (r *RedisStore) Replace(entries []model.StoredWorkflow) error {
	existing, err := r.GetAll()
	if err != nil {
		return err
	}
	for _, e := range existing {
		if err := r.Delete(e.StorageKey); err != nil {
			return err
		}
	}
	for _, e := range entries {
		if err := r.Put(e.StorageKey, e.Workflow); err != nil {
			return err
		}
	}
	return nil
}

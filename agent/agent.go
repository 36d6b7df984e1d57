// Package agent wires the runtime components together and owns their
// start/stop ordering.
package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/appforge/canvasflow/config"
	"github.com/appforge/canvasflow/dispatch"
	"github.com/appforge/canvasflow/engine"
	"github.com/appforge/canvasflow/executor"
	"github.com/appforge/canvasflow/logger"
	"github.com/appforge/canvasflow/metric"
	"github.com/appforge/canvasflow/model"
	"github.com/appforge/canvasflow/nav"
	"github.com/appforge/canvasflow/notify"
	"github.com/appforge/canvasflow/rest"
	"github.com/appforge/canvasflow/session"
	"github.com/appforge/canvasflow/store"
	"github.com/appforge/canvasflow/trigger"
	"github.com/appforge/canvasflow/util"
	"go.uber.org/zap"
)

type Agent struct {
	Config config.Config

	wg         sync.WaitGroup
	store      store.Store
	loader     *store.Loader
	metrics    *metric.Metrics
	pages      *nav.Pages
	sessions   *session.Registry
	hub        *notify.Hub
	engine     *engine.Engine
	pool       *util.WorkerPool[model.ExecutionRequest]
	dispatcher *dispatch.Dispatcher
	server     *rest.Server

	shutdown     bool
	shutdownLock sync.Mutex
}

func New(conf config.Config) (*Agent, error) {
	a := &Agent{Config: conf}
	if err := a.setup(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Agent) setup() error {
	conf := a.Config
	a.metrics = metric.NewMetrics()
	a.pages = nav.NewPages(conf.Pages...)
	ttl := time.Duration(conf.SessionTTLMin) * time.Minute
	a.sessions = session.NewRegistry(a.pages, conf.StartPage, ttl)
	a.hub = notify.NewHub()

	switch conf.StorageType {
	case config.STORAGE_TYPE_REDIS:
		a.store = store.NewRedisStore(store.RedisConfig{
			Addrs:     conf.RedisConfig.Addrs,
			Namespace: conf.RedisConfig.Namespace,
		})
	case config.STORAGE_TYPE_INMEM:
		a.store = store.NewMemoryStore()
	default:
		return fmt.Errorf("unknown storage type %s", conf.StorageType)
	}
	a.loader = store.NewLoader(conf.BackendUrl, conf.AppId, a.store)

	a.engine = engine.NewEngine(
		conf.AppId,
		executor.NewClient(conf.ExecutorUrl),
		executor.NewMediaClient(conf.MediaUrl),
		a.sessions,
		a.hub,
		a.metrics,
	)
	a.pool = util.NewWorkerPool[model.ExecutionRequest](
		"execution", conf.WorkerCount, conf.ExecutorCapacity, &a.wg, a.engine.Execute)
	a.dispatcher = dispatch.NewDispatcher(
		trigger.BuildIndex(nil), poolExecutor{a.pool}, a.hub, a.metrics)

	server, err := rest.NewServer(conf.HttpPort, a.dispatcher, a, a.pages, a.hub, a.metrics)
	if err != nil {
		return err
	}
	a.server = server
	return nil
}

// poolExecutor queues execution requests so OnEvent stays
// fire-and-forget.
type poolExecutor struct {
	pool *util.WorkerPool[model.ExecutionRequest]
}

func (p poolExecutor) Execute(req model.ExecutionRequest) error {
	p.pool.Submit(req)
	return nil
}

// Sync reloads workflows from the backend and swaps in a freshly built
// index.
func (a *Agent) Sync(ctx context.Context) error {
	if _, _, err := a.loader.Load(ctx); err != nil {
		return err
	}
	entries, err := a.store.GetAll()
	if err != nil {
		return err
	}
	a.dispatcher.SetIndex(trigger.BuildIndex(entries))
	a.metrics.IndexRebuilds.Inc()
	return nil
}

func (a *Agent) Start() error {
	a.pool.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := a.Sync(ctx); err != nil {
		// Start anyway; the sync endpoint can recover once the backend
		// is reachable.
		logger.Error("initial workflow sync failed", zap.Error(err))
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.server.Start(); err != nil {
			logger.Error("http server stopped", zap.Error(err))
		}
	}()
	return nil
}

func (a *Agent) Shutdown() error {
	a.shutdownLock.Lock()
	defer a.shutdownLock.Unlock()
	if a.shutdown {
		return nil
	}
	a.shutdown = true
	if err := a.server.Stop(); err != nil {
		return err
	}
	a.pool.Stop()
	a.wg.Wait()
	return nil
}

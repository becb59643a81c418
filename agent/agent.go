package agent

import (
	"fmt"
	"net"
	"sync"

	"github.com/mohitkumar/actionbus/action"
	"github.com/mohitkumar/actionbus/analytics"
	"github.com/mohitkumar/actionbus/bus"
	"github.com/mohitkumar/actionbus/bus/memory"
	"github.com/mohitkumar/actionbus/config"
	"github.com/mohitkumar/actionbus/logger"
	"github.com/mohitkumar/actionbus/metadata"
	"github.com/mohitkumar/actionbus/model"
	"github.com/mohitkumar/actionbus/monitor"
	inmem "github.com/mohitkumar/actionbus/persistence/memory"
	"github.com/mohitkumar/actionbus/persistence/redis"
	"github.com/mohitkumar/actionbus/rest"
	"github.com/mohitkumar/actionbus/rpc"
	"github.com/mohitkumar/actionbus/util"
	"go.opencensus.io/stats/view"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

// Agent hosts one action server per registered definition together with
// the dispatcher, monitor and the rest and grpc surfaces on a single bus.
type Agent struct {
	Config          config.Config
	bus             bus.Bus
	metadataService metadata.MetadataService
	dispatcher      *action.Dispatcher
	monitor         *monitor.Monitor
	httpServer      *rest.Server
	grpcServer      *grpc.Server
	serversLock     sync.Mutex
	servers         map[string]*action.Server
	shutdown        bool
	shutdowns       chan struct{}
	shutdownLock    sync.Mutex
	wg              sync.WaitGroup
}

var _ rest.ActionRegistrar = new(Agent)

func New(config config.Config) (*Agent, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	a := &Agent{
		Config:    config,
		servers:   make(map[string]*action.Server),
		shutdowns: make(chan struct{}),
	}
	setup := []func() error{
		a.setupAnalytics,
		a.setupBus,
		a.setupMetadataService,
		a.setupMonitor,
		a.setupDispatcher,
		a.setupActions,
		a.setupHttpServer,
		a.setupGrpcServer,
	}
	for _, fn := range setup {
		if err := fn(); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *Agent) setupAnalytics() error {
	if err := view.Register(action.Views...); err != nil {
		return err
	}
	return analytics.InitDataCollector(a.Config.AnalyticsConfig)
}

func (a *Agent) redisConfig() redis.Config {
	return redis.Config{
		Addrs:     a.Config.RedisConfig.Addrs,
		Namespace: a.Config.RedisConfig.Namespace,
		PoolSize:  a.Config.RedisConfig.PoolSize,
		Password:  a.Config.RedisConfig.Password,
	}
}

func (a *Agent) setupBus() error {
	switch a.Config.BusType {
	case config.BUS_TYPE_REDIS:
		a.bus = redis.NewRedisBus(a.redisConfig())
	default:
		a.bus = memory.New(memory.DEFAULT_CAPACITY)
	}
	return nil
}

func (a *Agent) setupMetadataService() error {
	var storage metadata.MetadataStorage
	switch a.Config.StorageType {
	case config.STORAGE_TYPE_REDIS:
		encDec, err := util.NewEncoderDecoder[model.ActionDefinition](a.Config.EncoderDecoderType)
		if err != nil {
			return err
		}
		storage = redis.NewRedisMetadataStorage(a.redisConfig(), encDec)
	default:
		storage = inmem.NewInmemMetadataStorage()
	}
	a.metadataService = metadata.NewMetadataService(storage)
	return nil
}

func (a *Agent) setupMonitor() error {
	var err error
	a.monitor, err = monitor.New(a.bus, a.Config.Topics, a.Config.EncoderDecoderType, a.Config.MonitorConfig)
	return err
}

func (a *Agent) actionOptions() []action.Option {
	return []action.Option{
		action.WithTopics(a.Config.Topics),
		action.WithEncoderDecoder(a.Config.EncoderDecoderType),
		action.WithPollInterval(a.Config.PollInterval),
		action.WithFeedbackStyle(a.Config.FeedbackStyle),
	}
}

func (a *Agent) setupDispatcher() error {
	a.dispatcher = action.NewDispatcher(a.bus, a.actionOptions()...)
	return nil
}

// setupActions starts servers for definitions already in storage, then for
// the ones listed in the configuration, which win on name clashes.
func (a *Agent) setupActions() error {
	stored, err := a.metadataService.GetMetadataStorage().ListActionDefinitions()
	if err != nil {
		return err
	}
	for _, def := range stored {
		if err := a.startServer(def); err != nil {
			logger.Error("skipping stored action definition", zap.String("name", def.Name), zap.Error(err))
		}
	}
	for _, def := range a.Config.Actions {
		if err := a.RegisterAction(def); err != nil {
			return fmt.Errorf("action %s: %w", def.Name, err)
		}
	}
	return nil
}

// RegisterAction validates and stores the definition and (re)starts the
// server hosting it.
func (a *Agent) RegisterAction(def model.ActionDefinition) error {
	if err := a.metadataService.ValidateAction(def); err != nil {
		return err
	}
	if err := a.metadataService.GetMetadataStorage().SaveActionDefinition(def); err != nil {
		return err
	}
	return a.startServer(def)
}

func (a *Agent) startServer(def model.ActionDefinition) error {
	handler, err := a.metadataService.BuildHandler(def)
	if err != nil {
		return err
	}
	opts := append(a.actionOptions(), action.WithFeedbackStyle(def.FeedbackStyle))
	srv, err := action.NewServer(def.Name, handler, a.bus, opts...)
	if err != nil {
		return err
	}

	a.serversLock.Lock()
	old := a.servers[def.Name]
	a.servers[def.Name] = srv
	a.serversLock.Unlock()
	if old != nil {
		old.Close()
	}
	srv.Start(&a.wg)
	logger.Info("action server started", zap.String("name", def.Name), zap.String("kind", string(def.Kind)))
	return nil
}

// Server returns the running server for an action name.
func (a *Agent) Server(name string) (*action.Server, bool) {
	a.serversLock.Lock()
	defer a.serversLock.Unlock()
	srv, ok := a.servers[name]
	return srv, ok
}

func (a *Agent) Dispatcher() *action.Dispatcher {
	return a.dispatcher
}

func (a *Agent) Monitor() *monitor.Monitor {
	return a.monitor
}

func (a *Agent) Bus() bus.Bus {
	return a.bus
}

func (a *Agent) MetadataService() metadata.MetadataService {
	return a.metadataService
}

func (a *Agent) setupHttpServer() error {
	var err error
	a.httpServer, err = rest.NewServer(a.Config.HttpPort, a.metadataService, a.monitor, a.dispatcher, a)
	return err
}

func (a *Agent) setupGrpcServer() error {
	var err error
	conf := &rpc.GrpcConfig{
		Dispatcher: a.dispatcher,
		Monitor:    a.monitor,
	}
	a.grpcServer, err = rpc.NewGrpcServer(conf)
	return err
}

func (a *Agent) Start() error {
	go func() {
		if err := a.httpServer.Start(); err != nil {
			logger.Error("http server failed", zap.Error(err))
			_ = a.Shutdown()
		}
	}()

	logger.Info("starting grpc server on", zap.Int("port", a.Config.GrpcPort))
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", a.Config.GrpcPort))
	if err != nil {
		return err
	}
	go func() {
		if err := a.grpcServer.Serve(lis); err != nil {
			logger.Error("grpc server failed", zap.Error(err))
			_ = a.Shutdown()
		}
	}()
	return nil
}

func (a *Agent) stopServers() error {
	a.serversLock.Lock()
	servers := a.servers
	a.servers = make(map[string]*action.Server)
	a.serversLock.Unlock()
	for _, srv := range servers {
		srv.Close()
	}
	return nil
}

func (a *Agent) Shutdown() error {
	logger.Info("shutting down agent")
	a.shutdownLock.Lock()
	defer a.shutdownLock.Unlock()
	if a.shutdown {
		return nil
	}
	a.shutdown = true
	close(a.shutdowns)

	shutdown := []func() error{
		a.httpServer.Stop,
		func() error {
			logger.Info("stopping grpc server")
			a.grpcServer.Stop()
			return nil
		},
		a.stopServers,
		a.dispatcher.Close,
		a.monitor.Close,
		a.bus.Close,
		func() error {
			if c, ok := a.metadataService.GetMetadataStorage().(interface{ Close() error }); ok {
				return c.Close()
			}
			return nil
		},
	}
	for _, fn := range shutdown {
		if err := fn(); err != nil {
			logger.Error("error during shutdown", zap.Error(err))
		}
	}
	logger.Info("waiting for all action servers to stop...")
	a.wg.Wait()
	return analytics.Sync()
}

// Done is closed once Shutdown starts.
func (a *Agent) Done() <-chan struct{} {
	return a.shutdowns
}

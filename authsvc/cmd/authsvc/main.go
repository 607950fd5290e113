package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/go-kit/kit/log"
	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	consulsd "github.com/go-kit/kit/sd/consul"
	"github.com/hashicorp/consul/api"
	"github.com/ichigozero/tasktracker/authsvc"
	"github.com/ichigozero/tasktracker/authsvc/client"
	"github.com/ichigozero/tasktracker/authsvc/pkg/authendpoint"
	"github.com/ichigozero/tasktracker/authsvc/pkg/authservice"
	"github.com/ichigozero/tasktracker/authsvc/pkg/authtransport"
	"github.com/ichigozero/tasktracker/usersvc"
	"github.com/ichigozero/tasktracker/usersvc/db/gorm"
	"github.com/ichigozero/tasktracker/usersvc/inmem"
	"github.com/ichigozero/tasktracker/usersvc/pkg/userservice"
	"github.com/ichigozero/tasktracker/usersvc/seed"
	"github.com/oklog/oklog/pkg/group"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
	"github.com/twinj/uuid"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	fs := flag.NewFlagSet("authsvc", flag.ExitOnError)
	var (
		httpAddr = fs.String(
			"http.addr",
			getEnv("HTTP_ADDR", ":8081"),
			"HTTP listen address",
		)
		consulAddr = fs.String(
			"consul.addr",
			getEnv("CONSUL_ADDR", ""),
			"Consul agent address, registration is skipped when empty",
		)
		databaseURL = fs.String(
			"database.url",
			getEnv("DATABASE_URL", ""),
			"Database URL, or inmem for a volatile store",
		)
		seedFile = fs.String(
			"seed.file",
			getEnv("SEED_FILE", ""),
			"YAML file with accounts to create at startup",
		)
		bcryptCost = fs.Int(
			"bcrypt.cost",
			getEnvAsInt("BCRYPT_COST", bcrypt.DefaultCost),
			"bcrypt work factor",
		)
	)

	fs.Usage = usageFor(fs, os.Args[0]+" [flags]")
	fs.Parse(os.Args[1:])

	var logger log.Logger
	{
		logger = log.NewLogfmtLogger(os.Stderr)
		logger = log.With(logger, "ts", log.DefaultTimestampUTC)
		logger = log.With(logger, "caller", log.DefaultCaller)
	}

	cfg, err := authsvc.LoadTokenConfig()
	if err != nil {
		logger.Log("during", "LoadTokenConfig", "err", err)
		os.Exit(1)
	}

	var repository usersvc.UserRepository
	{
		if *databaseURL == "inmem" {
			repository = inmem.NewUserRepository()
		} else {
			db, err := gorm.Open(*databaseURL)
			if err != nil {
				logger.Log("during", "Open", "err", err)
				os.Exit(1)
			}
			repository = gorm.NewUserRepository(db)
		}
	}

	var users userservice.Service
	{
		users, err = userservice.NewBasicService(repository, *bcryptCost)
		if err != nil {
			logger.Log("err", err)
			os.Exit(1)
		}
		users = userservice.LoggingMiddleware(log.With(logger, "component", "users"))(users)
		users = userservice.InstrumentingMiddleware(
			kitprometheus.NewCounterFrom(stdprometheus.CounterOpts{
				Namespace: "tasktracker",
				Subsystem: "usersvc",
				Name:      "request_count",
				Help:      "Number of requests received.",
			}, []string{"method"}),
			kitprometheus.NewSummaryFrom(stdprometheus.SummaryOpts{
				Namespace: "tasktracker",
				Subsystem: "usersvc",
				Name:      "request_latency_seconds",
				Help:      "Total duration of requests in seconds.",
			}, []string{"method"}),
		)(users)
	}

	if *seedFile != "" {
		file, err := seed.Load(*seedFile)
		if err != nil {
			logger.Log("during", "Load", "file", *seedFile, "err", err)
			os.Exit(1)
		}
		created, err := seed.Apply(context.Background(), users, file)
		logger.Log("seed", *seedFile, "created", created, "err", err)
		if err != nil {
			os.Exit(1)
		}
	}

	var service authservice.Service
	{
		service = authservice.New(users, authservice.NewTokenizer(cfg, nil), logger)
		service = authservice.InstrumentingMiddleware(
			kitprometheus.NewCounterFrom(stdprometheus.CounterOpts{
				Namespace: "tasktracker",
				Subsystem: "authsvc",
				Name:      "request_count",
				Help:      "Number of requests received.",
			}, []string{"method", "success"}),
			kitprometheus.NewSummaryFrom(stdprometheus.SummaryOpts{
				Namespace: "tasktracker",
				Subsystem: "authsvc",
				Name:      "request_latency_seconds",
				Help:      "Total duration of requests in seconds.",
			}, []string{"method", "success"}),
		)(service)
	}

	var duration = kitprometheus.NewSummaryFrom(stdprometheus.SummaryOpts{
		Namespace: "tasktracker",
		Subsystem: "authsvc",
		Name:      "endpoint_duration_seconds",
		Help:      "Endpoint request duration in seconds.",
	}, []string{"method", "success"})

	var (
		endpoints   = authendpoint.New(service, logger, duration)
		httpHandler = authtransport.NewHTTPHandler(endpoints, logger)
	)

	if *consulAddr != "" {
		registrar, err := newRegistrar(*consulAddr, *httpAddr, logger)
		if err != nil {
			logger.Log("during", "Register", "err", err)
			os.Exit(1)
		}
		registrar.Register()
		defer registrar.Deregister()
	}

	var g group.Group
	{
		// The HTTP listener mounts the Go kit HTTP handler we created.
		httpListener, err := net.Listen("tcp", *httpAddr)
		if err != nil {
			logger.Log("transport", "HTTP", "during", "Listen", "err", err)
			os.Exit(1)
		}
		server := &http.Server{Handler: httpHandler}
		g.Add(func() error {
			logger.Log("transport", "HTTP", "addr", *httpAddr)
			return server.Serve(httpListener)
		}, func(error) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			server.Shutdown(ctx)
		})
	}
	{
		// This function just sits and waits for ctrl-C.
		cancelInterrupt := make(chan struct{})
		g.Add(func() error {
			c := make(chan os.Signal, 1)
			signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
			select {
			case sig := <-c:
				return fmt.Errorf("received signal %s", sig)
			case <-cancelInterrupt:
				return nil
			}
		}, func(error) {
			close(cancelInterrupt)
		})
	}
	logger.Log("exit", g.Run())
}

func newRegistrar(consulAddr, httpAddr string, logger log.Logger) (*consulsd.Registrar, error) {
	consulConfig := api.DefaultConfig()
	consulConfig.Address = consulAddr
	consulClient, err := api.NewClient(consulConfig)
	if err != nil {
		return nil, err
	}

	host, port, err := net.SplitHostPort(httpAddr)
	if err != nil {
		return nil, err
	}
	if host == "" {
		host = "localhost"
	}

	p, _ := strconv.Atoi(port)
	asr := &api.AgentServiceRegistration{
		ID:      uuid.NewV4().String(),
		Name:    client.ServiceName,
		Address: host,
		Port:    p,
	}

	return consulsd.NewRegistrar(consulsd.NewClient(consulClient), asr, logger), nil
}

func usageFor(fs *flag.FlagSet, short string) func() {
	return func() {
		fmt.Fprintf(os.Stderr, "USAGE\n")
		fmt.Fprintf(os.Stderr, "  %s\n", short)
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "FLAGS\n")
		w := tabwriter.NewWriter(os.Stderr, 0, 2, 2, ' ', 0)
		fs.VisitAll(func(f *flag.Flag) {
			fmt.Fprintf(w, "\t-%s %s\t%s\n", f.Name, f.DefValue, f.Usage)
		})
		w.Flush()
		fmt.Fprintf(os.Stderr, "\n")
	}
}

func getEnv(key, fallback string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		value = fallback
	}
	return value
}

func getEnvAsInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}

	if v, err := strconv.Atoi(value); err == nil {
		return v
	}
	return fallback
}

package main

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	stdlog "log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/go-kit/kit/sd"
	sdconsul "github.com/go-kit/kit/sd/consul"
	kitlog "github.com/go-kit/log"
	"github.com/hashicorp/consul/api"
	"github.com/nats-io/nats.go/micro"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/flarexio/core/events"
	"github.com/flarexio/core/model"
	"github.com/flarexio/core/pubsub"
	"github.com/flarexio/ledger"
	"github.com/flarexio/ledger/conf"
	"github.com/flarexio/ledger/persistence"

	transHTTP "github.com/flarexio/ledger/transport/http"
	transPubSub "github.com/flarexio/ledger/transport/pubsub"
)

var (
	Version   string = "0.0.0"
	BuildTime string
	GitCommit string
)

var versionCmd = &cli.Command{
	Name:    "version",
	Aliases: []string{"ver", "v"},
	Usage:   "Show version",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    "all",
			Aliases: []string{"a"},
			Usage:   "Show all infomation (include: Version, BuildTime, GitCommit)",
			Value:   false,
		},
	},
	Action: func(ctx *cli.Context) error {
		if !ctx.Bool("all") {
			fmt.Println(ctx.App.Version)
		} else {
			cli.ShowVersion(ctx)
		}
		return nil
	},
}

var genkeyCmd = &cli.Command{
	Name:  "genkey",
	Usage: "Generate a new ed25519 key pair",
	Action: func(ctx *cli.Context) error {
		pub, priv, err := ed25519.GenerateKey(nil)
		if err != nil {
			return fmt.Errorf("failed to generate key pair: %w", err)
		}

		basedPriv := base64.StdEncoding.EncodeToString(priv)
		basedPub := base64.StdEncoding.EncodeToString(pub)

		fmt.Printf("Public Key: %s\n", basedPub)
		fmt.Printf("Private Key: %s\n", basedPriv)

		return nil
	},
}

var migrateCmd = &cli.Command{
	Name:  "migrate",
	Usage: "Apply the database schema and exit",
	Action: func(ctx *cli.Context) error {
		if err := conf.LoadEnv(ctx); err != nil {
			return err
		}

		cfg, err := conf.LoadConfig()
		if err != nil {
			return err
		}
		conf.ReplaceGlobals(cfg)

		repo, err := persistence.NewWalletRepository(cfg.Persistence)
		if err != nil {
			return err
		}
		defer repo.Close()

		fmt.Println("schema migrated")
		return nil
	},
}

func main() {
	cli.VersionPrinter = func(cli *cli.Context) {
		fmt.Println("Version: " + cli.App.Version)
		fmt.Println("BuildTime: " + BuildTime)
		fmt.Println("GitCommit: " + GitCommit)
	}

	app := &cli.App{
		Name:     "ledger",
		Usage:    "Wallet and transaction bookkeeping service",
		Version:  Version,
		Commands: []*cli.Command{versionCmd, genkeyCmd, migrateCmd},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "path",
				Usage:   "Specifies the working directory",
				EnvVars: []string{"LEDGER_PATH"},
			},
			&cli.IntFlag{
				Name:    "port",
				Usage:   "Specifies the HTTP service port",
				Value:   8080,
				EnvVars: []string{"LEDGER_HTTP_PORT"},
			},
			&cli.StringFlag{
				Name:    "nats",
				EnvVars: []string{"NATS_URL"},
				Value:   "wss://nats.flarex.io",
			},
			&cli.StringFlag{
				Name:    "consul",
				Usage:   "Register the service with a Consul agent",
				EnvVars: []string{"CONSUL_HTTP_ADDR"},
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		stdlog.Fatal(err)
	}

	time.Sleep(3000 * time.Millisecond)
}

func run(cli *cli.Context) error {
	err := conf.LoadEnv(cli)
	if err != nil {
		return err
	}

	cfg, err := conf.LoadConfig()
	if err != nil {
		return err
	}
	conf.ReplaceGlobals(cfg)

	log, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer log.Sync()

	zap.ReplaceGlobals(log)

	ctx := context.WithValue(context.Background(), model.Logger, log)

	// Add Persistence
	repo, err := persistence.NewWalletRepository(cfg.Persistence)
	if err != nil {
		log.Error(err.Error(),
			zap.String("infra", "persistence"),
			zap.String("driver", cfg.Persistence.Driver.String()),
		)
		return err
	}
	defer repo.Close()

	_, cancel := context.WithCancel(ctx)
	defer cancel()

	// Add Service and Middlewares
	svc := ledger.NewService(repo, cfg.Admin)
	svc = ledger.LoggingMiddleware(log)(svc)

	if cfg.Cache.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.Addr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		defer rdb.Close()

		svc = ledger.CachingMiddleware(rdb, cfg.Cache)(svc)
	}

	// Add Endpoints
	endpoints := ledger.EndpointSet{
		SignIn:            ledger.SignInEndpoint(svc),
		CreateWallet:      ledger.CreateWalletEndpoint(svc),
		Wallet:            ledger.WalletEndpoint(svc),
		Wallets:           ledger.WalletsEndpoint(svc),
		RenameWallet:      ledger.RenameWalletEndpoint(svc),
		DeleteWallet:      ledger.DeleteWalletEndpoint(svc),
		Deposit:           ledger.DepositEndpoint(svc),
		Transfer:          ledger.TransferEndpoint(svc),
		RecordTransaction: ledger.RecordTransactionEndpoint(svc),
		Transaction:       ledger.TransactionEndpoint(svc),
		Transactions:      ledger.TransactionsEndpoint(svc),
		AmendTransaction:  ledger.AmendTransactionEndpoint(svc),
		DeleteTransaction: ledger.DeleteTransactionEndpoint(svc),
		CheckHealth:       ledger.CheckHealthEndpoint(svc),
	}

	// Add Transports

	// Add PubSub Transports and Event Sourcing
	var ps pubsub.NATSPubSub
	{
		log := log.With(
			zap.String("infra", "pubsub"),
			zap.String("provider", cfg.EventBus.Provider.String()),
		)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		natsURL := cli.String("nats")
		creds := conf.Path + "/user.creds"

		natsPS, err := pubsub.NewNATSPubSub(natsURL, cfg.Name, creds)
		if err != nil {
			log.Error(err.Error())
			return err
		}
		defer natsPS.Close()

		log.Info("connected")

		if err := natsPS.AddJetStream(); err != nil {
			log.Error(err.Error())
			return err
		}

		wallets := cfg.EventBus.Wallets
		if err := natsPS.AddStreamAndConsumer(ctx, wallets); err != nil {
			log.Error(err.Error())
			return err
		}

		consumer := pubsub.ConsumerStreamPair{
			Consumer: wallets.Consumer.Name,
			Stream:   wallets.Consumer.Stream,
		}

		// Add Event Sourcing
		// SUB wallets.>
		endpoint := ledger.EventEndpoint(svc)
		handler := transPubSub.EventHandler(endpoint)

		natsPS.PullConsume(consumer, handler)

		ps = natsPS
	}

	events.ReplaceGlobals(ps)

	// Add PubSub Transport
	{
		srv, err := ps.AddService(micro.Config{
			Name:        "ledger",
			Version:     Version,
			Description: "Wallet and transaction bookkeeping service",
			Metadata: map[string]string{
				"id": cfg.Name,
			},
		})

		if err != nil {
			return err
		}

		root := srv.AddGroup("ledger")

		// SUB ledger.balance
		root.AddEndpoint("balance", transPubSub.BalanceHandler(endpoints.Wallet))

		// SUB ledger.deposit
		root.AddEndpoint("deposit", transPubSub.DepositHandler(endpoints.Deposit))

		// SUB ledger.health
		root.AddEndpoint("health", transPubSub.CheckHealthHandler(endpoints.CheckHealth))
	}

	// Add HTTP Transport
	r := gin.New()
	r.Use(ginzap.Ginzap(log, time.RFC3339, true))
	r.Use(ginzap.RecoveryWithZap(log, true))

	// GET /.well-known/jwks.json
	r.GET("/.well-known/jwks.json", transHTTP.JWKHandler)

	transHTTP.Init(
		cfg.BaseURL,          // issuer
		cfg.JWT.Audiences[0], // audience
		cfg.JWT.Privkey,      // ed25519 private key
	)

	auth := transHTTP.Authorizator("admin")

	apiV1 := r.Group("/ledger/v1")
	{
		// PATCH /signin
		apiV1.PATCH("/signin", transHTTP.SignInHandler(endpoints.SignIn))

		// PATCH /token/refresh
		apiV1.PATCH("/token/refresh", transHTTP.RefreshHandler)

		// GET /healthz
		apiV1.GET("/healthz", transHTTP.CheckHealthHandler(endpoints.CheckHealth))

		// POST /wallets
		apiV1.POST("/wallets", auth,
			transHTTP.CreateWalletHandler(endpoints.CreateWallet))

		// GET /wallets
		apiV1.GET("/wallets", auth,
			transHTTP.WalletsHandler(endpoints.Wallets))

		// GET /wallets/:wallet
		apiV1.GET("/wallets/:wallet", auth,
			transHTTP.WalletHandler(endpoints.Wallet))

		// PATCH /wallets/:wallet
		apiV1.PATCH("/wallets/:wallet", auth,
			transHTTP.RenameWalletHandler(endpoints.RenameWallet))

		// DELETE /wallets/:wallet
		apiV1.DELETE("/wallets/:wallet", auth,
			transHTTP.DeleteWalletHandler(endpoints.DeleteWallet))

		// POST /wallets/:wallet/deposit
		apiV1.POST("/wallets/:wallet/deposit", auth,
			transHTTP.DepositHandler(endpoints.Deposit))

		// POST /wallets/transfer
		apiV1.POST("/wallets/transfer", auth,
			transHTTP.TransferHandler(endpoints.Transfer))

		// POST /transactions
		apiV1.POST("/transactions", auth,
			transHTTP.RecordTransactionHandler(endpoints.RecordTransaction))

		// GET /transactions
		apiV1.GET("/transactions", auth,
			transHTTP.TransactionsHandler(endpoints.Transactions))

		// GET /transactions/:transaction
		apiV1.GET("/transactions/:transaction", auth,
			transHTTP.TransactionHandler(endpoints.Transaction))

		// PATCH /transactions/:transaction
		apiV1.PATCH("/transactions/:transaction", auth,
			transHTTP.AmendTransactionHandler(endpoints.AmendTransaction))

		// DELETE /transactions/:transaction
		apiV1.DELETE("/transactions/:transaction", auth,
			transHTTP.DeleteTransactionHandler(endpoints.DeleteTransaction))
	}

	go r.Run(":" + strconv.Itoa(conf.Port))

	// Register with Consul
	if addr := cli.String("consul"); addr != "" {
		registrar, err := newRegistrar(addr, cfg.Name)
		if err != nil {
			log.Error(err.Error(), zap.String("infra", "consul"))
			return err
		}

		registrar.Register()
		defer registrar.Deregister()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sign := <-quit

	log.Info("shutdown", zap.String("singal", sign.String()))
	return nil
}

func newRegistrar(addr string, name string) (sd.Registrar, error) {
	apiCfg := api.DefaultConfig()
	apiCfg.Address = addr

	client, err := api.NewClient(apiCfg)
	if err != nil {
		return nil, err
	}

	registration := &api.AgentServiceRegistration{
		ID:   name,
		Name: "ledger",
		Port: conf.Port,
		Check: &api.AgentServiceCheck{
			HTTP:     fmt.Sprintf("http://localhost:%d/ledger/v1/healthz", conf.Port),
			Interval: "10s",
			Timeout:  "3s",
		},
	}

	logger := kitlog.NewLogfmtLogger(os.Stdout)
	return sdconsul.NewRegistrar(sdconsul.NewClient(client), registration, logger), nil
}

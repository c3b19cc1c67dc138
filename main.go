package main

import (
	"fmt"
	"log"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/bingospaces/gatekeeper/internal/audit"
	"github.com/bingospaces/gatekeeper/internal/common"
	"github.com/bingospaces/gatekeeper/internal/config"
	"github.com/bingospaces/gatekeeper/internal/credentials"
	"github.com/bingospaces/gatekeeper/internal/gatekeeper"
	"github.com/bingospaces/gatekeeper/internal/handlers/api"
	"github.com/bingospaces/gatekeeper/internal/handlers/web"
	"github.com/bingospaces/gatekeeper/internal/mail"
	"github.com/bingospaces/gatekeeper/internal/middlewares"
	"github.com/bingospaces/gatekeeper/internal/oauth"
	"github.com/bingospaces/gatekeeper/internal/render"
	"github.com/bingospaces/gatekeeper/internal/store"
	"github.com/bingospaces/gatekeeper/internal/verify"
	"github.com/bingospaces/gatekeeper/internal/webhook"
	"github.com/bingospaces/gatekeeper/model"
	"github.com/bingospaces/gatekeeper/params"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/storage/redis/v3"
	goredis "github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

var (
	app       *cli.App
	gitCommit string
	gitDate   string
)

var (
	configFileFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "YAML config file",
		Value: "config.yaml",
	}
	debugFlag = &cli.BoolFlag{
		Name:  "debug",
		Usage: "Enable debug logging",
	}
)

func init() {
	app = cli.NewApp()
	app.EnableBashCompletion = true
	app.Usage = "gatekeeper - credential lifecycle and space access gating server"
	app.Flags = []cli.Flag{
		configFileFlag,
		debugFlag,
	}
	app.Commands = []*cli.Command{
		{
			Name: "version",
			Action: func(ctx *cli.Context) error {
				fmt.Println(params.VersionWithCommit(gitCommit, gitDate))
				return nil
			},
		},
	}
	app.Action = run
}

func mustInitLogger(debug bool) {
	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))
}

func mustInitDatabase(dbConfig config.MySQLConfig) *gorm.DB {
	db, err := gorm.Open(mysql.Open(dbConfig.Dsn), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   dbConfig.TablePrefix,
			SingularTable: true,
		},
	})
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	sqlDB, err := db.DB()
	if err != nil {
		slog.Error("Failed to access database pool", "error", err)
		os.Exit(1)
	}
	if dbConfig.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(dbConfig.MaxIdleConns)
	}
	if dbConfig.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(dbConfig.MaxOpenConns)
	}
	if dbConfig.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(time.Duration(dbConfig.ConnMaxIdleTime) * time.Second)
	}
	if dbConfig.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(dbConfig.ConnMaxLifetime) * time.Second)
	}

	if err := db.AutoMigrate(model.Models...); err != nil {
		slog.Error("Database migration failed", "error", err)
		os.Exit(1)
	}

	return db
}

func mustInitOAuthProviders(cfg *config.Config) []oauth.Provider {
	googleCallback, _ := url.JoinPath(cfg.BaseURL, "oauth", "google", "callback")
	twitchCallback, _ := url.JoinPath(cfg.BaseURL, "oauth", "twitch", "callback")
	providers := []oauth.Provider{
		oauth.NewGoogleProvider(googleCallback, cfg.Providers.Google.ClientID, cfg.Providers.Google.ClientSecret, cfg.Providers.Google.Scope),
		oauth.NewTwitchProvider(twitchCallback, cfg.Providers.Twitch.ClientID, cfg.Providers.Twitch.ClientSecret, cfg.Providers.Twitch.Scope),
	}
	for _, provider := range providers {
		slog.Info("Registered OAuth provider", "provider", provider.Name())
	}
	return providers
}

func mustInitMailSender(mailCfg config.MailConfig) mail.MailSender {
	if mailCfg.Backend == "" {
		log.Fatal("Missing mail sender backend")
	}
	if mailCfg.Backend == "smtp" {
		from := mailCfg.From
		if from == "" {
			from = mailCfg.SMTP.From
		}
		sender, err := mail.NewSMTPMailSender(mail.SMTPConfig{
			Host:     mailCfg.SMTP.Host,
			Port:     mailCfg.SMTP.Port,
			Username: mailCfg.SMTP.Username,
			Password: mailCfg.SMTP.Password,
			TLS:      mailCfg.SMTP.TLS,
			CertFile: mailCfg.SMTP.CertFile,
			KeyFile:  mailCfg.SMTP.KeyFile,
			CAFile:   mailCfg.SMTP.CAFile,
		}, from)
		if err != nil {
			log.Fatalf("Could not initialize SMTP mail sender: %v", err)
		}
		return sender
	}
	log.Fatalf("Unsupported mail sender backend %s", mailCfg.Backend)
	return nil
}

func mustInitRedisStorage(redisCfg config.RedisConfig) *redis.Storage {
	return redis.New(redis.Config{
		URL:           redisCfg.URL,
		PoolSize:      redisCfg.PoolSize,
		IsClusterMode: redisCfg.ClusterMode,
	})
}

func setupAPIRoutes(
	router fiber.Router,
	cfg *config.Config,
	refresher *credentials.Refresher,
	evaluator *gatekeeper.Evaluator,
	webhookVerifier *webhook.Verifier,
	dispatcher *webhook.Dispatcher,
	replayGuard *webhook.ReplayGuard) {

	var (
		refreshHandler = api.NewRefreshHandler(refresher)
		gateHandler    = api.NewGateHandler(evaluator)
		webhookHandler = api.NewWebhookHandler(webhookVerifier, dispatcher, replayGuard, webhook.SecretForm(cfg.Webhook.SendEmailSecret))
	)

	router.Post("/api/refresh-tokens", middlewares.BearerAuth(cfg.CronSecret), refreshHandler.PostRefreshTokens)
	router.Post("/api/gate/evaluate", middlewares.BearerAuth(cfg.GateSecret), gateHandler.PostEvaluate)
	router.Post("/api/webhooks/auth-email", webhookHandler.PostAuthEmail)
}

func setupWebRoutes(router fiber.Router, linkHandler *web.LinkHandler) {
	router.Get("/oauth/:provider/link", linkHandler.GetLink)
	router.Get("/oauth/:provider/callback", linkHandler.GetCallback)
}

func run(ctx *cli.Context) error {
	cfg, err := config.LoadConfig(ctx.String(configFileFlag.Name))
	if err != nil {
		slog.Error("Could not load config file.", "error", err)
		return err
	}

	mustInitLogger(cfg.Debug || ctx.IsSet(debugFlag.Name))

	globalVars := map[string]interface{}{
		"siteName": cfg.SiteName,
		"baseURL":  cfg.BaseURL,
		"siteURL":  cfg.SiteURL,
	}
	if err := render.Initialize(globalVars, cfg.TemplateDir); err != nil {
		slog.Error("Could not initialize templates", "error", err)
		return err
	}

	mailSender := mustInitMailSender(cfg.Mail)
	db := mustInitDatabase(cfg.MySQL)
	audit.Initialize(audit.NewAuditEventRepository(db))

	// Redis is optional; without it replay dedupe and decision caching are
	// per-process only.
	var (
		cacheStorage store.Storage
		redisClient  goredis.UniversalClient
	)
	if cfg.Redis.URL != "" {
		redisClient = mustInitRedisStorage(cfg.Redis).Conn()
		cacheStorage = store.NewRedisStorage(redisClient)
	} else {
		slog.Warn("No redis configured, caching in process memory")
		cacheStorage = store.NewMemoryStorage()
	}

	tokenCipher, err := common.NewTokenCipher(cfg.MasterKey)
	if err != nil {
		slog.Error("Could not initialize token cipher", "error", err)
		return err
	}

	webhookVerifier, err := webhook.NewVerifier(cfg.Webhook.SendEmailSecret)
	if err != nil {
		slog.Error("Could not initialize webhook verifier", "error", err)
		return err
	}

	oauthProviders := mustInitOAuthProviders(cfg)

	// repositories
	var (
		credentialStore = credentials.NewCredentialStore(db, tokenCipher)
	)

	// services
	var (
		exchanger   = oauth.NewExchanger(oauthProviders)
		refresher   = credentials.NewRefresher(credentialStore, oauthProviders)
		dispatcher  = webhook.NewDispatcher(mailSender, cfg.SiteURL)
		replayGuard = webhook.NewReplayGuard(cacheStorage)
		evaluator   = gatekeeper.NewEvaluator(
			credentialStore,
			verify.NewYouTubeVerifier(),
			verify.NewTwitchVerifier(cfg.Providers.Twitch.ClientID),
			store.StorageWithPrefix(cacheStorage, params.DecisionKeyPrefix),
		)
	)

	router := fiber.New(fiber.Config{
		Prefork:       false,
		CaseSensitive: true,
		BodyLimit:     params.ServerBodyLimit,
		IdleTimeout:   params.ServerIdleTimeout,
		ReadTimeout:   params.ServerReadTimeout,
		WriteTimeout:  params.ServerWriteTimeout,
		ErrorHandler:  middlewares.ErrorHandler,
	})

	router.Use(recover.New())
	router.Use(logger.New())
	router.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.AllowOrigins, ", "),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	setupAPIRoutes(router, cfg, refresher, evaluator, webhookVerifier, dispatcher, replayGuard)
	setupWebRoutes(router, web.NewLinkHandler(exchanger, credentialStore, cfg.MasterKey))

	go startHealthCheckServer(params.HealthCheckServerAddr, redisClient, db)
	return router.Listen(cfg.ListenAddr)
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

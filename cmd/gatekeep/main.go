// gatekeep es el servicio de autenticación: tokens firmados stateless,
// RBAC por recurso/acción, MFA y federación con Google.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/gatekeep/internal/auth"
	"github.com/dropDatabas3/gatekeep/internal/cache"
	memcache "github.com/dropDatabas3/gatekeep/internal/cache/memory"
	redcache "github.com/dropDatabas3/gatekeep/internal/cache/redis"
	"github.com/dropDatabas3/gatekeep/internal/config"
	"github.com/dropDatabas3/gatekeep/internal/domain/repository"
	"github.com/dropDatabas3/gatekeep/internal/domain/types"
	authctl "github.com/dropDatabas3/gatekeep/internal/http/controllers/auth"
	socialctl "github.com/dropDatabas3/gatekeep/internal/http/controllers/social"
	"github.com/dropDatabas3/gatekeep/internal/http/helpers"
	"github.com/dropDatabas3/gatekeep/internal/http/router"
	authsvc "github.com/dropDatabas3/gatekeep/internal/http/services/auth"
	socialsvc "github.com/dropDatabas3/gatekeep/internal/http/services/social"
	"github.com/dropDatabas3/gatekeep/internal/metrics"
	"github.com/dropDatabas3/gatekeep/internal/oauth/google"
	"github.com/dropDatabas3/gatekeep/internal/observability/logger"
	"github.com/dropDatabas3/gatekeep/internal/queue"
	"github.com/dropDatabas3/gatekeep/internal/rbac"
	"github.com/dropDatabas3/gatekeep/internal/security/token"
	"github.com/dropDatabas3/gatekeep/internal/store/pg"
)

func main() {
	var cfgPath string

	root := &cobra.Command{
		Use:   "gatekeep",
		Short: "Servicio de autenticación y control de acceso",
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "Path del archivo de configuración")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cfgPath)
		},
	}
	root.AddCommand(serveCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: cfg.App.Name,
	})
	defer func() { _ = logger.Sync() }()
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ─── Storage ───
	lifetime, _ := time.ParseDuration(cfg.Storage.Postgres.ConnMaxLifetime)
	pool, err := pg.Connect(ctx, pg.PoolConfig{
		DSN:             cfg.Storage.DSN,
		MaxOpenConns:    cfg.Storage.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Storage.Postgres.MaxIdleConns,
		ConnMaxLifetime: lifetime,
	})
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()

	users := pg.NewUserRepo(pool)
	roles := pg.NewRoleRepo(pool)
	settings := pg.NewSettingRepo(pool)
	templates := pg.NewTemplateRepo(pool)

	// Settings requeridos: su ausencia es un error de deployment, no de
	// request. Falla acá, no en el primer registro.
	if err := validateSettings(ctx, settings); err != nil {
		return fmt.Errorf("misconfigured settings: %w", err)
	}

	// ─── Cache ───
	var c cache.Cache
	switch cfg.Cache.Kind {
	case "redis":
		c = redcache.New(cfg.Cache.Redis.Addr, cfg.Cache.Redis.DB)
	default:
		c = memcache.New(cfg.Cache.Memory.DefaultTTL)
	}

	// ─── Cola fire-and-forget ───
	q := queue.NewRedis(queue.RedisConfig{
		Addr:       cfg.Queue.Redis.Addr,
		DB:         cfg.Queue.Redis.DB,
		EmailQueue: cfg.Queue.EmailQueue,
		NotifQueue: cfg.Queue.NotificationQueue,
		Buffer:     cfg.Queue.Buffer,
	})
	defer func() { _ = q.Close() }()

	// ─── Core ───
	if err := metrics.Register(nil); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	codec := token.NewCodec(cfg.Auth.SecretKey)
	resolver := auth.NewResolver(users, codec, cfg.Auth.AccessTTL)
	evaluator := rbac.NewEvaluator(roles, c, cfg.Cache.RBACTTL)

	cookieCfg := authctl.CookieConfig{
		Settings: helpers.CookieSettings{
			Domain:   cfg.Auth.Cookie.Domain,
			SameSite: cfg.Auth.Cookie.SameSite,
			Secure:   cfg.Auth.Cookie.Secure,
		},
		AccessTTL:   cfg.Auth.AccessTTL,
		RefreshTTL:  cfg.Auth.RefreshTTL,
		TfaTokenTTL: cfg.Auth.TfaTokenTTL,
	}

	loginSvc := authsvc.NewLoginService(authsvc.LoginDeps{Users: users, Codec: codec})
	registerSvc := authsvc.NewRegisterService(authsvc.RegisterDeps{
		Users: users, Settings: settings, Templates: templates, Codec: codec, Queue: q,
	})
	sessionSvc := authsvc.NewSessionService(authsvc.SessionDeps{
		Users: users, Roles: roles, Codec: codec, RefreshTTL: cfg.Auth.RefreshTTL,
	})
	passwordSvc := authsvc.NewPasswordService(authsvc.PasswordDeps{
		Users: users, Settings: settings, Templates: templates, Codec: codec, Queue: q,
		EmailTokenTTL: cfg.Auth.EmailTokenTTL,
	})
	tfaSvc := authsvc.NewTfaService(authsvc.TfaDeps{
		Users: users, Templates: templates, Codec: codec, Queue: q,
		AppName: cfg.App.Name, TfaTokenTTL: cfg.Auth.TfaTokenTTL,
	})
	googleSvc := socialsvc.New(socialsvc.Deps{
		Users: users, Codec: codec, Queue: q,
		OIDC:     google.New(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.RedirectURL),
		StateTTL: cfg.Auth.TfaTokenTTL,
	})

	handler := router.New(router.Deps{
		Login:              authctl.NewLoginController(loginSvc, cookieCfg),
		Register:           authctl.NewRegisterController(registerSvc, cookieCfg),
		Session:            authctl.NewSessionController(sessionSvc, cookieCfg),
		Password:           authctl.NewPasswordController(passwordSvc),
		Tfa:                authctl.NewTfaController(tfaSvc, cookieCfg),
		Google:             socialctl.NewGoogleController(googleSvc, cookieCfg),
		Resolver:           resolver,
		Evaluator:          evaluator,
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return q.Start(gctx)
	})
	g.Go(func() error {
		log.Info("server listening", logger.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	log.Info("server stopped")
	return nil
}

// validateSettings chequea las filas seed que el core necesita para operar.
func validateSettings(ctx context.Context, settings repository.SettingRepository) error {
	verification, err := settings.Get(ctx, types.SettingUserVerification)
	if err != nil {
		return fmt.Errorf("%s: %w", types.SettingUserVerification, err)
	}
	if verification != types.VerificationNone && verification != types.VerificationEmail {
		return fmt.Errorf("%s: unknown value %q", types.SettingUserVerification, verification)
	}
	if _, err := settings.Get(ctx, types.SettingBaseURL); err != nil {
		return fmt.Errorf("%s: %w", types.SettingBaseURL, err)
	}
	return nil
}

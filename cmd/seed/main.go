// seed inserta las filas mínimas que el core necesita para operar:
// settings de aplicación, roles con sus permisos y templates de email.
// Idempotente: las filas existentes no se tocan.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/gatekeep/internal/config"
	"github.com/dropDatabas3/gatekeep/internal/domain/types"
	"github.com/dropDatabas3/gatekeep/internal/observability/logger"
	"github.com/dropDatabas3/gatekeep/internal/store/pg"
)

var settingRows = []struct{ name, value string }{
	{types.SettingUserVerification, types.VerificationNone},
	{types.SettingBaseURL, "http://localhost"},
	{types.SettingSMTPServer, ""},
	{types.SettingSMTPPort, ""},
	{types.SettingSMTPUsername, ""},
	{types.SettingSMTPPassword, ""},
}

var roleRows = []struct {
	role        string
	permissions []string
}{
	{"system", []string{"*"}},
	{"admin", []string{"templates.*"}},
	{"user", []string{}},
}

var templateRows = []struct{ name, path string }{
	{types.TemplateEmailVerification, "templates/emails/email_verification.html"},
	{types.TemplateResetPassword, "templates/emails/reset_password.html"},
	{types.TemplateTfa, "templates/emails/tfa.html"},
}

func main() {
	var cfgPath string

	root := &cobra.Command{
		Use:   "seed",
		Short: "Inserta settings, roles y templates base",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfgPath)
		},
	}
	root.Flags().StringVar(&cfgPath, "config", "config.yaml", "Path del archivo de configuración")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, ServiceName: "seed"})
	defer func() { _ = logger.Sync() }()
	log := logger.L()

	ctx := context.Background()
	pool, err := pg.Connect(ctx, pg.PoolConfig{DSN: cfg.Storage.DSN})
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()

	for _, s := range settingRows {
		_, err := pool.Exec(ctx,
			`INSERT INTO application_settings (name, value) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
			s.name, s.value)
		if err != nil {
			return fmt.Errorf("seed setting %q: %w", s.name, err)
		}
	}
	log.Info("application settings seeded", logger.Count(len(settingRows)))

	for _, r := range roleRows {
		perms, err := json.Marshal(r.permissions)
		if err != nil {
			return err
		}
		_, err = pool.Exec(ctx,
			`INSERT INTO role_access_control (role, permissions) VALUES ($1, $2) ON CONFLICT (role) DO NOTHING`,
			r.role, perms)
		if err != nil {
			return fmt.Errorf("seed role %q: %w", r.role, err)
		}
	}
	log.Info("roles seeded", logger.Count(len(roleRows)))

	for _, t := range templateRows {
		_, err := pool.Exec(ctx,
			`INSERT INTO templates (name, template_type, path) VALUES ($1, 'email', $2) ON CONFLICT (name) DO NOTHING`,
			t.name, t.path)
		if err != nil {
			return fmt.Errorf("seed template %q: %w", t.name, err)
		}
	}
	log.Info("templates seeded", logger.Count(len(templateRows)))

	return nil
}

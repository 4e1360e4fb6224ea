package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	aierrors "github.com/hrygo/genuirouter/internal/errors"
	"github.com/hrygo/genuirouter/internal/profile"
	"github.com/hrygo/genuirouter/plugin/ai"
	"github.com/hrygo/genuirouter/plugin/ai/handler"
	"github.com/hrygo/genuirouter/plugin/weather"
	"github.com/hrygo/genuirouter/server"
	"github.com/hrygo/genuirouter/server/service/chat"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	rootCmd = &cobra.Command{
		Use:   "genuirouter",
		Short: "Routes free-form messages to capability handlers that reply with text and a UI card.",
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return initConfig()
		},
		SilenceUsage: true,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			instanceProfile, chatService, err := setup()
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return server.NewServer(instanceProfile, chatService).Start(ctx)
		},
	}

	askCmd = &cobra.Command{
		Use:   "ask <message>",
		Short: "Route one message and print the response as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, chatService, err := setup()
			if err != nil {
				return err
			}

			resp := chatService.Ask(cmd.Context(), strings.Join(args, " "))

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			encoder.SetEscapeHTML(false)
			return encoder.Encode(resp)
		},
	}
)

func init() {
	viper.SetDefault("mode", "demo")
	viper.SetDefault("addr", "")
	viper.SetDefault("port", 8081)
	viper.SetDefault("log-level", "info")
	viper.SetDefault("log-format", "text")

	rootCmd.PersistentFlags().String("config", "", "config file (yaml, json or toml)")
	rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().String("mode", "demo", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("log-format", "text", `log format, "text" or "json"`)
	rootCmd.PersistentFlags().String("default-city", "", "city used when a weather question names none")
	serveCmd.Flags().String("addr", "", "address of server")
	serveCmd.Flags().Int("port", 8081, "port of server")

	for _, name := range []string{"config", "env-file", "mode", "log-level", "log-format", "default-city"} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			panic(err)
		}
	}
	for _, name := range []string{"addr", "port"} {
		if err := viper.BindPFlag(name, serveCmd.Flags().Lookup(name)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix(profile.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(serveCmd, askCmd)
}

// initConfig loads the dotenv file and the optional config file.
func initConfig() error {
	if envFile := viper.GetString("env-file"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return errors.Wrapf(err, "failed to load %s", envFile)
		}
	}
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "failed to read config file %s", configFile)
		}
	}
	return nil
}

// setup builds the profile, the logger and the chat pipeline.
func setup() (*profile.Profile, *chat.Service, error) {
	instanceProfile := &profile.Profile{
		Mode:      viper.GetString("mode"),
		Addr:      viper.GetString("addr"),
		Port:      viper.GetInt("port"),
		Version:   version,
		LogLevel:  viper.GetString("log-level"),
		LogFormat: viper.GetString("log-format"),
	}
	instanceProfile.FromViper(viper.GetViper())
	if city := viper.GetString("default-city"); city != "" {
		instanceProfile.WeatherDefaultCity = city
	}
	if err := instanceProfile.Validate(); err != nil {
		return nil, nil, aierrors.Wrap(err, aierrors.ErrCodeConfiguration, "invalid profile")
	}

	slog.SetDefault(newLogger(instanceProfile))

	deps := handler.Deps{
		CompletionTimeout: instanceProfile.CompletionTimeout,
		WeatherTimeout:    instanceProfile.WeatherTimeout,
		DefaultCity:       instanceProfile.WeatherDefaultCity,
	}

	aiConfig := ai.NewConfigFromProfile(instanceProfile)
	if err := aiConfig.Validate(); err != nil {
		return nil, nil, aierrors.Wrap(err, aierrors.ErrCodeConfiguration, "invalid AI config")
	}
	if aiConfig.Enabled {
		completion, err := ai.NewCompletionService(&aiConfig.LLM)
		if err != nil {
			return nil, nil, aierrors.Wrap(err, aierrors.ErrCodeConfiguration, "failed to create completion service")
		}
		deps.Completion = completion
	} else {
		slog.Warn("no completion provider configured; classification uses rules only and planning handlers degrade")
	}

	if instanceProfile.IsWeatherEnabled() {
		lookup, err := weather.NewService(&weather.Config{
			APIKey:  instanceProfile.WeatherAPIKey,
			BaseURL: instanceProfile.WeatherBaseURL,
			Timeout: instanceProfile.WeatherTimeout,
		})
		if err != nil {
			return nil, nil, aierrors.Wrap(err, aierrors.ErrCodeConfiguration, "failed to create weather service")
		}
		deps.Weather = weather.NewCachedService(lookup, 0, instanceProfile.WeatherCacheTTL)
	} else {
		slog.Warn("no weather provider configured; weather replies will report data as unavailable")
	}

	chatService, err := chat.Build(handler.DefaultCatalog(), deps, chat.Options{
		ClassificationTimeout: instanceProfile.ClassificationTimeout,
	})
	if err != nil {
		return nil, nil, err
	}

	slog.Info("pipeline ready",
		slog.String("mode", instanceProfile.Mode),
		slog.Bool("completion", deps.Completion != nil),
		slog.Bool("weather", deps.Weather != nil))
	return instanceProfile, chatService, nil
}

func newLogger(p *profile.Profile) *slog.Logger {
	opts := &slog.HandlerOptions{Level: p.SlogLevel(), AddSource: p.IsDev() && p.SlogLevel() == slog.LevelDebug}
	if p.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if aierrors.IsCode(err, aierrors.ErrCodeConfiguration) {
			fmt.Fprintln(os.Stderr, "configuration error:", err)
			os.Exit(2)
		}
		os.Exit(1)
	}
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/benvon/selfspeak/internal/config"
)

// NewConfigCmd creates the config command.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadDatabase()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			out, err := yaml.Marshal(redactedSettings(cfg))
			if err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	})
	return cmd
}

// redactedSettings keys the masked configuration by its environment names.
func redactedSettings(cfg *config.Config) map[string]any {
	r := cfg.Redacted()
	return map[string]any{
		"database_url":                r.DatabaseURL,
		"auto_migrate":                r.AutoMigrate,
		"server_port":                 r.ServerPort,
		"frontend_url":                r.FrontendURL,
		"log_format":                  r.LogFormat,
		"request_timeout":             r.RequestTimeout.String(),
		"openai_api_key":              r.OpenAIKey,
		"ai_model":                    r.AIModel,
		"ai_base_url":                 r.AIBaseURL,
		"ai_max_retries":              r.AIMaxRetries,
		"ai_timeout":                  r.AITimeout.String(),
		"weekly_analysis_limit":       r.WeeklyAnalysisLimit,
		"supabase_jwt_secret":         r.JWTSecret,
		"jwks_url":                    r.JWKSURL,
		"redis_url":                   r.RedisURL,
		"rate_limit":                  r.RateLimit,
		"rabbitmq_url":                r.RabbitMQURL,
		"rabbitmq_exchange":           r.RabbitMQExchange,
		"rabbitmq_warmer_queue":       r.RabbitMQWarmerQueue,
		"rabbitmq_prefetch":           r.RabbitMQPrefetch,
		"rabbitmq_dead_letter_ttl":    r.RabbitMQDeadLetterTTL.String(),
		"otel_enabled":                r.OTELEnabled,
		"otel_exporter_otlp_endpoint": r.OTELEndpoint,
		"metrics_enabled":             r.MetricsEnabled,
	}
}

package cli

import (
	"strings"

	"azure-prompt/internal/config"
	"azure-prompt/internal/llm"
	"azure-prompt/internal/logger"
	"azure-prompt/internal/prompt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type chatOptions struct {
	InputFile   string
	System      string
	Context     string
	Deployment  string
	MaxTokens   int
	Temperature float64
	TopP        float64
}

func addChatFlags(cmd *cobra.Command, opts *chatOptions) {
	cmd.Flags().StringVarP(&opts.InputFile, "file", "F", "", "prompt file, use -F- for stdin")
	cmd.Flags().StringVar(&opts.System, "system", "", "override system prompt")
	cmd.Flags().StringVar(&opts.Context, "context", "", "global context appended to the system prompt")
	cmd.Flags().StringVar(&opts.Deployment, "deployment", "", "override deployment name")
	cmd.Flags().IntVar(&opts.MaxTokens, "max-tokens", 0, "override max tokens")
	cmd.Flags().Float64Var(&opts.Temperature, "temperature", 0, "sampling temperature (0-2)")
	cmd.Flags().Float64Var(&opts.TopP, "top-p", 0, "nucleus sampling probability (0-1]")
}

func runChat(cmd *cobra.Command, v *viper.Viper, opts *chatOptions, args []string) error {
	text, err := readInput(args, opts.InputFile, cmd.InOrStdin())
	if err != nil {
		return usageError{err: err}
	}
	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}
	if err := applyChatOverrides(cmd, &cfg, opts); err != nil {
		return err
	}
	return sendPrompt(cmd, cfg, text)
}

func newPingCmd(v *viper.Viper) *cobra.Command {
	var deployment string
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Test connectivity to the configured deployment",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			cfg.Azure.Deployment = firstNonEmpty(deployment, cfg.Azure.Deployment)
			cfg.Chat.System = ""
			cfg.Chat.Context = ""
			return sendPrompt(cmd, cfg, "ping")
		},
	}
	cmd.Flags().StringVar(&deployment, "deployment", "", "override deployment name")
	return cmd
}

func sendPrompt(cmd *cobra.Command, cfg config.Config, text string) error {
	if cfg.Azure.Endpoint == "" {
		return usageErrorf("azure openai endpoint is not set (AZURE_OPENAI_ENDPOINT)")
	}
	if cfg.Azure.IsVideoJobsEndpoint() {
		return usageErrorf("AZURE_OPENAI_ENDPOINT points to the video jobs API; set the resource endpoint to chat or use the video command")
	}

	log := logger.New(cfg.Log.Level, cmd.ErrOrStderr())
	client, err := llm.NewAzureClient(llm.AzureConfig{
		Endpoint:   cfg.Azure.Endpoint,
		APIKey:     cfg.Azure.APIKey,
		APIVersion: cfg.Azure.APIVersion,
		Deployment: cfg.Azure.Deployment,
	})
	if err != nil {
		return err
	}

	runner := prompt.NewRunner(client, cmd.OutOrStdout(), &log)
	return runner.Run(cmd.Context(), prompt.Options{
		Prompt:      text,
		System:      cfg.Chat.System,
		Context:     cfg.Chat.Context,
		Deployment:  cfg.Azure.Deployment,
		MaxTokens:   cfg.Chat.MaxTokens,
		Temperature: cfg.Chat.Temperature,
		TopP:        cfg.Chat.TopP,
	})
}

// applyChatOverrides lets explicitly set flags win over file and
// environment values, then re-validates.
func applyChatOverrides(cmd *cobra.Command, cfg *config.Config, opts *chatOptions) error {
	flags := cmd.Flags()
	if flags.Changed("system") {
		cfg.Chat.System = opts.System
	}
	if flags.Changed("context") {
		cfg.Chat.Context = opts.Context
	}
	cfg.Azure.Deployment = firstNonEmpty(opts.Deployment, cfg.Azure.Deployment)
	if flags.Changed("max-tokens") {
		cfg.Chat.MaxTokens = opts.MaxTokens
	}
	if flags.Changed("temperature") {
		temperature := opts.Temperature
		cfg.Chat.Temperature = &temperature
	}
	if flags.Changed("top-p") {
		topP := opts.TopP
		cfg.Chat.TopP = &topP
	}
	if err := cfg.Validate(); err != nil {
		return usageError{err: err}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

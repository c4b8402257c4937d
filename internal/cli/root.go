package cli

import (
	"errors"
	"fmt"

	"azure-prompt/internal/config"
	"azure-prompt/internal/version"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type Options struct {
	Config string
}

func NewRootCmd() *cobra.Command {
	opts := &Options{}
	chatOpts := &chatOptions{}
	v := viper.New()

	root := &cobra.Command{
		Use:           "azure-prompt [prompt...]",
		Short:         "Send one prompt to an Azure OpenAI deployment and print the answer",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(v, opts.Config)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, v, chatOpts, args)
		},
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{err: err}
	})

	root.PersistentFlags().StringVar(
		&opts.Config,
		"config",
		"",
		"config file (default: ./azure-prompt.yaml)",
	)
	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	_ = v.BindPFlag("log.level", root.PersistentFlags().Lookup("log-level"))

	addChatFlags(root, chatOpts)

	root.AddCommand(newPingCmd(v))
	root.AddCommand(newVideoCmd(v))
	root.AddCommand(newVersionCmd())
	return root
}

func initConfig(v *viper.Viper, configFile string) error {
	config.Bind(v)
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("azure-prompt")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/azure-prompt")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return usageError{err: fmt.Errorf("read config: %w", err)}
	}
	return nil
}

func loadConfig(v *viper.Viper) (config.Config, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return cfg, usageError{err: err}
	}
	return cfg, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build version",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.Version)
			return err
		},
	}
}

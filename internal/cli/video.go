package cli

import (
	"fmt"
	"os"
	"time"

	"azure-prompt/internal/logger"
	"azure-prompt/internal/video"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type videoOptions struct {
	Prompt     string
	Width      int
	Height     int
	Seconds    int
	Output     string
	Deployment string
	APIVersion string
	Timeout    time.Duration
}

func newVideoCmd(v *viper.Viper) *cobra.Command {
	opts := &videoOptions{}
	cmd := &cobra.Command{
		Use:   "video",
		Short: "Generate a single video from a prompt",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVideo(cmd, v, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Prompt, "prompt", "", "description of the video")
	cmd.Flags().IntVar(&opts.Width, "width", 1080, "width in pixels (64-1080)")
	cmd.Flags().IntVar(&opts.Height, "height", 1080, "height in pixels (64-1080)")
	cmd.Flags().IntVar(&opts.Seconds, "seconds", 5, "duration in seconds (1-60)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "generated_video.mp4", "output file")
	cmd.Flags().StringVar(&opts.Deployment, "deployment", "", "override video deployment name")
	cmd.Flags().StringVar(&opts.APIVersion, "api-version", "", "override video api version")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 10*time.Minute, "how long to wait for the job")
	return cmd
}

func runVideo(cmd *cobra.Command, v *viper.Viper, opts *videoOptions) error {
	req := video.Request{
		Prompt:  opts.Prompt,
		Width:   opts.Width,
		Height:  opts.Height,
		Seconds: opts.Seconds,
	}
	if err := req.Validate(); err != nil {
		return usageError{err: err}
	}
	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}
	if cfg.Azure.Endpoint == "" {
		return usageErrorf("azure openai endpoint is not set (AZURE_OPENAI_ENDPOINT)")
	}

	log := logger.New(cfg.Log.Level, cmd.ErrOrStderr())
	client, err := video.NewClient(video.Config{
		Endpoint:   cfg.Azure.Endpoint,
		APIKey:     cfg.Azure.APIKey,
		APIVersion: firstNonEmpty(opts.APIVersion, cfg.Video.APIVersion),
		Deployment: firstNonEmpty(opts.Deployment, cfg.Video.Deployment),
		Timeout:    opts.Timeout,
		Logger:     &log,
	})
	if err != nil {
		return err
	}

	log.Info().Str("deployment", firstNonEmpty(opts.Deployment, cfg.Video.Deployment)).Msg("submitting video job")
	result, err := client.Generate(cmd.Context(), req)
	if err != nil {
		return err
	}
	if err := os.WriteFile(opts.Output, result.Video, 0o644); err != nil {
		return fmt.Errorf("write video: %w", err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "saved %d bytes to %s (generation %s)\n", len(result.Video), opts.Output, result.GenerationID)
	return err
}

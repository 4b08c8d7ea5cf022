package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"ytgram/internal/bot"
	"ytgram/internal/config"
	"ytgram/internal/logging"
	"ytgram/internal/store"
	"ytgram/internal/telegram"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	cfg     *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "ytgram",
	Short: "ytgram bridges YouTrack and Telegram",
	Long: `A Telegram bot that links chats to YouTrack instances: guided setup,
issue listing and creation from chat, and near-real-time delivery of
YouTrack notifications (new issues, comments) back into the chat.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(verbose)

		var err error
		cfg, err = config.Load()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Msg("ytgram starting")
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer st.Close()

		api := telegram.NewClient(cfg.TelegramServer, cfg.TelegramToken)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.Info().Msg("Bot entering update loop")
		return bot.New(cfg, api, st).Run(ctx)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.SilenceUsage = true
}

// Package bot wires the Telegram dispatch loop to the conversation state
// machine and the per-chat notification pollers.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"ytgram/internal/config"
	"ytgram/internal/poller"
	"ytgram/internal/session"
	"ytgram/internal/store"
	"ytgram/internal/telegram"
	"ytgram/internal/youtrack"
)

// ChatAPI is the outbound Telegram surface the bot depends on.
// *telegram.Client is the production implementation.
type ChatAPI interface {
	GetUpdates(ctx context.Context, offset int64) ([]telegram.Update, error)
	SendMessage(chatID int64, text string, parseMode string) error
	SendMessageWithKeyboard(chatID int64, text string, keyboard [][]telegram.InlineKeyboardButton) error
	EditMessageText(chatID int64, messageID int64, text string, parseMode string) error
	AnswerCallbackQuery(callbackID string, text string) error
	SetMyCommands(commands []telegram.BotCommand) error
}

// Bot is the application core: it owns the session registry, the poller
// manager and the per-chat YouTrack client cache.
type Bot struct {
	cfg      *config.AppConfig
	api      ChatAPI
	store    *store.Store
	sessions *session.Registry
	pollers  *poller.Manager

	// newClient constructs a tracker client for a validated credential.
	// Injectable for tests; youtrack.NewClient in production.
	newClient func(youtrack.Config) youtrack.Client

	// runCtx is the lifetime of Run; pollers started mid-conversation
	// inherit it so shutdown cancels them all.
	runCtx context.Context

	clientsMu sync.Mutex
	clients   map[int64]youtrack.Client
}

// New assembles the bot around its collaborators.
func New(cfg *config.AppConfig, api ChatAPI, st *store.Store) *Bot {
	b := &Bot{
		cfg:       cfg,
		api:       api,
		store:     st,
		sessions:  session.NewRegistry(),
		newClient: youtrack.NewClient,
		runCtx:    context.Background(),
		clients:   make(map[int64]youtrack.Client),
	}
	b.pollers = poller.NewManager(cfg.PollInterval, b.sessions, b.fetchFeed, b.sendNotification)
	return b
}

// client returns the chat's cached YouTrack client, constructing one from
// the session credentials on first use. The cache is invalidated on /reset.
func (b *Bot) client(chatID int64) (youtrack.Client, error) {
	b.clientsMu.Lock()
	if c, ok := b.clients[chatID]; ok {
		b.clientsMu.Unlock()
		return c, nil
	}
	b.clientsMu.Unlock()

	var creds *session.Credentials
	b.sessions.With(chatID, func(s *session.Session) {
		creds = s.Credentials
	})
	if creds == nil {
		return nil, fmt.Errorf("chat %d has no credentials", chatID)
	}

	c := b.newClient(youtrack.Config{BaseURL: creds.URL, Token: creds.Token})
	b.clientsMu.Lock()
	b.clients[chatID] = c
	b.clientsMu.Unlock()
	return c, nil
}

// cacheClient installs a freshly validated client for a chat.
func (b *Bot) cacheClient(chatID int64, c youtrack.Client) {
	b.clientsMu.Lock()
	b.clients[chatID] = c
	b.clientsMu.Unlock()
}

// invalidateClient drops the chat's cached client.
func (b *Bot) invalidateClient(chatID int64) {
	b.clientsMu.Lock()
	delete(b.clients, chatID)
	b.clientsMu.Unlock()
}

func (b *Bot) fetchFeed(chatID int64) ([]youtrack.RawFeedRecord, error) {
	c, err := b.client(chatID)
	if err != nil {
		return nil, err
	}
	return c.FetchFeed()
}

func (b *Bot) sendNotification(chatID int64, text string) error {
	return b.api.SendMessage(chatID, text, "Markdown")
}

// Run restores persisted linkages, registers the command menu and drives
// the update dispatch loop until ctx is canceled.
func (b *Bot) Run(ctx context.Context) error {
	b.runCtx = ctx

	if err := b.restore(ctx); err != nil {
		return err
	}

	if err := b.api.SetMyCommands(config.Commands); err != nil {
		log.Warn().Err(err).Msg("Failed to register bot commands")
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return b.dispatchLoop(groupCtx)
	})

	err := group.Wait()
	b.pollers.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// restore turns every persisted linkage back into a configured session and
// restarts its poller. Watermarks reset to "now": events from the downtime
// window are not replayed.
func (b *Bot) restore(ctx context.Context) error {
	users, err := b.store.All()
	if err != nil {
		return fmt.Errorf("failed to restore persisted chats: %w", err)
	}

	for _, u := range users {
		chatID := u.ChatID
		b.sessions.With(chatID, func(s *session.Session) {
			s.State = session.StateConfigured
			s.Credentials = &session.Credentials{URL: u.URL, Token: u.Token}
		})
		b.pollers.Start(ctx, chatID)
	}

	log.Info().Int("chats", len(users)).Msg("Restored persisted chats")
	return nil
}

// dispatchLoop long-polls Telegram and routes each update. Updates are
// handled sequentially; per-chat session locks serialize against poller
// ticks.
func (b *Bot) dispatchLoop(ctx context.Context) error {
	var offset int64
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		updates, err := b.api.GetUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Error().Err(err).Msg("Failed to fetch Telegram updates")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(2 * time.Second):
			}
			continue
		}

		for _, update := range updates {
			offset = update.UpdateID + 1
			b.handleUpdate(update)
		}
	}
}

func (b *Bot) handleUpdate(update telegram.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(update.CallbackQuery)
	case update.Message != nil:
		chatID := update.Message.Chat.ID
		text := update.Message.Text
		if strings.HasPrefix(text, "/") {
			b.handleCommand(chatID, text)
		} else {
			b.handleMessage(chatID, text)
		}
	}
}

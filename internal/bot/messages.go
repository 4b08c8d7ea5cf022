package bot

import (
	"strings"

	"github.com/rs/zerolog/log"

	"ytgram/internal/session"
	"ytgram/internal/store"
	"ytgram/internal/youtrack"
)

// handleMessage routes free text by conversation state. Text arriving in a
// resting state is ignored.
func (b *Bot) handleMessage(chatID int64, text string) {
	switch b.sessions.State(chatID) {
	case session.StateAwaitingURL:
		b.handleAwaitingURL(chatID, text)
	case session.StateAwaitingToken:
		b.handleAwaitingToken(chatID, text)
	case session.StateAwaitingTitle:
		b.handleAwaitingTitle(chatID, text)
	case session.StateAwaitingDesc:
		b.submitDraft(chatID, strings.TrimSpace(text))
	}
}

func (b *Bot) handleAwaitingURL(chatID int64, text string) {
	b.sessions.With(chatID, func(s *session.Session) {
		s.PendingURL = youtrack.NormalizeBaseURL(text)
		s.State = session.StateAwaitingToken
	})
	b.reply(chatID, "Perfect! Now insert your YouTrack Token:")
}

func (b *Bot) handleAwaitingToken(chatID int64, token string) {
	var url string
	b.sessions.With(chatID, func(s *session.Session) {
		url = s.PendingURL
	})

	abort := func(message string) {
		b.sessions.With(chatID, func(s *session.Session) {
			s.State = session.StateIdle
			s.PendingURL = ""
		})
		b.reply(chatID, message)
	}

	client := b.newClient(youtrack.Config{BaseURL: url, Token: token})
	valid, err := client.ValidateToken()
	if err != nil {
		log.Error().Err(err).Int64("chat", chatID).Msg("Token validation failed upstream")
	}
	if err != nil || !valid {
		abort("❌ Invalid YouTrack URL or Token. Please try /setup again.")
		return
	}

	if err := b.store.Put(store.User{ChatID: chatID, URL: url, Token: token}); err != nil {
		log.Error().Err(err).Int64("chat", chatID).Msg("Failed to persist credentials")
		abort("❌ There was an error saving your configuration. Please try /setup again.")
		return
	}

	b.sessions.With(chatID, func(s *session.Session) {
		s.State = session.StateConfigured
		s.Credentials = &session.Credentials{URL: url, Token: token}
		s.PendingURL = ""
	})
	b.cacheClient(chatID, client)
	b.pollers.Start(b.runCtx, chatID)

	b.reply(chatID, "✅ Configuration has been completed successfully!")
}

func (b *Bot) handleAwaitingTitle(chatID int64, text string) {
	title := strings.TrimSpace(text)
	if title == "" {
		b.reply(chatID, "❌ Title cannot be empty. Please try again:")
		return
	}

	b.sessions.With(chatID, func(s *session.Session) {
		if s.Draft == nil {
			s.Draft = &session.Draft{}
		}
		s.Draft.Summary = title
		s.State = session.StateAwaitingDesc
	})
	b.reply(chatID, "📄 Please insert the Issue description (or send /skip to create without description):")
}

// submitDraft finishes the creation flow: the /skip path passes an empty
// description. Success or failure, the chat returns to configured and the
// draft is discarded; a failed create is never retried automatically.
func (b *Bot) submitDraft(chatID int64, description string) {
	var draft *session.Draft
	b.sessions.With(chatID, func(s *session.Session) {
		draft = s.Draft
		s.State = session.StateConfigured
		s.Draft = nil
	})

	client, err := b.client(chatID)
	if draft == nil || draft.ProjectID == "" || draft.Summary == "" || err != nil {
		b.reply(chatID, "❌ There was an error while creating a new Issue, please try again.")
		return
	}

	issue := youtrack.IssueDraft{
		Project:     youtrack.ProjectRef{ID: draft.ProjectID},
		Summary:     draft.Summary,
		Description: description,
	}

	if err := client.CreateIssue(issue); err != nil {
		log.Error().Err(err).Int64("chat", chatID).Str("project", draft.ProjectID).Msg("Failed to create issue")
		b.reply(chatID, "❌ There was an error while creating a new Issue, please try again.")
		return
	}

	if description == "" {
		b.reply(chatID, "✅ Issue created without description!")
	} else {
		b.reply(chatID, "✅ Issue created successfully!")
	}
}

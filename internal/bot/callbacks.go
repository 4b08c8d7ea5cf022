package bot

import (
	"strings"

	"github.com/rs/zerolog/log"

	"ytgram/internal/session"
	"ytgram/internal/telegram"
)

func (b *Bot) handleCallback(query *telegram.CallbackQuery) {
	if query.Message == nil {
		return
	}
	chatID := query.Message.Chat.ID
	messageID := query.Message.MessageID
	data := query.Data

	switch {
	case strings.HasPrefix(data, "project_") && b.sessions.State(chatID) == session.StateAwaitingProjectSelection:
		b.handleProjectSelection(query, chatID, messageID, strings.TrimPrefix(data, "project_"))
	case data == "cancel_create":
		b.handleCancelCreate(query, chatID, messageID)
	default:
		// Stale or unknown button: just stop the client-side spinner.
		if err := b.api.AnswerCallbackQuery(query.ID, ""); err != nil {
			log.Debug().Err(err).Int64("chat", chatID).Msg("Failed to answer callback query")
		}
	}
}

func (b *Bot) handleProjectSelection(query *telegram.CallbackQuery, chatID, messageID int64, projectID string) {
	b.sessions.With(chatID, func(s *session.Session) {
		if s.Draft == nil {
			s.Draft = &session.Draft{}
		}
		s.Draft.ProjectID = projectID
	})

	// Resolve the display name; fall back to echoing the raw id when the
	// project is no longer in the fetched list.
	projectName := projectID
	if client, err := b.client(chatID); err == nil {
		if projects, err := client.ListProjects(); err == nil {
			for _, p := range projects {
				if p.ID == projectID {
					projectName = p.Name
					break
				}
			}
		}
	}

	if err := b.api.AnswerCallbackQuery(query.ID, "✅ Selected: "+projectName); err != nil {
		log.Debug().Err(err).Int64("chat", chatID).Msg("Failed to answer callback query")
	}
	if err := b.api.EditMessageText(chatID, messageID, "✅ Project selected: **"+projectName+"**", "Markdown"); err != nil {
		log.Debug().Err(err).Int64("chat", chatID).Msg("Failed to edit selection message")
	}

	b.sessions.With(chatID, func(s *session.Session) {
		s.State = session.StateAwaitingTitle
	})
	b.reply(chatID, "📝 Please insert the Issue title:")
}

func (b *Bot) handleCancelCreate(query *telegram.CallbackQuery, chatID, messageID int64) {
	if err := b.api.AnswerCallbackQuery(query.ID, ""); err != nil {
		log.Debug().Err(err).Int64("chat", chatID).Msg("Failed to answer callback query")
	}
	if err := b.api.EditMessageText(chatID, messageID, "❌ Operation cancelled.", ""); err != nil {
		log.Debug().Err(err).Int64("chat", chatID).Msg("Failed to edit cancelled message")
	}

	b.sessions.With(chatID, func(s *session.Session) {
		s.Draft = nil
		// A stale cancel button from before a /reset must not resurrect
		// the configured state.
		if s.Credentials != nil {
			s.State = session.StateConfigured
		} else {
			s.State = session.StateIdle
		}
	})
}

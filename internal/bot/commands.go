package bot

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"ytgram/internal/session"
	"ytgram/internal/telegram"
)

const notConfiguredMsg = "❌ Your YouTrack connection isn't configured yet. To configure a connection use /setup"

func (b *Bot) handleCommand(chatID int64, text string) {
	command := strings.Fields(text)[0]
	log.Debug().Int64("chat", chatID).Str("command", command).Msg("Handling command")

	switch command {
	case "/start":
		b.handleStart(chatID)
	case "/setup":
		b.handleSetup(chatID)
	case "/reset":
		b.handleReset(chatID)
	case "/list":
		b.handleList(chatID)
	case "/create":
		b.handleCreate(chatID)
	case "/skip":
		b.handleSkip(chatID)
	case "/help":
		b.handleHelp(chatID)
	default:
		b.reply(chatID, "Unknown command, use /help to see available commands.")
	}
}

// reply sends a plain message, logging rather than propagating transport
// failures: a chat error must never abort the dispatch loop.
func (b *Bot) reply(chatID int64, text string) {
	if err := b.api.SendMessage(chatID, text, ""); err != nil {
		log.Error().Err(err).Int64("chat", chatID).Msg("Failed to send reply")
	}
}

func (b *Bot) replyMarkdown(chatID int64, text string) {
	if err := b.api.SendMessage(chatID, text, "Markdown"); err != nil {
		log.Error().Err(err).Int64("chat", chatID).Msg("Failed to send reply")
	}
}

func (b *Bot) handleStart(chatID int64) {
	b.reply(chatID,
		"👋 Welcome to the YouTrack Telegram Bot!\n\n"+
			"I'm here to help you interact with YouTrack from Telegram.\n"+
			"To get started, type /setup to configure your YouTrack URL and API token.\n\n"+
			"If you need help at any time, use /help to see the available commands.")
}

func (b *Bot) handleSetup(chatID int64) {
	if b.sessions.State(chatID) == session.StateConfigured {
		b.reply(chatID, "❌ Your YouTrack connection is already configured. To remove all the configurations use /reset")
		return
	}
	b.sessions.With(chatID, func(s *session.Session) {
		s.State = session.StateAwaitingURL
		// /setup may interrupt an unfinished creation flow or an earlier
		// setup attempt; leaving the draft behind would outlive its flow.
		s.Draft = nil
		s.PendingURL = ""
	})
	b.reply(chatID, "Please insert YouTrack instance URL (e.g. https://instance.youtrack.cloud):")
}

func (b *Bot) handleReset(chatID int64) {
	if b.sessions.State(chatID) != session.StateConfigured {
		b.reply(chatID, notConfiguredMsg)
		return
	}

	if err := b.store.Delete(chatID); err != nil {
		log.Error().Err(err).Int64("chat", chatID).Msg("Failed to delete persisted credentials")
		b.reply(chatID, "❌ There was an error resetting your configuration. Please try again.")
		return
	}

	b.sessions.With(chatID, func(s *session.Session) {
		s.State = session.StateIdle
		s.Credentials = nil
		s.PendingURL = ""
		s.Draft = nil
	})
	b.invalidateClient(chatID)
	b.pollers.Stop(chatID)

	b.reply(chatID, "✅ Configuration reset successfully!")
}

func (b *Bot) handleList(chatID int64) {
	if b.sessions.State(chatID) != session.StateConfigured {
		b.reply(chatID, notConfiguredMsg)
		return
	}

	client, err := b.client(chatID)
	if err != nil {
		b.reply(chatID, notConfiguredMsg)
		return
	}

	projects, err := client.ListProjects()
	if err != nil {
		log.Error().Err(err).Int64("chat", chatID).Msg("Failed to list projects")
		b.reply(chatID, "❌ No projects found or error fetching projects.")
		return
	}

	var msg strings.Builder
	msg.WriteString("📂 Your projects:\n\n")
	for _, p := range projects {
		fmt.Fprintf(&msg, "• %s — %s\n", p.ID, p.Name)
	}
	b.reply(chatID, msg.String())
}

func (b *Bot) handleCreate(chatID int64) {
	if b.sessions.State(chatID) != session.StateConfigured {
		b.reply(chatID, notConfiguredMsg)
		return
	}

	client, err := b.client(chatID)
	if err != nil {
		b.reply(chatID, notConfiguredMsg)
		return
	}

	projects, err := client.ListProjects()
	if err != nil {
		log.Error().Err(err).Int64("chat", chatID).Msg("Failed to fetch projects for creation")
		b.reply(chatID, "❌ No projects found or error fetching projects.")
		return
	}
	if len(projects) == 0 {
		b.reply(chatID, "❌ No projects found or error fetching projects.")
		return
	}

	// Two project buttons per row, cancel on its own final row.
	var keyboard [][]telegram.InlineKeyboardButton
	for i := 0; i < len(projects); i += 2 {
		row := []telegram.InlineKeyboardButton{{
			Text:         "📁 " + projects[i].Name,
			CallbackData: "project_" + projects[i].ID,
		}}
		if i+1 < len(projects) {
			row = append(row, telegram.InlineKeyboardButton{
				Text:         "📁 " + projects[i+1].Name,
				CallbackData: "project_" + projects[i+1].ID,
			})
		}
		keyboard = append(keyboard, row)
	}
	keyboard = append(keyboard, []telegram.InlineKeyboardButton{{
		Text:         "❌ Cancel",
		CallbackData: "cancel_create",
	}})

	if err := b.api.SendMessageWithKeyboard(chatID, "🗂️ Select a project for the new issue:", keyboard); err != nil {
		log.Error().Err(err).Int64("chat", chatID).Msg("Failed to send project keyboard")
		return
	}

	b.sessions.With(chatID, func(s *session.Session) {
		s.State = session.StateAwaitingProjectSelection
		s.Draft = &session.Draft{}
	})
}

func (b *Bot) handleSkip(chatID int64) {
	if b.sessions.State(chatID) != session.StateAwaitingDesc {
		b.reply(chatID, "❌ This command can only be used when adding a description.")
		return
	}
	b.submitDraft(chatID, "")
}

func (b *Bot) handleHelp(chatID int64) {
	configured := b.sessions.State(chatID) == session.StateConfigured

	var msg strings.Builder
	msg.WriteString("📚 *YouTrack Telegram Bot - Help*\n\n")

	if !configured {
		msg.WriteString("🔴 *You are not configured yet*\n\n")
		msg.WriteString("*Available Commands:*\n\n")
		msg.WriteString("🚀 /start - Welcome message and introduction\n")
		msg.WriteString("⚙️ /setup - Configure your YouTrack connection\n")
		msg.WriteString("❓ /help - Show this help message\n\n")
		msg.WriteString("*Getting Started:*\n")
		msg.WriteString("1. Use /setup to begin configuration\n")
		msg.WriteString("2. Enter your YouTrack instance URL\n")
		msg.WriteString("3. Enter your YouTrack permanent token\n")
		msg.WriteString("4. Start receiving notifications!\n")
	} else {
		msg.WriteString("🟢 *You are configured and receiving notifications*\n\n")
		msg.WriteString("*Available Commands:*\n\n")
		msg.WriteString("📋 /list - View all your YouTrack projects\n")
		msg.WriteString("➕ /create - Create a new issue\n")
		msg.WriteString("⏭️ /skip - Skip description when creating an issue\n")
		msg.WriteString("🔄 /reset - Remove your configuration\n")
		msg.WriteString("❓ /help - Show this help message\n\n")
		msg.WriteString("*Creating Issues:*\n")
		msg.WriteString("1. Use /create to start\n")
		msg.WriteString("2. Select a project from the list\n")
		msg.WriteString("3. Enter the issue summary/title\n")
		msg.WriteString("4. Enter description or use /skip\n\n")
		msg.WriteString("*Notifications:*\n")
		msg.WriteString("You'll automatically receive notifications for:\n")
		msg.WriteString("💬 New comments\n")
		msg.WriteString("🆕 New issues\n")
	}

	msg.WriteString("\n*Need More Help?*\n")
	msg.WriteString("Contact your administrator or check the documentation.")

	b.replyMarkdown(chatID, msg.String())
}

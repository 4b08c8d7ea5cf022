package feed

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var categoryEmoji = map[Category]string{
	CategoryComment: "💬",
	CategoryIssue:   "🆕",
}

var markdownSpecial = regexp.MustCompile("[_*\\[\\]()~`>#+\\-=|{}.!]")

func escapeMarkdown(text string) string {
	return markdownSpecial.ReplaceAllString(text, `\$0`)
}

// Format renders a notification as a Telegram Markdown message.
func Format(n Notification) string {
	emoji, ok := categoryEmoji[n.Category]
	if !ok {
		emoji = "📌"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s *%s*\n\n", emoji, n.EventType)
	fmt.Fprintf(&b, "📋 Project: %s\n", n.Project.Name)
	fmt.Fprintf(&b, "🎫 Issue: `%s`\n", n.Summary)

	if n.Category == CategoryIssue && n.Description != "" {
		fmt.Fprintf(&b, "📝 Description: %s\n\n", n.Description)
	}
	if n.Comment != "" {
		fmt.Fprintf(&b, "💬 Comment:\n_%s_\n", strings.TrimSpace(escapeMarkdown(n.Comment)))
	}
	if n.State != "" {
		fmt.Fprintf(&b, "📊 State: %s\n", n.State)
	}
	if n.Priority != "" {
		fmt.Fprintf(&b, "⚠️ Priority: %s\n", n.Priority)
	}
	if n.Assignee != "" {
		fmt.Fprintf(&b, "👤 Assignee: %s\n", n.Assignee)
	}

	fmt.Fprintf(&b, "\n🕐 %s UTC", time.UnixMilli(n.Timestamp).UTC().Format("2006-01-02T15:04:05.000Z07:00"))

	return b.String()
}

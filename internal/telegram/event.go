package telegram

import (
	"strings"

	"github.com/go-telegram/bot/models"

	"valley_bot/internal/domain"
)

// Event is the routing view of an inbound update.
type Event struct {
	UpdateType   string
	ChatID       int64
	ChatKind     string
	ChatTitle    string
	UserID       int64
	Username     string
	Text         string
	Command      string
	CommandArgs  string
	CallbackID   string
	CallbackData string
}

// Owner maps the event's chat to the owner of its preference and balance.
func (e Event) Owner() domain.Owner {
	return domain.OwnerForChat(e.ChatKind, e.ChatID, e.UserID)
}

// DisplayName is the group title for groups and the username otherwise.
func (e Event) DisplayName() string {
	if e.Owner().IsGroup() {
		return e.ChatTitle
	}
	return e.Username
}

// IsCallback reports whether the event came from an inline button.
func (e Event) IsCallback() bool {
	return e.CallbackID != ""
}

func extractEvent(update *models.Update) Event {
	switch {
	case update.Message != nil:
		return messageEvent(update.Message, "message")
	case update.EditedMessage != nil:
		return messageEvent(update.EditedMessage, "edited_message")
	case update.CallbackQuery != nil:
		query := update.CallbackQuery
		ev := Event{
			UpdateType:   "callback_query",
			UserID:       query.From.ID,
			Username:     userName(&query.From),
			CallbackID:   query.ID,
			CallbackData: strings.TrimSpace(query.Data),
			Text:         strings.TrimSpace(query.Data),
		}
		if chat := messageChat(query.Message); chat != nil {
			applyChat(&ev, chat)
		}
		return ev
	case update.MyChatMember != nil:
		ev := Event{UpdateType: "my_chat_member", UserID: update.MyChatMember.From.ID}
		applyChat(&ev, &update.MyChatMember.Chat)
		return ev
	case update.ChatMember != nil:
		ev := Event{UpdateType: "chat_member", UserID: update.ChatMember.From.ID}
		applyChat(&ev, &update.ChatMember.Chat)
		return ev
	default:
		return Event{UpdateType: "unknown"}
	}
}

func messageEvent(msg *models.Message, updateType string) Event {
	ev := Event{
		UpdateType: updateType,
		UserID:     userID(msg.From),
		Username:   userName(msg.From),
		Text:       strings.TrimSpace(msg.Text),
	}
	applyChat(&ev, &msg.Chat)
	ev.Command, ev.CommandArgs = parseCommand(ev.Text)
	return ev
}

func applyChat(ev *Event, chat *models.Chat) {
	ev.ChatID = chat.ID
	ev.ChatKind = string(chat.Type)
	ev.ChatTitle = chat.Title
}

// parseCommand splits "/points@ValleyBot extra" into ("points", "extra").
// Text that is not a command yields empty strings.
func parseCommand(text string) (string, string) {
	if !strings.HasPrefix(text, "/") {
		return "", ""
	}

	head, args, _ := strings.Cut(text[1:], " ")
	name, _, _ := strings.Cut(head, "@")

	return strings.ToLower(name), strings.TrimSpace(args)
}

func userID(user *models.User) int64 {
	if user == nil {
		return 0
	}

	return user.ID
}

func userName(user *models.User) string {
	if user == nil {
		return ""
	}
	if user.Username != "" {
		return user.Username
	}
	return strings.TrimSpace(user.FirstName + " " + user.LastName)
}

func messageChat(msg models.MaybeInaccessibleMessage) *models.Chat {
	switch msg.Type {
	case models.MaybeInaccessibleMessageTypeMessage:
		if msg.Message == nil {
			return nil
		}
		return &msg.Message.Chat
	case models.MaybeInaccessibleMessageTypeInaccessibleMessage:
		if msg.InaccessibleMessage == nil {
			return nil
		}
		return &msg.InaccessibleMessage.Chat
	default:
		return nil
	}
}

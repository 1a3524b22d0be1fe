// Package domain defines the records and rules shared by the bot's features
// and storage backends.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// OwnerKind distinguishes the two kinds of point and preference owners.
type OwnerKind string

const (
	// OwnerUser owns records created from a private chat.
	OwnerUser OwnerKind = "user"
	// OwnerGroup owns records created from a group chat.
	OwnerGroup OwnerKind = "group"
)

// Telegram chat kinds.
const (
	ChatPrivate    = "private"
	ChatGroup      = "group"
	ChatSupergroup = "supergroup"
	ChatChannel    = "channel"
)

// ErrInvalidOwner is returned when an owner has an unknown kind or a zero id.
var ErrInvalidOwner = errors.New("invalid owner")

// Owner identifies who a language preference and a point balance belong to.
type Owner struct {
	Kind OwnerKind
	ID   int64
}

// UserOwner returns the owner for a private chat user.
func UserOwner(id int64) Owner {
	return Owner{Kind: OwnerUser, ID: id}
}

// GroupOwner returns the owner for a group chat.
func GroupOwner(id int64) Owner {
	return Owner{Kind: OwnerGroup, ID: id}
}

// OwnerForChat maps an inbound chat to its owner. Private chats are owned by
// the sending user (the chat id is used when no user is attached); every
// other chat kind is owned by the chat itself.
func OwnerForChat(chatKind string, chatID, userID int64) Owner {
	if strings.TrimSpace(chatKind) == ChatPrivate {
		if userID != 0 {
			return UserOwner(userID)
		}
		return UserOwner(chatID)
	}

	return GroupOwner(chatID)
}

// Valid reports whether the owner has a known kind and a non-zero id.
func (o Owner) Valid() bool {
	return (o.Kind == OwnerUser || o.Kind == OwnerGroup) && o.ID != 0
}

// Validate returns ErrInvalidOwner wrapped with the offending value.
func (o Owner) Validate() error {
	if o.Valid() {
		return nil
	}
	return fmt.Errorf("%w: %q/%d", ErrInvalidOwner, o.Kind, o.ID)
}

// IsGroup reports whether the owner is a group chat.
func (o Owner) IsGroup() bool {
	return o.Kind == OwnerGroup
}

func (o Owner) String() string {
	return fmt.Sprintf("%s_%d", o.Kind, o.ID)
}

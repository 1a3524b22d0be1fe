package domain

import (
	"errors"
	"testing"
	"time"
)

func TestOwnerForChat(t *testing.T) {
	tests := []struct {
		name     string
		chatKind string
		chatID   int64
		userID   int64
		want     Owner
	}{
		{name: "private uses user id", chatKind: ChatPrivate, chatID: 5, userID: 7, want: UserOwner(7)},
		{name: "private falls back to chat id", chatKind: ChatPrivate, chatID: 5, want: UserOwner(5)},
		{name: "group", chatKind: ChatGroup, chatID: -100, userID: 7, want: GroupOwner(-100)},
		{name: "supergroup", chatKind: ChatSupergroup, chatID: -1001, userID: 7, want: GroupOwner(-1001)},
		{name: "channel", chatKind: ChatChannel, chatID: -1002, want: GroupOwner(-1002)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := OwnerForChat(tt.chatKind, tt.chatID, tt.userID); got != tt.want {
				t.Fatalf("OwnerForChat() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestOwnerValidate(t *testing.T) {
	if err := UserOwner(1).Validate(); err != nil {
		t.Fatalf("expected valid user owner, got %v", err)
	}
	if err := GroupOwner(-1).Validate(); err != nil {
		t.Fatalf("expected valid group owner, got %v", err)
	}
	if err := UserOwner(0).Validate(); !errors.Is(err, ErrInvalidOwner) {
		t.Fatalf("expected ErrInvalidOwner for zero id, got %v", err)
	}
	if err := (Owner{Kind: "channel", ID: 3}).Validate(); !errors.Is(err, ErrInvalidOwner) {
		t.Fatalf("expected ErrInvalidOwner for unknown kind, got %v", err)
	}
	if got := GroupOwner(-42).String(); got != "group_-42" {
		t.Fatalf("unexpected owner string %q", got)
	}
}

func TestParseLanguage(t *testing.T) {
	for _, code := range []string{"ko", "en", " EN "} {
		if _, err := ParseLanguage(code); err != nil {
			t.Fatalf("ParseLanguage(%q) returned error: %v", code, err)
		}
	}

	for _, code := range []string{"", "jp", "english"} {
		if _, err := ParseLanguage(code); !errors.Is(err, ErrUnknownLanguage) {
			t.Fatalf("ParseLanguage(%q) expected ErrUnknownLanguage, got %v", code, err)
		}
	}

	if Language("fr").OrDefault() != LanguageKorean {
		t.Fatalf("expected unsupported language to fall back to korean")
	}
}

func TestValFromPoints(t *testing.T) {
	tests := []struct {
		points int64
		want   float64
	}{
		{0, 0},
		{10, 1},
		{15, 1.5},
		{123, 12.3},
		{1, 0.1},
	}

	for _, tt := range tests {
		if got := ValFromPoints(tt.points); got != tt.want {
			t.Fatalf("ValFromPoints(%d) = %v, want %v", tt.points, got, tt.want)
		}
	}
}

func TestCalendarDayUsesLocation(t *testing.T) {
	instant := time.Date(2026, 10, 14, 20, 30, 0, 0, time.UTC)

	if got := CalendarDay(instant, nil); got != "2026-10-14" {
		t.Fatalf("expected UTC day, got %s", got)
	}

	plusNine := time.FixedZone("KST", 9*60*60)
	if got := CalendarDay(instant, plusNine); got != "2026-10-15" {
		t.Fatalf("expected shifted day, got %s", got)
	}
}

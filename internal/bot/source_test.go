package bot

import (
	"testing"

	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
)

func TestGetChatID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		source webhook.SourceInterface
		want   string
	}{
		{"user", webhook.UserSource{UserId: "U1"}, "U1"},
		{"group", webhook.GroupSource{GroupId: "G1", UserId: "U1"}, "G1"},
		{"room", webhook.RoomSource{RoomId: "R1", UserId: "U1"}, "R1"},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		if got := GetChatID(tt.source); got != tt.want {
			t.Errorf("%s: GetChatID() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestGetUserID(t *testing.T) {
	t.Parallel()

	if got := GetUserID(webhook.GroupSource{GroupId: "G1", UserId: "U2"}); got != "U2" {
		t.Errorf("GetUserID() = %q, want U2", got)
	}
	if got := GetUserID(nil); got != "" {
		t.Errorf("GetUserID(nil) = %q, want empty", got)
	}
}

func TestIsPersonalChat(t *testing.T) {
	t.Parallel()

	if !IsPersonalChat(webhook.UserSource{UserId: "U1"}) {
		t.Error("UserSource should be a personal chat")
	}
	if IsPersonalChat(webhook.GroupSource{GroupId: "G1"}) {
		t.Error("GroupSource should not be a personal chat")
	}
}

package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/bwmarrin/discordgo"
)

type apiCall struct {
	method string
	args   []string
	until  *time.Time
}

type fakeGuildAPI struct {
	calls []apiCall
	bans  [][]*discordgo.GuildBan
	err   error
}

func (f *fakeGuildAPI) GuildMemberRoleAdd(guildID, userID, roleID string, _ ...discordgo.RequestOption) error {
	f.calls = append(f.calls, apiCall{method: "roleAdd", args: []string{guildID, userID, roleID}})
	return f.err
}

func (f *fakeGuildAPI) GuildMemberRoleRemove(guildID, userID, roleID string, _ ...discordgo.RequestOption) error {
	f.calls = append(f.calls, apiCall{method: "roleRemove", args: []string{guildID, userID, roleID}})
	return f.err
}

func (f *fakeGuildAPI) GuildMemberTimeout(guildID, userID string, until *time.Time, _ ...discordgo.RequestOption) error {
	f.calls = append(f.calls, apiCall{method: "timeout", args: []string{guildID, userID}, until: until})
	return f.err
}

func (f *fakeGuildAPI) GuildMemberDeleteWithReason(guildID, userID, reason string, _ ...discordgo.RequestOption) error {
	f.calls = append(f.calls, apiCall{method: "kick", args: []string{guildID, userID, reason}})
	return f.err
}

func (f *fakeGuildAPI) GuildBanCreateWithReason(guildID, userID, reason string, days int, _ ...discordgo.RequestOption) error {
	f.calls = append(f.calls, apiCall{method: "ban", args: []string{guildID, userID, reason, fmt.Sprint(days)}})
	return f.err
}

func (f *fakeGuildAPI) GuildBanDelete(guildID, userID string, _ ...discordgo.RequestOption) error {
	f.calls = append(f.calls, apiCall{method: "unban", args: []string{guildID, userID}})
	return f.err
}

func (f *fakeGuildAPI) GuildBans(guildID string, limit int, beforeID, afterID string, _ ...discordgo.RequestOption) ([]*discordgo.GuildBan, error) {
	f.calls = append(f.calls, apiCall{method: "bans", args: []string{guildID, afterID}})
	if len(f.bans) == 0 {
		return nil, nil
	}
	page := f.bans[0]
	f.bans = f.bans[1:]
	return page, nil
}

func restError(status, code int) error {
	return &discordgo.RESTError{
		Response: &http.Response{StatusCode: status},
		Message:  &discordgo.APIErrorMessage{Code: code, Message: "api error"},
	}
}

func TestExecutorMuteRoleAndTimeout(t *testing.T) {
	api := &fakeGuildAPI{}
	exec := newExecutor(api)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	exec.now = func() time.Time { return now }

	err := exec.Mute(context.Background(), moderation.MuteAction{
		GuildID: "g", UserID: "u", RoleID: "r", Duration: time.Hour, Reason: "spam",
	})
	if err != nil {
		t.Fatalf("Mute() error = %v", err)
	}
	if len(api.calls) != 2 {
		t.Fatalf("calls = %d, want 2", len(api.calls))
	}
	if api.calls[0].method != "roleAdd" || api.calls[0].args[2] != "r" {
		t.Errorf("first call = %+v, want roleAdd r", api.calls[0])
	}
	if api.calls[1].method != "timeout" || !api.calls[1].until.Equal(now.Add(time.Hour)) {
		t.Errorf("second call = %+v, want timeout until %v", api.calls[1], now.Add(time.Hour))
	}
}

func TestExecutorMuteCapsTimeout(t *testing.T) {
	api := &fakeGuildAPI{}
	exec := newExecutor(api)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	exec.now = func() time.Time { return now }

	if err := exec.Mute(context.Background(), moderation.MuteAction{GuildID: "g", UserID: "u", Duration: 60 * 24 * time.Hour}); err != nil {
		t.Fatalf("Mute() error = %v", err)
	}
	if len(api.calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(api.calls))
	}
	if got := api.calls[0].until.Sub(now); got != maxTimeout {
		t.Errorf("timeout = %v, want %v", got, maxTimeout)
	}
}

func TestExecutorUnmuteClearsTimeout(t *testing.T) {
	api := &fakeGuildAPI{}
	exec := newExecutor(api)

	if err := exec.Unmute(context.Background(), moderation.UnmuteAction{GuildID: "g", UserID: "u", RoleID: "r"}); err != nil {
		t.Fatalf("Unmute() error = %v", err)
	}
	if len(api.calls) != 2 || api.calls[0].method != "roleRemove" || api.calls[1].until != nil {
		t.Errorf("calls = %+v, want roleRemove then timeout(nil)", api.calls)
	}
}

func TestExecutorBanUsesZeroDays(t *testing.T) {
	api := &fakeGuildAPI{}
	if err := newExecutor(api).Ban(context.Background(), "g", "u", "raid"); err != nil {
		t.Fatalf("Ban() error = %v", err)
	}
	want := []string{"g", "u", "raid", "0"}
	for i, a := range want {
		if api.calls[0].args[i] != a {
			t.Errorf("arg %d = %q, want %q", i, api.calls[0].args[i], a)
		}
	}
}

func TestExecutorUnbanByName(t *testing.T) {
	tests := []struct {
		name    string
		ref     string
		wantID  string
		wantErr error
	}{
		{name: "snowflake", ref: "123456789012345678", wantID: "123456789012345678"},
		{name: "legacy tag", ref: "old#0420", wantID: "2"},
		{name: "username any case", ref: "NEWNAME", wantID: "3"},
		{name: "not banned", ref: "ghost", wantErr: moderation.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeGuildAPI{bans: [][]*discordgo.GuildBan{{
				{User: nil},
				{User: &discordgo.User{ID: "2", Username: "old", Discriminator: "0420"}},
				{User: &discordgo.User{ID: "3", Username: "newname", Discriminator: "0"}},
			}}}

			err := newExecutor(api).Unban(context.Background(), "g", tt.ref, "")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Unban() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unban() error = %v", err)
			}
			last := api.calls[len(api.calls)-1]
			if last.method != "unban" || last.args[1] != tt.wantID {
				t.Errorf("last call = %+v, want unban %s", last, tt.wantID)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	plain := errors.New("boom")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "nil", err: nil, want: nil},
		{name: "plain", err: plain, want: plain},
		{name: "missing permissions", err: restError(http.StatusForbidden, discordgo.ErrCodeMissingPermissions), want: moderation.ErrPermissionDenied},
		{name: "missing access", err: restError(http.StatusForbidden, discordgo.ErrCodeMissingAccess), want: moderation.ErrPermissionDenied},
		{name: "unknown member", err: restError(http.StatusNotFound, discordgo.ErrCodeUnknownMember), want: moderation.ErrNotFound},
		{name: "unknown ban", err: restError(http.StatusNotFound, discordgo.ErrCodeUnknownBan), want: moderation.ErrNotFound},
		{name: "status fallback", err: restError(http.StatusForbidden, 0), want: moderation.ErrPermissionDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			if tt.want == nil {
				if got != nil {
					t.Errorf("classify() = %v, want nil", got)
				}
				return
			}
			if !errors.Is(got, tt.want) {
				t.Errorf("classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExecutorErrorsAreClassified(t *testing.T) {
	api := &fakeGuildAPI{err: restError(http.StatusForbidden, discordgo.ErrCodeMissingPermissions)}
	err := newExecutor(api).Kick(context.Background(), "g", "u", "")
	if !errors.Is(err, moderation.ErrPermissionDenied) {
		t.Errorf("Kick() error = %v, want ErrPermissionDenied", err)
	}
}

func TestIsSnowflake(t *testing.T) {
	tests := map[string]bool{
		"":                      false,
		"123":                   true,
		"12a":                   false,
		"name#0001":             false,
		"123456789012345678901": false,
	}
	for in, want := range tests {
		if got := isSnowflake(in); got != want {
			t.Errorf("isSnowflake(%q) = %v, want %v", in, got, want)
		}
	}
}

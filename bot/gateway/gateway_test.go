package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type fakeSession struct {
	sent        []*discordgo.MessageSend
	edits       []*discordgo.MessageEdit
	reactions   []string
	reactors    []*discordgo.User
	reactorCall []string
	members     []*discordgo.Member
	memberCall  []string
	roleAdds    []string
	roleRemoves []string
	created     *discordgo.GuildChannelCreateData
	sendErr     error
	editErr     error
	reactErr    error
}

func (f *fakeSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sent = append(f.sent, data)
	return &discordgo.Message{ID: "555", ChannelID: channelID}, nil
}

func (f *fakeSession) ChannelMessageEditComplex(m *discordgo.MessageEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if f.editErr != nil {
		return nil, f.editErr
	}
	f.edits = append(f.edits, m)
	return &discordgo.Message{ID: m.ID}, nil
}

func (f *fakeSession) MessageReactionAdd(_, _, emojiID string, _ ...discordgo.RequestOption) error {
	f.reactions = append(f.reactions, emojiID)
	return nil
}

func (f *fakeSession) MessageReactions(_, _, _ string, limit int, _, afterID string, _ ...discordgo.RequestOption) ([]*discordgo.User, error) {
	f.reactorCall = append(f.reactorCall, afterID)
	if f.reactErr != nil {
		return nil, f.reactErr
	}
	start := 0
	if afterID != "" {
		for i, u := range f.reactors {
			if u.ID == afterID {
				start = i + 1
				break
			}
		}
	}
	end := min(start+limit, len(f.reactors))
	return f.reactors[start:end], nil
}

func (f *fakeSession) GuildMemberRoleAdd(_, userID, roleID string, _ ...discordgo.RequestOption) error {
	f.roleAdds = append(f.roleAdds, userID+":"+roleID)
	return nil
}

func (f *fakeSession) GuildMemberRoleRemove(_, userID, roleID string, _ ...discordgo.RequestOption) error {
	f.roleRemoves = append(f.roleRemoves, userID+":"+roleID)
	return nil
}

func (f *fakeSession) GuildMembers(_ string, after string, limit int, _ ...discordgo.RequestOption) ([]*discordgo.Member, error) {
	f.memberCall = append(f.memberCall, after)
	start := 0
	if after != "" {
		for i, m := range f.members {
			if m.User != nil && m.User.ID == after {
				start = i + 1
				break
			}
		}
	}
	end := min(start+limit, len(f.members))
	return f.members[start:end], nil
}

func (f *fakeSession) GuildChannelCreateComplex(_ string, data discordgo.GuildChannelCreateData, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.created = &data
	return &discordgo.Channel{ID: "777", Name: data.Name}, nil
}

func newTestGateway(s *fakeSession) *Gateway {
	return newGateway(s, func() string { return "999" }, rate.NewLimiter(rate.Inf, 1))
}

func TestGateway_SendMessage(t *testing.T) {
	t.Parallel()

	s := &fakeSession{}
	g := newTestGateway(s)

	id, err := g.SendMessage(10, "hello", &discordgo.MessageEmbed{Title: "Giveaway"})
	require.NoError(t, err)
	assert.Equal(t, int64(555), id)
	require.Len(t, s.sent, 1)
	assert.Equal(t, "hello", s.sent[0].Content)
	assert.Len(t, s.sent[0].Embeds, 1)

	s.sendErr = errors.New("missing access")
	_, err = g.SendMessage(10, "hello", nil)
	assert.ErrorContains(t, err, "missing access")
}

func TestGateway_EditMessage(t *testing.T) {
	t.Parallel()

	s := &fakeSession{}
	g := newTestGateway(s)

	require.NoError(t, g.EditMessage(10, 20, "", &discordgo.MessageEmbed{Title: "Ended"}))
	require.Len(t, s.edits, 1)
	assert.Equal(t, "10", s.edits[0].Channel)
	assert.Equal(t, "20", s.edits[0].ID)
	require.NotNil(t, s.edits[0].Embeds)
	assert.Equal(t, "Ended", (*s.edits[0].Embeds)[0].Title)
}

func TestGateway_ListReactors(t *testing.T) {
	t.Parallel()

	s := &fakeSession{}
	for i := 1; i <= 250; i++ {
		s.reactors = append(s.reactors, &discordgo.User{ID: fmt.Sprintf("%d", i), Bot: i%50 == 0})
	}
	g := newTestGateway(s)

	reactors, err := g.ListReactors(context.Background(), 1, 2, "🎉")
	require.NoError(t, err)
	assert.Len(t, reactors, 245)
	assert.NotContains(t, reactors, int64(50))
	assert.Equal(t, []string{"", "100", "200"}, s.reactorCall)
}

func TestGateway_ListReactors_ContextCancelled(t *testing.T) {
	t.Parallel()

	s := &fakeSession{reactors: []*discordgo.User{{ID: "1"}}}
	g := newGateway(s, func() string { return "" }, rate.NewLimiter(rate.Limit(0.001), 1))
	g.limiter.Allow() // drain the single token

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.ListReactors(ctx, 1, 2, "🎉")
	assert.Error(t, err)
}

func TestGateway_Roles(t *testing.T) {
	t.Parallel()

	s := &fakeSession{
		members: []*discordgo.Member{
			{User: &discordgo.User{ID: "1"}, Roles: []string{"5"}},
			{User: &discordgo.User{ID: "2"}, Roles: []string{"6"}},
			{User: &discordgo.User{ID: "3"}, Roles: []string{"6", "5"}},
		},
	}
	g := newTestGateway(s)

	holders, err := g.MembersWithRole(context.Background(), 100, 5)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, holders)

	require.NoError(t, g.GrantRole(100, 2, 5))
	require.NoError(t, g.RevokeRole(100, 1, 5))
	assert.Equal(t, []string{"2:5"}, s.roleAdds)
	assert.Equal(t, []string{"1:5"}, s.roleRemoves)
}

func TestGateway_MembersWithRole_PageEndsWithoutUser(t *testing.T) {
	t.Parallel()

	s := &fakeSession{}
	for i := 1; i <= memberPageSize+5; i++ {
		m := &discordgo.Member{User: &discordgo.User{ID: fmt.Sprintf("%d", i)}}
		if i%250 == 0 || i == memberPageSize+5 {
			m.Roles = []string{"5"}
		}
		if i == memberPageSize {
			m.User = nil
		}
		s.members = append(s.members, m)
	}
	g := newTestGateway(s)

	holders, err := g.MembersWithRole(context.Background(), 100, 5)
	require.NoError(t, err)
	assert.Equal(t, []int64{250, 500, 750, int64(memberPageSize + 5)}, holders)
	assert.Equal(t, []string{"", fmt.Sprintf("%d", memberPageSize-1)}, s.memberCall)
}

func TestGateway_DeletedResources(t *testing.T) {
	t.Parallel()

	restErr := func(code int) error {
		return &discordgo.RESTError{
			Response: &http.Response{StatusCode: http.StatusNotFound},
			Message:  &discordgo.APIErrorMessage{Code: code, Message: "Unknown"},
		}
	}

	tests := []struct {
		name         string
		err          error
		wantNotFound bool
	}{
		{name: "unknown message", err: restErr(discordgo.ErrCodeUnknownMessage), wantNotFound: true},
		{name: "unknown channel", err: restErr(discordgo.ErrCodeUnknownChannel), wantNotFound: true},
		{name: "unknown emoji", err: restErr(discordgo.ErrCodeUnknownEmoji), wantNotFound: true},
		{name: "missing access", err: restErr(discordgo.ErrCodeMissingAccess)},
		{name: "transport failure", err: errors.New("connection reset")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g := newTestGateway(&fakeSession{reactErr: tt.err, editErr: tt.err})

			_, err := g.ListReactors(context.Background(), 1, 2, "🎉")
			require.Error(t, err)
			assert.Equal(t, tt.wantNotFound, errors.Is(err, ErrNotFound))
			assert.ErrorIs(t, err, tt.err)

			err = g.EditMessage(1, 2, "", nil)
			require.Error(t, err)
			assert.Equal(t, tt.wantNotFound, errors.Is(err, ErrNotFound))
		})
	}
}

func TestGateway_CreateChannel(t *testing.T) {
	t.Parallel()

	s := &fakeSession{}
	g := newTestGateway(s)

	id, err := g.CreateChannel(100, ChannelSpec{
		Name:       "claim-7",
		CategoryID: 300,
		MemberIDs:  []int64{1, 2, 1},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(777), id)

	require.NotNil(t, s.created)
	assert.Equal(t, "300", s.created.ParentID)
	assert.Equal(t, discordgo.ChannelTypeGuildText, s.created.Type)

	// @everyone deny, the bot, then each member once
	require.Len(t, s.created.PermissionOverwrites, 4)
	everyone := s.created.PermissionOverwrites[0]
	assert.Equal(t, "100", everyone.ID)
	assert.Equal(t, int64(discordgo.PermissionViewChannel), everyone.Deny)
	assert.Equal(t, "999", s.created.PermissionOverwrites[1].ID)
	assert.Equal(t, "1", s.created.PermissionOverwrites[2].ID)
	assert.Equal(t, "2", s.created.PermissionOverwrites[3].ID)
}

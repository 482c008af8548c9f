package inmemory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundroom/client/internal/domain"
	"github.com/soundroom/client/internal/repository/actionlog"
)

func TestAppendRejectsDuplicates(t *testing.T) {
	repo := NewRepo()

	action := domain.RoomAction{Id: "a1", Kind: domain.ActionChat, UserId: "u1", Text: "hi"}
	require.NoError(t, repo.Append(action))

	err := repo.Append(action)
	require.ErrorIs(t, err, actionlog.ErrDuplicateAction)

	assert.Equal(t, 1, repo.Len(), "replayed action must not duplicate the log")
	assert.True(t, repo.Has("a1"))
}

func TestAppendRejectsEmptyId(t *testing.T) {
	repo := NewRepo()

	err := repo.Append(domain.RoomAction{Kind: domain.ActionChat})
	require.ErrorIs(t, err, actionlog.ErrEmptyActionId)
	assert.Equal(t, 0, repo.Len())
}

func TestArrivalOrderPreserved(t *testing.T) {
	repo := NewRepo()

	require.NoError(t, repo.Append(domain.RoomAction{Id: "a1", Kind: domain.ActionJoin, UserId: "u1"}))
	require.NoError(t, repo.Append(domain.RoomAction{Id: "a2", Kind: domain.ActionChat, UserId: "u1", Text: "one"}))
	require.NoError(t, repo.Append(domain.RoomAction{Id: "a3", Kind: domain.ActionChat, UserId: "u2", Text: "two"}))

	all := repo.All()
	require.Len(t, all, 3)
	assert.Equal(t, "a1", all[0].Id)
	assert.Equal(t, "a2", all[1].Id)
	assert.Equal(t, "a3", all[2].Id)

	chats := repo.ByKind(domain.ActionChat)
	require.Len(t, chats, 2)
	assert.Equal(t, "one", chats[0].Text)
	assert.Equal(t, "two", chats[1].Text)
}

func TestByKindReturnsFreshSlice(t *testing.T) {
	repo := NewRepo()
	require.NoError(t, repo.Append(domain.RoomAction{Id: "a1", Kind: domain.ActionChat, Text: "hi"}))

	first := repo.ByKind(domain.ActionChat)
	first[0].Text = "mutated"

	second := repo.ByKind(domain.ActionChat)
	assert.Equal(t, "hi", second[0].Text)
}

func TestReset(t *testing.T) {
	repo := NewRepo()
	require.NoError(t, repo.Append(domain.RoomAction{Id: "a1", Kind: domain.ActionChat}))

	repo.Reset()

	assert.Equal(t, 0, repo.Len())
	require.NoError(t, repo.Append(domain.RoomAction{Id: "a1", Kind: domain.ActionChat}), "reset must forget seen ids")
}

package sessions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sessionerrors "github.com/mantonx/viewra/internal/sessions/errors"
	"github.com/mantonx/viewra/internal/sessions/sessionsfakes"
)

func newRemoteControlTestManager(t *testing.T) (*Manager, *sessionsfakes.FakeLibraryManager, *sessionsfakes.FakeUserManager, *sessionsfakes.FakeSessionControllerFactory) {
	t.Helper()
	lib := sessionsfakes.NewFakeLibraryManager()
	users := sessionsfakes.NewFakeUserManager()
	factory := sessionsfakes.NewFakeSessionControllerFactory()
	m := NewManager(ManagerConfig{
		AuthRepo:       sessionsfakes.NewFakeAuthenticationRepository(),
		LibraryManager: lib,
		UserManager:    users,
		Factories:      []SessionControllerFactory{factory},
	})
	return m, lib, users, factory
}

func mustLogActivityWithController(t *testing.T, m *Manager, factory *sessionsfakes.FakeSessionControllerFactory, deviceId string) (*Session, *sessionsfakes.FakeSessionController) {
	t.Helper()
	ctrl := sessionsfakes.NewFakeSessionController(deviceId)
	factory.Register(deviceId, ctrl)
	session, err := m.LogSessionActivity(context.Background(), "Web", "1.0", deviceId, "Chrome", "127.0.0.1", nil)
	require.NoError(t, err)
	return session, ctrl
}

func TestSendGeneralCommand_ForwardsToTargetController(t *testing.T) {
	m, _, _, factory := newRemoteControlTestManager(t)
	defer m.Shutdown()

	session, ctrl := mustLogActivityWithController(t, m, factory, "device-1")

	require.NoError(t, m.SendGeneralCommand(context.Background(), "", session.Id, GeneralCommand{Name: "ToggleFullscreen"}))
	require.Len(t, ctrl.Sent, 1)
	assert.Equal(t, "GeneralCommand", ctrl.Sent[0].Kind)
}

func TestSendGeneralCommand_UnknownTargetIsNotFound(t *testing.T) {
	m, _, _, _ := newRemoteControlTestManager(t)
	defer m.Shutdown()

	err := m.SendGeneralCommand(context.Background(), "", "missing", GeneralCommand{Name: "Stop"})
	require.Error(t, err)
	assert.Equal(t, sessionerrors.ErrorTypeNotFound, sessionerrors.GetType(err))
}

func TestSendGeneralCommand_UnknownControllingSessionIsNotFound(t *testing.T) {
	m, _, _, factory := newRemoteControlTestManager(t)
	defer m.Shutdown()

	session, _ := mustLogActivityWithController(t, m, factory, "device-1")

	err := m.SendGeneralCommand(context.Background(), "missing-controller", session.Id, GeneralCommand{Name: "Stop"})
	require.Error(t, err)
	assert.Equal(t, sessionerrors.ErrorTypeNotFound, sessionerrors.GetType(err))
}

func TestSendMessageCommand_LowersToDisplayMessageGeneralCommand(t *testing.T) {
	m, _, _, factory := newRemoteControlTestManager(t)
	defer m.Shutdown()

	session, ctrl := mustLogActivityWithController(t, m, factory, "device-1")
	require.NoError(t, m.SendMessageCommand(context.Background(), "", session.Id, "Hello", "World", 5000))

	require.Len(t, ctrl.Sent, 1)
	cmd := ctrl.Sent[0].Data.(GeneralCommand)
	assert.Equal(t, "DisplayMessage", cmd.Name)
	assert.Equal(t, "Hello", cmd.Arguments["Header"])
	assert.Equal(t, "World", cmd.Arguments["Text"])
	assert.Equal(t, "5000", cmd.Arguments["TimeoutMs"])
}

func TestSendBrowseCommand_LowersToDisplayContentGeneralCommand(t *testing.T) {
	m, _, _, factory := newRemoteControlTestManager(t)
	defer m.Shutdown()

	session, ctrl := mustLogActivityWithController(t, m, factory, "device-1")
	require.NoError(t, m.SendBrowseCommand(context.Background(), "", session.Id, "item-1", "Movie", "Movie"))

	require.Len(t, ctrl.Sent, 1)
	cmd := ctrl.Sent[0].Data.(GeneralCommand)
	assert.Equal(t, "DisplayContent", cmd.Name)
	assert.Equal(t, "item-1", cmd.Arguments["ItemId"])
}

func TestSendPlayCommand_PlainItemIsForwardedUnchanged(t *testing.T) {
	m, lib, _, factory := newRemoteControlTestManager(t)
	defer m.Shutdown()

	item := &BaseItem{Id: "item-1", Kind: KindLeaf, MediaType: "Video"}
	lib.AddItem(item)
	session, ctrl := mustLogActivityWithController(t, m, factory, "device-1")

	require.NoError(t, m.SendPlayCommand(context.Background(), "", session.Id, PlayRequest{
		ItemIds:     []string{"item-1"},
		PlayCommand: PlayNow,
	}))

	require.Len(t, ctrl.Sent, 1)
	req := ctrl.Sent[0].Data.(PlayRequest)
	assert.Equal(t, []string{"item-1"}, req.ItemIds)
}

func TestSendPlayCommand_FolderExpandsToDominantMediaTypeDescendantsSortedByName(t *testing.T) {
	m, lib, _, factory := newRemoteControlTestManager(t)
	defer m.Shutdown()

	folder := &BaseItem{
		Id:   "folder-1",
		Kind: KindFolder,
		Children: []*BaseItem{
			{Id: "song-b", SortName: "b", MediaType: "Audio"},
			{Id: "song-a", SortName: "a", MediaType: "Audio"},
			{Id: "photo-1", SortName: "c", MediaType: "Photo"},
		},
	}
	lib.AddItem(folder)
	session, ctrl := mustLogActivityWithController(t, m, factory, "device-1")

	require.NoError(t, m.SendPlayCommand(context.Background(), "", session.Id, PlayRequest{
		ItemIds:     []string{"folder-1"},
		PlayCommand: PlayNow,
	}))

	require.Len(t, ctrl.Sent, 1)
	req := ctrl.Sent[0].Data.(PlayRequest)
	assert.Equal(t, []string{"song-a", "song-b"}, req.ItemIds)
}

func TestSendPlayCommand_ShuffleAppliesInjectedPRNGDeterministically(t *testing.T) {
	lib := sessionsfakes.NewFakeLibraryManager()
	factory := sessionsfakes.NewFakeSessionControllerFactory()
	m := NewManager(ManagerConfig{
		AuthRepo:       sessionsfakes.NewFakeAuthenticationRepository(),
		LibraryManager: lib,
		Factories:      []SessionControllerFactory{factory},
		PRNG:           &sessionsfakes.FixedPRNG{Permutation: []int{2, 0, 1}},
	})
	defer m.Shutdown()

	for _, id := range []string{"item-1", "item-2", "item-3"} {
		lib.AddItem(&BaseItem{Id: id, Kind: KindLeaf, MediaType: "Video"})
	}
	session, ctrl := mustLogActivityWithController(t, m, factory, "device-1")

	require.NoError(t, m.SendPlayCommand(context.Background(), "", session.Id, PlayRequest{
		ItemIds:     []string{"item-1", "item-2", "item-3"},
		PlayCommand: PlayShuffle,
	}))

	require.Len(t, ctrl.Sent, 1)
	req := ctrl.Sent[0].Data.(PlayRequest)
	assert.Equal(t, []string{"item-3", "item-1", "item-2"}, req.ItemIds)
	assert.Equal(t, PlayNow, req.PlayCommand)
}

func TestSendPlayCommand_DeniesPlaybackOfUnplayableMediaType(t *testing.T) {
	m, lib, _, factory := newRemoteControlTestManager(t)
	defer m.Shutdown()

	item := &BaseItem{Id: "item-1", Kind: KindLeaf, MediaType: "Video"}
	lib.AddItem(item)
	session, _ := mustLogActivityWithController(t, m, factory, "device-1")
	session.SetCapabilities(Capabilities{PlayableMediaTypes: []string{"Audio"}})

	err := m.SendPlayCommand(context.Background(), "", session.Id, PlayRequest{
		ItemIds:     []string{"item-1"},
		PlayCommand: PlayNow,
	})
	require.Error(t, err)
	assert.Equal(t, sessionerrors.ErrorTypeInvalidArgument, sessionerrors.GetType(err))
}

func TestSendPlayCommand_NextEpisodeAutoPlayExpandsToRemainingEpisodes(t *testing.T) {
	m, lib, users, factory := newRemoteControlTestManager(t)
	defer m.Shutdown()

	ep1 := &BaseItem{Id: "ep-1", Kind: KindEpisode, SeriesId: "series-1", MediaType: "Video"}
	ep2 := &BaseItem{Id: "ep-2", Kind: KindEpisode, SeriesId: "series-1", MediaType: "Video"}
	ep3 := &BaseItem{Id: "ep-3", Kind: KindEpisode, SeriesId: "series-1", MediaType: "Video"}
	lib.AddItem(ep1)
	lib.Episodes["series-1"] = []*BaseItem{ep1, ep2, ep3}

	user := &User{Id: "user-1", EnableNextEpisodeAutoPlay: true}
	users.AddUser(user)

	session, ctrl := mustLogActivityWithController(t, m, factory, "device-1")
	session.UserId = user.Id

	require.NoError(t, m.SendPlayCommand(context.Background(), "", session.Id, PlayRequest{
		ItemIds:     []string{"ep-1"},
		PlayCommand: PlayNow,
	}))

	require.Len(t, ctrl.Sent, 1)
	req := ctrl.Sent[0].Data.(PlayRequest)
	assert.Equal(t, []string{"ep-1", "ep-2", "ep-3"}, req.ItemIds)
}

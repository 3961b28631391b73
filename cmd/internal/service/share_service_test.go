package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studynotes/cmd/internal/contract"
	"studynotes/cmd/internal/domain/docstore"
	"studynotes/cmd/internal/domain/entity"
)

func TestShareItemWritesRecordAndProjection(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	subject := env.mustCreateSubject(t, alice, "Physics")

	share := env.mustShare(t, alice, &contract.ShareRequest{
		ItemID:     subject.ID,
		ItemType:   entity.ItemTypeSubject,
		ShareType:  entity.ShareTypeSpecific,
		SharedWith: []string{bob.Email},
		Message:    "take a look",
	})

	assert.NotEmpty(t, share.ID)
	assert.Equal(t, subject.ID, share.ItemID)
	assert.Equal(t, entity.ShareTypeSpecific, share.ShareType)
	assert.Equal(t, []string{bob.Email}, share.SharedWith)
	assert.Equal(t, alice.UID, share.SharedBy)
	assert.Equal(t, "take a look", share.Message)
	assert.NotEmpty(t, share.SharedAt)

	// Omitted permissions fall back to view and download.
	require.NotNil(t, share.Permissions)
	assert.True(t, share.Permissions.View)
	assert.True(t, share.Permissions.Download)
	assert.False(t, share.Permissions.Edit)

	// The item projection reflects the share.
	got, apierr := env.subjects.GetSubject(ctx, alice, subject.ID)
	require.Nil(t, apierr)
	assert.True(t, got.IsShared)
	assert.Equal(t, entity.ShareTypeSpecific, got.ShareType)
	assert.Equal(t, []string{bob.Email}, got.SharedWith)
	assert.Equal(t, alice.UID, got.SharedBy)
}

func TestShareItemUpsertsByOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	subject := env.mustCreateSubject(t, alice, "Physics")

	first := env.mustShare(t, alice, &contract.ShareRequest{
		ItemID:     subject.ID,
		ItemType:   entity.ItemTypeSubject,
		ShareType:  entity.ShareTypeSpecific,
		SharedWith: []string{bob.Email},
	})

	second := env.mustShare(t, alice, &contract.ShareRequest{
		ItemID:    subject.ID,
		ItemType:  entity.ItemTypeSubject,
		ShareType: entity.ShareTypePublic,
	})

	// Same record updated, not a duplicate.
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, entity.ShareTypePublic, second.ShareType)

	records, err := env.store.Query(ctx, docstore.CollectionShares,
		docstore.Where("itemId", docstore.OpEqual, subject.ID))
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestShareItemInvalidRequests(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	subject := env.mustCreateSubject(t, alice, "Physics")

	// Unknown share type.
	_, apierr := env.shares.ShareItem(ctx, alice, &contract.ShareRequest{
		ItemID:    subject.ID,
		ItemType:  entity.ItemTypeSubject,
		ShareType: "everyone",
	})
	require.NotNil(t, apierr)
	assert.Equal(t, http.StatusBadRequest, apierr.Code())

	// Unknown item type.
	_, apierr = env.shares.ShareItem(ctx, alice, &contract.ShareRequest{
		ItemID:    subject.ID,
		ItemType:  "folder",
		ShareType: entity.ShareTypePublic,
	})
	require.NotNil(t, apierr)
	assert.Equal(t, http.StatusBadRequest, apierr.Code())

	// Missing item.
	_, apierr = env.shares.ShareItem(ctx, alice, &contract.ShareRequest{
		ItemID:    "nope",
		ItemType:  entity.ItemTypeSubject,
		ShareType: entity.ShareTypePublic,
	})
	require.NotNil(t, apierr)
	assert.Equal(t, http.StatusNotFound, apierr.Code())
}

func TestShareItemOwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	subject := env.mustCreateSubject(t, alice, "Physics")

	// Bob can read the subject once shared, but cannot re-share it.
	env.mustShare(t, alice, &contract.ShareRequest{
		ItemID:     subject.ID,
		ItemType:   entity.ItemTypeSubject,
		ShareType:  entity.ShareTypeSpecific,
		SharedWith: []string{bob.Email},
	})

	_, apierr := env.shares.ShareItem(context.Background(), bob, &contract.ShareRequest{
		ItemID:     subject.ID,
		ItemType:   entity.ItemTypeSubject,
		ShareType:  entity.ShareTypeSpecific,
		SharedWith: []string{carol.Email},
	})
	require.NotNil(t, apierr)
	assert.Equal(t, http.StatusForbidden, apierr.Code())
}

func TestRemoveShareRevertsProjection(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	subject := env.mustCreateSubject(t, alice, "Physics")

	share := env.mustShare(t, alice, &contract.ShareRequest{
		ItemID:     subject.ID,
		ItemType:   entity.ItemTypeSubject,
		ShareType:  entity.ShareTypeSpecific,
		SharedWith: []string{bob.Email},
	})

	require.Nil(t, env.shares.RemoveShare(ctx, alice, share.ID))

	// Record gone.
	doc, err := env.store.Get(ctx, docstore.CollectionShares, share.ID)
	require.NoError(t, err)
	assert.Nil(t, doc)

	// Projection reverted to private.
	got, apierr := env.subjects.GetSubject(ctx, alice, subject.ID)
	require.Nil(t, apierr)
	assert.False(t, got.IsShared)
	assert.Empty(t, got.ShareType)
	assert.Empty(t, got.SharedWith)
	assert.Equal(t, entity.SharedByUnknown, got.SharedBy)

	// And bob lost access.
	_, apierr = env.subjects.GetSubject(ctx, bob, subject.ID)
	require.NotNil(t, apierr)
	assert.Equal(t, http.StatusForbidden, apierr.Code())
}

func TestRemoveShareKeepsProjectionWhileOthersRemain(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	subject := env.mustCreateSubject(t, alice, "Physics")

	env.mustShare(t, alice, &contract.ShareRequest{
		ItemID:     subject.ID,
		ItemType:   entity.ItemTypeSubject,
		ShareType:  entity.ShareTypeSpecific,
		SharedWith: []string{bob.Email},
	})

	// A second share record for the same item, written directly since the
	// service keys shares by owner.
	extraID := docstore.NewID()
	require.NoError(t, env.store.Set(ctx, docstore.CollectionShares, extraID, map[string]any{
		"itemId":     subject.ID,
		"itemType":   entity.ItemTypeSubject,
		"shareType":  entity.ShareTypeSpecific,
		"sharedWith": []string{carol.Email},
		"sharedBy":   alice.UID,
	}))

	require.Nil(t, env.shares.RemoveShare(ctx, alice, extraID))

	got, apierr := env.subjects.GetSubject(ctx, alice, subject.ID)
	require.Nil(t, apierr)
	assert.True(t, got.IsShared)
	assert.Equal(t, []string{bob.Email}, got.SharedWith)
}

func TestRemoveShareErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	subject := env.mustCreateSubject(t, alice, "Physics")

	share := env.mustShare(t, alice, &contract.ShareRequest{
		ItemID:    subject.ID,
		ItemType:  entity.ItemTypeSubject,
		ShareType: entity.ShareTypePublic,
	})

	apierr := env.shares.RemoveShare(ctx, alice, "nope")
	require.NotNil(t, apierr)
	assert.Equal(t, http.StatusNotFound, apierr.Code())

	apierr = env.shares.RemoveShare(ctx, bob, share.ID)
	require.NotNil(t, apierr)
	assert.Equal(t, http.StatusForbidden, apierr.Code())
}

func TestSharedWithMeDirectAndPublic(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	direct := env.mustCreateSubject(t, alice, "Physics")
	env.mustShare(t, alice, &contract.ShareRequest{
		ItemID:     direct.ID,
		ItemType:   entity.ItemTypeSubject,
		ShareType:  entity.ShareTypeSpecific,
		SharedWith: []string{bob.Email},
	})

	public := env.mustCreateSubject(t, alice, "Chemistry")
	env.mustShare(t, alice, &contract.ShareRequest{
		ItemID:    public.ID,
		ItemType:  entity.ItemTypeSubject,
		ShareType: entity.ShareTypePublic,
	})

	// Private to alice, must never surface.
	env.mustCreateSubject(t, alice, "Secrets")

	views, apierr := env.shares.SharedWithMe(ctx, bob)
	require.Nil(t, apierr)
	require.Len(t, views, 2)

	byItem := map[string]*contract.ShareResponse{}
	for _, v := range views {
		byItem[v.ItemID] = v
	}
	require.Contains(t, byItem, direct.ID)
	require.Contains(t, byItem, public.ID)
	assert.Equal(t, entity.ShareTypeSpecific, byItem[direct.ID].ShareType)
	assert.Equal(t, entity.ShareTypePublic, byItem[public.ID].ShareType)

	// Carol only sees the public one.
	views, apierr = env.shares.SharedWithMe(ctx, carol)
	require.Nil(t, apierr)
	require.Len(t, views, 1)
	assert.Equal(t, public.ID, views[0].ItemID)

	// Owners never see their own items in with-me.
	views, apierr = env.shares.SharedWithMe(ctx, alice)
	require.Nil(t, apierr)
	assert.Empty(t, views)
}

func TestSharedWithMeDeduplicatesDirectAndPublic(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	subject := env.mustCreateSubject(t, alice, "Physics")

	// Listed explicitly and then made public: bob matches both passes.
	env.mustShare(t, alice, &contract.ShareRequest{
		ItemID:     subject.ID,
		ItemType:   entity.ItemTypeSubject,
		ShareType:  entity.ShareTypePublic,
		SharedWith: []string{bob.Email},
	})

	views, apierr := env.shares.SharedWithMe(ctx, bob)
	require.Nil(t, apierr)
	assert.Len(t, views, 1)
}

func TestSharedWithMeIncludesNotes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	subject := env.mustCreateSubject(t, alice, "Physics")
	note := env.mustCreateNote(t, alice, subject.ID, "Kinematics")

	env.mustShare(t, alice, &contract.ShareRequest{
		ItemID:     note.ID,
		ItemType:   entity.ItemTypeNote,
		ShareType:  entity.ShareTypeSpecific,
		SharedWith: []string{bob.Email},
	})

	views, apierr := env.shares.SharedWithMe(ctx, bob)
	require.Nil(t, apierr)
	require.Len(t, views, 1)
	assert.Equal(t, entity.ItemTypeNote, views[0].ItemType)
	assert.Equal(t, note.ID, views[0].ItemID)
}

func TestSharedByMe(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	shared := env.mustCreateSubject(t, alice, "Physics")
	env.mustShare(t, alice, &contract.ShareRequest{
		ItemID:     shared.ID,
		ItemType:   entity.ItemTypeSubject,
		ShareType:  entity.ShareTypeSpecific,
		SharedWith: []string{bob.Email},
	})

	env.mustCreateSubject(t, alice, "Secrets")

	views, apierr := env.shares.SharedByMe(ctx, alice)
	require.Nil(t, apierr)
	require.Len(t, views, 1)
	assert.Equal(t, shared.ID, views[0].ItemID)

	// Bob shared nothing.
	views, apierr = env.shares.SharedByMe(ctx, bob)
	require.Nil(t, apierr)
	assert.Empty(t, views)
}

func TestSharesForItem(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	subject := env.mustCreateSubject(t, alice, "Physics")
	share := env.mustShare(t, alice, &contract.ShareRequest{
		ItemID:     subject.ID,
		ItemType:   entity.ItemTypeSubject,
		ShareType:  entity.ShareTypeSpecific,
		SharedWith: []string{bob.Email},
	})

	records, apierr := env.shares.SharesForItem(ctx, alice, entity.ItemTypeSubject, subject.ID)
	require.Nil(t, apierr)
	require.Len(t, records, 1)
	assert.Equal(t, share.ID, records[0].ID)

	// Recipients may inspect the item's shares too; strangers may not.
	_, apierr = env.shares.SharesForItem(ctx, bob, entity.ItemTypeSubject, subject.ID)
	assert.Nil(t, apierr)

	_, apierr = env.shares.SharesForItem(ctx, carol, entity.ItemTypeSubject, subject.ID)
	require.NotNil(t, apierr)
	assert.Equal(t, http.StatusForbidden, apierr.Code())
}

// Full lifecycle: share with a specific recipient, verify access both ways,
// unshare, verify reversion.
func TestShareLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	subject := env.mustCreateSubject(t, alice, "Physics")
	note := env.mustCreateNote(t, alice, subject.ID, "Kinematics")

	share := env.mustShare(t, alice, &contract.ShareRequest{
		ItemID:     subject.ID,
		ItemType:   entity.ItemTypeSubject,
		ShareType:  entity.ShareTypeSpecific,
		SharedWith: []string{bob.Email},
	})

	// Bob reads the subject, its note list and the note itself.
	_, apierr := env.subjects.GetSubject(ctx, bob, subject.ID)
	require.Nil(t, apierr)
	notes, apierr := env.subjects.GetSubjectNotes(ctx, bob, subject.ID)
	require.Nil(t, apierr)
	require.Len(t, notes, 1)
	_, apierr = env.notes.GetNote(ctx, bob, note.ID)
	require.Nil(t, apierr)

	require.Nil(t, env.shares.RemoveShare(ctx, alice, share.ID))

	_, apierr = env.subjects.GetSubject(ctx, bob, subject.ID)
	require.NotNil(t, apierr)
	assert.Equal(t, http.StatusForbidden, apierr.Code())
	_, apierr = env.notes.GetNote(ctx, bob, note.ID)
	require.NotNil(t, apierr)
	assert.Equal(t, http.StatusForbidden, apierr.Code())

	views, apierr := env.shares.SharedWithMe(ctx, bob)
	require.Nil(t, apierr)
	assert.Empty(t, views)
}

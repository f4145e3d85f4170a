package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/sakugabase/internal/model"
	"github.com/d60-Lab/sakugabase/internal/testutil"
)

func TestRelations_ExistsAndDirection(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewRelationRepository(db)
	ctx := context.Background()
	a := testutil.CreateAnimator(t, db, "a")
	b := testutil.CreateAnimator(t, db, "b")

	rel := &model.AnimatorRelation{FromAnimatorID: a.ID, ToAnimatorID: b.ID, RelationType: model.RelationMentor}
	require.NoError(t, repo.Create(ctx, rel))
	assert.NotEmpty(t, rel.ID)

	ok, err := repo.Exists(ctx, a.ID, b.ID, model.RelationMentor)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.Exists(ctx, b.ID, a.ID, model.RelationMentor)
	require.NoError(t, err)
	assert.False(t, ok)

	err = repo.Create(ctx, &model.AnimatorRelation{FromAnimatorID: a.ID, ToAnimatorID: b.ID, RelationType: model.RelationMentor})
	assert.True(t, IsDuplicate(err))

	out, err := repo.ListOutgoing(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, out, 1)
	in, err := repo.ListIncoming(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, in, 1)
	assert.Equal(t, rel.ID, in[0].ID)

	assert.True(t, IsNotFound(repo.Delete(ctx, "other", rel.ID)))
	require.NoError(t, repo.Delete(ctx, b.ID, rel.ID))
	assert.True(t, IsNotFound(repo.Delete(ctx, a.ID, rel.ID)))
}

func TestFavorites_IdempotentAndClamped(t *testing.T) {
	fx := testutil.NewFixture(t)
	favs := NewFavoriteRepository(fx.DB)
	clips := NewClipRepository(fx.DB)
	ctx := context.Background()
	c := fx.Clip("clip")

	added, err := favs.AddClip(ctx, fx.Submitter.ID, c.ID)
	require.NoError(t, err)
	assert.True(t, added)
	added, err = favs.AddClip(ctx, fx.Submitter.ID, c.ID)
	require.NoError(t, err)
	assert.False(t, added)

	m, err := favs.ClipIDsFavorited(ctx, fx.Submitter.ID, []string{c.ID, "other"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{c.ID: true}, m)

	require.NoError(t, clips.AdjustFavoriteCount(ctx, c.ID, -3))
	got, err := clips.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.FavoriteCount)

	assert.True(t, IsNotFound(clips.AdjustFavoriteCount(ctx, "missing", 1)))
}

func TestCollections_Positions(t *testing.T) {
	fx := testutil.NewFixture(t)
	repo := NewCollectionRepository(fx.DB)
	ctx := context.Background()
	col := &model.Collection{ID: "col-1", UserID: fx.Submitter.ID, Title: "t"}
	require.NoError(t, repo.Create(ctx, col))

	c1, c2, c3 := fx.Clip("one"), fx.Clip("two"), fx.Clip("three")
	for _, c := range []*model.Clip{c1, c2, c3, c1} {
		_, err := repo.AddClip(ctx, col.ID, c.ID)
		require.NoError(t, err)
	}
	removed, err := repo.RemoveClip(ctx, col.ID, c2.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	items, err := repo.ListClips(ctx, col.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, []int{0, 2}, []int{items[0].Position, items[1].Position})
	assert.Equal(t, c3.ID, items[1].Clip.ID)

	counts, err := repo.CountClips(ctx, []string{col.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[col.ID])

	require.NoError(t, repo.Delete(ctx, col.ID))
	assert.True(t, IsNotFound(repo.Delete(ctx, col.ID)))
}

func TestVotes_SetAndClear(t *testing.T) {
	fx := testutil.NewFixture(t)
	repo := NewVoteRepository(fx.DB)
	ctx := context.Background()

	v, err := repo.Get(ctx, fx.Submitter.ID, model.VoteTargetClip, "c1")
	require.NoError(t, err)
	assert.Zero(t, v)

	require.NoError(t, repo.Set(ctx, fx.Submitter.ID, model.VoteTargetClip, "c1", 1))
	require.NoError(t, repo.Set(ctx, fx.Submitter.ID, model.VoteTargetClip, "c1", -1))
	v, err = repo.Get(ctx, fx.Submitter.ID, model.VoteTargetClip, "c1")
	require.NoError(t, err)
	assert.Equal(t, -1, v)

	require.NoError(t, repo.Clear(ctx, fx.Submitter.ID, model.VoteTargetClip, "c1"))
	v, err = repo.Get(ctx, fx.Submitter.ID, model.VoteTargetClip, "c1")
	require.NoError(t, err)
	assert.Zero(t, v)
}

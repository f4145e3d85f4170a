package repository

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/d60-Lab/sakugabase/internal/model"
	"github.com/d60-Lab/sakugabase/internal/testutil"
)

func BenchmarkRelationWrite(b *testing.B) {
	db := testutil.NewDB(b)
	repo := NewRelationRepository(db)
	ctx := context.Background()

	// 预创建部分原画师
	ids := make([]string, 1000)
	for i := range ids {
		ids[i] = testutil.CreateAnimator(b, db, fmt.Sprintf("animator %04d", i)).ID
	}

	rng := rand.New(rand.NewSource(1))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		from := ids[rng.Intn(len(ids))]
		to := ids[rng.Intn(len(ids))]
		if from == to {
			continue
		}
		_ = repo.Create(ctx, &model.AnimatorRelation{FromAnimatorID: from, ToAnimatorID: to, RelationType: model.RelationInfluence})
	}
}

func BenchmarkRelationAdjacency(b *testing.B) {
	db := testutil.NewDB(b)
	repo := NewRelationRepository(db)
	ctx := context.Background()

	// 构造：a0 有 N 个学生，同时受 N 个前辈影响
	const N = 2000
	hub := testutil.CreateAnimator(b, db, "a0")
	for i := 1; i <= N; i++ {
		other := testutil.CreateAnimator(b, db, fmt.Sprintf("a%d", i))
		_ = repo.Create(ctx, &model.AnimatorRelation{FromAnimatorID: hub.ID, ToAnimatorID: other.ID, RelationType: model.RelationMentor})
		_ = repo.Create(ctx, &model.AnimatorRelation{FromAnimatorID: other.ID, ToAnimatorID: hub.ID, RelationType: model.RelationInfluence})
	}

	b.ResetTimer()
	b.Run("ListOutgoing", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = repo.ListOutgoing(ctx, hub.ID)
		}
	})

	b.Run("ListIncoming", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = repo.ListIncoming(ctx, hub.ID)
		}
	})
}

// graphbench 对比有无 redis 图谱缓存时的影响图遍历延迟
package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/sakugabase/config"
	"github.com/d60-Lab/sakugabase/internal/cache"
	"github.com/d60-Lab/sakugabase/internal/model"
	"github.com/d60-Lab/sakugabase/internal/repository"
	"github.com/d60-Lab/sakugabase/internal/service"
	"github.com/d60-Lab/sakugabase/pkg/database"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func mustDo(err error) {
	if err != nil {
		panic(err)
	}
}

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

type scenarioResult struct {
	durations   []time.Duration
	hits        int64
	misses      int64
	cacheKeys   int
	memoryBytes int64
}

func main() {
	ctx := context.Background()
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	defer database.Close(db)

	animatorCount := envInt("ANIMATORS", 5000)
	fanOut := envInt("FANOUT", 4)
	requests := envInt("REQUESTS", 3000)
	depth := envInt("DEPTH", cfg.Graph.DefaultDepth)
	maxNodes := envInt("MAX_NODES", cfg.Graph.DefaultMaxNodes)

	fmt.Println("Setting up test data...")
	prefix := "bench-" + uuid.NewString()[:6] + "-"
	animators := make([]model.Animator, animatorCount)
	for i := range animators {
		animators[i] = model.Animator{ID: uuid.NewString(), Slug: fmt.Sprintf("%s%d", prefix, i), Name: fmt.Sprintf("Animator %d", i)}
	}
	mustDo(db.CreateInBatches(&animators, 1000).Error)

	// 每人随机指向 fanOut 个后辈，形成有环的关系网
	rng := rand.New(rand.NewSource(42))
	types := []model.RelationType{model.RelationMentor, model.RelationColleague, model.RelationInfluence}
	rels := make([]model.AnimatorRelation, 0, animatorCount*fanOut)
	seen := make(map[string]bool, animatorCount*fanOut)
	for i := range animators {
		for j := 0; j < fanOut; j++ {
			to := rng.Intn(animatorCount)
			t := types[rng.Intn(len(types))]
			key := fmt.Sprintf("%d:%d:%s", i, to, t)
			if to == i || seen[key] {
				continue
			}
			seen[key] = true
			rels = append(rels, model.AnimatorRelation{
				ID: uuid.NewString(), FromAnimatorID: animators[i].ID, ToAnimatorID: animators[to].ID, RelationType: t,
			})
		}
	}
	mustDo(db.CreateInBatches(&rels, 1000).Error)
	fmt.Printf("Test data ready: %d animators, %d relations\n", animatorCount, len(rels))

	// 热点分布：20% 的原画师承接 80% 的请求
	roots := make([]string, requests)
	hot := animatorCount / 5
	if hot == 0 {
		hot = 1
	}
	for i := range roots {
		if rng.Float64() < 0.8 {
			roots[i] = animators[rng.Intn(hot)].Slug
		} else {
			roots[i] = animators[rng.Intn(animatorCount)].Slug
		}
	}

	animatorRepo := repository.NewAnimatorRepository(db)
	relationRepo := repository.NewRelationRepository(db)
	q := service.GraphQuery{Depth: &depth, MaxNodes: &maxNodes}

	noCache := run(ctx, service.NewInfluenceService(animatorRepo, relationRepo, nil, cfg.Graph), roots, q)
	report("No cache", noCache)

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = cfg.Redis.Addr
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	defer client.Close()
	if err := client.Ping(ctx).Err(); err != nil {
		fmt.Printf("redis at %s unavailable, skipping cached scenario: %v\n", addr, err)
		return
	}

	gc := cache.NewGraphCache(client, cfg.Redis.GraphCacheTTL)
	cached := run(ctx, service.NewInfluenceService(animatorRepo, relationRepo, gc, cfg.Graph), roots, q)
	cached.hits, cached.misses = gc.Counters()
	cached.cacheKeys = int(client.DBSize(ctx).Val())
	cached.memoryBytes = usedMemory(ctx, client)
	report("Redis graph cache", cached)
}

func run(ctx context.Context, svc service.InfluenceService, roots []string, q service.GraphQuery) scenarioResult {
	out := make([]time.Duration, 0, len(roots))
	for _, slug := range roots {
		st := time.Now()
		if _, err := svc.Graph(ctx, slug, q); err != nil {
			panic(err)
		}
		out = append(out, time.Since(st))
	}
	return scenarioResult{durations: out}
}

func report(name string, r scenarioResult) {
	fmt.Printf("%-18s avg=%v p50=%v p95=%v p99=%v hits=%d misses=%d redis_keys=%d mem=%s\n",
		name, avg(r.durations), pct(r.durations, 0.50), pct(r.durations, 0.95), pct(r.durations, 0.99),
		r.hits, r.misses, r.cacheKeys, formatBytes(r.memoryBytes))
}

func usedMemory(ctx context.Context, client *redis.Client) int64 {
	info, err := client.Info(ctx, "memory").Result()
	if err != nil {
		return 0
	}
	for _, line := range strings.Split(info, "\n") {
		if v, ok := strings.CutPrefix(strings.TrimSpace(line), "used_memory:"); ok {
			n, _ := strconv.ParseInt(v, 10, 64)
			return n
		}
	}
	return 0
}

func avg(vs []time.Duration) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range vs {
		sum += v
	}
	return sum / time.Duration(len(vs))
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(math.Ceil(p*float64(len(xs)))) - 1
	if k < 0 {
		k = 0
	}
	if k >= len(xs) {
		k = len(xs) - 1
	}
	return xs[k]
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%dB", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%ciB", float64(b)/float64(div), "KMGTPE"[exp])
}

// viewbench 对比异步播放计数与同步自增
package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/d60-Lab/sakugabase/config"
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

func main() {
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	defer database.Close(db)
	ctx := context.Background()

	N := envInt("N", 10000)
	CONC := envInt("CONC", 8)
	WORKERS := envInt("WORKERS", cfg.Views.Workers)
	CLIPS := envInt("CLIPS", 100)

	// 一个提交者 + CLIPS 个已审核片段
	submitter := model.User{ID: uuid.NewString(), Username: "bench" + uuid.NewString()[:8], PasswordHash: "x"}
	submitter.Email = submitter.Username + "@bench.local"
	mustDo(db.Create(&submitter).Error)
	ids := make([]string, CLIPS)
	for i := range ids {
		c := model.Clip{
			ID:               uuid.NewString(),
			Slug:             "bench-" + uuid.NewString(),
			Title:            fmt.Sprintf("bench clip %d", i),
			VideoURL:         "videos/bench.mp4",
			DurationSeconds:  10,
			SubmissionStatus: model.StatusApproved,
			SubmittedByID:    submitter.ID,
		}
		mustDo(db.Create(&c).Error)
		ids[i] = c.ID
	}

	clips := repository.NewClipRepository(db)
	counter := service.NewViewCounter(clips, nil, cfg.Views.QueueSize)
	stop := counter.Start(WORKERS)

	// 入队延迟与最大队列长度
	maxQ := 0
	quitSample := make(chan struct{})
	go func() {
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if q := counter.QueueLen(); q > maxQ {
					maxQ = q
				}
			case <-quitSample:
				return
			}
		}
	}()

	workers := CONC
	if workers > N {
		workers = N
	}
	feed := make(chan int, N)
	for i := 0; i < N; i++ {
		feed <- i
	}
	close(feed)
	recs := make(chan time.Duration, N)
	done := make(chan struct{}, workers)
	t0 := time.Now()
	for w := 0; w < workers; w++ {
		go func() {
			for i := range feed {
				st := time.Now()
				counter.Record(ids[i%len(ids)], "")
				recs <- time.Since(st)
			}
			done <- struct{}{}
		}()
	}
	for w := 0; w < workers; w++ {
		<-done
	}
	asyncDur := time.Since(t0)
	close(recs)
	asyncRecs := make([]time.Duration, 0, N)
	for d := range recs {
		asyncRecs = append(asyncRecs, d)
	}
	close(quitSample)

	drainStart := time.Now()
	_ = stop(ctx)
	drainDur := time.Since(drainStart)

	// 同步路径：请求内直接写库
	syncRecs := make([]time.Duration, 0, N)
	t1 := time.Now()
	for i := 0; i < N; i++ {
		st := time.Now()
		_ = clips.IncrementViews(ctx, ids[i%len(ids)], 1)
		syncRecs = append(syncRecs, time.Since(st))
	}
	syncDur := time.Since(t1)

	var total int64
	db.Model(&model.Clip{}).Where("submitted_by_id = ?", submitter.ID).Select("COALESCE(SUM(view_count), 0)").Scan(&total)

	fmt.Printf("N=%d, CONC=%d, WORKERS=%d, CLIPS=%d\n", N, workers, WORKERS, CLIPS)
	fmt.Printf("Async record total: %v, per op: %v, p50: %v, p95: %v, p99: %v, maxQueue=%d, drain=%v\n",
		asyncDur, asyncDur/time.Duration(N), pct(asyncRecs, 0.50), pct(asyncRecs, 0.95), pct(asyncRecs, 0.99), maxQ, drainDur)
	fmt.Printf("Sync increment total: %v, per op: %v, p50: %v, p95: %v, p99: %v\n",
		syncDur, syncDur/time.Duration(N), pct(syncRecs, 0.50), pct(syncRecs, 0.95), pct(syncRecs, 0.99))
	fmt.Printf("Views persisted: %d (expected up to %d)\n", total, 2*N)
}

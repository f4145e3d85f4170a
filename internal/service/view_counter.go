package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/sakugabase/internal/metrics"
	"github.com/d60-Lab/sakugabase/internal/repository"
	"github.com/d60-Lab/sakugabase/pkg/logger"
)

// ViewDeduper 判断一次观看是否需要计数
type ViewDeduper interface {
	FirstView(ctx context.Context, clipID, viewer string) (bool, error)
}

type viewJob struct {
	clipID string
	viewer string
	enqAt  time.Time
}

// ViewCounter 本地异步播放计数：有界队列 + 后台 worker，调用方不等待结果
type ViewCounter struct {
	clips  repository.ClipRepository
	dedupe ViewDeduper
	ch     chan viewJob
	wg     sync.WaitGroup
}

// NewViewCounter dedupe 可为 nil（不去重）
func NewViewCounter(clips repository.ClipRepository, dedupe ViewDeduper, queueSize int) *ViewCounter {
	if queueSize <= 0 {
		queueSize = 10000
	}
	return &ViewCounter{clips: clips, dedupe: dedupe, ch: make(chan viewJob, queueSize)}
}

// Start 启动 worker，返回停止函数
func (v *ViewCounter) Start(workers int) func(context.Context) error {
	if workers <= 0 {
		workers = 4
	}
	stopCh := make(chan struct{})
	for i := 0; i < workers; i++ {
		v.wg.Add(1)
		go func() {
			defer v.wg.Done()
			for {
				select {
				case job := <-v.ch:
					v.apply(job)
				case <-stopCh:
					return
				}
			}
		}()
	}
	return func(ctx context.Context) error {
		// 先给队列一小段时间排空
		drain := time.NewTimer(2 * time.Second)
		defer drain.Stop()
	wait:
		for len(v.ch) > 0 {
			select {
			case <-ctx.Done():
				break wait
			case <-drain.C:
				break wait
			case <-time.After(20 * time.Millisecond):
			}
		}
		close(stopCh)
		v.wg.Wait()
		if n := len(v.ch); n > 0 {
			logger.Warn("view counter stopped with pending views", zap.Int("pending", n))
		}
		return nil
	}
}

func (v *ViewCounter) apply(job viewJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if v.dedupe != nil {
		first, err := v.dedupe.FirstView(ctx, job.clipID, job.viewer)
		if err != nil {
			logger.Warn("view dedupe failed", zap.String("clip", job.clipID), zap.Error(err))
		}
		if !first {
			metrics.ViewsDeduplicated.Inc()
			return
		}
	}
	if err := v.clips.IncrementViews(ctx, job.clipID, 1); err != nil {
		logger.Warn("increment views failed", zap.String("clip", job.clipID), zap.Error(err))
		return
	}
	metrics.ViewQueueDelay.Observe(time.Since(job.enqAt).Seconds())
}

// Record 非阻塞入队；队列满时丢弃
func (v *ViewCounter) Record(clipID, viewer string) {
	select {
	case v.ch <- viewJob{clipID: clipID, viewer: viewer, enqAt: time.Now()}:
		metrics.ViewsQueued.Inc()
	default:
		metrics.ViewsDropped.Inc()
		logger.Warn("view queue full, drop view", zap.String("clip", clipID))
	}
}

// QueueLen 当前队列长度（采样值）
func (v *ViewCounter) QueueLen() int { return len(v.ch) }

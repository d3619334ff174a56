// Package batch 提供多文档的并发序列化/反序列化
//
// 引擎的单次调用是同步单线程的（无内部并行），batch 只在
// 文档之间做并发: 固定大小 goroutine 池承载执行，结果按输入
// 顺序返回。每个文档独立构造选项实例，调用级状态（visited 集、
// 扫描游标）绝不跨文档共享。
//
// 用法:
//
//	r, _ := batch.New(0, nil)
//	defer r.Close()
//	texts, err := r.SerializeAll([]any{a, b, c})
package batch

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/errgroup"

	"github.com/uniyakcom/knit"
)

// Runner 并发批处理器（池可跨批次复用，Close 释放）
type Runner struct {
	pool *ants.Pool
	log  *slog.Logger
}

// New 创建批处理器
//
// size <= 0 时取 NumCPU（序列化是 CPU 密集型，不做超配）。
// logger 为 nil 时用 slog.Default()。
func New(size int, logger *slog.Logger) (*Runner, error) {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	if logger == nil {
		logger = slog.Default()
	}
	p, err := ants.NewPool(size)
	if err != nil {
		return nil, fmt.Errorf("batch: create pool: %w", err)
	}
	return &Runner{pool: p, log: logger}, nil
}

// Close 释放 goroutine 池
func (r *Runner) Close() {
	r.pool.Release()
}

// SerializeAll 并发序列化多个文档，结果按输入顺序返回
//
// 单文档失败不阻断其余文档，最终返回首个错误与已完成的结果。
func (r *Runner) SerializeAll(docs []any, opts ...knit.Option) ([]string, error) {
	out := make([]string, len(docs))
	var wg sync.WaitGroup
	var mu sync.Mutex
	var first error
	fail := func(err error) {
		mu.Lock()
		if first == nil {
			first = err
		}
		mu.Unlock()
	}
	for i := range docs {
		wg.Add(1)
		if err := r.pool.Submit(func() {
			defer wg.Done()
			s, err := knit.Serialize(docs[i], opts...)
			if err != nil {
				r.log.Error("serialize document failed", "index", i, "error", err)
				fail(fmt.Errorf("document %d: %w", i, err))
				return
			}
			out[i] = s
		}); err != nil {
			wg.Done()
			fail(err)
		}
	}
	wg.Wait()
	return out, first
}

// DeserializeAll 并发解析多个文档为值树，结果按输入顺序返回
//
// 并发度与池容量一致。任一文档解析失败返回首个错误。
func (r *Runner) DeserializeAll(texts []string) ([]*knit.Value, error) {
	out := make([]*knit.Value, len(texts))
	g := new(errgroup.Group)
	g.SetLimit(r.pool.Cap())
	for i := range texts {
		g.Go(func() error {
			v, err := knit.Deserialize(texts[i])
			if err != nil {
				r.log.Error("parse document failed", "index", i, "error", err)
				return fmt.Errorf("document %d: %w", i, err)
			}
			out[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}
	return out, nil
}

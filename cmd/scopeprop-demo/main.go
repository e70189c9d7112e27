// scopeprop-demo
//
// Runs a short, self-contained demonstration of the whole context
// propagation stack: binds a tenant key, forks work through a
// Carrier-wrapped worker pool and a structured FailureScope, and
// prints what each piece of forked work observed.
//
// Usage:
//
//	go run ./cmd/scopeprop-demo                # default pool size 4
//	go run ./cmd/scopeprop-demo -pool-size 8
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	_ "github.com/jeeves-cluster-organization/scopeprop/transmitter/baggage"
	_ "github.com/jeeves-cluster-organization/scopeprop/transmitter/diagnostic"

	"github.com/jeeves-cluster-organization/scopeprop/executor"
	"github.com/jeeves-cluster-organization/scopeprop/scope"
	"github.com/jeeves-cluster-organization/scopeprop/scopelog"
	"github.com/jeeves-cluster-organization/scopeprop/structured"
	"github.com/jeeves-cluster-organization/scopeprop/transmitter/diagnostic"
)

var tenantKey = scope.NewKey[string]("tenant")

func main() {
	poolSize := flag.Int("pool-size", 4, "worker pool concurrency")
	flag.Parse()

	logger := scopelog.New()
	logger.Info("scopeprop_demo_starting", "pool_size", *poolSize)

	pool := executor.Wrap(executor.NewWorkerPool(*poolSize))
	defer pool.Close(context.Background())

	err := scope.Bind(context.Background(), tenantKey, "acme-corp", func(ctx context.Context) error {
		ctx = diagnostic.EnsureRequestID(ctx)

		if err := runWorkerPoolDemo(ctx, pool); err != nil {
			return err
		}
		return runStructuredScopeDemo(ctx)
	})
	if err != nil {
		log.Fatalf("scopeprop demo failed: %v", err)
	}

	logger.Info("scopeprop_demo_finished")
}

func runWorkerPoolDemo(ctx context.Context, pool executor.Pool) error {
	fut := executor.SupplyAsync(ctx, pool, func(workerCtx context.Context) (string, error) {
		tenant, err := scope.Get(workerCtx, tenantKey)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("worker saw tenant=%s request_id=%v", tenant, diagnostic.FromContext(workerCtx)["request_id"]), nil
	})

	result, err := fut.Get(context.Background())
	if err != nil {
		return err
	}
	fmt.Println(result)
	return nil
}

func runStructuredScopeDemo(ctx context.Context) error {
	s, _ := structured.OpenFailureScope(ctx)

	for i := 0; i < 3; i++ {
		i := i
		if err := s.Fork(func(taskCtx context.Context) error {
			tenant, err := scope.Get(taskCtx, tenantKey)
			if err != nil {
				return err
			}
			time.Sleep(5 * time.Millisecond)
			fmt.Printf("subtask %d saw tenant=%s\n", i, tenant)
			return nil
		}); err != nil {
			return err
		}
	}

	if err := s.Join(); err != nil {
		return err
	}
	return s.Close()
}

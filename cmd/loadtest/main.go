package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	natsadapter "github.com/SolaceHarmony/SolaceCore-sub002/adapters/nats"
	"github.com/SolaceHarmony/SolaceCore-sub002/core/actor"
	"github.com/SolaceHarmony/SolaceCore-sub002/core/connection"
	"github.com/SolaceHarmony/SolaceCore-sub002/core/port"
	"github.com/SolaceHarmony/SolaceCore-sub002/core/snapshot"
	"github.com/SolaceHarmony/SolaceCore-sub002/ports/kv"
)

// === Config ===

// NOTE: run nats: docker run --net=host nats:latest -js

var (
	logLevel     = slog.LevelWarn
	N            = getEnvInt("N", 500_000)
	batchSize    = getEnvInt("B", 10_000)
	backendType  = getEnv("BACKEND", "mem")
	snapEvery    = getEnvInt("SNAPSHOT_EVERY", 0)
	useConvert   = getEnvBool("CONVERT", false)
	mailboxDepth = getEnvInt("BUFFER", 1024)
)

func getEnvBool(key string, fallback bool) bool {
	v := getEnv(key, "0")
	if v == "" {
		return fallback
	}
	if v == "1" || strings.ToLower(v) == "true" {
		return true
	}
	return false
}

func getEnv(key, fallback string) string {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, fmt.Sprintf("%d", fallback)))
	if err != nil {
		return fallback
	}
	return v
}

func main() {
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))

	fmt.Printf(" Backend: %s\n", backendType)
	fmt.Printf(" Convert: %s\n", strconv.FormatBool(useConvert))
	fmt.Printf("Snapshot: every %d messages\n", snapEvery)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	repo := createRepo()

	// === build the pipeline ===

	out, err := port.NewFor[int]("loadtest-out", port.WithBuffer(mailboxDepth))
	checkErr(err)
	defer out.Dispose()

	src := actor.New(actor.Options{
		Name:          "loadtest-src",
		Context:       ctx,
		Logger:        log,
		DefaultBuffer: mailboxDepth,
	})
	defer src.Dispose()

	in, err := actor.CreatePortFor[int](src, "in", func(ctx context.Context, v int) (int, error) {
		doubled := v * 2
		if err := port.SendValue(ctx, out, doubled); err != nil {
			return 0, err
		}
		return doubled, nil
	})
	checkErr(err)

	sink := actor.New(actor.Options{
		Name:          "loadtest-sink",
		Context:       ctx,
		Logger:        log,
		DefaultBuffer: mailboxDepth,
	})
	defer sink.Dispose()

	done := make(chan struct{})
	received := 0
	var sinkIn *port.Port
	var conn *connection.PortConnection

	if useConvert {
		sinkIn, err = actor.CreatePortFor[string](sink, "in", func(_ context.Context, v string) (string, error) {
			received++
			if received == N {
				close(done)
			}
			return v, nil
		})
		checkErr(err)
		conn, err = connection.Connect(out, sinkIn,
			connection.WithRules(connection.RuleFor[int, string]("itoa", func(_ context.Context, v int) (string, error) {
				return strconv.Itoa(v), nil
			})),
		)
	} else {
		sinkIn, err = actor.CreatePortFor[int](sink, "in", func(_ context.Context, v int) (int, error) {
			received++
			if received == N {
				close(done)
			}
			return v, nil
		})
		checkErr(err)
		conn, err = connection.Connect(out, sinkIn)
	}
	checkErr(err)
	checkErr(conn.Start(ctx))
	defer conn.StopAndJoin()

	src.Start()
	sink.Start()

	// === START ===

	fmt.Println("==================================")
	fmt.Println("Starting ...")

	startAt := time.Now()
	lastTime := time.Now()

	for i := 1; i <= N; i++ {
		checkErr(port.SendValue(ctx, in, i))

		if snapEvery > 0 && i%snapEvery == 0 {
			checkErr(repo.Save(ctx, src))
		}

		if i%batchSize == 0 {
			mu := getMemUsage()

			n := time.Now()
			took := n.Sub(lastTime)
			fmt.Printf(" | %6d msgs | %6d ms | %7d msgs/s | (%d / %d) MiB mem (sys) |\n", batchSize, took.Milliseconds(), int(float64(batchSize)/took.Seconds()), mu.Alloc/1024/1024, mu.Sys/1024/1024)
			lastTime = n
		}
	}

	select {
	case <-done:
	case <-ctx.Done():
		fmt.Println("timed out waiting for sink")
		os.Exit(1)
	}

	checkErr(repo.Save(ctx, src))
	checkErr(repo.Save(ctx, sink))

	// === stats ===
	fmt.Println("")
	fmt.Println("==========================================")

	doneAt := time.Now()
	took := doneAt.Sub(startAt)
	runtime.GC()

	fmt.Printf("total runtime: %.3f seconds\n", took.Seconds())
	fmt.Printf("avg. msgs/s: %d\n", int(float64(N)/took.Seconds()))
	fmt.Printf("src metrics: %v\n", src.Metrics())
	fmt.Printf("sink metrics: %v\n", sink.Metrics())
}

// === stats helpers ===

type MemUsage struct {
	Alloc      uint64 // bytes allocated and not yet freed (heap)
	TotalAlloc uint64 // cumulative bytes allocated
	Sys        uint64 // total bytes obtained from OS
	NumGC      uint32 // gc cycles
}

func getMemUsage() MemUsage {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemUsage{
		Alloc:      m.Alloc,
		TotalAlloc: m.TotalAlloc,
		Sys:        m.Sys,
		NumGC:      m.NumGC,
	}
}

// === Snapshot backend ===

func createRepo() *snapshot.Repository {
	var store kv.Store
	switch backendType {
	case "nats":
		s, err := natsadapter.NewStore(natsadapter.Config{
			Connect: natsadapter.ConnectDefault(),
			Bucket:  "loadtest_snapshots",
		})
		checkErr(err)
		store = s
	case "file":
		s, err := kv.NewFileStore("./loadtest-snapshots")
		checkErr(err)
		store = s
	default:
		store = kv.NewMemStore()
	}
	return snapshot.NewRepository(store, snapshot.Options{})
}

// === Helpers ===

func checkErr(err error) {
	if err != nil {
		panic(err)
	}
}

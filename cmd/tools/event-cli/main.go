package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/annel0/skirmish/internal/effects"
	"github.com/annel0/skirmish/internal/eventbus"
)

const (
	defaultNatsURL = "nats://127.0.0.1:4222"
	timeFormat     = "15:04:05.000"
)

func main() {
	var (
		natsURL    = flag.String("url", defaultNatsURL, "NATS server URL")
		stream     = flag.String("stream", "EFFECTS", "JetStream stream name")
		command    = flag.String("cmd", "tail", "Command: tail, stats")
		eventTypes = flag.String("types", "", "Effect refs filter (comma-separated)")
		limit      = flag.Int("limit", 0, "Stop after N events (0 = unlimited)")
		duration   = flag.Duration("for", 10*time.Second, "Collection window for stats")
	)
	flag.Parse()

	bus, err := eventbus.NewJetStreamBus(*natsURL, *stream, time.Hour)
	if err != nil {
		log.Fatalf("❌ Failed to connect to NATS: %v", err)
	}
	defer bus.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	filter := eventbus.Filter{Types: parseStringList(*eventTypes)}

	switch *command {
	case "tail":
		if err := tailEvents(ctx, bus, filter, *limit); err != nil {
			log.Fatalf("❌ Tail failed: %v", err)
		}
	case "stats":
		ctx, cancel := context.WithTimeout(ctx, *duration)
		defer cancel()
		if err := showStats(ctx, bus, filter); err != nil {
			log.Fatalf("❌ Stats failed: %v", err)
		}
	default:
		fmt.Printf("❌ Unknown command: %s\n", *command)
		fmt.Println("Available commands: tail, stats")
		os.Exit(1)
	}
}

// tailEvents выводит события эффектов в реальном времени
func tailEvents(ctx context.Context, bus eventbus.EventBus, filter eventbus.Filter, limit int) error {
	fmt.Printf("🎬 Tailing effect events (limit: %d)\n", limit)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu    sync.Mutex
		count int
	)
	sub, err := bus.Subscribe(ctx, filter, func(_ context.Context, ev *eventbus.Envelope) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Println(formatEvent(ev))
		count++
		if limit > 0 && count >= limit {
			cancel()
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	defer sub.Unsubscribe()

	<-ctx.Done()
	fmt.Printf("📊 Received %d events\n", count)
	return nil
}

// showStats считает события по ref за окно наблюдения
func showStats(ctx context.Context, bus eventbus.EventBus, filter eventbus.Filter) error {
	var (
		mu     sync.Mutex
		counts = make(map[string]int)
	)
	sub, err := bus.Subscribe(ctx, filter, func(_ context.Context, ev *eventbus.Envelope) {
		mu.Lock()
		counts[ev.EventType]++
		mu.Unlock()
	})
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	defer sub.Unsubscribe()

	<-ctx.Done()

	mu.Lock()
	defer mu.Unlock()
	fmt.Println(formatStats(counts))
	return nil
}

// formatEvent выводит событие в читаемом формате
func formatEvent(ev *eventbus.Envelope) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] t=%dms %s %s", ev.Timestamp.Format(timeFormat), ev.SimTimeMs, ev.EventType, ev.ID)

	var payload effects.Payload
	if err := json.Unmarshal(ev.Payload, &payload); err == nil {
		fmt.Fprintf(&b, "\n  Entity: %d at (%.1f, %.1f)", payload.EntityID, payload.X, payload.Y)
		if len(payload.Params) > 0 {
			keys := make([]string, 0, len(payload.Params))
			for k := range payload.Params {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(&b, " %s=%v", k, payload.Params[k])
			}
		}
	}
	return b.String()
}

// formatStats формирует таблицу счётчиков по убыванию
func formatStats(counts map[string]int) string {
	refs := make([]string, 0, len(counts))
	total := 0
	for ref, n := range counts {
		refs = append(refs, ref)
		total += n
	}
	sort.Slice(refs, func(i, j int) bool {
		if counts[refs[i]] != counts[refs[j]] {
			return counts[refs[i]] > counts[refs[j]]
		}
		return refs[i] < refs[j]
	})

	var b strings.Builder
	fmt.Fprintf(&b, "📊 Total events: %d\n", total)
	for _, ref := range refs {
		fmt.Fprintf(&b, "  %-24s %d\n", ref, counts[ref])
	}
	return b.String()
}

// parseStringList парсит строку с разделителями-запятыми
func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

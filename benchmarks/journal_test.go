package benchmarks

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/randalmurphal/toolgraph/pkg/agent"
	"github.com/randalmurphal/toolgraph/pkg/flowgraph/journal"
)

func sampleState(b *testing.B) []byte {
	b.Helper()
	s := agent.NewState("Quelle est la météo à Paris?").Merge(agent.State{
		Thoughts:    agent.Some("The user asks about the current weather in Paris."),
		ToolName:    agent.Some(agent.ToolWeather),
		ToolInput:   agent.Some("Paris"),
		Observation: agent.Some("In Paris, it is 18.5°C with partly cloudy. Humidity: 60%, Wind: 10.2 km/h"),
	})
	data, err := json.Marshal(s)
	if err != nil {
		b.Fatal(err)
	}
	return data
}

func benchAppend(b *testing.B, store journal.Store) {
	b.Helper()
	data := sampleState(b)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := store.Append(ctx, journal.NewEntry("run-1", i+1, "invoke_weather", data)); err != nil {
			b.Fatal(err)
		}
	}
}

func benchList(b *testing.B, store journal.Store) {
	b.Helper()
	data := sampleState(b)
	ctx := context.Background()
	for i := 0; i < 6; i++ {
		if err := store.Append(ctx, journal.NewEntry("run-1", i+1, "step", data)); err != nil {
			b.Fatal(err)
		}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = store.List(ctx, "run-1")
	}
}

func newSQLite(b *testing.B) journal.Store {
	b.Helper()
	store, err := journal.NewSQLiteStore(filepath.Join(b.TempDir(), "journal.db"))
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { store.Close() })
	return store
}

func BenchmarkMemoryStore_Append(b *testing.B) {
	benchAppend(b, journal.NewMemoryStore())
}

func BenchmarkMemoryStore_List(b *testing.B) {
	benchList(b, journal.NewMemoryStore())
}

func BenchmarkSQLiteStore_Append(b *testing.B) {
	benchAppend(b, newSQLite(b))
}

func BenchmarkSQLiteStore_List(b *testing.B) {
	benchList(b, newSQLite(b))
}

package journal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgnsrekt/tabfence/internal/policy"
	"github.com/dgnsrekt/tabfence/internal/types"
)

func sampleEntry(i int) Entry {
	return NewEntry(
		types.Navigation{
			TabID:     types.TabID(fmt.Sprintf("tab-%d", i)),
			WindowID:  1,
			URL:       fmt.Sprintf("https://example.com/%d", i),
			MainFrame: true,
		},
		policy.Decision{
			Outcome: policy.OutcomeProceed,
			Reason:  policy.ReasonSameGroup,
			Domain:  "example.com",
		},
	)
}

func TestRingKeepsNewestFirst(t *testing.T) {
	r := NewRing(3)
	for i := 0; i < 5; i++ {
		r.Add(sampleEntry(i))
	}

	got := r.Recent(10)
	if len(got) != 3 {
		t.Fatalf("Recent() returned %d entries, want 3", len(got))
	}
	want := []types.TabID{"tab-4", "tab-3", "tab-2"}
	for i, e := range got {
		if e.TabID != want[i] {
			t.Fatalf("Recent()[%d].TabID = %s, want %s", i, e.TabID, want[i])
		}
	}
	if r.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", r.Len())
	}
}

func TestRingRecentHonorsLimit(t *testing.T) {
	r := NewRing(8)
	for i := 0; i < 4; i++ {
		r.Add(sampleEntry(i))
	}
	if got := r.Recent(2); len(got) != 2 || got[0].TabID != "tab-3" {
		t.Fatalf("Recent(2) = %v", got)
	}
	if got := r.Recent(0); len(got) != 0 {
		t.Fatalf("Recent(0) returned %d entries", len(got))
	}
}

func TestEmptyRing(t *testing.T) {
	r := NewRing(4)
	if got := r.Recent(10); len(got) != 0 {
		t.Fatalf("Recent() on empty ring = %v", got)
	}
}

func TestBrokerFanout(t *testing.T) {
	b := NewBroker()
	id1, ch1 := b.Subscribe()
	_, ch2 := b.Subscribe()

	if b.ClientCount() != 2 {
		t.Fatalf("ClientCount() = %d, want 2", b.ClientCount())
	}

	e := sampleEntry(1)
	b.Publish(e)

	for i, ch := range []<-chan Entry{ch1, ch2} {
		select {
		case got := <-ch:
			if got.TabID != e.TabID {
				t.Fatalf("subscriber %d got %s, want %s", i, got.TabID, e.TabID)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d received nothing", i)
		}
	}

	b.Unsubscribe(id1)
	if _, ok := <-ch1; ok {
		t.Fatal("channel open after Unsubscribe")
	}
	if b.ClientCount() != 1 {
		t.Fatalf("ClientCount() = %d, want 1", b.ClientCount())
	}
}

func TestJournalRecordReachesAllSinks(t *testing.T) {
	j := New(16, nil)
	_, ch := j.Subscribe()

	e := sampleEntry(1)
	j.Record(e)

	recent := j.Recent(1)
	if len(recent) != 1 || recent[0].ID != e.ID {
		t.Fatalf("Recent() = %v, want recorded entry", recent)
	}
	select {
	case got := <-ch:
		if got.ID != e.ID {
			t.Fatalf("stream got %s, want %s", got.ID, e.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("stream received nothing")
	}
	if err := j.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

func TestLineWriterPersistsEntries(t *testing.T) {
	dir := t.TempDir()
	w := NewLineWriter(dir, 8, 10)

	first := sampleEntry(1)
	second := sampleEntry(2)
	if err := w.Write(first); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Write(second); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	date := time.Now().UTC().Format("2006-01-02")
	data, err := os.ReadFile(filepath.Join(dir, date, "decisions.jsonl"))
	if err != nil {
		t.Fatalf("read journal file: %v", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	var entries []Entry
	for dec.More() {
		var e Entry
		if err := dec.Decode(&e); err != nil {
			t.Fatalf("decode line: %v", err)
		}
		entries = append(entries, e)
	}
	if len(entries) != 2 {
		t.Fatalf("journal file holds %d entries, want 2", len(entries))
	}
	if entries[0].ID != first.ID || entries[1].ID != second.ID {
		t.Fatalf("entries out of order: %s, %s", entries[0].ID, entries[1].ID)
	}
}

package trace

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestCanonicalJSON_IndependentOfInsertionOrder(t *testing.T) {
	tr1 := BuildTrace{
		GraphHash: "graph-abc",
		Events: []Event{
			{Kind: EventStepExecuted, StepID: "gen-jsautokw.h"},
			{Kind: EventStepUpToDate, StepID: "cc-jskwgen"},
			{Kind: EventStepSkipped, StepID: "obj-jsapi.c", Reason: ReasonUpstreamFailed, CauseStepID: "gen-jsautokw.h"},
		},
	}
	tr2 := BuildTrace{
		GraphHash: "graph-abc",
		Events: []Event{
			{Kind: EventStepSkipped, StepID: "obj-jsapi.c", CauseStepID: "gen-jsautokw.h", Reason: ReasonUpstreamFailed},
			{Kind: EventStepUpToDate, StepID: "cc-jskwgen"},
			{Kind: EventStepExecuted, StepID: "gen-jsautokw.h"},
		},
	}

	b1, err := tr1.CanonicalJSON()
	if err != nil {
		t.Fatalf("canonical json (1): %v", err)
	}
	b2, err := tr2.CanonicalJSON()
	if err != nil {
		t.Fatalf("canonical json (2): %v", err)
	}
	if !bytes.Equal(b1, b2) {
		t.Fatalf("expected identical bytes\n1=%s\n2=%s", b1, b2)
	}

	h1, _ := tr1.Hash()
	h2, _ := tr2.Hash()
	if h1 == "" || h1 != h2 {
		t.Fatalf("expected identical non-empty hashes, got %q and %q", h1, h2)
	}
}

func TestCanonicalJSON_ExactBytes(t *testing.T) {
	tr := BuildTrace{
		GraphHash: "g",
		Events: []Event{
			{Kind: EventStepExecuted, StepID: "b"},
			{Kind: EventOutputsRestored, StepID: "a", Outputs: []string{"js/z.h", "js/a.h"}},
			{Kind: EventStepUpToDate, StepID: "a", Outputs: []string{}},
		},
	}
	b, err := tr.CanonicalJSON()
	if err != nil {
		t.Fatalf("canonical json: %v", err)
	}
	expected := `{"graphHash":"g","events":[` +
		`{"kind":"StepUpToDate","stepId":"a"},` +
		`{"kind":"OutputsRestored","stepId":"a","outputs":["js/a.h","js/z.h"]},` +
		`{"kind":"StepExecuted","stepId":"b"}]}`
	if string(b) != expected {
		t.Fatalf("unexpected canonical bytes\nexpected=%s\nactual  =%s", expected, b)
	}
}

func TestCanonicalJSON_DoesNotMutateReceiver(t *testing.T) {
	events := []Event{
		{Kind: EventStepExecuted, StepID: "b"},
		{Kind: EventStepExecuted, StepID: "a"},
	}
	tr := BuildTrace{GraphHash: "g", Events: events}
	if _, err := tr.CanonicalJSON(); err != nil {
		t.Fatal(err)
	}
	if events[0].StepID != "b" {
		t.Fatal("CanonicalJSON reordered the caller's events")
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]BuildTrace{
		"missing graph hash": {Events: []Event{{Kind: EventStepExecuted, StepID: "a"}}},
		"missing kind":       {GraphHash: "g", Events: []Event{{StepID: "a"}}},
		"unknown kind":       {GraphHash: "g", Events: []Event{{Kind: "TaskCached", StepID: "a"}}},
		"missing step":       {GraphHash: "g", Events: []Event{{Kind: EventStepFailed}}},
		"empty output":       {GraphHash: "g", Events: []Event{{Kind: EventOutputsRestored, StepID: "a", Outputs: []string{""}}}},
	}
	for name, tr := range cases {
		if err := tr.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestRecorder_ConcurrentRecordIsCanonical(t *testing.T) {
	rec := NewRecorder()
	var wg sync.WaitGroup
	for _, name := range []string{"d", "c", "b", "a"} {
		wg.Add(1)
		go func(n string) {
			defer wg.Done()
			rec.Record(Event{Kind: EventStepExecuted, StepID: n})
		}(name)
	}
	wg.Wait()

	tr := rec.Trace("g")
	for i, want := range []string{"a", "b", "c", "d"} {
		if tr.Events[i].StepID != want {
			t.Fatalf("event %d: expected %q, got %q", i, want, tr.Events[i].StepID)
		}
	}
}

func TestSafeRecord_SwallowsPanics(t *testing.T) {
	SafeRecord(panicSink{}, Event{Kind: EventStepExecuted, StepID: "a"})
	SafeRecord(nil, Event{Kind: EventStepExecuted, StepID: "a"})
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "trace.json")
	tr := BuildTrace{GraphHash: "g", Events: []Event{{Kind: EventStepFailed, StepID: "a", Reason: ReasonNonZeroExit}}}
	if err := WriteFile(path, tr); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	expected := `{"graphHash":"g","events":[{"kind":"StepFailed","stepId":"a","reason":"NonZeroExit"}]}` + "\n"
	if string(got) != expected {
		t.Fatalf("unexpected file content %q", got)
	}
}

type panicSink struct{}

func (panicSink) Record(Event) { panic("boom") }

package ledger

import (
	"bytes"
	"encoding/json"
	"reflect"
	"testing"
)

func entry(row int, qid, llm string, score int) Entry {
	return Entry{RowIndex: row, QuestionID: qid, LLM: llm, Score: score, Page: row % 5}
}

func TestRecordThenSaveYieldsOneEntry(t *testing.T) {
	l := New()
	l.Record(entry(0, "Q1", "gpt", 4))

	res := l.Save(Key{"Q1", "gpt"})
	if res.Touched != 1 || res.Appended != 1 || res.Replaced != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	got := l.Entries()
	if len(got) != 1 || got[0].Score != 4 {
		t.Fatalf("unexpected entries: %+v", got)
	}
}

func TestLatestRecordWins(t *testing.T) {
	l := New()
	k := Key{"Q1", "gpt"}
	l.Record(entry(0, "Q1", "gpt", 4))
	l.Record(entry(0, "Q1", "gpt", 2))
	l.Save(k)

	got := l.Entries()
	if len(got) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(got))
	}
	if got[0].Score != 2 {
		t.Fatalf("expected score 2, got %d", got[0].Score)
	}
}

func TestSaveTwiceReplacesInPlace(t *testing.T) {
	l := New()
	l.Record(entry(0, "Q1", "gpt", 4))
	l.Record(entry(1, "Q1", "claude", 5))
	l.Save(Key{"Q1", "gpt"}, Key{"Q1", "claude"})

	l.Record(entry(0, "Q1", "gpt", 1))
	res := l.Save(Key{"Q1", "gpt"})
	if res.Touched != 1 || res.Replaced != 1 || res.Appended != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}

	got := l.Entries()
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].Key() != (Key{"Q1", "gpt"}) || got[0].Score != 1 {
		t.Fatalf("expected replaced entry to keep its position, got %+v", got)
	}
}

func TestSaveCountsRepeatedKeyOnce(t *testing.T) {
	l := New()
	k := Key{"Q1", "gpt"}
	l.Record(entry(5, "Q1", "gpt", 1))

	res := l.Save(k, k)
	if res.Touched != 1 || res.Appended != 1 || res.Replaced != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if got := l.Entries(); len(got) != 1 || got[0].RowIndex != 5 {
		t.Fatalf("unexpected entries: %+v", got)
	}
}

func TestSaveSkipsUnrecordedKeys(t *testing.T) {
	l := New()
	res := l.Save(Key{"Q9", "none"})
	if res.Touched != 0 {
		t.Fatalf("expected nothing saved, got %+v", res)
	}
	if l.IsSaved(Key{"Q9", "none"}) {
		t.Fatal("unrecorded key must not be marked saved")
	}
}

func TestSaveAllUnsavedEmpty(t *testing.T) {
	l := New()
	if res := l.SaveAllUnsaved(); res.Touched != 0 {
		t.Fatalf("expected zero saved, got %+v", res)
	}
}

func TestSaveAllUnsavedSkipsSavedKeys(t *testing.T) {
	l := New()
	l.Record(entry(3, "Q2", "gpt", 3))
	l.Record(entry(1, "Q1", "gpt", 5))
	l.Record(entry(2, "Q1", "claude", 2))
	l.Save(Key{"Q1", "gpt"})

	// a later edit to a saved key is not picked up by save-all
	l.Record(entry(1, "Q1", "gpt", 1))

	res := l.SaveAllUnsaved()
	if res.Touched != 2 || res.Appended != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
	got := l.Entries()
	want := []Entry{entry(1, "Q1", "gpt", 5), entry(2, "Q1", "claude", 2), entry(3, "Q2", "gpt", 3)}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("entries = %+v, want %+v", got, want)
	}
	if res := l.SaveAllUnsaved(); res.Touched != 0 {
		t.Fatalf("second save-all should be a no-op, got %+v", res)
	}
}

func TestAllSaved(t *testing.T) {
	l := New()
	a, b := Key{"Q1", "a"}, Key{"Q1", "b"}
	l.Record(entry(0, "Q1", "a", 3))
	l.Record(entry(5, "Q1", "b", 3))
	if l.AllSaved(nil) {
		t.Fatal("AllSaved(nil) must be false")
	}
	l.Save(a)
	if l.AllSaved([]Key{a, b}) {
		t.Fatal("expected partially saved page")
	}
	l.Save(b)
	if !l.AllSaved([]Key{a, b}) {
		t.Fatal("expected fully saved page")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	l := New()
	l.Record(entry(0, "Q1", "gpt", 4))
	l.Save(Key{"Q1", "gpt"})

	c := l.Clone()
	c.Record(entry(0, "Q1", "gpt", 1))
	c.Save(Key{"Q1", "gpt"})
	c.Record(entry(1, "Q2", "gpt", 5))

	if got := l.Entries()[0].Score; got != 4 {
		t.Fatalf("original mutated through clone: score=%d", got)
	}
	if _, ok := l.Recorded(Key{"Q2", "gpt"}); ok {
		t.Fatal("original working map mutated through clone")
	}
	if got := c.Entries(); len(got) != 1 || got[0].Score != 1 {
		t.Fatalf("unexpected clone entries: %+v", got)
	}
}

func TestJSONKeepsSavedSet(t *testing.T) {
	l := New()
	l.Record(entry(0, "Q1", "gpt", 4))
	l.Record(entry(1, "Q2", "gpt", 2))
	l.Save(Key{"Q1", "gpt"})

	b, err := json.Marshal(l)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Ledger
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.IsSaved(Key{"Q1", "gpt"}) || back.IsSaved(Key{"Q2", "gpt"}) {
		t.Fatal("saved set not restored")
	}
	if res := back.SaveAllUnsaved(); res.Touched != 1 {
		t.Fatalf("expected one pending entry after restore, got %+v", res)
	}
	if len(back.Entries()) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(back.Entries()))
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, []Entry{
		{RowIndex: 0, QuestionID: "Q1", LLM: "gpt", Score: 2, Page: 0},
		{RowIndex: 5, QuestionID: "Q,2", LLM: "claude", Score: 5, Page: 0},
	})
	if err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	want := "row_index,question_id,llm,score,page\n0,Q1,gpt,2,0\n5,\"Q,2\",claude,5,0\n"
	if buf.String() != want {
		t.Fatalf("csv = %q, want %q", buf.String(), want)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]Entry{
		entry(0, "Q1", "gpt", 4),
		entry(1, "Q2", "gpt", 2),
		entry(2, "Q1", "claude", 5),
	})
	if s.Count != 3 || s.Mean != 11.0/3.0 {
		t.Fatalf("unexpected totals: %+v", s)
	}
	want := []ModelSummary{{LLM: "claude", Count: 1, Mean: 5}, {LLM: "gpt", Count: 2, Mean: 3}}
	if !reflect.DeepEqual(s.ByModel, want) {
		t.Fatalf("ByModel = %+v, want %+v", s.ByModel, want)
	}
	if empty := Summarize(nil); empty.Count != 0 || empty.Mean != 0 || len(empty.ByModel) != 0 {
		t.Fatalf("unexpected empty summary: %+v", empty)
	}
}

package ledger

import (
	"encoding/json"
	"sort"
)

const (
	MinScore     = 1
	MaxScore     = 5
	DefaultScore = 3
)

func ValidScore(score int) bool {
	return score >= MinScore && score <= MaxScore
}

// Key identifies a scored response. A response is the answer of one model to
// one question, so it stays stable when the dataset rows are reordered.
type Key struct {
	QuestionID string `json:"question_id"`
	LLM        string `json:"llm"`
}

type Entry struct {
	RowIndex   int    `json:"row_index"`
	QuestionID string `json:"question_id"`
	LLM        string `json:"llm"`
	Score      int    `json:"score"`
	Page       int    `json:"page"`
}

func (e Entry) Key() Key {
	return Key{QuestionID: e.QuestionID, LLM: e.LLM}
}

// Result reports how many exportable entries a save touched.
type Result struct {
	Touched  int `json:"touched"`
	Appended int `json:"appended"`
	Replaced int `json:"replaced"`
}

func (r *Result) add(appended bool) {
	r.Touched++
	if appended {
		r.Appended++
	} else {
		r.Replaced++
	}
}

// Ledger keeps the latest recorded score per key and the exportable list of
// saved entries. The exportable list holds at most one entry per key.
type Ledger struct {
	working map[Key]Entry
	saved   []Entry
	index   map[Key]int // key -> position in saved
	flushed map[Key]struct{}
}

func New() *Ledger {
	return &Ledger{
		working: make(map[Key]Entry),
		index:   make(map[Key]int),
		flushed: make(map[Key]struct{}),
	}
}

// Record upserts the working entry for e's key.
func (l *Ledger) Record(e Entry) {
	l.working[e.Key()] = e
}

func (l *Ledger) Recorded(k Key) (Entry, bool) {
	e, ok := l.working[k]
	return e, ok
}

// Save copies the recorded entries for keys into the exportable list,
// replacing an existing entry with the same key in place. Keys without a
// recorded entry are skipped, and a key listed more than once counts once.
func (l *Ledger) Save(keys ...Key) Result {
	var res Result
	seen := make(map[Key]struct{}, len(keys))
	for _, k := range keys {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		e, ok := l.working[k]
		if !ok {
			continue
		}
		res.add(l.upsert(e))
		l.flushed[k] = struct{}{}
	}
	return res
}

// SaveAllUnsaved saves every recorded key that has never been saved, ordered
// by row index.
func (l *Ledger) SaveAllUnsaved() Result {
	pending := make([]Entry, 0, len(l.working))
	for k, e := range l.working {
		if _, ok := l.flushed[k]; !ok {
			pending = append(pending, e)
		}
	}
	sortEntries(pending)

	keys := make([]Key, len(pending))
	for i, e := range pending {
		keys[i] = e.Key()
	}
	return l.Save(keys...)
}

func (l *Ledger) upsert(e Entry) (appended bool) {
	k := e.Key()
	if i, ok := l.index[k]; ok {
		l.saved[i] = e
		return false
	}
	l.index[k] = len(l.saved)
	l.saved = append(l.saved, e)
	return true
}

func (l *Ledger) IsSaved(k Key) bool {
	_, ok := l.flushed[k]
	return ok
}

// AllSaved reports whether every key has been saved. It is false for no keys.
func (l *Ledger) AllSaved(keys []Key) bool {
	if len(keys) == 0 {
		return false
	}
	for _, k := range keys {
		if !l.IsSaved(k) {
			return false
		}
	}
	return true
}

// Entries returns a copy of the exportable list in save order.
func (l *Ledger) Entries() []Entry {
	out := make([]Entry, len(l.saved))
	copy(out, l.saved)
	return out
}

// Working returns the recorded entries ordered by row index.
func (l *Ledger) Working() []Entry {
	out := make([]Entry, 0, len(l.working))
	for _, e := range l.working {
		out = append(out, e)
	}
	sortEntries(out)
	return out
}

func (l *Ledger) Clone() *Ledger {
	c := New()
	for k, e := range l.working {
		c.working[k] = e
	}
	for k := range l.flushed {
		c.flushed[k] = struct{}{}
	}
	for _, e := range l.saved {
		c.upsert(e)
	}
	return c
}

type snapshot struct {
	Working []Entry `json:"working"`
	Saved   []Entry `json:"saved"`
	Flushed []Key   `json:"flushed"`
}

func (l *Ledger) MarshalJSON() ([]byte, error) {
	flushed := make([]Key, 0, len(l.flushed))
	for k := range l.flushed {
		flushed = append(flushed, k)
	}
	sort.Slice(flushed, func(i, j int) bool { return keyLess(flushed[i], flushed[j]) })
	return json.Marshal(snapshot{Working: l.Working(), Saved: l.Entries(), Flushed: flushed})
}

func (l *Ledger) UnmarshalJSON(b []byte) error {
	var s snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*l = *New()
	for _, e := range s.Working {
		l.Record(e)
	}
	for _, e := range s.Saved {
		l.upsert(e)
	}
	for _, k := range s.Flushed {
		l.flushed[k] = struct{}{}
	}
	return nil
}

func sortEntries(es []Entry) {
	sort.Slice(es, func(i, j int) bool {
		if es[i].RowIndex != es[j].RowIndex {
			return es[i].RowIndex < es[j].RowIndex
		}
		return keyLess(es[i].Key(), es[j].Key())
	})
}

func keyLess(a, b Key) bool {
	if a.QuestionID != b.QuestionID {
		return a.QuestionID < b.QuestionID
	}
	return a.LLM < b.LLM
}

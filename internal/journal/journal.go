// Package journal записывает упорядоченную историю решений симуляции
// (выстрелы, осечки, ошибки поведения). Две сессии с одинаковыми входными
// данными дают одинаковый Digest, что позволяет проверять детерминизм.
package journal

import (
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

// Kind - вид записи журнала
type Kind uint8

const (
	KindFire Kind = iota + 1
	KindFizzle
	KindFault
	KindSpawn
	KindDespawn
)

// String возвращает имя вида записи
func (k Kind) String() string {
	switch k {
	case KindFire:
		return "fire"
	case KindFizzle:
		return "fizzle"
	case KindFault:
		return "fault"
	case KindSpawn:
		return "spawn"
	case KindDespawn:
		return "despawn"
	default:
		return "unknown"
	}
}

// Entry - одна запись журнала
type Entry struct {
	Seq      uint64
	Now      int64
	Kind     Kind
	EntityID uint64
	Ref      string
	Detail   string
}

// DefaultLimit - сколько последних записей хранится в памяти
const DefaultLimit = 4096

// Recorder накапливает записи и поддерживает скользящий хеш всей сессии.
// Хеш учитывает все записи, даже вытесненные из буфера.
type Recorder struct {
	mu      sync.Mutex
	session string
	limit   int
	seq     uint64
	entries []Entry
	digest  *xxhash.Digest
}

// NewRecorder создаёт журнал с новым идентификатором сессии.
// limit <= 0 - DefaultLimit.
func NewRecorder(limit int) *Recorder {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Recorder{
		session: uuid.NewString(),
		limit:   limit,
		digest:  xxhash.New(),
	}
}

// Session возвращает идентификатор сессии
func (r *Recorder) Session() string {
	if r == nil {
		return ""
	}
	return r.session
}

// Record добавляет запись. Безопасен для nil-получателя.
func (r *Recorder) Record(now int64, kind Kind, entityID uint64, ref, detail string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	e := Entry{Seq: r.seq, Now: now, Kind: kind, EntityID: entityID, Ref: ref, Detail: detail}
	r.hashLocked(e)

	if len(r.entries) >= r.limit {
		copy(r.entries, r.entries[1:])
		r.entries = r.entries[:len(r.entries)-1]
	}
	r.entries = append(r.entries, e)
}

func (r *Recorder) hashLocked(e Entry) {
	buf := make([]byte, 0, 64)
	buf = strconv.AppendInt(buf, e.Now, 10)
	buf = append(buf, '|')
	buf = append(buf, e.Kind.String()...)
	buf = append(buf, '|')
	buf = strconv.AppendUint(buf, e.EntityID, 10)
	buf = append(buf, '|')
	buf = append(buf, e.Ref...)
	buf = append(buf, '|')
	buf = append(buf, e.Detail...)
	buf = append(buf, '\n')
	_, _ = r.digest.Write(buf)
}

// Entries возвращает копию хранимых записей
func (r *Recorder) Entries() []Entry {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Filter возвращает хранимые записи указанного вида
func (r *Recorder) Filter(kind Kind) []Entry {
	var out []Entry
	for _, e := range r.Entries() {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Len возвращает общее число записанных событий
func (r *Recorder) Len() uint64 {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seq
}

// Digest возвращает хеш всех записей сессии. Идентификатор сессии и
// порядковые номера в хеш не входят.
func (r *Recorder) Digest() uint64 {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.digest.Sum64()
}

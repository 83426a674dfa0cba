package store

import (
	"container/list"
	"fmt"
	"sync"
	"time"
)

// Dedup remembers processed files for a while, evicting the least recently
// seen key once full.
type Dedup struct {
	mu    sync.Mutex
	cap   int
	ttl   time.Duration
	now   func() time.Time
	ll    *list.List               // most-recent at front
	items map[string]*list.Element // key -> element
}

type entry struct {
	key string
	exp time.Time
}

func NewDedup(maxKeys int, ttl time.Duration) *Dedup {
	if maxKeys <= 0 {
		maxKeys = 10000
	}
	if ttl <= 0 {
		ttl = 168 * time.Hour
	}
	return &Dedup{cap: maxKeys, ttl: ttl, now: time.Now, ll: list.New(), items: make(map[string]*list.Element, maxKeys)}
}

// FileKey identifies one version of a file: rewriting it yields a new key.
func FileKey(path string, modTime time.Time) string {
	return fmt.Sprintf("%s@%d", path, modTime.UnixNano())
}

func (d *Dedup) Seen(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if el, ok := d.items[key]; ok {
		en := el.Value.(entry)
		if d.now().Before(en.exp) {
			d.ll.MoveToFront(el)
			return true
		}
		// expired
		d.ll.Remove(el)
		delete(d.items, key)
	}
	return false
}

func (d *Dedup) Mark(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.now()
	if el, ok := d.items[key]; ok {
		en := el.Value.(entry)
		en.exp = now.Add(d.ttl)
		el.Value = en
		d.ll.MoveToFront(el)
		return
	}
	el := d.ll.PushFront(entry{key: key, exp: now.Add(d.ttl)})
	d.items[key] = el
	for d.ll.Len() > d.cap {
		d.removeElement(d.ll.Back())
	}
	for t := d.ll.Back(); t != nil && !now.Before(t.Value.(entry).exp); t = d.ll.Back() {
		d.removeElement(t)
	}
}

// Forget drops key so the file is processed again on the next cycle.
func (d *Dedup) Forget(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if el, ok := d.items[key]; ok {
		d.removeElement(el)
	}
}

func (d *Dedup) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ll.Len()
}

func (d *Dedup) removeElement(el *list.Element) {
	d.ll.Remove(el)
	delete(d.items, el.Value.(entry).key)
}

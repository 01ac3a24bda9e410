package sync

// Waker is the minimal capability an async waiter needs: something that can
// be told to retry. kernel/runtime's Waker satisfies this interface
// structurally, so kernel/sync never has to import kernel/runtime to park
// one (spec.md §4.C: "it parks the waiter's waker and releases the
// spinlock").
type Waker interface {
	Wake()
}

// Mutex is a mutual-exclusion lock for critical sections that must span an
// await point, layered above SpinLock (spec.md §4.C). Where SpinLock busy-
// waits, a contended Mutex records the caller's Waker and returns
// immediately; the caller is expected to be driven from a Future's Poll
// method and to retry TryLock once woken. The zero value is an unlocked
// Mutex.
type Mutex struct {
	guard  SpinLock
	locked bool
	waker  Waker
}

// TryLock attempts a non-blocking acquisition. On success it returns true
// and the caller holds the mutex until it calls Unlock. On failure it
// records waker so the next Unlock wakes the caller instead of returning
// true; at most one waiter is remembered; a second contended caller
// overwrites the first, which a wrapping Future is expected to re-register
// on every poll.
func (m *Mutex) TryLock(waker Waker) bool {
	defer Guard(&m.guard)()

	if m.locked {
		m.waker = waker
		return false
	}
	m.locked = true
	return true
}

// Unlock releases the mutex and wakes the most recently parked waiter, if
// any. Unlock on an already-unlocked Mutex is a programming error, as with
// SpinLock.Release.
func (m *Mutex) Unlock() {
	var w Waker

	func() {
		defer Guard(&m.guard)()
		m.locked = false
		w, m.waker = m.waker, nil
	}()

	if w != nil {
		w.Wake()
	}
}

// TryLockGuard is TryLock followed by an Unlock-returning closure on
// success, mirroring SpinLock's Guard helper for the (rare) synchronous
// caller that knows the mutex is uncontended.
func TryLockGuard(m *Mutex) (func(), bool) {
	if !m.TryLock(nil) {
		return nil, false
	}
	return m.Unlock, true
}

package apiclient

import (
	"sync"
	"time"
)

// PermissionDeniedKey is the notification key used for every forbidden response.
const PermissionDeniedKey = "permission denied"

// DefaultNotifyWindow is how long a shown notification suppresses repeats.
const DefaultNotifyWindow = 3 * time.Second

// Notifier shows a user-visible message.
type Notifier interface {
	Notify(key, message string)
}

// NotifyFunc adapts a function to Notifier.
type NotifyFunc func(key, message string)

func (f NotifyFunc) Notify(key, message string) { f(key, message) }

// DedupNotifier forwards a message to its sink at most once per key within
// the window. The suppression lifts on its own once the window has passed.
type DedupNotifier struct {
	sink   Notifier
	window time.Duration
	now    func() time.Time

	mu    sync.Mutex
	shown map[string]time.Time
}

func NewDedupNotifier(sink Notifier, window time.Duration) *DedupNotifier {
	if window <= 0 {
		window = DefaultNotifyWindow
	}
	return &DedupNotifier{
		sink:   sink,
		window: window,
		now:    time.Now,
		shown:  make(map[string]time.Time),
	}
}

func (n *DedupNotifier) Notify(key, message string) {
	now := n.now()

	n.mu.Lock()
	if at, ok := n.shown[key]; ok && now.Sub(at) < n.window {
		n.mu.Unlock()
		return
	}
	n.shown[key] = now
	n.mu.Unlock()

	n.sink.Notify(key, message)
}

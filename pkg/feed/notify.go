package feed

import "sync"

// NoticeKind classifies a user-visible notification
type NoticeKind int

const (
	NoticeError NoticeKind = iota
	NoticeLoginRequired
	NoticeInfo
)

func (k NoticeKind) String() string {
	switch k {
	case NoticeError:
		return "error"
	case NoticeLoginRequired:
		return "login_required"
	default:
		return "info"
	}
}

// Notice is a message for the user
type Notice struct {
	Kind    NoticeKind
	Message string
	Err     error
}

// Notifier surfaces notices to the user
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

type nopNotifier struct{}

func (nopNotifier) Notify(Notice) {}

// Recorder keeps every notice it receives
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *Recorder) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

// Notices returns a copy of what was recorded
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}

// Count returns how many notices of kind were recorded
func (r *Recorder) Count(kind NoticeKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, notice := range r.notices {
		if notice.Kind == kind {
			n++
		}
	}
	return n
}

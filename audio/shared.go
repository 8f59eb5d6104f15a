package audio

import "sync"

// The host audio session is process-wide. Open hands out references to a
// single underlying Session, created on first use and closed when the last
// reference is closed.
var (
	sharedMu   sync.Mutex
	sharedSess Session
	sharedRefs int
)

type sharedRef struct {
	Session
	once sync.Once
}

func (r *sharedRef) Close() {
	r.once.Do(release)
}

func release() {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	sharedRefs--
	if sharedRefs == 0 && sharedSess != nil {
		sharedSess.Close()
		sharedSess = nil
	}
}

// Open returns a reference to the process-wide session, calling newFn only
// when no session is open.
func Open(newFn func() (Session, error)) (Session, error) {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if sharedSess == nil {
		s, err := newFn()
		if err != nil {
			return nil, err
		}
		sharedSess = s
	}
	sharedRefs++
	return &sharedRef{Session: sharedSess}, nil
}

package tree

import (
	"errors"
	"fmt"
	"testing"
)

// newTestStore returns a store with sequential ids ("id-1", "id-2", ...) and a
// clock that advances one millisecond per call.
func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	var seq int
	var clock int64 = 1000
	base := []Option{
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		}),
		WithClock(func() int64 {
			clock++
			return clock
		}),
	}
	return NewStore(append(base, opts...)...)
}

// recordingPersister keeps every write.
type recordingPersister struct {
	blobs  map[string][]byte
	writes int
	err    error
}

func newRecordingPersister() *recordingPersister {
	return &recordingPersister{blobs: make(map[string][]byte)}
}

func (p *recordingPersister) Read(name string) ([]byte, error) {
	return p.blobs[name], nil
}

func (p *recordingPersister) Write(name string, data []byte) error {
	if p.err != nil {
		return p.err
	}
	p.writes++
	p.blobs[name] = append([]byte(nil), data...)
	return nil
}

var errDiskFull = errors.New("disk full")

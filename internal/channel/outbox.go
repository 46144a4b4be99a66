package channel

import (
	"encoding/binary"
	"errors"
	"sync"

	"github.com/smallnest/ringbuffer"
)

var errFrameTooLarge = errors.New("frame too large for outbox")

// outbox is a bounded FIFO of encoded commands sitting on a byte ring.
// Frames are length-prefixed (4 bytes little endian). When full, the oldest
// frames are evicted so the most recent intent (usually a STOP) survives.
type outbox struct {
	mu sync.Mutex
	rb *ringbuffer.RingBuffer
}

func newOutbox(size int) *outbox {
	return &outbox{
		rb: ringbuffer.New(size).SetBlocking(false),
	}
}

// enqueue returns how many older frames were evicted to make room.
func (o *outbox) enqueue(frame []byte) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	required := len(frame) + 4
	if required > o.rb.Capacity() {
		return 0, errFrameTooLarge
	}

	evicted := 0
	for o.rb.Free() < required {
		if !o.dropOldest() {
			// can't parse the ring anymore, start over
			o.rb.Reset()
			break
		}
		evicted++
	}

	var size [4]byte
	binary.LittleEndian.PutUint32(size[:], uint32(len(frame)))
	if _, err := o.rb.Write(size[:]); err != nil {
		return evicted, err
	}
	_, err := o.rb.Write(frame)
	return evicted, err
}

func (o *outbox) dequeue() ([]byte, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.readFrame()
}

func (o *outbox) dropOldest() bool {
	_, ok := o.readFrame()
	return ok
}

func (o *outbox) readFrame() ([]byte, bool) {
	if o.rb.IsEmpty() {
		return nil, false
	}

	var size [4]byte
	n, err := o.rb.Read(size[:])
	if err != nil || n != 4 {
		return nil, false
	}

	frame := make([]byte, binary.LittleEndian.Uint32(size[:]))
	if len(frame) == 0 {
		return frame, true
	}
	n, err = o.rb.Read(frame)
	if err != nil || n != len(frame) {
		return nil, false
	}
	return frame, true
}

func (o *outbox) len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.rb.Length()
}

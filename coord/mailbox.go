package coord

import (
	"context"
	"fmt"
	"time"
)

// Message is one mailbox entry.
type Message struct {
	Timestamp time.Time `json:"timestamp"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
}

// mailbox is a per-device FIFO queue. arrived is closed and replaced on
// every append so waiters can block outside the coordinator lock.
type mailbox struct {
	queue   []Message
	arrived chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{arrived: make(chan struct{})}
}

// Send appends a message to the target device's mailbox. The target must be
// among the currently connected devices; the list is fetched fresh on every
// send.
func (c *Coordinator) Send(ctx context.Context, deviceID, sender, content string) error {
	if deviceID == "" {
		return fmt.Errorf("target device id is required")
	}
	if content == "" {
		return fmt.Errorf("message content is required")
	}

	serials, err := c.connected(ctx)
	if err != nil {
		return fmt.Errorf("checking connected devices: %w", err)
	}
	if !serials[deviceID] {
		return fmt.Errorf("%w: %s", ErrDeviceNotConnected, deviceID)
	}

	msg := Message{Timestamp: time.Now().UTC(), Sender: sender, Content: content}

	c.mailMu.Lock()
	mb, ok := c.mail[deviceID]
	if !ok {
		mb = newMailbox()
		c.mail[deviceID] = mb
	}
	mb.queue = append(mb.queue, msg)
	close(mb.arrived)
	mb.arrived = make(chan struct{})
	c.mailMu.Unlock()

	return nil
}

// Receive drains and returns all messages queued for the device, in FIFO
// order. When the mailbox is empty it blocks until a message arrives or the
// timeout elapses, then drains whatever is queued at that moment. The
// timeout is a single overall deadline for the call, not a per-message gap,
// so a slow producer bounds latency at exactly one timeout. An expired wait
// returns an empty slice, not an error.
func (c *Coordinator) Receive(ctx context.Context, deviceID string, timeout time.Duration) ([]Message, error) {
	if deviceID == "" {
		return nil, fmt.Errorf("source device id is required")
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		c.mailMu.Lock()
		mb, ok := c.mail[deviceID]
		if !ok {
			mb = newMailbox()
			c.mail[deviceID] = mb
		}
		if len(mb.queue) > 0 {
			msgs := mb.queue
			mb.queue = nil
			c.mailMu.Unlock()
			return msgs, nil
		}
		arrived := mb.arrived
		c.mailMu.Unlock()

		select {
		case <-arrived:
		case <-deadline.C:
			return []Message{}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Clear empties the device's mailbox. Clearing an absent or already empty
// mailbox succeeds.
func (c *Coordinator) Clear(deviceID string) int {
	c.mailMu.Lock()
	defer c.mailMu.Unlock()
	mb, ok := c.mail[deviceID]
	if !ok {
		return 0
	}
	n := len(mb.queue)
	mb.queue = nil
	return n
}

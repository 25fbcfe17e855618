package coord

import "fmt"

// Share upserts a blackboard entry; the last writer wins. Values must be
// JSON-serializable since they travel back through tool results.
func (c *Coordinator) Share(key string, value any) error {
	if key == "" {
		return fmt.Errorf("data key is required")
	}
	c.boardMu.Lock()
	c.board[key] = value
	c.boardMu.Unlock()
	return nil
}

// Get reads a blackboard entry. There is no change notification; callers
// poll.
func (c *Coordinator) Get(key string) (any, error) {
	c.boardMu.RLock()
	defer c.boardMu.RUnlock()
	value, ok := c.board[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	return value, nil
}

package docstore

import (
	"context"
	"sync"
)

// LocalNotifier delivers changes to listeners in the same process.
type LocalNotifier struct {
	mu        sync.RWMutex
	listeners map[int]func(Change)
	nextID    int
}

func NewLocalNotifier() *LocalNotifier {
	return &LocalNotifier{listeners: make(map[int]func(Change))}
}

func (n *LocalNotifier) Notify(ctx context.Context, c Change) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.mu.RLock()
	fns := make([]func(Change), 0, len(n.listeners))
	for _, fn := range n.listeners {
		fns = append(fns, fn)
	}
	n.mu.RUnlock()

	for _, fn := range fns {
		fn(c)
	}
	return nil
}

func (n *LocalNotifier) Listen(ctx context.Context, fn func(Change)) error {
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.listeners[id] = fn
	n.mu.Unlock()

	<-ctx.Done()

	n.mu.Lock()
	delete(n.listeners, id)
	n.mu.Unlock()
	return ctx.Err()
}

package core

// Queue is the local play queue that NextTrack and PreviousTrack walk.
type Queue struct {
	Items        []MediaItem `json:"items"`
	CurrentIndex int         `json:"current_index"`
}

// Current returns the current item, or nil if the queue is empty.
func (q *Queue) Current() *MediaItem {
	if q == nil || len(q.Items) == 0 || q.CurrentIndex < 0 || q.CurrentIndex >= len(q.Items) {
		return nil
	}
	return &q.Items[q.CurrentIndex]
}

// Upcoming returns items after the current position.
func (q *Queue) Upcoming() []MediaItem {
	if q == nil || len(q.Items) == 0 || q.CurrentIndex < 0 || q.CurrentIndex >= len(q.Items)-1 {
		return nil
	}
	return q.Items[q.CurrentIndex+1:]
}

// Advance moves the cursor by delta and returns the new current item.
// It returns nil and leaves the cursor alone when the move falls off either end.
func (q *Queue) Advance(delta int) *MediaItem {
	if q == nil {
		return nil
	}
	next := q.CurrentIndex + delta
	if next < 0 || next >= len(q.Items) {
		return nil
	}
	q.CurrentIndex = next
	return &q.Items[next]
}

// Len returns the total number of items in the queue.
func (q *Queue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.Items)
}

// IsEmpty returns true if the queue has no items.
func (q *Queue) IsEmpty() bool {
	return q.Len() == 0
}

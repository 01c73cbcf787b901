package playback

const eventBufferSize = 16

// Subscription provides event channels for a subscriber.
type Subscription struct {
	StateChanged    <-chan StateChange
	PositionChanged <-chan PositionChange
	Error           <-chan ErrorEvent
	Message         <-chan MessageEvent
	Done            <-chan struct{}

	stateCh    chan StateChange
	positionCh chan PositionChange
	errorCh    chan ErrorEvent
	messageCh  chan MessageEvent
	doneCh     chan struct{}
}

func newSubscription() *Subscription {
	s := &Subscription{
		stateCh:    make(chan StateChange, eventBufferSize),
		positionCh: make(chan PositionChange, eventBufferSize),
		errorCh:    make(chan ErrorEvent, eventBufferSize),
		messageCh:  make(chan MessageEvent, eventBufferSize),
		doneCh:     make(chan struct{}),
	}
	s.StateChanged = s.stateCh
	s.PositionChanged = s.positionCh
	s.Error = s.errorCh
	s.Message = s.messageCh
	s.Done = s.doneCh
	return s
}

func (s *Subscription) close() {
	close(s.doneCh)
}

// Sends never block; a slow subscriber loses events.

func (s *Subscription) sendState(e StateChange) {
	select {
	case s.stateCh <- e:
	default:
	}
}

func (s *Subscription) sendPosition(e PositionChange) {
	select {
	case s.positionCh <- e:
	default:
	}
}

func (s *Subscription) sendError(e ErrorEvent) {
	select {
	case s.errorCh <- e:
	default:
	}
}

func (s *Subscription) sendMessage(e MessageEvent) {
	select {
	case s.messageCh <- e:
	default:
	}
}

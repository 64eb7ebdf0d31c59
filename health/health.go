// Package health is the built-in grpc.health.v1.Health equivalent
// (spec.md §4.H): a process-wide serving-status map with Check/Watch
// semantics, wired into grpchost as an ordinary registered service.
package health

import "sync"

// ServingStatus is one of the four states spec.md §4.H's Health service
// reports.
type ServingStatus int

const (
	Unknown ServingStatus = iota
	Serving
	NotServing
	ServiceUnknown
)

func (s ServingStatus) String() string {
	switch s {
	case Serving:
		return "SERVING"
	case NotServing:
		return "NOT_SERVING"
	case ServiceUnknown:
		return "SERVICE_UNKNOWN"
	}
	return "UNKNOWN"
}

type watcher chan ServingStatus

// State is the process-wide service_name -> status map spec.md §4.H
// names, with "" keying overall server health. Grounded on the teacher's
// small mutex-guarded registries (e.g. streams.go's Streams), generalized
// here to also fan out transitions to Watch subscribers.
type State struct {
	mu       sync.Mutex
	statuses map[string]ServingStatus
	watchers map[string][]watcher
}

// NewState returns a State with no recorded statuses: until Set is called,
// Check reports Serving for "" and ServiceUnknown for every other name.
func NewState() *State {
	return &State{
		statuses: make(map[string]ServingStatus),
		watchers: make(map[string][]watcher),
	}
}

// Set records status for service and notifies any active Watch
// subscribers of the transition.
func (s *State) Set(service string, status ServingStatus) {
	s.mu.Lock()
	s.statuses[service] = status
	subs := append([]watcher(nil), s.watchers[service]...)
	s.mu.Unlock()

	for _, w := range subs {
		select {
		case w <- status:
		default:
			// slow watcher: replace its unread, stale status with the
			// latest one, so only intermediate updates are dropped.
			select {
			case <-w:
			default:
			}
			select {
			case w <- status:
			default:
			}
		}
	}
}

// Check returns service's current status; a service never Set is
// reported as ServiceUnknown unless service is "" (overall server
// health), which defaults to Serving until explicitly changed.
func (s *State) Check(service string) ServingStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.statuses[service]; ok {
		return st
	}
	if service == "" {
		return Serving
	}
	return ServiceUnknown
}

// Watch subscribes to every status transition for service, starting with
// its current status, until the returned cancel func is called; cancel
// unsubscribes and closes the channel.
func (s *State) Watch(service string) (<-chan ServingStatus, func()) {
	ch := make(watcher, 1)
	ch <- s.Check(service)

	s.mu.Lock()
	s.watchers[service] = append(s.watchers[service], ch)
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		subs := s.watchers[service]
		for i, w := range subs {
			if w == ch {
				s.watchers[service] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		close(ch)
	}
	return ch, cancel
}

package spies

import (
	"sync"
)

// Notification names recorded by NotificationRecorder.
const (
	NotificationStarts  = "starts"
	NotificationSuccess = "success"
	NotificationError   = "error"
	NotificationEnds    = "ends"
)

// NotificationRecorder captures the Starts/Success/Error/Ends notifications of a mutation runner.
// Observe, when set, runs inside every notification and may inspect the runner's state.
type NotificationRecorder struct {
	mu       sync.Mutex
	events   []string
	messages []string
	Observe  func(notification string)
}

// NewNotificationRecorder creates an empty NotificationRecorder.
func NewNotificationRecorder() *NotificationRecorder {
	return &NotificationRecorder{}
}

func (r *NotificationRecorder) Starts()  { r.record(NotificationStarts) }
func (r *NotificationRecorder) Success() { r.record(NotificationSuccess) }
func (r *NotificationRecorder) Ends()    { r.record(NotificationEnds) }

func (r *NotificationRecorder) Error(message string) {
	r.mu.Lock()
	r.messages = append(r.messages, message)
	r.mu.Unlock()

	r.record(NotificationError)
}

func (r *NotificationRecorder) record(notification string) {
	r.mu.Lock()
	r.events = append(r.events, notification)
	observe := r.Observe
	r.mu.Unlock()

	if observe != nil {
		observe(notification)
	}
}

// Events returns the recorded notification names in order.
func (r *NotificationRecorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.events...)
}

// ErrorMessages returns the messages passed to Error in order.
func (r *NotificationRecorder) ErrorMessages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.messages...)
}

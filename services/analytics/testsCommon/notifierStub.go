package testsCommon

import "github.com/iulianpascalau/crosschain-analytics/services/analytics/notifier"

// NotifierStub -
type NotifierStub struct {
	RegisterHandler   func(subscriber notifier.Subscriber)
	UnregisterHandler func(subscriber notifier.Subscriber)
	NotifyHandler     func(event string, size int)
}

// Register -
func (stub *NotifierStub) Register(subscriber notifier.Subscriber) {
	if stub.RegisterHandler != nil {
		stub.RegisterHandler(subscriber)
	}
}

// Unregister -
func (stub *NotifierStub) Unregister(subscriber notifier.Subscriber) {
	if stub.UnregisterHandler != nil {
		stub.UnregisterHandler(subscriber)
	}
}

// Notify -
func (stub *NotifierStub) Notify(event string, size int) {
	if stub.NotifyHandler != nil {
		stub.NotifyHandler(event, size)
	}
}

// IsInterfaceNil -
func (stub *NotifierStub) IsInterfaceNil() bool {
	return stub == nil
}

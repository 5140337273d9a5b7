package factory

// Server defines the operation of an entity able to serve requests
type Server interface {
	Start()
	Address() string
	Close() error
}

// Hub defines the notifier operations the components handler owns
type Hub interface {
	NumSubscribers() int
	Close() error
}

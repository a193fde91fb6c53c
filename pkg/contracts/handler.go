package contracts

import "github.com/julienschmidt/httprouter"

type Handler interface {
	RegisterRoutes(*httprouter.Router)
}

// Stopper is implemented by components that own background goroutines or
// connections released on shutdown.
type Stopper interface {
	Stop()
}

type StopFunc func()

func (f StopFunc) Stop() { f() }

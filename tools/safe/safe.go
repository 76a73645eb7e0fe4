package safe

import (
	"TeamHive/logger"
)

// Go starts a goroutine that recovers from panic, so a broken presence
// connection or broker callback cannot take the process down.
func Go(f func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("[safe.Go] panic recovered: %v", r)
			}
		}()
		f()
	}()
}

package observability

import (
	"fmt"
	"runtime/debug"

	"github.com/sirupsen/logrus"
)

// RecoverPanic recovers from a panic in a background goroutine and logs it.
// Call it deferred:
//
//	defer observability.RecoverPanic(log, "plugin watcher")
//
// The panic is not re-raised.
func RecoverPanic(log logrus.FieldLogger, where string) {
	if r := recover(); r != nil {
		log.WithFields(logrus.Fields{
			"panic": fmt.Sprint(r),
			"stack": string(debug.Stack()),
			"where": where,
		}).Error("panic recovered")
	}
}

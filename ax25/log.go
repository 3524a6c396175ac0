package ax25

import "github.com/sirupsen/logrus"

// defaultLogger and SetLogger mirror the teacher's define.go: a package
// level logrus.Logger any caller can swap out, rather than threading a
// logger interface through every constructor.
var defaultLogger = logrus.New()

// SetLogger replaces the package-default logger used by any Session or
// Config created with no explicit WithLogger option afterwards.
func SetLogger(lg *logrus.Logger) {
	if lg != nil {
		defaultLogger = lg
	}
}

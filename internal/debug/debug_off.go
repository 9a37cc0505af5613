//+build !debug

package debug

const Enabled = false

// Printf is no op unless you compile with the `debug` tag
func Printf(f string, args ...interface{}) {}

// Guard is no op unless you compile with the `debug` tag
type Guard struct{}

// IPrintf is no op unless you compile with the `debug` tag
func IPrintf(f string, args ...interface{}) Guard { return Guard{} }

// IRelease is no op unless you compile with the `debug` tag
func (Guard) IRelease(f string, args ...interface{}) {}

// Dump dumps the objects using go-spew
func Dump(v ...interface{}) {}

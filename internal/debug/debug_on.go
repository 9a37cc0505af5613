//+build debug

package debug

import (
	"log"
	"os"
	"strings"
	"sync"

	"github.com/davecgh/go-spew/spew"
)

const Enabled = true

var logger = log.New(os.Stdout, "|DEBUG| ", 0)

var mu sync.Mutex
var indent int

func printf(f string, args ...interface{}) {
	logger.Printf(strings.Repeat("  ", indent)+f, args...)
}

// Printf prints debug messages. Only available if compiled with "debug" tag
func Printf(f string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	printf(f, args...)
}

// Guard closes the indent level opened by the IPrintf that returned it.
type Guard struct{}

// IPrintf prints like Printf and opens an indent level for the
// messages that follow, until the returned guard releases it.
func IPrintf(f string, args ...interface{}) Guard {
	mu.Lock()
	defer mu.Unlock()
	printf(f, args...)
	indent++
	return Guard{}
}

// IRelease prints like Printf and closes the indent level.
func (Guard) IRelease(f string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if indent > 0 {
		indent--
	}
	printf(f, args...)
}

func Dump(v ...interface{}) {
	spew.Dump(v...)
}

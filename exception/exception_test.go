package exception

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSafeGoRecovers(t *testing.T) {
	done := make(chan struct{})
	SafeGo("panicking", func() {
		defer close(done)
		panic("boom")
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("goroutine did not run")
	}
}

func TestSafeGoRuns(t *testing.T) {
	ran := make(chan bool, 1)
	SafeGo("plain", func() { ran <- true })
	assert.True(t, <-ran)
}

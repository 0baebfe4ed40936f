package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

// ensureTestMode keeps binaries and app wiring away from Redis and Kafka during tests.
func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("ODYSSEY_POS_TEST_MODE", "1")
		_ = os.Setenv("REDIS_ADDR", "")
		_ = os.Setenv("KAFKA_BROKERS", "")
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}

package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func quietLog() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func waitClosed(t *testing.T, p *Producer) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		p.WaitClosed()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("producer did not finish shutting down")
	}
}

// The api binary closes the inbox and then cancels the loop's context; the
// loop must not close the inbox a second time when both happen.
func TestProducerCloseThenCancel(t *testing.T) {
	p := NewProducer([]string{"localhost:0"}, "t", 8, quietLog())
	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)

	p.Close()
	cancel()
	waitClosed(t, p)
}

func TestProducerCancelThenClose(t *testing.T) {
	p := NewProducer([]string{"localhost:0"}, "t", 8, quietLog())
	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)

	cancel()
	p.Close()
	waitClosed(t, p)
}

func TestProducerDoubleClose(t *testing.T) {
	p := NewProducer([]string{"localhost:0"}, "t", 8, quietLog())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)

	p.Close()
	p.Close()
	waitClosed(t, p)
}

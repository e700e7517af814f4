package watch_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/heavy-duty/docstate/docstore/internal/watch"
)

func Test_Broadcaster_Fires_Armed_Triggers_Once(t *testing.T) {
	b := watch.NewBroadcaster()
	armed := b.Trigger()()

	b.Broadcast()

	select {
	case <-armed:
	default:
		t.Fatal("armed trigger did not fire")
	}

	next := b.Trigger()()
	select {
	case <-next:
		t.Fatal("trigger armed after broadcast must not fire")
	default:
	}
}

func Test_Either_Fires_On_First_Trigger(t *testing.T) {
	b := watch.NewBroadcaster()
	fired := watch.Either(b.Trigger(), watch.Poll(time.Hour))()

	b.Broadcast()

	assert.Eventually(t, func() bool {
		select {
		case <-fired:
			return true
		default:
			return false
		}
	}, time.Second, time.Millisecond)
}

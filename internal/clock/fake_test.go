package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFake_AfterFunc(t *testing.T) {
	clk := NewFake(epoch)
	fired := 0
	clk.AfterFunc(time.Second, func() { fired++ })

	clk.Advance(999 * time.Millisecond)
	assert.Equal(t, 0, fired)

	clk.Advance(time.Millisecond)
	assert.Equal(t, 1, fired)

	clk.Advance(time.Hour)
	assert.Equal(t, 1, fired)
	assert.Equal(t, 0, clk.Pending())
}

func TestFake_AfterFuncOrderAndStop(t *testing.T) {
	clk := NewFake(epoch)
	var order []string
	clk.AfterFunc(3*time.Second, func() { order = append(order, "c") })
	clk.AfterFunc(time.Second, func() { order = append(order, "a") })
	stopped := clk.AfterFunc(2*time.Second, func() { order = append(order, "b") })

	assert.True(t, stopped.Stop())
	assert.False(t, stopped.Stop())

	clk.Advance(5 * time.Second)
	assert.Equal(t, []string{"a", "c"}, order)
	assert.Equal(t, epoch.Add(5*time.Second), clk.Now())
}

func TestFake_CallbackSchedulesTimer(t *testing.T) {
	clk := NewFake(epoch)
	fired := 0
	clk.AfterFunc(time.Second, func() {
		clk.AfterFunc(time.Second, func() { fired++ })
	})

	clk.Advance(2 * time.Second)
	assert.Equal(t, 1, fired)
}

func TestFake_Ticker(t *testing.T) {
	clk := NewFake(epoch)
	ticker := clk.NewTicker(100 * time.Millisecond)

	clk.Advance(100 * time.Millisecond)
	select {
	case tick := <-ticker.C():
		assert.Equal(t, epoch.Add(100*time.Millisecond), tick)
	default:
		t.Fatal("expected a tick")
	}

	// Three intervals elapse but the buffer holds one tick.
	clk.Advance(300 * time.Millisecond)
	<-ticker.C()
	select {
	case <-ticker.C():
		t.Fatal("ticks beyond the buffer should be dropped")
	default:
	}

	ticker.Stop()
	clk.Advance(time.Second)
	select {
	case <-ticker.C():
		t.Fatal("stopped ticker delivered a tick")
	default:
	}
}

func TestFake_WaitForTimers(t *testing.T) {
	clk := NewFake(epoch)
	done := make(chan struct{})
	go func() {
		clk.NewTicker(time.Second)
		close(done)
	}()

	clk.WaitForTimers(1)
	<-done
	require.Equal(t, 1, clk.Pending())
}

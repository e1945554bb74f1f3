package processmgr

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogBufferTail(t *testing.T) {
	var b logBuffer
	assert.Nil(t, b.Tail(10))

	for i := 0; i < 3; i++ {
		b.Append(strconv.Itoa(i))
	}
	assert.Equal(t, []string{"0", "1", "2"}, b.Tail(0))
	assert.Equal(t, []string{"1", "2"}, b.Tail(2))
	assert.Equal(t, []string{"0", "1", "2"}, b.Tail(99))
}

func TestLogBufferWraps(t *testing.T) {
	var b logBuffer
	for i := 0; i < logCapacity+7; i++ {
		b.Append(strconv.Itoa(i))
	}
	assert.Equal(t, logCapacity, b.Len())

	all := b.Tail(0)
	assert.Equal(t, "7", all[0])
	assert.Equal(t, strconv.Itoa(logCapacity+6), all[len(all)-1])
	assert.Equal(t, []string{strconv.Itoa(logCapacity + 5), strconv.Itoa(logCapacity + 6)}, b.Tail(2))
}

func TestScanCRLF(t *testing.T) {
	adv, tok, _ := scanCRLF([]byte("frame=1\rframe=2\n"), false)
	assert.Equal(t, 8, adv)
	assert.Equal(t, "frame=1", string(tok))

	adv, tok, _ = scanCRLF([]byte("tail"), true)
	assert.Equal(t, 4, adv)
	assert.Equal(t, "tail", string(tok))

	adv, tok, _ = scanCRLF([]byte("partial"), false)
	assert.Zero(t, adv)
	assert.Nil(t, tok)
}

func TestSlotPool(t *testing.T) {
	s := newSlotPool(1)
	assert.True(t, s.tryAcquire(1))
	assert.False(t, s.tryAcquire(2))
	assert.Panics(t, func() { s.tryAcquire(1) })
	s.release(1)
	assert.True(t, s.tryAcquire(2))
	assert.Panics(t, func() { s.release(3) })

	unlimited := newSlotPool(0)
	for i := uint64(0); i < 100; i++ {
		assert.True(t, unlimited.tryAcquire(i))
	}
	assert.Equal(t, int64(100), unlimited.current())
}

func TestLogBufferMarkedSurvivesWrap(t *testing.T) {
	b := logBuffer{mark: func(l string) bool { return l == "bad" }}
	b.Append("bad")
	for i := 0; i < logCapacity; i++ {
		b.Append(strconv.Itoa(i))
	}
	assert.NotContains(t, b.Tail(0), "bad")
	assert.Equal(t, []string{"bad"}, b.Marked())

	for i := 0; i < markCapacity+5; i++ {
		b.Append("bad")
	}
	assert.Len(t, b.Marked(), markCapacity)
}

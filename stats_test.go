package scarf

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestStats(t *testing.T) {
	var st RequestStats

	assert.Zero(t, st.Percentage(0))

	st.Update(nil)
	st.Update(&IncompleteError{Want: 2, Err: ErrTimeout})
	st.Update(&IncompleteError{Have: 1, Want: 2})
	st.Update(&MismatchError{})
	st.Update(errors.New("device gone"))

	assert.Equal(t, 5, st.Num.All)
	assert.Equal(t, 1, st.Num.Timeout)
	assert.Equal(t, 1, st.Num.Incomplete)
	assert.Equal(t, 1, st.Num.Mismatch)
	assert.Equal(t, 1, st.Num.Other)
	assert.Equal(t, 20.0, st.Percentage(st.Num.Timeout))
}

func TestBusStats(t *testing.T) {
	sl, tp := newTestSlave(t, 3, 1, pattern(64))

	_, err := sl.Read(0, 35)
	assert.NoError(t, err)
	assert.NoError(t, sl.Write(0, pattern(70)))
	tp.respond = nil
	_, err = sl.Identify()
	assert.Error(t, err)

	st := sl.Bus().Stats()
	assert.Equal(t, 5, st.Num.All)
	assert.Equal(t, 1, st.Num.Timeout)
}

func TestWrappedErrors(t *testing.T) {
	incomplete := fmt.Errorf("bram: %w", &IncompleteError{Have: 1, Want: 2})
	mismatch := fmt.Errorf("bram: %w", &MismatchError{})
	tooShort := fmt.Errorf("bram: %w", ErrMsgTooShort)

	assert.True(t, MsgInvalid(incomplete))
	assert.True(t, MsgInvalid(mismatch))
	assert.True(t, MsgInvalid(tooShort))
	assert.False(t, MsgInvalid(fmt.Errorf("bram: %w", errors.New("port closed"))))
	assert.False(t, MsgInvalid(nil))

	var st RequestStats
	st.Update(incomplete)
	st.Update(mismatch)
	st.Update(tooShort)
	assert.Equal(t, 2, st.Num.Incomplete)
	assert.Equal(t, 1, st.Num.Mismatch)
	assert.Zero(t, st.Num.Other)
}

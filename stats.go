package scarf

import (
	"errors"
)

// RequestStats counts transactions by outcome.
type RequestStats struct {
	Num struct {
		All        int
		Incomplete int
		Mismatch   int
		Timeout    int
		Other      int
	}
}

func (st *RequestStats) Percentage(num int) float64 {
	if st.Num.All == 0 {
		return 0
	}
	return 100 * float64(num) / float64(st.Num.All)
}

func (st *RequestStats) Update(err error) {
	st.Num.All++
	if err == nil {
		return
	}
	var mismatch *MismatchError
	switch {
	case errors.Is(err, ErrTimeout):
		st.Num.Timeout++
	case errors.As(err, &mismatch):
		st.Num.Mismatch++
	case MsgInvalid(err):
		st.Num.Incomplete++
	default:
		st.Num.Other++
	}
}

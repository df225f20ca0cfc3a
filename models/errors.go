package models

import "errors"

var (
	// ErrDataUnavailable means the dataset could not be loaded; nothing can be rendered.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrUndefinedStatistic means a statistic has too little data to be computed.
	ErrUndefinedStatistic = errors.New("undefined statistic")
)

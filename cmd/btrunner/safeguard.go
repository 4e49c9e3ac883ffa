package main

import (
	"fmt"
	"log"

	"quantreplay/errs"
)

// guardStrategy recovers from a panic inside a user strategy callback
// (spec §7 StrategyError: "caught at the callback boundary, logged at
// ERROR, current event dropped; subsequent events continue"), wrapping
// it as an *errs.StrategyError rather than letting it unwind into the
// scheduler and abort the whole run.
func guardStrategy(logger *log.Logger, strategyName, callback string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			err := &errs.StrategyError{Strategy: strategyName, Callback: callback, Err: asError(r)}
			logger.Printf("ERROR: %v", err)
		}
	}()
	fn()
}

func asError(r interface{}) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("%v", r)
}

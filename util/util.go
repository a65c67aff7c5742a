// Copyright 2026 Signal Messenger, LLC
// SPDX-License-Identifier: AGPL-3.0-only

// Package util contains general purpose utilities
package util

import (
	"context"
	"time"

	"golang.org/x/exp/constraints"
)

// Min returns the minimum of a and b
func Min[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}

// Max returns the maximum of a and b
func Max[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}

// Clamp restricts the value to the range [lo, hi]
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	return Max(lo, Min(hi, v))
}

// RetrySupplierWithBackoff repeatedly attempts to call `fun` to produce a value, doubling the
// wait between calls within [minSleep, maxSleep]. onErr, if non-nil, sees every failed attempt.
func RetrySupplierWithBackoff[T any](ctx context.Context, fun func() (T, error), minSleep, maxSleep time.Duration, onErr func(error)) (T, error) {
	sleepTime := time.Duration(0)
	var res T
	var err error
	for {
		select {
		case <-ctx.Done():
			if err != nil {
				return res, err
			}
			return res, ctx.Err()
		case <-time.After(sleepTime):
		}
		res, err = fun()
		if err == nil {
			return res, nil
		}
		if onErr != nil {
			onErr(err)
		}
		sleepTime = Clamp(sleepTime*2, minSleep, maxSleep)
	}
}

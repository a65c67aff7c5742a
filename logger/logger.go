// Copyright 2026 Signal Messenger, LLC
// SPDX-License-Identifier: AGPL-3.0-only

// Package logger provides helper functions to configure and use a global logger
package logger

import (
	"log"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/signalapp/hostbridge/config"
)

// init sets up reasonable logging defaults for tests / non-main
func init() {
	Init(config.Default())
}

// Init replaces the global zap logger with one built from cfg.Log.
func Init(cfg *config.Config) {
	z, err := cfg.Log.Build(zap.AddCallerSkip(1))
	if err != nil {
		log.Fatalf("zap init: %v", err)
	}
	zap.ReplaceGlobals(z)
}

// WithGlobal binds some key/value pairs to the global logger
func WithGlobal(fields ...zapcore.Field) {
	zap.ReplaceGlobals(zap.L().With(fields...))
}

// Sync flushes any buffered logs. Applications should call Sync before program exit.
func Sync() {
	_ = zap.L().Sync()
}

// wrappers around sugared zap logging methods that use the zap global logger

func Infow(msg string, keysAndValues ...interface{})  { zap.S().Infow(msg, keysAndValues...) }
func Infof(template string, args ...interface{})      { zap.S().Infof(template, args...) }
func Debugw(msg string, keysAndValues ...interface{}) { zap.S().Debugw(msg, keysAndValues...) }
func Warnw(msg string, keysAndValues ...interface{})  { zap.S().Warnw(msg, keysAndValues...) }
func Errorw(msg string, keysAndValues ...interface{}) { zap.S().Errorw(msg, keysAndValues...) }
func Errorf(template string, args ...interface{})     { zap.S().Errorf(template, args...) }
func Fatalw(msg string, keysAndValues ...interface{}) { zap.S().Fatalw(msg, keysAndValues...) }
func Fatalf(template string, args ...interface{})     { zap.S().Fatalf(template, args...) }

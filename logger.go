// Copyright 2025 The snmpq Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package snmpq

import "log"

// Logger receives debug output when set on a Client. Print and Printf match
// the standard library's log package, so a *log.Logger (including one from
// zap's NewStdLog) can be used directly.
type Logger interface {
	Print(v ...interface{})
	Printf(format string, v ...interface{})
}

var _ Logger = (*log.Logger)(nil)

// noopLogger is the default when Client.Logger is nil.
type noopLogger struct{}

func (noopLogger) Print(...interface{})          {}
func (noopLogger) Printf(string, ...interface{}) {}

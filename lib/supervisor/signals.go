// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"os"
	"os/signal"
	"syscall"
)

// forwardedSignals are relayed to the child instead of terminating the
// wrapper. SIGINT from a terminal also reaches the child directly
// through the process group; forwarding covers process managers that
// signal only the wrapper's PID.
var forwardedSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT}

// forwardSignals relays forwardedSignals to child until the returned
// stop function is called. Delivery errors are ignored: the child may
// already have exited.
func forwardSignals(child Child) (stop func()) {
	signals := make(chan os.Signal, 4)
	signal.Notify(signals, forwardedSignals...)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case sig := <-signals:
				_ = child.Signal(sig)
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(signals)
		close(done)
	}
}

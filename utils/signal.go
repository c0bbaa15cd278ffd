/*
 Copyright 2023 Parsec Cloud Authors.

 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package utils

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"runtime"
	"runtime/trace"
	"syscall"
	"time"
)

var (
	terminalCh = make(chan os.Signal, 1)
	userCh     = make(chan os.Signal, 1)
)

func init() {
	signal.Notify(terminalCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	signal.Notify(userCh, syscall.SIGUSR1)

	go handlerUserSignal()
}

// CommandContext runs one command as a trace task. It is cancelled by
// the first terminal signal or the timeout, a second signal exits.
func CommandContext(name string, timeout time.Duration) (context.Context, func()) {
	ctx, task := trace.NewTask(context.Background(), name)
	ctx, canF := context.WithTimeout(ctx, timeout)

	done := make(chan struct{})
	go func() {
		select {
		case <-terminalCh:
			canF()
		case <-done:
			return
		}
		select {
		case <-terminalCh:
			os.Exit(2)
		case <-done:
		}
	}()

	return ctx, func() {
		close(done)
		canF()
		task.End()
	}
}

func handlerUserSignal() {
	for range userCh {
		var (
			buf       []byte
			stackSize int
			startSize = 1 << 16
		)
		for len(buf) == stackSize && startSize < math.MaxInt32 {
			buf = make([]byte, startSize)
			stackSize = runtime.Stack(buf, true)
			startSize *= 2
		}
		fmt.Fprintln(os.Stderr, string(buf[:stackSize]))
	}
}

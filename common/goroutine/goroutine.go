// Copyright © 2019 Annchain Authors <EMAIL ADDRESS>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package goroutine

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"runtime/debug"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
)

var running = atomic.NewInt32(0)

func Running() int32 {
	return running.Load()
}

// New runs function in a goroutine that dumps its stack if it panics and
// then crashes the process.
func New(function func()) {
	running.Inc()
	go func() {
		defer running.Dec()
		defer DumpStack(true)
		function()
	}()
}

// DumpStack must be deferred. On panic it logs the value, writes the stack
// to a dump_<time> file and re-panics if exitIfPanic is set.
func DumpStack(exitIfPanic bool) {
	if err := recover(); err != nil {
		logrus.WithField("obj", err).Error("Fatal error occurred. Program will exit")
		var buf bytes.Buffer
		buf.WriteString(fmt.Sprintf("Panic: %v\n", err))
		buf.Write(debug.Stack())
		dumpName := "dump_" + time.Now().Format("20060102-150405")
		if nerr := ioutil.WriteFile(dumpName, buf.Bytes(), 0644); nerr != nil {
			fmt.Println("write dump file error", nerr)
			fmt.Println(buf.String())
		}
		logrus.Errorf("panic %v ", buf.String())
		if exitIfPanic {
			panic(err)
		}
	}
}

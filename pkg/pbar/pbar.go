// Copyright (c) 2026 The mkoverlay authors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
package pbar

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/overlaytools/mkoverlay/pkg/util/format"
)

const MinRefreshRate = time.Millisecond * 200

// ProgressBar renders a single-line progress bar on stdout. Report is
// shaped to plug directly into the formatter's progress callback, so the
// bar refresh is rate-limited: the callback runs on the writing
// goroutine and must stay cheap.
type ProgressBar struct {
	totalBytes     uint64
	writtenBytes   uint64
	startTime      time.Time
	lastUpdateTime time.Time
	lastWritten    uint64
}

// New initializes a progress bar. The total is taken from the first
// Report call.
func New() *ProgressBar {
	return &ProgressBar{
		startTime: time.Now(),
	}
}

// Report consumes one progress notification; id is unused because a
// single bar tracks a single sink.
func (pb *ProgressBar) Report(_ string, written, total uint64) {
	pb.writtenBytes = written
	pb.totalBytes = total
	pb.render(written == total)
}

// render updates and prints the progress bar line.
func (pb *ProgressBar) render(force bool) {
	if !force && !pb.lastUpdateTime.IsZero() && time.Since(pb.lastUpdateTime) < MinRefreshRate {
		return
	}

	percentage := float64(pb.writtenBytes) / float64(pb.totalBytes) * 100

	barLength := 20
	filledLen := int(float64(barLength) * percentage / 100)
	var bar string
	if filledLen >= barLength {
		bar = strings.Repeat("=", barLength)
	} else {
		bar = strings.Repeat("=", filledLen) + ">" + strings.Repeat(" ", barLength-filledLen-1)
	}

	elapsed := time.Since(pb.lastUpdateTime)
	var speedMBps float64
	if !pb.lastUpdateTime.IsZero() && elapsed > 0 {
		speedMBps = float64(pb.writtenBytes-pb.lastWritten) / elapsed.Seconds() / (1024 * 1024)
	}

	pb.lastUpdateTime = time.Now()
	pb.lastWritten = pb.writtenBytes

	// \r moves the cursor back to the start of the line; trailing spaces
	// clear leftovers from a previously longer line.
	fmt.Fprintf(os.Stdout, "\r[INFO] Writing: [%s] %3.0f%% (%s/%s) @ %.2fMB/s    ",
		bar,
		percentage,
		format.FormatBytes(int64(pb.writtenBytes)),
		format.FormatBytes(int64(pb.totalBytes)),
		speedMBps)

	os.Stdout.Sync()
}

// Finish terminates the progress bar line.
func (pb *ProgressBar) Finish() {
	fmt.Println()
}

// Copyright 2025 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
)

// progressTracker renders fitting progress as a terminal progress bar.
type progressTracker struct {
	bar *progressbar.ProgressBar
}

func newProgressTracker() *progressTracker {
	return &progressTracker{}
}

func (t *progressTracker) Start(total int) {
	t.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("fit"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish())
}

func (t *progressTracker) Update(epoch int, loss float32) {
	t.bar.Describe(fmt.Sprintf("fit (loss = %.4f)", loss))
	_ = t.bar.Set(epoch)
}

func (t *progressTracker) Finish() {
	_ = t.bar.Finish()
}

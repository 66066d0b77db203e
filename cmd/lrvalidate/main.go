// Copyright 2024 Upbound Inc
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command lrvalidate is a minimal harness for running the metadata
// validation/transformation engine outside of a real catalog and
// harvester: it loads a snapshot fixture off disk, runs the worker
// against it, and prints the resulting snapshot summary.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
)

var cli struct {
	Validate validateCmd `cmd:"" help:"Validate and transform one snapshot's harvested records from a fixture file."`
}

func main() {
	kongCtx := kong.Parse(&cli,
		kong.Name("lrvalidate"),
		kong.Description("Runs the metadata validation/transformation engine against a snapshot fixture."),
		kong.UsageOnError(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)
	go func() {
		defer cancel()
		<-sigCh
	}()

	kongCtx.BindTo(ctx, (*context.Context)(nil))
	kongCtx.FatalIfErrorf(kongCtx.Run())
}

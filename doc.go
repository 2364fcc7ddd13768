/*
Package grflow is a convenience layer for describing, wiring and running
signal-processing flowgraphs: chains of source, processing and sink blocks
connected by typed ports, driven by file or message stimulus.

A flowgraph is declared in a JSON or YAML scenario document and built through
an immutable component registry, so the same description runs unchanged from
the CLI, from a test, or embedded in another program. Streaming ports carry
fixed-size samples over buffered channels with one goroutine per block;
message ports carry discrete payloads for asynchronous stimulus.

# Usage

	eng, err := grflow.New(grflow.WithLogger(logger))
	if err != nil {
		...
	}
	err = eng.RunFile(ctx, "scenario.json", os.Stdin)

Custom components plug in through WithBlocks: a constructor receives the
keyword-argument bag from the scenario document and returns a wired block.

Beyond scenario execution, the module carries the surrounding tooling: a
parameter-sweep driver producing one bounded output artifact per parameter
combination (pkg/simulate, pkg/params), a batch installer that compiles GRC
description files through the external grcc compiler with multi-pass
dependency convergence (pkg/install), and a fire-and-forget debug sender for
poking message inputs (pkg/sender).
*/
package grflow

// ABOUTME: Shared scripted fakes for the workflow package tests.
// ABOUTME: fakeGenerator answers GenerateObject by schema name; fakeRunner scripts shell results.

package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/tintlab/tint/llm"
)

// generatorCall records one GenerateObject invocation.
type generatorCall struct {
	SchemaName string
	Prompt     string
}

// fakeGenerator is a scripted ObjectGenerator. Responses are queued per schema
// name; a handler can override the scripted behavior entirely. Safe for
// concurrent use because the processor fans calls across goroutines.
type fakeGenerator struct {
	mu        sync.Mutex
	responses map[string][]string
	errs      map[string]error
	calls     []generatorCall
	handler   func(schemaName, prompt string) (string, error)
}

func newFakeGenerator() *fakeGenerator {
	return &fakeGenerator{
		responses: make(map[string][]string),
		errs:      make(map[string]error),
	}
}

func (g *fakeGenerator) respond(schemaName, payload string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.responses[schemaName] = append(g.responses[schemaName], payload)
}

func (g *fakeGenerator) fail(schemaName string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.errs[schemaName] = err
}

func (g *fakeGenerator) callCount(schemaName string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, c := range g.calls {
		if c.SchemaName == schemaName {
			n++
		}
	}
	return n
}

func (g *fakeGenerator) GenerateObject(ctx context.Context, opts llm.GenerateOptions, schemaName string, schema json.RawMessage, out any) error {
	g.mu.Lock()
	g.calls = append(g.calls, generatorCall{SchemaName: schemaName, Prompt: opts.Prompt})
	handler := g.handler
	var payload string
	var err error
	if handler == nil {
		if e, ok := g.errs[schemaName]; ok {
			err = e
		} else {
			queue := g.responses[schemaName]
			if len(queue) == 0 {
				err = fmt.Errorf("no scripted response for schema %q", schemaName)
			} else {
				payload = queue[0]
				g.responses[schemaName] = queue[1:]
			}
		}
	}
	prompt := opts.Prompt
	g.mu.Unlock()

	if handler != nil {
		payload, err = handler(schemaName, prompt)
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(payload), out)
}

// runnerCall records one Run invocation.
type runnerCall struct {
	Command string
	Dir     string
}

// fakeRunner is a scripted Runner. Results are consumed in order; a handler
// can override the scripted behavior entirely.
type fakeRunner struct {
	mu      sync.Mutex
	results []CommandResult
	err     error
	calls   []runnerCall
	handler func(command, dir string) (CommandResult, error)
}

func (r *fakeRunner) Run(ctx context.Context, command, dir string) (CommandResult, error) {
	r.mu.Lock()
	r.calls = append(r.calls, runnerCall{Command: command, Dir: dir})
	handler := r.handler
	var res CommandResult
	var err error
	if handler == nil {
		if r.err != nil {
			err = r.err
		} else if len(r.results) > 0 {
			res = r.results[0]
			r.results = r.results[1:]
		} else {
			res = CommandResult{Success: true}
		}
	}
	r.mu.Unlock()

	if handler != nil {
		return handler(command, dir)
	}
	return res, err
}

func (r *fakeRunner) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

package engine

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pojeda/infomap/errors"
)

// ExecRunner runs jobs by invoking an external clustering binary. Each job
// gets its own scratch directory: the network content is written there, the
// binary runs with the job's arguments plus the output directory, and any
// known output files left behind are collected into the result bundle.
type ExecRunner struct {
	// Command is the binary to invoke
	Command string
}

// outputFiles maps result fields to the filenames the binary writes. The
// base name follows the input file.
var outputFiles = []struct {
	suffix string
	assign func(*Result, string)
}{
	{".clu", func(r *Result, s string) { r.Clu = s }},
	{"_states.clu", func(r *Result, s string) { r.CluStates = s }},
	{".tree", func(r *Result, s string) { r.Tree = s }},
	{"_states.tree", func(r *Result, s string) { r.TreeStates = s }},
	{".ftree", func(r *Result, s string) { r.Ftree = s }},
	{"_states.ftree", func(r *Result, s string) { r.FtreeStates = s }},
	{".json", func(r *Result, s string) { r.JSON = s }},
	{".csv", func(r *Result, s string) { r.CSV = s }},
	{".net", func(r *Result, s string) { r.Net = s }},
	{"_states.net", func(r *Result, s string) { r.States = s }},
}

// Run implements Runner
func (e *ExecRunner) Run(ctx context.Context, job *Job, progress func(string)) (*Result, error) {
	workDir, err := os.MkdirTemp("", fmt.Sprintf("infomap-job-%d-", job.ID))
	if err != nil {
		return nil, errors.WrapTransient(err, "ExecRunner", "Run", "create scratch dir")
	}
	defer os.RemoveAll(workDir)

	inputName := job.Filename
	if inputName == "" {
		inputName = "network.net"
	}

	// Inputs live in a subdirectory so output collection never picks up
	// the network file itself
	inDir := filepath.Join(workDir, "input")
	if err := os.Mkdir(inDir, 0o755); err != nil {
		return nil, errors.WrapTransient(err, "ExecRunner", "Run", "create input dir")
	}
	inputPath := filepath.Join(inDir, filepath.Base(inputName))
	if err := os.WriteFile(inputPath, []byte(job.Content), 0o644); err != nil {
		return nil, errors.WrapTransient(err, "ExecRunner", "Run", "write network file")
	}

	args := append(strings.Fields(job.Args), inputPath, workDir)
	cmd := exec.CommandContext(ctx, e.Command, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(err, "ExecRunner", "Run", "attach stdout")
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrap(err, "ExecRunner", "Run", "start binary")
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if progress != nil {
			progress(scanner.Text())
		}
	}
	if scanErr := scanner.Err(); scanErr != nil {
		// Keep draining so the child never blocks on a full pipe, then
		// reap it before reporting the scan failure
		_, _ = io.Copy(io.Discard, stdout)
		_ = cmd.Wait()
		return nil, errors.Wrap(scanErr, "ExecRunner", "Run", "read output")
	}

	if err := cmd.Wait(); err != nil {
		return nil, errors.Wrap(err, "ExecRunner", "Run", "run binary")
	}

	return collectOutputs(workDir, inputPath)
}

// collectOutputs gathers whatever output files the binary produced
func collectOutputs(workDir, inputPath string) (*Result, error) {
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))

	result := &Result{}
	found := false
	for _, of := range outputFiles {
		data, err := os.ReadFile(filepath.Join(workDir, base+of.suffix))
		if err != nil {
			continue
		}
		of.assign(result, string(data))
		found = true
	}

	if !found {
		return nil, errors.Wrap(
			fmt.Errorf("binary produced no output files"),
			"ExecRunner", "Run", "collect outputs")
	}
	return result, nil
}

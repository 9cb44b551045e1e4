package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/pojeda/infomap/clustermap"
	"github.com/pojeda/infomap/errors"
)

// Job is one clustering run: a network file handed to the engine together
// with a command-line style argument string. IDs are allocated by the host
// and key the event protocol.
type Job struct {
	ID       uint64 `json:"id"`
	Filename string `json:"filename"`
	Content  string `json:"content"`
	Args     string `json:"args"`
}

// EventType classifies job events. EventError and EventFinished are
// terminal; the host emits at most one terminal event per job.
type EventType string

// Job event types
const (
	// EventData carries an intermediate text chunk from the running engine
	EventData EventType = "data"
	// EventError is the terminal event of a failed job
	EventError EventType = "error"
	// EventFinished is the terminal event of a completed job
	EventFinished EventType = "finished"
)

// Event is one message in a job's event stream
type Event struct {
	JobID     uint64    `json:"id"`
	HostID    string    `json:"host_id"`
	Type      EventType `json:"type"`
	Text      string    `json:"text,omitempty"`
	Result    *Result   `json:"result,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Terminal reports whether the event ends its job's stream
func (e Event) Terminal() bool {
	return e.Type == EventError || e.Type == EventFinished
}

// Result is the structured output bundle of a finished job. Each field holds
// one output serialization; empty means the engine did not produce it.
type Result struct {
	Clu         string `json:"clu,omitempty"`
	CluStates   string `json:"clu_states,omitempty"`
	Tree        string `json:"tree,omitempty"`
	TreeStates  string `json:"tree_states,omitempty"`
	Ftree       string `json:"ftree,omitempty"`
	FtreeStates string `json:"ftree_states,omitempty"`
	JSON        string `json:"json,omitempty"`
	CSV         string `json:"csv,omitempty"`
	Net         string `json:"net,omitempty"`
	States      string `json:"states,omitempty"`
}

// output returns the serialization for a format marker
func (r *Result) output(format string) (string, bool) {
	switch format {
	case "clu":
		return r.Clu, true
	case "clu_states":
		return r.CluStates, true
	case "tree":
		return r.Tree, true
	case "tree_states":
		return r.TreeStates, true
	case "ftree":
		return r.Ftree, true
	case "ftree_states":
		return r.FtreeStates, true
	default:
		return "", false
	}
}

// ClusterMap re-imports one of the result's serializations through the
// cluster data loader, so a finished run can seed a later one. The format is
// a loader extension, optionally with a "_states" suffix for the state-level
// variants.
func (r *Result) ClusterMap(format string, includeFlow bool, remap clustermap.MultilayerMap) (*clustermap.ClusterMap, error) {
	text, ok := r.output(format)
	if !ok {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: unknown result format %q", errors.ErrUnsupportedFormat, format),
			"Result", "ClusterMap", "select output")
	}
	if text == "" {
		return nil, errors.WrapInvalid(
			fmt.Errorf("result has no %s output", format),
			"Result", "ClusterMap", "select output")
	}

	name := "result." + format
	if format == "clu" || format == "clu_states" {
		return clustermap.ReadClu(strings.NewReader(text), name, includeFlow, remap)
	}
	return clustermap.ReadTree(strings.NewReader(text), name, includeFlow, remap)
}

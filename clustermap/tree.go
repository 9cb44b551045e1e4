package clustermap

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pojeda/infomap/errors"
)

// treeOrder is the lazily discovered tree sub-dialect, threaded through a
// single parse so the parser stays reentrant between independent loads.
type treeOrder int

const (
	orderUndetermined treeOrder = iota
	orderPlain
	orderHigher
)

// ReadTree parses tree/ftree-format cluster data from r. The filename is used
// for error context only. Parsing stops cleanly at a "*..." section marker,
// which is surfaced on the result, or at end of input.
func ReadTree(r io.Reader, filename string, includeFlow bool, remap MultilayerMap) (*ClusterMap, error) {
	multilayer := remap != nil
	cm := &ClusterMap{
		Flow:     make(FlowData),
		Clusters: make(ClusterIDs),
	}
	order := orderUndetermined

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNr := 0
	for scanner.Scan() {
		line := scanner.Text()
		lineNr++
		cm.Lines = lineNr

		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" {
			continue
		}
		if trimmed[0] == '#' {
			if lineNr == 1 {
				// e.g. "# Codelength = 3.46227314 bits."
				cm.Header = line
			}
			continue
		}
		if line[0] == '*' {
			// New section, stop tree parsing and hand the marker back.
			cm.Section = line
			break
		}

		pathTok, rest := nextField(line)
		flowTok, rest := nextField(rest)
		if flowTok == "" {
			return nil, formatError(filename, lineNr, line, "couldn't parse node flow")
		}

		path, ok := decodePath(pathTok)
		if !ok {
			return nil, formatError(filename, lineNr, line,
				"couldn't parse tree path, entries are 1-based and 0 is invalid")
		}

		flow, err := strconv.ParseFloat(flowTok, 64)
		if err != nil {
			return nil, formatError(filename, lineNr, line, "couldn't parse node flow")
		}

		// The name is whatever sits strictly between the first and second
		// quote remaining on the line; both quotes are mandatory.
		q1 := strings.IndexByte(rest, '"')
		if q1 < 0 {
			return nil, nameError(filename, lineNr, line, "can't parse node name")
		}
		q2 := strings.IndexByte(rest[q1+1:], '"')
		if q2 < 0 {
			return nil, nameError(filename, lineNr, line, "can't parse node name")
		}
		rest = rest[q1+1+q2+1:]

		fields := strings.Fields(rest)
		if len(fields) == 0 {
			return nil, formatError(filename, lineNr, line, "couldn't parse node id")
		}
		stateID, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			return nil, formatError(filename, lineNr, line, "couldn't parse node id")
		}

		var nodeID uint64
		hasNode := false
		if len(fields) > 1 {
			if v, err := strconv.ParseUint(fields[1], 10, 64); err == nil {
				nodeID = v
				hasNode = true
			}
		}

		switch {
		case hasNode:
			order = orderHigher
		case order == orderHigher:
			return nil, formatError(filename, lineNr, line, "missing physical node id for state node")
		case order == orderUndetermined:
			order = orderPlain
		}

		var layerID uint64
		if multilayer {
			// In multilayer mode the physical node id and layer id are both
			// required; their remap decides the effective state id.
			if !hasNode || len(fields) < 3 {
				return nil, formatError(filename, lineNr, line, "couldn't parse layer id")
			}
			layerID, err = strconv.ParseUint(fields[2], 10, 64)
			if err != nil {
				return nil, formatError(filename, lineNr, line, "couldn't parse layer id")
			}

			mapped, found := remap.lookup(nodeID, layerID)
			if !found {
				cm.Filtered++
				continue
			}
			stateID = mapped
		}

		cm.NodePaths = append(cm.NodePaths, NodePath{StateID: stateID, Path: path})
		if includeFlow {
			cm.Flow[stateID] = flow
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "ClusterMap", "ReadTree", "read input")
	}

	cm.HigherOrder = order == orderHigher
	return cm, nil
}

// nextField returns the next whitespace-delimited token and the remainder.
func nextField(s string) (string, string) {
	s = strings.TrimLeft(s, " \t")
	if s == "" {
		return "", ""
	}
	end := strings.IndexAny(s, " \t")
	if end < 0 {
		return s, ""
	}
	return s[:end], s[end:]
}

// decodePath decodes a module path token with a small digit-accumulate /
// delimiter-emit scan: any non-digit byte separates components. It reports
// false for an empty path or any 0 component.
func decodePath(token string) (Path, bool) {
	var path Path
	var current uint64
	inDigits := false

	emit := func() bool {
		if current == 0 {
			return false
		}
		path = append(path, current)
		current = 0
		inDigits = false
		return true
	}

	for i := 0; i < len(token); i++ {
		c := token[i]
		if c >= '0' && c <= '9' {
			current = current*10 + uint64(c-'0')
			inDigits = true
			continue
		}
		if inDigits && !emit() {
			return nil, false
		}
	}
	if inDigits && !emit() {
		return nil, false
	}

	if len(path) == 0 {
		return nil, false
	}
	return path, true
}

package clustermap

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pojeda/infomap/errors"
)

// ReadClu parses clu-format (flat partition) cluster data from r. The
// filename is used for error context only. Comments, section markers, and
// blank lines are all skipped; this format has no header capture and no
// section-stop behavior.
func ReadClu(r io.Reader, filename string, includeFlow bool, remap MultilayerMap) (*ClusterMap, error) {
	multilayer := remap != nil
	cm := &ClusterMap{
		Flow:     make(FlowData),
		Clusters: make(ClusterIDs),
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNr := 0
	for scanner.Scan() {
		line := scanner.Text()
		lineNr++
		cm.Lines = lineNr

		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" || trimmed[0] == '#' || trimmed[0] == '*' {
			continue
		}

		// state_id module [flow [node_id layer_id]]
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, formatError(filename, lineNr, line, "couldn't parse node key and cluster id")
		}

		stateID, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			return nil, formatError(filename, lineNr, line, "couldn't parse node key and cluster id")
		}
		moduleID, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return nil, formatError(filename, lineNr, line, "couldn't parse node key and cluster id")
		}

		var flow float64
		hasFlow := false
		if len(fields) > 2 {
			if v, err := strconv.ParseFloat(fields[2], 64); err == nil {
				flow = v
				hasFlow = true
			}
			// A non-numeric trailing token is accepted and ignored outside
			// multilayer mode.
		}

		if multilayer {
			// The flow column precedes the node and layer ids, so all three
			// are positionally required here.
			if !hasFlow || len(fields) < 4 {
				return nil, formatError(filename, lineNr, line, "couldn't parse node key")
			}
			nodeID, err := strconv.ParseUint(fields[3], 10, 64)
			if err != nil {
				return nil, formatError(filename, lineNr, line, "couldn't parse node key")
			}
			if len(fields) < 5 {
				return nil, formatError(filename, lineNr, line, "couldn't parse layer id")
			}
			layerID, err := strconv.ParseUint(fields[4], 10, 64)
			if err != nil {
				return nil, formatError(filename, lineNr, line, "couldn't parse layer id")
			}

			mapped, found := remap.lookup(nodeID, layerID)
			if !found {
				cm.Filtered++
				continue
			}
			if includeFlow && hasFlow {
				cm.Flow[mapped] = flow
			}
			cm.Clusters[mapped] = moduleID
			continue
		}

		if includeFlow && hasFlow {
			cm.Flow[stateID] = flow
		}
		cm.Clusters[stateID] = moduleID
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "ClusterMap", "ReadClu", "read input")
	}

	return cm, nil
}

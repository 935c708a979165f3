// Package server implements the distributed evaluation split: worker
// processes expose a batch-evaluation HTTP endpoint, and the coordinator
// (the only process that owns swarm state) partitions each iteration's
// batch across them and aggregates the results.
package server

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RunIDHeader carries the coordinator's run ID so worker logs can be
// correlated with the run that issued the batch.
const RunIDHeader = "X-Swarmseed-Run"

// EvaluateRequest is one partition of an iteration's position batch.
type EvaluateRequest struct {
	Positions [][]float64 `json:"positions"`
}

// EvaluateResponse carries the fitness values, index-aligned with the
// request positions.
type EvaluateResponse struct {
	Fitness FitnessValues `json:"fitness"`
}

// ErrorResponse is the JSON body of a failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// FitnessValues marshals fitness results. encoding/json rejects non-finite
// numbers, and a failed evaluation is reported as NaN or an infinity, so
// those values travel as quoted strings.
type FitnessValues []float64

// MarshalJSON implements json.Marshaler.
func (f FitnessValues) MarshalJSON() ([]byte, error) {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range f {
		if i > 0 {
			sb.WriteByte(',')
		}
		switch {
		case math.IsNaN(v):
			sb.WriteString(`"NaN"`)
		case math.IsInf(v, 1):
			sb.WriteString(`"+Inf"`)
		case math.IsInf(v, -1):
			sb.WriteString(`"-Inf"`)
		default:
			sb.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
	}
	sb.WriteByte(']')
	return []byte(sb.String()), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FitnessValues) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(FitnessValues, len(raw))
	for i, r := range raw {
		var s string
		if err := json.Unmarshal(r, &s); err == nil {
			switch s {
			case "NaN":
				out[i] = math.NaN()
			case "+Inf", "Inf":
				out[i] = math.Inf(1)
			case "-Inf":
				out[i] = math.Inf(-1)
			default:
				return fmt.Errorf("invalid fitness value %q", s)
			}
			continue
		}
		if err := json.Unmarshal(r, &out[i]); err != nil {
			return fmt.Errorf("invalid fitness value %s: %w", r, err)
		}
	}
	*f = out
	return nil
}

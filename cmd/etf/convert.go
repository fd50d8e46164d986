package main

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/big"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"

	"github.com/diodechain/goetf"
)

// cborEncMode uses Core Deterministic Encoding so the same term always
// yields the same CBOR bytes.
var cborEncMode cbor.EncMode

func init() {
	var err error
	cborEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("etf: CBOR encoder initialization failed: " + err.Error())
	}
}

// readTerms decodes every term in r. The input is read to the end, so
// it is buffered here rather than in the decoder.
func readTerms(r io.Reader, opts []etf.Option, logger *slog.Logger) ([]etf.Term, error) {
	decoder := etf.NewDecoder(bufio.NewReader(r), opts...)
	var terms []etf.Term
	for {
		term, err := decoder.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode term %d: %w", len(terms), err)
		}
		logger.Debug("decoded term", "index", len(terms), "type", fmt.Sprintf("%T", term))
		terms = append(terms, term)
	}
	if len(terms) == 0 {
		return nil, fmt.Errorf("empty input: expected ETF data on stdin")
	}
	return terms, nil
}

// writeTerms writes a single term as one value and several terms as an
// array.
func writeTerms(w io.Writer, terms []etf.Term, format string, compact bool, opts []etf.Option) error {
	items := make([]interface{}, len(terms))
	for i, t := range terms {
		item, err := etf.ToGo(t, opts...)
		if err != nil {
			return fmt.Errorf("convert term %d: %w", i, err)
		}
		items[i] = item
	}
	var value interface{} = items
	if len(items) == 1 {
		value = items[0]
	}

	switch format {
	case "json":
		var data []byte
		var err error
		if compact {
			data, err = json.Marshal(value)
		} else {
			data, err = json.MarshalIndent(value, "", "  ")
		}
		if err != nil {
			return fmt.Errorf("encode JSON: %w", err)
		}
		_, err = w.Write(append(data, '\n'))
		return err
	case "yaml":
		data, err := yaml.Marshal(normalizeYAML(value))
		if err != nil {
			return fmt.Errorf("encode YAML: %w", err)
		}
		_, err = w.Write(data)
		return err
	case "cbor":
		data, err := cborEncMode.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode CBOR: %w", err)
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// normalizeYAML turns values yaml.v3 has no natural form for into
// strings: bignums in decimal and byte slices in base64.
func normalizeYAML(value interface{}) interface{} {
	switch v := value.(type) {
	case *big.Int:
		return v.String()
	case []byte:
		return base64.StdEncoding.EncodeToString(v)
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = normalizeYAML(item)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, item := range v {
			out[k] = normalizeYAML(item)
		}
		return out
	default:
		return value
	}
}

// parseInput reads a JSON or YAML document into plain Go values.
// JSON numbers keep their integer precision.
func parseInput(r io.Reader, input string) (interface{}, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	var value interface{}
	switch input {
	case "json":
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.UseNumber()
		if err := decoder.Decode(&value); err != nil {
			return nil, fmt.Errorf("parse JSON: %w", err)
		}
		return normalizeNumbers(value), nil
	case "yaml":
		if err := yaml.Unmarshal(data, &value); err != nil {
			return nil, fmt.Errorf("parse YAML: %w", err)
		}
		return value, nil
	default:
		return nil, fmt.Errorf("unknown input format %q", input)
	}
}

func normalizeNumbers(value interface{}) interface{} {
	switch v := value.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		if i, ok := new(big.Int).SetString(v.String(), 10); ok {
			return i
		}
		f, _ := v.Float64()
		return f
	case []interface{}:
		for i, item := range v {
			v[i] = normalizeNumbers(item)
		}
		return v
	case map[string]interface{}:
		for k, item := range v {
			v[k] = normalizeNumbers(item)
		}
		return v
	default:
		return value
	}
}

// checkResult describes whether re-encoding a decoded term reproduced
// its input bytes.
type checkResult struct {
	Index  int
	Type   string
	Status string
	Err    error
}

const (
	statusCanonical  = "canonical"
	statusDiffers    = "differs"
	statusCompressed = "compressed"
	statusNoEncoder  = "no encoder"
)

// checkTerms decodes every term in data and re-encodes it.
func checkTerms(data []byte, opts []etf.Option, logger *slog.Logger) ([]checkResult, error) {
	reader := bytes.NewReader(data)
	decoder := etf.NewDecoder(reader, opts...)
	var results []checkResult
	for {
		start := len(data) - reader.Len()
		term, err := decoder.Decode()
		if err == io.EOF {
			return results, nil
		}
		if err != nil {
			return results, fmt.Errorf("decode term %d: %w", len(results), err)
		}
		raw := data[start : len(data)-reader.Len()]
		result := checkResult{Index: len(results), Type: fmt.Sprintf("%T", term)}

		var buf bytes.Buffer
		encoder := etf.NewEncoder(&buf, opts...)
		switch {
		case len(raw) > 1 && raw[0] == etf.VersionTag && raw[1] == etf.CompressedTag:
			// The inflated bytes are not kept, so only encodability is checked.
			result.Status = statusCompressed
			if err := encoder.Encode(term); err != nil {
				result.Status, result.Err = statusNoEncoder, err
			}
		default:
			if raw[0] == etf.VersionTag {
				raw = raw[1:]
			}
			if err := encoder.Encode(term); err != nil {
				result.Status, result.Err = statusNoEncoder, err
			} else if bytes.Equal(buf.Bytes(), raw) {
				result.Status = statusCanonical
			} else {
				result.Status = statusDiffers
			}
		}
		logger.Debug("checked term", "index", result.Index, "type", result.Type, "status", result.Status)
		results = append(results, result)
	}
}

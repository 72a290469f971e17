package noncereuse

import (
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"
)

// SignatureRecord is one parsed signature observation: the digest it signs
// and the (r, s) components.
type SignatureRecord struct {
	Digest *big.Int
	R      *big.Int
	S      *big.Int
}

// SignatureParser parses signature records from a source file.
type SignatureParser interface {
	// ParseSignatures parses signatures from a source and returns them.
	ParseSignatures(source string) ([]*SignatureRecord, error)
}

// JSONParser parses signature records from JSON files.
type JSONParser struct {
	DigestField  string // Field name for the digest (default: "z")
	MessageField string // Field name for the message, hashed when no digest (default: "message")
	RField       string // Field name for r (default: "r")
	SField       string // Field name for s (default: "s")
}

// ParseSignatures parses signature records from a JSON file.
//
// Expected format:
//
//	[
//	  {"z": "0x...", "r": "0x...", "s": "0x..."},
//	  {"message": "...", "r": "...", "s": "..."}
//	]
func (p *JSONParser) ParseSignatures(jsonFile string) ([]*SignatureRecord, error) {
	file, err := os.Open(jsonFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	decoder.UseNumber() // Preserve large numbers as json.Number instead of float64

	var items []map[string]interface{}
	if err := decoder.Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	digestField := p.DigestField
	if digestField == "" {
		digestField = "z"
	}
	messageField := p.MessageField
	if messageField == "" {
		messageField = "message"
	}
	rField := p.RField
	if rField == "" {
		rField = "r"
	}
	sField := p.SField
	if sField == "" {
		sField = "s"
	}

	records := make([]*SignatureRecord, 0, len(items))
	for _, item := range items {
		rec := &SignatureRecord{}

		if zVal, ok := item[digestField]; ok {
			z, err := parseBigInt(zVal)
			if err != nil {
				return nil, fmt.Errorf("failed to parse digest: %w", err)
			}
			rec.Digest = z
		}

		// No explicit digest: hash the message instead.
		if rec.Digest == nil {
			msgVal, ok := item[messageField]
			if !ok {
				return nil, fmt.Errorf("missing %s or %s field", digestField, messageField)
			}
			msg, ok := msgVal.(string)
			if !ok {
				return nil, fmt.Errorf("message field must be a string")
			}
			rec.Digest = HashMessage([]byte(msg))
		}

		rVal, ok := item[rField]
		if !ok {
			return nil, fmt.Errorf("missing %s field", rField)
		}
		r, err := parseBigInt(rVal)
		if err != nil {
			return nil, fmt.Errorf("failed to parse r: %w", err)
		}
		rec.R = r

		sVal, ok := item[sField]
		if !ok {
			return nil, fmt.Errorf("missing %s field", sField)
		}
		s, err := parseBigInt(sVal)
		if err != nil {
			return nil, fmt.Errorf("failed to parse s: %w", err)
		}
		rec.S = s

		records = append(records, rec)
	}

	return records, nil
}

// CSVParser parses signature records from CSV files.
type CSVParser struct {
	DigestCol  string // Column name for the digest (default: "z")
	MessageCol string // Column name for the message, hashed when no digest (default: "message")
	RCol       string // Column name for r (default: "r")
	SCol       string // Column name for s (default: "s")
}

// ParseSignatures parses signature records from a CSV file with a header
// row.
func (p *CSVParser) ParseSignatures(csvFile string) ([]*SignatureRecord, error) {
	file, err := os.Open(csvFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	digestCol := p.DigestCol
	if digestCol == "" {
		digestCol = "z"
	}
	messageCol := p.MessageCol
	if messageCol == "" {
		messageCol = "message"
	}
	rCol := p.RCol
	if rCol == "" {
		rCol = "r"
	}
	sCol := p.SCol
	if sCol == "" {
		sCol = "s"
	}

	digestIdx, messageIdx, rIdx, sIdx := -1, -1, -1, -1
	for i, col := range header {
		switch col {
		case digestCol:
			digestIdx = i
		case messageCol:
			messageIdx = i
		case rCol:
			rIdx = i
		case sCol:
			sIdx = i
		}
	}
	if rIdx == -1 || sIdx == -1 {
		return nil, fmt.Errorf("missing required columns: %s or %s", rCol, sCol)
	}

	records := make([]*SignatureRecord, 0)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}

		rec := &SignatureRecord{}

		if digestIdx >= 0 && digestIdx < len(row) && row[digestIdx] != "" {
			z, err := parseBigInt(row[digestIdx])
			if err != nil {
				return nil, fmt.Errorf("failed to parse digest: %w", err)
			}
			rec.Digest = z
		} else if messageIdx >= 0 && messageIdx < len(row) {
			rec.Digest = HashMessage([]byte(row[messageIdx]))
		} else {
			return nil, fmt.Errorf("missing %s or %s column", digestCol, messageCol)
		}

		if rIdx >= len(row) || sIdx >= len(row) {
			return nil, fmt.Errorf("r or s column index out of range")
		}
		r, err := parseBigInt(row[rIdx])
		if err != nil {
			return nil, fmt.Errorf("failed to parse r: %w", err)
		}
		rec.R = r
		s, err := parseBigInt(row[sIdx])
		if err != nil {
			return nil, fmt.Errorf("failed to parse s: %w", err)
		}
		rec.S = s

		records = append(records, rec)
	}

	return records, nil
}

// parseBigInt parses a big integer from the formats signature dumps use:
// hex strings (with or without 0x), decimal strings, and JSON numbers.
func parseBigInt(val interface{}) (*big.Int, error) {
	switch v := val.(type) {
	case string:
		s := strings.TrimPrefix(v, "0x")
		s = strings.TrimPrefix(s, "0X")

		// Long or letter-bearing strings are treated as hex first.
		if strings.ContainsAny(s, "abcdefABCDEF") || len(s) > 20 {
			if len(s)%2 == 1 {
				s = "0" + s
			}
			raw, err := hex.DecodeString(s)
			if err == nil {
				return new(big.Int).SetBytes(raw), nil
			}
		}

		z := new(big.Int)
		if _, ok := z.SetString(s, 10); !ok {
			return nil, fmt.Errorf("invalid number format: %s", v)
		}
		return z, nil

	case json.Number:
		z := new(big.Int)
		if _, ok := z.SetString(string(v), 10); !ok {
			return nil, fmt.Errorf("invalid number format: %s", v)
		}
		return z, nil

	case int64:
		return big.NewInt(v), nil

	case int:
		return big.NewInt(int64(v)), nil

	default:
		return nil, fmt.Errorf("unsupported type: %T", val)
	}
}

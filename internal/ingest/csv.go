package ingest

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"lead-scoring/backend/internal/model"
)

const maxLeadCSVBytes = 32 << 20

// ParseLeadCSV turns a CSV with a header row into leads keyed by header.
// Short rows simply lack the trailing keys; cells beyond the header are dropped.
func ParseLeadCSV(r io.Reader) ([]model.Lead, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxLeadCSVBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(data) > maxLeadCSVBytes {
		return nil, errors.New("csv file too large")
	}
	if !utf8.Valid(data) {
		return nil, errors.New("csv must be UTF-8 encoded")
	}
	data = bytes.TrimPrefix(data, []byte("\ufeff"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []model.Lead{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	leads := []model.Lead{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		lead := make(model.Lead, len(header))
		for i, key := range header {
			if i >= len(record) {
				break
			}
			lead[key] = record[i]
		}
		leads = append(leads, lead)
	}
	return leads, nil
}

// DecodeOffer reads an offer JSON document. All three fields must be present.
func DecodeOffer(r io.Reader) (model.Offer, error) {
	var raw struct {
		Name          *string   `json:"name"`
		ValueProps    *[]string `json:"value_props"`
		IdealUseCases *[]string `json:"ideal_use_cases"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return model.Offer{}, fmt.Errorf("decode offer: %w", err)
	}
	switch {
	case raw.Name == nil || strings.TrimSpace(*raw.Name) == "":
		return model.Offer{}, errors.New("offer name is required")
	case raw.ValueProps == nil:
		return model.Offer{}, errors.New("offer value_props is required")
	case raw.IdealUseCases == nil:
		return model.Offer{}, errors.New("offer ideal_use_cases is required")
	}
	return model.Offer{Name: *raw.Name, ValueProps: *raw.ValueProps, IdealUseCases: *raw.IdealUseCases}, nil
}

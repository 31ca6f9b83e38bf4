// Package services exposes one typed facade per API resource. The facades
// are pass-throughs: they translate Go calls into adapter requests and
// decode the responses, with no business logic of their own.
package services

import "encoding/json"

// decodeList handles both response shapes the API produces for
// collections: a paginated object with a results array, or a bare array.
func decodeList[T any](raw json.RawMessage) ([]T, error) {
	var paged struct {
		Results []T `json:"results"`
	}
	if err := json.Unmarshal(raw, &paged); err == nil && paged.Results != nil {
		return paged.Results, nil
	}
	var plain []T
	if err := json.Unmarshal(raw, &plain); err != nil {
		return nil, err
	}
	return plain, nil
}

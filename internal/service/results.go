package service

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Row is one fetched record keyed by column name.
type Row map[string]any

// Bucket holds the page of one entity.
type Bucket struct {
	Query      *string `json:"query,omitempty"`
	TotalItems int64   `json:"total_items"`
	TotalPages int     `json:"total_pages"`
	Results    []Row   `json:"results"`
}

// Results is the outcome of one Find call. Buckets keep registration order.
type Results struct {
	Page    int
	PerPage int

	keys    []string
	buckets map[string]Bucket
}

func newResults(page, perPage int) *Results {
	return &Results{Page: page, PerPage: perPage, buckets: make(map[string]Bucket)}
}

func (r *Results) add(key string, b Bucket) {
	if _, exists := r.buckets[key]; !exists {
		r.keys = append(r.keys, key)
	}
	r.buckets[key] = b
}

// Keys returns the bucket keys in registration order.
func (r *Results) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Bucket returns the bucket stored under key.
func (r *Results) Bucket(key string) (Bucket, bool) {
	b, ok := r.buckets[key]
	return b, ok
}

// TotalItems sums the matches of every bucket.
func (r *Results) TotalItems() int64 {
	var total int64
	for _, b := range r.buckets {
		total += b.TotalItems
	}
	return total
}

// MarshalJSON writes page and per_page first, then one member per bucket in
// registration order.
func (r *Results) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"page":`)
	buf.WriteString(strconv.Itoa(r.Page))
	buf.WriteString(`,"per_page":`)
	buf.WriteString(strconv.Itoa(r.PerPage))

	for _, key := range r.keys {
		name, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		body, err := json.Marshal(r.buckets[key])
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(body)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

// Package pagination produces bounded, offset based pages over an ordered collection,
// together with the metadata a transport sends out of band.
package pagination

import (
	"encoding/json"
	"math"

	"dmcore/internal/apperr"

	"gorm.io/gorm"
)

const (
	DefaultPageNumber = 1
	DefaultPageSize   = 10
	MaxPageSize       = 50

	HeaderName = "Pagination" // Response header carrying the JSON encoded Metadata
)

// Params is a requested page. PageNumber is 1-based.
type Params struct {
	PageNumber int
	PageSize   int
}

// Normalize validates the request and fills in the defaults:
// a zero page size becomes DefaultPageSize, anything above MaxPageSize is clamped.
func (p Params) Normalize() (Params, error) {
	if p.PageNumber < 1 {
		return p, apperr.ErrInvalidPage
	}
	if p.PageSize < 0 {
		return p, apperr.ErrInvalidPageSize
	}
	if p.PageSize == 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p, nil
}

// Offset of the first item of the page. Params must be normalized.
// Pages too far away to be addressed saturate at math.MaxInt, which is past the end of any collection.
func (p Params) Offset() int {
	if p.PageNumber < 1 || p.PageSize <= 0 {
		return 0
	}
	if p.PageNumber-1 > math.MaxInt/p.PageSize {
		return math.MaxInt
	}
	return (p.PageNumber - 1) * p.PageSize
}

type Metadata struct {
	CurrentPage  int   `json:"currentPage"`
	ItemsPerPage int   `json:"itemsPerPage"`
	TotalItems   int64 `json:"totalItems"`
	TotalPages   int   `json:"totalPages"`
}

// NewMetadata computes the metadata of a normalized page over total items
func NewMetadata(params Params, total int64) Metadata {
	pages := 0
	if params.PageSize > 0 {
		pages = int((total + int64(params.PageSize) - 1) / int64(params.PageSize))
	}
	return Metadata{
		CurrentPage:  params.PageNumber,
		ItemsPerPage: params.PageSize,
		TotalItems:   total,
		TotalPages:   pages,
	}
}

// Header encodes the metadata as the value of HeaderName
func (m Metadata) Header() string {
	payload, _ := json.Marshal(m)
	return string(payload)
}

// ParseHeader decodes a HeaderName value
func ParseHeader(value string) (Metadata, error) {
	var m Metadata
	err := json.Unmarshal([]byte(value), &m)
	return m, err
}

// Page is one page of items plus its metadata
type Page[T any] struct {
	Items    []T      `json:"items"`
	Metadata Metadata `json:"metadata"`
}

// Paginate counts the rows matched by query and loads only the requested page, ordered by order.
// The query must already carry its filters and model.
func Paginate[T any](query *gorm.DB, order string, params Params) (*Page[T], error) {
	params, err := params.Normalize()
	if err != nil {
		return nil, err
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, err
	}

	items := make([]T, 0, params.PageSize)
	if int64(params.Offset()) < total {
		if err := query.Session(&gorm.Session{}).Order(order).Offset(params.Offset()).Limit(params.PageSize).Find(&items).Error; err != nil {
			return nil, err
		}
	}

	return &Page[T]{Items: items, Metadata: NewMetadata(params, total)}, nil
}

// Slice pages an already ordered in-memory collection
func Slice[T any](items []T, params Params) (*Page[T], error) {
	params, err := params.Normalize()
	if err != nil {
		return nil, err
	}

	total := len(items)
	start := min(params.Offset(), total)
	end := min(start+params.PageSize, total)

	page := make([]T, end-start)
	copy(page, items[start:end])
	return &Page[T]{Items: page, Metadata: NewMetadata(params, int64(total))}, nil
}

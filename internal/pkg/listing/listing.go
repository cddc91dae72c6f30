// Package listing implements cursor pagination shared by every list route.
package listing

import (
	"github.com/ManuelReschke/PayFox/app/models"
	"github.com/ManuelReschke/PayFox/internal/pkg/apierror"
	"github.com/ManuelReschke/PayFox/internal/pkg/params"
	"github.com/ManuelReschke/PayFox/internal/pkg/validation"
)

// Query holds the pagination parameters of a list request. A zero Limit means
// no limit.
type Query struct {
	Limit         int64
	StartingAfter string
	EndingBefore  string
}

// Page is one slice of a list.
type Page[T any] struct {
	Data    []T
	HasMore bool
}

// ParseQuery reads limit, starting_after and ending_before.
func ParseQuery(p *params.Params) (Query, error) {
	var q Query

	limit, err := p.Int64("limit")
	if err != nil {
		return q, err
	}
	if limit.IsSet() {
		if err := validation.Limit(limit.Value); err != nil {
			return q, err
		}
		q.Limit = limit.Value
	}

	q.StartingAfter = p.String("starting_after").Or("")
	q.EndingBefore = p.String("ending_before").Or("")
	if q.StartingAfter != "" && q.EndingBefore != "" {
		return q, apierror.InvalidRequest("You may only specify one of these parameters: starting_after, ending_before.", "ending_before")
	}
	return q, nil
}

// Paginate applies keep to the newest-first sequence all, then the cursor
// and limit of q. Cursors are checked through retrieve so a bad cursor fails
// exactly like a bad id elsewhere. A cursor that exists but is filtered out
// still marks its position in all.
func Paginate[T models.Record](all []T, keep func(T) bool, q Query, retrieve func(id, param string) error) (Page[T], error) {
	switch {
	case q.StartingAfter != "":
		if err := retrieve(q.StartingAfter, "starting_after"); err != nil {
			return Page[T]{}, err
		}
		pos := indexOf(all, q.StartingAfter)
		return head(filter(all[pos+1:], keep), q.Limit), nil

	case q.EndingBefore != "":
		if err := retrieve(q.EndingBefore, "ending_before"); err != nil {
			return Page[T]{}, err
		}
		pos := indexOf(all, q.EndingBefore)
		if pos < 0 {
			pos = len(all)
		}
		return tail(filter(all[:pos], keep), q.Limit), nil
	}
	return head(filter(all, keep), q.Limit), nil
}

// indexOf returns the position of id, or len(all)-1 when it is missing so
// that a cursor pointing at a record outside all yields an empty page.
func indexOf[T models.Record](all []T, id string) int {
	for i, r := range all {
		if r.GetID() == id {
			return i
		}
	}
	return len(all) - 1
}

func filter[T any](in []T, keep func(T) bool) []T {
	out := make([]T, 0, len(in))
	for _, r := range in {
		if keep == nil || keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func head[T any](in []T, limit int64) Page[T] {
	if limit <= 0 || int64(len(in)) <= limit {
		return Page[T]{Data: in}
	}
	return Page[T]{Data: in[:limit], HasMore: true}
}

func tail[T any](in []T, limit int64) Page[T] {
	if limit <= 0 || int64(len(in)) <= limit {
		return Page[T]{Data: in}
	}
	return Page[T]{Data: in[int64(len(in))-limit:], HasMore: true}
}

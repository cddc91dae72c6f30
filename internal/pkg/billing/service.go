// Package billing holds the business rules of every API resource. Each
// operation validates its parameters completely before it changes any
// record, and records are never modified in place: an update stores a fresh
// copy, so a value handed to a caller stays stable while it is encoded.
package billing

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/ManuelReschke/PayFox/app/models"
	"github.com/ManuelReschke/PayFox/app/repository"
	"github.com/ManuelReschke/PayFox/internal/pkg/apierror"
	"github.com/ManuelReschke/PayFox/internal/pkg/idgen"
	"github.com/ManuelReschke/PayFox/internal/pkg/jobqueue"
	"github.com/ManuelReschke/PayFox/internal/pkg/listing"
	"github.com/ManuelReschke/PayFox/internal/pkg/params"
	"github.com/ManuelReschke/PayFox/internal/pkg/tokens"
)

// DefaultDisputeDelay is how long after a charge its simulated dispute appears.
const DefaultDisputeDelay = time.Second

// Options tune a Service. The zero value is usable.
type Options struct {
	DisputeDelay time.Duration
	Clock        func() time.Time
}

// Service implements every resource namespace on top of the record stores.
type Service struct {
	repos        *repository.Repositories
	tokens       *tokens.Interpreter
	queue        *jobqueue.Queue
	disputeDelay time.Duration
	clock        func() time.Time

	// mu serializes read-modify-write sequences across stores
	mu sync.Mutex
}

// NewService wires a service to its stores, token interpreter and job queue
// and registers the deferred dispute handler on the queue.
func NewService(repos *repository.Repositories, interp *tokens.Interpreter, queue *jobqueue.Queue, opts Options) *Service {
	s := &Service{
		repos:        repos,
		tokens:       interp,
		queue:        queue,
		disputeDelay: opts.DisputeDelay,
		clock:        opts.Clock,
	}
	if s.disputeDelay <= 0 {
		s.disputeDelay = DefaultDisputeDelay
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	queue.Register(jobqueue.JobTypeCreateDispute, s.handleDisputeJob)
	return s
}

// Repositories exposes the underlying stores.
func (s *Service) Repositories() *repository.Repositories {
	return s.repos
}

func (s *Service) now() time.Time {
	return s.clock()
}

// newID returns the caller-supplied id when the request carries one.
func newID(p *params.Params, prefix string) string {
	if id := p.String("id"); id.IsSet() {
		return id.Value
	}
	return idgen.New(prefix)
}

// checkFreeID fails early when an explicit id is already taken, before any
// side effect such as consuming a token has happened.
func checkFreeID[T models.Record](store repository.RecordStore[T], account string, p *params.Params, kind string) error {
	id := p.String("id")
	if id.IsSet() && store.Contains(account, id.Value) {
		return apierror.ResourceAlreadyExists(kind, id.Value)
	}
	return nil
}

func put[T models.Record](store repository.RecordStore[T], account string, record T, kind string) error {
	if err := store.Put(account, record); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return apierror.ResourceAlreadyExists(kind, record.GetID())
		}
		return apierror.APIError(err.Error())
	}
	return nil
}

func replace[T models.Record](store repository.RecordStore[T], account string, record T, kind string) error {
	if err := store.Replace(account, record); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apierror.ResourceMissing(kind, record.GetID(), "id")
		}
		return apierror.APIError(err.Error())
	}
	return nil
}

func get[T models.Record](store repository.RecordStore[T], account, id, kind, param string) (T, error) {
	record, ok := store.Get(account, id)
	if !ok {
		var zero T
		return zero, apierror.ResourceMissing(kind, id, param)
	}
	return record, nil
}

// list pages through a store with the request's cursor parameters.
func list[T models.Record](store repository.RecordStore[T], account, kind string, p *params.Params, keep func(T) bool) (listing.Page[T], error) {
	q, err := listing.ParseQuery(p)
	if err != nil {
		return listing.Page[T]{}, err
	}
	return listing.Paginate(store.GetAll(account), keep, q, func(id, param string) error {
		_, err := get(store, account, id, kind, param)
		return err
	})
}

// createMetadata reads metadata for a new record.
func createMetadata(p *params.Params) (map[string]string, error) {
	f, err := p.StringMap("metadata")
	if err != nil {
		return nil, err
	}
	return models.ApplyMetadata(nil, f.Value), nil
}

// updateMetadata merges the request's metadata into current. Absent leaves
// it untouched, an empty metadata= clears it.
func updateMetadata(p *params.Params, current map[string]string) (map[string]string, error) {
	f, err := p.StringMap("metadata")
	if err != nil {
		return nil, err
	}
	switch f.State {
	case params.Null:
		return map[string]string{}, nil
	case params.Set:
		return models.ApplyMetadata(current, f.Value), nil
	}
	return current, nil
}

// optionalString maps a tri-state field onto a nullable attribute:
// set keeps the value, empty clears it, absent leaves current.
func optionalString(f params.Field[string], current *string) *string {
	switch f.State {
	case params.Set:
		return models.String(f.Value)
	case params.Null:
		return nil
	}
	return current
}

func optionalBool(p *params.Params, name string, current bool) (bool, error) {
	f, err := p.Bool(name)
	if err != nil {
		return current, err
	}
	return f.Or(current), nil
}

func lowerCurrency(p *params.Params, name string) params.Field[string] {
	f := p.String(name)
	f.Value = strings.ToLower(strings.TrimSpace(f.Value))
	return f
}

func prefixOf(id string) string {
	if i := strings.IndexByte(id, '_'); i > 0 {
		return id[:i]
	}
	return ""
}

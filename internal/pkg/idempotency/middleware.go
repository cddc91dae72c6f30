package idempotency

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ManuelReschke/PayFox/internal/pkg/apierror"
	"github.com/ManuelReschke/PayFox/internal/pkg/params"
	"github.com/ManuelReschke/PayFox/internal/pkg/requestcontext"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderReplayed       = "Idempotent-Replayed"
	HeaderOriginal       = "Original-Request"

	maxKeyLength = 255
)

// Config for New.
type Config struct {
	Store *Store
	// LockTimeout bounds how long a crashed request can hold its key.
	LockTimeout time.Duration
}

// New returns the idempotency middleware. It must run after the account of
// the request is known.
func New(cfg Config) fiber.Handler {
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = time.Minute
	}
	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost {
			return c.Next()
		}
		rawKey := c.Get(HeaderIdempotencyKey)
		if rawKey == "" {
			return c.Next()
		}
		if len(rawKey) > maxKeyLength {
			return apierror.InvalidRequest(fmt.Sprintf("Idempotency-Key must be at most %d characters long.", maxKeyLength), "")
		}

		p, err := params.Parse(string(c.Body()))
		if err != nil {
			return err
		}
		rc := requestcontext.Get(c)
		key := Key(rc.Account, c.Method(), c.Path(), rawKey)

		rec, err := cfg.Store.Get(key)
		if err != nil {
			log.Errorf("[Idempotency] %v", err)
			return apierror.APIError("An unknown error occurred")
		}
		if rec != nil {
			return replay(c, rec, p, rawKey)
		}

		ctx := c.UserContext()
		acquired, err := cfg.Store.Lock(ctx, key, cfg.LockTimeout)
		if err != nil {
			log.Errorf("[Idempotency] Failed to lock key: %v", err)
			return apierror.APIError("An unknown error occurred")
		}
		if !acquired {
			return apierror.IdempotencyConflict("There is currently another in-progress request using this Idempotent Key (that probably means you submitted twice, and the other request is still going through): " + rawKey + ". Please try again later.")
		}
		defer func() {
			if err := cfg.Store.Unlock(ctx, key); err != nil {
				log.Warnf("[Idempotency] Failed to unlock key: %v", err)
			}
		}()

		// the first request may have finished between Get and Lock
		if rec, err = cfg.Store.Get(key); err == nil && rec != nil {
			return replay(c, rec, p, rawKey)
		}

		if err := c.Next(); err != nil {
			if herr := c.App().Config().ErrorHandler(c, err); herr != nil {
				return herr
			}
		}

		status := c.Response().StatusCode()
		if status == fiber.StatusTooManyRequests {
			return nil
		}
		rec = &Record{
			RequestID:   rc.RequestID,
			Params:      p.Tree(),
			Status:      status,
			ContentType: string(c.Response().Header.ContentType()),
			Body:        append([]byte(nil), c.Response().Body()...),
			CreatedAt:   time.Now(),
		}
		if err := cfg.Store.Save(key, rec); err != nil {
			log.Errorf("[Idempotency] Failed to save response of %s: %v", rc.RequestID, err)
		}
		return nil
	}
}

// replay answers with rec when the new request sends the same parameters.
func replay(c *fiber.Ctx, rec *Record, p *params.Params, rawKey string) error {
	if !cmp.Equal(rec.Params, p.Tree(), cmpopts.EquateEmpty()) {
		return apierror.Idempotency(fmt.Sprintf("Keys for idempotent requests can only be used with the same parameters they were first used with. Try using a key other than '%s' if you meant to execute a different request.", rawKey))
	}
	c.Set(HeaderReplayed, "true")
	c.Set(HeaderOriginal, rec.RequestID)
	if rec.ContentType != "" {
		c.Set(fiber.HeaderContentType, rec.ContentType)
	}
	return c.Status(rec.Status).Send(rec.Body)
}

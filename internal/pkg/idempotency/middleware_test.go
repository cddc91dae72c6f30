package idempotency

import (
	"context"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/PayFox/internal/pkg/apierror"
	"github.com/ManuelReschke/PayFox/internal/pkg/requestcontext"
)

func newTestApp(t *testing.T, store *Store, status int) (*fiber.App, *atomic.Int64) {
	t.Helper()
	calls := &atomic.Int64{}
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			apiErr := apierror.From(err)
			return c.Status(apiErr.Status).JSON(apiErr.Body())
		},
	})
	var seq atomic.Int64
	app.Use(func(c *fiber.Ctx) error {
		requestcontext.Set(c, requestcontext.RequestContext{
			RequestID: fmt.Sprintf("req_%d", seq.Add(1)),
			Account:   "acct_default",
		})
		return c.Next()
	})
	app.Use(New(Config{Store: store}))
	app.Post("/v1/charges", func(c *fiber.Ctx) error {
		n := calls.Add(1)
		if status != fiber.StatusOK {
			return c.Status(status).JSON(fiber.Map{"n": n})
		}
		return c.JSON(fiber.Map{"id": "ch_1", "n": n, "body": string(c.Body())})
	})
	return app, calls
}

func post(t *testing.T, app *fiber.App, key, body string) (*response, error) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/v1/charges", strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	if key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}
	resp, err := app.Test(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &response{status: resp.StatusCode, header: resp.Header.Get, body: string(raw)}, nil
}

type response struct {
	status int
	header func(string) string
	body   string
}

func TestReplay(t *testing.T) {
	app, calls := newTestApp(t, NewMemoryStore(time.Hour), fiber.StatusOK)

	first, err := post(t, app, "key-1", "amount=2000&currency=usd&metadata[a]=b")
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, first.status)
	assert.Empty(t, first.header(HeaderReplayed))

	second, err := post(t, app, "key-1", "currency=usd&amount=2000&metadata[a]=b")
	require.NoError(t, err)
	assert.Equal(t, first.status, second.status)
	assert.Equal(t, first.body, second.body)
	assert.Equal(t, "true", second.header(HeaderReplayed))
	assert.Equal(t, "req_1", second.header(HeaderOriginal))
	assert.Equal(t, int64(1), calls.Load())
}

func TestReplay_DifferentParams(t *testing.T) {
	app, calls := newTestApp(t, NewMemoryStore(time.Hour), fiber.StatusOK)

	_, err := post(t, app, "key-1", "amount=2000&currency=usd")
	require.NoError(t, err)

	resp, err := post(t, app, "key-1", "amount=3000&currency=usd")
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.status)
	assert.Contains(t, resp.body, apierror.TypeIdempotency)
	assert.Equal(t, int64(1), calls.Load())
}

func TestNoKeyOrOtherKey(t *testing.T) {
	app, calls := newTestApp(t, NewMemoryStore(time.Hour), fiber.StatusOK)

	for _, key := range []string{"", "", "key-1", "key-2"} {
		_, err := post(t, app, key, "amount=2000")
		require.NoError(t, err)
	}
	assert.Equal(t, int64(4), calls.Load())
}

func TestRateLimitedResponsesAreNotRecorded(t *testing.T) {
	app, calls := newTestApp(t, NewMemoryStore(time.Hour), fiber.StatusTooManyRequests)

	for i := 0; i < 2; i++ {
		resp, err := post(t, app, "key-1", "amount=2000")
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusTooManyRequests, resp.status)
	}
	assert.Equal(t, int64(2), calls.Load())
}

func TestErrorsAreReplayed(t *testing.T) {
	app, calls := newTestApp(t, NewMemoryStore(time.Hour), fiber.StatusPaymentRequired)

	first, err := post(t, app, "key-1", "amount=2000")
	require.NoError(t, err)
	second, err := post(t, app, "key-1", "amount=2000")
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusPaymentRequired, second.status)
	assert.Equal(t, first.body, second.body)
	assert.Equal(t, int64(1), calls.Load())
}

func TestInFlightKeyConflicts(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	app, calls := newTestApp(t, store, fiber.StatusOK)

	key := Key("acct_default", fiber.MethodPost, "/v1/charges", "key-1")
	ok, err := store.Lock(context.Background(), key, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	resp, err := post(t, app, "key-1", "amount=2000")
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.status)
	assert.Contains(t, resp.body, apierror.CodeIdempotencyKeyInUse)
	assert.Zero(t, calls.Load())

	require.NoError(t, store.Unlock(context.Background(), key))
	resp, err = post(t, app, "key-1", "amount=2000")
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.status)
}

func TestKeyIsScoped(t *testing.T) {
	base := Key("acct_default", "POST", "/v1/charges", "k")
	assert.NotEqual(t, base, Key("acct_other", "POST", "/v1/charges", "k"))
	assert.NotEqual(t, base, Key("acct_default", "POST", "/v1/refunds", "k"))
	assert.Equal(t, base, Key("acct_default", "POST", "/v1/charges", "k"))
}

func TestMemoryStoreExpiry(t *testing.T) {
	// the memory storage counts expiry in whole seconds
	store := NewMemoryStore(2 * time.Second)
	require.NoError(t, store.Save("k", &Record{Status: 200, Body: []byte("{}")}))

	rec, err := store.Get("k")
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Eventually(t, func() bool {
		rec, err := store.Get("k")
		return err == nil && rec == nil
	}, 5*time.Second, 50*time.Millisecond)
}

func TestMemoryLocker(t *testing.T) {
	ctx := context.Background()
	l := &memoryLocker{locks: map[string]time.Time{}}

	ok, err := l.Lock(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.Lock(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "held lock must not block or be taken twice")

	require.NoError(t, l.Unlock(ctx, "k"))
	ok, err = l.Lock(ctx, "k", 10*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Eventually(t, func() bool {
		ok, err := l.Lock(ctx, "k", time.Minute)
		return err == nil && ok
	}, time.Second, 5*time.Millisecond)
}

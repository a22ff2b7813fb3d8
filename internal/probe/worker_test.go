package probe_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jpalmerr/slotwatch/internal/browser/browsertest"
	"github.com/jpalmerr/slotwatch/internal/claim"
	"github.com/jpalmerr/slotwatch/internal/notify"
	"github.com/jpalmerr/slotwatch/internal/probe"
	"github.com/jpalmerr/slotwatch/internal/retry"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const (
	targetURL   = "https://site.example/Services/Booking/489"
	servicesURL = "https://site.example/Services"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type countingNotifier struct {
	calls atomic.Int32
}

func (n *countingNotifier) NotifyOnce(context.Context, notify.Message) {
	n.calls.Add(1)
}

// losingClaimer never reports a claim but refuses every TryClaim, modelling
// a rival that won between this worker's check and its claim.
type losingClaimer struct{}

func (losingClaimer) TryClaim(string) bool { return false }
func (losingClaimer) Claimed() bool        { return false }

// landsOnAttempt returns a hook that reaches the target on the k-th probe.
// k <= 0 never reaches it.
func landsOnAttempt(k int) browsertest.NavigateFunc {
	return func(_ context.Context, url string, n int) (string, error) {
		if k > 0 && n >= k {
			return url, nil
		}
		return servicesURL, nil
	}
}

func newWorker(policy retry.Policy, page *browsertest.Page, claims probe.Claimer, n probe.Notifier) *probe.Worker {
	return probe.NewWorker(probe.Config{
		ID:        "worker-1",
		TargetURL: targetURL,
		Policy:    policy,
		Message:   notify.Message{To: "to@example.com", From: "from@example.com"},
	}, page, claims, n, testLogger())
}

func TestWorker_ExhaustsAfterExactlyBudget(t *testing.T) {
	t.Parallel()

	for _, budget := range []int{1, 2, 5} {
		page := browsertest.NewPage("page1", landsOnAttempt(0), nil)
		notifier := &countingNotifier{}

		res := newWorker(retry.Limit(budget), page, claim.New(), notifier).Run(t.Context())

		require.Equal(t, probe.StateExhausted, res.State)
		require.Equal(t, budget, res.Attempts)
		require.Equal(t, budget, page.CountNavigations(targetURL))
		require.True(t, res.Released)
		require.Equal(t, 1, page.CloseCount())
		require.NoError(t, res.Err)
		require.Zero(t, notifier.calls.Load())
	}
}

func TestWorker_UnlimitedNeverExhausts(t *testing.T) {
	t.Parallel()

	page := browsertest.NewPage("page1", landsOnAttempt(250), nil)
	notifier := &countingNotifier{}
	claims := claim.New()

	res := newWorker(retry.UnlimitedPolicy(), page, claims, notifier).Run(t.Context())

	require.Equal(t, probe.StateSucceeded, res.State)
	require.Equal(t, 250, res.Attempts)
	require.False(t, res.Released, "winner keeps its page open")
	require.False(t, page.Closed())
	require.EqualValues(t, 1, notifier.calls.Load())

	winner, ok := claims.Winner()
	require.True(t, ok)
	require.Equal(t, "worker-1", winner)
}

func TestWorker_UnlimitedCancelledByRivalClaim(t *testing.T) {
	t.Parallel()

	claims := claim.New()
	page := browsertest.NewPage("page1", func(_ context.Context, _ string, n int) (string, error) {
		if n == 10 {
			claims.TryClaim("worker-2")
		}
		return servicesURL, nil
	}, nil)
	notifier := &countingNotifier{}

	res := newWorker(retry.UnlimitedPolicy(), page, claims, notifier).Run(t.Context())

	require.Equal(t, probe.StateCancelled, res.State)
	require.Equal(t, 10, res.Attempts)
	require.True(t, page.Closed())
	require.Zero(t, notifier.calls.Load())
}

func TestWorker_AlreadyClaimed(t *testing.T) {
	t.Parallel()

	claims := claim.New()
	claims.TryClaim("worker-9")
	page := browsertest.NewPage("page1", landsOnAttempt(1), nil)

	res := newWorker(retry.Limit(3), page, claims, &countingNotifier{}).Run(t.Context())

	require.Equal(t, probe.StateCancelled, res.State)
	require.Zero(t, res.Attempts)
	require.Empty(t, page.Navigations())
	require.True(t, page.Closed())
}

func TestWorker_ClaimDuringProbeDiscardsResult(t *testing.T) {
	t.Parallel()

	claims := claim.New()
	page := browsertest.NewPage("page1", func(_ context.Context, url string, _ int) (string, error) {
		// the probe would succeed, but a rival claims while it is in flight
		claims.TryClaim("worker-2")
		return url, nil
	}, nil)
	notifier := &countingNotifier{}

	res := newWorker(retry.Limit(5), page, claims, notifier).Run(t.Context())

	require.Equal(t, probe.StateCancelled, res.State)
	require.Equal(t, 1, res.Attempts)
	require.True(t, page.Closed())
	require.Zero(t, notifier.calls.Load())

	winner, _ := claims.Winner()
	require.Equal(t, "worker-2", winner)
}

func TestWorker_LostClaimRaceReleasesPage(t *testing.T) {
	t.Parallel()

	page := browsertest.NewPage("page1", landsOnAttempt(1), nil)
	notifier := &countingNotifier{}

	res := newWorker(retry.Limit(5), page, losingClaimer{}, notifier).Run(t.Context())

	require.Equal(t, probe.StateCancelled, res.State)
	require.True(t, res.Released)
	require.True(t, page.Closed())
	require.Zero(t, notifier.calls.Load())
}

func TestWorker_NavigationErrorsAreRetried(t *testing.T) {
	t.Parallel()

	page := browsertest.NewPage("page1", func(_ context.Context, url string, n int) (string, error) {
		if n < 4 {
			return "", errors.New("net::ERR_TIMED_OUT")
		}
		return url, nil
	}, nil)

	res := newWorker(retry.UnlimitedPolicy(), page, claim.New(), &countingNotifier{}).Run(t.Context())

	require.Equal(t, probe.StateSucceeded, res.State)
	require.Equal(t, 4, res.Attempts)
	require.NoError(t, res.Err)
}

func TestWorker_NavigationErrorsCountAgainstBudget(t *testing.T) {
	t.Parallel()

	page := browsertest.NewPage("page1", func(context.Context, string, int) (string, error) {
		return "", errors.New("net::ERR_TIMED_OUT")
	}, nil)

	res := newWorker(retry.Limit(3), page, claim.New(), &countingNotifier{}).Run(t.Context())

	require.Equal(t, probe.StateExhausted, res.State)
	require.Equal(t, 3, res.Attempts)
}

func TestWorker_ContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	page := browsertest.NewPage("page1", func(_ context.Context, _ string, n int) (string, error) {
		if n == 3 {
			cancel()
		}
		return servicesURL, nil
	}, nil)

	res := newWorker(retry.UnlimitedPolicy(), page, claim.New(), &countingNotifier{}).Run(ctx)

	require.Equal(t, probe.StateCancelled, res.State)
	require.ErrorIs(t, res.Err, context.Canceled)
	require.Equal(t, 3, res.Attempts)
	require.True(t, page.Closed())
}

func TestWorker_DelayBetweenAttempts(t *testing.T) {
	t.Parallel()

	page := browsertest.NewPage("page1", landsOnAttempt(0), nil)
	policy := retry.Policy{MaxAttempts: 3, Delay: 20 * time.Millisecond}

	start := time.Now()
	res := newWorker(policy, page, claim.New(), &countingNotifier{}).Run(t.Context())

	require.Equal(t, probe.StateExhausted, res.State)
	require.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestWorker_PanicIsRecovered(t *testing.T) {
	t.Parallel()

	page := browsertest.NewPage("page1", func(context.Context, string, int) (string, error) {
		panic("driver crashed")
	}, nil)

	res := newWorker(retry.UnlimitedPolicy(), page, claim.New(), &countingNotifier{}).Run(t.Context())

	require.Equal(t, probe.StateCancelled, res.State)
	require.Error(t, res.Err)
	require.Contains(t, res.Err.Error(), "correlation_id")
	require.True(t, page.Closed())
}

func TestWorker_ObserverSeesTransitions(t *testing.T) {
	t.Parallel()

	var (
		mu     sync.Mutex
		events []probe.Event
	)
	page := browsertest.NewPage("page1", landsOnAttempt(3), nil)
	w := probe.NewWorker(probe.Config{
		ID:        "worker-1",
		TargetURL: targetURL,
		Policy:    retry.UnlimitedPolicy(),
		Observer: func(e probe.Event) {
			mu.Lock()
			defer mu.Unlock()
			events = append(events, e)
		},
	}, page, claim.New(), &countingNotifier{}, testLogger())

	res := w.Run(t.Context())
	require.Equal(t, probe.StateSucceeded, res.State)

	mu.Lock()
	defer mu.Unlock()
	// start, two failed probes, terminal
	require.Len(t, events, 4)
	require.Equal(t, probe.StateProbing, events[0].State)
	require.Equal(t, 0, events[0].Attempts)
	require.Equal(t, 2, events[2].Attempts)
	last := events[len(events)-1]
	require.Equal(t, probe.StateSucceeded, last.State)
	require.Equal(t, 3, last.Attempts)
	require.Equal(t, targetURL, last.URL)
}

func TestState_Terminal(t *testing.T) {
	t.Parallel()

	require.False(t, probe.StateProbing.Terminal())
	require.True(t, probe.StateSucceeded.Terminal())
	require.True(t, probe.StateExhausted.Terminal())
	require.True(t, probe.StateCancelled.Terminal())
}

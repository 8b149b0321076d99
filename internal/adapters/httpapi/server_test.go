package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bnema/evo/internal/application"
	"github.com/bnema/evo/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeController struct {
	mu        sync.Mutex
	snapshot  application.Snapshot
	startErr  error
	voteErr   error
	resetErr  error
	votes     []domain.VariantSlot
	sources   []application.VoteSource
	confirmed []bool
	updates   chan application.Snapshot
}

func newFakeController() *fakeController {
	return &fakeController{
		snapshot: application.Snapshot{
			SessionID:     "session-1",
			Phase:         domain.PhaseAwaitingDecision,
			RoundNumber:   2,
			Votes:         [2]int{1, 0},
			VotesRequired: 3,
			Variants: []application.VariantView{
				{Slot: domain.Slot1, Instruction: "Make it red", Display: "Made it red", Image: domain.NewImage([]byte("a"), "image/png"), Votes: 1},
				{Slot: domain.Slot2, Instruction: "Add a hat", Display: "Added a hat", Image: domain.NewImage([]byte("b"), "image/png")},
			},
			CurrentImage: domain.NewImage([]byte("seed"), "image/png"),
			PoolSize:     10,
			PoolOriginal: 12,
			Supply:       domain.SupplyNormal,
			Status:       application.StatusAwaitingVotes,
		},
		updates: make(chan application.Snapshot, 4),
	}
}

func (f *fakeController) update(fn func(*fakeController)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeController) recorded() ([]domain.VariantSlot, []application.VoteSource, []bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.VariantSlot(nil), f.votes...),
		append([]application.VoteSource(nil), f.sources...),
		append([]bool(nil), f.confirmed...)
}

func (f *fakeController) StartRound(context.Context) (application.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return application.Snapshot{}, f.startErr
	}
	snap := f.snapshot
	snap.Phase = domain.PhaseGenerating
	snap.InFlight = true
	snap.Variants = nil
	return snap, nil
}

func (f *fakeController) Vote(_ context.Context, slot domain.VariantSlot, source application.VoteSource) (application.VoteOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.votes = append(f.votes, slot)
	f.sources = append(f.sources, source)
	if f.voteErr != nil {
		return application.VoteOutcome{}, f.voteErr
	}
	return application.VoteOutcome{
		Result:    domain.VoteResult{Slot: slot, Votes: [2]int{3, 0}, Reached: true},
		Finalized: true,
		NextRound: 3,
	}, nil
}

func (f *fakeController) Reset(_ context.Context, confirmed bool) (application.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmed = append(f.confirmed, confirmed)
	if !confirmed {
		return application.Snapshot{}, domain.ErrResetNotConfirmed
	}
	if f.resetErr != nil {
		return application.Snapshot{}, f.resetErr
	}
	return application.Snapshot{SessionID: "session-2", Phase: domain.PhaseIdle, Status: application.StatusReset}, nil
}

func (f *fakeController) Snapshot(context.Context) (application.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot, nil
}

func (f *fakeController) Subscribe(int) (<-chan application.Snapshot, func()) {
	return f.updates, func() {}
}

func newTestServer(t *testing.T, controller Controller, opts Options) (*httptest.Server, *Client) {
	t.Helper()

	server := httptest.NewServer(NewRouter(controller, opts))
	t.Cleanup(server.Close)
	return server, NewClient(server.URL, server.Client())
}

func TestStateEndpoint(t *testing.T) {
	_, client := newTestServer(t, newFakeController(), Options{})

	state, err := client.State(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "session-1", state.SessionID)
	assert.Equal(t, "awaiting_decision", state.Phase)
	assert.Equal(t, 2, state.Round)
	assert.Equal(t, [2]int{1, 0}, state.Votes)
	require.Len(t, state.Variants, 2)
	assert.Equal(t, "Made it red", state.Variants[0].Display)
	assert.Equal(t, "data:image/png;base64,YQ==", state.Variants[0].Image)
	assert.Equal(t, "data:image/png;base64,c2VlZA==", state.CurrentImage)
	assert.Equal(t, PoolState{Remaining: 10, Original: 12, Supply: "normal"}, state.Pool)
	assert.Empty(t, state.History)
	assert.Nil(t, state.Notice)
}

func TestStartRoundEndpoint(t *testing.T) {
	controller := newFakeController()
	_, client := newTestServer(t, controller, Options{})

	state, err := client.StartRound(context.Background())
	require.NoError(t, err)
	assert.True(t, state.Generating)
	assert.Empty(t, state.Variants)

	controller.update(func(f *fakeController) { f.startErr = domain.ErrDecisionPending })
	_, err = client.StartRound(context.Background())
	require.ErrorIs(t, err, domain.ErrDecisionPending)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "decision_pending", apiErr.Code)
}

func TestVoteEndpoint(t *testing.T) {
	controller := newFakeController()
	_, client := newTestServer(t, controller, Options{})

	resp, err := client.Vote(context.Background(), domain.Slot1)
	require.NoError(t, err)
	assert.Equal(t, VoteResponse{Slot: 1, Votes: [2]int{3, 0}, Reached: true, Finalized: true, NextRound: 3}, resp)
	_, sources, _ := controller.recorded()
	assert.Equal(t, []application.VoteSource{application.VoteSourceHTTP}, sources)

	controller.update(func(f *fakeController) { f.voteErr = domain.ErrVotingClosed })
	_, err = client.Vote(context.Background(), domain.Slot2)
	require.ErrorIs(t, err, domain.ErrVotingClosed)
}

func TestVoteEndpointUsesConfiguredRelay(t *testing.T) {
	routed := newFakeController()
	voter := newFakeController()
	relay := application.NewInputRelay(voter, 0, nil, nil)
	_, client := newTestServer(t, routed, Options{Relay: relay})

	_, err := client.Vote(context.Background(), domain.Slot2)
	require.NoError(t, err)

	votes, sources, _ := voter.recorded()
	assert.Equal(t, []domain.VariantSlot{domain.Slot2}, votes)
	assert.Equal(t, []application.VoteSource{application.VoteSourceHTTP}, sources)
	routedVotes, _, _ := routed.recorded()
	assert.Empty(t, routedVotes)
}

func TestVoteEndpointRejectsUnknownVariant(t *testing.T) {
	controller := newFakeController()
	server, _ := newTestServer(t, controller, Options{})

	for _, variant := range []string{"0", "3", "left"} {
		resp, err := http.Post(server.URL+"/vote/"+variant, "application/json", nil)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, variant)
	}
	votes, _, _ := controller.recorded()
	assert.Empty(t, votes)
}

func TestResetEndpoint(t *testing.T) {
	controller := newFakeController()
	server, client := newTestServer(t, controller, Options{})

	_, err := client.Reset(context.Background(), false)
	require.ErrorIs(t, err, domain.ErrResetNotConfirmed)

	state, err := client.Reset(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, "session-2", state.SessionID)
	assert.Equal(t, application.StatusReset, state.Status)

	resp, err := http.Post(server.URL+"/reset", "application/json", nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Post(server.URL+"/reset", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	_, _, confirmed := controller.recorded()
	assert.Equal(t, []bool{false, true, false}, confirmed)
}

func TestResetEndpointControllerStopped(t *testing.T) {
	controller := newFakeController()
	controller.resetErr = domain.ErrControllerStopped
	_, client := newTestServer(t, controller, Options{})

	_, err := client.Reset(context.Background(), true)
	require.ErrorIs(t, err, domain.ErrControllerStopped)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
}

func TestMetricsEndpointMounted(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("evo_rounds_started_total 1\n"))
	})
	server, _ := newTestServer(t, newFakeController(), Options{Metrics: metrics})

	resp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	bare, _ := newTestServer(t, newFakeController(), Options{})
	resp, err = http.Get(bare.URL + "/metrics")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEventsStreamsSnapshots(t *testing.T) {
	controller := newFakeController()
	server, _ := newTestServer(t, controller, Options{})

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var initial StateResponse
	require.NoError(t, conn.ReadJSON(&initial))
	assert.Equal(t, "awaiting_decision", initial.Phase)

	controller.updates <- application.Snapshot{
		SessionID: "session-1",
		Phase:     domain.PhaseGenerating,
		InFlight:  true,
		Status:    application.StatusGenerating,
		Notice:    application.Notice{Severity: application.NoticeSoft, Message: "retry later"},
	}

	var next StateResponse
	require.NoError(t, conn.ReadJSON(&next))
	assert.True(t, next.Generating)
	require.NotNil(t, next.Notice)
	assert.Equal(t, application.NoticeSoft, next.Notice.Severity)

	close(controller.updates)
	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "unexpected error: %v", err)
}

func TestStatusForUnknownError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(domain.ErrControllerStopped))
	assert.Equal(t, "", codeFor(assert.AnError))
}

func TestNewClientDefaults(t *testing.T) {
	assert.Equal(t, "http://"+DefaultAddr, NewClient("", nil).BaseURL())
	assert.Equal(t, "https://evo.local", NewClient("https://evo.local/", nil).BaseURL())
}

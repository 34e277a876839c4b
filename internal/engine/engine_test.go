package engine

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mariwald/rsvpd/internal/audit"
)

func newTestEngine() (*Engine, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(audit.NewWriterSink(&buf), nil), &buf
}

func TestBasicScenario(t *testing.T) {
	e, _ := newTestEngine()

	assert.Equal(t, "SUCCESS", e.Handle("ALICE", "REGISTER"))
	assert.Equal(t, "Event id 1 was created successfully.",
		e.Handle("ALICE", "CREATE Launch 2024-01-01 kickoff"))
	assert.Equal(t, "SUCCESS", e.Handle("ALICE", "SEND_RSVP 1"))
	assert.Equal(t, "RSVP to event id 1 was already sent.",
		e.Handle("ALICE", "SEND_RSVP 1"))
	assert.Equal(t, "ALICE", e.Handle("ALICE", "GET_RSVPS_LIST 1"))
	assert.Equal(t, "1\tLaunch\t2024-01-01\tkickoff.", e.Handle("ALICE", "GET_TOP_5"))
}

func TestRegisterTwiceIsInBandError(t *testing.T) {
	e, _ := newTestEngine()

	require.Equal(t, "SUCCESS", e.Handle("bob", "REGISTER"))

	// Same normalized name, different casing and different connection.
	resp := e.Handle("BOB", "REGISTER")
	assert.Equal(t, "ERROR: the client BOB was already registered.", resp)
	assert.Equal(t, 1, e.RegisteredClients())
}

func TestRegisterConflictAuditFormat(t *testing.T) {
	e, buf := newTestEngine()

	require.Equal(t, "SUCCESS", e.Handle("BOB", "REGISTER"))
	e.Handle("BOB", "REGISTER")
	assert.Equal(t, "ERROR: the client BOB was already registered.",
		e.RegisterClient("BOB"))

	// Both rejection paths write the same audit line for the same
	// condition.
	log := buf.String()
	assert.Equal(t, 2, strings.Count(log, "ERROR: BOB\t is already exists."))
	assert.NotContains(t, log, "was already registered")
}

func TestCommandsBeforeRegister(t *testing.T) {
	e, _ := newTestEngine()

	want := "ERROR: first command must be REGISTER."
	assert.Equal(t, want, e.Handle("ghost", "CREATE a b c"))
	assert.Equal(t, want, e.Handle("ghost", "SEND_RSVP 1"))
	assert.Equal(t, want, e.Handle("ghost", "GET_RSVPS_LIST 1"))
	assert.Equal(t, want, e.Handle("ghost", "GET_TOP_5"))
	assert.Equal(t, want, e.Handle("ghost", "UNREGISTER"))
}

func TestIllegalAndMalformedCommands(t *testing.T) {
	e, _ := newTestEngine()
	require.Equal(t, "SUCCESS", e.Handle("alice", "REGISTER"))

	assert.Equal(t, "ERROR: illegal command.", e.Handle("alice", "DANCE"))
	assert.Equal(t, "ERROR: illegal command.", e.Handle("alice", ""))
	assert.Equal(t, "ERROR: missing arguments in command CREATE.",
		e.Handle("alice", "CREATE onlytitle"))
	assert.Equal(t, "ERROR: invalid argument abc in command SEND_RSVP.",
		e.Handle("alice", "SEND_RSVP abc"))
	assert.Equal(t, "ERROR: invalid argument -3 in command GET_RSVPS_LIST.",
		e.Handle("alice", "GET_RSVPS_LIST -3"))
}

func TestCreateDescriptionWithSpaces(t *testing.T) {
	e, _ := newTestEngine()
	require.Equal(t, "SUCCESS", e.Handle("alice", "REGISTER"))

	resp := e.Handle("alice", "CREATE Party 2024-06-01 bring your own snacks")
	require.Equal(t, "Event id 1 was created successfully.", resp)

	top := e.Handle("alice", "GET_TOP_5")
	assert.Equal(t, "1\tParty\t2024-06-01\tbring your own snacks.", top)
}

func TestRSVPListSortingAndEmptyList(t *testing.T) {
	e, _ := newTestEngine()
	for _, name := range []string{"carol", "Alice", "BOB"} {
		require.Equal(t, "SUCCESS", e.Handle(name, "REGISTER"))
	}
	require.Equal(t, "Event id 1 was created successfully.",
		e.Handle("carol", "CREATE T D X"))

	// Empty guest list formats to an empty response, not an error.
	assert.Equal(t, "", e.Handle("carol", "GET_RSVPS_LIST 1"))

	require.Equal(t, "SUCCESS", e.Handle("carol", "SEND_RSVP 1"))
	require.Equal(t, "SUCCESS", e.Handle("BOB", "SEND_RSVP 1"))
	require.Equal(t, "SUCCESS", e.Handle("Alice", "SEND_RSVP 1"))

	// Names are stored normalized and presented sorted.
	assert.Equal(t, "ALICE,BOB,CAROL", e.Handle("carol", "GET_RSVPS_LIST 1"))
}

func TestRSVPToUnknownEvent(t *testing.T) {
	e, _ := newTestEngine()
	require.Equal(t, "SUCCESS", e.Handle("alice", "REGISTER"))

	for _, id := range []string{"0", "99", "000", "99999999999999999999"} {
		assert.Equal(t, "ERROR: event does not exist.",
			e.Handle("alice", "SEND_RSVP "+id), "id %s", id)
		assert.Equal(t, "ERROR: event does not exist.",
			e.Handle("alice", "GET_RSVPS_LIST "+id), "id %s", id)
	}
}

func TestUnregisterCascade(t *testing.T) {
	e, _ := newTestEngine()
	require.Equal(t, "SUCCESS", e.Handle("alice", "REGISTER"))
	require.Equal(t, "SUCCESS", e.Handle("bob", "REGISTER"))

	require.Equal(t, "Event id 1 was created successfully.", e.Handle("alice", "CREATE T D X"))
	require.Equal(t, "Event id 2 was created successfully.", e.Handle("alice", "CREATE T2 D2 X2"))
	require.Equal(t, "SUCCESS", e.Handle("bob", "SEND_RSVP 1"))
	require.Equal(t, "SUCCESS", e.Handle("bob", "SEND_RSVP 2"))
	require.Equal(t, "SUCCESS", e.Handle("alice", "SEND_RSVP 1"))

	require.Equal(t, "SUCCESS", e.Handle("bob", "UNREGISTER"))

	// Bob is gone from every guest list; events survive.
	assert.Equal(t, "ALICE", e.Handle("alice", "GET_RSVPS_LIST 1"))
	assert.Equal(t, "", e.Handle("alice", "GET_RSVPS_LIST 2"))
	assert.Equal(t, 2, e.EventCount())

	// Re-registering under the same name succeeds, with a clean slate.
	assert.Equal(t, "SUCCESS", e.Handle("bob", "REGISTER"))
	assert.Equal(t, "SUCCESS", e.Handle("bob", "SEND_RSVP 1"))
}

func TestTop5Window(t *testing.T) {
	e, _ := newTestEngine()
	require.Equal(t, "SUCCESS", e.Handle("alice", "REGISTER"))

	for i := 1; i <= 8; i++ {
		resp := e.Handle("alice", fmt.Sprintf("CREATE ev%d d%d x%d", i, i, i))
		require.Equal(t, fmt.Sprintf("Event id %d was created successfully.", i), resp)
	}

	top := e.Handle("alice", "GET_TOP_5")
	lines := strings.Split(top, "\n")
	require.Len(t, lines, 5)
	for i, line := range lines {
		id := i + 4 // events 4..8, oldest to newest
		assert.Equal(t, fmt.Sprintf("%d\tev%d\td%d\tx%d.", id, id, id, id), line)
	}
}

func TestCommandKeywordCaseInsensitive(t *testing.T) {
	e, _ := newTestEngine()

	assert.Equal(t, "SUCCESS", e.Handle("alice", "register"))
	assert.Equal(t, "Event id 1 was created successfully.", e.Handle("alice", "create T D X"))
	assert.Equal(t, "SUCCESS", e.Handle("alice", "send_rsvp 1"))
	assert.Equal(t, "ALICE", e.Handle("alice", "Get_Rsvps_List 1"))
}

func TestConcurrentRSVPsFromDistinctClients(t *testing.T) {
	e, _ := newTestEngine()
	require.Equal(t, "SUCCESS", e.Handle("host", "REGISTER"))
	require.Equal(t, "Event id 1 was created successfully.", e.Handle("host", "CREATE T D X"))

	const n = 40
	for i := 0; i < n; i++ {
		require.Equal(t, "SUCCESS", e.Handle(fmt.Sprintf("guest%d", i), "REGISTER"))
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp := e.Handle(fmt.Sprintf("guest%d", i), "SEND_RSVP 1")
			assert.Equal(t, "SUCCESS", resp)
		}(i)
	}
	wg.Wait()

	list := e.Handle("host", "GET_RSVPS_LIST 1")
	assert.Len(t, strings.Split(list, ","), n, "no lost updates under concurrency")
}

func TestExitInvokesCallbackOnce(t *testing.T) {
	e, _ := newTestEngine()

	calls := 0
	e.OnExit(func() { calls++ })

	assert.Equal(t, "SUCCESS", e.Handle("anyone", "EXIT"))
	assert.Equal(t, 1, calls)
}

func TestShutdownClearsStateAndIsIdempotent(t *testing.T) {
	e, buf := newTestEngine()
	require.Equal(t, "SUCCESS", e.Handle("alice", "REGISTER"))
	require.Equal(t, "Event id 1 was created successfully.", e.Handle("alice", "CREATE T D X"))

	e.Shutdown()
	e.Shutdown()

	assert.Equal(t, 0, e.RegisteredClients())
	assert.Equal(t, 0, e.EventCount())

	// The audit sink is released: nothing new is written.
	before := buf.Len()
	e.Handle("alice", "REGISTER")
	assert.Equal(t, before, buf.Len())
}

func TestAuditLinePerRequest(t *testing.T) {
	e, buf := newTestEngine()

	e.Handle("alice", "REGISTER")
	e.Handle("alice", "CREATE T D X")
	e.Handle("alice", "BOGUS")
	e.Handle("alice", "SEND_RSVP 99")

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 4, "exactly one audit line per request")
	for _, line := range lines {
		assert.Regexp(t, `^\d{2}:\d{2}:\d{2}\t`, line)
	}
}

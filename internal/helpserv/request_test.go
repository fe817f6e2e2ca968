package helpserv

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexusd/nexusd/internal/clock"
	"github.com/nexusd/nexusd/internal/network"
)

func TestCreateRequestRequiresUserOrHandle(t *testing.T) {
	b := NewBot("HelpServ", "#help")
	_, err := CreateRequest(b, nil, "", time.Now(), time.Time{})
	assert.ErrorIs(t, err, ErrNoIdentity)
}

func TestCreateRequestOrdersByOpenTime(t *testing.T) {
	b := NewBot("HelpServ", "#help")
	clk := clock.NewAt(time.Unix(1_700_000_000, 0))
	state := network.New("services.example", clk)
	u1 := state.CreateUser("a", "a", "host", state.Self)
	u2 := state.CreateUser("b", "b", "host", state.Self)

	r1, err := CreateRequest(b, u1, "", clk.Now(), time.Time{})
	require.NoError(t, err)
	r2, err := CreateRequest(b, u2, "", clk.Now().Add(time.Minute), time.Time{})
	require.NoError(t, err)

	assert.Equal(t, 1, b.WaitPosition(r1))
	assert.Equal(t, 2, b.WaitPosition(r2))
}

func TestBurstRequestsPrependInBurstOrder(t *testing.T) {
	b := NewBot("HelpServ", "#help")
	clk := clock.NewAt(time.Unix(1_700_000_000, 0))
	state := network.New("services.example", clk)
	u1 := state.CreateUser("a", "a", "host", state.Self)
	u2 := state.CreateUser("b", "b", "host", state.Self)

	normal, err := CreateRequest(b, u1, "", clk.Now(), time.Time{})
	require.NoError(t, err)
	burst, err := CreateRequest(b, u2, "", clk.Now(), clk.Now().Add(-time.Hour))
	require.NoError(t, err)

	assert.Equal(t, 1, b.WaitPosition(burst))
	assert.Equal(t, 2, b.WaitPosition(normal))
	assert.Equal(t, clk.Now().Add(-time.Hour), burst.OpenTime)
}

func TestIDWrapReusesFreedSlot(t *testing.T) {
	b := NewBot("HelpServ", "#help")
	b.IDWrap = 3
	clk := clock.NewAt(time.Unix(1_700_000_000, 0))
	state := network.New("services.example", clk)

	var ids []int
	for i := 0; i < 3; i++ {
		u := state.CreateUser(string(rune('a'+i)), "x", "host", state.Self)
		req, err := CreateRequest(b, u, "", clk.Now(), time.Time{})
		require.NoError(t, err)
		ids = append(ids, req.ID)
	}
	assert.Equal(t, []int{1, 2, 3}, ids, "ids exhaust [1, IDWrap) before any wrap can reuse a slot")

	// Free id 1, then the next request should reuse it instead of
	// continuing to grow past IDWrap.
	b.Close(b.Requests[1], clk.Now())
	u := state.CreateUser("z", "z", "host", state.Self)
	req, err := CreateRequest(b, u, "", clk.Now(), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 1, req.ID)
}

func TestAppendMessageRespectsMaxLength(t *testing.T) {
	b := NewBot("HelpServ", "#help")
	b.MaxRequestLength = 2
	clk := clock.NewAt(time.Unix(1_700_000_000, 0))
	state := network.New("services.example", clk)
	u := state.CreateUser("a", "a", "host", state.Self)
	req, err := CreateRequest(b, u, "", clk.Now(), time.Time{})
	require.NoError(t, err)

	assert.True(t, b.AppendMessage(req, "one", clk.Now()))
	assert.True(t, b.AppendMessage(req, "two", clk.Now()))
	assert.False(t, b.AppendMessage(req, "three", clk.Now()), "request is full")
}

func TestAssignRemovesFromUnhandledAndCreditsHelper(t *testing.T) {
	b := NewBot("HelpServ", "#help")
	clk := clock.NewAt(time.Unix(1_700_000_000, 0))
	state := network.New("services.example", clk)
	u := state.CreateUser("a", "a", "host", state.Self)
	req, _ := CreateRequest(b, u, "", clk.Now(), time.Time{})
	helper := &Helper{HandleName: "h"}

	b.Assign(req, helper, clk.Now(), false)
	assert.Equal(t, 0, b.WaitPosition(req))
	assert.Equal(t, 1, helper.PickedUp[0])
	assert.Equal(t, 1, helper.PickedUp[4])
}

func TestUnassignReturnsToOriginalPosition(t *testing.T) {
	b := NewBot("HelpServ", "#help")
	clk := clock.NewAt(time.Unix(1_700_000_000, 0))
	state := network.New("services.example", clk)
	u1 := state.CreateUser("a", "a", "host", state.Self)
	u2 := state.CreateUser("b", "b", "host", state.Self)
	u3 := state.CreateUser("c", "c", "host", state.Self)

	r1, _ := CreateRequest(b, u1, "", clk.Now(), time.Time{})
	r2, _ := CreateRequest(b, u2, "", clk.Now().Add(time.Minute), time.Time{})
	r3, _ := CreateRequest(b, u3, "", clk.Now().Add(2*time.Minute), time.Time{})
	helper := &Helper{}
	b.Assign(r2, helper, clk.Now(), false)

	b.Unassign(r2)
	assert.Equal(t, []*Request{r1, r2, r3}, b.Unhandled)
}

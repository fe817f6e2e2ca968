package discriminator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexusd/nexusd/internal/clock"
	"github.com/nexusd/nexusd/internal/network"
)

func TestChannelDiscrimMatchesNameAndUserCount(t *testing.T) {
	clk := clock.NewAt(time.Unix(1_700_000_000, 0))
	state := network.New("services.example", clk)
	u := state.CreateUser("alice", "alice", "host", state.Self)
	ch, _ := state.Join(u, "#support", time.Time{})

	d, err := ParseChannel([]string{"name", "#supp*", "usercount", ">=1"}, clk.Now())
	require.NoError(t, err)
	assert.True(t, d.Matches(ch))

	d2, err := ParseChannel([]string{"usercount", ">=5"}, clk.Now())
	require.NoError(t, err)
	assert.False(t, d2.Matches(ch))
}

func TestChannelDiscrimAbsoluteTimestamp(t *testing.T) {
	clk := clock.NewAt(time.Unix(1_700_000_000, 0))
	d, err := ParseChannel([]string{"age", "1600000000"}, clk.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1_600_000_000), d.TimestampAfter.Unix())
}

package operserv

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexusd/nexusd/internal/clock"
	"github.com/nexusd/nexusd/internal/discriminator"
	"github.com/nexusd/nexusd/internal/network"
	"github.com/nexusd/nexusd/internal/policer"
	"github.com/nexusd/nexusd/internal/timeq"
)

type recordingActions struct {
	network.NullActions
	kicked  []string
	killed  []string
	parted  []string
	noticed []string
}

func (r *recordingActions) Kick(channel, nick, reason string) {
	r.kicked = append(r.kicked, channel+":"+nick)
}
func (r *recordingActions) Kill(nick, reason string) { r.killed = append(r.killed, nick) }
func (r *recordingActions) Part(channel, reason string) { r.parted = append(r.parted, channel) }
func (r *recordingActions) Notice(target, text string) { r.noticed = append(r.noticed, target) }

type recordingAdvertiser struct {
	advertised []string
	withdrawn  []string
}

func (a *recordingAdvertiser) AdvertiseGline(target, reason string, expiresAt time.Time) {
	a.advertised = append(a.advertised, target)
}
func (a *recordingAdvertiser) WithdrawGline(target string) {
	a.withdrawn = append(a.withdrawn, target)
}

func newTestService(t *testing.T) (*Service, *network.State, *recordingActions, *clock.Clock) {
	clk := clock.NewAt(time.Unix(1_700_000_000, 0))
	state := network.New("services.example.org", clk)
	self := state.CreateUser("OperServ", "operserv", "services.example.org", state.Self)
	self.Modes |= network.UserService

	actions := &recordingActions{}
	svc := &Service{
		State:      state,
		Actions:    actions,
		Advertiser: &recordingAdvertiser{},
		Trust:      NewTrustTable(),
		Gags:       NewGagList(),
		Alerts:     NewAlertTable(),
		Glines:     NewGlineTable(),
		BadWords:   NewBadWords(),
		Warnings:   NewChannelWarnings(),
		Reserved:   NewReservedNicks(),
		Timeq:      timeq.New(),
		Conf: Config{
			CloneGlineDuration:         time.Hour,
			BlockGlineDuration:         30 * time.Minute,
			JoinFloodModerateThreshold: 3,
			DefaultCloneLimit:          3,
		},
	}
	_ = self
	return svc, state, actions, clk
}

func TestBadChannelNameKillsNonHashJoiner(t *testing.T) {
	svc, state, actions, clk := newTestService(t)
	svc.BadWords.Add("evil")

	u := state.CreateUser("bob", "bob", "host", state.Self)
	ch, _ := state.Join(u, "evilthing", time.Time{})

	outcome := svc.OnJoin(u, ch, clk.Now())
	require.True(t, outcome.Killed)
	assert.Contains(t, actions.killed, "bob")
}

func TestBadChannelLocksDownHashChannel(t *testing.T) {
	svc, state, actions, clk := newTestService(t)
	svc.BadWords.Add("evil")

	u := state.CreateUser("bob", "bob", "host", state.Self)
	ch, _ := state.Join(u, "#evilthing", time.Time{})

	outcome := svc.OnJoin(u, ch, clk.Now())
	require.NotNil(t, outcome.Lockdown)
	assert.True(t, ch.Modes.Has(network.ChanSecret))
	assert.True(t, ch.Modes.Has(network.ChanInviteOnly))
	assert.NotNil(t, ch.BanMatching("bob!bob@host"))
	assert.Contains(t, actions.kicked, "#evilthing:bob")
}

func TestExemptChannelSkipsBadWordCheck(t *testing.T) {
	svc, state, _, clk := newTestService(t)
	svc.BadWords.Add("evil")
	svc.BadWords.Exempt("#evilthing")

	u := state.CreateUser("bob", "bob", "host", state.Self)
	ch, _ := state.Join(u, "#evilthing", time.Time{})

	outcome := svc.OnJoin(u, ch, clk.Now())
	assert.Nil(t, outcome.Lockdown)
	assert.False(t, outcome.Killed)
}

func TestJoinFloodMarksChannelAndModeratesOverThreshold(t *testing.T) {
	svc, state, _, clk := newTestService(t)
	ch := state.CreateChannel("#busy")
	ch.JoinPolicer = policer.New(0, 0)

	for i := 0; i < 4; i++ {
		u := state.CreateUser(string(rune('a'+i))+"user", "i", "host", state.Self)
		state.Join(u, "#busy", time.Time{})
	}

	outcome := svc.OnJoin(mustUser(state, "auser"), ch, clk.Now())
	assert.True(t, outcome.JustFlooded)
	assert.True(t, outcome.Moderated, "member count exceeds threshold, so the channel should be moderated")
	assert.True(t, ch.Modes.Has(network.ChanModerated))
}

func mustUser(s *network.State, nick string) *network.UserNode {
	u, _ := s.LookupUser(nick)
	return u
}

func TestNewUserCloneGline(t *testing.T) {
	svc, state, _, clk := newTestService(t)
	svc.Conf.DefaultCloneLimit = 2

	for i := 0; i < 3; i++ {
		u := state.CreateUser(string(rune('a'+i))+"x", "i", "host", state.Self)
		u.IP = net.ParseIP("10.0.0.5")
		out := svc.OnNewUser(u, "10.0.0.5", clk.Now())
		if i == 2 {
			require.NotNil(t, out.Gline)
			assert.Equal(t, "*@10.0.0.5", out.Gline.Target)
		}
	}
}

func TestNewUserAlertKillAbortsProcessing(t *testing.T) {
	svc, state, actions, clk := newTestService(t)
	d, err := discriminator.ParseUser([]string{"nick", "Spam*"}, clk.Now(), nil)
	require.NoError(t, err)
	svc.Alerts.Add(&UserAlert{Name: "spambot", Discrim: d, Reaction: ReactKill, Text: "spam nick"})

	u := state.CreateUser("Spammer1", "spam", "host", state.Self)
	out := svc.OnNewUser(u, "", clk.Now())
	assert.True(t, out.Aborted)
	assert.Contains(t, actions.killed, "Spammer1")
}

func TestGagMatchingSetsGaggedMode(t *testing.T) {
	svc, state, _, clk := newTestService(t)
	svc.Gags.Add(&Gag{Mask: "*!*@*.spammer.example", Owner: "oper"})

	u := state.CreateUser("loud", "loud", "host.spammer.example", state.Self)
	out := svc.OnNewUser(u, "", clk.Now())
	assert.True(t, out.Gagged)
	assert.True(t, u.Modes.Has(network.UserGagged))
}

func TestTrustTableOverridesCloneLimit(t *testing.T) {
	tt := NewTrustTable()
	tt.AddTrust(&TrustedHost{IP: "10.0.0.9", Limit: 50, Issuer: "oper", IssuedAt: time.Now()})
	assert.Equal(t, 50, tt.LimitFor("10.0.0.9", 3))
	assert.Equal(t, 3, tt.LimitFor("10.0.0.10", 3))
}

func TestGlineRefreshReadvertisesActiveOnly(t *testing.T) {
	gt := NewGlineTable()
	adv := &recordingAdvertiser{}
	now := time.Unix(1_700_000_000, 0)
	gt.Add(&Gline{Target: "*@1.2.3.4", ExpiresAt: now.Add(time.Hour)}, adv)
	gt.Add(&Gline{Target: "*@5.6.7.8", ExpiresAt: now.Add(-time.Hour)}, adv)

	adv.advertised = nil
	gt.Refresh(now, adv)
	assert.Contains(t, adv.advertised, "*@1.2.3.4")
	assert.NotContains(t, adv.advertised, "*@5.6.7.8")
}

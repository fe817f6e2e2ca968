package network

import "time"

// Actions is the outbound collaborator spec.md §6.4 describes: the core
// never writes to a wire itself, it calls Actions to request that an
// effect be produced on the network. Services (OperServ, HelpServ) and
// cmd/nexusd's protocol adapter implement this; tests use a recording
// fake. Grounded on girc's Client.Cmd sender surface (sender.go), with
// each method narrowed to the one semantic action it names rather than
// girc's raw-line-formatting approach, since this core has no wire
// encoder of its own (spec.md's Non-goals exclude the IRC protocol
// layer).
type Actions interface {
	Kick(channel, nick, reason string)
	Kill(nick, reason string)
	Part(channel, reason string)
	Join(channel, key string)
	Mode(target, modes string)
	Invite(nick, channel string)
	Notice(target, text string)
	Privmsg(target, text string)
	Wallchops(channel, text string)
	Stats(query, target string)
	Squit(server, reason string)
	Topic(channel, topic string)
	NickChange(newNick string)
	FetchTopic(channel string)
	ServerLink(name string, linkTime time.Time)
	Fakehost(nick, fakehost string)
	AccountStamp(nick, account string)
	XResponse(toServer, routing, payload string)
	SetTime(target string, at time.Time)
}

// NullActions discards every action. Useful as a test double or as the
// default before the protocol adapter is wired in cmd/nexusd.
type NullActions struct{}

func (NullActions) Kick(string, string, string)           {}
func (NullActions) Kill(string, string)                   {}
func (NullActions) Part(string, string)                   {}
func (NullActions) Join(string, string)                   {}
func (NullActions) Mode(string, string)                   {}
func (NullActions) Invite(string, string)                 {}
func (NullActions) Notice(string, string)                 {}
func (NullActions) Privmsg(string, string)                {}
func (NullActions) Wallchops(string, string)               {}
func (NullActions) Stats(string, string)                  {}
func (NullActions) Squit(string, string)                  {}
func (NullActions) Topic(string, string)                  {}
func (NullActions) NickChange(string)                     {}
func (NullActions) FetchTopic(string)                     {}
func (NullActions) ServerLink(string, time.Time)          {}
func (NullActions) Fakehost(string, string)               {}
func (NullActions) AccountStamp(string, string)           {}
func (NullActions) XResponse(string, string, string)      {}
func (NullActions) SetTime(string, time.Time)             {}

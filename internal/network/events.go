package network

import "github.com/nexusd/nexusd/internal/hooks"

// Event payloads for every inbound hook kind spec.md §4.6's Design
// Notes lists (minus conf-reload, which internal/config registers
// itself, and saxdb-named, which has no registry in this repository).
// Each hook type is a
// plain function over its payload, registered on a *hooks.Registry[F]
// per the Handler/Caller generalization described in SPEC_FULL.md.

type NewUserEvent struct{ User *UserNode }
type DelUserEvent struct {
	User   *UserNode
	Reason string
}
type JoinEvent struct {
	User    *UserNode
	Channel *ChanNode
	// RelAge is negative if the channel's recorded creation time is
	// older than ours (a wipeout), zero if equal (merge), positive if
	// newer (ignore), per spec.md §6.3.
	RelAge int
}
type PartEvent struct {
	User    *UserNode
	Channel *ChanNode
	Reason  string
}
type KickEvent struct {
	Kicker  *UserNode
	Target  *UserNode
	Channel *ChanNode
	Reason  string
}
type NickChangeEvent struct {
	User    *UserNode
	OldNick string
}
type NewChannelEvent struct{ Channel *ChanNode }
type DelChannelEvent struct{ Channel *ChanNode }
type AuthEvent struct {
	User       *UserNode
	HandleName string
}
type HandleRenameEvent struct{ OldName, NewName string }
type UnregEvent struct{ HandleName string }
type AllowAuthEvent struct {
	User       *UserNode
	HandleName string
}
type FailPWEvent struct {
	User       *UserNode
	HandleName string
}
type HandleMergeEvent struct{ FromName, ToName string }
type XQueryEvent struct {
	FromServer string
	Routing    string
	Payload    string
}
type ServerLinkEvent struct{ Server *Server }
type ExitEvent struct{ Server *Server }

type (
	NewUserHook     func(*NewUserEvent)
	DelUserHook     func(*DelUserEvent)
	JoinHook        func(*JoinEvent)
	PartHook        func(*PartEvent)
	KickHook        func(*KickEvent)
	NickChangeHook  func(*NickChangeEvent)
	NewChannelHook  func(*NewChannelEvent)
	DelChannelHook  func(*DelChannelEvent)
	AuthHook        func(*AuthEvent)
	HandleRenameHook func(*HandleRenameEvent)
	UnregHook       func(*UnregEvent)
	AllowAuthHook   func(*AllowAuthEvent)
	FailPWHook      func(*FailPWEvent)
	HandleMergeHook func(*HandleMergeEvent)
	XQueryHook      func(*XQueryEvent)
	ServerLinkHook  func(*ServerLinkEvent)
	ExitHook        func(*ExitEvent)
)

// Hooks bundles one registry per inbound event kind. A State embeds one
// Hooks value and fires through it as state changes are applied.
type Hooks struct {
	NewUser     *hooks.Registry[NewUserHook]
	DelUser     *hooks.Registry[DelUserHook]
	Join        *hooks.Registry[JoinHook]
	Part        *hooks.Registry[PartHook]
	Kick        *hooks.Registry[KickHook]
	NickChange  *hooks.Registry[NickChangeHook]
	NewChannel  *hooks.Registry[NewChannelHook]
	DelChannel  *hooks.Registry[DelChannelHook]
	Auth        *hooks.Registry[AuthHook]
	HandleRename *hooks.Registry[HandleRenameHook]
	Unreg       *hooks.Registry[UnregHook]
	AllowAuth   *hooks.Registry[AllowAuthHook]
	FailPW      *hooks.Registry[FailPWHook]
	HandleMerge *hooks.Registry[HandleMergeHook]
	XQuery      *hooks.Registry[XQueryHook]
	ServerLink  *hooks.Registry[ServerLinkHook]
	Exit        *hooks.Registry[ExitHook]
}

// NewHooks constructs an empty Hooks bundle, one registry per kind.
func NewHooks() *Hooks {
	return &Hooks{
		NewUser:      hooks.NewRegistry[NewUserHook](),
		DelUser:      hooks.NewRegistry[DelUserHook](),
		Join:         hooks.NewRegistry[JoinHook](),
		Part:         hooks.NewRegistry[PartHook](),
		Kick:         hooks.NewRegistry[KickHook](),
		NickChange:   hooks.NewRegistry[NickChangeHook](),
		NewChannel:   hooks.NewRegistry[NewChannelHook](),
		DelChannel:   hooks.NewRegistry[DelChannelHook](),
		Auth:         hooks.NewRegistry[AuthHook](),
		HandleRename: hooks.NewRegistry[HandleRenameHook](),
		Unreg:        hooks.NewRegistry[UnregHook](),
		AllowAuth:    hooks.NewRegistry[AllowAuthHook](),
		FailPW:       hooks.NewRegistry[FailPWHook](),
		HandleMerge:  hooks.NewRegistry[HandleMergeHook](),
		XQuery:       hooks.NewRegistry[XQueryHook](),
		ServerLink:   hooks.NewRegistry[ServerLinkHook](),
		Exit:         hooks.NewRegistry[ExitHook](),
	}
}

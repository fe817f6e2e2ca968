package network

import "time"

// BanNode is a ban mask held only in its owning channel's Bans list,
// per spec.md §3.2.
type BanNode struct {
	Mask   string
	Setter string
	SetAt  time.Time
}

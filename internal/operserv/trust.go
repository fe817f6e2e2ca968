// Package operserv implements spec.md component I and §4.5: the
// network-policy service (join-flood/new-user pipelines, glines, gags,
// alerts, trust, reserved nicks). Grounded throughout on
// original_source/src/opserv.c.
package operserv

import (
	"time"

	cmap "github.com/orcaman/concurrent-map"
)

// TrustedHost is a single trusted IP entry, keyed by IP string, per
// spec.md §3.3. Grounded on opserv.c's struct trusted_host.
type TrustedHost struct {
	IP      string
	Limit   int
	Issuer  string
	IssuedAt time.Time
	Expires  time.Time // zero means no expiry
	Reason   string
}

// TrustGroup bundles multiple TrustedHost entries sharing one
// issued-at/expiry/reason/limit, per SUPPLEMENTED FEATURES: srvx's
// opserv.c models trust as a dict of individual trusted_host_mask
// entries that share these attributes when added together via
// `trust add`; this groups that relationship explicitly instead of
// duplicating the fields per-host.
type TrustGroup struct {
	Name    string
	Hosts   []*TrustedHost
	Limit   int
	Issuer  string
	IssuedAt time.Time
	Expires  time.Time
	Reason   string
}

// HostInfo tracks the currently-connected clients from one IP and an
// optional trust binding, per spec.md §3.3. Grounded on opserv.c's
// struct opserv_hostinfo.
type HostInfo struct {
	IP      string
	Clients []string // nicknames, in connection order
	Trusted *TrustedHost
}

// TrustTable owns the trusted-host and live HostInfo dicts.
type TrustTable struct {
	trusted cmap.ConcurrentMap // ip -> *TrustedHost
	hosts   cmap.ConcurrentMap // ip -> *HostInfo
	groups  map[string]*TrustGroup
}

func NewTrustTable() *TrustTable {
	return &TrustTable{
		trusted: cmap.New(),
		hosts:   cmap.New(),
		groups:  make(map[string]*TrustGroup),
	}
}

// Trust returns the trusted-host entry for ip, if any.
func (t *TrustTable) Trust(ip string) (*TrustedHost, bool) {
	v, ok := t.trusted.Get(ip)
	if !ok {
		return nil, false
	}
	return v.(*TrustedHost), true
}

// AddTrust registers or replaces a single trusted host.
func (t *TrustTable) AddTrust(th *TrustedHost) {
	t.trusted.Set(th.IP, th)
	if hi, ok := t.Host(th.IP); ok {
		hi.Trusted = th
	}
}

// AddGroup registers a trust group and indexes each of its hosts
// individually so Trust(ip) finds them.
func (t *TrustTable) AddGroup(g *TrustGroup) {
	t.groups[g.Name] = g
	for _, h := range g.Hosts {
		t.AddTrust(h)
	}
}

// RemoveTrust deletes the trust entry for ip (and clears the back
// reference from any live HostInfo).
func (t *TrustTable) RemoveTrust(ip string) bool {
	_, existed := t.trusted.Get(ip)
	t.trusted.Remove(ip)
	if hi, ok := t.Host(ip); ok {
		hi.Trusted = nil
	}
	return existed
}

// Host returns the live HostInfo for ip, if any client from it is
// currently connected.
func (t *TrustTable) Host(ip string) (*HostInfo, bool) {
	v, ok := t.hosts.Get(ip)
	if !ok {
		return nil, false
	}
	return v.(*HostInfo), true
}

// Connect records nick's connection from ip, creating the HostInfo on
// first connection per spec.md §3.3, and returns the resulting client
// count from that IP.
func (t *TrustTable) Connect(ip, nick string) int {
	hi, ok := t.Host(ip)
	if !ok {
		th, _ := t.Trust(ip)
		hi = &HostInfo{IP: ip, Trusted: th}
		t.hosts.Set(ip, hi)
	}
	hi.Clients = append(hi.Clients, nick)
	return len(hi.Clients)
}

// Disconnect removes nick from ip's HostInfo, destroying it once the
// last client from that IP has left.
func (t *TrustTable) Disconnect(ip, nick string) {
	hi, ok := t.Host(ip)
	if !ok {
		return
	}
	for i, n := range hi.Clients {
		if n == nick {
			hi.Clients = append(hi.Clients[:i], hi.Clients[i+1:]...)
			break
		}
	}
	if len(hi.Clients) == 0 {
		t.hosts.Remove(ip)
	}
}

// LimitFor returns the per-IP client limit that applies to ip: the
// trust override if present, else defaultLimit.
func (t *TrustTable) LimitFor(ip string, defaultLimit int) int {
	if th, ok := t.Trust(ip); ok {
		return th.Limit
	}
	return defaultLimit
}

package network

import "time"

// Server is a node in the server tree. The tree is rooted at the local
// pseudo-server (State.Self); every other Server's Uplink chain reaches
// it. Grounded on girc's state.go client/server bookkeeping, generalized
// from a single connection's perspective to a full server graph per
// spec.md §3.2.
type Server struct {
	Name        string
	Numeric     string
	Uplink      *Server
	Children    []*Server
	ClientCount int
	LinkTime    time.Time
	Bursting    bool
	Description string
}

// NewServer constructs a Server linked under uplink. uplink is nil only
// for the local root server.
func NewServer(name, numeric string, uplink *Server, linkTime time.Time) *Server {
	s := &Server{
		Name:     name,
		Numeric:  numeric,
		Uplink:   uplink,
		LinkTime: linkTime,
		Bursting: true,
	}
	if uplink != nil {
		uplink.Children = append(uplink.Children, s)
	}
	return s
}

// detach removes s from its uplink's child list. It does not touch s's
// own children; callers walk the subtree first.
func (s *Server) detach() {
	if s.Uplink == nil {
		return
	}
	siblings := s.Uplink.Children
	for i, c := range siblings {
		if c == s {
			s.Uplink.Children = append(siblings[:i], siblings[i+1:]...)
			break
		}
	}
	s.Uplink = nil
}

// walkPostOrder visits every Server in the subtree rooted at s,
// children before parent, matching the depth-first post-order teardown
// spec.md §3.2 requires for DelServer (downstream users are removed
// before the server node itself).
func (s *Server) walkPostOrder(visit func(*Server)) {
	for _, c := range s.Children {
		c.walkPostOrder(visit)
	}
	visit(s)
}

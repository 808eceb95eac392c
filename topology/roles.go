package topology

import (
	"slices"
	"strings"
)

// Role is the part a host plays in the experiment.
type Role int

const (
	RoleRelay Role = iota
	RoleConsumer
	RoleAggregator
	RoleProducer
)

// Host name prefixes that select a role.
const (
	ConsumerPrefix   = "con"
	AggregatorPrefix = "agg"
	ProducerPrefix   = "pro"
)

func (r Role) String() string {
	switch r {
	case RoleConsumer:
		return "consumer"
	case RoleAggregator:
		return "aggregator"
	case RoleProducer:
		return "producer"
	default:
		return "relay"
	}
}

// RoleOf applies the naming convention to a single host.
func RoleOf(id NodeID) Role {
	name := string(id)
	switch {
	case strings.HasPrefix(name, ConsumerPrefix):
		return RoleConsumer
	case strings.HasPrefix(name, AggregatorPrefix):
		return RoleAggregator
	case strings.HasPrefix(name, ProducerPrefix):
		return RoleProducer
	default:
		return RoleRelay
	}
}

// Roles maps every host to its role.
type Roles map[NodeID]Role

// AssignRoles builds the role map for the given hosts.
func AssignRoles(nodes []NodeID) Roles {
	roles := make(Roles, len(nodes))
	for _, id := range nodes {
		roles[id] = RoleOf(id)
	}
	return roles
}

// Hosts returns the hosts holding role, sorted.
func (r Roles) Hosts(role Role) []NodeID {
	var hosts []NodeID
	for id, got := range r {
		if got == role {
			hosts = append(hosts, id)
		}
	}
	slices.Sort(hosts)
	return hosts
}

// All returns every host, sorted.
func (r Roles) All() []NodeID {
	hosts := make([]NodeID, 0, len(r))
	for id := range r {
		hosts = append(hosts, id)
	}
	slices.Sort(hosts)
	return hosts
}

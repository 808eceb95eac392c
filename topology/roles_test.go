package topology

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const treeTable = `from,to,bw
con0,agg0,100
agg0,pro0,100
agg0,pro1,100
con0,agg1,100
agg1,pro2,100
r0,r1,100
`

func TestAssignRoles(t *testing.T) {
	d, err := Parse(strings.NewReader(treeTable))
	require.NoError(t, err)

	roles := AssignRoles(d.Nodes)
	assert.Equal(t, []NodeID{"con0"}, roles.Hosts(RoleConsumer))
	assert.Equal(t, []NodeID{"agg0", "agg1"}, roles.Hosts(RoleAggregator))
	assert.Equal(t, []NodeID{"pro0", "pro1", "pro2"}, roles.Hosts(RoleProducer))
	assert.Equal(t, []NodeID{"r0", "r1"}, roles.Hosts(RoleRelay))
	assert.Len(t, roles.All(), 8)
	assert.Equal(t, "aggregator", RoleAggregator.String())
}

func TestHostsEmptyRole(t *testing.T) {
	roles := AssignRoles([]NodeID{"con0"})
	assert.Empty(t, roles.Hosts(RoleProducer))
}

func TestHops(t *testing.T) {
	d, err := Parse(strings.NewReader(treeTable))
	require.NoError(t, err)

	hops := d.Hops("con0")
	assert.Equal(t, 0, hops["con0"])
	assert.Equal(t, 1, hops["agg1"])
	assert.Equal(t, 2, hops["pro2"])
	assert.NotContains(t, hops, NodeID("r0"))

	assert.Equal(t, []NodeID{"r1"}, d.Unreachable("con0", []NodeID{"pro0", "r1"}))
	assert.Empty(t, d.Hops("nobody"))
}

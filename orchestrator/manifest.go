package orchestrator

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adamgarcia4/goLearning/ndnagg/bundle"
	"github.com/adamgarcia4/goLearning/ndnagg/topology"
	"github.com/adamgarcia4/goLearning/ndnagg/workspace"
)

// ConsumerLog is the log file of the consumer application. Other
// applications log to <host>.log.
const ConsumerLog = "consumer.log"

// Manifest is everything a run needs to know about one experiment
type Manifest struct {
	Label        string
	Variant      bundle.Variant
	TopologyPath string
	Topology     *topology.Descriptor
	Roles        topology.Roles
	LogDir       string
	// Configs maps each application role to its document
	Configs map[topology.Role]string
}

var roleDocuments = map[topology.Role]string{
	topology.RoleConsumer:   bundle.ConsumerFile,
	topology.RoleProducer:   bundle.ProducerFile,
	topology.RoleAggregator: bundle.AggregatorPutFile,
}

// BuildManifest resolves a workspace into a manifest for one variant. Logs
// go to <logRoot>/<label>.
func BuildManifest(ws *workspace.Workspace, v bundle.Variant, logRoot string) (*Manifest, error) {
	if ws == nil || ws.Topology == nil {
		return nil, fmt.Errorf("workspace is required")
	}
	if _, err := bundle.ParseVariant(string(v)); err != nil {
		return nil, err
	}

	dir, err := filepath.Abs(ws.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace: %w", err)
	}
	logDir, err := filepath.Abs(filepath.Join(logRoot, ws.Args.Label))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve log directory: %w", err)
	}

	resolved := &workspace.Workspace{Dir: dir}
	m := &Manifest{
		Label:        ws.Args.Label,
		Variant:      v,
		TopologyPath: resolved.TopologyPath(),
		Topology:     ws.Topology,
		Roles:        topology.AssignRoles(ws.Topology.Nodes),
		LogDir:       logDir,
		Configs:      make(map[topology.Role]string, len(roleDocuments)),
	}

	for role, file := range roleDocuments {
		path := resolved.BundlePath(v, file)
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%s document for %s: %w", role, v, err)
		}
		m.Configs[role] = path
	}
	if _, err := os.Stat(m.TopologyPath); err != nil {
		return nil, fmt.Errorf("topology: %w", err)
	}
	return m, nil
}

// Hosts returns the sorted hosts of a role.
func (m *Manifest) Hosts(role topology.Role) []string {
	return names(m.Roles.Hosts(role))
}

// LogPath returns the log file of the application on a host.
func (m *Manifest) LogPath(host string) string {
	if m.Roles[topology.NodeID(host)] == topology.RoleConsumer {
		return filepath.Join(m.LogDir, ConsumerLog)
	}
	return filepath.Join(m.LogDir, host+".log")
}

// DaemonLogPath returns the log file of a daemon on a host.
func (m *Manifest) DaemonLogPath(host, daemon string) string {
	return filepath.Join(m.LogDir, host+"."+daemon+".log")
}

func names(ids []topology.NodeID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

package orchestrator

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"github.com/adamgarcia4/goLearning/ndnagg/logger"
)

// RunFile is the run metadata written to the log directory.
const RunFile = "run.json"

type RunRecord struct {
	Label    string            `json:"label"`
	Variant  string            `json:"variant"`
	Topology string            `json:"topology"`
	Started  time.Time         `json:"started"`
	Roles    map[string]string `json:"roles"`
	Stages   []StageRecord     `json:"stages"`
}

type StageRecord struct {
	Stage  string    `json:"stage"`
	Status Status    `json:"status"`
	Error  string    `json:"error,omitempty"`
	At     time.Time `json:"at"`
}

// Recorder is an Observer that keeps run.json up to date.
type Recorder struct {
	path string
	mu   sync.Mutex
	rec  RunRecord
}

func NewRecorder(m *Manifest) *Recorder {
	roles := make(map[string]string, len(m.Roles))
	for id, role := range m.Roles {
		roles[string(id)] = role.String()
	}
	return &Recorder{
		path: filepath.Join(m.LogDir, RunFile),
		rec: RunRecord{
			Label:    m.Label,
			Variant:  m.Variant.String(),
			Topology: m.TopologyPath,
			Started:  time.Now(),
			Roles:    roles,
			Stages:   []StageRecord{},
		},
	}
}

func (r *Recorder) Path() string { return r.path }

func (r *Recorder) Observe(ev StageEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sr := StageRecord{Stage: ev.Stage.String(), Status: ev.Status, At: ev.At}
	if ev.Err != nil {
		sr.Error = ev.Err.Error()
	}
	r.rec.Stages = append(r.rec.Stages, sr)

	if err := r.flush(); err != nil {
		logger.Warnf("failed to write %s: %v", r.path, err)
	}
}

// flush replaces the file through a rename so readers never see a partial
// record. Callers hold mu.
func (r *Recorder) flush() error {
	data, err := sonic.ConfigStd.MarshalIndent(r.rec, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".run-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), r.path)
}

// ReadRecord loads a run.json file.
func ReadRecord(path string) (RunRecord, error) {
	var rec RunRecord
	data, err := os.ReadFile(path)
	if err != nil {
		return rec, err
	}
	if err := sonic.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return rec, nil
}

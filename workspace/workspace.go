// Package workspace owns the on-disk experiment workspace:
//
//	<root>/<label>/
//	    args.yaml                 resolved arguments
//	    web.conf                  rendered topology
//	    structure.csv             verbatim link table
//	    algorithm/<variant>/*.ini role documents
//
// A workspace is built in full in a staging directory and then moved into
// place, so readers never observe a half-written tree. An existing workspace
// is only replaced when the caller forces it or a Confirmer agrees.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adamgarcia4/goLearning/ndnagg/bundle"
	"github.com/adamgarcia4/goLearning/ndnagg/logger"
	"github.com/adamgarcia4/goLearning/ndnagg/sizing"
	"github.com/adamgarcia4/goLearning/ndnagg/topology"
)

// Confirmer decides whether an existing workspace may be destroyed.
type Confirmer interface {
	Confirm(path string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(path string) (bool, error)

func (f ConfirmFunc) Confirm(path string) (bool, error) {
	return f(path)
}

// Request describes the workspace to create. Topology and Plan must already
// be validated.
type Request struct {
	Args     Args
	Topology *topology.Descriptor
	Plan     sizing.ChunkPlan
	Variants []bundle.Variant

	// Force replaces an existing workspace without asking.
	Force bool
	// Confirm is asked when the workspace exists and Force is unset. A nil
	// Confirm refuses.
	Confirm Confirmer
}

// Workspace is a created or opened experiment workspace.
type Workspace struct {
	Dir      string
	Args     Args
	Topology *topology.Descriptor
}

// TopologyPath returns the rendered topology description.
func (w *Workspace) TopologyPath() string {
	return filepath.Join(w.Dir, TopologyFile)
}

// StructurePath returns the copy of the link table.
func (w *Workspace) StructurePath() string {
	return filepath.Join(w.Dir, StructureCopyFile)
}

// BundlePath returns the path of one role document of a variant.
func (w *Workspace) BundlePath(v bundle.Variant, file string) string {
	return filepath.Join(w.Dir, bundle.Dir(v), file)
}

// Manager creates and opens workspaces under a root directory.
type Manager struct {
	root string
}

// New returns a Manager rooted at root, or bundle.DefaultRoot when empty.
func New(root string) *Manager {
	if root == "" {
		root = bundle.DefaultRoot
	}
	return &Manager{root: root}
}

// Root returns the directory workspaces live under.
func (m *Manager) Root() string {
	return m.root
}

// Path returns the directory of the workspace named label.
func (m *Manager) Path(label string) string {
	return filepath.Join(m.root, label)
}

// Create builds the workspace described by req. If the workspace exists and
// replacement is not approved, Create returns ErrWorkspaceCollision without
// touching the filesystem.
func (m *Manager) Create(ctx context.Context, req Request) (*Workspace, error) {
	if err := ValidateLabel(req.Args.Label); err != nil {
		return nil, err
	}
	if req.Topology == nil {
		return nil, errors.New("topology is required")
	}
	if _, err := os.Stat(req.Args.Structure); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingStructureFile, req.Args.Structure)
		}
		return nil, err
	}

	target := m.Path(req.Args.Label)
	exists, err := dirExists(target)
	if err != nil {
		return nil, err
	}
	if exists {
		if err := approveReplace(target, req); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(m.root, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace root: %w", err)
	}
	staging, err := os.MkdirTemp(m.root, "."+req.Args.Label+".staging-*")
	if err != nil {
		return nil, fmt.Errorf("create staging directory: %w", err)
	}

	args := req.Args
	args.ApplyPlan(req.Plan)
	if err := m.populate(staging, args, req); err != nil {
		os.RemoveAll(staging)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		os.RemoveAll(staging)
		return nil, err
	}

	if err := swap(staging, target, exists); err != nil {
		os.RemoveAll(staging)
		return nil, err
	}

	logger.Infof("Workspace %q ready", target)
	return &Workspace{Dir: target, Args: args, Topology: req.Topology}, nil
}

// Open loads an existing workspace.
func (m *Manager) Open(label string) (*Workspace, error) {
	if err := ValidateLabel(label); err != nil {
		return nil, err
	}

	dir := m.Path(label)
	exists, err := dirExists(dir)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrWorkspaceNotFound, dir)
	}

	ws := &Workspace{Dir: dir}
	if ws.Args, err = readArgs(filepath.Join(dir, ArgsFile)); err != nil {
		return nil, fmt.Errorf("open workspace %s: %w", dir, err)
	}
	if ws.Topology, err = topology.ParseFile(ws.StructurePath()); err != nil {
		return nil, fmt.Errorf("open workspace %s: %w", dir, err)
	}
	return ws, nil
}

func approveReplace(target string, req Request) error {
	if req.Force {
		logger.Warnf("Replacing existing workspace %q", target)
		return nil
	}
	if req.Confirm == nil {
		return fmt.Errorf("%w: %s (use --force to replace it)", ErrWorkspaceCollision, target)
	}

	ok, err := req.Confirm.Confirm(target)
	if err != nil {
		return fmt.Errorf("confirm replacement of %s: %w", target, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s (replacement declined)", ErrWorkspaceCollision, target)
	}
	logger.Infof("Cleaning files in directory %q", target)
	return nil
}

func (m *Manager) populate(dir string, args Args, req Request) error {
	if err := writeArgs(filepath.Join(dir, ArgsFile), args); err != nil {
		return err
	}
	logger.Infof("Writing arguments into %q", filepath.Join(m.Path(args.Label), ArgsFile))

	if err := os.WriteFile(filepath.Join(dir, TopologyFile), req.Topology.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write topology: %w", err)
	}
	if err := copyFile(req.Args.Structure, filepath.Join(dir, StructureCopyFile)); err != nil {
		return fmt.Errorf("copy structure file: %w", err)
	}

	params := bundle.Params{
		Label:    args.Label,
		Plan:     req.Plan,
		Variants: req.Variants,
		Root:     m.root,
	}
	if err := bundle.Emit(dir, params); err != nil {
		return fmt.Errorf("emit role documents: %w", err)
	}
	return nil
}

// swap moves staging to target. An existing target is set aside first and
// restored if the move fails.
func swap(staging, target string, replace bool) error {
	if !replace {
		return os.Rename(staging, target)
	}

	dir, name := filepath.Split(target)
	old := filepath.Join(dir, "."+name+".old-"+strconv.FormatInt(time.Now().UnixNano(), 36))
	if err := os.Rename(target, old); err != nil {
		return fmt.Errorf("set aside old workspace: %w", err)
	}
	if err := os.Rename(staging, target); err != nil {
		if restoreErr := os.Rename(old, target); restoreErr != nil {
			return errors.Join(fmt.Errorf("install workspace: %w", err), fmt.Errorf("restore old workspace: %w", restoreErr))
		}
		return fmt.Errorf("install workspace: %w", err)
	}
	if err := os.RemoveAll(old); err != nil {
		logger.Warnf("Could not remove old workspace %q: %v", old, err)
	}
	return nil
}

func dirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case err == nil:
		if !info.IsDir() {
			return false, fmt.Errorf("%s exists and is not a directory", path)
		}
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

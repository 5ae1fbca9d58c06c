package agentfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ExecContext identifies how the runtime was launched. Each context has its
// own resolution chain and its own default location; the chains are not
// interchangeable and never fall through to each other.
type ExecContext string

const (
	// SourceCheckout is a developer working inside a cloned repository.
	SourceCheckout ExecContext = "source-checkout"
	// InstalledProject is a project that depends on the runtime and keeps
	// agent files under a project-local directory.
	InstalledProject ExecContext = "installed-project"
	// GlobalInstall is a machine-wide installation with agents under the
	// user's home directory.
	GlobalInstall ExecContext = "global-install"
)

func (c ExecContext) IsValid() bool {
	switch c {
	case SourceCheckout, InstalledProject, GlobalInstall:
		return true
	}
	return false
}

// Resolution failures are named so callers can tell exactly which branch of
// the chain gave up. There is no guessed fallback path: an unresolvable
// agent is always an error.
var (
	ErrUnknownContext        = errors.New("unknown execution context")
	ErrExplicitPathMissing   = errors.New("explicit agent path does not exist")
	ErrNameNotRegistered     = errors.New("agent name is not registered")
	ErrRegisteredPathMissing = errors.New("registered agent path does not exist")
	ErrDefaultAgentMissing   = errors.New("no default agent file for execution context")
)

// Registry maps short agent names to file paths. The resolver takes it as a
// dependency so registry implementations can live anywhere without an import
// cycle back into this package.
type Registry interface {
	Lookup(name string) (string, bool)
}

// StaticRegistry is a map-backed Registry for tests and simple setups.
type StaticRegistry map[string]string

func (r StaticRegistry) Lookup(name string) (string, bool) {
	path, ok := r[name]
	return path, ok
}

// Resolver locates the agent file to load. Roots are fixed at construction;
// empty roots default to the current working directory (checkout, project)
// and the user home (global).
type Resolver struct {
	registry Registry

	checkoutRoot string
	projectRoot  string
	globalRoot   string
}

type ResolverOption func(*Resolver)

func WithCheckoutRoot(root string) ResolverOption {
	return func(r *Resolver) { r.checkoutRoot = root }
}

func WithProjectRoot(root string) ResolverOption {
	return func(r *Resolver) { r.projectRoot = root }
}

func WithGlobalRoot(root string) ResolverOption {
	return func(r *Resolver) { r.globalRoot = root }
}

func NewResolver(registry Registry, opts ...ResolverOption) *Resolver {
	r := &Resolver{registry: registry}
	for _, opt := range opts {
		opt(r)
	}
	if r.checkoutRoot == "" {
		r.checkoutRoot, _ = os.Getwd()
	}
	if r.projectRoot == "" {
		r.projectRoot, _ = os.Getwd()
	}
	if r.globalRoot == "" {
		if home, err := os.UserHomeDir(); err == nil {
			r.globalRoot = filepath.Join(home, ".beacon")
		}
	}
	return r
}

// Resolve walks the context's chain: explicit path, then registry name, then
// the context default. The first branch that applies decides the outcome;
// a branch that applies but fails stops resolution with its named error
// rather than trying the next one.
func (r *Resolver) Resolve(execCtx ExecContext, explicitPath, registryName string) (string, error) {
	if !execCtx.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownContext, execCtx)
	}

	if explicitPath != "" {
		abs, err := filepath.Abs(explicitPath)
		if err != nil {
			return "", fmt.Errorf("%w: %q: %v", ErrExplicitPathMissing, explicitPath, err)
		}
		if err := statFile(abs); err != nil {
			return "", fmt.Errorf("%w: %q", ErrExplicitPathMissing, explicitPath)
		}
		return abs, nil
	}

	if registryName != "" {
		if r.registry == nil {
			return "", fmt.Errorf("%w: %q (no registry configured)", ErrNameNotRegistered, registryName)
		}
		path, ok := r.registry.Lookup(registryName)
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrNameNotRegistered, registryName)
		}
		if err := statFile(path); err != nil {
			return "", fmt.Errorf("%w: %q resolved to %q", ErrRegisteredPathMissing, registryName, path)
		}
		return path, nil
	}

	path := r.defaultPath(execCtx)
	if err := statFile(path); err != nil {
		return "", fmt.Errorf("%w: %s expects %q", ErrDefaultAgentMissing, execCtx, path)
	}
	return path, nil
}

func (r *Resolver) defaultPath(execCtx ExecContext) string {
	switch execCtx {
	case SourceCheckout:
		return filepath.Join(r.checkoutRoot, "agent.yaml")
	case InstalledProject:
		return filepath.Join(r.projectRoot, ".beacon", "agent.yaml")
	case GlobalInstall:
		return filepath.Join(r.globalRoot, "agents", "default.yaml")
	}
	return ""
}

func statFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%q is a directory", path)
	}
	return nil
}

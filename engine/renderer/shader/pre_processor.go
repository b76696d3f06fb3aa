// pre_processor.go resolves @oxy:include directives in WGSL sources. WGSL has no
// module system, so shared structs and helpers live in their own files and are
// pasted into each program before compilation:
//
//	// @oxy:include common.wgsl
//
// An included file may include others. Each file is pasted at most once per
// program, and cycles are reported as errors.
package shader

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

const includeDirective = "@oxy:include"

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	fsys fs.FS

	// deps accumulates every file read during the last Process call.
	deps map[string]struct{}
}

// PreProcessor expands @oxy:include directives and records which files a source
// depends on, so the library knows what to rebuild when a file changes.
type PreProcessor interface {
	// Process reads the file at name and returns it with every include expanded.
	//
	// Parameters:
	//   - name: the library-relative path of the root file
	//
	// Returns:
	//   - string: the expanded WGSL source
	//   - error: an error if a file cannot be read or an include cycle exists
	Process(name string) (string, error)

	// Dependencies returns the files read by the most recent Process call,
	// the root file included.
	//
	// Returns:
	//   - []string: the library-relative paths
	Dependencies() []string
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor reading from fsys.
//
// Parameters:
//   - fsys: the shader file system
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor(fsys fs.FS) PreProcessor {
	return &preProcessor{fsys: fsys}
}

func (p *preProcessor) Process(name string) (string, error) {
	p.deps = make(map[string]struct{})
	var sb strings.Builder
	if err := p.expand(name, &sb, map[string]bool{}); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (p *preProcessor) expand(name string, sb *strings.Builder, stack map[string]bool) error {
	name = path.Clean(name)
	if stack[name] {
		return fmt.Errorf("include cycle through %s", name)
	}
	if _, done := p.deps[name]; done {
		return nil
	}
	src, err := fs.ReadFile(p.fsys, name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	p.deps[name] = struct{}{}
	stack[name] = true
	defer delete(stack, name)

	for i, line := range strings.Split(string(src), "\n") {
		trimmed := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "//"))
		target, ok := strings.CutPrefix(trimmed, includeDirective)
		if !ok {
			sb.WriteString(line)
			sb.WriteByte('\n')
			continue
		}
		target = strings.TrimSpace(target)
		if target == "" {
			return fmt.Errorf("%s:%d: %s without a file", name, i+1, includeDirective)
		}
		if err := p.expand(path.Join(path.Dir(name), target), sb, stack); err != nil {
			return fmt.Errorf("%s:%d: %w", name, i+1, err)
		}
	}
	return nil
}

func (p *preProcessor) Dependencies() []string {
	out := make([]string, 0, len(p.deps))
	for d := range p.deps {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

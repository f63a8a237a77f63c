package main

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"go/format"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"unicode"
)

// Manifest is the JSON document consumed by loomgen. It names every service in
// a wiring set, the constructor expression that builds it, and the context keys
// the constructor reads.
type Manifest struct {
	// Package is the package clause of the generated file.
	Package string `json:"package"`

	// DIImport overrides the import path of the runtime package. When empty it
	// is inferred from the go.mod of the module that contains loomgen, which
	// lets a vendored fork keep working without editing every manifest.
	DIImport string `json:"diImport"`

	// Imports lists the packages referenced by service types and constructors.
	Imports []Import `json:"imports"`

	Services []Service `json:"services"`
}

type Import struct {
	Alias string `json:"alias"`
	Path  string `json:"path"`
}

// Service describes one descriptor to generate.
type Service struct {
	// Name is the diagnostic name passed to di.Define. Unique per manifest.
	Name string `json:"name"`

	// Var overrides the generated descriptor variable name. When empty it is
	// derived from Name ("payment-gateway" becomes PaymentGateway).
	Var string `json:"var"`

	// Type is the Go type the constructor returns, e.g. "*storage.DB".
	Type string `json:"type"`

	// Constructor is an expression callable as func(*di.Context) Type,
	// e.g. "storage.NewDB".
	Constructor string `json:"constructor"`

	// Deps maps context keys to edges onto other manifest services.
	Deps map[string]Edge `json:"deps"`
}

// Edge is one dependency declaration. Service names another manifest entry;
// Lazy selects an accessor edge instead of an eager one.
type Edge struct {
	Service string `json:"service"`
	Lazy    bool   `json:"lazy"`
}

func run(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("loomgen", flag.ContinueOnError)
	fs.SetOutput(stderr)

	manifestPath := fs.String("manifest", "", "path to the wiring manifest (JSON)")
	outPath := fs.String("out", "", "output .gen.go file path")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if strings.TrimSpace(*manifestPath) == "" || strings.TrimSpace(*outPath) == "" {
		fmt.Fprintln(stderr, "usage: loomgen -manifest wiring.json -out wiring.gen.go")
		return 2
	}

	generate(*manifestPath, filepath.Clean(*outPath))
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func generate(manifestPath, outPath string) {
	raw := mustRead(manifestPath)

	var m Manifest
	must(json.Unmarshal(raw, &m))

	validateManifest(&m)

	if strings.TrimSpace(m.DIImport) == "" {
		m.DIImport = inferRuntimeImport("")
	}

	data := templateData{
		Package:      m.Package,
		ManifestPath: filepath.ToSlash(manifestPath),
		ManifestHash: sha256Hex(raw),
		Imports:      renderImports(&m),
		Services:     prepareServices(&m),
	}

	var sb strings.Builder
	must(genTemplate.Execute(&sb, data))

	src, err := format.Source([]byte(sb.String()))
	if err != nil {
		// Leave the unformatted output behind so the bad render is inspectable.
		_ = os.WriteFile(outPath, []byte(sb.String()), 0o644)
		die("gofmt failed on generated output: " + err.Error())
	}

	must(writeFileAtomic(outPath, src, 0o644))
}

// -------------------------
// Manifest validation
// -------------------------

func validateManifest(m *Manifest) {
	var missing []string
	if strings.TrimSpace(m.Package) == "" {
		missing = append(missing, "package")
	}
	if len(m.Services) == 0 {
		missing = append(missing, "services")
	}
	if len(missing) > 0 {
		die("manifest missing: " + strings.Join(missing, ", "))
	}

	for _, imp := range m.Imports {
		if strings.TrimSpace(imp.Path) == "" {
			die("manifest import entries must have a path")
		}
	}

	names := map[string]bool{}
	varOwners := map[string]string{}
	for i := range m.Services {
		s := &m.Services[i]
		if strings.TrimSpace(s.Name) == "" || strings.TrimSpace(s.Type) == "" || strings.TrimSpace(s.Constructor) == "" {
			die("every service must have name/type/constructor")
		}
		if names[s.Name] {
			die("duplicate service name " + strconv.Quote(s.Name))
		}
		names[s.Name] = true

		v := strings.TrimSpace(s.Var)
		if v == "" {
			v = identFor(s.Name)
			if v == "" {
				die("service " + strconv.Quote(s.Name) + " yields no usable descriptor variable name; set var explicitly")
			}
		} else if !isExportedIdent(v) {
			die("service " + strconv.Quote(s.Name) + " var " + strconv.Quote(v) + " must be an exported Go identifier")
		}
		if v == "Services" || v == "Validate" {
			die("service " + strconv.Quote(s.Name) + " var " + v + " collides with a generated declaration")
		}
		if owner, taken := varOwners[v]; taken {
			die("services " + strconv.Quote(owner) + " and " + strconv.Quote(s.Name) + " map to the same variable " + v)
		}
		varOwners[v] = s.Name
		s.Var = v
	}

	for _, s := range m.Services {
		for key, e := range s.Deps {
			if strings.TrimSpace(key) == "" {
				die("service " + strconv.Quote(s.Name) + " declares a dependency with an empty key")
			}
			if !names[e.Service] {
				die("service " + strconv.Quote(s.Name) + " dependency " + strconv.Quote(key) + " references unknown service " + strconv.Quote(e.Service))
			}
		}
	}

	checkEagerCycles(m)
}

// Walk states for the eager-cycle check; the zero map value means unvisited.
const (
	cycleVisiting = iota + 1
	cycleVisited
)

// checkEagerCycles rejects manifests whose eager edges form a cycle. Lazy
// edges are skipped: the runtime resolves them through accessors after the
// requesting service is built, so they do not deadlock on their own.
func checkEagerCycles(m *Manifest) {
	byName := make(map[string]*Service, len(m.Services))
	for i := range m.Services {
		byName[m.Services[i].Name] = &m.Services[i]
	}

	state := make(map[string]int, len(m.Services))
	var stack []string

	var walk func(s *Service)
	walk = func(s *Service) {
		switch state[s.Name] {
		case cycleVisited:
			return
		case cycleVisiting:
			die("eager dependency cycle: " + strings.Join(append(append([]string{}, stack...), s.Name), " -> "))
		}
		state[s.Name] = cycleVisiting
		stack = append(stack, s.Name)

		for _, key := range sortedDepKeys(s.Deps) {
			if e := s.Deps[key]; !e.Lazy {
				walk(byName[e.Service])
			}
		}

		stack = stack[:len(stack)-1]
		state[s.Name] = cycleVisited
	}

	for i := range m.Services {
		walk(&m.Services[i])
	}
}

// identFor derives an exported Go identifier from a service name:
// "payment-gateway" becomes "PaymentGateway". Runes that cannot appear in an
// identifier act as word breaks; a leading digit is dropped.
func identFor(name string) string {
	var b strings.Builder
	upperNext := true
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || (unicode.IsDigit(r) && b.Len() > 0):
			if upperNext {
				r = unicode.ToUpper(r)
			}
			b.WriteRune(r)
			upperNext = false
		default:
			upperNext = true
		}
	}
	return b.String()
}

func isExportedIdent(s string) bool {
	for i, r := range s {
		switch {
		case i == 0 && !unicode.IsUpper(r):
			return false
		case !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_':
			return false
		}
	}
	return s != ""
}

// -------------------------
// Runtime import inference
// -------------------------

// inferRuntimeImport computes the import path of the runtime package from the
// go.mod of the module containing loomgen. The manifest diImport field takes
// precedence and skips this entirely.
func inferRuntimeImport(runtimePkgRel string) string {
	if strings.TrimSpace(runtimePkgRel) == "" {
		runtimePkgRel = "di"
	}

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		die("cannot infer di import: runtime.Caller failed")
	}

	modRoot, modPath, err := findModule(filepath.Dir(thisFile))
	if err != nil {
		die("cannot infer di import: " + err.Error())
	}

	runtimeAbs := filepath.Join(modRoot, filepath.FromSlash(runtimePkgRel))
	if !dirExists(runtimeAbs) {
		die("cannot infer di import: expected runtime package dir at " + filepath.ToSlash(runtimeAbs))
	}

	return modPath + "/" + filepath.ToSlash(runtimePkgRel)
}

// findModule walks up from startDir to the nearest go.mod and returns the
// module root directory and module path.
func findModule(startDir string) (modRoot, modPath string, err error) {
	dir := startDir
	for {
		gomod := filepath.Join(dir, "go.mod")
		if fileExists(gomod) {
			b, rerr := os.ReadFile(gomod)
			if rerr != nil {
				return "", "", rerr
			}
			for _, line := range strings.Split(string(b), "\n") {
				line = strings.TrimSpace(line)
				if rest, found := strings.CutPrefix(line, "module "); found {
					return dir, strings.TrimSpace(rest), nil
				}
			}
			return "", "", errors.New("go.mod missing module directive at " + filepath.ToSlash(gomod))
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", "", errors.New("no go.mod found above " + filepath.ToSlash(startDir))
		}
		dir = parent
	}
}

func dirExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.IsDir()
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}

// -------------------------
// Render preparation
// -------------------------

type templateData struct {
	Package      string
	ManifestPath string
	ManifestHash string
	Imports      []Import
	Services     []renderedService
}

type renderedService struct {
	Var         string
	Name        string
	Type        string
	Constructor string
	Deps        []renderedDep
}

type renderedDep struct {
	Key  string
	Var  string
	Lazy bool
}

// renderImports merges the runtime import with the manifest imports, deduped
// and sorted by path. gofmt does not reorder imports, so the template must
// receive them in final order.
func renderImports(m *Manifest) []Import {
	all := append([]Import{{Path: m.DIImport}}, m.Imports...)

	seen := map[Import]bool{}
	out := make([]Import, 0, len(all))
	for _, imp := range all {
		if seen[imp] {
			continue
		}
		seen[imp] = true
		out = append(out, imp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path == out[j].Path {
			return out[i].Alias < out[j].Alias
		}
		return out[i].Path < out[j].Path
	})
	return out
}

// prepareServices resolves dependency edges to descriptor variable names.
// Services keep manifest order; dependency keys are sorted for deterministic
// output. Must run after validateManifest, which fills in derived vars and
// guarantees every edge target exists.
func prepareServices(m *Manifest) []renderedService {
	varOf := make(map[string]string, len(m.Services))
	for _, s := range m.Services {
		varOf[s.Name] = s.Var
	}

	out := make([]renderedService, 0, len(m.Services))
	for _, s := range m.Services {
		rs := renderedService{
			Var:         s.Var,
			Name:        s.Name,
			Type:        s.Type,
			Constructor: s.Constructor,
		}
		for _, key := range sortedDepKeys(s.Deps) {
			e := s.Deps[key]
			rs.Deps = append(rs.Deps, renderedDep{Key: key, Var: varOf[e.Service], Lazy: e.Lazy})
		}
		out = append(out, rs)
	}
	return out
}

func sortedDepKeys(deps map[string]Edge) []string {
	keys := make([]string, 0, len(deps))
	for k := range deps {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// -------------------------
// Template
// -------------------------

var genTemplate = template.Must(template.New("wiring").Parse(`// Code generated by loomgen; DO NOT EDIT.
// Manifest: {{ .ManifestPath }}
// Manifest-SHA256: {{ .ManifestHash }}

package {{ .Package }}

import (
{{- range .Imports }}
	{{- if .Alias }}
	{{ .Alias }} "{{ .Path }}"
	{{- else }}
	"{{ .Path }}"
	{{- end }}
{{- end }}
)

// Descriptors for every manifest service. They are assigned in init so that
// dependency declarations can reference services in any order.
var (
{{- range .Services }}
	{{ .Var }} *di.Descriptor
{{- end }}
)

func init() {
{{- range .Services }}
	{{ .Var }} = di.Define[{{ .Type }}]({{ printf "%q" .Name }}, {{ .Constructor }}{{ if .Deps }}, di.WithDepsFunc(func() di.Declaration {
		return di.Declaration{
{{- range .Deps }}
{{- if .Lazy }}
			{{ printf "%q" .Key }}: di.Lazy(func() *di.Descriptor { return {{ .Var }} }),
{{- else }}
			{{ printf "%q" .Key }}: di.Eager({{ .Var }}),
{{- end }}
{{- end }}
		}
	}){{ end }})
{{- end }}
}

// Services lists every generated descriptor in manifest order.
func Services() []*di.Descriptor {
	return []*di.Descriptor{
{{- range .Services }}
		{{ .Var }},
{{- end }}
	}
}

// Validate walks the generated wiring and reports malformed declarations or
// eager dependency cycles without constructing anything.
func Validate() error {
	return di.Validate(Services()...)
}
`))

// -------------------------
// Output plumbing
// -------------------------

// tempFile is the part of *os.File that writeFileAtomic needs, so tests can
// substitute a controllable fake.
type tempFile interface {
	Name() string
	Write(p []byte) (int, error)
	Close() error
}

// Seams for writeFileAtomic, swappable in tests.
var (
	createTempFile = func(dir, pattern string) (tempFile, error) {
		return os.CreateTemp(dir, pattern)
	}
	removeFile = os.Remove
	chmodFile  = os.Chmod
	renameFile = os.Rename
)

// writeFileAtomic writes data to a temp file in the target directory and
// renames it over targetPath, so a crash mid-write never leaves a truncated
// generated file behind.
func writeFileAtomic(targetPath string, data []byte, perm os.FileMode) error {
	f, err := createTempFile(filepath.Dir(targetPath), ".loomgen-*")
	if err != nil {
		return err
	}
	tmpPath := f.Name()

	committed := false
	defer func() {
		if !committed {
			_ = removeFile(tmpPath)
		}
	}()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := chmodFile(tmpPath, perm); err != nil {
		return err
	}
	if err := renameFile(tmpPath, targetPath); err != nil {
		return err
	}
	committed = true
	return nil
}

func mustRead(path string) []byte {
	b, err := os.ReadFile(path)
	must(err)
	return b
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

func die(msg string) {
	panic(msg)
}

package artifacts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/samber/lo"
	"github.com/trebuchet-org/govdeploy/internal/domain"
	"github.com/trebuchet-org/govdeploy/internal/domain/config"
)

// DefaultDirs are searched when no artifact directory is configured: Foundry's
// out/ and Hardhat's artifacts/.
var DefaultDirs = []string{"out", "artifacts"}

// Artifact is a compiled contract
type Artifact struct {
	Name     string
	Path     string
	ABI      abi.ABI
	Bytecode []byte

	// CompilerVersion is in explorer form, e.g. v0.8.24+commit.e11b9ed9
	CompilerVersion string
	// SourceName is the path of the defining source file, e.g. contracts/GovernanceToken.sol
	SourceName string
	// StandardInput is the solc standard-json input that produced the artifact
	StandardInput json.RawMessage
}

// FullyQualifiedName returns "<source>:<contract>" as expected by explorers
func (a *Artifact) FullyQualifiedName() string {
	if a.SourceName == "" {
		return a.Name
	}
	return a.SourceName + ":" + a.Name
}

// Repository finds and parses Foundry and Hardhat artifacts below the project root
type Repository struct {
	root string
	dirs []string

	mu    sync.Mutex
	cache map[string]*Artifact
}

// NewRepository creates an artifact repository for the runtime configuration
func NewRepository(cfg *config.RuntimeConfig) *Repository {
	dirs := DefaultDirs
	if cfg.Project != nil && len(cfg.Project.Artifacts.Dirs) > 0 {
		dirs = cfg.Project.Artifacts.Dirs
	}
	return NewRepositoryAt(cfg.ProjectRoot, dirs)
}

// NewRepositoryAt creates a repository over explicit directories relative to root
func NewRepositoryAt(root string, dirs []string) *Repository {
	return &Repository{
		root:  root,
		dirs:  dirs,
		cache: make(map[string]*Artifact),
	}
}

// Load returns the artifact for a contract name
func (r *Repository) Load(name string) (*Artifact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a, ok := r.cache[name]; ok {
		return a, nil
	}

	path, err := r.find(name)
	if err != nil {
		return nil, err
	}

	a, err := r.parse(name, path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse artifact %s: %w", path, err)
	}
	r.cache[name] = a
	return a, nil
}

// find locates <name>.json in the configured directories. The first directory
// containing a match wins.
func (r *Repository) find(name string) (string, error) {
	target := name + ".json"
	for _, dir := range r.dirs {
		base := dir
		if !filepath.IsAbs(base) {
			base = filepath.Join(r.root, dir)
		}
		if _, err := os.Stat(base); err != nil {
			continue
		}

		var found []string
		err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() && d.Name() == "build-info" {
				return filepath.SkipDir
			}
			if !d.IsDir() && d.Name() == target {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return "", fmt.Errorf("failed to scan %s: %w", base, err)
		}

		switch len(found) {
		case 0:
			continue
		case 1:
			return found[0], nil
		default:
			rel := lo.Map(found, func(p string, _ int) string {
				if rp, err := filepath.Rel(r.root, p); err == nil {
					return rp
				}
				return p
			})
			return "", fmt.Errorf("artifact %s is ambiguous: %s", name, strings.Join(rel, ", "))
		}
	}
	return "", fmt.Errorf("artifact %s in %v: %w", name, r.dirs, domain.ErrNotFound)
}

// rawArtifact covers both the Foundry and the Hardhat layout
type rawArtifact struct {
	ContractName string          `json:"contractName"`
	SourceName   string          `json:"sourceName"`
	ABI          json.RawMessage `json:"abi"`
	Bytecode     bytecodeField   `json:"bytecode"`
	RawMetadata  string          `json:"rawMetadata"`
	Metadata     json.RawMessage `json:"metadata"`
}

// bytecodeField accepts "0x..." (Hardhat) and {"object": "0x..."} (Foundry)
type bytecodeField string

func (b *bytecodeField) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*b = bytecodeField(s)
		return nil
	}
	var obj struct {
		Object string `json:"object"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("bytecode: %w", err)
	}
	*b = bytecodeField(obj.Object)
	return nil
}

// solcMetadata is the compiler metadata embedded in Foundry artifacts
type solcMetadata struct {
	Compiler struct {
		Version string `json:"version"`
	} `json:"compiler"`
	Language string `json:"language"`
	Settings struct {
		CompilationTarget map[string]string          `json:"compilationTarget"`
		EVMVersion        string                     `json:"evmVersion,omitempty"`
		Libraries         map[string]string          `json:"libraries,omitempty"`
		Optimizer         json.RawMessage            `json:"optimizer,omitempty"`
		Remappings        []string                   `json:"remappings,omitempty"`
		ViaIR             bool                       `json:"viaIR,omitempty"`
		Metadata          map[string]json.RawMessage `json:"metadata,omitempty"`
	} `json:"settings"`
	Sources map[string]struct {
		Content string `json:"content,omitempty"`
	} `json:"sources"`
}

func (r *Repository) parse(name, path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw rawArtifact
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	parsedABI, err := abi.JSON(strings.NewReader(string(raw.ABI)))
	if err != nil {
		return nil, fmt.Errorf("abi: %w", err)
	}

	code := string(raw.Bytecode)
	if strings.Contains(code, "__$") {
		return nil, fmt.Errorf("bytecode has unlinked library references")
	}
	var bytecode []byte
	if code != "" && code != "0x" {
		bytecode, err = hexutil.Decode(code)
		if err != nil {
			return nil, fmt.Errorf("bytecode: %w", err)
		}
	}

	a := &Artifact{
		Name:       name,
		Path:       path,
		ABI:        parsedABI,
		Bytecode:   bytecode,
		SourceName: raw.SourceName,
	}

	if meta := r.metadata(raw); meta != nil {
		r.applyMetadata(a, meta)
	} else if err := r.applyBuildInfo(a, path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	return a, nil
}

func (r *Repository) metadata(raw rawArtifact) *solcMetadata {
	candidates := [][]byte{[]byte(raw.RawMetadata), raw.Metadata}
	for _, c := range candidates {
		if len(c) == 0 || string(c) == "null" {
			continue
		}
		var meta solcMetadata
		if err := json.Unmarshal(c, &meta); err == nil && meta.Compiler.Version != "" {
			return &meta
		}
	}
	return nil
}

// applyMetadata rebuilds the standard-json input from Foundry metadata. Source
// contents missing from the metadata are read from the project tree.
func (r *Repository) applyMetadata(a *Artifact, meta *solcMetadata) {
	a.CompilerVersion = "v" + strings.TrimPrefix(meta.Compiler.Version, "v")
	for source := range meta.Settings.CompilationTarget {
		a.SourceName = source
	}

	sources := make(map[string]map[string]string, len(meta.Sources))
	for path, src := range meta.Sources {
		content := src.Content
		if content == "" {
			data, err := os.ReadFile(filepath.Join(r.root, path))
			if err != nil {
				// Incomplete input; explorers will reject it and the run reports a warning.
				continue
			}
			content = string(data)
		}
		sources[path] = map[string]string{"content": content}
	}

	settings := map[string]any{
		"outputSelection": map[string]any{"*": map[string]any{"*": []string{"abi", "evm.bytecode", "evm.deployedBytecode", "metadata"}}},
	}
	if len(meta.Settings.Optimizer) > 0 {
		settings["optimizer"] = meta.Settings.Optimizer
	}
	if meta.Settings.EVMVersion != "" {
		settings["evmVersion"] = meta.Settings.EVMVersion
	}
	if len(meta.Settings.Remappings) > 0 {
		settings["remappings"] = meta.Settings.Remappings
	}
	if meta.Settings.ViaIR {
		settings["viaIR"] = true
	}
	if len(meta.Settings.Metadata) > 0 {
		settings["metadata"] = meta.Settings.Metadata
	}
	if len(meta.Settings.Libraries) > 0 {
		libs := make(map[string]map[string]string)
		for fq, addr := range meta.Settings.Libraries {
			file, lib, ok := strings.Cut(fq, ":")
			if !ok {
				continue
			}
			if libs[file] == nil {
				libs[file] = make(map[string]string)
			}
			libs[file][lib] = addr
		}
		settings["libraries"] = libs
	}

	language := meta.Language
	if language == "" {
		language = "Solidity"
	}
	input, err := json.Marshal(map[string]any{
		"language": language,
		"sources":  sources,
		"settings": settings,
	})
	if err == nil {
		a.StandardInput = input
	}
}

// applyBuildInfo reads the Hardhat build-info referenced by <name>.dbg.json
func (r *Repository) applyBuildInfo(a *Artifact, artifactPath string) error {
	dbgPath := strings.TrimSuffix(artifactPath, ".json") + ".dbg.json"
	data, err := os.ReadFile(dbgPath)
	if err != nil {
		return err
	}

	var dbg struct {
		BuildInfo string `json:"buildInfo"`
	}
	if err := json.Unmarshal(data, &dbg); err != nil {
		return fmt.Errorf("debug file %s: %w", dbgPath, err)
	}
	if dbg.BuildInfo == "" {
		return nil
	}

	buildInfoPath := filepath.Join(filepath.Dir(dbgPath), dbg.BuildInfo)
	data, err = os.ReadFile(buildInfoPath)
	if err != nil {
		return fmt.Errorf("build info %s: %w", buildInfoPath, err)
	}

	var info struct {
		SolcLongVersion string          `json:"solcLongVersion"`
		Input           json.RawMessage `json:"input"`
	}
	if err := json.Unmarshal(data, &info); err != nil {
		return fmt.Errorf("build info %s: %w", buildInfoPath, err)
	}

	a.CompilerVersion = "v" + strings.TrimPrefix(info.SolcLongVersion, "v")
	a.StandardInput = info.Input
	return nil
}

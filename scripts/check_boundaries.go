// Command check_boundaries enforces the layer rules of every service under
// contexts/. It exits non-zero and lists each offending import when a rule is
// broken.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// valueTypeLibraries carry values only and never reach I/O, so the inner
// layers may depend on them.
var valueTypeLibraries = []string{
	"github.com/shopspring/decimal",
}

// layerRule lists what a layer of a service may import. Stdlib is always
// allowed. anyThirdParty lifts the library allowlist for outer layers.
type layerRule struct {
	layers        []string
	libraries     []string
	anyThirdParty bool
	contracts     bool
}

var layerRules = map[string]layerRule{
	"domain": {
		layers:    []string{"domain"},
		libraries: valueTypeLibraries,
	},
	"ports": {
		layers:    []string{"domain"},
		libraries: valueTypeLibraries,
		contracts: true,
	},
	"application": {
		layers:    []string{"application", "domain", "ports"},
		libraries: valueTypeLibraries,
		contracts: true,
	},
	"transport": {
		layers:    []string{"transport"},
		libraries: valueTypeLibraries,
	},
	"adapters": {
		layers:        []string{"application", "domain", "ports", "transport"},
		anyThirdParty: true,
		contracts:     true,
	},
}

type violation struct {
	File   string
	Line   int
	Import string
	Rule   string
}

func main() {
	modulePath, err := readModulePath("go.mod")
	if err != nil {
		fmt.Fprintln(os.Stderr, "boundary check:", err)
		os.Exit(2)
	}
	violations, err := collectViolations(modulePath, "contexts")
	if err != nil {
		fmt.Fprintln(os.Stderr, "boundary check:", err)
		os.Exit(2)
	}
	if len(violations) == 0 {
		fmt.Println("boundary checks passed")
		return
	}

	fmt.Println("boundary violations found:")
	for _, v := range violations {
		fmt.Printf("- %s:%d imports %q (%s)\n", v.File, v.Line, v.Import, v.Rule)
	}
	os.Exit(1)
}

func readModulePath(goModPath string) (string, error) {
	file, err := os.Open(goModPath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if rest, ok := strings.CutPrefix(line, "module "); ok {
			return strings.Trim(strings.TrimSpace(rest), `"`), nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", errors.New("no module directive in " + goModPath)
}

// collectViolations walks contexts/<context>/<service>/<layer>/... and returns
// violations sorted by file and line. Files directly under a service directory
// form its composition root and only get the cross-service check.
func collectViolations(modulePath string, root string) ([]violation, error) {
	var violations []violation
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) < 3 {
			return nil
		}
		servicePrefix := strings.Join([]string{modulePath, "contexts", parts[0], parts[1]}, "/")
		layer := ""
		if len(parts) > 3 {
			layer = parts[2]
		}

		found, err := validateFile(modulePath, servicePrefix, layer, path)
		if err != nil {
			return err
		}
		violations = append(violations, found...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(violations, func(i, j int) bool {
		if violations[i].File != violations[j].File {
			return violations[i].File < violations[j].File
		}
		if violations[i].Line != violations[j].Line {
			return violations[i].Line < violations[j].Line
		}
		return violations[i].Import < violations[j].Import
	})
	return violations, nil
}

func validateFile(modulePath string, servicePrefix string, layer string, path string) ([]violation, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	var violations []violation
	for _, imp := range file.Imports {
		importPath := strings.Trim(imp.Path.Value, `"`)
		rule := checkImport(modulePath, servicePrefix, layer, importPath)
		if rule == "" {
			continue
		}
		violations = append(violations, violation{
			File:   filepath.ToSlash(path),
			Line:   fset.Position(imp.Pos()).Line,
			Import: importPath,
			Rule:   rule,
		})
	}
	return violations, nil
}

// checkImport returns the broken rule, or "" when importPath is allowed from
// layer.
func checkImport(modulePath string, servicePrefix string, layer string, importPath string) string {
	internal := hasPrefix(importPath, modulePath)
	if internal && hasPrefix(importPath, modulePath+"/contexts") && !hasPrefix(importPath, servicePrefix) {
		return "cross-service imports are forbidden"
	}

	rule, restricted := layerRules[layer]
	if !restricted {
		return ""
	}

	if internal {
		if hasPrefix(importPath, modulePath+"/contracts") {
			if rule.contracts {
				return ""
			}
			return layer + " must not import contracts"
		}
		if !hasPrefix(importPath, servicePrefix) {
			return layer + " must not import runtime infrastructure"
		}
		target := strings.SplitN(strings.TrimPrefix(importPath, servicePrefix+"/"), "/", 2)[0]
		for _, allowed := range rule.layers {
			if target == allowed {
				return ""
			}
		}
		return fmt.Sprintf("%s must not import %s", layer, target)
	}

	if isStdlib(importPath) || rule.anyThirdParty {
		return ""
	}
	for _, library := range rule.libraries {
		if hasPrefix(importPath, library) {
			return ""
		}
	}
	return layer + " import is outside explicit allowlist"
}

func hasPrefix(path string, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// isStdlib treats any path whose first element has no dot as standard library.
func isStdlib(importPath string) bool {
	first, _, _ := strings.Cut(importPath, "/")
	return !strings.Contains(first, ".")
}

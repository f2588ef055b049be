package main

import (
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const modulePath = "reelrivals"

type violation struct {
	File   string
	Line   int
	Import string
	Rule   string
}

// layerRule lists the in-module prefixes a layer may import, relative to
// its own service. Stdlib imports are always allowed; third-party imports
// are allowed only when thirdParty is set.
type layerRule struct {
	allowed    []string
	external   []string
	thirdParty bool
}

var layerRules = map[string]layerRule{
	"domain": {
		allowed: []string{"/domain"},
	},
	"ports": {
		allowed:  []string{"/domain", "/ports"},
		external: []string{modulePath + "/contracts"},
	},
	"application": {
		allowed:  []string{"/application", "/domain", "/ports"},
		external: []string{modulePath + "/contracts"},
	},
	"transport": {
		allowed: []string{"/transport"},
	},
}

func main() {
	violations := collectViolations("contexts")
	if len(violations) == 0 {
		fmt.Println("boundary checks passed")
		return
	}

	sort.Slice(violations, func(i, j int) bool {
		if violations[i].File == violations[j].File {
			if violations[i].Line == violations[j].Line {
				return violations[i].Import < violations[j].Import
			}
			return violations[i].Line < violations[j].Line
		}
		return violations[i].File < violations[j].File
	})

	fmt.Println("boundary violations found:")
	for _, v := range violations {
		fmt.Printf("- %s:%d imports %q (%s)\n", v.File, v.Line, v.Import, v.Rule)
	}
	os.Exit(1)
}

func collectViolations(root string) []violation {
	var violations []violation

	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		normalized := filepath.ToSlash(path)
		parts := strings.Split(normalized, "/")
		if len(parts) < 4 || parts[0] != "contexts" {
			return nil
		}

		servicePrefix := fmt.Sprintf("%s/contexts/%s/%s", modulePath, parts[1], parts[2])
		violations = append(violations, validateFile(path, normalized, parts[3], servicePrefix)...)
		return nil
	})

	return violations
}

func validateFile(path string, normalizedPath string, layer string, servicePrefix string) []violation {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
	if err != nil {
		return []violation{{
			File: normalizedPath,
			Line: 1,
			Rule: "file must parse",
		}}
	}

	var violations []violation
	for _, imp := range file.Imports {
		importPath := strings.Trim(imp.Path.Value, "\"")
		line := fset.Position(imp.Pos()).Line
		report := func(rule string) {
			violations = append(violations, violation{
				File:   normalizedPath,
				Line:   line,
				Import: importPath,
				Rule:   rule,
			})
		}

		if hasPrefix(importPath, modulePath+"/contexts") && !hasPrefix(importPath, servicePrefix) {
			report("cross-service imports are forbidden")
		}

		rule, ok := layerRules[layer]
		if !ok || isStdlib(importPath) {
			continue
		}
		if strings.Contains(importPath, "/adapters/") {
			report(layer + " must not import adapters")
			continue
		}
		if hasPrefix(importPath, modulePath+"/internal") {
			report(layer + " must not import runtime infrastructure")
			continue
		}
		if !hasPrefix(importPath, modulePath) {
			if !rule.thirdParty {
				report(layer + " must not import third-party packages")
			}
			continue
		}

		allowed := append([]string(nil), rule.external...)
		for _, suffix := range rule.allowed {
			allowed = append(allowed, servicePrefix+suffix)
		}
		if !isAllowed(importPath, allowed) {
			report(layer + " import is outside explicit allowlist")
		}
	}
	return violations
}

func hasPrefix(path string, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func isAllowed(importPath string, allowedPrefixes []string) bool {
	for _, p := range allowedPrefixes {
		if hasPrefix(importPath, p) {
			return true
		}
	}
	return false
}

// isStdlib treats any import whose first element has no dot as standard library.
func isStdlib(importPath string) bool {
	first := strings.SplitN(importPath, "/", 2)[0]
	return !strings.Contains(first, ".") && first != modulePath
}

//go:build governance

package core_test

import (
	"go/types"
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

// singleUseAllowed lists core declarations that may have a single consumer.
var singleUseAllowed = map[string]bool{
	"Adapter":      true, // implemented by pkg/adapters, consumed through pkg/adapter
	"Location":     true, // produced by adapters, checked by the dev service
	"ErrorDataSet": true,
}

// coreUsage maps each exported pkg/core name to the packages referencing it.
func coreUsage(t *testing.T) map[string][]string {
	t.Helper()
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedImports | packages.NeedTypes |
			packages.NeedTypesInfo | packages.NeedDeps,
	}
	pkgs, err := packages.Load(cfg, modulePath+"/...")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}

	corePath := modulePath + "/pkg/core"
	exported := make(map[types.Object]string)
	for _, p := range pkgs {
		if p.PkgPath != corePath {
			continue
		}
		scope := p.Types.Scope()
		for _, name := range scope.Names() {
			if obj := scope.Lookup(name); obj.Exported() {
				exported[obj] = name
			}
		}
	}
	if len(exported) == 0 {
		t.Fatal("pkg/core not found or exports nothing")
	}

	users := make(map[string]map[string]bool, len(exported))
	for _, name := range exported {
		users[name] = make(map[string]bool)
	}
	for _, p := range pkgs {
		if p.PkgPath == corePath || strings.HasSuffix(p.PkgPath, "_test") || p.TypesInfo == nil {
			continue
		}
		for _, obj := range p.TypesInfo.Uses {
			if name, ok := exported[obj]; ok {
				users[name][strings.TrimPrefix(p.PkgPath, modulePath+"/")] = true
			}
		}
	}

	out := make(map[string][]string, len(users))
	for name, set := range users {
		list := make([]string, 0, len(set))
		for pkg := range set {
			list = append(list, pkg)
		}
		sort.Strings(list)
		out[name] = list
	}
	return out
}

// TestGovernance_CoreIsShared fails when a core declaration has exactly one
// consumer; such declarations belong in that consumer.
func TestGovernance_CoreIsShared(t *testing.T) {
	for name, users := range coreUsage(t) {
		if singleUseAllowed[name] {
			continue
		}
		switch len(users) {
		case 0:
			t.Logf("unused core declaration: %s", name)
		case 1:
			t.Errorf("core.%s is only used by %s; move it there", name, users[0])
		}
	}
}

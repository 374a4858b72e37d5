package ir

import "fmt"

// ValidationIssue is one structural problem found by Validate.
// Path is a dotted location such as "variants[EV_1].diag_services[2]".
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	if v.Path == "" {
		return v.Message
	}
	return v.Path + ": " + v.Message
}

// Validate checks structural integrity of db. It never fails fast: all
// issues are returned in document order.
func Validate(db *DiagDatabase) []ValidationIssue {
	if db == nil {
		return nil
	}
	var issues []ValidationIssue
	add := func(path, format string, args ...any) {
		issues = append(issues, ValidationIssue{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if db.EcuName == "" && len(db.Variants) > 0 {
		add("ecu_name", "ECU name is empty but %d variant(s) are present", len(db.Variants))
	}

	variantNames := make(map[string]int, len(db.Variants))
	for vi := range db.Variants {
		v := &db.Variants[vi]
		vpath := fmt.Sprintf("variants[%s]", v.ShortName())
		if v.ShortName() == "" {
			vpath = fmt.Sprintf("variants[%d]", vi)
			add(vpath, "variant short name is empty")
		} else if prev, dup := variantNames[v.ShortName()]; dup {
			add(vpath, "duplicate variant name (first at index %d)", prev)
		} else {
			variantNames[v.ShortName()] = vi
		}
		validateLayer(&v.DiagLayer, vpath, add)
	}
	for gi := range db.FunctionalGroups {
		fg := &db.FunctionalGroups[gi]
		validateLayer(&fg.DiagLayer, fmt.Sprintf("functional_groups[%s]", fg.DiagLayer.ShortName), add)
	}

	codes := make(map[uint32]string, len(db.Dtcs))
	for _, d := range db.Dtcs {
		if prev, dup := codes[d.TroubleCode]; dup {
			add(fmt.Sprintf("dtcs[%s]", d.ShortName), "duplicate trouble code 0x%06X (also used by %s)", d.TroubleCode, prev)
			continue
		}
		codes[d.TroubleCode] = d.ShortName
	}
	return issues
}

func validateLayer(l *DiagLayer, path string, add func(path, format string, args ...any)) {
	seen := make(map[string]struct{}, len(l.DiagServices))
	for si := range l.DiagServices {
		s := &l.DiagServices[si]
		if s.ShortName == "" {
			add(fmt.Sprintf("%s.diag_services[%d]", path, si), "service short name is empty")
			continue
		}
		if _, dup := seen[s.ShortName]; dup {
			add(fmt.Sprintf("%s.diag_services[%d]", path, si), "duplicate service name %q", s.ShortName)
			continue
		}
		seen[s.ShortName] = struct{}{}
	}
	for ci := range l.StateCharts {
		sc := &l.StateCharts[ci]
		if len(sc.States) == 0 {
			add(fmt.Sprintf("%s.state_charts[%s]", path, sc.ShortName), "state chart has no states")
		}
	}
}

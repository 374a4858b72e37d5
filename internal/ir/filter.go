package ir

import "slices"

// Visible reports whether an item carrying a is visible to the target audience.
func (a *Audience) Visible(target string) bool {
	if a == nil {
		return true
	}
	if len(a.Enabled) > 0 && !slices.Contains(a.Enabled, target) {
		return false
	}
	return !slices.Contains(a.Disabled, target)
}

// visibleToAny keeps an item when at least one of targets can see it.
func visibleToAny(a *Audience, targets []string) bool {
	for _, t := range targets {
		if a.Visible(t) {
			return true
		}
	}
	return false
}

// FilterLayer drops services and jobs hidden from every target in place.
// An empty target list leaves the layer untouched.
func FilterLayer(l *DiagLayer, targets ...string) {
	if len(targets) == 0 {
		return
	}
	l.DiagServices = slices.DeleteFunc(l.DiagServices, func(s DiagService) bool {
		return !visibleToAny(s.Audience, targets)
	})
	l.SingleEcuJobs = slices.DeleteFunc(l.SingleEcuJobs, func(j SingleEcuJob) bool {
		return !visibleToAny(j.Audience, targets)
	})
}

// FilterByAudience applies FilterLayer to every variant and functional group.
func FilterByAudience(db *DiagDatabase, targets ...string) {
	if db == nil || len(targets) == 0 {
		return
	}
	for i := range db.Variants {
		FilterLayer(&db.Variants[i].DiagLayer, targets...)
	}
	for i := range db.FunctionalGroups {
		FilterLayer(&db.FunctionalGroups[i].DiagLayer, targets...)
	}
}

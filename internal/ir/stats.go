package ir

import (
	"maps"
	"slices"
)

// Stats is a summary used by `info` and the conversion log.
type Stats struct {
	Variants         int
	FunctionalGroups int
	Services         int
	Jobs             int
	ComParams        int
	StateCharts      int
	Dtcs             int
}

func (db *DiagDatabase) Stats() Stats {
	if db == nil {
		return Stats{}
	}
	st := Stats{
		Variants:         len(db.Variants),
		FunctionalGroups: len(db.FunctionalGroups),
		Dtcs:             len(db.Dtcs),
	}
	count := func(l *DiagLayer) {
		st.Services += len(l.DiagServices)
		st.Jobs += len(l.SingleEcuJobs)
		st.ComParams += len(l.ComParamRefs)
		st.StateCharts += len(l.StateCharts)
	}
	for i := range db.Variants {
		count(&db.Variants[i].DiagLayer)
	}
	for i := range db.FunctionalGroups {
		count(&db.FunctionalGroups[i].DiagLayer)
	}
	return st
}

// CodeFiles lists every job code file referenced by the database, sorted and
// without duplicates. Libraries are included.
func (db *DiagDatabase) CodeFiles() []string {
	seen := make(map[string]struct{})
	collect := func(l *DiagLayer) {
		for _, job := range l.SingleEcuJobs {
			for _, pc := range job.ProgCodes {
				if pc.CodeFile != "" {
					seen[pc.CodeFile] = struct{}{}
				}
				for _, lib := range pc.Libraries {
					if lib.CodeFile != "" {
						seen[lib.CodeFile] = struct{}{}
					}
				}
			}
		}
	}
	for i := range db.Variants {
		collect(&db.Variants[i].DiagLayer)
	}
	for i := range db.FunctionalGroups {
		collect(&db.FunctionalGroups[i].DiagLayer)
	}
	return slices.Sorted(maps.Keys(seen))
}

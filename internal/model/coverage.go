package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Position is a line/column pair. Lines are 1-based, columns 0-based.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Range is a source span.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// FunctionMapping describes one instrumented function.
type FunctionMapping struct {
	Name string `json:"name"`
	Decl Range  `json:"decl"`
	Loc  Range  `json:"loc"`
	Line int    `json:"line"`
}

// BranchMapping describes one instrumented branch point and its paths.
type BranchMapping struct {
	Loc       Range   `json:"loc"`
	Type      string  `json:"type"`
	Locations []Range `json:"locations"`
	Line      int     `json:"line"`
}

// FileCoverage is the istanbul per-file coverage record.
type FileCoverage struct {
	Path           string                     `json:"path"`
	StatementMap   map[string]Range           `json:"statementMap"`
	FnMap          map[string]FunctionMapping `json:"fnMap"`
	BranchMap      map[string]BranchMapping   `json:"branchMap"`
	S              map[string]int             `json:"s"`
	F              map[string]int             `json:"f"`
	B              map[string][]int           `json:"b"`
	Hash           string                     `json:"hash,omitempty"`
	InputSourceMap json.RawMessage            `json:"inputSourceMap,omitempty"`
}

// NewFileCoverage returns an empty record for path.
func NewFileCoverage(path string) *FileCoverage {
	return &FileCoverage{
		Path:         path,
		StatementMap: map[string]Range{},
		FnMap:        map[string]FunctionMapping{},
		BranchMap:    map[string]BranchMapping{},
		S:            map[string]int{},
		F:            map[string]int{},
		B:            map[string][]int{},
	}
}

// LineHits derives line counters from statements: a line's count is the
// highest count of any statement starting on it.
func (fc *FileCoverage) LineHits() map[int]int {
	lines := make(map[int]int, len(fc.StatementMap))

	for id, loc := range fc.StatementMap {
		count := fc.S[id]
		if prev, ok := lines[loc.Start.Line]; !ok || prev < count {
			lines[loc.Start.Line] = count
		}
	}

	return lines
}

// Summary computes covered/total counts for every metric.
func (fc *FileCoverage) Summary() Summary {
	sum := Summary{}

	sum[Statements] = countHits(fc.S)
	sum[Functions] = countHits(fc.F)

	var branches Counts

	for _, hits := range fc.B {
		for _, h := range hits {
			branches.Total++
			if h > 0 {
				branches.Covered++
			}
		}
	}

	sum[Branches] = branches

	var lines Counts

	for _, h := range fc.LineHits() {
		lines.Total++
		if h > 0 {
			lines.Covered++
		}
	}

	sum[Lines] = lines

	return sum
}

// Merge adds the counters of other into fc. Mappings missing from fc are
// copied over; branch arrays are summed element-wise.
func (fc *FileCoverage) Merge(other *FileCoverage) {
	for id, loc := range other.StatementMap {
		if _, ok := fc.StatementMap[id]; !ok {
			fc.StatementMap[id] = loc
		}
	}

	for id, fn := range other.FnMap {
		if _, ok := fc.FnMap[id]; !ok {
			fc.FnMap[id] = fn
		}
	}

	for id, br := range other.BranchMap {
		if _, ok := fc.BranchMap[id]; !ok {
			fc.BranchMap[id] = br
		}
	}

	for id, n := range other.S {
		fc.S[id] += n
	}

	for id, n := range other.F {
		fc.F[id] += n
	}

	for id, hits := range other.B {
		cur := fc.B[id]
		if len(cur) < len(hits) {
			grown := make([]int, len(hits))
			copy(grown, cur)
			cur = grown
		}

		for i, h := range hits {
			cur[i] += h
		}

		fc.B[id] = cur
	}
}

// Clone returns a deep copy of fc.
func (fc *FileCoverage) Clone() *FileCoverage {
	out := NewFileCoverage(fc.Path)
	out.Hash = fc.Hash
	out.InputSourceMap = append(json.RawMessage(nil), fc.InputSourceMap...)

	for id, loc := range fc.StatementMap {
		out.StatementMap[id] = loc
	}

	for id, fn := range fc.FnMap {
		out.FnMap[id] = fn
	}

	for id, br := range fc.BranchMap {
		br.Locations = append([]Range(nil), br.Locations...)
		out.BranchMap[id] = br
	}

	for id, n := range fc.S {
		out.S[id] = n
	}

	for id, n := range fc.F {
		out.F[id] = n
	}

	for id, hits := range fc.B {
		out.B[id] = append([]int(nil), hits...)
	}

	return out
}

func countHits(counters map[string]int) Counts {
	var c Counts

	for _, n := range counters {
		c.Total++
		if n > 0 {
			c.Covered++
		}
	}

	return c
}

// CoverageMap maps file paths to their coverage, remembering the order in
// which files were added.
type CoverageMap struct {
	order []string
	files map[string]*FileCoverage
}

// NewCoverageMap returns an empty map.
func NewCoverageMap() *CoverageMap {
	return &CoverageMap{files: map[string]*FileCoverage{}}
}

// AddFileCoverage inserts fc, merging counters if the path is already present.
func (cm *CoverageMap) AddFileCoverage(fc *FileCoverage) {
	if existing, ok := cm.files[fc.Path]; ok {
		existing.Merge(fc)
		return
	}

	cm.order = append(cm.order, fc.Path)
	cm.files[fc.Path] = fc
}

// Merge adds every file of other into cm. Records new to cm are copied, so
// later merges never write through to other.
func (cm *CoverageMap) Merge(other *CoverageMap) {
	for _, f := range other.Files() {
		if existing, ok := cm.files[f]; ok {
			existing.Merge(other.files[f])
			continue
		}

		cm.AddFileCoverage(other.files[f].Clone())
	}
}

// Files returns paths in insertion order.
func (cm *CoverageMap) Files() []string {
	out := make([]string, len(cm.order))
	copy(out, cm.order)

	return out
}

// FileCoverageFor returns the record for path.
func (cm *CoverageMap) FileCoverageFor(path string) (*FileCoverage, bool) {
	fc, ok := cm.files[path]
	return fc, ok
}

// Len returns the number of files.
func (cm *CoverageMap) Len() int {
	return len(cm.order)
}

// Summary aggregates counts across every file.
func (cm *CoverageMap) Summary() Summary {
	var total Summary

	for _, f := range cm.order {
		total = total.Add(cm.files[f].Summary())
	}

	return total
}

// MarshalJSON writes files in insertion order.
func (cm *CoverageMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, f := range cm.order {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(f)
		if err != nil {
			return nil, err
		}

		val, err := json.Marshal(cm.files[f])
		if err != nil {
			return nil, fmt.Errorf("marshal coverage for %s: %w", f, err)
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// SortedIDs returns counter ids in numeric order; istanbul ids are decimal strings.
func SortedIDs[V any](m map[string]V) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool {
		a, errA := strconv.Atoi(ids[i])
		b, errB := strconv.Atoi(ids[j])

		if errA != nil || errB != nil {
			return ids[i] < ids[j]
		}

		return a < b
	})

	return ids
}

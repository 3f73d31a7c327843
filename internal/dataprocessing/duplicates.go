package dataprocessing

import (
	"sort"

	"retentionpulse/pkg/contracts/domain"
)

// DetectDuplicates groups records by customer id and reports ids that occur
// more than once, with the distinct files and cutoff dates they came from.
// Groups are ordered by first appearance. When no source carried a customer
// id column the report is marked not applicable.
func DetectDuplicates(ds *domain.Dataset) domain.DuplicateReport {
	if ds == nil || !ds.Columns.CustomerID {
		return domain.DuplicateReport{Applicable: false}
	}

	type group struct {
		count int
		files map[string]struct{}
		dates map[string]struct{}
	}
	groups := make(map[string]*group)
	var order []string

	for _, r := range ds.Records {
		if !r.HasCustomerID || r.CustomerID == "" {
			continue
		}
		g, ok := groups[r.CustomerID]
		if !ok {
			g = &group{files: map[string]struct{}{}, dates: map[string]struct{}{}}
			groups[r.CustomerID] = g
			order = append(order, r.CustomerID)
		}
		g.count++
		g.files[r.SourceFile] = struct{}{}
		if key := r.CutoffKey(); key != "" {
			g.dates[key] = struct{}{}
		}
	}

	report := domain.DuplicateReport{Applicable: true, Groups: []domain.DuplicateGroup{}}
	for _, id := range order {
		g := groups[id]
		if g.count < 2 {
			continue
		}
		report.Groups = append(report.Groups, domain.DuplicateGroup{
			CustomerID:  id,
			Count:       g.count,
			Files:       sortedKeys(g.files),
			CutoffDates: sortedKeys(g.dates),
		})
	}
	return report
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

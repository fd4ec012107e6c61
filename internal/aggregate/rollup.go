// Package aggregate computes bottom-up rollups over task trees and the
// cross-project views built from them. Nothing here is cached: every
// result is derived from the trees passed in, so callers recompute
// whenever a snapshot changes.
package aggregate

import (
	"math"
	"time"

	"github.com/thenoetrevino/taskroll/internal/models"
	"github.com/thenoetrevino/taskroll/internal/tree"
	"github.com/thenoetrevino/taskroll/internal/types"
)

// RollupTree computes the rollup of every node in the forest, keyed by
// task id, plus the combined rollup of all roots
func RollupTree(roots []*models.Task) (map[types.TaskID]models.Rollup, models.Rollup, error) {
	byNode := make(map[*models.Task]models.Rollup)

	// Rebuild visits children before parents; returning the original node
	// keeps the children slice pointing at nodes already in byNode
	visited, err := tree.Rebuild(roots, func(node *models.Task, children []*models.Task) (*models.Task, bool) {
		r := models.Rollup{Total: 1, HasCritical: node.HasCriticalIssue()}
		if node.IsDone() {
			r.Completed = 1
		}
		for _, child := range children {
			cr := byNode[child]
			r.Total += cr.Total
			r.Completed += cr.Completed
			r.HasCritical = r.HasCritical || cr.HasCritical
		}
		byNode[node] = r
		return node, true
	})
	if err != nil {
		return nil, models.Rollup{}, err
	}

	byID := make(map[types.TaskID]models.Rollup, len(byNode))
	for node, r := range byNode {
		byID[node.ID] = r
	}

	var total models.Rollup
	for _, root := range visited {
		r := byNode[root]
		total.Total += r.Total
		total.Completed += r.Completed
		total.HasCritical = total.HasCritical || r.HasCritical
	}
	return byID, total, nil
}

// CompletionPercentage is completed/total*100, 0 for an empty tree and
// clamped to [0, 100]
func CompletionPercentage(r models.Rollup) float64 {
	if r.Total <= 0 {
		return models.MinPercentage
	}
	pct := float64(r.Completed) / float64(r.Total) * 100
	if math.IsNaN(pct) {
		return models.MinPercentage
	}
	return math.Max(models.MinPercentage, math.Min(models.MaxPercentage, pct))
}

// Project rolls up a whole project and counts its open, overdue and
// critical nodes as of now
func Project(p *models.Project, now time.Time) (models.ProjectAggregate, error) {
	_, total, err := RollupTree(p.Tasks)
	if err != nil {
		return models.ProjectAggregate{}, err
	}

	agg := models.ProjectAggregate{
		ProjectID:            p.ID,
		ProjectName:          p.Name,
		Kind:                 p.Kind,
		Rollup:               total,
		CompletionPercentage: CompletionPercentage(total),
	}

	err = tree.Walk(p.Tasks, func(n, _ *models.Task, _ int) error {
		if !n.IsDone() {
			agg.Open++
		}
		if n.IsOverdue(now) {
			agg.Overdue++
		}
		if n.HasCriticalIssue() {
			agg.CriticalTasks++
		}
		return nil
	})
	if err != nil {
		return models.ProjectAggregate{}, err
	}
	return agg, nil
}

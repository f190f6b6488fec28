package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"projecttracker/internal/model"
)

// EmployeeStore is the read-only directory surface the core consumes.
type EmployeeStore interface {
	Get(ctx context.Context, id int) (*model.Employee, error)
	DirectReports(ctx context.Context, id int) ([]model.Employee, error)
}

// Directory walks the organizational supervisor graph. All traversals are
// iterative with a visited set: well-formed data has no cycles, but a cycle
// in the directory must terminate the walk, not hang it.
type Directory struct {
	store  EmployeeStore
	logger *zap.Logger
}

func NewDirectory(store EmployeeStore, logger *zap.Logger) *Directory {
	return &Directory{
		store:  store,
		logger: logger,
	}
}

func (d *Directory) Get(ctx context.Context, id int) (*model.Employee, error) {
	return d.store.Get(ctx, id)
}

// Chain returns the supervisor chain starting at the employee itself,
// nearest-first. level caps the number of supervisor hops taken above the
// starting employee (level=2 yields at most three people); level <= 0 walks
// to the root.
func (d *Directory) Chain(ctx context.Context, employeeID, level int) ([]model.Employee, error) {
	var chain []model.Employee
	visited := make(map[int]bool)

	id := employeeID
	for {
		if visited[id] {
			d.logger.Warn("Supervisor cycle detected, stopping walk",
				zap.Int("start", employeeID),
				zap.Int("at", id),
			)
			break
		}
		visited[id] = true

		e, err := d.store.Get(ctx, id)
		if err != nil {
			// A dangling reference ends the walk; an orphan start yields an
			// empty chain rather than an error.
			if errors.Is(err, model.ErrNotFound) {
				d.logger.Warn("Supervisor walk hit a missing employee",
					zap.Int("start", employeeID),
					zap.Int("missing", id),
				)
				break
			}
			return nil, err
		}
		chain = append(chain, *e)

		if level > 0 && len(chain) > level {
			break
		}
		if e.SupervisorID == nil {
			break
		}
		id = *e.SupervisorID
	}

	return chain, nil
}

// Reports returns every transitive report of the employee, breadth-first.
func (d *Directory) Reports(ctx context.Context, employeeID int) ([]model.Employee, error) {
	var all []model.Employee
	visited := map[int]bool{employeeID: true}
	queue := []int{employeeID}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		reports, err := d.store.DirectReports(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, e := range reports {
			if visited[e.ID] {
				continue
			}
			visited[e.ID] = true
			all = append(all, e)
			queue = append(queue, e.ID)
		}
	}

	return all, nil
}

package query

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/schemaq/internal/planner"
)

// PlanRenderer writes a join plan in a compact text form for human
// inspection.
type PlanRenderer struct {
	writer io.Writer
}

// NewPlanRenderer creates a new plan renderer
func NewPlanRenderer(w io.Writer) *PlanRenderer {
	return &PlanRenderer{writer: w}
}

// Render writes the plan's alias assignments, join sequence, and any
// ambiguity notes.
func (r *PlanRenderer) Render(plan *planner.Plan) error {
	if _, err := fmt.Fprintln(r.writer, "JOIN PLAN"); err != nil {
		return err
	}

	for _, e := range plan.Entries {
		if e.Rel == nil {
			_, _ = fmt.Fprintf(r.writer, "  %s = %s (primary)\n", e.Alias, e.Table)
			continue
		}
		pairs := make([]string, len(e.Rel.Pairs))
		for i, p := range e.Rel.Pairs {
			pairs[i] = fmt.Sprintf("%s.%s = %s.%s", e.Rel.Child, p.Child, e.Rel.Parent, p.Parent)
		}
		_, _ = fmt.Fprintf(r.writer, "  %s = %s via %s -> %s (%s) on %s\n",
			e.Alias, e.Table, e.Rel.Child, e.Rel.Parent, e.Rel.Kind, strings.Join(pairs, " AND "))
	}

	if len(plan.Notes) > 0 {
		_, _ = fmt.Fprintln(r.writer)
		_, _ = fmt.Fprintln(r.writer, "  NOTES:")
		for _, n := range plan.Notes {
			_, _ = fmt.Fprintf(r.writer, "    %d relationships connect %s and %s, earliest-registered used\n",
				n.Count, n.TableA, n.TableB)
		}
	}

	return nil
}
